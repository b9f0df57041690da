//go:build unix

package imsg

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Socketpair returns both ends of a connected AF_UNIX stream socket pair as files.
// Both descriptors are close-on-exec; pass one through exec.Cmd.ExtraFiles to hand it to a child.
func Socketpair() (*os.File, *os.File, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	return os.NewFile(uintptr(fds[0]), "imsg-parent"), os.NewFile(uintptr(fds[1]), "imsg-child"), nil
}

// Pair returns both ends of a socket pair as connections.
func Pair() (net.Conn, net.Conn, error) {
	a, b, err := Socketpair()
	if err != nil {
		return nil, nil, err
	}
	ca, err := FileConn(a)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	cb, err := FileConn(b)
	if err != nil {
		ca.Close()
		return nil, nil, err
	}
	return ca, cb, nil
}

// FileConn turns an inherited or freshly created socket file into a connection.
// The file is closed, the returned connection owns a duplicate of the descriptor.
func FileConn(f *os.File) (net.Conn, error) {
	defer f.Close()
	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("converting %s to conn: %w", f.Name(), err)
	}
	return conn, nil
}
