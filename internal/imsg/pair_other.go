//go:build !unix

package imsg

import (
	"net"
	"os"
)

func Socketpair() (*os.File, *os.File, error) { return nil, nil, ErrUnsupported }

func Pair() (net.Conn, net.Conn, error) { return nil, nil, ErrUnsupported }

// FileConn closes f, there is no way to use it as a channel here.
func FileConn(f *os.File) (net.Conn, error) {
	f.Close()
	return nil, ErrUnsupported
}
