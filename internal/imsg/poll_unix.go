//go:build unix

package imsg

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// PollReadable blocks until the connection has data to read or is in an error state.
// Connections without a file descriptor return immediately, their Read blocks anyway.
func (c *Channel) PollReadable() error {
	sc, ok := c.conn.(syscall.Conn)
	if !ok {
		return nil
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return fmt.Errorf("imsg: raw conn: %w", err)
	}

	var pollErr error
	err = rc.Read(func(fd uintptr) bool {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		for {
			n, err := unix.Poll(fds, 0)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				pollErr = fmt.Errorf("imsg: poll: %w", err)
				return true
			}
			if n == 0 {
				// not ready yet, let the runtime poller wait for us
				return false
			}
			if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
				pollErr = ErrBadConn
			}
			return true
		}
	})
	if err != nil {
		return fmt.Errorf("imsg: waiting for readability: %w", err)
	}
	return pollErr
}
