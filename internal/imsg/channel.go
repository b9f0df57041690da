package imsg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

const readChunk = 64 << 10

// ErrWouldBlock is returned by Flush when the connection could not take any bytes right now.
var ErrWouldBlock = errors.New("imsg: operation would block")

// Channel is a buffered frame channel over a connection.
// A Channel is not safe for concurrent use.
type Channel struct {
	conn io.ReadWriter

	rbuf    []byte
	wbuf    []byte
	scratch []byte
}

func New(conn io.ReadWriter) *Channel {
	return &Channel{conn: conn}
}

// Compose appends a frame to the outgoing buffer. It never writes to the connection.
// On error the outgoing buffer is left untouched.
func (c *Channel) Compose(typ uint32, data []byte) error {
	buf, err := appendFrame(c.wbuf, typ, data)
	if err != nil {
		return err
	}
	c.wbuf = buf
	return nil
}

// Pending is the number of bytes waiting to be flushed.
func (c *Channel) Pending() int { return len(c.wbuf) }

// Buffered is the number of received bytes not yet returned by Next.
func (c *Channel) Buffered() int { return len(c.rbuf) }

// Flush makes a single attempt at writing the outgoing buffer and returns the number of bytes written.
// Written bytes are dropped from the buffer.
func (c *Channel) Flush() (int, error) {
	if len(c.wbuf) == 0 {
		return 0, nil
	}
	n, err := c.conn.Write(c.wbuf)
	if n > 0 {
		rest := copy(c.wbuf, c.wbuf[n:])
		c.wbuf = c.wbuf[:rest]
	}
	if err != nil {
		switch {
		case isWouldBlock(err):
			return n, ErrWouldBlock
		case isClosed(err):
			return n, fmt.Errorf("%w: %s", ErrClosed, err)
		}
		return n, fmt.Errorf("imsg: write: %w", err)
	}
	if n == 0 {
		return 0, ErrClosed
	}
	return n, nil
}

// FlushAll flushes until the outgoing buffer is empty.
func (c *Channel) FlushAll() error {
	for len(c.wbuf) > 0 {
		_, err := c.Flush()
		if errors.Is(err, ErrWouldBlock) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadAvailable performs one read from the connection into the incoming buffer.
// A read of zero bytes means the peer went away and is reported as ErrClosed.
func (c *Channel) ReadAvailable() (int, error) {
	if c.scratch == nil {
		c.scratch = make([]byte, readChunk)
	}
	n, err := c.conn.Read(c.scratch)
	if n > 0 {
		c.rbuf = append(c.rbuf, c.scratch[:n]...)
		return n, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return 0, ErrClosed
	}
	if isClosed(err) {
		return 0, fmt.Errorf("%w: %s", ErrClosed, err)
	}
	return 0, fmt.Errorf("imsg: read: %w", err)
}

// Next extracts the next complete message from the incoming buffer.
// It reports false when more bytes have to be read first.
func (c *Channel) Next() (Message, bool, error) {
	msg, used, err := Decode(c.rbuf)
	if err != nil {
		return Message{}, false, err
	}
	if used == 0 {
		return Message{}, false, nil
	}
	rest := copy(c.rbuf, c.rbuf[used:])
	c.rbuf = c.rbuf[:rest]
	return msg, true, nil
}

// Recv blocks until a complete message is available and returns it.
func (c *Channel) Recv() (Message, error) {
	for {
		msg, ok, err := c.Next()
		if err != nil {
			return Message{}, err
		}
		if ok {
			return msg, nil
		}
		if err := c.PollReadable(); err != nil {
			return Message{}, err
		}
		if _, err := c.ReadAvailable(); err != nil {
			return Message{}, err
		}
	}
}

// Close closes the underlying connection if it can be closed.
func (c *Channel) Close() error {
	if closer, ok := c.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func isClosed(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.EOF)
}

func isWouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, os.ErrDeadlineExceeded)
}
