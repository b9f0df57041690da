package imsg

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the size of a frame header: type(4) + length(2).
	HeaderSize = 6
	// MaxFrameSize is the largest frame, header included, that the length field can describe.
	MaxFrameSize = 1<<16 - 1
	// MaxPayloadSize is the largest payload a single frame can carry.
	MaxPayloadSize = MaxFrameSize - HeaderSize
)

var (
	ErrPayloadTooLarge = errors.New("imsg: payload exceeds maximum frame size")
	ErrBadFrame        = errors.New("imsg: malformed frame length")
	ErrClosed          = errors.New("imsg: connection closed")
	ErrBadConn         = errors.New("imsg: bad connection")
	ErrUnsupported     = errors.New("imsg: socket pairs are not supported on this platform")
)

// Message is one decoded frame.
type Message struct {
	Type uint32
	Data []byte
}

// Len is the frame length of the message as it appears on the wire.
func (m Message) Len() int { return HeaderSize + len(m.Data) }

// appendFrame appends the encoding of a single frame to dst.
func appendFrame(dst []byte, typ uint32, data []byte) ([]byte, error) {
	if len(data) > MaxPayloadSize {
		return dst, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], typ)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(HeaderSize+len(data)))
	dst = append(dst, hdr[:]...)
	return append(dst, data...), nil
}

// Encode serializes a message into a standalone frame.
func Encode(typ uint32, data []byte) ([]byte, error) {
	return appendFrame(make([]byte, 0, HeaderSize+len(data)), typ, data)
}

// Decode parses one frame from the front of buf. It returns the number of
// bytes consumed, or 0 when buf does not yet hold a complete frame.
func Decode(buf []byte) (Message, int, error) {
	if len(buf) < HeaderSize {
		return Message{}, 0, nil
	}
	typ := binary.BigEndian.Uint32(buf[0:4])
	size := int(binary.BigEndian.Uint16(buf[4:6]))
	if size < HeaderSize {
		return Message{}, 0, fmt.Errorf("%w: %d", ErrBadFrame, size)
	}
	if len(buf) < size {
		return Message{}, 0, nil
	}
	msg := Message{Type: typ}
	if size > HeaderSize {
		msg.Data = make([]byte, size-HeaderSize)
		copy(msg.Data, buf[HeaderSize:size])
	}
	return msg, size, nil
}
