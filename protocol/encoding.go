package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrSize        = errors.New("protocol: payload size mismatch")
	ErrValue       = errors.New("protocol: value out of range")
	ErrUnknownType = errors.New("protocol: unknown message type")
)

// PortUnset is the port value that means "use the port from the URL".
const PortUnset = -1

// ValidPort reports whether p is PortUnset or a TCP port number.
func ValidPort(p int) bool {
	return p == PortUnset || (p >= 1 && p <= 65535)
}

func EncodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func decodeUint32(what string, data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("%s: %w: got %d bytes, want 4", what, ErrSize, len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

func EncodeMethod(m Method) []byte { return EncodeUint32(uint32(m)) }

func DecodeMethod(data []byte) (Method, error) {
	v, err := decodeUint32("method", data)
	if err != nil {
		return 0, err
	}
	m := Method(v)
	if !m.Valid() {
		return 0, fmt.Errorf("method: %w: %d", ErrValue, v)
	}
	return m, nil
}

func EncodeStatus(code int) []byte { return EncodeUint32(uint32(int32(code))) }

func DecodeStatus(data []byte) (int, error) {
	v, err := decodeUint32("status", data)
	if err != nil {
		return 0, err
	}
	return int(int32(v)), nil
}

func EncodeHTTPVersion(v HTTPVersion) []byte { return EncodeUint32(uint32(v)) }

func DecodeHTTPVersion(data []byte) (HTTPVersion, error) {
	v, err := decodeUint32("http_version", data)
	if err != nil {
		return 0, err
	}
	hv := HTTPVersion(v)
	if !hv.Valid() {
		return 0, fmt.Errorf("http_version: %w: %d", ErrValue, v)
	}
	return hv, nil
}

func EncodePort(p int) []byte { return EncodeUint32(uint32(int32(p))) }

func DecodePort(data []byte) (int, error) {
	v, err := decodeUint32("port", data)
	if err != nil {
		return 0, err
	}
	p := int(int32(v))
	if !ValidPort(p) {
		return 0, fmt.Errorf("invalid port number %d: %w", p, ErrValue)
	}
	return p, nil
}

// EncodePeerVerification encodes whether the executor verifies TLS peers.
func EncodePeerVerification(verify bool) []byte {
	if verify {
		return []byte{1}
	}
	return []byte{0}
}

func DecodePeerVerification(data []byte) (bool, error) {
	if len(data) != 1 {
		return false, fmt.Errorf("peer_verification: %w: got %d bytes, want 1", ErrSize, len(data))
	}
	switch data[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("peer_verification: %w: %d", ErrValue, data[0])
}

func EncodeShowTarget(t ShowTarget) []byte { return EncodeUint32(uint32(t)) }

func DecodeShowTarget(data []byte) (ShowTarget, error) {
	v, err := decodeUint32("show", data)
	if err != nil {
		return 0, err
	}
	t := ShowTarget(v)
	if !t.Valid() {
		return 0, fmt.Errorf("show: %w: %d", ErrValue, v)
	}
	return t, nil
}

// EncodeHeaderName encodes a header name as a NUL terminated string.
func EncodeHeaderName(name string) []byte {
	b := make([]byte, 0, len(name)+1)
	b = append(b, name...)
	return append(b, 0)
}

func DecodeHeaderName(data []byte) (string, error) {
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return "", fmt.Errorf("header name: %w: missing NUL terminator", ErrSize)
	}
	return string(data[:i]), nil
}
