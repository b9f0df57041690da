package protocol

import "fmt"

// HTTPVersion is the HTTP protocol version the executor asks for.
type HTTPVersion uint32

const (
	HTTPVersionNone HTTPVersion = iota
	HTTP10
	HTTP11
	HTTP2
	HTTP2TLS
	HTTP3
)

// versionNames is indexed by HTTPVersion; the value is what "set http" accepts.
var versionNames = [...]string{
	HTTPVersionNone: "none",
	HTTP10:          "1.0",
	HTTP11:          "1.1",
	HTTP2:           "2",
	HTTP2TLS:        "2TLS",
	HTTP3:           "3",
}

var versionDescriptions = [...]string{
	HTTPVersionNone: "none",
	HTTP10:          "HTTP/1.0",
	HTTP11:          "HTTP/1.1",
	HTTP2:           "HTTP/2",
	HTTP2TLS:        "HTTP/2 with TLS",
	HTTP3:           "HTTP/3",
}

func (v HTTPVersion) Valid() bool { return int(v) < len(versionNames) }

// Name is the short form accepted by ParseHTTPVersion.
func (v HTTPVersion) Name() string {
	if !v.Valid() {
		return fmt.Sprintf("HTTPVersion(%d)", uint32(v))
	}
	return versionNames[v]
}

func (v HTTPVersion) String() string {
	if !v.Valid() {
		return v.Name()
	}
	return versionDescriptions[v]
}

// ParseHTTPVersion parses one of "1.0", "1.1", "2", "2TLS", "3" or "none".
func ParseHTTPVersion(s string) (HTTPVersion, bool) {
	for i, name := range versionNames {
		if s == name {
			return HTTPVersion(i), true
		}
	}
	return 0, false
}

// ParseHTTPVersionFlag parses the single letter form of the -V flag: 0, 1, 2, T, 3 or X.
func ParseHTTPVersionFlag(s string) (HTTPVersion, bool) {
	switch s {
	case "0":
		return HTTP10, true
	case "1":
		return HTTP11, true
	case "2":
		return HTTP2, true
	case "T":
		return HTTP2TLS, true
	case "3":
		return HTTP3, true
	case "X":
		return HTTPVersionNone, true
	}
	return 0, false
}
