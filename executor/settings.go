package executor

import (
	"strconv"

	"github.com/guseggert/crest/protocol"
)

// DefaultBufferSize is the initial size of the buffer a response body is read into.
const DefaultBufferSize = 256 << 10

// Settings are the scalar knobs the driver replicates into the executor, one SET_* message at a time.
type Settings struct {
	BufferSize           int
	UserAgent            string
	Prefix               string
	HTTPVersion          protocol.HTTPVersion
	Port                 int
	SkipPeerVerification bool
}

func DefaultSettings(userAgent string) Settings {
	return Settings{
		BufferSize:  DefaultBufferSize,
		UserAgent:   userAgent,
		HTTPVersion: protocol.HTTP2TLS,
		Port:        protocol.PortUnset,
	}
}

// Show formats the current value of a setting the way the show command prints it.
func (s Settings) Show(setting protocol.Setting) string {
	switch setting {
	case protocol.SettingUserAgent:
		return s.UserAgent
	case protocol.SettingPrefix:
		return s.Prefix
	case protocol.SettingHTTPVersion:
		return s.HTTPVersion.String()
	case protocol.SettingPort:
		return strconv.Itoa(s.Port)
	case protocol.SettingPeerVerification:
		if s.SkipPeerVerification {
			return "off"
		}
		return "on"
	}
	return ""
}
