// Package command is the model of one REPL line and its parser.
package command

import (
	"github.com/guseggert/crest/protocol"
)

// Command is one parsed REPL line. The set of implementations is closed.
type Command interface {
	isCommand()
}

// Request performs an HTTP exchange.
type Request struct {
	Method protocol.Method
	URL    string
	// Payload is nil when the line has none.
	Payload []byte
}

// SettingChange sets or, when Unset is true, clears one setting.
type SettingChange struct {
	Setting protocol.Setting
	Unset   bool

	Text        string
	HTTPVersion protocol.HTTPVersion
	Port        int
	Verify      bool
}

// Message returns the SET_* message that carries the change to the executor.
func (c SettingChange) Message() (protocol.MessageType, []byte) {
	typ := c.Setting.MessageType()
	if c.Unset {
		switch c.Setting {
		case protocol.SettingHTTPVersion:
			return typ, protocol.EncodeHTTPVersion(protocol.HTTPVersionNone)
		case protocol.SettingPort:
			return typ, protocol.EncodePort(protocol.PortUnset)
		case protocol.SettingPeerVerification:
			return typ, protocol.EncodePeerVerification(true)
		}
		return typ, nil
	}
	switch c.Setting {
	case protocol.SettingHTTPVersion:
		return typ, protocol.EncodeHTTPVersion(c.HTTPVersion)
	case protocol.SettingPort:
		return typ, protocol.EncodePort(c.Port)
	case protocol.SettingPeerVerification:
		return typ, protocol.EncodePeerVerification(c.Verify)
	}
	return typ, []byte(c.Text)
}

// Show prints the value of one setting.
type Show struct {
	Setting protocol.Setting
}

// ListHeaders prints the stored headers.
type ListHeaders struct{}

// AddHeader stores a raw header line such as "Accept: text/plain".
type AddHeader struct {
	Line string
}

// DeleteHeader removes a header by name.
type DeleteHeader struct {
	Name string
}

// Pipe feeds the last response body to a shell command.
type Pipe struct {
	Shell string
}

type SpecialKind int

const (
	Help SpecialKind = iota
	Quit
	Version
)

// Special commands are handled by the REPL itself.
type Special struct {
	Kind SpecialKind
}

func (Request) isCommand()       {}
func (SettingChange) isCommand() {}
func (Show) isCommand()          {}
func (ListHeaders) isCommand()   {}
func (AddHeader) isCommand()     {}
func (DeleteHeader) isCommand()  {}
func (Pipe) isCommand()          {}
func (Special) isCommand()       {}
