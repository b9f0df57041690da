package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guseggert/crest/protocol"
)

// ParseError is a line the REPL could not make sense of.
type ParseError struct {
	Line string
	Msg  string
}

func (e *ParseError) Error() string { return e.Msg }

func parseErr(line, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Parse parses one REPL line. Blank lines and comments return a nil Command and no error.
func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] == '#' {
		return nil, nil
	}
	if trimmed[0] == '|' {
		shell := strings.TrimSpace(trimmed[1:])
		if shell == "" {
			return nil, parseErr(line, "missing command to pipe to")
		}
		return Pipe{Shell: shell}, nil
	}

	switch trimmed {
	case "help", "usage":
		return Special{Kind: Help}, nil
	case "quit", "exit":
		return Special{Kind: Quit}, nil
	case "version":
		return Special{Kind: Version}, nil
	case "headers":
		return ListHeaders{}, nil
	}

	word, rest := cut(trimmed)
	switch word {
	case "set":
		return parseSet(line, rest)
	case "unset":
		return parseUnset(line, rest)
	case "show":
		return parseShow(line, rest)
	case "add":
		if rest == "" {
			return nil, parseErr(line, "missing header to add")
		}
		return AddHeader{Line: rest}, nil
	case "del":
		if rest == "" {
			return nil, parseErr(line, "missing header to delete")
		}
		return DeleteHeader{Name: rest}, nil
	}
	return parseRequest(line, word, rest)
}

// cut splits s at the first run of whitespace.
func cut(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

func parseSetting(line, name string) (protocol.Setting, error) {
	if strings.EqualFold(name, "headers") {
		return 0, parseErr(line, "headers are not a setting, use add and del")
	}
	s, ok := protocol.ParseSetting(name)
	if !ok {
		return 0, parseErr(line, "unknown option %q", name)
	}
	return s, nil
}

func parseSet(line, args string) (Command, error) {
	name, value := cut(args)
	if name == "" {
		return nil, parseErr(line, "syntax: set <option> <value>")
	}
	setting, err := parseSetting(line, name)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, parseErr(line, "missing value for set %s", setting)
	}

	c := SettingChange{Setting: setting}
	switch setting {
	case protocol.SettingUserAgent, protocol.SettingPrefix:
		c.Text = value
	case protocol.SettingHTTPVersion:
		v, ok := protocol.ParseHTTPVersion(value)
		if !ok {
			return nil, parseErr(line, "unknown http version %s", value)
		}
		c.HTTPVersion = v
	case protocol.SettingPort:
		p, err := strconv.Atoi(value)
		if err != nil || p < 1 || p > 65535 {
			return nil, parseErr(line, "port is invalid: %s", value)
		}
		c.Port = p
	case protocol.SettingPeerVerification:
		switch value {
		case "on", "true":
			c.Verify = true
		case "off", "false":
		default:
			return nil, parseErr(line, "unknown value %s for %s", value, setting)
		}
	}
	return c, nil
}

func parseUnset(line, args string) (Command, error) {
	name, extra := cut(args)
	if name == "" || extra != "" {
		return nil, parseErr(line, "syntax: unset <option>")
	}
	setting, err := parseSetting(line, name)
	if err != nil {
		return nil, err
	}
	if setting == protocol.SettingPrefix {
		return nil, parseErr(line, "cannot unset prefix")
	}
	return SettingChange{Setting: setting, Unset: true}, nil
}

func parseShow(line, args string) (Command, error) {
	name, extra := cut(args)
	if name == "" || extra != "" {
		return nil, parseErr(line, "syntax: show <option>")
	}
	if strings.EqualFold(name, "headers") {
		return ListHeaders{}, nil
	}
	setting, err := parseSetting(line, name)
	if err != nil {
		return nil, err
	}
	return Show{Setting: setting}, nil
}

func parseRequest(line, method, rest string) (Command, error) {
	m, ok := protocol.ParseMethod(method)
	if !ok {
		return nil, parseErr(line, "cannot understand the HTTP method %q", method)
	}
	url, payload := cut(rest)
	if url == "" {
		return nil, parseErr(line, "missing url for %s", m)
	}
	req := Request{Method: m, URL: url}
	if payload != "" {
		req.Payload = []byte(payload)
	}
	return req, nil
}
