package protocol

import (
	"fmt"
	"strings"
)

// Setting names one executor setting that can be set, unset or shown.
type Setting uint32

const (
	SettingUserAgent Setting = iota + 1
	SettingPrefix
	SettingHTTPVersion
	SettingPort
	SettingPeerVerification
)

var settingNames = map[Setting]string{
	SettingUserAgent:        "useragent",
	SettingPrefix:           "prefix",
	SettingHTTPVersion:      "http-version",
	SettingPort:             "port",
	SettingPeerVerification: "peer-verification",
}

// settingAliases are the names accepted on the command line.
var settingAliases = map[string]Setting{
	"useragent":         SettingUserAgent,
	"prefix":            SettingPrefix,
	"http":              SettingHTTPVersion,
	"http-version":      SettingHTTPVersion,
	"port":              SettingPort,
	"peer-verification": SettingPeerVerification,
}

func (s Setting) String() string {
	if name, ok := settingNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Setting(%d)", uint32(s))
}

func (s Setting) Valid() bool {
	_, ok := settingNames[s]
	return ok
}

// MessageType is the SET_* message that carries this setting.
func (s Setting) MessageType() MessageType {
	switch s {
	case SettingUserAgent:
		return SetUserAgent
	case SettingPrefix:
		return SetPrefix
	case SettingHTTPVersion:
		return SetHTTPVersion
	case SettingPort:
		return SetPort
	case SettingPeerVerification:
		return SetPeerVerification
	}
	return 0
}

// ParseSetting looks a setting up by one of its command line names, ignoring case.
func ParseSetting(s string) (Setting, bool) {
	setting, ok := settingAliases[strings.ToLower(s)]
	return setting, ok
}

// ShowTarget selects what a SHOW message prints: one of the settings, or the header list.
type ShowTarget uint32

// ShowHeaders is the SHOW target that lists the stored headers. It is not a Setting.
const ShowHeaders ShowTarget = 0x100

// ShowSetting is the SHOW target for a setting.
func ShowSetting(s Setting) ShowTarget { return ShowTarget(s) }

// Setting returns the setting a target refers to, if any.
func (t ShowTarget) Setting() (Setting, bool) {
	s := Setting(t)
	return s, s.Valid()
}

func (t ShowTarget) Valid() bool {
	_, ok := t.Setting()
	return ok || t == ShowHeaders
}

func (t ShowTarget) String() string {
	if t == ShowHeaders {
		return "headers"
	}
	return Setting(t).String()
}
