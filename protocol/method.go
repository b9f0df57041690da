package protocol

import (
	"fmt"
	"strings"
)

// Method is an HTTP request method.
type Method uint32

const (
	MethodConnect Method = iota
	MethodDelete
	MethodGet
	MethodHead
	MethodOptions
	MethodPatch
	MethodPost
	MethodPut
	MethodTrace
)

var methodNames = [...]string{
	MethodConnect: "CONNECT",
	MethodDelete:  "DELETE",
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPatch:   "PATCH",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodTrace:   "TRACE",
}

func (m Method) String() string {
	if m.Valid() {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", uint32(m))
}

func (m Method) Valid() bool { return int(m) < len(methodNames) }

// ParseMethod looks a method up by name, ignoring case.
func ParseMethod(s string) (Method, bool) {
	for i, name := range methodNames {
		if strings.EqualFold(s, name) {
			return Method(i), true
		}
	}
	return 0, false
}
