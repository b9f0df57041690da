package protocol

import "fmt"

// MessageType is the type of a frame on the driver/executor channel.
type MessageType uint32

const (
	_ MessageType = iota
	Exit
	SetMethod
	SetURL
	SetPayload
	DoRequest
	Error
	Status
	Head
	Body
	SetUserAgent
	SetPrefix
	SetHTTPVersion
	SetPort
	SetPeerVerification
	Show
	AddHeader
	DelHeader
	Done
)

var typeNames = map[MessageType]string{
	Exit:                "EXIT",
	SetMethod:           "SET_METHOD",
	SetURL:              "SET_URL",
	SetPayload:          "SET_PAYLOAD",
	DoRequest:           "DO_REQUEST",
	Error:               "ERROR",
	Status:              "STATUS",
	Head:                "HEAD",
	Body:                "BODY",
	SetUserAgent:        "SET_USERAGENT",
	SetPrefix:           "SET_PREFIX",
	SetHTTPVersion:      "SET_HTTPVERSION",
	SetPort:             "SET_PORT",
	SetPeerVerification: "SET_PEER_VERIFICATION",
	Show:                "SHOW",
	AddHeader:           "ADD_HEADER",
	DelHeader:           "DEL_HEADER",
	Done:                "DONE",
}

func (t MessageType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MessageType(%d)", uint32(t))
}

// Valid reports whether t is part of the message catalog.
func (t MessageType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}
