package executor

import "github.com/guseggert/crest/protocol"

// Request accumulates the fields of the next request as SET_METHOD, SET_URL and SET_PAYLOAD arrive.
// The method persists across requests; path and payload are cleared after every DO_REQUEST.
type Request struct {
	Method protocol.Method
	Path   string
	// Payload is nil when the request has no body.
	Payload []byte
}

func (r *Request) Reset() {
	r.Path = ""
	r.Payload = nil
}
