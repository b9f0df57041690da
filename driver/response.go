package driver

// Response collects the replies to one DO_REQUEST.
// A completed Response has either a body or an error, never both.
type Response struct {
	StatusCode int
	Header     []byte
	Body       []byte
	// Err is the executor's diagnostic when the request failed.
	Err []byte

	hasStatus bool
	hasHeader bool
	hasBody   bool
	hasErr    bool
}

func (r *Response) HasStatus() bool { return r.hasStatus }
func (r *Response) HasHeader() bool { return r.hasHeader }
func (r *Response) HasBody() bool   { return r.hasBody }

// Failed reports whether the executor answered with ERROR.
func (r *Response) Failed() bool { return r.hasErr }

func (r *Response) complete() bool { return r.hasBody || r.hasErr }
