package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/guseggert/crest/headers"
	"github.com/guseggert/crest/internal/imsg"
	inet "github.com/guseggert/crest/internal/net"
	"github.com/guseggert/crest/protocol"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

var (
	ErrUnsupported = errors.New("not supported")
	ErrNoURL       = errors.New("no url set")
)

// Result is a completed HTTP exchange.
type Result struct {
	StatusCode int
	// Header is the raw response header block: status line, header lines and the empty line.
	Header []byte
	Body   []byte
}

// Doer performs one HTTP exchange for the executor.
type Doer interface {
	Do(ctx context.Context, req Request, hdrs *headers.Set, settings Settings) (*Result, error)
}

type logAdapter struct {
	*zap.SugaredLogger
}

func (a *logAdapter) Printf(msg string, args ...interface{}) { a.Debugf(msg, args...) }

// HTTPClient is the Doer backed by net/http.
type HTTPClient struct {
	Log     *zap.SugaredLogger
	Retries int
	// MaxBody is how many body bytes are worth reading; anything past it can't be sent back anyway.
	// One extra byte is read so that the caller can tell an oversized body from one that fits.
	MaxBody int
}

func NewHTTPClient(log *zap.SugaredLogger, retries int) *HTTPClient {
	return &HTTPClient{
		Log:     log,
		Retries: retries,
		MaxBody: imsg.MaxPayloadSize,
	}
}

func buildURL(req Request, s Settings) (*url.URL, error) {
	if req.Path == "" {
		return nil, ErrNoURL
	}
	raw := inet.JoinPrefix(s.Prefix, req.Path)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", raw, err)
	}
	return inet.OverridePort(u, s.Port), nil
}

func (c *HTTPClient) transport(u *url.URL, s Settings) (http.RoundTripper, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: s.SkipPeerVerification}

	switch s.HTTPVersion {
	case protocol.HTTP3:
		return nil, fmt.Errorf("%s: %w", s.HTTPVersion, ErrUnsupported)
	case protocol.HTTP2:
		// h2 over TLS, prior knowledge h2c over cleartext
		return &http2.Transport{
			AllowHTTP:       true,
			TLSClientConfig: tlsConfig,
			DialTLSContext: func(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
				if u.Scheme == "http" {
					var d net.Dialer
					return d.DialContext(ctx, network, addr)
				}
				d := tls.Dialer{Config: cfg}
				return d.DialContext(ctx, network, addr)
			},
		}, nil
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = tlsConfig
	switch s.HTTPVersion {
	case protocol.HTTP10, protocol.HTTP11:
		t.ForceAttemptHTTP2 = false
		t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	default:
		t.ForceAttemptHTTP2 = true
	}
	return t, nil
}

func (c *HTTPClient) Do(ctx context.Context, req Request, hdrs *headers.Set, s Settings) (*Result, error) {
	u, err := buildURL(req, s)
	if err != nil {
		return nil, err
	}
	if req.Method == protocol.MethodConnect {
		return nil, fmt.Errorf("%s: %w", req.Method, ErrUnsupported)
	}

	var body interface{}
	switch {
	case req.Payload == nil:
	case req.Method == protocol.MethodHead:
	case req.Method == protocol.MethodOptions:
		c.Log.Warnf("ignoring payload for %s", req.Method)
	default:
		body = req.Payload
	}

	httpReq, err := retryablehttp.NewRequest(req.Method.String(), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq = httpReq.WithContext(ctx)

	httpReq.Header.Set("User-Agent", s.UserAgent)
	for name, values := range hdrs.Header() {
		if name == "Host" {
			httpReq.Host = values[0]
			continue
		}
		httpReq.Header[name] = values
	}
	if body != nil && req.Method == protocol.MethodPost && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.HTTPVersion == protocol.HTTP10 {
		httpReq.Close = true
		httpReq.Header.Set("Connection", "close")
	}

	rt, err := c.transport(u, s)
	if err != nil {
		return nil, err
	}
	if ci, ok := rt.(interface{ CloseIdleConnections() }); ok {
		defer ci.CloseIdleConnections()
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Transport: rt,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	client.RetryMax = c.Retries
	client.Logger = &logAdapter{SugaredLogger: c.Log}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c.Log.Debugw("performing request", "Method", req.Method, "URL", u.String())
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, u, err)
	}
	defer resp.Body.Close()

	var head bytes.Buffer
	fmt.Fprintf(&head, "%s %s\r\n", resp.Proto, resp.Status)
	if err := resp.Header.Write(&head); err != nil {
		return nil, fmt.Errorf("formatting response headers: %w", err)
	}
	head.WriteString("\r\n")

	res := &Result{StatusCode: resp.StatusCode, Header: head.Bytes()}
	if req.Method == protocol.MethodHead {
		return res, nil
	}

	size := s.BufferSize
	if size <= 0 || size > c.MaxBody+1 {
		size = c.MaxBody + 1
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, io.LimitReader(resp.Body, int64(c.MaxBody)+1)); err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	res.Body = buf.Bytes()
	return res, nil
}
