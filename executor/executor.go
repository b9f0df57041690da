// Package executor is the unprivileged half of crest.
// It owns the header set and the settings, and performs every HTTP exchange on behalf of the driver.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/guseggert/crest/headers"
	"github.com/guseggert/crest/internal/imsg"
	"github.com/guseggert/crest/protocol"
	"go.uber.org/zap"
)

// DefaultUserAgent is sent until the driver says otherwise.
const DefaultUserAgent = "crest/0.1"

// ErrResponseTooLarge means a response header block or body does not fit in one frame.
var ErrResponseTooLarge = errors.New("response too large")

// Executor serves driver messages on one channel until EXIT.
// It is not safe for concurrent use.
type Executor struct {
	log *zap.SugaredLogger
	ch  *imsg.Channel
	out io.Writer

	doer    Doer
	retries int

	req      Request
	headers  *headers.Set
	settings Settings
}

type Option func(e *Executor)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Executor) {
		e.log = l
	}
}

// WithOutput sets where SHOW prints. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		e.out = w
	}
}

func WithDoer(d Doer) Option {
	return func(e *Executor) {
		e.doer = d
	}
}

func WithSettings(s Settings) Option {
	return func(e *Executor) {
		e.settings = s
	}
}

// WithRetries sets how often the default HTTP client retries failed exchanges. It has no effect together with WithDoer.
func WithRetries(n int) Option {
	return func(e *Executor) {
		e.retries = n
	}
}

func New(conn io.ReadWriter, opts ...Option) *Executor {
	e := &Executor{
		log:      zap.NewNop().Sugar(),
		ch:       imsg.New(conn),
		out:      os.Stdout,
		req:      Request{Method: protocol.MethodGet},
		headers:  headers.New(),
		settings: DefaultSettings(DefaultUserAgent),
	}
	for _, o := range opts {
		o(e)
	}
	if e.doer == nil {
		e.doer = NewHTTPClient(e.log.Named("http"), e.retries)
	}
	return e
}

func (e *Executor) Settings() Settings      { return e.settings }
func (e *Executor) Headers() *headers.Set   { return e.headers }
func (e *Executor) PendingRequest() Request { return e.req }

// Run serves messages until the driver sends EXIT, which returns nil.
// Every other return is fatal: the channel is gone or the driver broke the protocol.
// Cancelling ctx closes the channel, which unblocks a pending read.
func (e *Executor) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { e.ch.Close() })
	defer stop()

	for {
		msg, err := e.ch.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, imsg.ErrClosed) {
				return fmt.Errorf("parent vanished: %w", err)
			}
			return fmt.Errorf("receiving message: %w", err)
		}
		done, err := e.dispatch(ctx, msg)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (e *Executor) flush() error {
	if err := e.ch.FlushAll(); err != nil {
		return fmt.Errorf("connection closed: %w", err)
	}
	return nil
}

func (e *Executor) reply(typ protocol.MessageType, data []byte) error {
	if err := e.ch.Compose(uint32(typ), data); err != nil {
		return fmt.Errorf("composing %s: %w", typ, err)
	}
	return nil
}

func (e *Executor) dispatch(ctx context.Context, msg imsg.Message) (exit bool, err error) {
	typ := protocol.MessageType(msg.Type)
	e.log.Debugw("received message", "Type", typ, "Len", len(msg.Data))

	switch typ {
	case protocol.Exit:
		n := e.headers.ReleaseAll()
		e.log.Debugw("exiting", "ReleasedHeaders", n)
		return true, nil

	case protocol.SetMethod:
		m, err := protocol.DecodeMethod(msg.Data)
		if err != nil {
			return false, err
		}
		e.req.Method = m

	case protocol.SetURL:
		e.req.Path = string(msg.Data)

	case protocol.SetPayload:
		if len(msg.Data) == 0 {
			e.req.Payload = nil
		} else {
			e.req.Payload = append([]byte(nil), msg.Data...)
		}

	case protocol.DoRequest:
		return false, e.doRequest(ctx)

	case protocol.SetUserAgent:
		e.settings.UserAgent = string(msg.Data)

	case protocol.SetPrefix:
		if len(msg.Data) == 0 {
			return false, fmt.Errorf("empty prefix: %w", protocol.ErrValue)
		}
		e.settings.Prefix = string(msg.Data)

	case protocol.SetHTTPVersion:
		v, err := protocol.DecodeHTTPVersion(msg.Data)
		if err != nil {
			return false, err
		}
		e.settings.HTTPVersion = v

	case protocol.SetPort:
		p, err := protocol.DecodePort(msg.Data)
		if err != nil {
			return false, err
		}
		e.settings.Port = p

	case protocol.SetPeerVerification:
		verify, err := protocol.DecodePeerVerification(msg.Data)
		if err != nil {
			return false, err
		}
		e.settings.SkipPeerVerification = !verify

	case protocol.Show:
		t, err := protocol.DecodeShowTarget(msg.Data)
		if err != nil {
			return false, err
		}
		if err := e.show(t); err != nil {
			return false, err
		}
		if err := e.reply(protocol.Done, nil); err != nil {
			return false, err
		}
		return false, e.flush()

	case protocol.AddHeader:
		e.headers.Add(string(msg.Data), true)

	case protocol.DelHeader:
		name, err := protocol.DecodeHeaderName(msg.Data)
		if err != nil {
			return false, err
		}
		if !e.headers.Remove(name) {
			e.log.Debugw("header not present", "Name", name)
		}
		if err := e.reply(protocol.Done, nil); err != nil {
			return false, err
		}
		return false, e.flush()

	default:
		return false, fmt.Errorf("%w: %s", protocol.ErrUnknownType, typ)
	}
	return false, nil
}

func (e *Executor) show(t protocol.ShowTarget) error {
	if t == protocol.ShowHeaders {
		for _, line := range e.headers.Lines() {
			if _, err := fmt.Fprintln(e.out, line); err != nil {
				return fmt.Errorf("printing headers: %w", err)
			}
		}
		return nil
	}
	s, _ := t.Setting()
	if _, err := fmt.Fprintln(e.out, e.settings.Show(s)); err != nil {
		return fmt.Errorf("printing %s: %w", s, err)
	}
	return nil
}

func (e *Executor) doRequest(ctx context.Context) error {
	defer e.req.Reset()

	res, err := e.doer.Do(ctx, e.req, e.headers, e.settings)
	if err != nil {
		e.log.Warnw("request failed", "Method", e.req.Method, "URL", e.req.Path, "Error", err)
		if err := e.reply(protocol.Error, []byte("failed")); err != nil {
			return err
		}
		return e.flush()
	}
	if len(res.Header) > imsg.MaxPayloadSize {
		return fmt.Errorf("header block of %d bytes: %w", len(res.Header), ErrResponseTooLarge)
	}
	if len(res.Body) > imsg.MaxPayloadSize {
		return fmt.Errorf("body of %d bytes or more: %w", len(res.Body), ErrResponseTooLarge)
	}

	if err := e.reply(protocol.Status, protocol.EncodeStatus(res.StatusCode)); err != nil {
		return err
	}
	if err := e.reply(protocol.Head, res.Header); err != nil {
		return err
	}
	if err := e.reply(protocol.Body, res.Body); err != nil {
		return err
	}
	return e.flush()
}
