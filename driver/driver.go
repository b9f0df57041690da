// Package driver is the privileged half of crest.
// It turns commands into protocol messages for the executor and collects the replies.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/google/uuid"
	"github.com/guseggert/crest/command"
	"github.com/guseggert/crest/internal/imsg"
	"github.com/guseggert/crest/protocol"
	"go.uber.org/zap"
)

// ErrProtocol means the executor sent a reply that makes no sense at this point of the exchange.
var ErrProtocol = errors.New("protocol violation")

// Driver talks to one executor over one channel.
// It is not safe for concurrent use.
type Driver struct {
	log   *zap.SugaredLogger
	ch    *imsg.Channel
	child *exec.Cmd

	last   *Response
	closed bool
}

type Option func(d *Driver)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Driver) {
		d.log = l
	}
}

func New(conn io.ReadWriter, opts ...Option) *Driver {
	d := &Driver{
		log: zap.NewNop().Sugar(),
		ch:  imsg.New(conn),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Last returns the response of the most recent request, or nil.
func (d *Driver) Last() *Response { return d.last }

// Do sends cmd to the executor and waits for whatever reply it calls for.
// The Response is only non-nil for command.Request. A failed request is reported through Response.Failed,
// a returned error is always fatal.
func (d *Driver) Do(ctx context.Context, cmd command.Command) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.closed {
		return nil, imsg.ErrClosed
	}

	switch c := cmd.(type) {
	case command.Request:
		return d.request(c)

	case command.SettingChange:
		typ, data := c.Message()
		return nil, d.send(typ, data)

	case command.Show:
		if err := d.compose(protocol.Show, protocol.EncodeShowTarget(protocol.ShowSetting(c.Setting))); err != nil {
			return nil, err
		}
		return nil, d.flushAndWaitDone()

	case command.ListHeaders:
		if err := d.compose(protocol.Show, protocol.EncodeShowTarget(protocol.ShowHeaders)); err != nil {
			return nil, err
		}
		return nil, d.flushAndWaitDone()

	case command.AddHeader:
		return nil, d.send(protocol.AddHeader, []byte(c.Line))

	case command.DeleteHeader:
		if err := d.compose(protocol.DelHeader, protocol.EncodeHeaderName(c.Name)); err != nil {
			return nil, err
		}
		return nil, d.flushAndWaitDone()
	}
	return nil, fmt.Errorf("command %T is not for the executor", cmd)
}

func (d *Driver) compose(typ protocol.MessageType, data []byte) error {
	if err := d.ch.Compose(uint32(typ), data); err != nil {
		return fmt.Errorf("composing %s: %w", typ, err)
	}
	return nil
}

func (d *Driver) flush() error {
	if err := d.ch.FlushAll(); err != nil {
		return fmt.Errorf("child vanished: %w", err)
	}
	return nil
}

func (d *Driver) send(typ protocol.MessageType, data []byte) error {
	if err := d.compose(typ, data); err != nil {
		return err
	}
	return d.flush()
}

func (d *Driver) recv() (protocol.MessageType, []byte, error) {
	msg, err := d.ch.Recv()
	if err != nil {
		if errors.Is(err, imsg.ErrClosed) {
			return 0, nil, fmt.Errorf("child vanished: %w", err)
		}
		return 0, nil, fmt.Errorf("receiving reply: %w", err)
	}
	return protocol.MessageType(msg.Type), msg.Data, nil
}

func (d *Driver) flushAndWaitDone() error {
	if err := d.flush(); err != nil {
		return err
	}
	typ, _, err := d.recv()
	if err != nil {
		return err
	}
	if typ != protocol.Done {
		return fmt.Errorf("%w: got %s, want %s", ErrProtocol, typ, protocol.Done)
	}
	return nil
}

func (d *Driver) request(c command.Request) (*Response, error) {
	id := uuid.New()
	log := d.log.With("ExchangeID", id)
	log.Debugw("sending request", "Method", c.Method, "URL", c.URL, "PayloadLen", len(c.Payload))

	d.last = nil

	if err := d.compose(protocol.SetMethod, protocol.EncodeMethod(c.Method)); err != nil {
		return nil, err
	}
	if err := d.compose(protocol.SetURL, []byte(c.URL)); err != nil {
		return nil, err
	}
	if err := d.compose(protocol.SetPayload, c.Payload); err != nil {
		return nil, err
	}
	if err := d.compose(protocol.DoRequest, nil); err != nil {
		return nil, err
	}
	if err := d.flush(); err != nil {
		return nil, err
	}

	resp := &Response{}
	for !resp.complete() {
		typ, data, err := d.recv()
		if err != nil {
			return nil, err
		}
		log.Debugw("received reply", "Type", typ, "Len", len(data))

		switch typ {
		case protocol.Status:
			if resp.hasStatus {
				return nil, fmt.Errorf("%w: duplicate %s", ErrProtocol, typ)
			}
			code, err := protocol.DecodeStatus(data)
			if err != nil {
				return nil, err
			}
			resp.StatusCode = code
			resp.hasStatus = true
		case protocol.Head:
			if resp.hasHeader {
				return nil, fmt.Errorf("%w: duplicate %s", ErrProtocol, typ)
			}
			resp.Header = data
			resp.hasHeader = true
		case protocol.Body:
			resp.Body = data
			resp.hasBody = true
		case protocol.Error:
			if resp.hasStatus || resp.hasHeader {
				return nil, fmt.Errorf("%w: %s after a successful reply", ErrProtocol, typ)
			}
			resp.Err = data
			resp.hasErr = true
		default:
			return nil, fmt.Errorf("%w: unexpected %s during a request", ErrProtocol, typ)
		}
	}

	log.Debugw("request complete", "Status", resp.StatusCode, "Failed", resp.hasErr)
	d.last = resp
	return resp, nil
}

// Close tells the executor to exit, closes the channel and waits for the executor process, if there is one.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if err := d.send(protocol.Exit, nil); err != nil {
		errs = append(errs, err)
	}
	if err := d.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing channel: %w", err))
	}
	if d.child != nil {
		if err := d.child.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("waiting for executor: %w", err))
		}
	}
	return errors.Join(errs...)
}
