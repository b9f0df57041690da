package executor

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/guseggert/crest/headers"
	"github.com/guseggert/crest/internal/imsg"
	"github.com/guseggert/crest/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeDoer struct {
	mut      sync.Mutex
	reqs     []Request
	lines    [][]string
	settings []Settings

	res *Result
	err error
}

func (f *fakeDoer) Do(_ context.Context, req Request, hdrs *headers.Set, s Settings) (*Result, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.reqs = append(f.reqs, req)
	f.lines = append(f.lines, hdrs.Lines())
	f.settings = append(f.settings, s)
	return f.res, f.err
}

func (f *fakeDoer) calls() []Request {
	f.mut.Lock()
	defer f.mut.Unlock()
	return append([]Request(nil), f.reqs...)
}

type harness struct {
	t     *testing.T
	ch    *imsg.Channel
	exec  *Executor
	group *errgroup.Group
}

func start(t *testing.T, opts ...Option) *harness {
	parent, child, err := imsg.Pair()
	require.NoError(t, err)
	t.Cleanup(func() { parent.Close() })

	e := New(child, opts...)
	group, groupCtx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		defer child.Close()
		return e.Run(groupCtx)
	})
	return &harness{t: t, ch: imsg.New(parent), exec: e, group: group}
}

func (h *harness) send(typ protocol.MessageType, data []byte) {
	require.NoError(h.t, h.ch.Compose(uint32(typ), data))
	require.NoError(h.t, h.ch.FlushAll())
}

func (h *harness) recv() imsg.Message {
	msg, err := h.ch.Recv()
	require.NoError(h.t, err)
	return msg
}

func (h *harness) expect(typ protocol.MessageType) imsg.Message {
	msg := h.recv()
	require.Equal(h.t, typ, protocol.MessageType(msg.Type))
	return msg
}

// exit sends EXIT and waits for the executor to return.
func (h *harness) exit() {
	h.send(protocol.Exit, nil)
	require.NoError(h.t, h.group.Wait())
}

// fatal waits for the executor to fail and returns its error.
func (h *harness) fatal() error {
	err := h.group.Wait()
	require.Error(h.t, err)
	return err
}

func okDoer(body string) *fakeDoer {
	return &fakeDoer{res: &Result{
		StatusCode: 200,
		Header:     []byte("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n"),
		Body:       []byte(body),
	}}
}

func TestDoRequest(t *testing.T) {
	doer := okDoer("hello")
	h := start(t, WithDoer(doer))

	h.send(protocol.SetMethod, protocol.EncodeMethod(protocol.MethodGet))
	h.send(protocol.SetURL, []byte("http://localhost/users"))
	h.send(protocol.SetPayload, nil)
	h.send(protocol.DoRequest, nil)

	status, err := protocol.DecodeStatus(h.expect(protocol.Status).Data)
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Contains(t, string(h.expect(protocol.Head).Data), "Content-Type: text/plain")
	assert.Equal(t, "hello", string(h.expect(protocol.Body).Data))

	h.exit()

	calls := doer.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, protocol.MethodGet, calls[0].Method)
	assert.Equal(t, "http://localhost/users", calls[0].Path)
	assert.Nil(t, calls[0].Payload)

	pending := h.exec.PendingRequest()
	assert.Empty(t, pending.Path)
	assert.Nil(t, pending.Payload)
	assert.Equal(t, protocol.MethodGet, pending.Method)
}

func TestDoRequestFailure(t *testing.T) {
	doer := &fakeDoer{err: errors.New("connection refused")}
	h := start(t, WithDoer(doer))

	h.send(protocol.SetMethod, protocol.EncodeMethod(protocol.MethodPost))
	h.send(protocol.SetURL, []byte("http://localhost:1/"))
	h.send(protocol.SetPayload, []byte("a=b"))
	h.send(protocol.DoRequest, nil)

	assert.Equal(t, "failed", string(h.expect(protocol.Error).Data))

	// the method persists, path and payload don't
	h.send(protocol.DoRequest, nil)
	h.expect(protocol.Error)
	h.exit()

	calls := doer.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []byte("a=b"), calls[0].Payload)
	assert.Equal(t, protocol.MethodPost, calls[1].Method)
	assert.Empty(t, calls[1].Path)
	assert.Nil(t, calls[1].Payload)
}

func TestDoRequestResponseTooLarge(t *testing.T) {
	doer := okDoer(strings.Repeat("x", imsg.MaxPayloadSize+1))
	h := start(t, WithDoer(doer))

	h.send(protocol.SetURL, []byte("http://localhost/big"))
	h.send(protocol.DoRequest, nil)

	assert.ErrorIs(t, h.fatal(), ErrResponseTooLarge)
}

func TestDoRequestLargestBody(t *testing.T) {
	body := strings.Repeat("x", imsg.MaxPayloadSize)
	h := start(t, WithDoer(okDoer(body)))

	h.send(protocol.SetURL, []byte("http://localhost/big"))
	h.send(protocol.DoRequest, nil)

	h.expect(protocol.Status)
	h.expect(protocol.Head)
	assert.Len(t, h.expect(protocol.Body).Data, imsg.MaxPayloadSize)
	h.exit()
}

func TestSettings(t *testing.T) {
	h := start(t, WithDoer(okDoer("")))

	h.send(protocol.SetUserAgent, []byte("x"))
	h.send(protocol.SetPrefix, []byte("http://example.com/api"))
	h.send(protocol.SetHTTPVersion, protocol.EncodeHTTPVersion(protocol.HTTP11))
	h.send(protocol.SetPort, protocol.EncodePort(8080))
	h.send(protocol.SetPeerVerification, protocol.EncodePeerVerification(false))
	h.exit()

	s := h.exec.Settings()
	assert.Equal(t, "x", s.UserAgent)
	assert.Equal(t, "http://example.com/api", s.Prefix)
	assert.Equal(t, protocol.HTTP11, s.HTTPVersion)
	assert.Equal(t, 8080, s.Port)
	assert.True(t, s.SkipPeerVerification)
	assert.Equal(t, DefaultBufferSize, s.BufferSize)
}

func TestSetPortOutOfRange(t *testing.T) {
	for _, port := range []int{0, 65536, -2} {
		port := port
		t.Run(strconv.Itoa(port), func(t *testing.T) {
			h := start(t, WithDoer(okDoer("")))
			h.send(protocol.SetPort, protocol.EncodePort(port))
			assert.ErrorIs(t, h.fatal(), protocol.ErrValue)
		})
	}
}

func TestFatalMessages(t *testing.T) {
	cases := []struct {
		name   string
		typ    protocol.MessageType
		data   []byte
		expErr error
	}{
		{name: "empty prefix", typ: protocol.SetPrefix, expErr: protocol.ErrValue},
		{name: "short method", typ: protocol.SetMethod, data: []byte{0, 1}, expErr: protocol.ErrSize},
		{name: "unknown method", typ: protocol.SetMethod, data: protocol.EncodeUint32(42), expErr: protocol.ErrValue},
		{name: "unknown http version", typ: protocol.SetHTTPVersion, data: protocol.EncodeUint32(42), expErr: protocol.ErrValue},
		{name: "bad peer verification", typ: protocol.SetPeerVerification, data: []byte{2}, expErr: protocol.ErrValue},
		{name: "unknown show target", typ: protocol.Show, data: protocol.EncodeUint32(42), expErr: protocol.ErrValue},
		{name: "unterminated header name", typ: protocol.DelHeader, data: []byte("Accept"), expErr: protocol.ErrSize},
		{name: "unknown type", typ: protocol.MessageType(99), expErr: protocol.ErrUnknownType},
		{name: "reply type", typ: protocol.Status, data: protocol.EncodeStatus(200), expErr: protocol.ErrUnknownType},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			h := start(t, WithDoer(okDoer("")))
			h.send(c.typ, c.data)
			assert.ErrorIs(t, h.fatal(), c.expErr)
		})
	}
}

func TestShowSetting(t *testing.T) {
	var out bytes.Buffer
	h := start(t, WithDoer(okDoer("")), WithOutput(&out))

	h.send(protocol.SetUserAgent, []byte("x"))
	h.send(protocol.Show, protocol.EncodeShowTarget(protocol.ShowSetting(protocol.SettingUserAgent)))
	h.expect(protocol.Done)
	h.send(protocol.Show, protocol.EncodeShowTarget(protocol.ShowSetting(protocol.SettingPeerVerification)))
	h.expect(protocol.Done)
	h.send(protocol.Show, protocol.EncodeShowTarget(protocol.ShowSetting(protocol.SettingPort)))
	h.expect(protocol.Done)
	h.exit()

	assert.Equal(t, "x\non\n-1\n", out.String())
}

func TestHeaders(t *testing.T) {
	var out bytes.Buffer
	doer := okDoer("")
	h := start(t, WithDoer(doer), WithOutput(&out))

	h.send(protocol.AddHeader, []byte("Accept: text/plain"))
	h.send(protocol.AddHeader, []byte("X-Foo: bar"))
	h.send(protocol.AddHeader, []byte("accept: application/json"))
	h.send(protocol.AddHeader, []byte("X-Gone: yes"))

	h.send(protocol.DelHeader, protocol.EncodeHeaderName("x-gone"))
	h.expect(protocol.Done)
	// removing an absent header still completes
	h.send(protocol.DelHeader, protocol.EncodeHeaderName("X-Missing"))
	h.expect(protocol.Done)

	h.send(protocol.Show, protocol.EncodeShowTarget(protocol.ShowHeaders))
	h.expect(protocol.Done)

	h.send(protocol.SetURL, []byte("http://localhost/"))
	h.send(protocol.DoRequest, nil)
	h.expect(protocol.Status)
	h.expect(protocol.Head)
	h.expect(protocol.Body)
	h.exit()

	assert.Equal(t, "accept: application/json\nX-Foo: bar\n", out.String())
	require.Len(t, doer.lines, 1)
	assert.Equal(t, []string{"accept: application/json", "X-Foo: bar"}, doer.lines[0])
	assert.Equal(t, 0, h.exec.Headers().Len())
}

func TestParentVanished(t *testing.T) {
	parent, child, err := imsg.Pair()
	require.NoError(t, err)
	defer child.Close()

	e := New(child, WithDoer(okDoer("")))
	require.NoError(t, parent.Close())

	err = e.Run(context.Background())
	assert.ErrorIs(t, err, imsg.ErrClosed)
	assert.ErrorContains(t, err, "parent vanished")
}

func TestRunCanceled(t *testing.T) {
	parent, child, err := imsg.Pair()
	require.NoError(t, err)
	defer parent.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = New(child, WithDoer(okDoer(""))).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
