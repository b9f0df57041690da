package repl

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guseggert/crest/command"
	"github.com/guseggert/crest/driver"
	"github.com/guseggert/crest/executor"
	"github.com/guseggert/crest/internal/imsg"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type env struct {
	srv    *httptest.Server
	repl   *REPL
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newEnv(t *testing.T, opts ...Option) *env {
	router := httprouter.New()
	router.GET("/users", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	})
	router.POST("/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		w.Write([]byte(r.Header.Get("X-Test") + buf.String()))
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	parent, child, err := imsg.Pair()
	require.NoError(t, err)
	e := executor.New(child, executor.WithOutput(&bytes.Buffer{}))
	group, groupCtx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		defer child.Close()
		return e.Run(groupCtx)
	})

	d := driver.New(parent)
	t.Cleanup(func() {
		require.NoError(t, d.Close())
		require.NoError(t, group.Wait())
	})

	en := &env{srv: srv}
	en.repl = New(d, append([]Option{WithOutput(&en.out), WithErrorOutput(&en.errOut)}, opts...)...)
	return en
}

func (e *env) run(t *testing.T, lines ...string) {
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, e.repl.Run(context.Background(), in))
}

func TestRequest(t *testing.T) {
	e := newEnv(t)
	e.run(t, "GET "+e.srv.URL+"/users")
	assert.Equal(t, "hello\n", e.out.String())
	assert.Empty(t, e.errOut.String())
}

func TestPrefixAndHeaders(t *testing.T) {
	e := newEnv(t)
	e.run(t,
		"# talk to the test server",
		"set prefix "+e.srv.URL,
		"add X-Test: from-header ",
		"POST /echo payload",
		"del X-Test",
		"POST /echo again",
	)
	assert.Equal(t, "from-headerpayload\nagain\n", e.out.String())
}

func TestShowHeaders(t *testing.T) {
	e := newEnv(t, WithShowHeaders(true))
	e.run(t, "GET "+e.srv.URL+"/users")
	out := e.out.String()
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Content-Type: text/plain\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nhello\n"))
}

func TestRequestFailureContinues(t *testing.T) {
	e := newEnv(t)
	e.run(t,
		"GET http://127.0.0.1:1/nothing",
		"GET "+e.srv.URL+"/users",
	)
	assert.Contains(t, e.errOut.String(), "error: failed")
	assert.Equal(t, "hello\n", e.out.String())
}

func TestParseErrorContinues(t *testing.T) {
	e := newEnv(t)
	e.run(t,
		"FETCH /users",
		"set port 0",
		"unset prefix",
		"GET "+e.srv.URL+"/users",
	)
	errOut := e.errOut.String()
	assert.Contains(t, errOut, "cannot understand the HTTP method")
	assert.Contains(t, errOut, "port is invalid")
	assert.Contains(t, errOut, "cannot unset prefix")
	assert.Equal(t, "hello\n", e.out.String())
}

func TestQuit(t *testing.T) {
	e := newEnv(t)
	e.run(t, "quit", "GET "+e.srv.URL+"/users")
	assert.Empty(t, e.out.String())
}

func TestPipe(t *testing.T) {
	e := newEnv(t)
	e.run(t,
		"GET "+e.srv.URL+"/users",
		"|tr a-z A-Z",
	)
	assert.Equal(t, "hello\nHELLO", e.out.String())
}

func TestPipeFailure(t *testing.T) {
	e := newEnv(t)
	e.run(t, "|exit 3")
	assert.Contains(t, e.errOut.String(), "exit status 3")
}

func TestSpecialCommands(t *testing.T) {
	e := newEnv(t, WithVersion("1.2.3"))
	e.run(t, "version", "help")
	out := e.out.String()
	assert.Contains(t, out, "crest version 1.2.3\n")
	assert.Contains(t, out, "peer-verification")
	assert.Contains(t, out, "|command")
}

func TestPrompt(t *testing.T) {
	e := newEnv(t, WithPrompt(true))
	e.run(t, "version")
	assert.Equal(t, Prompt+"crest version dev\n"+Prompt+"\n", e.out.String())
}

func TestRunScript(t *testing.T) {
	e := newEnv(t)
	rc := filepath.Join(t.TempDir(), ".crestrc")
	require.NoError(t, os.WriteFile(rc, []byte("set prefix "+e.srv.URL+"\n# comment\n"), 0o644))

	quit, err := e.repl.RunScript(context.Background(), rc)
	require.NoError(t, err)
	assert.False(t, quit)

	e.run(t, "GET /users")
	assert.Equal(t, "hello\n", e.out.String())
}

func TestRunScriptQuit(t *testing.T) {
	e := newEnv(t)
	rc := filepath.Join(t.TempDir(), ".crestrc")
	require.NoError(t, os.WriteFile(rc, []byte("quit\nversion\n"), 0o644))

	quit, err := e.repl.RunScript(context.Background(), rc)
	require.NoError(t, err)
	assert.True(t, quit)
	assert.Empty(t, e.out.String())
}

type failingDoer struct{ err error }

func (f failingDoer) Do(context.Context, command.Command) (*driver.Response, error) {
	return nil, f.err
}

func TestFatalError(t *testing.T) {
	expErr := errors.New("child vanished")
	var out bytes.Buffer
	r := New(failingDoer{err: expErr}, WithOutput(&out), WithErrorOutput(&out))

	err := r.Run(context.Background(), strings.NewReader("show port\nversion\n"))
	assert.ErrorIs(t, err, expErr)
	assert.NotContains(t, out.String(), "crest version")
}
