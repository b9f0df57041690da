// Package repl reads command lines and hands them to the driver.
package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/guseggert/crest/command"
	"github.com/guseggert/crest/driver"
	"github.com/guseggert/crest/internal/imsg"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

const Prompt = "> "

// maxLine leaves room for a request line carrying a payload as large as a frame allows.
const maxLine = 2 * imsg.MaxFrameSize

// Doer executes the commands that need the executor. *driver.Driver is one.
type Doer interface {
	Do(ctx context.Context, cmd command.Command) (*driver.Response, error)
}

type REPL struct {
	log *zap.SugaredLogger
	d   Doer

	out    io.Writer
	errOut io.Writer

	prompt      bool
	showHeaders bool
	shell       string
	version     string

	lastBody []byte
}

type Option func(r *REPL)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *REPL) {
		r.log = l
	}
}

// WithOutput sets where responses, help and the prompt go. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *REPL) {
		r.out = w
	}
}

// WithErrorOutput sets where warnings and request errors go. Defaults to stderr.
func WithErrorOutput(w io.Writer) Option {
	return func(r *REPL) {
		r.errOut = w
	}
}

func WithPrompt(enabled bool) Option {
	return func(r *REPL) {
		r.prompt = enabled
	}
}

// WithShowHeaders prints the response header block before each body.
func WithShowHeaders(enabled bool) Option {
	return func(r *REPL) {
		r.showHeaders = enabled
	}
}

// WithShell sets the shell that runs "|cmd" lines. Defaults to /bin/sh.
func WithShell(path string) Option {
	return func(r *REPL) {
		r.shell = path
	}
}

func WithVersion(v string) Option {
	return func(r *REPL) {
		r.version = v
	}
}

func New(d Doer, opts ...Option) *REPL {
	r := &REPL{
		log:     zap.NewNop().Sugar(),
		d:       d,
		out:     os.Stdout,
		errOut:  os.Stderr,
		shell:   "/bin/sh",
		version: "dev",
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run processes lines from in until EOF or a quit command.
// Errors returned are fatal, everything the user got wrong is reported and skipped.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	_, err := r.run(ctx, in, r.prompt)
	return err
}

// RunScript processes the lines of a file as if they were typed. quit reports whether the script asked to quit.
func (r *REPL) RunScript(ctx context.Context, path string) (quit bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening rc file: %w", err)
	}
	defer f.Close()
	r.log.Infow("running rc file", "Path", path)
	return r.run(ctx, f, false)
}

func (r *REPL) run(ctx context.Context, in io.Reader, prompt bool) (bool, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	for {
		if prompt {
			fmt.Fprint(r.out, Prompt)
		}
		if !scanner.Scan() {
			break
		}
		quit, err := r.Line(ctx, scanner.Text())
		if err != nil || quit {
			return quit, err
		}
	}
	if prompt {
		fmt.Fprintln(r.out)
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("reading input: %w", err)
	}
	return false, nil
}

// Line processes a single line.
func (r *REPL) Line(ctx context.Context, line string) (quit bool, err error) {
	cmd, err := command.Parse(line)
	var perr *command.ParseError
	if errors.As(err, &perr) {
		r.warn(perr.Msg)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cmd == nil {
		return false, nil
	}
	r.log.Debugw("parsed line", "Command", fmt.Sprintf("%T", cmd))

	switch c := cmd.(type) {
	case command.Special:
		switch c.Kind {
		case command.Quit:
			return true, nil
		case command.Help:
			r.usage()
		case command.Version:
			fmt.Fprintf(r.out, "crest version %s\n", r.version)
		}
		return false, nil

	case command.Pipe:
		if err := r.pipe(ctx, c.Shell); err != nil {
			r.warn(err.Error())
		}
		return false, nil
	}

	resp, err := r.d.Do(ctx, cmd)
	if err != nil {
		return false, err
	}
	if resp != nil {
		r.print(resp)
	}
	return false, nil
}

func (r *REPL) warn(msg string) {
	pterm.Warning.WithWriter(r.errOut).Println(msg)
}

func (r *REPL) print(resp *driver.Response) {
	if resp.Failed() {
		r.lastBody = nil
		pterm.Error.WithWriter(r.errOut).Println("error: " + string(resp.Err))
		return
	}
	r.lastBody = resp.Body
	if r.showHeaders && resp.HasHeader() {
		r.out.Write(resp.Header)
	}
	r.out.Write(resp.Body)
	fmt.Fprintln(r.out)
}

// pipe runs a shell command with the last response body on its stdin.
func (r *REPL) pipe(ctx context.Context, shell string) error {
	cmd := exec.CommandContext(ctx, r.shell, "-c", shell)
	cmd.Stdin = bytes.NewReader(r.lastBody)
	cmd.Stdout = r.out
	cmd.Stderr = r.errOut
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %q: %w", shell, err)
	}
	return nil
}
