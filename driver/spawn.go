package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/guseggert/crest/internal/imsg"
)

// ExecutorCommand is the hidden subcommand the executor process runs.
const ExecutorCommand = "executor"

// ExecutorFD is the descriptor the executor finds its end of the channel on. ExtraFiles start at 3.
const ExecutorFD = 3

type SpawnConfig struct {
	// Path is the binary to run, defaults to the running executable.
	Path string
	// Args are passed to the executor subcommand after the descriptor flag.
	Args []string

	Stdout io.Writer
	Stderr io.Writer
}

// Spawn starts an executor process and returns a Driver connected to it.
// The executor is the current binary re-executed with the executor subcommand, talking over a socket pair.
func Spawn(ctx context.Context, cfg SpawnConfig, opts ...Option) (*Driver, error) {
	path := cfg.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("finding executable: %w", err)
		}
		path = exe
	}

	parentFile, childFile, err := imsg.Socketpair()
	if err != nil {
		return nil, err
	}

	args := append([]string{ExecutorCommand, "--fd", fmt.Sprint(ExecutorFD)}, cfg.Args...)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if cfg.Stdout != nil {
		cmd.Stdout = cfg.Stdout
	}
	if cfg.Stderr != nil {
		cmd.Stderr = cfg.Stderr
	}
	cmd.ExtraFiles = []*os.File{childFile}

	err = cmd.Start()
	childFile.Close()
	if err != nil {
		parentFile.Close()
		return nil, fmt.Errorf("starting executor: %w", err)
	}

	conn, err := imsg.FileConn(parentFile)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, err
	}

	d := New(conn, opts...)
	d.child = cmd
	d.log.Debugw("spawned executor", "PID", cmd.Process.Pid)
	return d, nil
}
