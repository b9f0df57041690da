package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/guseggert/crest/command"
	"github.com/guseggert/crest/driver"
	"github.com/guseggert/crest/executor"
	"github.com/guseggert/crest/internal/files"
	"github.com/guseggert/crest/internal/imsg"
	"github.com/guseggert/crest/internal/logging"
	"github.com/guseggert/crest/internal/sandbox"
	"github.com/guseggert/crest/protocol"
	"github.com/guseggert/crest/repl"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var version = "dev"

const rcName = ".crestrc"

func main() {
	// -h is the Host header and -v is verbosity
	cli.HelpFlag = &cli.BoolFlag{
		Name:  "help",
		Usage: "show help",
	}
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}

	var verbose int
	app := &cli.App{
		Name:                   "crest",
		Usage:                  "an interactive HTTP client",
		Version:                version,
		UseShortOptionHandling: true,
		HideHelpCommand:        true,
		Flags:                  driverFlags(&verbose),
		Action: func(ctx *cli.Context) error {
			return runDriver(ctx, verbose)
		},
		Commands: []*cli.Command{
			{
				Name:   driver.ExecutorCommand,
				Hidden: true,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "fd",
						Value: driver.ExecutorFD,
					},
					&cli.IntFlag{Name: "verbose"},
					&cli.IntFlag{Name: "retries"},
				},
				Action: runExecutor,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func driverFlags(verbose *int) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "insecure",
			Aliases: []string{"i"},
			Usage:   "Don't verify the TLS peer.",
		},
		&cli.GenericFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log more, repeat for even more.",
			Value:   &counter{n: verbose},
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "Add a header, e.g. \"Accept: text/plain\".",
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"h"},
			Usage:   "Send this Host header.",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"P"},
			Usage:   "Connect to this port regardless of the URL.",
		},
		&cli.StringFlag{
			Name:    "http-version",
			Aliases: []string{"V"},
			Usage:   "HTTP version: 0 (1.0), 1 (1.1), 2, T (2 with TLS), 3 or X (none).",
		},
		&cli.StringFlag{
			Name:    "prefix",
			Aliases: []string{"p"},
			Usage:   "Prefix prepended to every request URL.",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "How often a failed request is retried.",
		},
		&cli.BoolFlag{
			Name:  "show-headers",
			Usage: "Print the response headers before the body.",
		},
		&cli.StringFlag{
			Name:  "rc",
			Usage: "Script to run before reading input. Defaults to the nearest " + rcName + ".",
		},
		&cli.BoolFlag{
			Name:  "no-rc",
			Usage: "Don't run any rc script.",
		},
	}
}

// startupCommands turns the command line options into the commands that set them up in the executor.
func startupCommands(ctx *cli.Context) ([]command.Command, error) {
	var cmds []command.Command
	for _, h := range ctx.StringSlice("header") {
		cmds = append(cmds, command.AddHeader{Line: h})
	}
	if host := ctx.String("host"); host != "" {
		cmds = append(cmds, command.AddHeader{Line: "Host: " + host})
	}
	if ctx.IsSet("port") {
		port := ctx.Int("port")
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid port %d", port)
		}
		cmds = append(cmds, command.SettingChange{Setting: protocol.SettingPort, Port: port})
	}
	if ctx.IsSet("http-version") {
		v, ok := protocol.ParseHTTPVersionFlag(ctx.String("http-version"))
		if !ok {
			return nil, fmt.Errorf("unknown http version %q", ctx.String("http-version"))
		}
		cmds = append(cmds, command.SettingChange{Setting: protocol.SettingHTTPVersion, HTTPVersion: v})
	}
	if prefix := ctx.String("prefix"); prefix != "" {
		cmds = append(cmds, command.SettingChange{Setting: protocol.SettingPrefix, Text: prefix})
	}
	if ctx.Bool("insecure") {
		cmds = append(cmds, command.SettingChange{Setting: protocol.SettingPeerVerification, Verify: false})
	}
	return cmds, nil
}

func rcPath(ctx *cli.Context) (string, error) {
	if ctx.Bool("no-rc") {
		return "", nil
	}
	if path := ctx.String("rc"); path != "" {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working dir: %w", err)
	}
	return files.FindUp(rcName, wd)
}

func runDriver(ctx *cli.Context, verbose int) (err error) {
	cmds, err := startupCommands(ctx)
	if err != nil {
		return err
	}
	rc, err := rcPath(ctx)
	if err != nil {
		return err
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	d, err := driver.Spawn(ctx.Context, driver.SpawnConfig{
		Args: []string{
			"--verbose", strconv.Itoa(verbose),
			"--retries", strconv.Itoa(ctx.Int("retries")),
		},
	}, driver.WithLogger(logger.Named("driver")))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, cmd := range cmds {
		if _, err := d.Do(ctx.Context, cmd); err != nil {
			return fmt.Errorf("applying startup options: %w", err)
		}
	}

	r := repl.New(d,
		repl.WithLogger(logger.Named("repl")),
		repl.WithPrompt(term.IsTerminal(int(os.Stdin.Fd()))),
		repl.WithShowHeaders(ctx.Bool("show-headers")),
		repl.WithVersion(version),
	)
	if rc != "" {
		quit, err := r.RunScript(ctx.Context, rc)
		if err != nil || quit {
			return err
		}
	}
	return r.Run(ctx.Context, os.Stdin)
}

func runExecutor(ctx *cli.Context) error {
	if err := sandbox.Restrict(); err != nil {
		return err
	}

	logger, err := logging.New(ctx.Int("verbose"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	conn, err := imsg.FileConn(os.NewFile(uintptr(ctx.Int("fd")), "imsg"))
	if err != nil {
		return err
	}

	e := executor.New(conn,
		executor.WithLogger(logger.Named("executor")),
		executor.WithRetries(ctx.Int("retries")),
		executor.WithSettings(executor.DefaultSettings("crest/"+version)),
	)
	return e.Run(ctx.Context)
}
