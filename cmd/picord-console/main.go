// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// picord-console drives the relay's router and terminal sessions from a
// local terminal instead of a Matrix room. Each typed line is handled
// as a message from the console operator: "!start ssh" opens a session,
// unprefixed lines run in it, and "exit" ends it. The terminal message
// is redrawn in place when stdin and stdout are a terminal.
//
//	picord-console --config /etc/picord/picord.yaml
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/picord/picord/lib/clock"
	"github.com/picord/picord/lib/config"
	"github.com/picord/picord/lib/process"
	"github.com/picord/picord/lib/version"
	"github.com/picord/picord/relay"
	"github.com/picord/picord/terminal"
)

// consoleUser is the sender of every typed line.
const consoleUser = "@console:local"

const prompt = "> "

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		logPath     string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("picord-console", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to picord.yaml (default: built-in defaults)")
	flagSet.StringVar(&logPath, "log-file", "", "write debug logs to this file")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("picord-console %s\n", version.Full())
		return nil
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if logPath != "" {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer file.Close()
		logger = slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stdinFd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(stdinFd) && term.IsTerminal(int(os.Stdout.Fd()))

	var out io.Writer = os.Stdout
	var readLine func() (string, error)
	width := 80
	if interactive {
		oldState, err := term.MakeRaw(stdinFd)
		if err != nil {
			return fmt.Errorf("setting terminal raw mode: %w", err)
		}
		defer term.Restore(stdinFd, oldState)

		lineEditor := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, prompt)
		if columns, rows, err := term.GetSize(stdinFd); err == nil {
			width = columns
			lineEditor.SetSize(columns, rows)
		}
		out = lineEditor
		readLine = lineEditor.ReadLine
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		readLine = func() (string, error) {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			}
			return scanner.Text(), nil
		}
	}

	display := newScreen(out, width, interactive)
	router, registry, err := newConsoleRouter(cfg, display, logger)
	if err != nil {
		return err
	}

	if err := serve(ctx, readLine, display, router); err != nil {
		return err
	}
	if _, active := registry.Get(consoleUser); active {
		router.Dispatch(context.Background(), terminal.Message{
			ID:      display.noteInput(cfg.Bot.Prefix + "stop ssh"),
			Sender:  consoleUser,
			Channel: consoleChannel,
			Text:    cfg.Bot.Prefix + "stop ssh",
		})
	}
	return nil
}

// serve reads lines until EOF or cancellation and dispatches each one
// as a message from the console operator.
func serve(ctx context.Context, readLine func() (string, error), display *screen, router *relay.Router) error {
	for ctx.Err() == nil {
		line, err := readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		router.Dispatch(ctx, terminal.Message{
			ID:      display.noteInput(prompt + line),
			Sender:  consoleUser,
			Channel: consoleChannel,
			Text:    line,
		})
	}
	return nil
}

func newConsoleRouter(cfg *config.Config, transport terminal.Transport, logger *slog.Logger) (*relay.Router, *terminal.Registry, error) {
	registry := terminal.NewRegistry()
	manager, err := terminal.NewManager(terminal.ManagerConfig{
		Registry: registry,
		Executor: terminal.NewExecutor(terminal.ExecutorConfig{
			Shell:           cfg.Terminal.Shell,
			Timeout:         cfg.CommandTimeout(),
			AllowedCommands: cfg.Terminal.AllowedCommands,
			MaxOutputBytes:  cfg.Terminal.MaxOutputBytes,
			Logger:          logger,
		}),
		Transport: transport,
		Clock:     clock.Real(),
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}

	router, err := relay.NewRouter(relay.RouterConfig{
		Name:      cfg.Bot.Name,
		Prefix:    cfg.Bot.Prefix,
		Owners:    []string{consoleUser},
		Registry:  registry,
		Manager:   manager,
		Transport: transport,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return router, registry, nil
}
