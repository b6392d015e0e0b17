// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// picord is the Matrix relay. It reads picord.yaml, logs in with the
// access token from matrix.token_file, and serves the configured
// owners from the rooms it is in.
//
//	picord --config /etc/picord/picord.yaml
//	picord keygen --output ~/.config/picord/identity
//	picord seal --recipient age1... --input .env --output .env.age
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/picord/picord/lib/clock"
	"github.com/picord/picord/lib/config"
	"github.com/picord/picord/lib/process"
	"github.com/picord/picord/lib/sealed"
	"github.com/picord/picord/lib/secret"
	"github.com/picord/picord/lib/version"
	"github.com/picord/picord/messaging"
	"github.com/picord/picord/relay"
	"github.com/picord/picord/terminal"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "seal":
			return runSeal(args[1:], os.Stdin, os.Stdout)
		case "keygen":
			return runKeygen(args[1:], os.Stdout)
		}
	}
	return runRelay(args)
}

func runRelay(args []string) error {
	var (
		configPath  string
		verbose     bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("picord", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to picord.yaml (default: $PICORD_CONFIG)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("picord %s\n", version.Full())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, closeLog, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accessToken, err := loadAccessToken(cfg.Matrix)
	if err != nil {
		return fmt.Errorf("loading access token: %w", err)
	}
	defer accessToken.Close()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	session, err := client.SessionFromToken(cfg.Matrix.UserID, accessToken)
	if err != nil {
		return err
	}
	defer session.Close()

	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("validating access token: %w", err)
	}
	if userID != cfg.Matrix.UserID {
		return fmt.Errorf("access token belongs to %s, not %s", userID, cfg.Matrix.UserID)
	}
	logger.Info("matrix session valid", "user_id", userID, "version", version.Info())

	syncTimeout, err := cfg.SyncTimeout()
	if err != nil {
		return fmt.Errorf("matrix.sync_timeout: %w", err)
	}

	clk := clock.Real()
	router, err := newRouter(cfg, relay.NewMatrixTransport(session), clk, logger)
	if err != nil {
		return err
	}

	matrixRelay, err := relay.New(relay.Config{
		Session:     session,
		Handler:     router,
		Rooms:       cfg.Matrix.Rooms,
		Owners:      cfg.BotOwners(),
		State:       relay.NewStateStore(cfg.State.SyncPath, userID),
		SyncTimeout: syncTimeout,
		Clock:       clk,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info("relay running",
		"owners", cfg.BotOwners(),
		"rooms", len(cfg.Matrix.Rooms),
		"terminal", cfg.Terminal.Enabled,
	)
	if err := matrixRelay.Run(ctx); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}

// loadAccessToken reads the token file, decrypting it first when an
// age identity is configured.
func loadAccessToken(matrix config.MatrixConfig) (*secret.Buffer, error) {
	if matrix.IdentityFile == "" {
		return secret.ReadEnvValue(matrix.TokenFile, "TOKEN")
	}

	plaintext, err := sealed.DecryptFile(matrix.TokenFile, matrix.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("decrypting %s: %w", matrix.TokenFile, err)
	}
	defer plaintext.Close()
	return secret.ParseEnvValue(plaintext.Bytes(), "TOKEN")
}

// newRouter builds the router and, when terminal sessions are enabled,
// the session manager behind it.
func newRouter(cfg *config.Config, transport terminal.Transport, clk clock.Clock, logger *slog.Logger) (*relay.Router, error) {
	registry := terminal.NewRegistry()

	var manager *terminal.Manager
	if cfg.Terminal.Enabled {
		var err error
		manager, err = terminal.NewManager(terminal.ManagerConfig{
			Registry: registry,
			Executor: terminal.NewExecutor(terminal.ExecutorConfig{
				Shell:           cfg.Terminal.Shell,
				Timeout:         cfg.CommandTimeout(),
				AllowedCommands: cfg.Terminal.AllowedCommands,
				MaxOutputBytes:  cfg.Terminal.MaxOutputBytes,
				Logger:          logger,
			}),
			Transport: transport,
			Clock:     clk,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return relay.NewRouter(relay.RouterConfig{
		Name:      cfg.Bot.Name,
		Prefix:    cfg.Bot.Prefix,
		Silent:    cfg.Bot.Silent,
		Owners:    cfg.BotOwners(),
		Registry:  registry,
		Manager:   manager,
		Transport: transport,
		Logger:    logger,
	})
}
