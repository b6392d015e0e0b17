// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/picord/picord/lib/config"
)

// newLogger builds the process logger from the logging section. Output
// goes to console (when enabled) and to the log file, which is
// truncated. The returned function closes the file.
func newLogger(logging config.LoggingConfig, console io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logging.Level)); err != nil {
		return nil, nil, fmt.Errorf("logging.level: %w", err)
	}

	var writers []io.Writer
	closeFile := func() {}
	if logging.Console {
		writers = append(writers, console)
	}
	if logging.File != "" {
		file, err := os.OpenFile(logging.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, file)
		closeFile = func() { file.Close() }
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = io.MultiWriter(writers...)
	}

	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch logging.Format {
	case "json":
		handler = slog.NewJSONHandler(output, options)
	case "", "text":
		handler = slog.NewTextHandler(output, options)
	default:
		closeFile()
		return nil, nil, fmt.Errorf("logging.format: unknown format %q", logging.Format)
	}
	return slog.New(handler), closeFile, nil
}
