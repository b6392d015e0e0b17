// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/picord/picord/lib/config"
)

func TestScreenAppendMode(t *testing.T) {
	var out bytes.Buffer
	display := newScreen(&out, 80, false)
	ctx := context.Background()

	id, err := display.Send(ctx, consoleChannel, "**🖥️ Terminal**\n```\n[pi@host ~]$ \n```", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := display.Edit(ctx, consoleChannel, id, "**done**"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := display.Delete(ctx, consoleChannel, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := "🖥️ Terminal\n[pi@host ~]$ \ndone\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if strings.Contains(out.String(), "\x1b") {
		t.Error("append mode wrote escape sequences")
	}
}

func TestScreenInPlaceEditRedraws(t *testing.T) {
	var out bytes.Buffer
	display := newScreen(&out, 80, true)
	ctx := context.Background()

	first, _ := display.Send(ctx, consoleChannel, "one", "")
	display.Send(ctx, consoleChannel, "two\nlines", "")
	out.Reset()

	if err := display.Edit(ctx, consoleChannel, first, "uno"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	want := "\r" + ansi.CursorUp(3) + ansi.EraseScreenBelow + "uno\ntwo\nlines\n"
	if out.String() != want {
		t.Errorf("redraw = %q, want %q", out.String(), want)
	}
}

func TestScreenInputJoinsLiveRegion(t *testing.T) {
	var out bytes.Buffer
	display := newScreen(&out, 80, true)
	ctx := context.Background()

	terminalMessage, _ := display.Send(ctx, consoleChannel, "prompt", "")
	input := display.noteInput("> ls")
	out.Reset()

	if err := display.Delete(ctx, consoleChannel, input); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := "\r" + ansi.CursorUp(2) + ansi.EraseScreenBelow + "prompt\n"
	if out.String() != want {
		t.Errorf("after delete = %q, want %q", out.String(), want)
	}

	out.Reset()
	if err := display.Edit(ctx, consoleChannel, terminalMessage, "output"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !strings.HasPrefix(out.String(), "\r"+ansi.CursorUp(1)) {
		t.Errorf("edit after delete = %q, want one row rewound", out.String())
	}
}

func TestScreenCountsWrappedRows(t *testing.T) {
	display := newScreen(io.Discard, 10, true)

	tests := []struct {
		text string
		want int
	}{
		{"", 1},
		{"short", 1},
		{strings.Repeat("x", 10), 1},
		{strings.Repeat("x", 11), 2},
		{"a\n\nb", 3},
		{strings.Repeat("界", 6), 2},
	}
	for _, test := range tests {
		if got := display.lineCount(test.text); got != test.want {
			t.Errorf("lineCount(%q) = %d, want %d", test.text, got, test.want)
		}
	}
}

func TestScreenCommitsOldBlocks(t *testing.T) {
	var out bytes.Buffer
	display := newScreen(&out, 80, true)
	ctx := context.Background()

	first, _ := display.Send(ctx, consoleChannel, "first", "")
	for n := 0; n < maxLiveBlocks; n++ {
		display.Send(ctx, consoleChannel, "filler", "")
	}
	if len(display.live) != maxLiveBlocks {
		t.Fatalf("live blocks = %d, want %d", len(display.live), maxLiveBlocks)
	}
	if display.drawn != maxLiveBlocks {
		t.Errorf("drawn = %d, want %d", display.drawn, maxLiveBlocks)
	}

	out.Reset()
	if err := display.Edit(ctx, consoleChannel, first, "first, edited"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !strings.HasSuffix(out.String(), "first, edited\n") {
		t.Errorf("committed block edit = %q, want it drawn at the bottom", out.String())
	}
}

func TestConsoleSessionFlow(t *testing.T) {
	var out bytes.Buffer
	display := newScreen(&out, 80, false)

	cfg := config.Default()
	cfg.Terminal.AllowedCommands = []string{"echo", "exit"}
	router, registry, err := newConsoleRouter(cfg, display, nil)
	if err != nil {
		t.Fatalf("newConsoleRouter: %v", err)
	}

	lines := []string{"!help", "!start ssh", "echo console-ok", "rm /nonexistent", "exit"}
	readLine := func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}

	if err := serve(context.Background(), readLine, display, router); err != nil {
		t.Fatalf("serve: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"PiCord Commands:",
		"Terminal Session Started",
		"console-ok",
		"❌ Command `rm` is not allowed!",
		"Terminal Session Ended",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if _, active := registry.Get(consoleUser); active {
		t.Error("session still active after exit")
	}
}

func TestServeReportsReadErrors(t *testing.T) {
	display := newScreen(io.Discard, 80, false)
	router, _, err := newConsoleRouter(config.Default(), display, nil)
	if err != nil {
		t.Fatal(err)
	}
	failure := errors.New("tty gone")
	err = serve(context.Background(), func() (string, error) { return "", failure }, display, router)
	if !errors.Is(err, failure) {
		t.Errorf("serve = %v, want %v", err, failure)
	}
}
