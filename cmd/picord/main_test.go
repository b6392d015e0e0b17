// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/picord/picord/lib/clock"
	"github.com/picord/picord/lib/config"
	"github.com/picord/picord/lib/sealed"
	"github.com/picord/picord/terminal"
)

func TestNewLoggerLevelsAndFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "picord.log")
	if err := os.WriteFile(logPath, []byte("stale contents from the last run\n"), 0o640); err != nil {
		t.Fatal(err)
	}

	var console bytes.Buffer
	logger, closeLog, err := newLogger(config.LoggingConfig{
		Level:   "warn",
		Format:  "json",
		File:    logPath,
		Console: true,
	}, &console)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "user_id", "@owner:example.org")
	closeLog()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("log file was not truncated")
	}
	for name, output := range map[string]string{"file": string(data), "console": console.String()} {
		if strings.Contains(output, "dropped") {
			t.Errorf("%s: info record passed a warn logger", name)
		}
		if !strings.Contains(output, `"msg":"kept"`) {
			t.Errorf("%s: missing JSON warn record: %q", name, output)
		}
	}
}

func TestNewLoggerConsoleDisabled(t *testing.T) {
	var console bytes.Buffer
	logger, closeLog, err := newLogger(config.LoggingConfig{Level: "debug", Format: "text"}, &console)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	defer closeLog()
	logger.Error("nowhere")
	if console.Len() != 0 {
		t.Errorf("console received %q", console.String())
	}
}

func TestNewLoggerRejectsBadSettings(t *testing.T) {
	var console bytes.Buffer
	if _, _, err := newLogger(config.LoggingConfig{Level: "loud", Console: true}, &console); err == nil {
		t.Error("accepted unknown level")
	}
	if _, _, err := newLogger(config.LoggingConfig{Level: "info", Format: "xml", Console: true}, &console); err == nil {
		t.Error("accepted unknown format")
	}
}

func TestLoadAccessTokenPlain(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(tokenPath, []byte("# relay\nTOKEN=syt_plain\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	token, err := loadAccessToken(config.MatrixConfig{TokenFile: tokenPath})
	if err != nil {
		t.Fatalf("loadAccessToken: %v", err)
	}
	defer token.Close()
	if token.String() != "syt_plain" {
		t.Errorf("token = %q", token.String())
	}
}

func TestSealedTokenRoundTrip(t *testing.T) {
	directory := t.TempDir()
	identityPath := filepath.Join(directory, "identity")
	tokenPath := filepath.Join(directory, ".env.age")

	var stdout bytes.Buffer
	if err := runKeygen([]string{"--output", identityPath}, &stdout); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	recipient := strings.TrimSpace(stdout.String())
	if !strings.HasPrefix(recipient, "age1") {
		t.Fatalf("recipient = %q", recipient)
	}
	info, err := os.Stat(identityPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("identity mode = %v, want 0600", info.Mode().Perm())
	}
	if err := runKeygen([]string{"--output", identityPath}, &stdout); err == nil {
		t.Error("keygen overwrote an existing identity")
	}

	stdin := strings.NewReader("TOKEN=syt_sealed\n")
	if err := runSeal([]string{"-r", recipient, "-o", tokenPath}, stdin, &stdout); err != nil {
		t.Fatalf("seal: %v", err)
	}

	token, err := loadAccessToken(config.MatrixConfig{TokenFile: tokenPath, IdentityFile: identityPath})
	if err != nil {
		t.Fatalf("loadAccessToken: %v", err)
	}
	defer token.Close()
	if token.String() != "syt_sealed" {
		t.Errorf("token = %q", token.String())
	}
}

func TestSealToStdout(t *testing.T) {
	identity, recipient, err := sealed.GenerateIdentity()
	if err != nil {
		t.Fatal(err)
	}
	defer identity.Close()

	var stdout bytes.Buffer
	if err := runSeal([]string{"--recipient", recipient}, strings.NewReader("bare-token"), &stdout); err != nil {
		t.Fatalf("seal: %v", err)
	}
	plaintext, err := sealed.Decrypt(stdout.Bytes(), identity)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer plaintext.Close()
	if plaintext.String() != "bare-token" {
		t.Errorf("plaintext = %q", plaintext.String())
	}
}

func TestSealRequiresRecipient(t *testing.T) {
	var stdout bytes.Buffer
	if err := runSeal(nil, strings.NewReader("x"), &stdout); err == nil {
		t.Error("seal without recipient succeeded")
	}
}

func TestNewRouterTerminalToggle(t *testing.T) {
	cfg := config.Default()
	cfg.Matrix.UserID = "@pi:example.org"

	for _, enabled := range []bool{true, false} {
		cfg.Terminal.Enabled = enabled
		router, err := newRouter(cfg, nopTransport{}, clock.Real(), nil)
		if err != nil {
			t.Fatalf("newRouter(enabled=%v): %v", enabled, err)
		}
		if !router.IsOwner("@pi:example.org") {
			t.Error("relay account is not an owner by default")
		}
		if got := router.HandleTerminalInput(context.Background(), terminal.Message{Sender: "@pi:example.org", Text: "ls"}); got {
			t.Error("input consumed without a session")
		}
	}
}

type nopTransport struct{}

func (nopTransport) Send(_ context.Context, _ terminal.ChannelID, _ string, _ terminal.MessageID) (terminal.MessageID, error) {
	return "$nop", nil
}

func (nopTransport) Edit(context.Context, terminal.ChannelID, terminal.MessageID, string) error {
	return nil
}

func (nopTransport) Delete(context.Context, terminal.ChannelID, terminal.MessageID) error {
	return nil
}
