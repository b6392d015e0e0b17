// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/picord/picord/lib/sealed"
	"github.com/picord/picord/lib/secret"
)

// runSeal encrypts a token file to age recipients so it can be stored
// as matrix.token_file alongside matrix.identity_file.
func runSeal(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		recipients []string
		inputPath  string
		outputPath string
	)
	flagSet := pflag.NewFlagSet("picord seal", pflag.ContinueOnError)
	flagSet.StringArrayVarP(&recipients, "recipient", "r", nil, "age recipient (age1...); repeatable")
	flagSet.StringVarP(&inputPath, "input", "i", "", "plaintext token file (default: stdin)")
	flagSet.StringVarP(&outputPath, "output", "o", "", "ciphertext destination (default: stdout)")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("seal: --recipient is required")
	}

	var plaintext []byte
	var err error
	if inputPath != "" {
		plaintext, err = os.ReadFile(inputPath)
	} else {
		plaintext, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("seal: reading plaintext: %w", err)
	}
	defer secret.Zero(plaintext)

	ciphertext, err := sealed.Encrypt(plaintext, recipients)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	if outputPath == "" {
		_, err = stdout.Write(ciphertext)
		return err
	}
	return os.WriteFile(outputPath, ciphertext, 0o600)
}

// runKeygen writes a new age identity to --output and prints its
// recipient.
func runKeygen(args []string, stdout io.Writer) error {
	var outputPath string
	flagSet := pflag.NewFlagSet("picord keygen", pflag.ContinueOnError)
	flagSet.StringVarP(&outputPath, "output", "o", "", "identity file to create (required)")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if outputPath == "" {
		return fmt.Errorf("keygen: --output is required")
	}

	identity, recipient, err := sealed.GenerateIdentity()
	if err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	defer identity.Close()

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	fmt.Fprintf(file, "# recipient: %s\n", recipient)
	if _, err := file.Write(identity.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("keygen: writing identity: %w", err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		file.Close()
		return fmt.Errorf("keygen: writing identity: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("keygen: %w", err)
	}

	fmt.Fprintln(stdout, recipient)
	return nil
}
