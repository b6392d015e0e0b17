// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed wraps filippo.io/age for the one job the relay needs
// it for: keeping the Matrix access token file encrypted at rest.
//
// The operator encrypts the env-style token file to an age recipient
// (picord seal), points matrix.token_file at the ciphertext and
// matrix.identity_file at the matching identity. At startup the relay
// decrypts straight into a secret.Buffer. Both binary and ASCII-armored
// ciphertext are accepted; Encrypt always produces armor so the file
// survives copy and paste.
package sealed

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/picord/picord/lib/secret"
)

// armorHeader begins every ASCII-armored age file.
const armorHeader = "-----BEGIN AGE ENCRYPTED FILE-----"

// GenerateIdentity creates a new X25519 identity. The returned buffer
// holds the AGE-SECRET-KEY-1... line; the string is the public
// recipient.
func GenerateIdentity() (*secret.Buffer, string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, "", fmt.Errorf("generating age identity: %w", err)
	}
	privateKey, err := secret.NewFromString(identity.String())
	if err != nil {
		return nil, "", fmt.Errorf("protecting age identity: %w", err)
	}
	return privateKey, identity.Recipient().String(), nil
}

// Encrypt encrypts plaintext to every recipient (age1... strings) and
// returns ASCII-armored ciphertext.
func Encrypt(plaintext []byte, recipientKeys []string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var output bytes.Buffer
	armorWriter := armor.NewWriter(&output)
	writer, err := age.Encrypt(armorWriter, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return output.Bytes(), nil
}

// Decrypt decrypts ciphertext (binary or armored) with the identities
// in identityFile, the contents of an age identity file. The identity
// buffer is borrowed, not closed. The caller closes the returned buffer.
func Decrypt(ciphertext []byte, identityFile *secret.Buffer) (*secret.Buffer, error) {
	identities, err := age.ParseIdentities(bytes.NewReader(identityFile.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}

	var source io.Reader = bytes.NewReader(ciphertext)
	if bytes.HasPrefix(bytes.TrimSpace(ciphertext), []byte(armorHeader)) {
		source = armor.NewReader(bytes.NewReader(bytes.TrimSpace(ciphertext)))
	}

	reader, err := age.Decrypt(source, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("decrypted plaintext is empty")
	}
	return secret.NewFromBytes(plaintext)
}

// DecryptFile reads ciphertextPath and identityPath and decrypts.
func DecryptFile(ciphertextPath, identityPath string) (*secret.Buffer, error) {
	ciphertext, err := os.ReadFile(ciphertextPath)
	if err != nil {
		return nil, err
	}
	identityData, err := os.ReadFile(identityPath)
	if err != nil {
		return nil, err
	}
	identity, err := secret.NewFromBytes(identityData)
	if err != nil {
		return nil, fmt.Errorf("protecting identity %s: %w", identityPath, err)
	}
	defer identity.Close()

	return Decrypt(ciphertext, identity)
}
