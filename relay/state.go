// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/picord/picord/lib/codec"
)

// syncState is the on-disk form of the sync position.
type syncState struct {
	UserID    string    `cbor:"user_id"`
	NextBatch string    `cbor:"next_batch"`
	SavedAt   time.Time `cbor:"saved_at"`
}

// StateStore persists the /sync position for one account. A zero
// path disables persistence: Load returns "" and Save does nothing.
type StateStore struct {
	path   string
	userID string
}

// NewStateStore returns a store at path for userID.
func NewStateStore(path, userID string) *StateStore {
	return &StateStore{path: path, userID: userID}
}

// Load returns the saved next_batch token, or "" when nothing usable
// is saved. A state file written for another account is ignored.
func (s *StateStore) Load() (string, error) {
	if s.path == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("relay: reading sync state: %w", err)
	}

	var state syncState
	if err := codec.Unmarshal(data, &state); err != nil {
		return "", fmt.Errorf("relay: decoding sync state %s: %w", s.path, err)
	}
	if state.UserID != s.userID {
		return "", nil
	}
	return state.NextBatch, nil
}

// Save records nextBatch. The file is replaced atomically.
func (s *StateStore) Save(nextBatch string, now time.Time) error {
	if s.path == "" {
		return nil
	}
	data, err := codec.Marshal(syncState{
		UserID:    s.userID,
		NextBatch: nextBatch,
		SavedAt:   now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("relay: encoding sync state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("relay: creating state directory: %w", err)
	}
	temporary := s.path + ".tmp"
	if err := os.WriteFile(temporary, data, 0o600); err != nil {
		return fmt.Errorf("relay: writing sync state: %w", err)
	}
	if err := os.Rename(temporary, s.path); err != nil {
		return fmt.Errorf("relay: replacing sync state: %w", err)
	}
	return nil
}
