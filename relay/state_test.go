// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStateStoreMissingFile(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "sync.cbor"), "@bot:example.org")
	since, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if since != "" {
		t.Errorf("since = %q, want empty", since)
	}
}

func TestStateStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "sync.cbor")
	store := NewStateStore(path, "@bot:example.org")

	if err := store.Save("s42_7", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save("s43_1", time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	since, err := NewStateStore(path, "@bot:example.org").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if since != "s43_1" {
		t.Errorf("since = %q, want s43_1", since)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestStateStoreIgnoresOtherAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.cbor")
	if err := NewStateStore(path, "@old:example.org").Save("s1", time.Now()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	since, err := NewStateStore(path, "@bot:example.org").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if since != "" {
		t.Errorf("since = %q, want empty for another account", since)
	}
}

func TestStateStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.cbor")
	if err := os.WriteFile(path, []byte{0xff, 0x00, 0x13}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStateStore(path, "@bot:example.org").Load(); err == nil {
		t.Fatal("Load succeeded on a corrupt file")
	}
}

func TestStateStoreDisabled(t *testing.T) {
	store := NewStateStore("", "@bot:example.org")
	if err := store.Save("s1", time.Now()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	since, err := store.Load()
	if err != nil || since != "" {
		t.Errorf("Load = %q, %v; want empty, nil", since, err)
	}
}
