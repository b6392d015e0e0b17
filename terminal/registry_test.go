// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryCreateReplaces(t *testing.T) {
	registry := NewRegistry()

	first := &Session{UserID: "@alice:test"}
	if previous := registry.Create(first); previous != nil {
		t.Errorf("Create on empty registry returned %v", previous)
	}
	second := &Session{UserID: "@alice:test"}
	if previous := registry.Create(second); previous != first {
		t.Errorf("Create returned %p, want the replaced session %p", previous, first)
	}

	if registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", registry.Len())
	}
	got, ok := registry.Get("@alice:test")
	if !ok || got != second {
		t.Errorf("Get = %p, %v; want the second session", got, ok)
	}
}

func TestRegistryFirstCommand(t *testing.T) {
	registry := NewRegistry()
	registry.Create(&Session{UserID: "@alice:test"})

	if !registry.MarkFirstCommand("@alice:test") {
		t.Error("first MarkFirstCommand = false")
	}
	if registry.MarkFirstCommand("@alice:test") {
		t.Error("second MarkFirstCommand = true")
	}

	registry.Remove("@alice:test")
	if _, ok := registry.Get("@alice:test"); ok {
		t.Error("session still present after Remove")
	}
	registry.Create(&Session{UserID: "@alice:test"})
	if !registry.MarkFirstCommand("@alice:test") {
		t.Error("first-command state survived Remove")
	}

	// Replacing a session also starts first-command tracking over.
	registry.Create(&Session{UserID: "@alice:test"})
	if !registry.MarkFirstCommand("@alice:test") {
		t.Error("first-command state survived Create")
	}
}

func TestSuppressionEvictsOldest(t *testing.T) {
	registry := NewRegistry()
	for i := 0; i < SuppressionLimit+1; i++ {
		registry.MarkSuppressed(MessageID(fmt.Sprintf("$%d", i)))
	}

	if registry.IsSuppressed("$0") {
		t.Error("oldest ID was not evicted")
	}
	for i := 1; i <= SuppressionLimit; i++ {
		if id := MessageID(fmt.Sprintf("$%d", i)); !registry.IsSuppressed(id) {
			t.Errorf("%s evicted early", id)
		}
	}
	if registry.suppressed.len() != SuppressionLimit {
		t.Errorf("ring holds %d, want %d", registry.suppressed.len(), SuppressionLimit)
	}
}

func TestSuppressionDuplicatesAndEmpty(t *testing.T) {
	registry := NewRegistry()
	registry.MarkSuppressed("")
	if registry.IsSuppressed("") {
		t.Error("empty ID was recorded")
	}

	registry.MarkSuppressed("$keep")
	registry.MarkSuppressed("$keep")
	if registry.suppressed.len() != 1 {
		t.Errorf("duplicate occupied a slot: len %d", registry.suppressed.len())
	}

	// Re-marking does not refresh: $keep is still the oldest.
	for i := 0; i < SuppressionLimit-1; i++ {
		registry.MarkSuppressed(MessageID(fmt.Sprintf("$%d", i)))
	}
	registry.MarkSuppressed("$keep")
	registry.MarkSuppressed("$overflow")
	if registry.IsSuppressed("$keep") {
		t.Error("$keep survived eviction after being re-marked")
	}
}

func TestRegistryConcurrentUsers(t *testing.T) {
	registry := NewRegistry()
	var group sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		group.Add(1)
		go func() {
			defer group.Done()
			user := UserID(fmt.Sprintf("@user%d:test", i))
			registry.Create(&Session{UserID: user})
			registry.MarkSuppressed(MessageID(user))
			registry.MarkFirstCommand(user)
			if i%2 == 0 {
				registry.Remove(user)
			}
		}()
	}
	group.Wait()

	if registry.Len() != 10 {
		t.Errorf("Len() = %d, want 10", registry.Len())
	}
}
