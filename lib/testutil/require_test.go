// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

type recordingTB struct {
	failed  bool
	message string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.failed = true
	r.message = fmt.Sprintf(format, args...)
	panic(r)
}

func runRecording(fn func(tb *recordingTB)) (tb *recordingTB) {
	tb = &recordingTB{}
	defer func() {
		if recovered := recover(); recovered != nil && recovered != tb {
			panic(recovered)
		}
	}()
	fn(tb)
	return tb
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Errorf("RequireReceive = %d, want 7", got)
	}

	tb := runRecording(func(tb *recordingTB) {
		RequireReceive(tb, make(chan int), 10*time.Millisecond, "waiting for %s", "nothing")
	})
	if !tb.failed {
		t.Fatal("RequireReceive on an idle channel did not fail")
	}
	if want := "timed out after 10ms: waiting for nothing"; tb.message != want {
		t.Errorf("message = %q, want %q", tb.message, want)
	}

	closed := make(chan int)
	close(closed)
	tb = runRecording(func(tb *recordingTB) {
		RequireReceive(tb, closed, time.Second)
	})
	if !tb.failed {
		t.Error("RequireReceive on a closed channel did not fail")
	}
}

func TestRequireClosed(t *testing.T) {
	done := make(chan struct{})
	close(done)
	RequireClosed(t, done, time.Second, "closed")

	tb := runRecording(func(tb *recordingTB) {
		RequireClosed(tb, make(chan struct{}), 10*time.Millisecond)
	})
	if !tb.failed {
		t.Error("RequireClosed on an open channel did not fail")
	}
}
