// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests never block forever on a channel. They are the only
// place tests wait on the real clock; everything else drives
// [github.com/picord/picord/lib/clock.FakeClock].
//
// Helpers call t.Fatalf on failure.
package testutil
