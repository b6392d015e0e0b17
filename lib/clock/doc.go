// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that reads the time or waits on a timer takes a [Clock] instead
// of calling the time package directly. [Real] is the production
// implementation. [Fake] stands still until the test calls
// [FakeClock.Advance], which makes session timestamps and the sync
// loop's retry backoff deterministic under test.
//
// Waiting on a fake timer is a two-step dance: the goroutine under test
// registers a timer, the test waits for it with
// [FakeClock.WaitForTimers], then advances past its deadline.
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop.Run(ctx)          // calls fake.After(time.Second)
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second) // the After channel fires
package clock
