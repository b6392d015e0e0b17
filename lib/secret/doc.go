// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps the Matrix access token out of the Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM (mlock) and
// excluded from core dumps (MADV_DONTDUMP). Close zeroes, unlocks and
// unmaps it; any access after Close panics.
//
// [ReadEnvValue] loads a token from the env-style file the relay has
// always used (a TOKEN=... line) or from a file holding only the bare
// token, zeroing every heap copy it reads along the way.
//
// Depends on golang.org/x/sys/unix only.
package secret
