// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers shared by PiCord binaries.
// Raw writes to stderr live here because they happen before the
// structured logger exists or after it can no longer be trusted.
package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. Binaries
// call it from main() with the error returned by run().
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
