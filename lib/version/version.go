// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for PiCord binaries.
//
// The variables are injected at build time, for example:
//
//	go build -ldflags "-X github.com/picord/picord/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Development builds and test runs see the defaults.
package version

import (
	"fmt"
	"runtime"
)

var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the release version.
	Version = "0.1.0-dev"
)

// Info returns the --version line: "0.1.0-dev (abc1234, 2026-...)".
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime)
}

// Full returns Info plus the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent with every homeserver request.
func UserAgent() string {
	return "picord/" + Version
}
