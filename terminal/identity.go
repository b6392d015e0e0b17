// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import "os"

// Identity seeds the display identity and starting directory of a
// session.
type Identity struct {
	Username string
	Hostname string

	// Home is shown as "~" in the prompt and is the target of a bare
	// "cd". May be empty.
	Home string

	// WorkingDirectory is the session's starting directory. Empty
	// falls back to Home, then "/".
	WorkingDirectory string
}

// HostIdentity reads the identity of the relay process: username from
// USER or USERNAME, hostname from HOSTNAME or the kernel, home from
// the user's home directory and the starting directory from the
// process working directory.
func HostIdentity() Identity {
	identity := Identity{
		Username: firstNonEmpty(os.Getenv("USER"), os.Getenv("USERNAME"), "user"),
		Hostname: os.Getenv("HOSTNAME"),
	}
	if identity.Hostname == "" {
		if hostname, err := os.Hostname(); err == nil {
			identity.Hostname = hostname
		}
	}
	if identity.Hostname == "" {
		identity.Hostname = "localhost"
	}
	if home, err := os.UserHomeDir(); err == nil {
		identity.Home = home
	}
	if cwd, err := os.Getwd(); err == nil {
		identity.WorkingDirectory = cwd
	}
	return identity
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
