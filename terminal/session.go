// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"strings"
	"time"
)

// Session is one user's emulated shell. Fields are mutated only by the
// Manager while it holds the user's lock.
type Session struct {
	UserID   UserID
	Username string
	Hostname string
	Home     string

	// CWD is the absolute working directory, the only shell state
	// carried between commands.
	CWD string

	Channel ChannelID

	// TerminalMessage is the message rewritten with the scrollback.
	TerminalMessage MessageID

	CreatedAt time.Time
}

// Prompt returns "[user@host dir]$ " with the home prefix shown as ~.
func (s *Session) Prompt() string {
	return "[" + s.Username + "@" + s.Hostname + " " + displayPath(s.CWD, s.Home) + "]$ "
}

// displayPath abbreviates home to "~" on a path boundary, so
// /home/pi2 is not shown as ~2 when home is /home/pi.
func displayPath(cwd, home string) string {
	if home == "" || home == "/" {
		return cwd
	}
	if cwd == home {
		return "~"
	}
	if strings.HasPrefix(cwd, home+"/") {
		return "~" + cwd[len(home):]
	}
	return cwd
}
