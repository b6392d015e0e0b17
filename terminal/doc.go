// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package terminal turns a stream of chat messages into an emulated
// shell session per user.
//
// A session is started by a chat command (the router's "start ssh").
// From then on every message the user sends that is not a router
// command is a command line: [Manager.HandleInput] runs it on the host
// through the [Executor], appends the echoed command, its output and a
// fresh prompt to the session's terminal message, and deletes the
// user's message so the channel reads like a scrollback. The first
// command of a session and "exit" are left in place.
//
// The pieces:
//
//   - [Executor] runs one command line. It applies the allow-list,
//     handles "exit" and "cd" without spawning anything, and otherwise
//     runs "<shell> -c <line>" in the session's working directory with
//     a wall-clock timeout that kills the whole process group. Every
//     failure becomes text on the [Result]; [Outcome] classifies it.
//   - [Registry] holds the sessions, the set of users whose first
//     command has been seen, and a bounded ring of message IDs that
//     must never be read as terminal input.
//   - [Renderer] edits the terminal message in place and, when the
//     transport rejects the edit, sends a replacement and repoints the
//     session at it.
//   - [Manager] owns the per-user lifecycle (none, active, none) and
//     serializes each user's commands with a per-user lock. Different
//     users never contend.
//
// The working directory is per-session state passed explicitly to
// every spawned command; the relay process never changes its own
// directory.
//
// The package knows nothing about Matrix. [Transport] is the three
// message primitives it needs; the relay package adapts a Matrix
// session to it and cmd/picord-console adapts a local terminal.
package terminal
