// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay connects the terminal session manager to Matrix.
//
// [Relay] long-polls /sync, accepts room invites from owners, and turns
// new m.room.message text events into [terminal.Message] values. Each
// sender gets its own dispatch queue so one user's long-running
// command never delays another user, while a single user's messages
// are handled strictly in order.
//
// [Router] decides what a message is. Owner messages without the
// command prefix are offered to the terminal session manager first;
// prefixed messages are bot commands ("start ssh", "stop ssh", "help").
//
// [MatrixTransport] adapts a [messaging.Session] to
// [terminal.Transport]: room IDs are channels and event IDs are message
// handles. Edits use m.replace relations and deletes are redactions.
//
// [StateStore] persists the last /sync position as CBOR so a restart
// resumes the stream instead of replaying history.
package relay
