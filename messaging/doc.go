// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the subset of the Matrix client-server API the
// relay needs: sending, editing and redacting room messages, joining
// rooms, and long-polling /sync.
//
// [Client] holds the homeserver URL and HTTP transport. [DirectSession]
// adds an access token kept in mmap-backed [secret.Buffer] memory;
// callers must Close it to release that memory. [Session] is the
// interface the rest of the relay programs against so tests can swap in
// a fake.
//
// Message bodies are markdown. [NewMarkdownMessage] renders the body to
// org.matrix.custom.html with goldmark and keeps the markdown source as
// the plain-text fallback. [NewEdit] wraps replacement content in an
// m.replace relation, and [NewReply] adds an m.in_reply_to reference.
//
// Every API error is a [*MatrixError] carrying the Matrix error code and
// HTTP status; [IsMatrixError] tests for a code.
//
// [secret.Buffer]: github.com/picord/picord/lib/secret.Buffer
package messaging
