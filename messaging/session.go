// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "context"

// Session is the set of Matrix operations the relay performs.
// *DirectSession is the production implementation; tests use fakes.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID.
	UserID() string

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (string, error)

	// SendMessage sends a message to a room. Returns the event ID.
	SendMessage(ctx context.Context, roomID string, content MessageContent) (string, error)

	// EditMessage replaces the content of an earlier message.
	EditMessage(ctx context.Context, roomID, eventID string, content MessageContent) (string, error)

	// Redact removes an event's content from a room.
	Redact(ctx context.Context, roomID, eventID, reason string) (string, error)

	// JoinRoom joins a room by ID. Returns the room ID.
	JoinRoom(ctx context.Context, roomID string) (string, error)

	// JoinedRooms returns the rooms the user has joined.
	JoinedRooms(ctx context.Context) ([]string, error)

	// Sync performs one /sync request.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

var _ Session = (*DirectSession)(nil)
