// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import "context"

// UserID identifies the principal controlling a session.
type UserID string

// ChannelID identifies the transport channel a session lives in.
type ChannelID string

// MessageID is a transport handle for one message.
type MessageID string

// Message is an inbound chat message.
type Message struct {
	ID      MessageID
	Sender  UserID
	Channel ChannelID
	Text    string
}

// Transport is the set of message primitives sessions are rendered
// through.
type Transport interface {
	// Send posts text to channel, as a reply to replyTo when it is
	// non-empty, and returns the new message's handle.
	Send(ctx context.Context, channel ChannelID, text string, replyTo MessageID) (MessageID, error)

	// Edit replaces the text of an earlier message.
	Edit(ctx context.Context, channel ChannelID, message MessageID, text string) error

	// Delete removes a message. Callers treat failure as best-effort.
	Delete(ctx context.Context, channel ChannelID, message MessageID) error
}
