// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"

	"github.com/picord/picord/messaging"
	"github.com/picord/picord/terminal"
)

// MatrixTransport implements terminal.Transport over a Matrix session.
// Text is markdown and is sent with an HTML rendering.
type MatrixTransport struct {
	session messaging.Session
}

// NewMatrixTransport wraps session.
func NewMatrixTransport(session messaging.Session) *MatrixTransport {
	return &MatrixTransport{session: session}
}

// Send posts text to the room, as a reply when replyTo is set.
func (t *MatrixTransport) Send(ctx context.Context, channel terminal.ChannelID, text string, replyTo terminal.MessageID) (terminal.MessageID, error) {
	content := messaging.NewMarkdownMessage(text)
	if replyTo != "" {
		content = messaging.NewReply(string(replyTo), content)
	}
	eventID, err := t.session.SendMessage(ctx, string(channel), content)
	if err != nil {
		return "", err
	}
	return terminal.MessageID(eventID), nil
}

// Edit replaces the text of message with an m.replace edit.
func (t *MatrixTransport) Edit(ctx context.Context, channel terminal.ChannelID, message terminal.MessageID, text string) error {
	_, err := t.session.EditMessage(ctx, string(channel), string(message), messaging.NewMarkdownMessage(text))
	return err
}

// Delete redacts message.
func (t *MatrixTransport) Delete(ctx context.Context, channel terminal.ChannelID, message terminal.MessageID) error {
	_, err := t.session.Redact(ctx, string(channel), string(message), "")
	return err
}

var _ terminal.Transport = (*MatrixTransport)(nil)
