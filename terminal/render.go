// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"context"
	"log/slog"
	"strings"
)

// Banners shown in the terminal message.
const (
	introHeader    = "**🖥️ Terminal Session Started**\nType commands normally. Type `exit` to end the session.\n"
	terminalHeader = "**🖥️ Terminal**\n"
	endedBanner    = "**🖥️ Terminal Session Ended**"
)

const fence = "```"

// introText is the first terminal message: the banner and the initial
// prompt.
func introText(prompt string) string {
	return introHeader + fence + "\n" + prompt + "\n" + fence
}

// terminalText is the scrollback block for one command: the echoed
// command, its output if any, and the next prompt.
func terminalText(echo, output, prompt string) string {
	var builder strings.Builder
	builder.WriteString(terminalHeader)
	builder.WriteString(fence + "\n")
	builder.WriteString(escapeFence(echo))
	builder.WriteString("\n")
	if output != "" {
		builder.WriteString(escapeFence(output))
		builder.WriteString("\n")
	}
	builder.WriteString(escapeFence(prompt))
	builder.WriteString("\n" + fence)
	return builder.String()
}

// escapeFence breaks up backtick runs that would close the code block
// early. A zero-width space keeps the text visually unchanged.
func escapeFence(text string) string {
	return strings.ReplaceAll(text, fence, "`\u200b`\u200b`")
}

// Renderer reconciles a session's scrollback with its terminal message.
type Renderer struct {
	transport Transport
	registry  *Registry
	logger    *slog.Logger
}

// NewRenderer creates a Renderer. Messages it sends as replacements
// are marked suppressed in registry.
func NewRenderer(transport Transport, registry *Registry, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{transport: transport, registry: registry, logger: logger}
}

// Render writes text to the session's terminal message. When the edit
// is rejected a new message with the same text is sent and the
// session is repointed at it. Reports false only when both fail; the
// next Render retries against whatever TerminalMessage is then.
func (r *Renderer) Render(ctx context.Context, session *Session, text string) bool {
	editErr := r.transport.Edit(ctx, session.Channel, session.TerminalMessage, text)
	if editErr == nil {
		return true
	}

	r.logger.Warn("terminal message edit failed, sending a new one",
		"user_id", session.UserID,
		"message_id", session.TerminalMessage,
		"error", editErr,
	)

	replacement, err := r.transport.Send(ctx, session.Channel, text, "")
	if err != nil {
		r.logger.Error("terminal message recreate failed",
			"user_id", session.UserID,
			"edit_error", editErr,
			"error", err,
		)
		return false
	}

	r.registry.MarkSuppressed(replacement)
	session.TerminalMessage = replacement
	return true
}
