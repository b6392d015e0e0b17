// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/picord/picord/terminal"
)

// terminalApp is the app name of terminal sessions.
const terminalApp = "ssh"

// RouterConfig configures a Router.
type RouterConfig struct {
	// Name is shown in the help text.
	Name string

	// Prefix marks bot commands. Required.
	Prefix string

	// Silent deletes command messages instead of replying to them.
	Silent bool

	// Owners are the users whose messages are acted on. Required.
	Owners []string

	// Registry is the session registry shared with Manager. Required.
	Registry *terminal.Registry

	// Manager runs terminal sessions. Nil disables the ssh app.
	Manager *terminal.Manager

	// Transport sends replies. Required.
	Transport terminal.Transport

	// Identity seeds new sessions. If nil, terminal.HostIdentity is
	// used.
	Identity func() terminal.Identity

	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Router classifies inbound messages as terminal input or bot commands.
type Router struct {
	name      string
	prefix    string
	silent    bool
	owners    map[terminal.UserID]struct{}
	registry  *terminal.Registry
	manager   *terminal.Manager
	transport terminal.Transport
	identity  func() terminal.Identity
	logger    *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(config RouterConfig) (*Router, error) {
	if config.Prefix == "" {
		return nil, errors.New("relay: Prefix is required")
	}
	if len(config.Owners) == 0 {
		return nil, errors.New("relay: at least one owner is required")
	}
	if config.Registry == nil {
		return nil, errors.New("relay: Registry is required")
	}
	if config.Transport == nil {
		return nil, errors.New("relay: Transport is required")
	}
	if config.Identity == nil {
		config.Identity = terminal.HostIdentity
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	owners := make(map[terminal.UserID]struct{}, len(config.Owners))
	for _, owner := range config.Owners {
		owners[terminal.UserID(owner)] = struct{}{}
	}

	return &Router{
		name:      config.Name,
		prefix:    config.Prefix,
		silent:    config.Silent,
		owners:    owners,
		registry:  config.Registry,
		manager:   config.Manager,
		transport: config.Transport,
		identity:  config.Identity,
		logger:    config.Logger,
	}, nil
}

// IsOwner reports whether user may drive the relay.
func (r *Router) IsOwner(user terminal.UserID) bool {
	_, ok := r.owners[user]
	return ok
}

// Dispatch handles one inbound message. Messages from non-owners are
// ignored. Unprefixed messages go to the terminal session manager;
// prefixed ones are bot commands.
func (r *Router) Dispatch(ctx context.Context, message terminal.Message) {
	if !r.IsOwner(message.Sender) {
		return
	}

	if !strings.HasPrefix(message.Text, r.prefix) {
		r.HandleTerminalInput(ctx, message)
		return
	}

	fields := strings.Fields(message.Text[len(r.prefix):])
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	arguments := fields[1:]

	switch {
	case command == "start" && len(arguments) > 0:
		app := strings.ToLower(arguments[0])
		if !r.hasApp(app) {
			r.reply(ctx, message, fmt.Sprintf("❌ Unknown app: %s", app))
			return
		}
		r.StartTerminalSession(ctx, message)

	case command == "stop" && len(arguments) > 0:
		app := strings.ToLower(arguments[0])
		if !r.hasApp(app) {
			r.reply(ctx, message, fmt.Sprintf("❌ Unknown app: %s", app))
			return
		}
		r.manager.EndSession(ctx, message.Sender)
		r.reply(ctx, message, fmt.Sprintf("✅ Stopped %s app!", app))

	case command == "help":
		r.reply(ctx, message, r.helpText())

	default:
		r.logger.Debug("ignoring unknown command",
			"user_id", message.Sender,
			"command", command,
		)
	}
}

// HandleTerminalInput offers message to the session manager and
// reports whether it was consumed as terminal input.
func (r *Router) HandleTerminalInput(ctx context.Context, message terminal.Message) bool {
	if r.manager == nil {
		return false
	}
	return r.manager.HandleInput(ctx, message)
}

// StartTerminalSession starts a session for the sender of trigger in
// its channel. The trigger is marked suppressed first so it is never
// read back as input. A failure is reported in the channel.
func (r *Router) StartTerminalSession(ctx context.Context, trigger terminal.Message) bool {
	if r.manager == nil {
		return false
	}
	r.registry.MarkSuppressed(trigger.ID)

	_, err := r.manager.StartSession(ctx, trigger.Sender, trigger.Channel, trigger.ID, r.identity())
	if err != nil {
		r.logger.Error("failed to start terminal session",
			"user_id", trigger.Sender,
			"error", err,
		)
		r.send(ctx, trigger.Channel, fmt.Sprintf("❌ Failed to start terminal session: %v", err), "")
		return false
	}
	return true
}

func (r *Router) hasApp(app string) bool {
	return app == terminalApp && r.manager != nil
}

func (r *Router) helpText() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "**%s Commands:**\n", r.name)
	fmt.Fprintf(&builder, "`%sstart <app>` - Start an app\n", r.prefix)
	fmt.Fprintf(&builder, "`%sstop <app>` - Stop an app\n", r.prefix)
	fmt.Fprintf(&builder, "`%shelp` - Show this help\n\n", r.prefix)
	builder.WriteString("**Available apps:**\n")
	if r.manager != nil {
		fmt.Fprintf(&builder, "- %s\n", terminalApp)
		fmt.Fprintf(&builder, "\n**SSH Terminal:** After starting with `%sstart %s`, type commands without prefix", r.prefix, terminalApp)
	} else {
		builder.WriteString("- none\n")
	}
	return builder.String()
}

// reply answers a command, or deletes it in silent mode.
func (r *Router) reply(ctx context.Context, message terminal.Message, text string) {
	if r.silent {
		if err := r.transport.Delete(ctx, message.Channel, message.ID); err != nil {
			r.logger.Warn("deleting command message failed",
				"message_id", message.ID,
				"error", err,
			)
		}
		return
	}
	r.send(ctx, message.Channel, text, message.ID)
}

// send posts text and suppresses the sent message, since the relay's
// own messages come back from the same account.
func (r *Router) send(ctx context.Context, channel terminal.ChannelID, text string, replyTo terminal.MessageID) {
	sent, err := r.transport.Send(ctx, channel, text, replyTo)
	if err != nil {
		r.logger.Error("sending reply failed",
			"channel", channel,
			"error", err,
		)
		return
	}
	r.registry.MarkSuppressed(sent)
}
