// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/picord/picord/lib/clock"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Registry holds the sessions. Required.
	Registry *Registry

	// Executor runs command lines. Required.
	Executor *Executor

	// Transport sends, edits and deletes messages. Required.
	Transport Transport

	// Clock stamps Session.CreatedAt. If nil, clock.Real() is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Manager runs the per-user session lifecycle. Each user's operations
// are serialized by a per-user lock held across execute and render, so
// a user's commands complete strictly in arrival order and an
// EndSession waits for the command in flight.
type Manager struct {
	registry  *Registry
	executor  *Executor
	transport Transport
	renderer  *Renderer
	clock     clock.Clock
	logger    *slog.Logger

	locksMutex sync.Mutex
	// locks is never pruned; it grows with the number of distinct
	// users who have started a session.
	locks map[UserID]*sync.Mutex
}

// NewManager creates a Manager.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Registry == nil {
		return nil, errors.New("terminal: Registry is required")
	}
	if config.Executor == nil {
		return nil, errors.New("terminal: Executor is required")
	}
	if config.Transport == nil {
		return nil, errors.New("terminal: Transport is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Manager{
		registry:  config.Registry,
		executor:  config.Executor,
		transport: config.Transport,
		renderer:  NewRenderer(config.Transport, config.Registry, config.Logger),
		clock:     config.Clock,
		logger:    config.Logger,
		locks:     make(map[UserID]*sync.Mutex),
	}, nil
}

// Registry returns the registry the Manager was built with.
func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) lockUser(user UserID) func() {
	m.locksMutex.Lock()
	lock, ok := m.locks[user]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[user] = lock
	}
	m.locksMutex.Unlock()

	lock.Lock()
	return lock.Unlock
}

// StartSession starts a session for user in channel, ending any
// session the user already has. The intro message is sent as a reply
// to replyTo (when non-empty) and becomes the terminal message. If it
// cannot be sent no session is registered and the error is returned.
func (m *Manager) StartSession(ctx context.Context, user UserID, channel ChannelID, replyTo MessageID, identity Identity) (*Session, error) {
	unlock := m.lockUser(user)
	defer unlock()

	m.endSessionLocked(ctx, user)

	session := &Session{
		UserID:    user,
		Username:  identity.Username,
		Hostname:  identity.Hostname,
		Home:      identity.Home,
		CWD:       firstNonEmpty(identity.WorkingDirectory, identity.Home, "/"),
		Channel:   channel,
		CreatedAt: m.clock.Now(),
	}

	intro, err := m.transport.Send(ctx, channel, introText(session.Prompt()), replyTo)
	if err != nil {
		return nil, fmt.Errorf("terminal: sending intro message: %w", err)
	}
	m.registry.MarkSuppressed(intro)
	session.TerminalMessage = intro

	m.registry.Create(session)
	m.logger.Info("terminal session started",
		"user_id", user,
		"channel", channel,
		"cwd", session.CWD,
	)
	return session, nil
}

// HandleInput treats message as a command line if its sender has an
// active session. It returns false only when there is no session, in
// which case the caller routes the message elsewhere. Suppressed
// messages are consumed without effect. Execution and rendering
// failures are logged; the message still counts as handled.
func (m *Manager) HandleInput(ctx context.Context, message Message) bool {
	if _, ok := m.registry.Get(message.Sender); !ok {
		return false
	}
	if m.registry.IsSuppressed(message.ID) {
		m.logger.Debug("skipping suppressed message",
			"user_id", message.Sender,
			"message_id", message.ID,
		)
		return true
	}

	unlock := m.lockUser(message.Sender)
	defer unlock()

	// The session may have ended or been replaced while this message
	// waited for the lock.
	session, ok := m.registry.Get(message.Sender)
	if !ok {
		m.logger.Info("session ended before command ran",
			"user_id", message.Sender,
			"message_id", message.ID,
		)
		return true
	}

	echo := session.Prompt() + message.Text
	result := m.executor.Execute(ctx, message.Text, session)

	if current, ok := m.registry.Get(message.Sender); !ok || current != session {
		m.logger.Warn("discarding result for a session that is no longer active",
			"user_id", message.Sender,
			"outcome", result.Outcome,
		)
		return true
	}

	if result.Outcome == OutcomeExit {
		m.endSessionLocked(ctx, message.Sender)
		return true
	}

	if result.Directory != "" {
		session.CWD = result.Directory
	}

	m.logger.Debug("command executed",
		"user_id", message.Sender,
		"outcome", result.Outcome,
		"exit_code", result.ExitCode,
		"cwd", session.CWD,
	)

	m.renderer.Render(ctx, session, terminalText(echo, result.Output, session.Prompt()))

	first := m.registry.MarkFirstCommand(message.Sender)
	if !first && !isExitCommand(message.Text) {
		if err := m.transport.Delete(ctx, message.Channel, message.ID); err != nil {
			m.logger.Warn("deleting command message failed",
				"user_id", message.Sender,
				"message_id", message.ID,
				"error", err,
			)
		}
	}
	return true
}

// EndSession ends user's session, if any, after the command in flight
// completes. The terminal message is rewritten to the ended banner on
// a best-effort basis.
func (m *Manager) EndSession(ctx context.Context, user UserID) {
	unlock := m.lockUser(user)
	defer unlock()
	m.endSessionLocked(ctx, user)
}

func (m *Manager) endSessionLocked(ctx context.Context, user UserID) {
	session, ok := m.registry.Get(user)
	if !ok {
		return
	}

	if err := m.transport.Edit(ctx, session.Channel, session.TerminalMessage, endedBanner); err != nil {
		m.logger.Debug("rewriting terminal message to ended banner failed",
			"user_id", user,
			"error", err,
		)
	}

	m.registry.Remove(user)
	m.logger.Info("terminal session ended",
		"user_id", user,
		"duration", m.clock.Now().Sub(session.CreatedAt),
	)
}
