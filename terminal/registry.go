// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import "sync"

// Registry holds the active sessions and the echo-suppression state.
// One Registry is constructed at startup and shared by the router and
// the Manager. All methods are safe for concurrent use.
type Registry struct {
	mutex            sync.Mutex
	sessions         map[UserID]*Session
	firstCommandSeen map[UserID]struct{}
	suppressed       *suppressionRing
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:         make(map[UserID]*Session),
		firstCommandSeen: make(map[UserID]struct{}),
		suppressed:       newSuppressionRing(SuppressionLimit),
	}
}

// Create installs session for its user and returns the session it
// replaced, if any. The user's first-command state starts fresh.
// Callers end the previous session before replacing it; Create only
// guarantees there is never more than one entry per user.
func (r *Registry) Create(session *Session) (previous *Session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	previous = r.sessions[session.UserID]
	r.sessions[session.UserID] = session
	delete(r.firstCommandSeen, session.UserID)
	return previous
}

// Get returns the active session for user.
func (r *Registry) Get(user UserID) (*Session, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[user]
	return session, ok
}

// Remove deletes the user's session and first-command state.
func (r *Registry) Remove(user UserID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.sessions, user)
	delete(r.firstCommandSeen, user)
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.sessions)
}

// MarkFirstCommand records that user's session has processed a
// command and reports whether this was the first.
func (r *Registry) MarkFirstCommand(user UserID) (first bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, seen := r.firstCommandSeen[user]; seen {
		return false
	}
	r.firstCommandSeen[user] = struct{}{}
	return true
}

// MarkSuppressed records a message that must never be read as
// terminal input. Only the most recent SuppressionLimit IDs are kept.
func (r *Registry) MarkSuppressed(id MessageID) {
	if id == "" {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.suppressed.add(id)
}

// IsSuppressed reports whether id was marked and not yet evicted.
func (r *Registry) IsSuppressed(id MessageID) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.suppressed.contains(id)
}
