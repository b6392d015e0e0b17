// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/picord/picord/lib/clock"
	"github.com/picord/picord/messaging"
	"github.com/picord/picord/terminal"
)

// clockSkewTolerance is how far a homeserver clock may lag ours before
// fresh commands look like history.
const clockSkewTolerance = 5 * time.Second

// Handler receives messages accepted from the sync stream. *Router is
// the production implementation.
type Handler interface {
	Dispatch(ctx context.Context, message terminal.Message)
}

// Config configures a Relay.
type Config struct {
	// Session is the Matrix session. Required.
	Session messaging.Session

	// Handler receives accepted messages. Required.
	Handler Handler

	// Rooms restricts the relay to these room IDs. Empty means every
	// joined room.
	Rooms []string

	// Owners are the users whose invites are accepted. Required.
	Owners []string

	// State persists the sync position. If nil, every start performs
	// an initial sync.
	State *StateStore

	// SyncTimeout is the /sync long-poll timeout. Default: 30 seconds.
	SyncTimeout time.Duration

	// Clock drives retry backoff and the start-time cutoff. If nil,
	// clock.Real() is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Relay turns the Matrix /sync stream into handler calls.
type Relay struct {
	session     messaging.Session
	handler     Handler
	rooms       map[string]struct{}
	owners      map[string]struct{}
	state       *StateStore
	syncTimeout time.Duration
	filter      string
	clock       clock.Clock
	logger      *slog.Logger

	// startedAt is the local start time in milliseconds. Events stamped
	// more than clockSkewTolerance before it are history and never
	// executed.
	startedAt int64

	dispatcher *dispatcher
}

// New creates a Relay.
func New(config Config) (*Relay, error) {
	if config.Session == nil {
		return nil, errors.New("relay: Session is required")
	}
	if config.Handler == nil {
		return nil, errors.New("relay: Handler is required")
	}
	if len(config.Owners) == 0 {
		return nil, errors.New("relay: at least one owner is required")
	}
	if config.State == nil {
		config.State = NewStateStore("", config.Session.UserID())
	}
	if config.SyncTimeout == 0 {
		config.SyncTimeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	relay := &Relay{
		session:     config.Session,
		handler:     config.Handler,
		rooms:       toSet(config.Rooms),
		owners:      toSet(config.Owners),
		state:       config.State,
		syncTimeout: config.SyncTimeout,
		clock:       config.Clock,
		logger:      config.Logger,
		filter: messaging.SyncFilter{
			Rooms:         config.Rooms,
			TimelineTypes: []string{messaging.EventTypeMessage},
		}.Inline(),
	}
	relay.dispatcher = newDispatcher(relay.handler.Dispatch)
	return relay, nil
}

// Run syncs until ctx is cancelled or the access token is rejected.
// Without a saved position it first performs an initial sync whose
// timeline is treated as history. Handlers still running when the loop
// stops are waited for before Run returns.
func (r *Relay) Run(ctx context.Context) error {
	r.startedAt = r.clock.Now().UnixMilli()
	defer r.dispatcher.close()

	since, err := r.state.Load()
	if err != nil {
		r.logger.Warn("ignoring unreadable sync state", "error", err)
		since = ""
	}

	if since == "" {
		response, err := InitialSync(ctx, r.session, r.filter)
		if err != nil {
			return err
		}
		r.acceptInvites(ctx, response.Rooms.Invite)
		since = response.NextBatch
		r.saveState(since)
		r.logger.Info("initial sync complete", "rooms", len(response.Rooms.Join))
	} else {
		r.logger.Info("resuming sync", "since", since)
	}

	return RunSyncLoop(ctx, r.session, SyncConfig{
		Filter:  r.filter,
		Timeout: int(r.syncTimeout / time.Millisecond),
	}, since, r.handleSync, r.clock, r.logger)
}

func (r *Relay) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	r.acceptInvites(ctx, response.Rooms.Invite)

	for _, roomID := range sortedKeys(response.Rooms.Join) {
		if !r.watching(roomID) {
			continue
		}
		for _, event := range response.Rooms.Join[roomID].Timeline.Events {
			message, ok := r.accept(roomID, event)
			if !ok {
				continue
			}
			r.dispatcher.submit(ctx, message)
		}
	}

	r.saveState(response.NextBatch)
}

// accept converts a timeline event into a message, or reports false
// for events the relay does not act on.
func (r *Relay) accept(roomID string, event messaging.Event) (terminal.Message, bool) {
	body, ok := event.TextBody()
	if !ok || event.IsEdit() {
		return terminal.Message{}, false
	}
	// Events carrying a transaction ID were sent by this access token.
	if event.Unsigned != nil && event.Unsigned.TransactionID != "" {
		return terminal.Message{}, false
	}
	if event.OriginServerTS < r.startedAt-clockSkewTolerance.Milliseconds() {
		r.logger.Debug("skipping event older than start",
			"room_id", roomID,
			"event_id", event.EventID,
		)
		return terminal.Message{}, false
	}
	return terminal.Message{
		ID:      terminal.MessageID(event.EventID),
		Sender:  terminal.UserID(event.Sender),
		Channel: terminal.ChannelID(roomID),
		Text:    body,
	}, true
}

func (r *Relay) watching(roomID string) bool {
	if len(r.rooms) == 0 {
		return true
	}
	_, ok := r.rooms[roomID]
	return ok
}

func (r *Relay) acceptInvites(ctx context.Context, invites map[string]messaging.InvitedRoom) {
	if len(invites) == 0 {
		return
	}
	AcceptInvites(ctx, r.session, invites, func(inviter string) bool {
		_, ok := r.owners[inviter]
		return ok
	}, r.logger)
}

func (r *Relay) saveState(nextBatch string) {
	if err := r.state.Save(nextBatch, r.clock.Now()); err != nil {
		r.logger.Warn("saving sync state failed", "error", err)
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

