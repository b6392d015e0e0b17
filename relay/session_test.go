// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/picord/picord/messaging"
)

// sessionCall is one recorded write against fakeSession.
type sessionCall struct {
	Op      string // "send", "edit", "redact", "join"
	RoomID  string
	EventID string
	Content messaging.MessageContent
}

type syncReply struct {
	response *messaging.SyncResponse
	err      error
}

// fakeSession implements messaging.Session in memory. Sync requests are
// published on syncRequests and answered from syncReplies, so tests
// drive the sync loop one response at a time.
type fakeSession struct {
	userID string

	mutex  sync.Mutex
	calls  []sessionCall
	nextID int
	// failSends fails this many SendMessage calls before succeeding.
	failSends int
	idleClose int

	syncRequests chan messaging.SyncOptions
	syncReplies  chan syncReply
}

func newFakeSession(userID string) *fakeSession {
	return &fakeSession{
		userID:       userID,
		syncRequests: make(chan messaging.SyncOptions, 16),
		syncReplies:  make(chan syncReply),
	}
}

func (f *fakeSession) UserID() string { return f.userID }

func (f *fakeSession) Close() error { return nil }

func (f *fakeSession) WhoAmI(context.Context) (string, error) { return f.userID, nil }

func (f *fakeSession) CloseIdleConnections() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.idleClose++
}

func (f *fakeSession) SendMessage(_ context.Context, roomID string, content messaging.MessageContent) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return "", &messaging.MatrixError{Code: messaging.ErrCodeForbidden, Message: "not in room", StatusCode: 403}
	}
	f.nextID++
	eventID := fmt.Sprintf("$event%d", f.nextID)
	f.calls = append(f.calls, sessionCall{Op: "send", RoomID: roomID, EventID: eventID, Content: content})
	return eventID, nil
}

func (f *fakeSession) EditMessage(_ context.Context, roomID, eventID string, content messaging.MessageContent) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.nextID++
	f.calls = append(f.calls, sessionCall{Op: "edit", RoomID: roomID, EventID: eventID, Content: content})
	return fmt.Sprintf("$event%d", f.nextID), nil
}

func (f *fakeSession) Redact(_ context.Context, roomID, eventID, _ string) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.nextID++
	f.calls = append(f.calls, sessionCall{Op: "redact", RoomID: roomID, EventID: eventID})
	return fmt.Sprintf("$event%d", f.nextID), nil
}

func (f *fakeSession) JoinRoom(_ context.Context, roomID string) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, sessionCall{Op: "join", RoomID: roomID})
	return roomID, nil
}

func (f *fakeSession) JoinedRooms(context.Context) ([]string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var rooms []string
	for _, call := range f.calls {
		if call.Op == "join" {
			rooms = append(rooms, call.RoomID)
		}
	}
	return rooms, nil
}

func (f *fakeSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	f.syncRequests <- options
	select {
	case reply := <-f.syncReplies:
		return reply.response, reply.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// callsOf returns the recorded calls with the given op, in order.
func (f *fakeSession) callsOf(op string) []sessionCall {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var matched []sessionCall
	for _, call := range f.calls {
		if call.Op == op {
			matched = append(matched, call)
		}
	}
	return matched
}

func (f *fakeSession) idleCloseCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.idleClose
}

var _ messaging.Session = (*fakeSession)(nil)
