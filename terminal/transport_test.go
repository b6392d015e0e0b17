// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"context"
	"fmt"
	"sync"
)

type transportCall struct {
	Op      string // "send", "edit", "delete"
	Channel ChannelID
	Message MessageID
	ReplyTo MessageID
	Text    string
}

// fakeTransport records every call and serves scripted failures.
type fakeTransport struct {
	mutex  sync.Mutex
	calls  []transportCall
	nextID int

	sendErr   error
	deleteErr error
	// editHook, when set, runs before an edit is recorded and may
	// block or return an error.
	editHook func(message MessageID, text string) error
}

func (f *fakeTransport) Send(_ context.Context, channel ChannelID, text string, replyTo MessageID) (MessageID, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.nextID++
	id := MessageID(fmt.Sprintf("$sent%d", f.nextID))
	f.calls = append(f.calls, transportCall{Op: "send", Channel: channel, Message: id, ReplyTo: replyTo, Text: text})
	return id, nil
}

func (f *fakeTransport) Edit(_ context.Context, channel ChannelID, message MessageID, text string) error {
	f.mutex.Lock()
	hook := f.editHook
	f.mutex.Unlock()
	if hook != nil {
		if err := hook(message, text); err != nil {
			return err
		}
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, transportCall{Op: "edit", Channel: channel, Message: message, Text: text})
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, channel ChannelID, message MessageID) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.calls = append(f.calls, transportCall{Op: "delete", Channel: channel, Message: message})
	return nil
}

func (f *fakeTransport) setEditHook(hook func(MessageID, string) error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.editHook = hook
}

// callsOf returns the recorded calls with the given op, in order.
func (f *fakeTransport) callsOf(op string) []transportCall {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var matched []transportCall
	for _, call := range f.calls {
		if call.Op == op {
			matched = append(matched, call)
		}
	}
	return matched
}

func (f *fakeTransport) allCalls() []transportCall {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]transportCall(nil), f.calls...)
}

func (f *fakeTransport) lastEdit() (transportCall, bool) {
	edits := f.callsOf("edit")
	if len(edits) == 0 {
		return transportCall{}, false
	}
	return edits[len(edits)-1], true
}
