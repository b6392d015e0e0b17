// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"sync"

	"github.com/picord/picord/terminal"
)

// dispatcher runs handle on one goroutine per sender. Messages from one
// sender are handled in submission order; different senders proceed
// independently. Queues are unbounded so the sync loop never blocks on
// a slow command.
type dispatcher struct {
	handle func(context.Context, terminal.Message)

	mu     sync.Mutex
	queues map[terminal.UserID]*senderQueue
	closed bool
	wg     sync.WaitGroup
}

type senderQueue struct {
	pending []terminal.Message
	running bool
}

func newDispatcher(handle func(context.Context, terminal.Message)) *dispatcher {
	return &dispatcher{
		handle: handle,
		queues: make(map[terminal.UserID]*senderQueue),
	}
}

// submit queues message for its sender. Returns false after close.
func (d *dispatcher) submit(ctx context.Context, message terminal.Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	queue, ok := d.queues[message.Sender]
	if !ok {
		queue = &senderQueue{}
		d.queues[message.Sender] = queue
	}
	queue.pending = append(queue.pending, message)
	if !queue.running {
		queue.running = true
		d.wg.Add(1)
		go d.drain(ctx, message.Sender, queue)
	}
	return true
}

// drain handles queued messages until the queue is empty, then exits.
// The queue entry is removed so idle senders hold no goroutine.
func (d *dispatcher) drain(ctx context.Context, sender terminal.UserID, queue *senderQueue) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(queue.pending) == 0 {
			queue.running = false
			delete(d.queues, sender)
			d.mu.Unlock()
			return
		}
		message := queue.pending[0]
		queue.pending = queue.pending[1:]
		d.mu.Unlock()

		if ctx.Err() != nil {
			continue
		}
		d.handle(ctx, message)
	}
}

// close stops accepting messages and waits for running queues to
// drain.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
