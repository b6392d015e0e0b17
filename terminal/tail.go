// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"sync"
	"unicode/utf8"
)

// tailBuffer is an io.Writer that keeps the last limit bytes written
// and counts the rest. A limit of zero keeps everything. Commands that
// print without bound (yes, tail -f) cost at most limit bytes.
type tailBuffer struct {
	mutex   sync.Mutex
	limit   int
	data    []byte
	dropped int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.data = append(b.data, p...)
	if b.limit > 0 && len(b.data) > b.limit {
		excess := len(b.data) - b.limit
		b.dropped += excess
		// Copy down so the backing array does not grow without bound.
		b.data = append(b.data[:0], b.data[excess:]...)
	}
	return len(p), nil
}

// contents returns the retained text starting on a rune boundary and
// the number of bytes dropped before it.
func (b *tailBuffer) contents() (string, int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	data, dropped := b.data, b.dropped
	if dropped > 0 {
		for len(data) > 0 && !utf8.RuneStart(data[0]) {
			data = data[1:]
			dropped++
		}
	}
	return string(data), dropped
}
