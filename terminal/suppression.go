// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

// SuppressionLimit is how many suppressed message IDs are remembered.
// Marking one more evicts the oldest.
const SuppressionLimit = 50

// suppressionRing is a fixed-capacity FIFO set of message IDs. The
// slot array gives eviction order; the index map gives O(1) lookup.
// Not safe for concurrent use; Registry serializes access.
type suppressionRing struct {
	slots    []MessageID
	next     int
	count    int
	contents map[MessageID]struct{}
}

func newSuppressionRing(capacity int) *suppressionRing {
	return &suppressionRing{
		slots:    make([]MessageID, capacity),
		contents: make(map[MessageID]struct{}, capacity),
	}
}

// add inserts id, evicting the oldest entry when full. Re-adding a
// present id does not refresh its position.
func (ring *suppressionRing) add(id MessageID) {
	if _, present := ring.contents[id]; present {
		return
	}
	if ring.count == len(ring.slots) {
		delete(ring.contents, ring.slots[ring.next])
	} else {
		ring.count++
	}
	ring.slots[ring.next] = id
	ring.contents[id] = struct{}{}
	ring.next = (ring.next + 1) % len(ring.slots)
}

func (ring *suppressionRing) contains(id MessageID) bool {
	_, present := ring.contents[id]
	return present
}

func (ring *suppressionRing) len() int {
	return ring.count
}
