// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "encoding/json"

// SyncFilter narrows what /sync returns.
type SyncFilter struct {
	// Rooms restricts room data to these room IDs. Empty means every
	// room. Invites to other rooms are filtered out too.
	Rooms []string

	// TimelineTypes restricts timeline events to these event types.
	// Empty means every type.
	TimelineTypes []string

	// TimelineLimit caps timeline events per room per response. Zero
	// leaves the server default.
	TimelineLimit int
}

// Inline returns the filter as the inline JSON accepted by the
// filter query parameter. Presence, account data and room state are
// always excluded.
func (f SyncFilter) Inline() string {
	timeline := map[string]any{}
	if len(f.TimelineTypes) > 0 {
		timeline["types"] = f.TimelineTypes
	}
	if f.TimelineLimit > 0 {
		timeline["limit"] = f.TimelineLimit
	}

	roomFilter := map[string]any{
		"state":     map[string]any{"types": []string{}},
		"ephemeral": map[string]any{"types": []string{}},
		"timeline":  timeline,
	}
	if len(f.Rooms) > 0 {
		roomFilter["rooms"] = f.Rooms
	}

	top := map[string]any{
		"room":         roomFilter,
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}

	data, _ := json.Marshal(top)
	return string(data)
}
