// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

// Message types and relation types used by the relay.
const (
	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"

	EventTypeMessage = "m.room.message"
	EventTypeMember  = "m.room.member"

	RelTypeReplace = "m.replace"

	FormatHTML = "org.matrix.custom.html"
)

// MessageContent is the content of an m.room.message event.
type MessageContent struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`

	// NewContent carries the replacement content of an edit.
	NewContent *MessageContent `json:"m.new_content,omitempty"`

	RelatesTo *RelatesTo `json:"m.relates_to,omitempty"`
}

// RelatesTo expresses an event relationship. Edits set RelType to
// m.replace; replies set only InReplyTo.
type RelatesTo struct {
	RelType   string     `json:"rel_type,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	InReplyTo *InReplyTo `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to.
type InReplyTo struct {
	EventID string `json:"event_id"`
}

// NewTextMessage creates a plain-text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: MsgTypeText,
		Body:    body,
	}
}

// NewReply returns content as a reply to eventID.
func NewReply(eventID string, content MessageContent) MessageContent {
	content.RelatesTo = &RelatesTo{InReplyTo: &InReplyTo{EventID: eventID}}
	return content
}

// NewEdit wraps content as a replacement for eventID. The outer body
// is the "* "-prefixed fallback shown by clients without edit support.
func NewEdit(eventID string, content MessageContent) MessageContent {
	replacement := content
	replacement.RelatesTo = nil
	replacement.NewContent = nil

	edit := MessageContent{
		MsgType:    content.MsgType,
		Body:       "* " + content.Body,
		NewContent: &replacement,
		RelatesTo: &RelatesTo{
			RelType: RelTypeReplace,
			EventID: eventID,
		},
	}
	if content.FormattedBody != "" {
		edit.Format = content.Format
		edit.FormattedBody = "* " + content.FormattedBody
	}
	return edit
}

// Event is a Matrix event as returned by /sync.
type Event struct {
	EventID        string         `json:"event_id"`
	Type           string         `json:"type"`
	Sender         string         `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	StateKey       *string        `json:"state_key,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// EventUnsigned holds unsigned data attached to events.
type EventUnsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// TextBody returns the body of an m.text or m.notice message.
func (e Event) TextBody() (string, bool) {
	if e.Type != EventTypeMessage {
		return "", false
	}
	msgType, _ := e.Content["msgtype"].(string)
	if msgType != MsgTypeText && msgType != MsgTypeNotice {
		return "", false
	}
	body, ok := e.Content["body"].(string)
	return body, ok
}

// IsEdit reports whether the event replaces an earlier one.
func (e Event) IsEdit() bool {
	if _, ok := e.Content["m.new_content"]; ok {
		return true
	}
	relatesTo, ok := e.Content["m.relates_to"].(map[string]any)
	if !ok {
		return false
	}
	relType, _ := relatesTo["rel_type"].(string)
	return relType == RelTypeReplace
}

// SyncOptions controls a /sync request.
type SyncOptions struct {
	Since      string // next_batch from the previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds
	SetTimeout bool   // send Timeout even when zero
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection holds per-room sync data keyed by room ID.
type RoomsSection struct {
	Join   map[string]JoinedRoom  `json:"join,omitempty"`
	Invite map[string]InvitedRoom `json:"invite,omitempty"`
	Leave  map[string]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom contains sync data for a joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// InvitedRoom contains the stripped state of a pending invite.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom contains sync data for a room the user left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// TimelineSection contains timeline events in order.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events.
type StateSection struct {
	Events []Event `json:"events"`
}

// Inviter returns the sender of the m.room.member invite event for
// userID in the stripped invite state.
func (r InvitedRoom) Inviter(userID string) (string, bool) {
	for _, event := range r.InviteState.Events {
		if event.Type != EventTypeMember || event.StateKey == nil || *event.StateKey != userID {
			continue
		}
		if membership, _ := event.Content["membership"].(string); membership == "invite" {
			return event.Sender, true
		}
	}
	return "", false
}

// SendEventResponse is returned by the send and redact endpoints.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// RedactRequest is the body of a redaction.
type RedactRequest struct {
	Reason string `json:"reason,omitempty"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

// JoinedRoomsResponse is returned by JoinedRooms.
type JoinedRoomsResponse struct {
	JoinedRooms []string `json:"joined_rooms"`
}
