package models

import "time"

// Message is one chat message as held in the client cache. A message the
// local actor has sent but the server has not yet acknowledged carries
// ID == 0 and a non-empty ClientID; the server copy later observed by a
// fetch replaces it in place (matched by ClientID).
type Message struct {
	ID int64 `json:"id"`

	// ClientID is a locally generated UUID used to reconcile the
	// optimistic pending copy with the server-confirmed one.
	ClientID string `json:"client_id,omitempty"`

	RoomID    int64     `json:"room_id"`
	SenderID  int64     `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`

	// ReadBy holds at most one entry per user.
	ReadBy []ReadReceipt `json:"read_by,omitempty"`
}

type ReadReceipt struct {
	UserID int64     `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// Pending reports whether the message is still awaiting server
// confirmation.
func (m *Message) Pending() bool {
	return m.ID == 0
}

// ReadByUser reports whether userID has a read receipt on the message.
func (m *Message) ReadByUser(userID int64) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Before defines the total order of messages within a room:
// (CreatedAt, ID) ascending, lower ID first on a timestamp tie. Pending
// messages (ID 0) sort by ClientID among themselves so the order stays
// deterministic.
func (m *Message) Before(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	if m.ID != other.ID {
		return m.ID < other.ID
	}
	return m.ClientID < other.ClientID
}

// SameIdentity reports whether two message records refer to the same
// logical message: equal server IDs, or a pending copy matched to its
// confirmation by ClientID.
func (m *Message) SameIdentity(other *Message) bool {
	if m.ID != 0 && m.ID == other.ID {
		return true
	}
	return m.ClientID != "" && m.ClientID == other.ClientID
}
