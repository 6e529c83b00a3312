// Package testutil provides builders for chat fixtures shared across
// package tests.
package testutil

import (
	"time"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
)

// BaseTime is a fixed reference instant for deterministic fixtures.
var BaseTime = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// Msg builds a confirmed message in the given room.
func Msg(roomID, id, senderID int64, body string, at time.Time) models.Message {
	if body == "" {
		body = "test message"
	}
	return models.Message{
		ID:        id,
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: at,
	}
}

// PendingMsg builds an optimistic, not yet confirmed message.
func PendingMsg(roomID int64, clientID string, senderID int64, body string, at time.Time) models.Message {
	return models.Message{
		ClientID:  clientID,
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: at,
	}
}

// DirectRoomOf builds a direct room between a and b.
func DirectRoomOf(id, a, b int64) models.Room {
	return models.Room{
		ID:   id,
		Kind: models.DirectRoom,
		Members: []models.RoomMember{
			{UserID: a, Role: models.RoleEmployee},
			{UserID: b, Role: models.RoleEmployee},
		},
	}
}

// CenterRoomOf builds a center room for centerKey.
func CenterRoomOf(id, centerKey int64) models.Room {
	return models.Room{ID: id, Kind: models.CenterRoom, CenterKey: centerKey}
}

// MessageIDs extracts the ID sequence of a message list.
func MessageIDs(list []models.Message) []int64 {
	out := make([]int64, len(list))
	for i, m := range list {
		out[i] = m.ID
	}
	return out
}

// EqualIDs compares two ID sequences element-wise.
func EqualIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
