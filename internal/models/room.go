package models

import "time"

type RoomKind string

const (
	CenterRoom              RoomKind = "center"
	DirectRoom              RoomKind = "direct"
	SupervisorBroadcastRoom RoomKind = "supervisor_broadcast"
)

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "manager"
	RoleDeveloper  Role = "developer"
)

// Elevated reports whether the role may perform privileged room
// operations (deleting rooms, owning a broadcast room).
func (r Role) Elevated() bool {
	switch r {
	case RoleSupervisor, RoleManager, RoleDeveloper:
		return true
	}
	return false
}

type Room struct {
	ID   int64    `json:"id"`
	Kind RoomKind `json:"kind"`

	// CenterKey identifies the work center for center rooms. For
	// supervisor-broadcast rooms it holds the -ownerUserID sentinel the
	// server contract uses; dispatch is always on Kind, never on sign.
	CenterKey int64 `json:"center_key,omitempty"`

	Name      string       `json:"name"`
	Members   []RoomMember `json:"members"`
	CreatedAt time.Time    `json:"created_at"`
}

type RoomMember struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// HasMember reports whether userID is an explicit member of the room.
// Center rooms resolve membership by center affiliation at read time and
// carry no per-member rows.
func (r *Room) HasMember(userID int64) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsDirectBetween reports whether the room is the direct room for exactly
// the pair {a, b}, in either order.
func (r *Room) IsDirectBetween(a, b int64) bool {
	if r.Kind != DirectRoom || len(r.Members) != 2 {
		return false
	}
	m0, m1 := r.Members[0].UserID, r.Members[1].UserID
	return (m0 == a && m1 == b) || (m0 == b && m1 == a)
}

// BroadcastCenterKey computes the sentinel center key identifying the
// one supervisor-broadcast room owned by ownerID.
func BroadcastCenterKey(ownerID int64) int64 {
	return -ownerID
}
