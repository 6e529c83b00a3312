// Package store holds the client-side chat cache. ChatState is the
// single owner of rooms, per-room message lists, presence and read-mark
// watermarks; every mutation path (poll, push, send confirmation, user
// action) funnels through its merge methods, so the resulting state does
// not depend on arrival order.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
)

type presenceEntry struct {
	presence models.Presence
	eventAt  time.Time
}

// ChatState is safe for concurrent use.
type ChatState struct {
	mu         sync.RWMutex
	rooms      map[int64]models.Room
	messages   map[int64][]models.Message
	presence   map[int64]presenceEntry
	contacts   map[int64]models.Colleague
	watermarks map[int64]int64
}

func NewChatState() *ChatState {
	return &ChatState{
		rooms:      make(map[int64]models.Room),
		messages:   make(map[int64][]models.Message),
		presence:   make(map[int64]presenceEntry),
		contacts:   make(map[int64]models.Colleague),
		watermarks: make(map[int64]int64),
	}
}

// SetRooms replaces the room directory with a server snapshot. Message
// lists of rooms no longer present are dropped with them.
func (s *ChatState) SetRooms(rooms []models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int64]models.Room, len(rooms))
	for _, r := range rooms {
		next[r.ID] = r
	}
	for id := range s.rooms {
		if _, ok := next[id]; !ok {
			delete(s.messages, id)
			delete(s.watermarks, id)
		}
	}
	s.rooms = next
}

func (s *ChatState) UpsertRoom(room models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

// RemoveRoom tombstones a room client-side: the room, its messages and
// its watermark become unreachable.
func (s *ChatState) RemoveRoom(roomID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	delete(s.messages, roomID)
	delete(s.watermarks, roomID)
}

func (s *ChatState) Room(roomID int64) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	return r, ok
}

// Rooms returns all cached rooms ordered by ID.
func (s *ChatState) Rooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindDirectRoom returns the direct room with exactly the member pair
// {a, b}, if one is cached.
func (s *ChatState) FindDirectRoom(a, b int64) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.IsDirectBetween(a, b) {
			return r, true
		}
	}
	return models.Room{}, false
}

// FindRoomByCenterKey returns the room of the given kind holding
// centerKey. Center rooms are unique per key; supervisor-broadcast rooms
// are unique per -ownerID sentinel.
func (s *ChatState) FindRoomByCenterKey(kind models.RoomKind, centerKey int64) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.Kind == kind && r.CenterKey == centerKey {
			return r, true
		}
	}
	return models.Room{}, false
}

// AppendPending inserts an optimistic, not yet confirmed message at the
// tail of its room's list.
func (s *ChatState) AppendPending(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], msg)
}

// RemovePending drops the pending message identified by clientID,
// reporting whether it was present. Used to roll back a failed send.
func (s *ChatState) RemovePending(roomID int64, clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[roomID]
	for i := range list {
		if list[i].Pending() && list[i].ClientID == clientID {
			s.messages[roomID] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// MergeMessages folds a set of messages into a room's ordered list. The
// merge is idempotent and commutative with respect to message identity:
// a message already present is discarded, except that its ReadBy entries
// are unioned into the kept copy, and a server-confirmed message replaces
// the matching pending placeholder in place. The list is re-sorted by
// (CreatedAt, ID) afterwards. Returns the number of messages that were
// not previously present.
func (s *ChatState) MergeMessages(roomID int64, incoming []models.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[roomID]
	added := 0

	for _, in := range incoming {
		in.RoomID = roomID
		idx := -1
		for i := range list {
			if list[i].SameIdentity(&in) {
				idx = i
				break
			}
		}
		if idx == -1 {
			list = append(list, in)
			added++
			continue
		}
		if list[idx].Pending() && !in.Pending() {
			// Server confirmation of an optimistic send: the
			// placeholder is discarded, its receipts carried over.
			merged := in
			merged.ReadBy = unionReceipts(in.ReadBy, list[idx].ReadBy)
			merged.ClientID = list[idx].ClientID
			list[idx] = merged
			continue
		}
		list[idx].ReadBy = unionReceipts(list[idx].ReadBy, in.ReadBy)
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Before(&list[j]) })
	s.messages[roomID] = list
	return added
}

// Messages returns a copy of a room's ordered message list.
func (s *ChatState) Messages(roomID int64) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.messages[roomID]
	out := make([]models.Message, len(list))
	copy(out, list)
	return out
}

// AddReadReceipts records that userID has read the given messages,
// keeping at most one receipt per user per message.
func (s *ChatState) AddReadReceipts(roomID int64, messageIDs []int64, userID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[int64]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = struct{}{}
	}

	list := s.messages[roomID]
	for i := range list {
		if _, ok := ids[list[i].ID]; !ok {
			continue
		}
		if !list[i].ReadByUser(userID) {
			list[i].ReadBy = append(list[i].ReadBy, models.ReadReceipt{UserID: userID, ReadAt: at})
		}
	}
}

func unionReceipts(kept, extra []models.ReadReceipt) []models.ReadReceipt {
	out := kept
	for _, r := range extra {
		seen := false
		for _, k := range out {
			if k.UserID == r.UserID {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, r)
		}
	}
	return out
}

// UpsertPresence applies a presence observation stamped with its event
// time. The merge is monotonic: an observation older than the one held
// is ignored, so out-of-order delivery converges to the newest event.
// An online transition clears LastSeen. Reports whether the observation
// was applied.
func (s *ChatState) UpsertPresence(userID int64, online bool, lastSeen *time.Time, eventAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.presence[userID]; ok && eventAt.Before(held.eventAt) {
		return false
	}

	p := models.Presence{Online: online}
	if !online {
		if lastSeen != nil {
			p.LastSeen = lastSeen
		} else {
			t := eventAt
			p.LastSeen = &t
		}
	}
	s.presence[userID] = presenceEntry{presence: p, eventAt: eventAt}
	return true
}

// PresenceOf returns the held presence for userID, defaulting to offline
// with no last-seen when the user was never observed.
func (s *ChatState) PresenceOf(userID int64) models.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.presence[userID]; ok {
		return e.presence
	}
	return models.Presence{}
}

// SetContacts caches contact listings for room labels and membership
// lookups.
func (s *ChatState) SetContacts(contacts []models.Colleague) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range contacts {
		s.contacts[c.UserID] = c
	}
}

func (s *ChatState) Contact(userID int64) (models.Colleague, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[userID]
	return c, ok
}

// Watermark returns the highest message ID already submitted for
// read-marking in the room.
func (s *ChatState) Watermark(roomID int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermarks[roomID]
}

// AdvanceWatermark raises the room's read-mark watermark; it never moves
// backwards.
func (s *ChatState) AdvanceWatermark(roomID, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if messageID > s.watermarks[roomID] {
		s.watermarks[roomID] = messageID
	}
}
