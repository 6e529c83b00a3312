package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/api"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/apierr"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/store"
)

// RoomService is the room directory: it creates, deduplicates, lists and
// deletes the three room kinds on behalf of the session actor.
type RoomService struct {
	api   api.Transport
	state *store.ChatState
	actor models.Actor
	log   zerolog.Logger
}

func NewRoomService(transport api.Transport, state *store.ChatState, actor models.Actor, log zerolog.Logger) *RoomService {
	return &RoomService{api: transport, state: state, actor: actor, log: log}
}

// ListRooms refreshes the directory from the server and returns the
// rooms the actor belongs to, with display names filled in. On a network
// failure the cached directory is returned unchanged.
func (s *RoomService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.api.ListRooms(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("room list refresh failed, serving cache")
		return s.annotate(s.state.Rooms()), err
	}
	s.state.SetRooms(rooms)
	return s.annotate(s.state.Rooms()), nil
}

// CreateDirectRoom creates the direct room between the actor and
// otherUserID. If one already exists it is returned together with a
// ConflictError so the caller can redirect to it.
func (s *RoomService) CreateDirectRoom(ctx context.Context, otherUserID int64) (models.Room, error) {
	// The directory is searched before creating; refresh it best-effort
	// so the search sees rooms created from other sessions.
	if rooms, err := s.api.ListRooms(ctx); err == nil {
		s.state.SetRooms(rooms)
	}

	if existing, ok := s.state.FindDirectRoom(s.actor.ID, otherUserID); ok {
		return existing, &apierr.ConflictError{
			Message: fmt.Sprintf("direct room with user %d already exists", otherUserID),
		}
	}

	room, err := s.api.CreateDirectRoom(ctx, otherUserID)
	if err != nil {
		// The server can catch a duplicate the local search missed, for
		// instance when the refresh above failed on an empty cache.
		// Resolve the existing room so the caller can still redirect.
		if apierr.IsConflict(err) {
			if rooms, lerr := s.api.ListRooms(ctx); lerr == nil {
				s.state.SetRooms(rooms)
			}
			if existing, ok := s.state.FindDirectRoom(s.actor.ID, otherUserID); ok {
				return existing, err
			}
		}
		return models.Room{}, err
	}
	s.state.UpsertRoom(room)
	return room, nil
}

// CreateCenterRoom is idempotent per center key: an existing center room
// is returned as-is.
func (s *RoomService) CreateCenterRoom(ctx context.Context, centerKey int64) (models.Room, error) {
	if existing, ok := s.state.FindRoomByCenterKey(models.CenterRoom, centerKey); ok {
		return existing, nil
	}
	room, err := s.api.CreateCenterRoom(ctx, centerKey)
	if err != nil {
		return models.Room{}, err
	}
	s.state.UpsertRoom(room)
	return room, nil
}

// CreateSupervisorBroadcastRoom is idempotent per actor: each user owns
// at most one broadcast room, identified by the -actorID sentinel key.
func (s *RoomService) CreateSupervisorBroadcastRoom(ctx context.Context) (models.Room, error) {
	key := models.BroadcastCenterKey(s.actor.ID)
	if existing, ok := s.state.FindRoomByCenterKey(models.SupervisorBroadcastRoom, key); ok {
		return existing, nil
	}
	room, err := s.api.CreateSupervisorBroadcastRoom(ctx)
	if err != nil {
		return models.Room{}, err
	}
	s.state.UpsertRoom(room)
	return room, nil
}

// DeleteRoom removes a room. Only elevated roles may delete; the check
// runs locally so an unauthorized attempt never reaches the network.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID int64) error {
	if !s.actor.Role.Elevated() {
		return &apierr.PermissionError{Message: "room deletion requires an elevated role"}
	}
	if err := s.api.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	s.state.RemoveRoom(roomID)
	return nil
}

// RoomTitle resolves the human-readable name for a room: the peer's name
// for direct rooms, the center label for center rooms, an announcements
// label for broadcast rooms.
func (s *RoomService) RoomTitle(room models.Room) string {
	switch room.Kind {
	case models.DirectRoom:
		for _, m := range room.Members {
			if m.UserID == s.actor.ID {
				continue
			}
			if c, ok := s.state.Contact(m.UserID); ok {
				return c.Name
			}
			return fmt.Sprintf("User %d", m.UserID)
		}
		return room.Name
	case models.CenterRoom:
		if room.Name != "" {
			return room.Name
		}
		return fmt.Sprintf("Center %d", room.CenterKey)
	case models.SupervisorBroadcastRoom:
		owner := -room.CenterKey
		if owner == s.actor.ID {
			return "My announcements"
		}
		if c, ok := s.state.Contact(owner); ok {
			return "Announcements: " + c.Name
		}
		return fmt.Sprintf("Announcements: user %d", owner)
	}
	return room.Name
}

func (s *RoomService) annotate(rooms []models.Room) []models.Room {
	for i := range rooms {
		rooms[i].Name = s.RoomTitle(rooms[i])
	}
	return rooms
}
