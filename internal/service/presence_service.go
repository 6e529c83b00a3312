package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/api"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/store"
)

// PresenceService tracks user_id -> {online, lastSeen}, seeded from
// contact listings and kept current by push events. There is no polling
// fallback for presence.
type PresenceService struct {
	api   api.Transport
	state *store.ChatState
	log   zerolog.Logger
}

func NewPresenceService(transport api.Transport, state *store.ChatState, log zerolog.Logger) *PresenceService {
	return &PresenceService{api: transport, state: state, log: log}
}

// SeedColleagues re-issues the colleague listing and folds each entry's
// presence into the tracker under the monotonic merge rule. Returns the
// listing so callers can render it.
func (s *PresenceService) SeedColleagues(ctx context.Context) ([]models.Colleague, error) {
	colleagues, err := s.api.ListColleagues(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("colleague seed failed, keeping held presence")
		return nil, err
	}
	s.seed(colleagues)
	return colleagues, nil
}

// SeedSupervisors is SeedColleagues for the supervisor listing.
func (s *PresenceService) SeedSupervisors(ctx context.Context) ([]models.Colleague, error) {
	supervisors, err := s.api.ListSupervisors(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("supervisor seed failed, keeping held presence")
		return nil, err
	}
	s.seed(supervisors)
	return supervisors, nil
}

func (s *PresenceService) seed(entries []models.Colleague) {
	s.state.SetContacts(entries)
	now := time.Now().UTC()
	for _, c := range entries {
		// An online snapshot is stamped at query time; an offline one at
		// the server-reported last-seen moment, so a fresher push event
		// that raced the query is never overwritten.
		eventAt := now
		if !c.Presence.Online && c.Presence.LastSeen != nil {
			eventAt = *c.Presence.LastSeen
		}
		s.state.UpsertPresence(c.UserID, c.Presence.Online, c.Presence.LastSeen, eventAt)
	}
}

// ApplyEvent folds one push event into the tracker.
func (s *PresenceService) ApplyEvent(userID int64, online bool, lastSeen *time.Time, eventAt time.Time) {
	applied := s.state.UpsertPresence(userID, online, lastSeen, eventAt)
	if !applied {
		s.log.Debug().Int64("user_id", userID).Msg("ignored stale presence event")
	}
}

// Get returns the held presence for userID; a user never observed is
// offline with no last-seen, never implicitly online.
func (s *PresenceService) Get(userID int64) models.Presence {
	return s.state.PresenceOf(userID)
}
