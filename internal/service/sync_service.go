package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/api"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/store"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/validation"
)

// SyncService owns the ordered message list per room. Every refresh path
// (poll tick, push nudge, send confirmation, post-markRead absorb) lands
// in ChatState.MergeMessages, so concurrent triggers cannot diverge the
// cache.
type SyncService struct {
	api      api.Transport
	state    *store.ChatState
	actor    models.Actor
	interval time.Duration
	log      zerolog.Logger

	// onMerge, when set, runs after every successful merge. The receipt
	// coordinator and the UI hang off it.
	onMerge func(roomID int64, added int)

	mu     sync.Mutex
	active int64
	cancel context.CancelFunc
}

func NewSyncService(transport api.Transport, state *store.ChatState, actor models.Actor, interval time.Duration, log zerolog.Logger) *SyncService {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &SyncService{api: transport, state: state, actor: actor, interval: interval, log: log}
}

func (s *SyncService) SetOnMerge(fn func(roomID int64, added int)) {
	s.onMerge = fn
}

// Send validates and sends a message. The message appears in the local
// list immediately as a pending entry; on failure the entry is rolled
// back and the error returned, leaving the caller free to retry with the
// same body.
func (s *SyncService) Send(ctx context.Context, roomID int64, body string) (models.Message, error) {
	body, err := validation.MessageBody(body)
	if err != nil {
		return models.Message{}, err
	}

	pending := models.Message{
		ClientID:  uuid.NewString(),
		RoomID:    roomID,
		SenderID:  s.actor.ID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	s.state.AppendPending(pending)

	confirmed, err := s.api.SendMessage(ctx, roomID, pending.ClientID, body)
	if err != nil {
		s.state.RemovePending(roomID, pending.ClientID)
		s.log.Warn().Err(err).Int64("room_id", roomID).Msg("send failed, optimistic entry rolled back")
		return models.Message{}, err
	}

	confirmed.ClientID = pending.ClientID
	s.state.MergeMessages(roomID, []models.Message{confirmed})
	s.notifyMerge(roomID, 0)
	return confirmed, nil
}

// FetchPage retrieves the server's message set for the room and merges
// it into the local list. A failed fetch leaves the last-known-good list
// untouched.
func (s *SyncService) FetchPage(ctx context.Context, roomID int64) error {
	msgs, err := s.api.ListMessages(ctx, roomID)
	if err != nil {
		s.log.Warn().Err(err).Int64("room_id", roomID).Msg("fetch failed, keeping cached messages")
		return err
	}
	added := s.state.MergeMessages(roomID, msgs)
	s.notifyMerge(roomID, added)
	return nil
}

// SetActiveRoom switches polling to roomID: the previous room's poll
// timer is cancelled and the new room gets one immediate fetch followed
// by the fixed-interval cadence. Passing 0 stops polling entirely.
func (s *SyncService) SetActiveRoom(roomID int64) {
	s.mu.Lock()
	if s.active == roomID {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.active = roomID
	var ctx context.Context
	if roomID != 0 {
		ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.mu.Unlock()

	if roomID != 0 {
		go s.pollLoop(ctx, roomID)
	}
}

// ActiveRoom returns the room currently being polled, 0 when none.
func (s *SyncService) ActiveRoom() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// RefreshActive fetches the active room once, outside the poll cadence.
// Used by the push consumer to shorten delivery latency.
func (s *SyncService) RefreshActive(ctx context.Context) {
	roomID := s.ActiveRoom()
	if roomID == 0 {
		return
	}
	_ = s.FetchPage(ctx, roomID)
}

// Close stops any running poll loop.
func (s *SyncService) Close() {
	s.SetActiveRoom(0)
}

func (s *SyncService) pollLoop(ctx context.Context, roomID int64) {
	s.pollFetch(ctx, roomID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollFetch(ctx, roomID)
		}
	}
}

// pollFetch is FetchPage plus the late-result guard: a snapshot that
// lands after the room stopped being active is discarded, not merged.
func (s *SyncService) pollFetch(ctx context.Context, roomID int64) {
	msgs, err := s.api.ListMessages(ctx, roomID)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Int64("room_id", roomID).Msg("poll fetch failed, retrying next tick")
		}
		return
	}
	if s.ActiveRoom() != roomID {
		s.log.Debug().Int64("room_id", roomID).Msg("discarding poll result for inactive room")
		return
	}
	added := s.state.MergeMessages(roomID, msgs)
	s.notifyMerge(roomID, added)
}

func (s *SyncService) notifyMerge(roomID int64, added int) {
	if s.onMerge != nil {
		s.onMerge(roomID, added)
	}
}
