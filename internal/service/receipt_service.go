package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/api"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/store"
)

// ReceiptService decides which inbound messages the actor has not read,
// debounces the acknowledgment batch, and merges server-confirmed read
// state back through the sync engine.
//
// Auto-flush rules: a batch flushes after a quiet period with no new
// unread messages; the flush waits out any active composing session; the
// per-room watermark of already-submitted ids keeps the push- and
// poll-triggered scans from submitting the same batch twice.
type ReceiptService struct {
	api   api.Transport
	state *store.ChatState
	sync  *SyncService
	actor models.Actor
	log   zerolog.Logger

	debounce    time.Duration
	composeIdle time.Duration

	mu           sync.Mutex
	flushTimers  map[int64]*time.Timer
	pendingRooms map[int64]struct{}
	inFlight     map[int64]struct{}
	observedMax  map[int64]int64
	composing    bool
	composeTimer *time.Timer
}

func NewReceiptService(transport api.Transport, state *store.ChatState, syncSvc *SyncService, actor models.Actor, debounce, composeIdle time.Duration, log zerolog.Logger) *ReceiptService {
	if debounce <= 0 {
		debounce = time.Second
	}
	if composeIdle <= 0 {
		composeIdle = 2 * time.Second
	}
	return &ReceiptService{
		api:          transport,
		state:        state,
		sync:         syncSvc,
		actor:        actor,
		log:          log,
		debounce:     debounce,
		composeIdle:  composeIdle,
		flushTimers:  make(map[int64]*time.Timer),
		pendingRooms: make(map[int64]struct{}),
		inFlight:     make(map[int64]struct{}),
		observedMax:  make(map[int64]int64),
	}
}

// ComputeUnread returns, in room order, the messages not authored by the
// actor and carrying no read receipt of theirs.
func (s *ReceiptService) ComputeUnread(roomID int64) []models.Message {
	var unread []models.Message
	for _, m := range s.state.Messages(roomID) {
		if m.SenderID == s.actor.ID || m.Pending() {
			continue
		}
		if !m.ReadByUser(s.actor.ID) {
			unread = append(unread, m)
		}
	}
	return unread
}

// UnreadCount is ComputeUnread for badge rendering.
func (s *ReceiptService) UnreadCount(roomID int64) int {
	return len(s.ComputeUnread(roomID))
}

// Observe scans a room after a merge. If unread messages beyond the
// submitted watermark exist, the room's debounce window is armed; only
// a new unread arrival before it fires resets the window. Merges that
// bring nothing new (push nudges, refetches) leave a running window
// alone, otherwise a busy merge stream could starve the flush forever.
func (s *ReceiptService) Observe(roomID int64) {
	batch := s.unsubmitted(roomID)
	if len(batch) == 0 {
		return
	}
	var maxID int64
	for _, id := range batch {
		if id > maxID {
			maxID = id
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.flushTimers[roomID]; running && maxID <= s.observedMax[roomID] {
		return
	}
	s.observedMax[roomID] = maxID
	s.pendingRooms[roomID] = struct{}{}
	if t, ok := s.flushTimers[roomID]; ok {
		t.Stop()
	}
	s.flushTimers[roomID] = time.AfterFunc(s.debounce, func() { s.flush(roomID) })
}

// MarkRead acknowledges the given messages for the actor. Idempotent:
// overlapping id sets neither error nor duplicate receipts. On success
// one FetchPage absorbs the server-confirmed read state.
func (s *ReceiptService) MarkRead(ctx context.Context, roomID int64, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := s.api.MarkRead(ctx, roomID, messageIDs); err != nil {
		return err
	}

	s.state.AddReadReceipts(roomID, messageIDs, s.actor.ID, time.Now().UTC())
	for _, id := range messageIDs {
		s.state.AdvanceWatermark(roomID, id)
	}
	if err := s.sync.FetchPage(ctx, roomID); err != nil {
		s.log.Warn().Err(err).Int64("room_id", roomID).Msg("post-markRead refresh failed")
	}
	return nil
}

// SetComposing records keystroke activity. While composing, pending
// receipt batches are held back; the flag clears itself after the idle
// timeout and any held batches flush then.
func (s *ReceiptService) SetComposing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composing = true
	if s.composeTimer != nil {
		s.composeTimer.Stop()
	}
	s.composeTimer = time.AfterFunc(s.composeIdle, s.clearComposing)
}

// Composing reports whether the actor is in an active typing session.
func (s *ReceiptService) Composing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composing
}

// Close stops all timers. Pending batches are abandoned; unread state is
// recomputed from the server on the next session.
func (s *ReceiptService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.flushTimers {
		t.Stop()
	}
	s.flushTimers = make(map[int64]*time.Timer)
	s.pendingRooms = make(map[int64]struct{})
	if s.composeTimer != nil {
		s.composeTimer.Stop()
	}
}

func (s *ReceiptService) clearComposing() {
	s.mu.Lock()
	s.composing = false
	held := make([]int64, 0, len(s.pendingRooms))
	for roomID := range s.pendingRooms {
		held = append(held, roomID)
	}
	s.mu.Unlock()

	for _, roomID := range held {
		go s.flush(roomID)
	}
}

// flush submits the room's accumulated batch. Suppressed while the actor
// is composing (the batch stays pending and flushes when the session
// idles out) and while another flush for the room is in flight.
func (s *ReceiptService) flush(roomID int64) {
	s.mu.Lock()
	if s.composing {
		s.mu.Unlock()
		return
	}
	if _, busy := s.inFlight[roomID]; busy {
		// A concurrent trigger already submitted; check again after one
		// more quiet period.
		if t, ok := s.flushTimers[roomID]; ok {
			t.Stop()
		}
		s.flushTimers[roomID] = time.AfterFunc(s.debounce, func() { s.flush(roomID) })
		s.mu.Unlock()
		return
	}
	delete(s.pendingRooms, roomID)
	delete(s.flushTimers, roomID)

	batch := s.unsubmitted(roomID)
	if len(batch) == 0 {
		s.mu.Unlock()
		return
	}
	s.inFlight[roomID] = struct{}{}
	s.mu.Unlock()

	err := s.MarkRead(context.Background(), roomID, batch)

	s.mu.Lock()
	delete(s.inFlight, roomID)
	s.mu.Unlock()

	if err != nil {
		// Loop-driven path: log and leave the ids below the watermark;
		// the next merge re-observes them.
		s.log.Warn().Err(err).Int64("room_id", roomID).Int("batch", len(batch)).Msg("read receipt flush failed")
	}
}

// unsubmitted returns the unread ids beyond the room's watermark, the
// only ids an automatic flush may submit.
func (s *ReceiptService) unsubmitted(roomID int64) []int64 {
	watermark := s.state.Watermark(roomID)
	var out []int64
	for _, m := range s.ComputeUnread(roomID) {
		if m.ID > watermark {
			out = append(out, m.ID)
		}
	}
	return out
}
