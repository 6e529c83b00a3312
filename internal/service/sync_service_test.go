package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/apierr"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/store"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/validation"
)

func newSyncService(mock *mockTransport, actorID int64, interval time.Duration) (*SyncService, *store.ChatState) {
	state := store.NewChatState()
	actor := models.Actor{ID: actorID, Role: models.RoleEmployee}
	return NewSyncService(mock, state, actor, interval, zerolog.Nop()), state
}

func TestSendConfirmsOptimisticEntry(t *testing.T) {
	mock := newMockTransport(1)
	svc, state := newSyncService(mock, 1, time.Hour)

	msg, err := svc.Send(context.Background(), 1, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("confirmed message has no server id")
	}

	list := state.Messages(1)
	if len(list) != 1 {
		t.Fatalf("got %d messages, want 1", len(list))
	}
	if list[0].Pending() {
		t.Error("placeholder survived confirmation")
	}
	if list[0].ID != msg.ID || list[0].Body != "hello" {
		t.Errorf("unexpected cached message: %+v", list[0])
	}
}

func TestSendRollbackOnFailure(t *testing.T) {
	mock := newMockTransport(1)
	mock.failSend = &apierr.NetworkError{Op: "sendMessage", Err: errors.New("connection refused")}
	svc, state := newSyncService(mock, 1, time.Hour)

	_, err := svc.Send(context.Background(), 1, "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, m := range state.Messages(1) {
		if m.Body == "hello" && m.SenderID == 1 {
			t.Errorf("rolled-back message still in list: %+v", m)
		}
	}
}

func TestSendRejectsEmptyBody(t *testing.T) {
	mock := newMockTransport(1)
	svc, state := newSyncService(mock, 1, time.Hour)

	if _, err := svc.Send(context.Background(), 1, "   "); !errors.Is(err, validation.ErrEmptyBody) {
		t.Fatalf("got %v, want ErrEmptyBody", err)
	}
	if n := len(state.Messages(1)); n != 0 {
		t.Errorf("list holds %d messages, want 0", n)
	}
	if len(mock.messages[1]) != 0 {
		t.Error("rejected send reached the transport")
	}
}

func TestFetchPageIdempotent(t *testing.T) {
	mock := newMockTransport(1)
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	mock.addMessage(1, 2, "a", at)
	mock.addMessage(1, 2, "b", at.Add(time.Second))

	svc, state := newSyncService(mock, 1, time.Hour)
	ctx := context.Background()

	if err := svc.FetchPage(ctx, 1); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := svc.FetchPage(ctx, 1); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	list := state.Messages(1)
	if len(list) != 2 {
		t.Fatalf("got %d messages, want 2", len(list))
	}
	if list[0].Body != "a" || list[1].Body != "b" {
		t.Errorf("wrong order: %+v", list)
	}
}

func TestFetchPageFailSoft(t *testing.T) {
	mock := newMockTransport(1)
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	mock.addMessage(1, 2, "kept", at)

	svc, state := newSyncService(mock, 1, time.Hour)
	ctx := context.Background()
	if err := svc.FetchPage(ctx, 1); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	mock.failListMessages = &apierr.NetworkError{Op: "listMessages", Err: errors.New("timeout")}
	if err := svc.FetchPage(ctx, 1); err == nil {
		t.Fatal("expected error")
	}
	if got := state.Messages(1); len(got) != 1 || got[0].Body != "kept" {
		t.Errorf("last-known-good state lost: %+v", got)
	}
}

func TestPollingFollowsActiveRoom(t *testing.T) {
	mock := newMockTransport(1)
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	mock.addMessage(1, 2, "one", at)
	mock.addMessage(2, 3, "two", at)

	svc, state := newSyncService(mock, 1, 20*time.Millisecond)
	defer svc.Close()

	svc.SetActiveRoom(1)
	time.Sleep(70 * time.Millisecond)
	if n := mock.listCallCount(); n < 2 {
		t.Fatalf("poller fetched %d times, want immediate fetch plus ticks", n)
	}
	if len(state.Messages(1)) != 1 {
		t.Fatal("active room not synchronized")
	}

	// Switching rooms cancels the old poller and fetches the new room
	// immediately.
	svc.SetActiveRoom(2)
	time.Sleep(50 * time.Millisecond)
	if len(state.Messages(2)) != 1 {
		t.Fatal("newly active room not synchronized")
	}

	svc.SetActiveRoom(0)
	time.Sleep(30 * time.Millisecond)
	quiesced := mock.listCallCount()
	time.Sleep(60 * time.Millisecond)
	if n := mock.listCallCount(); n != quiesced {
		t.Errorf("polling continued after deactivation: %d -> %d", quiesced, n)
	}
}

func TestLatePollResultDiscarded(t *testing.T) {
	mock := newMockTransport(1)
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	mock.addMessage(1, 2, "stale", at)

	svc, state := newSyncService(mock, 1, time.Hour)
	defer svc.Close()

	// The room goes inactive while its fetch is in flight; the result
	// must not be merged.
	mock.onListMessages = func(roomID int64) {
		if roomID == 1 {
			svc.SetActiveRoom(0)
		}
	}
	svc.SetActiveRoom(1)
	time.Sleep(50 * time.Millisecond)

	if n := len(state.Messages(1)); n != 0 {
		t.Errorf("late result was merged: %d messages", n)
	}
}
