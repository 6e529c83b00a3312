package service

import (
	"context"
	"sync"
	"time"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
)

// mockTransport is an in-memory stand-in for the REST collaborator.
type mockTransport struct {
	mu          sync.Mutex
	rooms       map[int64]models.Room
	messages    map[int64][]models.Message
	colleagues  []models.Colleague
	supervisors []models.Colleague
	nextRoomID  int64
	nextMsgID   int64

	// actorID is whose receipts MarkRead records.
	actorID int64

	failListRooms     error
	failListRoomsOnce error
	failListMessages  error
	failSend          error
	failMarkRead      error
	failCreateDirect  error

	listMessagesCalls int
	markReadCalls     [][]int64
	onListMessages    func(roomID int64)
}

func newMockTransport(actorID int64) *mockTransport {
	return &mockTransport{
		rooms:      make(map[int64]models.Room),
		messages:   make(map[int64][]models.Message),
		nextRoomID: 1,
		nextMsgID:  1,
		actorID:    actorID,
	}
}

func (m *mockTransport) addRoom(room models.Room) models.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room.ID == 0 {
		room.ID = m.nextRoomID
		m.nextRoomID++
	}
	m.rooms[room.ID] = room
	return room
}

func (m *mockTransport) addMessage(roomID, senderID int64, body string, at time.Time) models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := models.Message{ID: m.nextMsgID, RoomID: roomID, SenderID: senderID, Body: body, CreatedAt: at}
	m.nextMsgID++
	m.messages[roomID] = append(m.messages[roomID], msg)
	return msg
}

func (m *mockTransport) ListRooms(ctx context.Context) ([]models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failListRooms != nil {
		return nil, m.failListRooms
	}
	if m.failListRoomsOnce != nil {
		err := m.failListRoomsOnce
		m.failListRoomsOnce = nil
		return nil, err
	}
	out := make([]models.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockTransport) ListMessages(ctx context.Context, roomID int64) ([]models.Message, error) {
	if m.onListMessages != nil {
		m.onListMessages(roomID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listMessagesCalls++
	if m.failListMessages != nil {
		return nil, m.failListMessages
	}
	out := make([]models.Message, len(m.messages[roomID]))
	copy(out, m.messages[roomID])
	return out, nil
}

func (m *mockTransport) SendMessage(ctx context.Context, roomID int64, clientID, body string) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend != nil {
		return models.Message{}, m.failSend
	}
	msg := models.Message{
		ID:        m.nextMsgID,
		ClientID:  clientID,
		RoomID:    roomID,
		SenderID:  m.actorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	m.nextMsgID++
	m.messages[roomID] = append(m.messages[roomID], msg)
	return msg, nil
}

func (m *mockTransport) MarkRead(ctx context.Context, roomID int64, messageIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkRead != nil {
		return m.failMarkRead
	}
	batch := make([]int64, len(messageIDs))
	copy(batch, messageIDs)
	m.markReadCalls = append(m.markReadCalls, batch)

	ids := make(map[int64]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = struct{}{}
	}
	list := m.messages[roomID]
	for i := range list {
		if _, ok := ids[list[i].ID]; !ok {
			continue
		}
		already := false
		for _, r := range list[i].ReadBy {
			if r.UserID == m.actorID {
				already = true
				break
			}
		}
		if !already {
			list[i].ReadBy = append(list[i].ReadBy, models.ReadReceipt{UserID: m.actorID, ReadAt: time.Now().UTC()})
		}
	}
	return nil
}

func (m *mockTransport) CreateDirectRoom(ctx context.Context, otherUserID int64) (models.Room, error) {
	if m.failCreateDirect != nil {
		return models.Room{}, m.failCreateDirect
	}
	return m.addRoom(models.Room{
		Kind: models.DirectRoom,
		Members: []models.RoomMember{
			{UserID: m.actorID, Role: models.RoleEmployee},
			{UserID: otherUserID, Role: models.RoleEmployee},
		},
	}), nil
}

func (m *mockTransport) CreateCenterRoom(ctx context.Context, centerKey int64) (models.Room, error) {
	return m.addRoom(models.Room{Kind: models.CenterRoom, CenterKey: centerKey}), nil
}

func (m *mockTransport) CreateSupervisorBroadcastRoom(ctx context.Context) (models.Room, error) {
	return m.addRoom(models.Room{
		Kind:      models.SupervisorBroadcastRoom,
		CenterKey: models.BroadcastCenterKey(m.actorID),
		Members:   []models.RoomMember{{UserID: m.actorID, Role: models.RoleSupervisor}},
	}), nil
}

func (m *mockTransport) DeleteRoom(ctx context.Context, roomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	delete(m.messages, roomID)
	return nil
}

func (m *mockTransport) ListColleagues(ctx context.Context) ([]models.Colleague, error) {
	return m.colleagues, nil
}

func (m *mockTransport) ListSupervisors(ctx context.Context) ([]models.Colleague, error) {
	return m.supervisors, nil
}

func (m *mockTransport) markReadCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markReadCalls)
}

func (m *mockTransport) listCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listMessagesCalls
}
