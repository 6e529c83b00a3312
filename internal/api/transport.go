package api

import (
	"context"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
)

// Transport is the REST contract the chat core consumes. The concrete
// collaborator lives outside this subsystem; tests substitute a mock.
type Transport interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListMessages(ctx context.Context, roomID int64) ([]models.Message, error)
	SendMessage(ctx context.Context, roomID int64, clientID, body string) (models.Message, error)
	MarkRead(ctx context.Context, roomID int64, messageIDs []int64) error

	CreateDirectRoom(ctx context.Context, otherUserID int64) (models.Room, error)
	CreateCenterRoom(ctx context.Context, centerKey int64) (models.Room, error)
	CreateSupervisorBroadcastRoom(ctx context.Context) (models.Room, error)
	DeleteRoom(ctx context.Context, roomID int64) error

	ListColleagues(ctx context.Context) ([]models.Colleague, error)
	ListSupervisors(ctx context.Context) ([]models.Colleague, error)
}
