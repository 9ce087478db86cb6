package core

//go:generate mockgen -source=store_iface.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"
	"time"

	"github.com/dkeye/voxroom/internal/domain"
)

// AppendRequest is everything the relay knows about a message before it is stored.
type AppendRequest struct {
	RoomID          domain.RoomID
	SenderID        domain.UserID
	SenderName      string
	Type            domain.MessageType
	Content         string
	Voice           *domain.VoicePayload
	ClientMessageID string
	CreatedAt       time.Time
}

type HistoryQuery struct {
	RoomID domain.RoomID
	// Type filters by message type; empty means all types.
	Type  domain.MessageType
	Limit int
}

// MessageStore is the durable message log. Append must return a message
// with a store-assigned id and a resolved sender display name.
type MessageStore interface {
	Append(ctx context.Context, req AppendRequest) (*domain.Message, error)
	// History returns the newest Limit messages of a room, oldest first.
	History(ctx context.Context, q HistoryQuery) ([]domain.Message, error)
}

// UserDirectory keeps display names so stores can resolve senders.
type UserDirectory interface {
	UpsertUser(ctx context.Context, u domain.User) error
}

// BlobStore holds raw voice recordings and returns a URL clients can fetch.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// PresenceMirror publishes presence for consumers outside this process.
// It is write-only; nothing local reads it back.
type PresenceMirror interface {
	SetOnline(ctx context.Context, u domain.User) error
	SetOffline(ctx context.Context, id domain.UserID) error
	SetRoster(ctx context.Context, room domain.RoomID, users []domain.UserID) error
}

type NopMirror struct{}

func (NopMirror) SetOnline(context.Context, domain.User) error { return nil }
func (NopMirror) SetOffline(context.Context, domain.UserID) error { return nil }
func (NopMirror) SetRoster(context.Context, domain.RoomID, []domain.UserID) error {
	return nil
}
