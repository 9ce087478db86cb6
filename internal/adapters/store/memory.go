package store

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore keeps messages in process memory. Everything is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[domain.UserID]string
	messages map[domain.RoomID][]domain.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[domain.UserID]string),
		messages: make(map[domain.RoomID][]domain.Message),
	}
}

func (s *MemoryStore) UpsertUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u.Username
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, req core.AppendRequest) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.users[req.SenderID]
	if name == "" {
		name = req.SenderName
	}
	if name == "" {
		name = string(req.SenderID)
	}
	created := req.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	msg := domain.Message{
		ID:              uuid.NewString(),
		RoomID:          req.RoomID,
		SenderID:        req.SenderID,
		SenderName:      name,
		Type:            req.Type,
		Content:         req.Content,
		ClientMessageID: req.ClientMessageID,
		CreatedAt:       created,
	}
	if req.Voice != nil {
		v := *req.Voice
		msg.Voice = &v
	}
	s.messages[req.RoomID] = append(s.messages[req.RoomID], msg)
	return &msg, nil
}

func (s *MemoryStore) History(_ context.Context, q core.HistoryQuery) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := clampLimit(q.Limit)
	all := s.messages[q.RoomID]
	out := make([]domain.Message, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if q.Type != "" && all[i].Type != q.Type {
			continue
		}
		out = append(out, all[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
