// Package redis mirrors live presence into Redis for readers outside this
// process (dashboards, other services). Nothing here is read back.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/voxroom/internal/config"
	"github.com/dkeye/voxroom/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

type PresenceMirror struct {
	client *goredis.Client
	prefix string
}

func NewPresenceMirror(ctx context.Context, cfg config.RedisConfig) (*PresenceMirror, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return newPresenceMirror(client, cfg.Prefix), nil
}

func newPresenceMirror(client *goredis.Client, prefix string) *PresenceMirror {
	if prefix == "" {
		prefix = "voxroom"
	}
	return &PresenceMirror{client: client, prefix: prefix}
}

func (m *PresenceMirror) onlineKey() string { return m.prefix + ":online" }
func (m *PresenceMirror) namesKey() string  { return m.prefix + ":names" }
func (m *PresenceMirror) eventsKey() string { return m.prefix + ":events" }
func (m *PresenceMirror) rosterKey(room domain.RoomID) string {
	return fmt.Sprintf("%s:room:%s:users", m.prefix, room)
}

type mirrorEvent struct {
	Type   string          `json:"type"`
	UserID domain.UserID   `json:"userId,omitempty"`
	Status string          `json:"status,omitempty"`
	RoomID domain.RoomID   `json:"roomId,omitempty"`
	Users  []domain.UserID `json:"users,omitempty"`
}

func (m *PresenceMirror) SetOnline(ctx context.Context, u domain.User) error {
	payload, err := json.Marshal(mirrorEvent{Type: domain.EventUserStatusChange, UserID: u.ID, Status: domain.StatusOnline})
	if err != nil {
		return err
	}
	pipe := m.client.TxPipeline()
	pipe.SAdd(ctx, m.onlineKey(), string(u.ID))
	pipe.HSet(ctx, m.namesKey(), string(u.ID), u.Username)
	pipe.Publish(ctx, m.eventsKey(), payload)
	_, err = pipe.Exec(ctx)
	return err
}

func (m *PresenceMirror) SetOffline(ctx context.Context, id domain.UserID) error {
	payload, err := json.Marshal(mirrorEvent{Type: domain.EventUserStatusChange, UserID: id, Status: domain.StatusOffline})
	if err != nil {
		return err
	}
	pipe := m.client.TxPipeline()
	pipe.SRem(ctx, m.onlineKey(), string(id))
	pipe.Publish(ctx, m.eventsKey(), payload)
	_, err = pipe.Exec(ctx)
	return err
}

// SetRoster replaces the stored roster. An empty roster deletes the key.
func (m *PresenceMirror) SetRoster(ctx context.Context, room domain.RoomID, users []domain.UserID) error {
	payload, err := json.Marshal(mirrorEvent{Type: domain.EventRoomUsersUpdate, RoomID: room, Users: users})
	if err != nil {
		return err
	}
	key := m.rosterKey(room)
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(users) > 0 {
		vals := make([]any, len(users))
		for i, u := range users {
			vals[i] = string(u)
		}
		pipe.RPush(ctx, key, vals...)
	}
	pipe.Publish(ctx, m.eventsKey(), payload)
	_, err = pipe.Exec(ctx)
	return err
}

func (m *PresenceMirror) Close() error {
	return m.client.Close()
}
