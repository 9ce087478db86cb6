package redis

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dkeye/voxroom/internal/config"
	"github.com/dkeye/voxroom/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

func TestKeys(t *testing.T) {
	m := newPresenceMirror(goredis.NewClient(&goredis.Options{Addr: "localhost:0"}), "")
	defer m.Close()

	tests := []struct {
		got, want string
	}{
		{m.onlineKey(), "voxroom:online"},
		{m.namesKey(), "voxroom:names"},
		{m.eventsKey(), "voxroom:events"},
		{m.rosterKey("r1"), "voxroom:room:r1:users"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}

func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestNewPresenceMirrorFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewPresenceMirror(ctx, config.RedisConfig{Address: closedAddr(t), OpTimeout: 100 * time.Millisecond})
	if err == nil {
		t.Fatal("expected a connection error")
	}
}

func TestWritesSurfaceErrors(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        closedAddr(t),
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	m := newPresenceMirror(client, "test")
	defer m.Close()

	ctx := context.Background()
	if err := m.SetOnline(ctx, domain.User{ID: "alice", Username: "Alice"}); err == nil {
		t.Error("SetOnline: expected error")
	}
	if err := m.SetOffline(ctx, "alice"); err == nil {
		t.Error("SetOffline: expected error")
	}
	if err := m.SetRoster(ctx, "r1", []domain.UserID{"alice"}); err == nil {
		t.Error("SetRoster: expected error")
	}
}
