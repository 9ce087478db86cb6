package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Store.Driver != "sqlite" || cfg.Blob.Driver != "none" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.WebSocket.PingPeriod != 54*time.Second || cfg.Relay.PersistTimeout != 5*time.Second {
		t.Fatalf("durations = %v %v", cfg.WebSocket.PingPeriod, cfg.Relay.PersistTimeout)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
relay:
  policy: disconnect
  persist_timeout: 250ms
store:
  driver: memory
`)
	t.Setenv("VOXROOM_REDIS_ENABLED", "true")
	t.Setenv("VOXROOM_SERVER_MODE", "debug")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Mode != "debug" {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Relay.Policy != "disconnect" || cfg.Relay.PersistTimeout != 250*time.Millisecond {
		t.Fatalf("relay = %+v", cfg.Relay)
	}
	if !cfg.Redis.Enabled {
		t.Fatal("env override for redis.enabled ignored")
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("store = %+v", cfg.Store)
	}
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"store driver", "store:\n  driver: mongo\n"},
		{"blob driver", "blob:\n  driver: ftp\n"},
		{"s3 without bucket", "blob:\n  driver: s3\n"},
		{"pong before ping", "websocket:\n  ping_period: 60s\n  pong_wait: 30s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
