package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkeye/voxroom/internal/adapters/store"
	"github.com/dkeye/voxroom/internal/app/orch"
	"github.com/dkeye/voxroom/internal/config"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/dkeye/voxroom/internal/metrics"
	"github.com/gin-gonic/gin"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>voice</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		Server: config.ServerConfig{Mode: "test", StaticPath: static, Secret: "secret"},
		WebSocket: config.WebSocketConfig{
			SendBuffer: 8,
		},
		Blob: config.BlobConfig{PublicPrefix: "/media"},
	}
}

func newTestRouter(t *testing.T, d Deps) (*gin.Engine, *orch.Orchestrator, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := store.NewMemoryStore()
	o := orch.New(orch.Deps{Store: mem, Directory: mem})
	d.Orch = o
	if d.History == nil {
		d.History = mem
	}
	return SetupRouter(context.Background(), testConfig(t), d), o, mem
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRoomsEndpoints(t *testing.T) {
	r, o, _ := newTestRouter(t, Deps{})
	ctx := context.Background()
	for _, p := range []struct{ conn, user, room string }{
		{"c1", "alice", "r1"}, {"c2", "bob", "r1"}, {"c3", "carol", "r2"},
	} {
		o.Connect(core.ConnID(p.conn), nopConn{}, "")
		_ = o.Announce(ctx, core.ConnID(p.conn), p.user, "")
		_ = o.Join(ctx, core.ConnID(p.conn), p.room, "")
	}

	w := get(r, "/api/rooms")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var list struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Rooms) != 2 || list.Rooms[0].ID != "r1" || list.Rooms[0].MemberCount != 2 {
		t.Fatalf("rooms = %+v", list.Rooms)
	}

	w = get(r, "/api/rooms/r1/users")
	var roster struct {
		Users []string `json:"users"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &roster)
	if strings.Join(roster.Users, ",") != "alice,bob" {
		t.Fatalf("users = %v", roster.Users)
	}

	w = get(r, "/api/rooms/empty/users")
	_ = json.Unmarshal(w.Body.Bytes(), &roster)
	if w.Code != http.StatusOK || len(roster.Users) != 0 {
		t.Fatalf("unknown room = %d %s", w.Code, w.Body.String())
	}
}

func TestMessagesEndpoint(t *testing.T) {
	r, _, mem := newTestRouter(t, Deps{})
	ctx := context.Background()
	_, _ = mem.Append(ctx, core.AppendRequest{RoomID: "r1", SenderID: "alice", Type: domain.MessageText, Content: "hi"})
	_, _ = mem.Append(ctx, core.AppendRequest{RoomID: "r1", SenderID: "alice", Type: domain.MessageVoice, Voice: &domain.VoicePayload{DurationMs: 10}})

	tests := []struct {
		path  string
		code  int
		count int
	}{
		{"/api/rooms/r1/messages", http.StatusOK, 2},
		{"/api/rooms/r1/messages?type=voice", http.StatusOK, 1},
		{"/api/rooms/r1/messages?limit=1", http.StatusOK, 1},
		{"/api/rooms/r1/messages?type=gif", http.StatusBadRequest, 0},
		{"/api/rooms/r1/messages?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(r, tt.path)
			if w.Code != tt.code {
				t.Fatalf("status = %d body %s", w.Code, w.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var body struct {
				Messages []domain.Message `json:"messages"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if len(body.Messages) != tt.count {
				t.Fatalf("messages = %d, want %d", len(body.Messages), tt.count)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter(t, Deps{})
	if w := get(r, "/healthz"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthz = %d %s", w.Code, w.Body.String())
	}

	down, _, _ := newTestRouter(t, Deps{Ready: func(context.Context) error { return errors.New("db gone") }})
	if w := get(down, "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded healthz = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.MessageRelayed("voice")
	r, _, _ := newTestRouter(t, Deps{Metrics: m})
	w := get(r, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "voice_chat_messages_sent_total") {
		t.Fatalf("metrics = %d %s", w.Code, w.Body.String())
	}
}

func TestClientTokenCookieAndIndex(t *testing.T) {
	r, _, _ := newTestRouter(t, Deps{})
	w := get(r, "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "voice") {
		t.Fatalf("index = %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "VoiceSessions=") {
		t.Fatalf("no session cookie: %v", w.Header())
	}
}

func TestMediaServedFromBlobDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "voice"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "voice", "a.webm"), []byte("opus"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, _, _ := newTestRouter(t, Deps{MediaDir: dir})
	if w := get(r, "/media/voice/a.webm"); w.Code != http.StatusOK || w.Body.String() != "opus" {
		t.Fatalf("media = %d %q", w.Code, w.Body.String())
	}
}
