package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dkeye/voxroom/internal/config"
)

func TestLocalPutWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "media/")
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Put(context.Background(), "voice/r1/a.webm", []byte("opus"), "audio/webm")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "/media/voice/r1/a.webm" {
		t.Fatalf("url = %q", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "voice", "r1", "a.webm"))
	if err != nil || string(got) != "opus" {
		t.Fatalf("file = %q %v", got, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "voice", "r1", ".tmp-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left: %v", leftovers)
	}
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../evil", "..", "", "/etc/passwd"} {
		if _, err := s.Put(context.Background(), key, []byte("x"), ""); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}

type fakeS3 struct {
	mu   sync.Mutex
	puts map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.puts[r.URL.Path] = string(body)
	f.mu.Unlock()
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func newFakeS3(t *testing.T) (*fakeS3, string) {
	t.Helper()
	f := &fakeS3{puts: map[string]string{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func TestS3PutPublicURL(t *testing.T) {
	f, endpoint := newFakeS3(t)
	s, err := NewS3(context.Background(), config.S3Config{
		Bucket:    "voice",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
		PathStyle: true,
		PublicURL: "https://cdn.example.com/voice/",
	})
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Put(context.Background(), "voice/r1/a.webm", []byte("opus"), "audio/webm")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "https://cdn.example.com/voice/voice/r1/a.webm" {
		t.Fatalf("url = %q", url)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts["/voice/voice/r1/a.webm"] != "opus" {
		t.Fatalf("uploads = %v", f.puts)
	}
}

func TestS3PutPresignedURL(t *testing.T) {
	_, endpoint := newFakeS3(t)
	s, err := NewS3(context.Background(), config.S3Config{
		Bucket:    "voice",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
		PathStyle: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Put(context.Background(), "k.webm", []byte("x"), "")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(url, endpoint+"/voice/k.webm?") || !strings.Contains(url, "X-Amz-Signature=") {
		t.Fatalf("url = %q", url)
	}
}
