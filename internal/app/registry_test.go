package app

import (
	"testing"

	"github.com/dkeye/voxroom/internal/domain"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", &fakeConn{}, "tok")

	if _, ok := r.UserOf("c1"); ok {
		t.Fatal("fresh connection should be anonymous")
	}
	if _, ok := r.SetOnline("missing", domain.User{ID: "x"}); ok {
		t.Fatal("SetOnline on unknown connection should fail")
	}

	prev, ok := r.SetOnline("c1", domain.User{ID: "alice", Username: "Alice"})
	if !ok || prev != nil {
		t.Fatalf("first SetOnline: prev=%v ok=%v", prev, ok)
	}
	prev, _ = r.SetOnline("c1", domain.User{ID: "alice", Username: "Al"})
	if prev == nil || prev.Username != "Alice" {
		t.Fatalf("second SetOnline prev = %v", prev)
	}
	if u, _ := r.UserOf("c1"); u.Username != "Al" {
		t.Fatalf("last write should win, got %q", u.Username)
	}

	if s, _, ok := r.Remove("c1"); !ok || s.ID != "c1" {
		t.Fatalf("remove = %v %v", s, ok)
	}
	if _, _, ok := r.Remove("c1"); ok {
		t.Fatal("second remove should be a no-op")
	}
	if r.Len() != 0 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestRegistryRemainingCountsSameUser(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c1", "c2", "c3"} {
		r.Bind(connID(id), &fakeConn{}, "")
	}
	r.SetOnline("c1", domain.User{ID: "alice"})
	r.SetOnline("c2", domain.User{ID: "alice"})
	r.SetOnline("c3", domain.User{ID: "bob"})

	if _, remaining, _ := r.Remove("c1"); remaining != 1 {
		t.Fatalf("remaining after first alice conn = %d, want 1", remaining)
	}
	if _, remaining, _ := r.Remove("c2"); remaining != 0 {
		t.Fatalf("remaining after last alice conn = %d, want 0", remaining)
	}
	if n := r.CountUser("bob"); n != 1 {
		t.Fatalf("bob conns = %d", n)
	}
}

func TestRegistrySnapshotIncludesAnonymous(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", &fakeConn{}, "")
	r.Bind("c2", &fakeConn{}, "")
	r.SetOnline("c1", domain.User{ID: "alice", Username: "Alice"})

	got := map[string]bool{}
	for _, tg := range r.Snapshot() {
		if tg.Signal == nil {
			t.Fatalf("%s has no signal", tg.ID)
		}
		got[string(tg.ID)] = true
	}
	if len(got) != 2 || !got["c1"] || !got["c2"] {
		t.Fatalf("snapshot = %v", got)
	}
}
