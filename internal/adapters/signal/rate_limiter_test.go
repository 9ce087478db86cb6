package signal

import (
	"testing"
	"time"

	"github.com/dkeye/voxroom/internal/domain"
)

func (rl *UserRateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.history)
}

func TestUserRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewUserRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("alice") || !rl.Allow("alice") {
		t.Fatal("first two attempts should pass")
	}
	if rl.Allow("alice") {
		t.Fatal("third attempt inside the window should be blocked")
	}
	if !rl.Allow("bob") {
		t.Fatal("limits are per user")
	}

	now = now.Add(11 * time.Second)
	if !rl.Allow("alice") {
		t.Fatal("window should have slid")
	}
}

func TestUserRateLimiterForgetsIdleUsers(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewUserRateLimiter(5, 10*time.Second)
	rl.now = func() time.Time { return now }

	for _, uid := range []domain.UserID{"alice", "bob", "carol"} {
		rl.Allow(uid)
	}
	if n := rl.tracked(); n != 3 {
		t.Fatalf("tracked = %d, want 3", n)
	}

	now = now.Add(11 * time.Second)
	rl.Allow("dave")
	if n := rl.tracked(); n != 1 {
		t.Fatalf("tracked after window = %d, want 1", n)
	}
}

func TestUserRateLimiterDisabled(t *testing.T) {
	rl := NewUserRateLimiter(0, time.Second)
	for i := 0; i < 100; i++ {
		if !rl.Allow("alice") {
			t.Fatal("disabled limiter blocked")
		}
	}
}
