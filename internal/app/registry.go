package app

import (
	"sync"
	"time"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Session is one live connection: its transport handle and, once announced,
// the user it represents.
type Session struct {
	ID          core.ConnID
	ClientToken string
	Signal      core.SignalConnection
	User        *domain.User
	ConnectedAt time.Time
}

// Registry is the connection registry: connection id -> session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.ConnID]*Session)}
}

func (r *Registry) Bind(id core.ConnID, sig core.SignalConnection, clientToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &Session{
		ID:          id,
		ClientToken: clientToken,
		Signal:      sig,
		ConnectedAt: time.Now(),
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("bound signal")
}

// SetOnline records the user for a connection, last call wins.
// It returns the previous user, if any.
func (r *Registry) SetOnline(id core.ConnID, u domain.User) (prev *domain.User, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	prev = s.User
	s.User = &u
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("user", string(u.ID)).Msg("user online")
	return prev, true
}

func (r *Registry) UserOf(id core.ConnID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.User == nil {
		return domain.User{}, false
	}
	return *s.User, true
}

func (r *Registry) Signal(id core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Signal, true
}

// Remove drops the connection. remaining counts the other live connections
// still announced as the same user. ok is false when the id was unknown,
// which makes repeated removals harmless.
func (r *Registry) Remove(id core.ConnID) (s Session, remaining int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[id]
	if !ok {
		return Session{}, 0, false
	}
	delete(r.sessions, id)
	if cur.User != nil {
		remaining = r.countUserLocked(cur.User.ID)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Int("remaining", remaining).Msg("unbind session")
	return *cur, remaining, true
}

// CountUser returns how many live connections are announced as uid.
func (r *Registry) CountUser(uid domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countUserLocked(uid)
}

func (r *Registry) countUserLocked(uid domain.UserID) int {
	n := 0
	for _, s := range r.sessions {
		if s.User != nil && s.User.ID == uid {
			n++
		}
	}
	return n
}

// Target is a delivery handle for one live connection.
type Target struct {
	ID     core.ConnID
	Signal core.SignalConnection
}

// Snapshot lists every live connection, announced or not.
func (r *Registry) Snapshot() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Target, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, Target{ID: id, Signal: s.Signal})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
