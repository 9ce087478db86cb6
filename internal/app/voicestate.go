package app

import (
	"sync"

	"github.com/dkeye/voxroom/internal/domain"
)

// VoiceState is the latest speaking/paused flags for a user in a room.
// It lives only in memory and is never persisted.
type VoiceState struct {
	Speaking bool
	Paused   bool
}

type voiceKey struct {
	room domain.RoomID
	user domain.UserID
}

type VoiceStates struct {
	mu     sync.Mutex
	states map[voiceKey]VoiceState
}

func NewVoiceStates() *VoiceStates {
	return &VoiceStates{states: make(map[voiceKey]VoiceState)}
}

// SetSpeaking reports whether the flag actually changed.
func (v *VoiceStates) SetSpeaking(room domain.RoomID, user domain.UserID, speaking bool) bool {
	return v.update(room, user, func(s *VoiceState) { s.Speaking = speaking })
}

func (v *VoiceStates) SetPaused(room domain.RoomID, user domain.UserID, paused bool) bool {
	return v.update(room, user, func(s *VoiceState) { s.Paused = paused })
}

func (v *VoiceStates) update(room domain.RoomID, user domain.UserID, fn func(*VoiceState)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	k := voiceKey{room, user}
	prev := v.states[k]
	next := prev
	fn(&next)
	if next == (VoiceState{}) {
		delete(v.states, k)
	} else {
		v.states[k] = next
	}
	return next != prev
}

func (v *VoiceStates) Get(room domain.RoomID, user domain.UserID) VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[voiceKey{room, user}]
}

// Clear forgets the user's flags in the room and returns what they were.
func (v *VoiceStates) Clear(room domain.RoomID, user domain.UserID) VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	k := voiceKey{room, user}
	prev := v.states[k]
	delete(v.states, k)
	return prev
}
