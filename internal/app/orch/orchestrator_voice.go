package orch

import (
	"context"

	"github.com/dkeye/voxroom/internal/app"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
)

// VoiceInput is a recorded clip as the client sent it.
type VoiceInput struct {
	RoomID     string
	Audio      []byte
	DurationMs int64
	MessageID  string
}

func (o *Orchestrator) VoiceMessage(ctx context.Context, id core.ConnID, in VoiceInput) error {
	return o.relay(ctx, id, in.RoomID, app.RelayRequest{
		Type:            domain.MessageVoice,
		Audio:           in.Audio,
		DurationMs:      in.DurationMs,
		ClientMessageID: in.MessageID,
	})
}

func (o *Orchestrator) TextMessage(ctx context.Context, id core.ConnID, roomID, content, messageID string) error {
	return o.relay(ctx, id, roomID, app.RelayRequest{
		Type:            domain.MessageText,
		Content:         content,
		ClientMessageID: messageID,
	})
}

// relay runs persist-then-broadcast on the room's queue so messages reach
// every member in the order they were accepted.
func (o *Orchestrator) relay(ctx context.Context, id core.ConnID, roomID string, req app.RelayRequest) error {
	room, err := domain.ParseRoomID(roomID)
	if err != nil {
		return o.reject(id, err)
	}
	u, err := o.identify(id, "")
	if err != nil {
		return o.reject(id, err)
	}
	req.RoomID = room
	req.ConnID = id
	req.Sender = &u

	o.Queue.Do(room, func() {
		if !o.Rooms.Contains(room, id) {
			err = domain.ErrNotInRoom
			return
		}
		_, err = o.Relay.Relay(ctx, req)
	})
	if err != nil {
		return o.reject(id, err)
	}
	return nil
}

// inRoom resolves the sender of a room-scoped event that needs membership.
func (o *Orchestrator) inRoom(id core.ConnID, roomID string) (domain.RoomID, domain.User, error) {
	room, err := domain.ParseRoomID(roomID)
	if err != nil {
		return "", domain.User{}, err
	}
	u, err := o.identify(id, "")
	if err != nil {
		return "", domain.User{}, err
	}
	if !o.Rooms.Contains(room, id) {
		return "", domain.User{}, domain.ErrNotInRoom
	}
	return room, u, nil
}

func (o *Orchestrator) Speaking(id core.ConnID, roomID string, speaking bool) error {
	room, u, err := o.inRoom(id, roomID)
	if err != nil {
		return o.reject(id, err)
	}
	o.States.SetSpeaking(room, u.ID, speaking)
	o.Broadcast.Room(room, domain.SpeakingEvent{
		Type:       domain.EventUserSpeaking,
		RoomID:     room,
		UserID:     u.ID,
		IsSpeaking: speaking,
	}, id)
	return nil
}

func (o *Orchestrator) Pause(id core.ConnID, roomID string) error {
	return o.playback(id, roomID, true)
}

func (o *Orchestrator) Resume(id core.ConnID, roomID string) error {
	return o.playback(id, roomID, false)
}

func (o *Orchestrator) playback(id core.ConnID, roomID string, paused bool) error {
	room, u, err := o.inRoom(id, roomID)
	if err != nil {
		return o.reject(id, err)
	}
	o.States.SetPaused(room, u.ID, paused)
	kind := domain.EventUserResumed
	if paused {
		kind = domain.EventUserPaused
	}
	o.Broadcast.Room(room, domain.PlaybackEvent{Type: kind, RoomID: room, UserID: u.ID}, id)
	return nil
}

// VoiceData forwards a live audio chunk to the rest of the room. Nothing is stored.
func (o *Orchestrator) VoiceData(id core.ConnID, roomID string, data []byte) error {
	room, u, err := o.inRoom(id, roomID)
	if err != nil {
		return o.reject(id, err)
	}
	if len(data) == 0 {
		return o.reject(id, domain.ErrBadPayload)
	}
	o.Broadcast.Room(room, domain.VoiceDataEvent{
		Type:     domain.EventVoiceData,
		RoomID:   room,
		UserID:   u.ID,
		SocketID: string(id),
		Data:     data,
	}, id)
	return nil
}

// AudioQuality records a client's reported quality score, clamped to 0..100.
func (o *Orchestrator) AudioQuality(id core.ConnID, roomID string, quality float64) error {
	room, _, err := o.inRoom(id, roomID)
	if err != nil {
		return o.reject(id, err)
	}
	quality = min(max(quality, 0), 100)
	o.Metrics.SetAudioQuality(string(room), quality)
	return nil
}
