package signal

import (
	"context"
	"math"

	"github.com/dkeye/voxroom/internal/app/orch"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
)

// maxVoiceSeconds caps the duration a client may claim for one clip.
const maxVoiceSeconds = 3600

// durationMs converts the client's duration in seconds to milliseconds,
// clamped to [0, maxVoiceSeconds].
func durationMs(sec float64) int64 {
	if math.IsNaN(sec) || sec <= 0 {
		return 0
	}
	return int64(math.Round(min(sec, maxVoiceSeconds) * 1000))
}

// allowMessage applies the per-user message rate limit. Anonymous senders
// pass through so the coordinator reports them as unidentified.
func (ctl *SignalWSController) allowMessage(id core.ConnID) error {
	u, ok := ctl.Orch.Registry.UserOf(id)
	if !ok || ctl.limiter.Allow(u.ID) {
		return nil
	}
	ctl.Orch.Reject(id, domain.ErrRateLimited)
	return domain.ErrRateLimited
}

func (ctl *SignalWSController) handleVoiceMessage(ctx context.Context, id core.ConnID, _ *wsSignalConn, data []byte) error {
	var p struct {
		RoomID    string  `json:"roomId"`
		AudioData []byte  `json:"audioData"`
		Duration  float64 `json:"duration"`
		MessageID string  `json:"messageId"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := ctl.allowMessage(id); err != nil {
		return err
	}
	return ctl.Orch.VoiceMessage(ctx, id, orch.VoiceInput{
		RoomID:     p.RoomID,
		Audio:      p.AudioData,
		DurationMs: durationMs(p.Duration),
		MessageID:  p.MessageID,
	})
}

func (ctl *SignalWSController) handleSendMessage(ctx context.Context, id core.ConnID, _ *wsSignalConn, data []byte) error {
	var p struct {
		RoomID    string `json:"roomId"`
		Content   string `json:"content"`
		MessageID string `json:"messageId"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := ctl.allowMessage(id); err != nil {
		return err
	}
	return ctl.Orch.TextMessage(ctx, id, p.RoomID, p.Content, p.MessageID)
}

func (ctl *SignalWSController) handleSpeaking(id core.ConnID, data []byte) error {
	var p struct {
		RoomID     string `json:"roomId"`
		IsSpeaking bool   `json:"isSpeaking"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Speaking(id, p.RoomID, p.IsSpeaking)
}

func (ctl *SignalWSController) handlePlayback(id core.ConnID, kind string, data []byte) error {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	if kind == domain.EventPauseVoice {
		return ctl.Orch.Pause(id, p.RoomID)
	}
	return ctl.Orch.Resume(id, p.RoomID)
}

func (ctl *SignalWSController) handleVoiceData(id core.ConnID, data []byte) error {
	var p struct {
		RoomID string `json:"roomId"`
		Data   []byte `json:"data"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.VoiceData(id, p.RoomID, p.Data)
}

func (ctl *SignalWSController) handleAudioQuality(id core.ConnID, data []byte) error {
	var p struct {
		RoomID  string  `json:"roomId"`
		Quality float64 `json:"quality"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.AudioQuality(id, p.RoomID, p.Quality)
}
