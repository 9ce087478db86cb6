package signal

import (
	"context"

	"github.com/dkeye/voxroom/internal/core"
)

type roomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId,omitempty"`
}

func (ctl *SignalWSController) handleJoin(ctx context.Context, id core.ConnID, data []byte) error {
	var p roomPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Join(ctx, id, p.RoomID, p.UserID)
}

// handleLeave leaves the room; the connection itself stays open.
func (ctl *SignalWSController) handleLeave(ctx context.Context, id core.ConnID, data []byte) error {
	var p roomPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Leave(ctx, id, p.RoomID, p.UserID)
}
