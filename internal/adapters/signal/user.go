package signal

import (
	"context"

	"github.com/dkeye/voxroom/internal/core"
)

func (ctl *SignalWSController) handleUserOnline(ctx context.Context, id core.ConnID, data []byte) error {
	var p struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Announce(ctx, id, p.UserID, p.Username)
}
