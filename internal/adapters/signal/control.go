package signal

import "github.com/dkeye/voxroom/internal/domain"

func (ctl *SignalWSController) handlePing(conn *wsSignalConn, data []byte) error {
	var p struct {
		ID string `json:"id"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	ctl.sendJSON(conn, domain.PongEvent{Type: domain.EventPong, ID: p.ID})
	return nil
}
