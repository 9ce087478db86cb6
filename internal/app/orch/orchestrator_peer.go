package orch

import (
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// ForwardPeerSignal passes an offer, answer or candidate to another
// connection. Both ends must share a room.
func (o *Orchestrator) ForwardPeerSignal(id, to core.ConnID, ev domain.PeerSignalEvent) error {
	if _, err := o.identify(id, ""); err != nil {
		return o.reject(id, err)
	}
	if !o.sharesRoom(id, to) {
		return o.reject(id, domain.ErrPeerNotInRoom)
	}
	ev.From = string(id)
	if !o.Broadcast.Unicast(to, ev) {
		log.Warn().Str("module", "orch").Str("sid", string(id)).Str("to", string(to)).Str("type", ev.Type).Msg("peer signal not delivered")
	}
	return nil
}

func (o *Orchestrator) sharesRoom(a, b core.ConnID) bool {
	if a == b {
		return false
	}
	for _, room := range o.Rooms.RoomsOf(a) {
		if o.Rooms.Contains(room, b) {
			return true
		}
	}
	return false
}
