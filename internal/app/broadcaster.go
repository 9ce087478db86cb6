package app

import (
	"encoding/json"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/dkeye/voxroom/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DeliveryResult lists who got a frame and who did not.
type DeliveryResult struct {
	SentTo  []core.ConnID
	Dropped []core.ConnID
}

// Broadcaster fans one event out to a scope of connections. Failures are
// isolated per connection and never reach the caller.
type Broadcaster struct {
	Registry *Registry
	Rooms    *MembershipTable
	Policy   Policy
	Metrics  *metrics.Metrics
}

// Global delivers to every registered connection except exclude.
func (b *Broadcaster) Global(v any, exclude core.ConnID) DeliveryResult {
	frame, ok := b.encode(v)
	if !ok {
		return DeliveryResult{}
	}
	snap := b.Registry.Snapshot()
	targets := make([]core.ConnID, 0, len(snap))
	for _, s := range snap {
		if s.ID != exclude {
			targets = append(targets, s.ID)
		}
	}
	return b.deliver(frame, targets)
}

// Room delivers to the connections currently joined to room, except exclude.
func (b *Broadcaster) Room(room domain.RoomID, v any, exclude core.ConnID) DeliveryResult {
	frame, ok := b.encode(v)
	if !ok {
		return DeliveryResult{}
	}
	conns := b.Rooms.Connections(room)
	targets := make([]core.ConnID, 0, len(conns))
	for _, id := range conns {
		if id != exclude {
			targets = append(targets, id)
		}
	}
	return b.deliver(frame, targets)
}

func (b *Broadcaster) Unicast(id core.ConnID, v any) bool {
	frame, ok := b.encode(v)
	if !ok {
		return false
	}
	res := b.deliver(frame, []core.ConnID{id})
	return len(res.SentTo) == 1
}

// Error unicasts the client-facing form of err.
func (b *Broadcaster) Error(id core.ConnID, err error) {
	b.Unicast(id, domain.NewErrorEvent(err))
}

func (b *Broadcaster) encode(v any) (core.Frame, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("encode event")
		return nil, false
	}
	return data, true
}

func (b *Broadcaster) deliver(frame core.Frame, targets []core.ConnID) DeliveryResult {
	var res DeliveryResult
	for _, id := range targets {
		sig, ok := b.Registry.Signal(id)
		if !ok || sig == nil {
			continue
		}
		if err := sig.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, id)
			b.onFailure(id, sig, err)
			continue
		}
		res.SentTo = append(res.SentTo, id)
	}
	return res
}

func (b *Broadcaster) onFailure(id core.ConnID, sig core.SignalConnection, err error) {
	log.Warn().Err(err).Str("module", "app.broadcast").Str("sid", string(id)).Msg("delivery failed")
	b.Metrics.DeliveryFailed()
	if b.Policy == nil {
		return
	}
	switch b.Policy.OnDeliveryFailure(id, err) {
	case DisconnectMember:
		log.Info().Str("module", "app.broadcast").Str("sid", string(id)).Msg("closing slow connection")
		sig.Close()
	case NoAction:
	}
}
