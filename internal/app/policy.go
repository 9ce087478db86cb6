package app

import (
	"errors"

	"github.com/dkeye/voxroom/internal/core"
)

type DeliveryAction int

const (
	NoAction DeliveryAction = iota
	DisconnectMember
)

// Policy decides what happens to a connection that could not take a frame.
type Policy interface {
	OnDeliveryFailure(id core.ConnID, err error) DeliveryAction
}

// LogOnlyPolicy keeps every connection; the failure is only logged.
type LogOnlyPolicy struct{}

func (LogOnlyPolicy) OnDeliveryFailure(core.ConnID, error) DeliveryAction { return NoAction }

// DisconnectSlowPolicy closes connections whose send buffer is full.
// Closing the transport runs the normal disconnect cleanup.
type DisconnectSlowPolicy struct{}

func (DisconnectSlowPolicy) OnDeliveryFailure(_ core.ConnID, err error) DeliveryAction {
	if errors.Is(err, core.ErrBackpressure) {
		return DisconnectMember
	}
	return NoAction
}

func PolicyByName(name string) Policy {
	if name == "disconnect" {
		return DisconnectSlowPolicy{}
	}
	return LogOnlyPolicy{}
}
