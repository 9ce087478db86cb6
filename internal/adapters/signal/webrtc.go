package signal

import (
	"fmt"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/pion/webrtc/v4"
)

// handleDescription forwards an offer or answer to its peer. The SDP is
// parsed first so peers never receive a description that cannot be applied.
func (ctl *SignalWSController) handleDescription(id core.ConnID, kind string, data []byte) error {
	var p struct {
		To  string `json:"to"`
		SDP string `json:"sdp"`
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	desc := webrtc.SessionDescription{Type: webrtc.NewSDPType(kind), SDP: p.SDP}
	if _, err := desc.Unmarshal(); err != nil {
		return fmt.Errorf("%w: sdp: %w", errPayload, err)
	}
	return ctl.Orch.ForwardPeerSignal(id, core.ConnID(p.To), domain.PeerSignalEvent{
		Type: kind,
		SDP:  desc.SDP,
	})
}

func (ctl *SignalWSController) handleCandidate(id core.ConnID, data []byte) error {
	var p struct {
		To string `json:"to"`
		webrtc.ICECandidateInit
	}
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.Candidate == "" {
		return fmt.Errorf("%w: empty candidate", errPayload)
	}
	return ctl.Orch.ForwardPeerSignal(id, core.ConnID(p.To), domain.PeerSignalEvent{
		Type:          domain.EventCandidate,
		Candidate:     p.Candidate,
		SDPMid:        p.SDPMid,
		SDPMLineIndex: p.SDPMLineIndex,
	})
}
