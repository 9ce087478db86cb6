package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *wsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("ping failed")
				return
			}
		}
	}
}

// readPump handles one connection's events in order. When it returns the
// connection is gone and the coordinator cleans up after it.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, id core.ConnID, c *wsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(id)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.OnDisconnect(context.WithoutCancel(ctx), id)
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(id)).Msg("readPump read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		ctl.handleSignal(ctx, id, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, id core.ConnID, c *wsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(id)).Msg("bad json")
		ctl.sendError(c, domain.ErrBadPayload)
		return
	}

	var err error
	switch env.Type {
	case domain.EventUserOnline:
		err = ctl.handleUserOnline(ctx, id, data)
	case domain.EventJoinRoom:
		err = ctl.handleJoin(ctx, id, data)
	case domain.EventLeaveRoom:
		err = ctl.handleLeave(ctx, id, data)
	case domain.EventVoiceMessage:
		err = ctl.handleVoiceMessage(ctx, id, c, data)
	case domain.EventSendMessage:
		err = ctl.handleSendMessage(ctx, id, c, data)
	case domain.EventSpeakingState:
		err = ctl.handleSpeaking(id, data)
	case domain.EventPauseVoice, domain.EventResumeVoice:
		err = ctl.handlePlayback(id, env.Type, data)
	case domain.EventVoiceData:
		err = ctl.handleVoiceData(id, data)
	case domain.EventAudioQuality:
		err = ctl.handleAudioQuality(id, data)
	case domain.EventOffer, domain.EventAnswer:
		err = ctl.handleDescription(id, env.Type, data)
	case domain.EventCandidate:
		err = ctl.handleCandidate(id, data)
	case domain.EventPing:
		err = ctl.handlePing(c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		return
	}

	if errors.Is(err, errPayload) {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(id)).Str("type", env.Type).Msg("bad payload")
		ctl.sendError(c, domain.ErrBadPayload)
		return
	}
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(id)).Str("type", env.Type).Msg("event rejected")
	}
}

// errPayload marks decode failures, which the coordinator never sees and
// so never reports to the client.
var errPayload = errors.New("payload")

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errPayload, err)
	}
	return nil
}

func (ctl *SignalWSController) sendError(c *wsSignalConn, err error) {
	ctl.sendJSON(c, domain.NewErrorEvent(err))
}

func (ctl *SignalWSController) sendJSON(c *wsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("sendJSON")
	}
}
