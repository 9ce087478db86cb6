package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/dkeye/voxroom/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPersistTimeout = 5 * time.Second
	MaxTextLen            = 4000
	voiceContentType      = "audio/webm"
)

// VoiceContent is the text stored for voice messages.
const VoiceContent = "Voice message"

// RelayRequest is one inbound chat or voice message.
type RelayRequest struct {
	RoomID          domain.RoomID
	ConnID          core.ConnID
	Sender          *domain.User
	Type            domain.MessageType
	Content         string
	Audio           []byte
	DurationMs      int64
	ClientMessageID string
}

// Relay persists a message and only then fans it out to the room.
// Callers serialize Relay per room so broadcasts keep acceptance order.
type Relay struct {
	Store          core.MessageStore
	Blobs          core.BlobStore
	Broadcaster    *Broadcaster
	Metrics        *metrics.Metrics
	PersistTimeout time.Duration
	Now            func() time.Time
}

// Relay returns the stored message. On error nothing was broadcast and the
// caller reports the error to the sender.
func (r *Relay) Relay(ctx context.Context, req RelayRequest) (*domain.Message, error) {
	if req.Sender == nil {
		return nil, domain.ErrUnidentified
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: message type %q", domain.ErrBadPayload, req.Type)
	}
	if req.Type == domain.MessageVoice && len(req.Audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", domain.ErrBadPayload)
	}
	if req.Type != domain.MessageVoice {
		req.Content = strings.TrimSpace(req.Content)
		if req.Content == "" || len(req.Content) > MaxTextLen {
			return nil, fmt.Errorf("%w: content length", domain.ErrBadPayload)
		}
	}

	// Sender disconnecting must not abort a message already accepted.
	timeout := r.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	msg, err := r.persist(pctx, req)
	r.Metrics.ObservePersist(time.Since(start))
	if err != nil {
		log.Warn().Err(err).
			Str("module", "app.relay").
			Str("room", string(req.RoomID)).
			Str("user", string(req.Sender.ID)).
			Msg("persist failed, message not broadcast")
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	kind := domain.EventNewMessage
	if msg.Type == domain.MessageVoice {
		kind = domain.EventNewVoiceMessage
	}
	res := r.Broadcaster.Room(req.RoomID, &domain.MessageEvent{Type: kind, Message: msg}, "")
	r.Metrics.MessageRelayed(string(msg.Type))
	log.Debug().
		Str("module", "app.relay").
		Str("room", string(req.RoomID)).
		Str("message", msg.ID).
		Int("sent", len(res.SentTo)).
		Int("dropped", len(res.Dropped)).
		Msg("message relayed")
	return msg, nil
}

func (r *Relay) persist(ctx context.Context, req RelayRequest) (*domain.Message, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	ar := core.AppendRequest{
		RoomID:          req.RoomID,
		SenderID:        req.Sender.ID,
		SenderName:      req.Sender.Username,
		Type:            req.Type,
		Content:         req.Content,
		ClientMessageID: req.ClientMessageID,
		CreatedAt:       now().UTC(),
	}
	var blobKey string
	if req.Type == domain.MessageVoice {
		ar.Content = VoiceContent
		voice := &domain.VoicePayload{DurationMs: req.DurationMs}
		if r.Blobs != nil {
			key := fmt.Sprintf("voice/%s/%s.webm", req.RoomID, uuid.NewString())
			url, err := r.Blobs.Put(ctx, key, req.Audio, voiceContentType)
			if err != nil {
				r.Metrics.RelayFailed("blob")
				return nil, fmt.Errorf("upload audio: %w", err)
			}
			voice.URL = url
			blobKey = key
		} else {
			voice.Data = req.Audio
		}
		ar.Voice = voice
	}
	msg, err := r.Store.Append(ctx, ar)
	if err != nil {
		r.Metrics.RelayFailed("store")
		if blobKey != "" {
			log.Warn().Str("module", "app.relay").Str("key", blobKey).Msg("audio uploaded but message not stored")
		}
		return nil, fmt.Errorf("append: %w", err)
	}
	return msg, nil
}
