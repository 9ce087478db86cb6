// Package orch is the session coordinator. It is the only place that
// mutates the connection registry and the membership table, and it decides
// which events each change produces.
package orch

import (
	"context"
	"time"

	"github.com/dkeye/voxroom/internal/app"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/dkeye/voxroom/internal/metrics"
	"github.com/rs/zerolog/log"
)

const defaultSideTimeout = 2 * time.Second

type Orchestrator struct {
	Registry  *app.Registry
	Rooms     *app.MembershipTable
	Queue     *app.RoomQueue
	States    *app.VoiceStates
	Broadcast *app.Broadcaster
	Relay     *app.Relay
	Directory core.UserDirectory
	Mirror    core.PresenceMirror
	Metrics   *metrics.Metrics

	// SideTimeout bounds directory and mirror writes.
	SideTimeout time.Duration
}

type Deps struct {
	Store          core.MessageStore
	Directory      core.UserDirectory
	Blobs          core.BlobStore
	Mirror         core.PresenceMirror
	Metrics        *metrics.Metrics
	Policy         app.Policy
	PersistTimeout time.Duration
}

func New(d Deps) *Orchestrator {
	reg := app.NewRegistry()
	rooms := app.NewMembershipTable()
	if d.Policy == nil {
		d.Policy = app.LogOnlyPolicy{}
	}
	if d.Mirror == nil {
		d.Mirror = core.NopMirror{}
	}
	b := &app.Broadcaster{Registry: reg, Rooms: rooms, Policy: d.Policy, Metrics: d.Metrics}
	return &Orchestrator{
		Registry:  reg,
		Rooms:     rooms,
		Queue:     app.NewRoomQueue(),
		States:    app.NewVoiceStates(),
		Broadcast: b,
		Relay: &app.Relay{
			Store:          d.Store,
			Blobs:          d.Blobs,
			Broadcaster:    b,
			Metrics:        d.Metrics,
			PersistTimeout: d.PersistTimeout,
		},
		Directory:   d.Directory,
		Mirror:      d.Mirror,
		Metrics:     d.Metrics,
		SideTimeout: defaultSideTimeout,
	}
}

// Connect registers a fresh transport session and greets it with its id.
func (o *Orchestrator) Connect(id core.ConnID, sig core.SignalConnection, clientToken string) {
	o.Registry.Bind(id, sig, clientToken)
	o.Metrics.ConnOpened()
	o.Broadcast.Unicast(id, domain.ConnectedEvent{Type: domain.EventConnected, SocketID: string(id)})
}

// Announce binds a user to the connection and tells everyone else it is online.
// Re-announcing as a different user first takes the old identity out of
// every room the connection had joined.
func (o *Orchestrator) Announce(ctx context.Context, id core.ConnID, userID, username string) error {
	u, err := domain.NewUser(userID, username)
	if err != nil {
		return o.reject(id, err)
	}
	prev, ok := o.Registry.SetOnline(id, *u)
	if !ok {
		return nil
	}
	if prev != nil && prev.ID != u.ID {
		for _, room := range o.Rooms.RoomsOf(id) {
			o.leaveRoom(room, id, prev.ID, false)
		}
		if o.Registry.CountUser(prev.ID) == 0 {
			o.goOffline(ctx, id, prev.ID)
		}
	}

	if o.Directory != nil {
		sctx, cancel := o.sideContext(ctx)
		if err := o.Directory.UpsertUser(sctx, *u); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("user", string(u.ID)).Msg("upsert user")
		}
		cancel()
	}
	o.mirror(ctx, "online", func(c context.Context) error { return o.Mirror.SetOnline(c, *u) })

	o.Broadcast.Global(domain.StatusChangeEvent{
		Type:   domain.EventUserStatusChange,
		UserID: u.ID,
		Status: domain.StatusOnline,
	}, id)
	return nil
}

// OnDisconnect is the terminal cleanup for a connection. Only the first call
// for an id does anything.
func (o *Orchestrator) OnDisconnect(ctx context.Context, id core.ConnID) {
	sess, remaining, ok := o.Registry.Remove(id)
	if !ok {
		return
	}
	o.Metrics.ConnClosed()
	if sess.User == nil {
		return
	}
	if remaining == 0 {
		o.goOffline(ctx, id, sess.User.ID)
	}
	for _, room := range o.Rooms.RoomsOf(id) {
		o.leaveRoom(room, id, sess.User.ID, false)
	}
	log.Info().Str("module", "orch").Str("sid", string(id)).Str("user", string(sess.User.ID)).Msg("disconnected")
}

func (o *Orchestrator) goOffline(ctx context.Context, id core.ConnID, uid domain.UserID) {
	o.mirror(ctx, "offline", func(c context.Context) error { return o.Mirror.SetOffline(c, uid) })
	o.Broadcast.Global(domain.StatusChangeEvent{
		Type:   domain.EventUserStatusChange,
		UserID: uid,
		Status: domain.StatusOffline,
	}, id)
}

// identify returns the connection's user or ErrUnidentified. A non-empty
// claimed id must match the announced one.
func (o *Orchestrator) identify(id core.ConnID, claimed string) (domain.User, error) {
	u, ok := o.Registry.UserOf(id)
	if !ok {
		return domain.User{}, domain.ErrUnidentified
	}
	if claimed != "" && domain.UserID(claimed) != u.ID {
		return domain.User{}, domain.ErrUserMismatch
	}
	return u, nil
}

// Reject reports err to the connection only.
func (o *Orchestrator) Reject(id core.ConnID, err error) {
	o.Broadcast.Error(id, err)
}

func (o *Orchestrator) reject(id core.ConnID, err error) error {
	log.Debug().Err(err).Str("module", "orch").Str("sid", string(id)).Msg("rejected")
	o.Reject(id, err)
	return err
}

func (o *Orchestrator) sideContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.SideTimeout)
}

func (o *Orchestrator) mirror(ctx context.Context, what string, fn func(context.Context) error) {
	if o.Mirror == nil {
		return
	}
	sctx, cancel := o.sideContext(ctx)
	defer cancel()
	if err := fn(sctx); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("op", what).Msg("presence mirror")
	}
}
