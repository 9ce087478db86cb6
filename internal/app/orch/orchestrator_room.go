package orch

import (
	"context"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join puts the connection into room. A connection is in at most one room:
// joining another room leaves the current one first. Joining the room it is
// already in changes nothing and only resends the roster to the caller.
func (o *Orchestrator) Join(ctx context.Context, id core.ConnID, roomID, userID string) error {
	room, err := domain.ParseRoomID(roomID)
	if err != nil {
		return o.reject(id, err)
	}
	u, err := o.identify(id, userID)
	if err != nil {
		return o.reject(id, err)
	}

	for _, prev := range o.Rooms.RoomsOf(id) {
		if prev != room {
			log.Info().Str("module", "orch").Str("sid", string(id)).Str("from_room", string(prev)).Msg("leaving previous room")
			o.leaveRoom(prev, id, u.ID, false)
		}
	}

	o.Queue.Do(room, func() {
		wasMember := o.Rooms.HasUser(room, u.ID)
		roster, changed := o.Rooms.Join(room, u.ID, id)
		update := domain.RoomUsersEvent{Type: domain.EventRoomUsersUpdate, RoomID: room, Users: roster}
		if !changed {
			o.Broadcast.Unicast(id, update)
			return
		}
		log.Info().Str("module", "orch").Str("sid", string(id)).Str("room", string(room)).Msg("joined room")
		if !wasMember {
			o.Broadcast.Room(room, domain.MemberEvent{
				Type:     domain.EventUserJoined,
				RoomID:   room,
				UserID:   u.ID,
				SocketID: string(id),
			}, id)
		}
		o.Broadcast.Room(room, update, "")
		o.rosterChanged(ctx, room, roster)
	})
	return nil
}

// Leave takes the connection out of room. Leaving a room the connection is
// not in is a no-op.
func (o *Orchestrator) Leave(ctx context.Context, id core.ConnID, roomID, userID string) error {
	room, err := domain.ParseRoomID(roomID)
	if err != nil {
		return o.reject(id, err)
	}
	u, err := o.identify(id, userID)
	if err != nil {
		return o.reject(id, err)
	}
	if !o.Rooms.Contains(room, id) {
		return nil
	}
	o.leaveRoom(room, id, u.ID, true)
	return nil
}

// leaveRoom runs on the room's queue. ack sends user-left back to the
// leaver, which a closed connection cannot receive.
func (o *Orchestrator) leaveRoom(room domain.RoomID, id core.ConnID, uid domain.UserID, ack bool) {
	o.Queue.Do(room, func() {
		roster, changed := o.Rooms.Leave(room, uid, id)
		if !changed {
			return
		}
		left := domain.MemberEvent{
			Type:     domain.EventUserLeft,
			RoomID:   room,
			UserID:   uid,
			SocketID: string(id),
		}
		if !o.Rooms.HasUser(room, uid) {
			if st := o.States.Clear(room, uid); st.Speaking {
				o.Broadcast.Room(room, domain.SpeakingEvent{
					Type:       domain.EventUserSpeaking,
					RoomID:     room,
					UserID:     uid,
					IsSpeaking: false,
				}, id)
			}
			o.Broadcast.Room(room, left, id)
		}
		o.Broadcast.Room(room, domain.RoomUsersEvent{
			Type:   domain.EventRoomUsersUpdate,
			RoomID: room,
			Users:  roster,
		}, "")
		if ack {
			o.Broadcast.Unicast(id, left)
		}
		log.Info().Str("module", "orch").Str("sid", string(id)).Str("room", string(room)).Msg("left room")
		o.rosterChanged(context.Background(), room, roster)
	})
}

func (o *Orchestrator) rosterChanged(ctx context.Context, room domain.RoomID, roster []domain.UserID) {
	o.Metrics.SetRoomParticipants(string(room), len(roster))
	o.mirror(ctx, "roster", func(c context.Context) error { return o.Mirror.SetRoster(c, room, roster) })
}

// RoomUsers is the roster query used by the REST API.
func (o *Orchestrator) RoomUsers(roomID string) ([]domain.UserID, error) {
	room, err := domain.ParseRoomID(roomID)
	if err != nil {
		return nil, err
	}
	return o.Rooms.Roster(room), nil
}

func (o *Orchestrator) ListRooms() []core.RoomInfo {
	return o.Rooms.List()
}
