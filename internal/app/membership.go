package app

import (
	"sort"
	"sync"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// MembershipTable maps room id -> members. Rooms appear on first join and
// disappear when the last member leaves.
type MembershipTable struct {
	mu        sync.RWMutex
	rooms     map[domain.RoomID]*core.RoomMembers
	connRooms map[core.ConnID]map[domain.RoomID]struct{}
}

func NewMembershipTable() *MembershipTable {
	return &MembershipTable{
		rooms:     make(map[domain.RoomID]*core.RoomMembers),
		connRooms: make(map[core.ConnID]map[domain.RoomID]struct{}),
	}
}

// Join adds the connection's user to the room and returns the resulting
// roster. changed is false when this connection had already joined.
func (t *MembershipTable) Join(room domain.RoomID, u domain.UserID, c core.ConnID) (roster []domain.UserID, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members, ok := t.rooms[room]
	if !ok {
		members = core.NewRoomMembers()
		t.rooms[room] = members
		log.Debug().Str("module", "app.membership").Str("room", string(room)).Msg("room created")
	}
	changed = members.Add(u, c)
	if changed {
		rooms, ok := t.connRooms[c]
		if !ok {
			rooms = make(map[domain.RoomID]struct{})
			t.connRooms[c] = rooms
		}
		rooms[room] = struct{}{}
	}
	return members.Roster(), changed
}

// Leave removes the connection's user from the room. Unknown rooms are a
// no-op with an empty roster.
func (t *MembershipTable) Leave(room domain.RoomID, u domain.UserID, c core.ConnID) (roster []domain.UserID, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members, ok := t.rooms[room]
	if !ok {
		return []domain.UserID{}, false
	}
	changed = members.Remove(u, c)
	if changed {
		if rooms, ok := t.connRooms[c]; ok {
			delete(rooms, room)
			if len(rooms) == 0 {
				delete(t.connRooms, c)
			}
		}
	}
	if members.Empty() {
		delete(t.rooms, room)
		log.Debug().Str("module", "app.membership").Str("room", string(room)).Msg("room removed")
		return []domain.UserID{}, changed
	}
	return members.Roster(), changed
}

func (t *MembershipTable) Roster(room domain.RoomID) []domain.UserID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if members, ok := t.rooms[room]; ok {
		return members.Roster()
	}
	return []domain.UserID{}
}

func (t *MembershipTable) Connections(room domain.RoomID) []core.ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if members, ok := t.rooms[room]; ok {
		return members.Connections()
	}
	return nil
}

// HasUser reports whether any connection of u is joined to room.
func (t *MembershipTable) HasUser(room domain.RoomID, u domain.UserID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members, ok := t.rooms[room]
	return ok && members.Has(u)
}

func (t *MembershipTable) Contains(room domain.RoomID, c core.ConnID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.connRooms[c][room]
	return ok
}

// RoomsOf lists the rooms a connection is joined to, sorted.
func (t *MembershipTable) RoomsOf(c core.ConnID) []domain.RoomID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.RoomID, 0, len(t.connRooms[c]))
	for room := range t.connRooms[c] {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *MembershipTable) List() []core.RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(t.rooms))
	for id, members := range t.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: members.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
