package core

import "github.com/dkeye/voxroom/internal/domain"

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"client_count"`
}

// RoomMembers is the member set of one room, ordered by join time.
// A user stays in the roster while at least one of its connections is joined.
// Not safe for concurrent use; the membership table guards it.
type RoomMembers struct {
	order []domain.UserID
	conns map[domain.UserID]map[ConnID]struct{}
}

func NewRoomMembers() *RoomMembers {
	return &RoomMembers{conns: make(map[domain.UserID]map[ConnID]struct{})}
}

// Add reports whether the (user, connection) pair was new.
func (r *RoomMembers) Add(u domain.UserID, c ConnID) bool {
	set, ok := r.conns[u]
	if !ok {
		set = make(map[ConnID]struct{})
		r.conns[u] = set
		r.order = append(r.order, u)
	}
	if _, dup := set[c]; dup {
		return false
	}
	set[c] = struct{}{}
	return true
}

// Remove reports whether the (user, connection) pair was present.
func (r *RoomMembers) Remove(u domain.UserID, c ConnID) bool {
	set, ok := r.conns[u]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, u)
		for i, id := range r.order {
			if id == u {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	return true
}

func (r *RoomMembers) Has(u domain.UserID) bool {
	_, ok := r.conns[u]
	return ok
}

func (r *RoomMembers) Roster() []domain.UserID {
	out := make([]domain.UserID, len(r.order))
	copy(out, r.order)
	return out
}

// Connections lists every joined connection, grouped by roster order.
func (r *RoomMembers) Connections() []ConnID {
	out := make([]ConnID, 0, len(r.order))
	for _, u := range r.order {
		for c := range r.conns[u] {
			out = append(out, c)
		}
	}
	return out
}

func (r *RoomMembers) Len() int    { return len(r.order) }
func (r *RoomMembers) Empty() bool { return len(r.order) == 0 }
