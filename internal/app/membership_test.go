package app

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
)

func connID(s string) core.ConnID { return core.ConnID(s) }

func TestMembershipJoinLeave(t *testing.T) {
	tbl := NewMembershipTable()

	roster, changed := tbl.Join("r1", "alice", "c1")
	if !changed || !reflect.DeepEqual(roster, []domain.UserID{"alice"}) {
		t.Fatalf("join alice: %v %v", roster, changed)
	}
	roster, _ = tbl.Join("r1", "bob", "c2")
	if !reflect.DeepEqual(roster, []domain.UserID{"alice", "bob"}) {
		t.Fatalf("join bob: %v", roster)
	}

	roster, changed = tbl.Join("r1", "alice", "c1")
	if changed || !reflect.DeepEqual(roster, []domain.UserID{"alice", "bob"}) {
		t.Fatalf("repeat join: %v %v", roster, changed)
	}

	roster, changed = tbl.Leave("r1", "alice", "c1")
	if !changed || !reflect.DeepEqual(roster, []domain.UserID{"bob"}) {
		t.Fatalf("leave alice: %v %v", roster, changed)
	}
	roster, _ = tbl.Leave("r1", "bob", "c2")
	if len(roster) != 0 {
		t.Fatalf("empty room roster = %v", roster)
	}
	if got := tbl.List(); len(got) != 0 {
		t.Fatalf("empty room should be dropped, list = %v", got)
	}
}

func TestMembershipUnknownRoom(t *testing.T) {
	tbl := NewMembershipTable()
	roster, changed := tbl.Leave("nope", "alice", "c1")
	if changed || roster == nil || len(roster) != 0 {
		t.Fatalf("leave unknown = %v %v", roster, changed)
	}
	if r := tbl.Roster("nope"); r == nil || len(r) != 0 {
		t.Fatalf("roster unknown = %v", r)
	}
}

func TestMembershipRoomsOfIsSorted(t *testing.T) {
	tbl := NewMembershipTable()
	tbl.Join("zeta", "alice", "c1")
	tbl.Join("alpha", "alice", "c1")
	tbl.Join("mid", "alice", "c1")

	want := []domain.RoomID{"alpha", "mid", "zeta"}
	if got := tbl.RoomsOf("c1"); !reflect.DeepEqual(got, want) {
		t.Fatalf("rooms = %v, want %v", got, want)
	}
	tbl.Leave("mid", "alice", "c1")
	if tbl.Contains("mid", "c1") {
		t.Fatal("left room still recorded")
	}
}

func TestMembershipConcurrentJoinsLoseNothing(t *testing.T) {
	tbl := NewMembershipTable()
	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl.Join("r1", domain.UserID(fmt.Sprintf("u%02d", i)), connID(fmt.Sprintf("c%02d", i)))
		}(i)
	}
	wg.Wait()
	if got := len(tbl.Roster("r1")); got != n {
		t.Fatalf("roster size = %d, want %d", got, n)
	}
}

func TestMembershipRosterMatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tbl := NewMembershipTable()
	rooms := []domain.RoomID{"a", "b", "c"}
	users := []domain.UserID{"u1", "u2", "u3", "u4"}

	// model: room -> user -> set of conns
	model := map[domain.RoomID]map[domain.UserID]map[core.ConnID]bool{}
	for step := 0; step < 2000; step++ {
		room := rooms[rng.Intn(len(rooms))]
		user := users[rng.Intn(len(users))]
		conn := connID(fmt.Sprintf("%s-%d", user, rng.Intn(2)))
		if rng.Intn(2) == 0 {
			tbl.Join(room, user, conn)
			if model[room] == nil {
				model[room] = map[domain.UserID]map[core.ConnID]bool{}
			}
			if model[room][user] == nil {
				model[room][user] = map[core.ConnID]bool{}
			}
			model[room][user][conn] = true
		} else {
			tbl.Leave(room, user, conn)
			if conns := model[room][user]; conns != nil {
				delete(conns, conn)
				if len(conns) == 0 {
					delete(model[room], user)
				}
			}
		}

		for _, r := range rooms {
			var want []string
			for u := range model[r] {
				want = append(want, string(u))
			}
			var got []string
			for _, u := range tbl.Roster(r) {
				got = append(got, string(u))
			}
			sort.Strings(want)
			sort.Strings(got)
			if !reflect.DeepEqual(want, got) {
				t.Fatalf("step %d room %s: roster %v, want %v", step, r, got, want)
			}
		}
	}
}
