package app

import (
	"fmt"
	"sync"

	"github.com/dkeye/voxroom/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultLaneDepth = 32

// RoomQueue runs work for one room strictly in arrival order while rooms
// proceed independently. A lane's goroutine starts on the first job and
// exits once the lane has nothing pending.
type RoomQueue struct {
	mu    sync.Mutex
	lanes map[domain.RoomID]*lane
	depth int
}

type lane struct {
	jobs    chan func()
	pending int
}

func NewRoomQueue() *RoomQueue {
	return &RoomQueue{lanes: make(map[domain.RoomID]*lane), depth: defaultLaneDepth}
}

// Do enqueues fn on the room's lane and waits until it has run.
// fn must not call Do for the same room.
func (q *RoomQueue) Do(room domain.RoomID, fn func()) {
	q.mu.Lock()
	l, ok := q.lanes[room]
	if !ok {
		l = &lane{jobs: make(chan func(), q.depth)}
		q.lanes[room] = l
		go q.run(room, l)
	}
	l.pending++
	q.mu.Unlock()

	done := make(chan struct{})
	l.jobs <- func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("module", "app.queue").Str("room", string(room)).
					Str("panic", fmt.Sprint(r)).Msg("room job panicked")
			}
		}()
		fn()
	}
	<-done
}

func (q *RoomQueue) run(room domain.RoomID, l *lane) {
	for job := range l.jobs {
		job()
		q.mu.Lock()
		l.pending--
		if l.pending == 0 {
			delete(q.lanes, room)
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
	}
}

// Lanes reports how many rooms currently have work queued or running.
func (q *RoomQueue) Lanes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}
