package store

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"

	"partygame/internal/game"
)

// laneQueue runs jobs one at a time per key, in submission order. Each key
// gets a worker goroutine that exits once its lane drains, so idle rooms
// cost nothing. Different keys run concurrently.
type laneQueue struct {
	mu     sync.Mutex
	lanes  map[string][]func()
	closed bool
	wg     sync.WaitGroup
}

func newLaneQueue() *laneQueue {
	return &laneQueue{lanes: make(map[string][]func())}
}

func (q *laneQueue) submit(key string, job func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return game.ErrStoreClosed
	}

	jobs, busy := q.lanes[key]
	q.lanes[key] = append(jobs, job)
	if !busy {
		q.wg.Add(1)
		go q.drain(key)
	}
	return nil
}

func (q *laneQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.lanes[key]
		if len(jobs) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		jobs[0] = nil
		q.lanes[key] = jobs[1:]
		q.mu.Unlock()

		job()
	}
}

// pending returns the number of keys with queued or running work
func (q *laneQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

// close rejects new jobs and waits for queued ones to finish
func (q *laneQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}

// run executes fn on key's lane and waits for its result. A panic inside fn
// fails only that job. fn must not call run for the same key.
func run[T any](q *laneQueue, key string, fn func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	err := q.submit(key, func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("room", key).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("room job panicked")
				var zero T
				o = outcome{val: zero, err: &game.Error{
					Kind:     game.KindInternal,
					RoomCode: key,
					Message:  fmt.Sprintf("room %s: internal error: %v", key, r),
				}}
			}
			done <- o
		}()
		o.val, o.err = fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}

	o := <-done
	return o.val, o.err
}
