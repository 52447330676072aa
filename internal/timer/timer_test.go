package timer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 10 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	ticks   []int
	expired atomic.Int32
	done    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 4)}
}

func (r *recorder) onTick(remaining int) error {
	r.mu.Lock()
	r.ticks = append(r.ticks, remaining)
	r.mu.Unlock()
	return nil
}

func (r *recorder) onExpire() {
	r.expired.Add(1)
	r.done <- struct{}{}
}

func (r *recorder) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...)
}

func waitExpired(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not expire")
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	s := NewService(tick, time.Hour, nil)
	r := newRecorder()

	s.Start("AB12", 3, r.onTick, r.onExpire)
	assert.True(t, s.IsRunning("AB12"))

	waitExpired(t, r)
	time.Sleep(5 * tick)

	assert.Equal(t, []int{2, 1, 0}, r.seen())
	assert.Equal(t, int32(1), r.expired.Load())
	assert.False(t, s.IsRunning("AB12"))
	assert.Empty(t, s.Active())
}

func TestStartReplacesRunningTimer(t *testing.T) {
	s := NewService(tick, time.Hour, nil)
	first := newRecorder()
	second := newRecorder()

	s.Start("AB12", 10, first.onTick, first.onExpire)
	s.Start("AB12", 3, second.onTick, second.onExpire)

	assert.Equal(t, []string{"AB12"}, s.Active())
	left, ok := s.Remaining("AB12")
	require.True(t, ok)
	assert.LessOrEqual(t, left, 3)

	waitExpired(t, second)
	time.Sleep(5 * tick)

	assert.Equal(t, []int{2, 1, 0}, second.seen())
	assert.Equal(t, int32(0), first.expired.Load(), "replaced timer never expires")
	assert.False(t, s.IsRunning("AB12"))
}

func TestStopPreventsExpiry(t *testing.T) {
	s := NewService(tick, time.Hour, nil)
	r := newRecorder()

	s.Start("AB12", 2, r.onTick, r.onExpire)
	assert.True(t, s.Stop("AB12"))
	assert.False(t, s.Stop("AB12"))

	time.Sleep(5 * tick)
	assert.Equal(t, int32(0), r.expired.Load())
	assert.Empty(t, r.seen())
}

func TestTickErrorStopsTimer(t *testing.T) {
	s := NewService(tick, time.Hour, nil)
	var calls atomic.Int32
	var expired atomic.Bool

	s.Start("AB12", 5, func(int) error {
		calls.Add(1)
		return errors.New("room gone")
	}, func() { expired.Store(true) })

	assert.Eventually(t, func() bool { return !s.IsRunning("AB12") }, time.Second, tick)
	time.Sleep(5 * tick)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, expired.Load())
}

func TestExpiryCanStartNextTimer(t *testing.T) {
	s := NewService(tick, time.Hour, nil)
	next := newRecorder()

	s.Start("AB12", 1, nil, func() {
		s.Start("AB12", 2, next.onTick, next.onExpire)
	})

	waitExpired(t, next)
	assert.Equal(t, []int{1, 0}, next.seen())
}

func TestIndependentRooms(t *testing.T) {
	s := NewService(tick, time.Hour, nil)
	a, b := newRecorder(), newRecorder()

	s.Start("AAAA", 2, a.onTick, a.onExpire)
	s.Start("BBBB", 4, b.onTick, b.onExpire)
	assert.Equal(t, []string{"AAAA", "BBBB"}, s.Active())

	waitExpired(t, a)
	assert.True(t, s.IsRunning("BBBB"))
	waitExpired(t, b)

	s.StopAll()
	assert.Empty(t, s.Active())
}

func TestSweepStopsOrphanedTimers(t *testing.T) {
	var mu sync.Mutex
	live := map[string]bool{"AAAA": true}
	exists := func(code string) bool {
		mu.Lock()
		defer mu.Unlock()
		return live[code]
	}

	s := NewService(time.Hour, tick, exists)
	s.Start("AAAA", 30, nil, nil)
	s.Start("GONE", 30, nil, nil)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, []string{"AAAA"}, s.Active())

	mu.Lock()
	delete(live, "AAAA")
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(s.Active()) == 0 }, time.Second, tick)
	cancel()
	assert.NoError(t, <-done)
}
