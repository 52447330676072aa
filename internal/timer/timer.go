package timer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TickFunc receives the seconds left after each tick. Returning an error
// stops the timer without expiring it.
type TickFunc func(remaining int) error

// Service runs at most one countdown per room. Each countdown ticks on its
// own goroutine; callbacks run without any lock held.
type Service struct {
	mu       sync.Mutex
	entries  map[string]*entry
	interval time.Duration
	sweep    time.Duration
	exists   func(code string) bool
}

type entry struct {
	code      string
	remaining int
	cancel    context.CancelFunc
}

// NewService creates a timer service. interval is the length of one countdown
// second; exists lets the sweep loop drop timers of rooms that are gone.
func NewService(interval, sweep time.Duration, exists func(code string) bool) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	if sweep <= 0 {
		sweep = time.Minute
	}
	return &Service{
		entries:  make(map[string]*entry),
		interval: interval,
		sweep:    sweep,
		exists:   exists,
	}
}

// Start begins a countdown of seconds for the room, replacing any running
// one. onTick runs every interval; onExpire runs once when the count reaches
// zero, unless the timer was stopped or replaced first.
func (s *Service) Start(code string, seconds int, onTick TickFunc, onExpire func()) {
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{code: code, remaining: seconds, cancel: cancel}

	s.mu.Lock()
	if old, ok := s.entries[code]; ok {
		old.cancel()
	}
	s.entries[code] = e
	s.mu.Unlock()

	log.Debug().Str("room", code).Int("seconds", seconds).Msg("timer started")
	go s.loop(ctx, e, onTick, onExpire)
}

func (s *Service) loop(ctx context.Context, e *entry, onTick TickFunc, onExpire func()) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.entries[e.code] != e {
			s.mu.Unlock()
			return
		}
		e.remaining--
		if e.remaining < 0 {
			e.remaining = 0
		}
		remaining := e.remaining
		s.mu.Unlock()

		if onTick != nil {
			if err := onTick(remaining); err != nil {
				log.Warn().Err(err).Str("room", e.code).Msg("timer tick failed, stopping timer")
				s.release(e)
				return
			}
		}
		if remaining > 0 {
			continue
		}

		if !s.release(e) {
			return
		}
		log.Debug().Str("room", e.code).Msg("timer expired")
		if onExpire != nil {
			onExpire()
		}
		return
	}
}

// release removes e if it is still the room's current timer
func (s *Service) release(e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[e.code] != e {
		return false
	}
	delete(s.entries, e.code)
	e.cancel()
	return true
}

// Stop cancels the room's timer. It reports whether one was running.
func (s *Service) Stop(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[code]
	if !ok {
		return false
	}
	delete(s.entries, code)
	e.cancel()
	log.Debug().Str("room", code).Msg("timer stopped")
	return true
}

// IsRunning reports whether the room has an active timer
func (s *Service) IsRunning(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[code]
	return ok
}

// Remaining returns the seconds left on the room's timer
func (s *Service) Remaining(code string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[code]
	if !ok {
		return 0, false
	}
	return e.remaining, true
}

// Active lists the rooms with a running timer
func (s *Service) Active() []string {
	s.mu.Lock()
	codes := make([]string, 0, len(s.entries))
	for code := range s.entries {
		codes = append(codes, code)
	}
	s.mu.Unlock()

	sort.Strings(codes)
	return codes
}

// StopAll cancels every timer
func (s *Service) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, e := range s.entries {
		e.cancel()
		delete(s.entries, code)
	}
}

// Run stops timers whose room no longer exists, every sweep interval, until
// ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep stops the timers of rooms that no longer exist and returns how many
// it stopped.
func (s *Service) Sweep() int {
	if s.exists == nil {
		return 0
	}
	stopped := 0
	for _, code := range s.Active() {
		if !s.exists(code) && s.Stop(code) {
			stopped++
		}
	}
	if stopped > 0 {
		log.Info().Int("timers", stopped).Msg("stopped timers of deleted rooms")
	}
	return stopped
}
