package rooms

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partygame/internal/config"
	"partygame/internal/game"
	"partygame/internal/store"
	"partygame/internal/timer"
)

const testTick = 5 * time.Millisecond

var testPrompts = []game.Prompt{
	{ID: "q1", Text: "A group of flamingos is a ____", Answer: "flamboyance"},
	{ID: "q2", Text: "Wombat droppings are ____", Answer: "cubes"},
}

func first(int) int { return 0 }

func newTestStore(t *testing.T, opts ...game.Options) *store.MemoryStore {
	t.Helper()
	o := game.Options{Prompts: testPrompts, IntN: first, MaxRounds: 1}
	if len(opts) > 0 {
		o = opts[0]
	}
	r, err := game.NewRegistry(
		game.NewBluffTrivia(o),
		game.NewFibbingIt(o),
		game.NewWordAssociation(game.Options{Prompts: []game.Prompt{{ID: "w1", Text: "ocean"}}, IntN: first, MaxRounds: 1}),
	)
	require.NoError(t, err)
	s := store.NewMemoryStore(r, config.DefaultConfig())
	t.Cleanup(s.Close)
	return s
}

type sent struct {
	code string
	conn string // empty for room-wide sends
	msg  Message
}

// recorder is a Transport that keeps everything sent through it
type recorder struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recorder) SendToRoom(code string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{code: code, msg: msg})
	return nil
}

func (r *recorder) SendToConnection(code, connID string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{code: code, conn: connID, msg: msg})
	return nil
}

// types lists message types sent to conn, or room-wide when conn is empty
func (r *recorder) types(conn string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		if s.conn == conn {
			out = append(out, s.msg.Type)
		}
	}
	return out
}

func (r *recorder) last(conn, msgType string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if s := r.sent[i]; s.conn == conn && s.msg.Type == msgType {
			return s.msg, true
		}
	}
	return Message{}, false
}

// newTestGateway builds a gateway whose countdown second lasts tick
func newTestGateway(t *testing.T, s *store.MemoryStore, tick time.Duration) (*Gateway, *recorder) {
	t.Helper()
	rec := &recorder{}
	timers := timer.NewService(tick, time.Minute, s.HasRoom)
	t.Cleanup(timers.StopAll)
	g := NewGateway(s, timers, NewBroadcaster(s, rec), config.DefaultConfig().Game)
	return g, rec
}
