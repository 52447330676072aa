package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partygame/internal/config"
	"partygame/internal/game"
	"partygame/internal/rooms"
	"partygame/internal/store"
	"partygame/internal/timer"
)

type testEnv struct {
	handler *Handler
	router  http.Handler
	gateway *rooms.Gateway
	store   *store.MemoryStore
	bus     *EventBus
	hub     *Hub
}

// newTestEnv wires the handler the way the server does, with timers that
// never tick during a test.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	bank := game.NewPromptBank(map[string][]game.Prompt{
		game.TypeBluffTrivia: {{ID: "q1", Text: "A group of flamingos is a ____", Answer: "flamboyance"}},
	})
	registry, err := game.NewDefaultRegistry(cfg.Game.EngineOptions(), bank)
	require.NoError(t, err)

	s := store.NewMemoryStore(registry, cfg)
	timers := timer.NewService(time.Hour, time.Hour, s.HasRoom)
	bus := NewEventBus()
	hub := NewHub(nil, 0, 1)
	gw := rooms.NewGateway(s, timers, rooms.NewBroadcaster(s, hub, bus), cfg.Game)
	t.Cleanup(gw.Shutdown)

	h := New(gw, bus, hub, cfg)
	router := SetupRouter(h, cfg, &RouterOptions{DisableRateLimiting: true, DisableRequestLogger: true})
	return &testEnv{handler: h, router: router, gateway: gw, store: s, bus: bus, hub: hub}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func httptestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
