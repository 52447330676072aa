package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"partygame/internal/config"
	"partygame/internal/game"
	"partygame/internal/handlers"
	"partygame/internal/rooms"
	"partygame/internal/store"
	"partygame/internal/timer"
)

// App is the assembled server
type App struct {
	cfg     *config.ServerConfig
	store   *store.MemoryStore
	timers  *timer.Service
	gateway *rooms.Gateway
	handler *handlers.Handler
	router  http.Handler
}

// NewApp wires the store, timers, transports and routes. prompts is the
// YAML prompt bank.
func NewApp(cfg *config.ServerConfig, prompts []byte, opts *handlers.RouterOptions) (*App, error) {
	bank, err := game.LoadPromptBank(prompts)
	if err != nil {
		return nil, err
	}
	registry, err := game.NewDefaultRegistry(cfg.Game.EngineOptions(), bank)
	if err != nil {
		return nil, fmt.Errorf("failed to build game registry: %w", err)
	}

	s := store.NewMemoryStore(registry, cfg)
	timers := timer.NewService(cfg.Game.TickInterval, cfg.Game.TimerSweepInterval, s.HasRoom)

	bus := handlers.NewEventBus()
	hub := handlers.NewHub(cfg.Server.AllowedOrigins, cfg.Server.ActionRateLimit, cfg.Server.ActionBurst)
	gw := rooms.NewGateway(s, timers, rooms.NewBroadcaster(s, hub, bus), cfg.Game)
	h := handlers.New(gw, bus, hub, cfg)

	return &App{
		cfg:     cfg,
		store:   s,
		timers:  timers,
		gateway: gw,
		handler: h,
		router:  handlers.SetupRouter(h, cfg, opts),
	}, nil
}

// Router returns the app's HTTP handler
func (a *App) Router() http.Handler {
	return a.router
}

// Addr is the listen address from the config
func (a *App) Addr() string {
	return net.JoinHostPort(a.cfg.Server.Host, a.cfg.Server.Port)
}

// Serve runs the HTTP server, the timer sweep and the room janitor until ctx
// is cancelled or one of them fails, then shuts everything down.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout, // 0 for SSE support
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("starting server")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error { return a.timers.Run(gctx) })
	g.Go(func() error { return a.gateway.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.gateway.Shutdown()
	if err != nil {
		return err
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}
