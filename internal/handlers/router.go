package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"partygame/internal/config"
	localMiddleware "partygame/internal/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
}

// SetupRouter creates the application router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerConfig, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if !opts.DisableRequestLogger {
		r.Use(requestLogger)
	}
	r.Use(middleware.Recoverer)

	r.Use(localMiddleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	if !opts.DisableRateLimiting {
		rateLimiter := localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
	}

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	// Long-lived connections must not sit behind the request timeout.
	r.Get("/ws", h.ServeWS)
	r.Get("/rooms/{code}/host/stream", ValidateSSERequest(h.StreamHost))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout(cfg)))

		r.Post("/rooms", h.CreateRoom)
		r.Get("/rooms", h.ListRooms)
		r.Get("/rooms/{code}", h.GetRoom)
		r.Delete("/rooms/{code}", h.DeleteRoom)
		r.Get("/rooms/{code}/qr", h.RoomQR)
		r.Get("/rooms/{code}/host", h.HostPage)

		r.Get("/games", h.ListGames)
		r.Get("/stats", h.Stats)
	})

	// Health check endpoints (no auth required)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil || len(h.store.Registry().Types()) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Store not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

func requestTimeout(cfg *config.ServerConfig) time.Duration {
	if cfg.Server.RequestTimeout > 0 {
		return cfg.Server.RequestTimeout
	}
	return 60 * time.Second
}
