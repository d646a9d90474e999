package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Dino-is-real/vmeet-v2/internal/api/middleware"
	"github.com/Dino-is-real/vmeet-v2/internal/handlers"
)

// RouterConfig holds the tunables of the HTTP surface.
type RouterConfig struct {
	RateLimitPerMinute int // 0 disables rate limiting
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(32 * 1024)) // notes can be a few KB
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	if cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute, logger)
		r.Use(limiter.Middleware)
	}

	// CORS - the lobby UI is served from a different origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/events", h.Events)

	r.Get("/me", h.GetUser)
	r.Put("/me", h.SetUser)

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", h.ListRooms)
		r.Post("/", h.CreateRoom)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetRoom)
			r.Put("/", h.PutRoom)
			r.Delete("/", h.DeleteRoom)

			r.Post("/participants", h.UpdateParticipants)
			r.Post("/join", h.JoinRoom)
			r.Post("/leave", h.LeaveRoom)
			r.Post("/keepalive", h.KeepAlive)

			r.Get("/notes", h.GetNotes)
			r.Put("/notes", h.SaveNotes)
			r.Delete("/notes", h.ClearNotes)
		})
	})

	return r
}
