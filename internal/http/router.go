// Package http exposes the interview service over HTTP.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ai-interview-service/internal/observability/metrics"
)

// RouterOptions configures cross-cutting router behaviour.
type RouterOptions struct {
	CORSOrigins []string
	Metrics     *metrics.Metrics
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.Metrics == nil {
		opts.Metrics = metrics.DefaultMetrics
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{
			headerResponseText,
			headerResponseTranscript,
			headerResponseIsEnd,
			headerResponseIntent,
		},
		MaxAge: 300,
	}))

	r.Get("/health", h.health)

	r.Post("/start", h.start(shapeDefault))
	r.Post("/exchange", h.exchange(shapeDefault))
	r.Post("/score", h.score)
	r.Get("/sessions/{sessionID}", h.getSession)

	// Routes kept for clients of the earlier voice deployment.
	r.Route("/api/voice-interview", func(r chi.Router) {
		r.Post("/", h.exchange(shapeLegacy))
		r.Post("/start", h.start(shapeLegacy))
		r.Post("/send-audio", h.exchange(shapeLegacy))
		r.Post("/score", h.score)
	})

	return r
}
