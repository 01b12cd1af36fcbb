package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trapline-ai/trapline/internal/engagement"
	httpmiddleware "github.com/trapline-ai/trapline/internal/http/middleware"
	"github.com/trapline-ai/trapline/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Engagement         *engagement.Handler
	MetricsHandler     http.Handler
	APIKey             string
	RateLimitPerSecond float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

var startTime = time.Now()

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/", describeService)
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated conversation API
	r.Route("/api/conversation", func(api chi.Router) {
		api.Use(httpmiddleware.APIKey(cfg.APIKey))
		if cfg.RateLimitPerSecond > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		api.Post("/", cfg.Engagement.Message)
		api.Get("/{sessionID}", cfg.Engagement.Transcript)
		api.Delete("/{sessionID}", cfg.Engagement.Reset)
	})

	return r
}

func describeService(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"service": "trapline",
		"purpose": "adaptive scam engagement and intelligence extraction",
		"endpoints": map[string]string{
			"conversation": "POST /api/conversation",
			"transcript":   "GET /api/conversation/{sessionID}",
			"reset":        "DELETE /api/conversation/{sessionID}",
			"health":       "GET /health",
			"metrics":      "GET /metrics",
		},
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
