package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/serenemind/emotion-monitor/internal/http/handlers"
	httpmiddleware "github.com/serenemind/emotion-monitor/internal/http/middleware"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	StatusHandler  *handlers.StatusHandler
	MetricsHandler http.Handler
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", cfg.StatusHandler.Healthz)
	r.Get("/status", cfg.StatusHandler.GetStatus)
	r.Get("/interventions", cfg.StatusHandler.ListInterventions)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
