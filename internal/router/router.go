package router

import (
	"net/http"

	"rfid-asset-tracker/internal/handler"
	"rfid-asset-tracker/internal/middleware"
	"rfid-asset-tracker/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler      *handler.Handler
	AssetHandler *handler.AssetHandler
	QueueHandler *handler.QueueHandler
	Hub          *ws.Hub
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// Live subscriber endpoint
	if cfg.Hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(cfg.Hub, w, r)
		})
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.AssetHandler != nil {
			r.Route("/assets/{tag_id}", func(r chi.Router) {
				r.Get("/", cfg.AssetHandler.GetAsset)
				r.Get("/movements", cfg.AssetHandler.GetMovements)
			})
		}

		if cfg.QueueHandler != nil {
			r.Route("/queue", func(r chi.Router) {
				r.Get("/stats", cfg.QueueHandler.GetStats)
				r.Post("/drain", cfg.QueueHandler.Drain)
			})
		}
	})

	return r
}
