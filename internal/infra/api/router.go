package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the application router around an already-wired Handler.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", root)
	r.Get("/health", health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/count", h.Count)
		r.Get("/distribute_users", h.DistributeUsers)
		r.Get("/restore_table", h.RestoreTable)
		r.Get("/snapshots", h.ListSnapshots)
	})

	return r
}

func root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to the JBE Management API",
		"status":  "operational",
		"endpoints": map[string]string{
			"count":            "/api/v1/count",
			"distribute_users": "/api/v1/distribute_users",
			"restore_table":    "/api/v1/restore_table",
			"snapshots":        "/api/v1/snapshots",
		},
	})
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "jbe-management",
	})
}
