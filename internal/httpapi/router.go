package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/garage", func(r chi.Router) {
			r.Get("/", s.handleGarageStatus)
			r.Post("/trigger", s.handleGarageTrigger)
			r.Post("/auto-close/cancel", s.handleAutoCloseCancel)
		})

		r.Post("/access/scan", s.handleScan)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)

			// Mutations require the admin secret.
			r.Group(func(r chi.Router) {
				r.Use(s.adminOnlyMiddleware)
				r.Post("/", s.handleUpsertUser)
				r.Put("/{uid}", s.handleUpdateUser)
				r.Delete("/{uid}", s.handleDeleteUser)
			})
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", s.handleGetSchedule)

			r.Group(func(r chi.Router) {
				r.Use(s.adminOnlyMiddleware)
				r.Put("/", s.handlePutSchedule)
			})
		})

		r.Get("/events", s.handleListEvents)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
		"users":   s.registry.Count(),
	}
	if s.garage != nil {
		body["garage_state"] = string(s.garage.State())
	}
	writeJSON(w, http.StatusOK, body)
}
