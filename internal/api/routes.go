package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Post("/input", h.Input)

			r.Get("/goals", h.ListGoals)
			r.Post("/goals", h.CreateGoal)
			r.Get("/goals/{id}", h.GetGoal)
			r.Patch("/goals/{id}", h.RenameGoal)
			r.Delete("/goals/{id}", h.DeleteGoal)
			r.Post("/goals/{id}/milestones", h.AddMilestone)
			r.Post("/goals/{id}/milestones/{milestoneID}/toggle", h.ToggleMilestone)

			r.Get("/report", h.Report)
			r.Get("/export", h.Export)
			r.Get("/backup", h.Backup)
			r.Post("/restore", h.Restore)

			r.Get("/queue", h.QueueStatus)
			r.Put("/connectivity", h.SetConnectivity)
		})
	})

	return r
}
