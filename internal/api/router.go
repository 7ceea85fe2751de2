package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/tasksort/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// Segmentation.
	r.Get("/blocks/*", h.Blocks)
	r.Get("/block/*", h.BlockAt)

	// Tasks.
	r.Post("/sort/*", h.SortTasks)
	r.Get("/tasks", h.ListTasks)

	return r
}
