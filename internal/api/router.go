package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/fusecms/engine/internal/api/handlers"
	mw "github.com/fusecms/engine/internal/api/middleware"
)

type Dependencies struct {
	DefinitionsHandler *handlers.DefinitionsHandler
	RelationsHandler   *handlers.RelationsHandler
	EntriesHandler     *handlers.EntriesHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler()
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		// Relation instances
		api.Route("/relations", func(rr chi.Router) {
			rr.Get("/", dep.RelationsHandler.List)
			rr.Post("/", dep.RelationsHandler.Create)
		})

		// Relation definitions
		api.Route("/relation-definitions", func(dr chi.Router) {
			dr.Get("/", dep.DefinitionsHandler.List)
			dr.Post("/", dep.DefinitionsHandler.Create)
			dr.Get("/{id}", dep.DefinitionsHandler.Get)
			dr.Put("/{id}", dep.DefinitionsHandler.Update)
			dr.Delete("/{id}", dep.DefinitionsHandler.Delete)
			dr.Get("/{id}/candidates", dep.DefinitionsHandler.Candidates)
		})

		// Entry-scoped operations
		api.Route("/entries", func(er chi.Router) {
			er.Post("/{id}/relations/commit", dep.EntriesHandler.Commit)
			er.Delete("/{id}", dep.EntriesHandler.Delete)
		})
	})

	return r
}
