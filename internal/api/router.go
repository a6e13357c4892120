package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dextracker/internal/metrics"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Set before Route so the /api subrouter inherits both. Static files,
	// "/" included, are served from NotFound so they never answer 405.
	r.NotFound(s.handleStatic)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleGetState)
		r.Put("/pokemon/{id}", s.handlePutPokemon)

		r.Get("/prefs", s.handleGetPrefs)
		r.Patch("/prefs", s.handlePatchPrefs)
	})

	r.Get("/healthz", s.handleHealth)

	if s.metricsCfg.Enabled && s.gatherer != nil {
		r.Method(http.MethodGet, s.metricsCfg.Path, metrics.HTTPHandler(s.gatherer))
	}

	return r
}
