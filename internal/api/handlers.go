package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"dextracker/internal/store"
)

// stateResponse is the body of GET /api/state.
type stateResponse struct {
	Caught store.Snapshot `json:"caught"`
}

// recordRequest is the body of PUT /api/pokemon/{id}.
type recordRequest struct {
	Normal bool `json:"normal"`
	Shiny  bool `json:"shiny"`
}

// prefsResponse mirrors store.Prefs but always carries both fields.
type prefsResponse struct {
	ActiveGameID     *string           `json:"activeGameId"`
	ActiveViewByGame map[string]string `json:"activeViewByGame"`
}

func newPrefsResponse(p store.Prefs) prefsResponse {
	resp := prefsResponse{ActiveViewByGame: p.ActiveViewByGame}
	if p.ActiveGameID != "" {
		id := p.ActiveGameID
		resp.ActiveGameID = &id
	}
	if resp.ActiveViewByGame == nil {
		resp.ActiveViewByGame = map[string]string{}
	}
	return resp
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{Caught: s.store.Get()})
}

func (s *Server) handlePutPokemon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if decoded, err := url.PathUnescape(id); err == nil {
		id = decoded
	}
	if id == "" {
		writeStatus(w, http.StatusNotFound)
		return
	}

	// An unreadable body counts as "not caught".
	var body recordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Debug("malformed record body, treating as uncaught", "id", id, "error", err)
		body = recordRequest{}
	}

	// The write is acknowledged regardless of the client, so a disconnect
	// must not abort the save.
	rec, err := s.store.Set(context.WithoutCancel(r.Context()), id, body.Normal, body.Shiny)
	s.recorder.IncStateWrite()
	if err != nil {
		s.recorder.IncPersistFailure()
		s.logger.Error("record updated in memory but not persisted", "id", id, "error", err)
	}
	s.observeStore()

	s.logger.Debug("record updated", "id", id, "normal", rec.Normal, "shiny", rec.Shiny)
	writeStatus(w, http.StatusNoContent)
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newPrefsResponse(s.store.Prefs()))
}

func (s *Server) handlePatchPrefs(w http.ResponseWriter, r *http.Request) {
	var patch store.PrefsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	prefs, err := s.store.UpdatePrefs(context.WithoutCancel(r.Context()), patch)
	switch {
	case errors.Is(err, store.ErrInvalidView):
		writeBadRequest(w, err.Error())
		return
	case err != nil:
		s.recorder.IncPersistFailure()
		s.logger.Error("prefs updated in memory but not persisted", "error", err)
	}

	writeJSON(w, http.StatusOK, newPrefsResponse(prefs))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"records": s.store.Stats().Records,
	})
}
