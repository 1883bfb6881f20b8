// Package rest exposes the playlist services over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
	"github.com/ewilliams-labs/spotilyze/internal/core/services"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc         *services.Orchestrator
	rockArtists []string
	router      chi.Router
}

// NewHandler initializes the HTTP adapter and sets up routes. A nil
// rockArtists uses the default reference list.
func NewHandler(svc *services.Orchestrator, rockArtists []string) *Handler {
	h := &Handler{
		svc:         svc,
		rockArtists: rockArtists,
		router:      chi.NewRouter(),
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Logger)
	h.router.Use(middleware.Recoverer)

	h.router.Get("/health", h.HealthCheck)

	h.router.Route("/playlists/{id}", func(r chi.Router) {
		r.Get("/tracks", h.GetPlaylistTracks)
		r.Get("/analysis", h.GetPlaylistAnalysis)
		r.Post("/snapshots", h.CreateSnapshot)
		r.Get("/snapshots/latest", h.GetLatestSnapshot)
	})
	h.router.Get("/snapshots/{id}", h.GetSnapshot)
	h.router.Post("/snapshots/{id}/previews", h.QueuePreviews)

	h.router.Get("/search", h.Search)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var statusErr *ports.StatusError
	switch {
	case errors.Is(err, domain.ErrInvalidPlaylistID), errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPreviewsDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.As(err, &statusErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("WARN rest: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARN rest: encode response: %v", err)
	}
}
