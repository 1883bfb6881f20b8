package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ewilliams-labs/spotilyze/internal/core/analysis"
	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

type queuedResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Queued     int    `json:"queued"`
}

// GetPlaylistTracks handles GET /playlists/{id}/tracks
func (h *Handler) GetPlaylistTracks(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.PlaylistTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetPlaylistAnalysis handles GET /playlists/{id}/analysis?top=N&rock=a,b
func (h *Handler) GetPlaylistAnalysis(w http.ResponseWriter, r *http.Request) {
	opts := analysis.Options{RockArtists: h.rockArtists}
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		opts.TopN = n
	}
	if v := r.URL.Query().Get("rock"); v != "" {
		opts.RockArtists = strings.Split(v, ",")
	}

	report, err := h.svc.Analyze(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreateSnapshot handles POST /playlists/{id}/snapshots
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.SnapshotPlaylist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/snapshots/"+s.ID)
	writeJSON(w, http.StatusCreated, s)
}

// GetLatestSnapshot handles GET /playlists/{id}/snapshots/latest
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.LatestSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshot handles GET /snapshots/{id}
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// QueuePreviews handles POST /snapshots/{id}/previews
func (h *Handler) QueuePreviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := h.svc.QueuePreviewAnalysis(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, queuedResponse{SnapshotID: id, Queued: n})
}

// Search handles GET /search?artist=&track=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Search(r.Context(), q.Get("artist"), q.Get("track"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if res.Hits == nil {
		res.Hits = []domain.SearchHit{}
	}
	writeJSON(w, http.StatusOK, res)
}
