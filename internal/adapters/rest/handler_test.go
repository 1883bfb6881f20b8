package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/spotilyze/internal/adapters/sqlite"
	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
	"github.com/ewilliams-labs/spotilyze/internal/core/services"
)

// --- Mocks ---

// Handler depends on the concrete *Orchestrator, so tests build a real one
// over mock catalog adapters and an in-memory sqlite store.

type mockCatalog struct {
	err error
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func (m *mockCatalog) PlaylistItems(ctx context.Context, playlistID string) (domain.ItemPage, error) {
	if m.err != nil {
		return domain.ItemPage{}, m.err
	}
	if playlistID == "empty" {
		return domain.ItemPage{}, nil
	}
	return domain.ItemPage{Total: 2, Items: []domain.PlaylistItem{
		{Track: &domain.TrackRef{
			ID: strPtr("kp"), Name: strPtr("Karma Police"), Artists: []string{"Radiohead"},
			Popularity: intPtr(80), PreviewURL: strPtr("https://p.scdn.co/mp3-preview/kp"),
		}},
		{Track: &domain.TrackRef{
			ID: strPtr("fg"), Name: strPtr("Feel Good Inc."), Artists: []string{"Gorillaz"},
			Popularity: intPtr(85),
		}},
	}}, nil
}

func (m *mockCatalog) NextPage(ctx context.Context, page domain.ItemPage) (domain.ItemPage, error) {
	return domain.ItemPage{}, nil
}

func (m *mockCatalog) AudioFeatures(ctx context.Context, ids []string) ([]*domain.FeatureRecord, error) {
	out := make([]*domain.FeatureRecord, len(ids))
	for i, id := range ids {
		e := 0.5
		out[i] = &domain.FeatureRecord{ID: id, FeatureValues: domain.FeatureValues{Energy: &e}}
	}
	return out, nil
}

type mockSearch struct{}

func (m *mockSearch) SearchArtists(ctx context.Context, name string, limit int) ([]domain.ArtistRef, error) {
	return []domain.ArtistRef{{ID: "rh", Name: "Radiohead"}}, nil
}

func (m *mockSearch) ArtistTopTracks(ctx context.Context, artistID string) ([]domain.TrackRef, error) {
	return []domain.TrackRef{{ID: strPtr("kp"), Name: strPtr("Karma Police"), Artists: []string{"Radiohead"}}}, nil
}

func (m *mockSearch) SearchTracks(ctx context.Context, q ports.TrackQuery, limit int) ([]domain.TrackRef, error) {
	return []domain.TrackRef{{ID: strPtr("kp"), Name: strPtr("Karma Police"), Artists: []string{"Radiohead"}}}, nil
}

type mockQueue struct {
	jobs []domain.PreviewJob
}

func (m *mockQueue) Submit(job domain.PreviewJob) bool {
	m.jobs = append(m.jobs, job)
	return true
}

func (m *mockQueue) SubmitWait(ctx context.Context, job domain.PreviewJob) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func newTestHandler(t *testing.T, catalog *mockCatalog, queue ports.PreviewQueue) *Handler {
	t.Helper()
	repo, err := sqlite.NewAdapter(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewHandler(services.NewOrchestrator(catalog, &mockSearch{}, repo, queue), nil)
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHandler_HealthCheck(t *testing.T) {
	rec := do(newTestHandler(t, &mockCatalog{}, nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandler_GetPlaylistTracks(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		catalogErr     error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success: full table",
			path:           "/playlists/pl-1/tracks",
			expectedStatus: http.StatusOK,
			expectedBody:   `"has_features":true`,
		},
		{
			name:           "Success: empty playlist",
			path:           "/playlists/empty/tracks",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"columns":[],"has_features":false,"rows":[]}`,
		},
		{
			name:           "Bad Gateway: catalog status",
			path:           "/playlists/pl-1/tracks",
			catalogErr:     &ports.StatusError{Op: "spotify adapter: playlist items", StatusCode: 401},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "unexpected status 401",
		},
		{
			name:           "Bad Request: malformed uri",
			path:           "/playlists/spotify:album:x/tracks",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &mockCatalog{err: tt.catalogErr}, nil)
			rec := do(h, http.MethodGet, tt.path)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			if tt.expectedBody != "" && !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_GetPlaylistAnalysis(t *testing.T) {
	h := newTestHandler(t, &mockCatalog{}, nil)

	rec := do(h, http.MethodGet, "/playlists/pl-1/analysis?top=1&rock=radiohead")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Tracks    int `json:"tracks"`
		TopTracks []struct {
			Track string `json:"track"`
		} `json:"top_tracks"`
		Rock []struct {
			Group  string `json:"group"`
			Tracks int    `json:"tracks"`
		} `json:"rock_vs_non_rock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Tracks)
	require.Len(t, report.TopTracks, 1)
	assert.Equal(t, "Feel Good Inc.", report.TopTracks[0].Track)
	require.Len(t, report.Rock, 2)
	assert.Equal(t, 1, report.Rock[0].Tracks)

	rec = do(h, http.MethodGet, "/playlists/pl-1/analysis?top=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Snapshots(t *testing.T) {
	queue := &mockQueue{}
	h := newTestHandler(t, &mockCatalog{}, queue)

	rec := do(h, http.MethodPost, "/playlists/pl-1/snapshots")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/snapshots/"+created.ID, rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/snapshots/"+created.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"playlist_id":"pl-1"`)

	rec = do(h, http.MethodGet, "/playlists/pl-1/snapshots/latest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = do(h, http.MethodPost, "/snapshots/"+created.ID+"/previews")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queued":1`)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "kp", queue.jobs[0].TrackID)

	rec = do(h, http.MethodGet, "/snapshots/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_QueuePreviews_Disabled(t *testing.T) {
	h := newTestHandler(t, &mockCatalog{}, nil)
	rec := do(h, http.MethodPost, "/snapshots/any/previews")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedBody   string
	}{
		{name: "artist", query: "?artist=radiohead", expectedStatus: http.StatusOK, expectedBody: `"mode":"artist"`},
		{name: "track", query: "?track=karma", expectedStatus: http.StatusOK, expectedBody: "Karma Police"},
		{name: "both", query: "?artist=Radiohead&track=Karma", expectedStatus: http.StatusOK, expectedBody: `"mode":"artist_track"`},
		{name: "empty", query: "?artist=%20", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestHandler(t, &mockCatalog{}, nil), http.MethodGet, "/search"+tt.query)
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
		})
	}
}
