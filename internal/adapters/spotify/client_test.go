package spotify_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/spotilyze/internal/adapters/spotify"
	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
	"github.com/ewilliams-labs/spotilyze/internal/core/services"
)

// --- Helpers ---

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func compareTrackRef(t *testing.T, got domain.TrackRef, want map[string]any) {
	t.Helper()

	fields := map[string]any{
		"id":          deref(got.ID),
		"name":        deref(got.Name),
		"album":       deref(got.AlbumName),
		"popularity":  deref(got.Popularity),
		"duration_ms": deref(got.DurationMs),
		"preview_url": deref(got.PreviewURL),
	}
	if got.ReleaseDate != nil {
		fields["release_date"] = got.ReleaseDate.String()
	} else {
		fields["release_date"] = nil
	}
	for k, w := range want {
		if fields[k] != w {
			t.Errorf("%s: got %v, want %v", k, fields[k], w)
		}
	}
}

const playlistPage1 = `{
	"offset": 0,
	"total": 3,
	"next": "%s/playlists/p1/tracks?offset=2&limit=2",
	"items": [
		{
			"track": {
				"id": "t1",
				"name": "Around the World",
				"type": "track",
				"artists": [ { "name": "Red Hot Chili Peppers" }, { "name": "Guest" } ],
				"album": {
					"id": "a1",
					"name": "Californication",
					"total_tracks": 15,
					"release_date": "1999-06-08",
					"release_date_precision": "day"
				},
				"popularity": 71,
				"duration_ms": 238800,
				"track_number": 1,
				"disc_number": 1,
				"preview_url": null
			}
		},
		{ "track": null }
	]
}`

const playlistPage2 = `{
	"offset": 2,
	"total": 3,
	"next": null,
	"items": [
		{
			"track": {
				"id": "t2",
				"name": "Sparse",
				"type": "track",
				"album": { "name": "Loose", "release_date": "someday", "release_date_precision": "day" }
			}
		},
		{ "track": { "id": "ep1", "name": "Podcast", "type": "episode" } }
	]
}`

// --- Tests ---

func TestClient_PlaylistItems(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlists/p1/tracks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("offset") == "2" {
			fmt.Fprint(w, playlistPage2)
			return
		}
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit: got %q, want 100", got)
		}
		fmt.Fprintf(w, playlistPage1, ts.URL)
	}))
	defer ts.Close()

	client := spotify.NewClient(ts.Client(), ts.URL)

	page, err := client.PlaylistItems(context.Background(), "p1")
	if err != nil {
		t.Fatalf("PlaylistItems: unexpected error: %v", err)
	}
	if !page.HasNext() || len(page.Items) != 2 || page.Total != 3 {
		t.Fatalf("page 1: got next=%q items=%d total=%d", page.Next, len(page.Items), page.Total)
	}
	if page.Items[1].Track != nil {
		t.Fatalf("null track should map to an item without track")
	}

	first := *page.Items[0].Track
	compareTrackRef(t, first, map[string]any{
		"id":           "t1",
		"name":         "Around the World",
		"album":        "Californication",
		"popularity":   71,
		"duration_ms":  238800,
		"preview_url":  nil,
		"release_date": "1999-06-08",
	})
	if strings.Join(first.Artists, ", ") != "Red Hot Chili Peppers, Guest" {
		t.Errorf("artists: got %v", first.Artists)
	}

	page, err = client.NextPage(context.Background(), page)
	if err != nil {
		t.Fatalf("NextPage: unexpected error: %v", err)
	}
	if page.HasNext() {
		t.Fatalf("page 2 should be last")
	}
	compareTrackRef(t, *page.Items[0].Track, map[string]any{
		"id":           "t2",
		"album":        "Loose",
		"popularity":   nil,
		"release_date": nil,
	})
	if page.Items[0].Track.Artists != nil {
		t.Errorf("absent artists should stay nil, got %v", page.Items[0].Track.Artists)
	}
	if page.Items[1].Track != nil {
		t.Errorf("episodes should map to an item without track")
	}
}

func TestClient_PlaylistItems_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
		wantStatus int
	}{
		{name: "not found", statusCode: http.StatusNotFound, wantErr: domain.ErrNotFound},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "forbidden private playlist", statusCode: http.StatusForbidden, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, `{"error":{"status":0,"message":"nope"}}`)
			}))
			defer ts.Close()

			_, err := spotify.NewClient(ts.Client(), ts.URL).PlaylistItems(context.Background(), "p1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			var se *ports.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ports.StatusError, got %T: %v", err, err)
			}
			if se.StatusCode != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", se.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestClient_AudioFeatures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio-features" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "t1,t2" {
			t.Errorf("ids: got %q, want t1,t2", got)
		}
		fmt.Fprint(w, `{"audio_features":[
			{"id":"t1","danceability":0.5,"energy":0.9,"valence":0.3,"tempo":121.5,"speechiness":0.05},
			null
		]}`)
	}))
	defer ts.Close()

	client := spotify.NewClient(ts.Client(), ts.URL)
	recs, err := client.AudioFeatures(context.Background(), []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("AudioFeatures: unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	if recs[1] != nil {
		t.Fatalf("null entry should stay nil, got %+v", recs[1])
	}
	if recs[0].ID != "t1" || *recs[0].Energy != 0.9 || *recs[0].Tempo != 121.5 {
		t.Fatalf("record: got %+v", recs[0])
	}
	if recs[0].Liveness != nil {
		t.Fatalf("absent liveness should be nil")
	}
}

func TestClient_AudioFeatures_RejectsOversizedBatch(t *testing.T) {
	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}
	_, err := spotify.NewClient(http.DefaultClient, "http://unused.invalid").AudioFeatures(context.Background(), ids)
	if err == nil {
		t.Fatalf("expected error for 101 ids")
	}
}

// TestIngestor_EndToEnd drives the ingestor through the HTTP client against
// a fake catalog with 150 tracks on two pages and one failing feature batch.
func TestIngestor_EndToEnd(t *testing.T) {
	const total = 150
	featureCalls := 0

	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlists/big/tracks":
			offset := 0
			fmt.Sscan(r.URL.Query().Get("offset"), &offset)
			end := min(offset+100, total)
			items := make([]map[string]any, 0, end-offset)
			for i := offset; i < end; i++ {
				items = append(items, map[string]any{"track": map[string]any{
					"id": fmt.Sprintf("id%03d", i), "name": fmt.Sprintf("Song %d", i), "type": "track",
					"artists": []map[string]any{{"name": "Metallica"}}, "popularity": i % 100,
				}})
			}
			body := map[string]any{"items": items, "offset": offset, "total": total, "next": nil}
			if end < total {
				body["next"] = fmt.Sprintf("%s/playlists/big/tracks?offset=%d", ts.URL, end)
			}
			_ = json.NewEncoder(w).Encode(body)
		case "/audio-features":
			featureCalls++
			ids := strings.Split(r.URL.Query().Get("ids"), ",")
			if featureCalls == 1 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			feats := make([]map[string]any, 0, len(ids))
			for _, id := range ids {
				feats = append(feats, map[string]any{"id": id, "energy": 0.8})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"audio_features": feats})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	httpClient := &http.Client{Transport: spotify.NewRetryTransport(nil, spotify.RetryConfig{MaxRetries: 1, BaseBackoff: time.Millisecond})}
	ing := services.NewIngestor(spotify.NewClient(httpClient, ts.URL))

	table, err := ing.Fetch(context.Background(), "big")
	if err != nil {
		t.Fatalf("Fetch: unexpected error: %v", err)
	}
	if table.Len() != total {
		t.Fatalf("rows: got %d, want %d", table.Len(), total)
	}
	if featureCalls != 2 {
		t.Fatalf("feature calls: got %d, want 2", featureCalls)
	}
	if _, ok := table.Rows[0].Number(domain.ColumnEnergy); ok {
		t.Fatalf("row 0 energy should be null after the failed batch")
	}
	if v, ok := table.Rows[120].Number(domain.ColumnEnergy); !ok || v != 0.8 {
		t.Fatalf("row 120 energy: got %v/%v, want 0.8", v, ok)
	}
}
