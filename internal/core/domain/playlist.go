package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("domain: not found")
	ErrInvalidPlaylistID = errors.New("domain: invalid playlist id")
	ErrEmptyQuery        = errors.New("domain: artist or track query required")
)

// PlaylistItem wraps a playlist entry. Track is nil for removed or
// regionally unavailable tracks.
type PlaylistItem struct {
	Track *TrackRef
}

// ItemPage is one page of playlist items as returned by the catalog.
type ItemPage struct {
	Items  []PlaylistItem
	Next   string
	Offset int
	Total  int
}

// HasNext reports whether the catalog announced a further page.
func (p ItemPage) HasNext() bool {
	return p.Next != ""
}

// ParsePlaylistID extracts the playlist id from a bare id, an open.spotify.com
// URL or a spotify:playlist: URI.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidPlaylistID
	}

	if strings.HasPrefix(ref, "spotify:") {
		parts := strings.Split(ref, ":")
		if len(parts) != 3 || parts[1] != "playlist" || parts[2] == "" {
			return "", ErrInvalidPlaylistID
		}
		return parts[2], nil
	}

	id := ref
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if id == "" {
		return "", ErrInvalidPlaylistID
	}
	return id, nil
}

// Snapshot is a saved copy of an ingested playlist table. PreviewEnergy
// holds loudness estimates computed later from track previews, by track id.
type Snapshot struct {
	ID            string             `json:"id"`
	PlaylistID    string             `json:"playlist_id"`
	CreatedAt     time.Time          `json:"created_at"`
	Table         Table              `json:"table"`
	PreviewEnergy map[string]float64 `json:"preview_energy,omitempty"`
}

// PreviewJobs lists one job per row that has both a track id and a preview URL.
func (s Snapshot) PreviewJobs() []PreviewJob {
	var jobs []PreviewJob
	for _, r := range s.Table.Rows {
		if r.TrackID == nil || r.PreviewURL == nil || *r.PreviewURL == "" {
			continue
		}
		jobs = append(jobs, PreviewJob{SnapshotID: s.ID, TrackID: *r.TrackID, PreviewURL: *r.PreviewURL})
	}
	return jobs
}

// PreviewJob asks for the loudness estimate of one track preview.
type PreviewJob struct {
	SnapshotID string
	TrackID    string
	PreviewURL string
}
