package domain

// SearchMode says which fields a catalog search was driven by.
type SearchMode string

const (
	SearchByArtist SearchMode = "artist"
	SearchByTrack  SearchMode = "track"
	SearchByBoth   SearchMode = "artist_track"
)

// ArtistRef is a catalog artist as returned by search.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchHit is one track row of a search result.
type SearchHit struct {
	TrackID    string `json:"track_id"`
	Track      string `json:"track"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Popularity *int   `json:"popularity"`
}

// SearchResult is the outcome of an artist and/or track search. Artist is
// set in artist-only mode when a matching artist was found. Fallback marks a
// combined search that had to retry with the track name only.
type SearchResult struct {
	Mode     SearchMode  `json:"mode"`
	Artist   *ArtistRef  `json:"artist,omitempty"`
	Hits     []SearchHit `json:"hits"`
	Fallback bool        `json:"fallback"`
}
