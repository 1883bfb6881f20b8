package spotify

// Wire shapes of the Web API. Pointers distinguish absent or null fields
// from zero values.

type spotifyArtist struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type spotifyAlbum struct {
	ID                   *string `json:"id"`
	Name                 *string `json:"name"`
	TotalTracks          *int    `json:"total_tracks"`
	ReleaseDate          *string `json:"release_date"`
	ReleaseDatePrecision *string `json:"release_date_precision"`
}

type spotifyTrack struct {
	ID          *string         `json:"id"`
	Name        *string         `json:"name"`
	Artists     []spotifyArtist `json:"artists"`
	Album       *spotifyAlbum   `json:"album"`
	Popularity  *int            `json:"popularity"`
	DurationMs  *int            `json:"duration_ms"`
	TrackNumber *int            `json:"track_number"`
	DiscNumber  *int            `json:"disc_number"`
	PreviewURL  *string         `json:"preview_url"`
	Type        *string         `json:"type"`
}
