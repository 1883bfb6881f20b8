package spotify

import (
	"log"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// mapTrackToDomain converts a wire track. Missing fields stay nil and an
// unparseable release date is dropped.
func mapTrackToDomain(st spotifyTrack) domain.TrackRef {
	dt := domain.TrackRef{
		ID:          st.ID,
		Name:        st.Name,
		Popularity:  st.Popularity,
		DurationMs:  st.DurationMs,
		TrackNumber: st.TrackNumber,
		DiscNumber:  st.DiscNumber,
		PreviewURL:  st.PreviewURL,
	}

	if st.Artists != nil {
		dt.Artists = make([]string, 0, len(st.Artists))
		for _, a := range st.Artists {
			if a.Name != nil {
				dt.Artists = append(dt.Artists, *a.Name)
			}
		}
	}

	if st.Album != nil {
		dt.AlbumName = st.Album.Name
		dt.AlbumID = st.Album.ID
		dt.AlbumTotalTracks = st.Album.TotalTracks
		if st.Album.ReleaseDate != nil && *st.Album.ReleaseDate != "" {
			precision := ""
			if st.Album.ReleaseDatePrecision != nil {
				precision = *st.Album.ReleaseDatePrecision
			}
			if rd, err := domain.ParseReleaseDate(*st.Album.ReleaseDate, precision); err == nil {
				dt.ReleaseDate = &rd
			} else {
				log.Printf("DEBUG spotify adapter: dropping release date: %v", err)
			}
		}
	}

	return dt
}

// mapPageToDomain converts a playlist page. Items whose track is null or is
// not a track (episodes) become items without a track.
func mapPageToDomain(p playlistItemsPage) domain.ItemPage {
	page := domain.ItemPage{
		Items:  make([]domain.PlaylistItem, 0, len(p.Items)),
		Offset: p.Offset,
		Total:  p.Total,
	}
	if p.Next != nil {
		page.Next = *p.Next
	}
	for _, item := range p.Items {
		if item.Track == nil || (item.Track.Type != nil && *item.Track.Type != "track") {
			page.Items = append(page.Items, domain.PlaylistItem{})
			continue
		}
		tr := mapTrackToDomain(*item.Track)
		page.Items = append(page.Items, domain.PlaylistItem{Track: &tr})
	}
	return page
}

// mapFeaturesToDomain returns nil for a null entry.
func mapFeaturesToDomain(af *spotifyAudioFeatures) *domain.FeatureRecord {
	if af == nil {
		return nil
	}
	rec := &domain.FeatureRecord{
		FeatureValues: domain.FeatureValues{
			Danceability:     af.Danceability,
			Energy:           af.Energy,
			Valence:          af.Valence,
			Tempo:            af.Tempo,
			Acousticness:     af.Acousticness,
			Instrumentalness: af.Instrumentalness,
			Liveness:         af.Liveness,
			Speechiness:      af.Speechiness,
		},
	}
	if af.ID != nil {
		rec.ID = *af.ID
	}
	return rec
}
