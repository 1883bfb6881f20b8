package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// maxAudioFeatureIDs is the Web API limit for /audio-features.
const maxAudioFeatureIDs = 100

type spotifyAudioFeatures struct {
	ID               *string  `json:"id"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Valence          *float64 `json:"valence"`
	Tempo            *float64 `json:"tempo"`
	Acousticness     *float64 `json:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Liveness         *float64 `json:"liveness"`
	Speechiness      *float64 `json:"speechiness"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
}

// AudioFeatures looks up features for up to 100 track ids. Entries the
// catalog answers with null stay nil in the result.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) ([]*domain.FeatureRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxAudioFeatureIDs {
		return nil, fmt.Errorf("spotify adapter: %d ids exceeds audio features limit of %d", len(ids), maxAudioFeatureIDs)
	}

	endpoint := fmt.Sprintf("%s/audio-features?ids=%s", c.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: audio features: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: %w", statusError("get audio features", resp))
	}

	var wire audioFeaturesResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("spotify adapter: decode audio features: %w", err)
	}

	out := make([]*domain.FeatureRecord, 0, len(wire.AudioFeatures))
	for _, af := range wire.AudioFeatures {
		out = append(out, mapFeaturesToDomain(af))
	}
	return out, nil
}
