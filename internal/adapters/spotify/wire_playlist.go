package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

const playlistPageLimit = 100

type playlistItem struct {
	Track *spotifyTrack `json:"track"`
}

type playlistItemsPage struct {
	Items  []playlistItem `json:"items"`
	Next   *string        `json:"next"`
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
}

// PlaylistItems fetches the first page of a playlist's tracks.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string) (domain.ItemPage, error) {
	if strings.TrimSpace(playlistID) == "" {
		return domain.ItemPage{}, domain.ErrInvalidPlaylistID
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprint(playlistPageLimit))
	q.Set("additional_types", "track")
	if c.market != "" {
		q.Set("market", c.market)
	}
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks?%s", c.baseURL, url.PathEscape(playlistID), q.Encode())

	page, err := c.getItemsPage(ctx, endpoint)
	if err != nil {
		return domain.ItemPage{}, fmt.Errorf("spotify adapter: playlist %s: %w", playlistID, err)
	}
	return page, nil
}

// NextPage follows the next link of page.
func (c *Client) NextPage(ctx context.Context, page domain.ItemPage) (domain.ItemPage, error) {
	if !page.HasNext() {
		return domain.ItemPage{}, errors.New("spotify adapter: no next page")
	}
	next, err := c.getItemsPage(ctx, page.Next)
	if err != nil {
		return domain.ItemPage{}, fmt.Errorf("spotify adapter: next page: %w", err)
	}
	return next, nil
}

func (c *Client) getItemsPage(ctx context.Context, endpoint string) (domain.ItemPage, error) {
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.ItemPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ItemPage{}, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ItemPage{}, statusError("get playlist items", resp)
	}

	var wire playlistItemsPage
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return domain.ItemPage{}, fmt.Errorf("decode playlist items: %w", err)
	}
	return mapPageToDomain(wire), nil
}
