package spotify

import (
	"context"
	"errors"
	"net/http"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when no client id or secret is configured.
var ErrMissingCredentials = errors.New("spotify adapter: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")

// AuthConfig selects how tokens are obtained. With a RefreshToken the
// authorization-code refresh flow is used, which can read private
// playlists; otherwise the client-credentials flow.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
	Timeout      time.Duration
}

// NewHTTPClient returns an http.Client that attaches bearer tokens and
// retries rate-limited requests. ctx is kept by the token source for
// refreshes and should outlive the client.
func NewHTTPClient(ctx context.Context, auth AuthConfig, retry RetryConfig) (*http.Client, error) {
	if auth.ClientID == "" || auth.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	tokenURL := auth.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	tokenClient := &http.Client{Timeout: auth.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, tokenClient)

	oauth := &oauth2.Transport{
		Source: tokenSource(ctx, auth, tokenURL),
		Base:   http.DefaultTransport,
	}
	return &http.Client{
		Transport: NewRetryTransport(oauth, retry),
		Timeout:   auth.Timeout,
	}, nil
}

func tokenSource(ctx context.Context, auth AuthConfig, tokenURL string) oauth2.TokenSource {
	if auth.RefreshToken != "" {
		conf := &oauth2.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyauth.AuthURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: auth.RefreshToken})
	}

	conf := &clientcredentials.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return conf.TokenSource(ctx)
}
