// Package spotify checks playlist directory entries against the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when the client ID or secret is empty.
var ErrMissingCredentials = errors.New("SPOTIFY_ID and SPOTIFY_SECRET are required")

// ErrPlaylistNotFound is returned when Spotify has no playlist with the ID.
var ErrPlaylistNotFound = errors.New("playlist not found")

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// NewClient authenticates with the client credentials flow. No user login
// is involved, so only public data is reachable.
func NewClient(ctx context.Context, clientID, clientSecret string, opts ...spotify.ClientOption) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	if _, err := cfg.Token(ctx); err != nil {
		return nil, fmt.Errorf("getting client credentials token: %w", err)
	}

	return New(spotify.New(cfg.Client(ctx), opts...)), nil
}

// Playlist is the public summary of a playlist.
type Playlist struct {
	ID     string
	Name   string
	Owner  string
	Tracks int
}

// Playlist fetches a playlist by ID.
func (c *Client) Playlist(ctx context.Context, id string) (Playlist, error) {
	pl, err := c.api.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		var apiErr spotify.Error
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return Playlist{}, fmt.Errorf("%w: %s", ErrPlaylistNotFound, id)
		}
		return Playlist{}, fmt.Errorf("getting playlist %s: %w", id, err)
	}

	return Playlist{
		ID:     pl.ID.String(),
		Name:   pl.Name,
		Owner:  pl.Owner.DisplayName,
		Tracks: int(pl.Tracks.Total),
	}, nil
}
