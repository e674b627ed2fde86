// Spotify catalog search.
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/search
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/tokens"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifySearchResponse is the body of GET /search?type=track.
type SpotifySearchResponse struct {
	Tracks *struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyService searches the Spotify catalog with an app-level token.
type SpotifyService struct {
	api    *APIClient
	tokens tokens.Source
}

// NewSpotifyService creates a Spotify client. An empty baseURL uses the public API.
func NewSpotifyService(baseURL string, client *http.Client, src tokens.Source) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyService{api: NewAPIClient(baseURL, client), tokens: src}
}

// Name returns the name of the service
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SearchTrack returns the first track for the query "{title} {artist}".
//
// Returns [shared.ErrTrackNotFound] when the search has no items.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("q", title+" "+artist)
	query.Set("type", "track")
	query.Set("limit", "1")

	resp, err := s.api.Do(ctx, Request{Path: "/search", Query: query, Header: bearer(token)})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := s.tokens.(invalidator); ok {
			inv.Invalidate()
		}
	}
	if err := resp.Err("spotify"); err != nil {
		return nil, err
	}

	var result SpotifySearchResponse
	if err := resp.JSON(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if result.Tracks == nil || len(result.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %s by %s", shared.ErrTrackNotFound, title, artist)
	}

	return convertTrack(result.Tracks.Items[0]), nil
}

func convertTrack(t SpotifyTrack) *models.Track {
	track := &models.Track{
		ID:    t.ID,
		Title: t.Name,
		Album: t.Album.Name,
		URI:   t.URI,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}
