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

const geniusBaseURL = "https://api.genius.com"

type geniusSearchResponse struct {
	Meta struct {
		Status int `json:"status"`
	} `json:"meta"`
	Response struct {
		Hits []struct {
			Result struct {
				FullTitle string `json:"full_title"`
				Path      string `json:"path"`
				URL       string `json:"url"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// GeniusService searches Genius for lyrics pages.
type GeniusService struct {
	api    *APIClient
	tokens tokens.Source
}

// NewGeniusService creates a Genius client. An empty baseURL uses the public API.
func NewGeniusService(baseURL string, client *http.Client, src tokens.Source) *GeniusService {
	if baseURL == "" {
		baseURL = geniusBaseURL
	}
	return &GeniusService{api: NewAPIClient(baseURL, client), tokens: src}
}

// Search returns the hits for query in ranking order.
func (g *GeniusService) Search(ctx context.Context, query string) ([]models.SearchHit, error) {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := g.api.Do(ctx, Request{
		Path:   "/search",
		Query:  url.Values{"q": {query}},
		Header: bearer(token),
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err("genius"); err != nil {
		return nil, err
	}

	var result geniusSearchResponse
	if err := resp.JSON(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if result.Meta.Status != http.StatusOK {
		return nil, fmt.Errorf("%w: genius meta status %d", shared.ErrAPIRequest, result.Meta.Status)
	}

	hits := make([]models.SearchHit, 0, len(result.Response.Hits))
	for _, h := range result.Response.Hits {
		hits = append(hits, models.SearchHit{
			FullTitle: h.Result.FullTitle,
			Path:      h.Result.Path,
			URL:       h.Result.URL,
		})
	}
	return hits, nil
}
