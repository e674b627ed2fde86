package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/tokens"
)

const (
	githubBaseURL = "https://api.github.com"
	githubAccept  = "application/vnd.github+json"
)

// GitHubService files issues as a GitHub App installation and exchanges App assertions for installation tokens.
type GitHubService struct {
	api    *APIClient
	tokens tokens.Source
	owner  string
	repo   string
}

// NewGitHubService creates a client for owner/repo. src may be nil when only
// [GitHubService.ExchangeInstallationToken] is used.
func NewGitHubService(baseURL string, client *http.Client, src tokens.Source, owner, repo string) *GitHubService {
	if baseURL == "" {
		baseURL = githubBaseURL
	}
	return &GitHubService{
		api:    NewAPIClient(baseURL, client),
		tokens: src,
		owner:  owner,
		repo:   repo,
	}
}

// SetTokenSource attaches the installation token source once the cache that depends on this service exists.
func (g *GitHubService) SetTokenSource(src tokens.Source) {
	g.tokens = src
}

type issueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreateIssue files req against the configured repository.
func (g *GitHubService) CreateIssue(ctx context.Context, req IssueRequest) (*models.Issue, error) {
	if g.tokens == nil {
		return nil, fmt.Errorf("%w: github installation token", shared.ErrMissingCredentials)
	}

	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "token "+token)
	header.Set("Accept", githubAccept)

	resp, err := g.api.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/repos/%s/%s/issues", g.owner, g.repo),
		Header: header,
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := g.tokens.(invalidator); ok {
			inv.Invalidate()
		}
	}

	issue := &models.Issue{StatusCode: resp.StatusCode}
	var body issueResponse
	if resp.JSON(&body) == nil {
		issue.Number = body.Number
		issue.HTMLURL = body.HTMLURL
	}
	return issue, nil
}

type installationTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// ExchangeInstallationToken trades a signed App assertion for an installation access token.
//
// expires_at is parsed as RFC 3339 with its timezone.
func (g *GitHubService) ExchangeInstallationToken(ctx context.Context, assertion, installationID string) (tokens.Token, error) {
	header := bearer(assertion)
	header.Set("Accept", githubAccept)

	resp, err := g.api.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/app/installations/%s/access_tokens", installationID),
		Header: header,
	})
	if err != nil {
		return tokens.Token{}, err
	}
	if err := resp.Err("github"); err != nil {
		return tokens.Token{}, err
	}

	var body installationTokenResponse
	if err := resp.JSON(&body); err != nil {
		return tokens.Token{}, err
	}

	expiresAt, err := time.Parse(time.RFC3339, body.ExpiresAt)
	if err != nil {
		return tokens.Token{}, fmt.Errorf("invalid expires_at %q: %w", body.ExpiresAt, err)
	}

	return tokens.Token{Value: body.Token, ExpiresAt: expiresAt}, nil
}
