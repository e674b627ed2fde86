package services

import (
	"context"

	"github.com/desertthunder/strippers/internal/models"
)

// TrackProvider searches a music catalog.
type TrackProvider interface {
	// SearchTrack returns the first catalog hit for title and artist.
	SearchTrack(ctx context.Context, title, artist string) (*models.Track, error)
}

// SearchProvider searches a lyrics site.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]models.SearchHit, error)
}

// IssueRequest is the payload of a new tracking issue.
type IssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// IssueProvider files tracking issues.
type IssueProvider interface {
	// CreateIssue files req. A non-201 status is reported in the returned issue, not as an error.
	CreateIssue(ctx context.Context, req IssueRequest) (*models.Issue, error)
}

// Notifier announces deploys.
type Notifier interface {
	NotifyDeploy(ctx context.Context, commit models.Commit) error
}

// PullResult describes the working copy after a pull.
type PullResult struct {
	Previous string
	Commit   string
}

// Changed reports whether the pull moved HEAD.
func (p PullResult) Changed() bool {
	return p.Previous != p.Commit
}

// RepositorySync updates the deployed working copy.
type RepositorySync interface {
	Pull(ctx context.Context) (PullResult, error)
}

// invalidator is implemented by token caches that can drop a rejected token.
type invalidator interface {
	Invalidate()
}
