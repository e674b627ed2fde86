package main

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/strippers/internal/ledger"
	"github.com/desertthunder/strippers/internal/repositories"
	"github.com/desertthunder/strippers/internal/resolver"
	"github.com/desertthunder/strippers/internal/services"
	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/tokens"
)

// stack is the wired backend shared by the serve and maintenance commands.
type stack struct {
	db       *sql.DB
	ledger   ledger.Ledger
	store    *repositories.StripperRepository
	github   *services.GitHubService
	spotify  *tokens.Cache
	install  *tokens.Cache // nil when the GitHub App is not configured
	resolver *resolver.Resolver
}

func (s *stack) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStack opens the database, runs pending migrations and builds every provider from r.config.
//
// Missing provider credentials are logged rather than fatal: the affected calls fail at request time and the
// resolver folds those failures into its outcomes.
func (r *Runner) openStack() (*stack, error) {
	cfg := r.config

	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	l, err := ledger.Open(cfg.Ledger, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &stack{db: db, ledger: l, store: repositories.NewStripperRepository(db)}

	spotifyCreds := cfg.Credentials.Spotify
	if spotifyCreds.ClientID == "" || spotifyCreds.ClientSecret == "" {
		r.logger.Warn("spotify credentials missing, every report will fail the catalog check")
	}
	s.spotify = tokens.NewCache("spotify", tokens.SpotifyMargin, tokens.NewClientCredentialsRefresher(
		tokens.NewSpotifyCredentials(spotifyCreds.ClientID, spotifyCreds.ClientSecret, spotifyCreds.TokenURL),
		r.httpClient, tokens.SpotifyTokenTTL, nil,
	), tokens.WithLogger(r.logger))

	gh := cfg.Credentials.GitHub
	s.github = services.NewGitHubService(gh.APIURL, r.httpClient, nil, gh.Owner, gh.Repo)
	if gh.AppID != "" && gh.InstallationID != "" && gh.PrivateKeyPath != "" {
		issuer, err := tokens.LoadJWTIssuer(gh.AppID, gh.PrivateKeyPath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: github app: %w", shared.ErrInvalidConfig, err)
		}
		s.install = tokens.NewCache("github", tokens.GitHubMargin,
			tokens.NewInstallationRefresher(issuer, s.github, gh.InstallationID, nil),
			tokens.WithLogger(r.logger),
		)
		s.github.SetTokenSource(s.install)
	} else {
		r.logger.Warn("github app not configured, reports will be logged without filing issues")
	}

	if cfg.Credentials.Genius.AccessToken == "" {
		r.logger.Warn("genius access token missing, stripper lookups fall back to the local store only")
	}

	s.resolver = resolver.New(resolver.Deps{
		Ledger: l,
		Tracks: services.NewSpotifyService(spotifyCreds.APIURL, r.httpClient, s.spotify),
		Lyrics: services.NewGeniusService(cfg.Credentials.Genius.APIURL, r.httpClient, tokens.Static(cfg.Credentials.Genius.AccessToken)),
		Issues: s.github,
		Store:  s.store,
		Logger: r.logger,
		Config: resolver.Config{
			MinClientVersion: cfg.Server.MinClientVersion,
			IssueLabel:       gh.IssueLabel,
			IssuesURL:        issuesURL(gh.Owner, gh.Repo),
		},
	})

	return s, nil
}

func issuesURL(owner, repo string) string {
	if owner == "" || repo == "" {
		return ""
	}
	return strings.Join([]string{"https://github.com", owner, repo, "issues"}, "/")
}
