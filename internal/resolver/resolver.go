// Package resolver decides what happens to a song/artist pair a client could not find lyrics for.
//
// [Resolver.ResolveUnsupported] runs the unsupported-pair flow: version gate, ledger dedup, catalog legitimacy
// check (softened for trivial input), then ledger append and issue filing. [Resolver.ResolveStripper] answers
// stripper lookups from the local store, falling back to a fuzzy-matched lyrics search.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/strippers/internal/ledger"
	"github.com/desertthunder/strippers/internal/matcher"
	"github.com/desertthunder/strippers/internal/metrics"
	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/services"
	"github.com/desertthunder/strippers/internal/shared"
)

const (
	DefaultMinClientVersion = "1.1.1"
	DefaultIssueLabel       = "unsupported song"
	PlaceholderStripper     = "not supported yet"
)

var trivialInput = regexp.MustCompile(`^[A-Za-z\s]+$`)

// Outcome is the terminal state of [Resolver.ResolveUnsupported].
type Outcome string

const (
	OutcomeUpdateRequired Outcome = "update_required"
	OutcomeAlreadyTracked Outcome = "already_tracked"
	OutcomeMayNotExist    Outcome = "may_not_exist"
	OutcomeFishy          Outcome = "fishy"
	OutcomeIssueCreated   Outcome = "issue_created"
	OutcomeLogged         Outcome = "logged"
)

// UnsupportedRequest is a client's report that lyrics for a song could not be found.
type UnsupportedRequest struct {
	Song     string
	Artist   string
	Version  string
	Stripper string // client-side guess; optional
}

// Key returns the request's song/artist pair.
func (r UnsupportedRequest) Key() models.SongKey {
	return models.NewSongKey(r.Song, r.Artist)
}

// Result is the client-facing answer to an unsupported report.
type Result struct {
	Outcome  Outcome
	Message  string
	IssueURL string
}

// StripperStore persists confirmed strippers.
type StripperStore interface {
	GetBySongArtist(song, artist string) (*models.Stripper, error)
	Create(s *models.Stripper) error
}

// Config tunes the resolver.
type Config struct {
	MinClientVersion string
	IssueLabel       string
	// IssuesURL is linked in client messages, e.g. https://github.com/owner/repo/issues
	IssuesURL string
}

// Deps are the resolver's collaborators.
type Deps struct {
	Ledger ledger.Ledger
	Tracks services.TrackProvider
	Lyrics services.SearchProvider
	Issues services.IssueProvider
	Store  StripperStore
	Logger *log.Logger
	Config Config
}

// Resolver orchestrates lookups against the ledger, the stripper store and the remote providers.
type Resolver struct {
	ledger ledger.Ledger
	tracks services.TrackProvider
	lyrics services.SearchProvider
	issues services.IssueProvider
	store  StripperStore
	logger *log.Logger
	cfg    Config
}

// New builds a Resolver. Empty config fields take their defaults.
func New(d Deps) *Resolver {
	cfg := d.Config
	if cfg.MinClientVersion == "" {
		cfg.MinClientVersion = DefaultMinClientVersion
	}
	if cfg.IssueLabel == "" {
		cfg.IssueLabel = DefaultIssueLabel
	}

	logger := d.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Resolver{
		ledger: d.Ledger,
		tracks: d.Tracks,
		lyrics: d.Lyrics,
		issues: d.Issues,
		store:  d.Store,
		logger: shared.WithLogger(logger, "component", "resolver"),
		cfg:    cfg,
	}
}

// ResolveUnsupported handles a client's unsupported report.
//
// Ledger I/O failures are returned as errors; every provider failure is folded into an outcome. Contains and Append
// are not atomic, so two concurrent reports for a new pair can both append and both file an issue; Remove later
// deletes every copy.
//
// Cancellation of ctx is ignored so an appended pair always gets its issue request. Provider calls are bounded by
// the HTTP client timeout.
func (r *Resolver) ResolveUnsupported(ctx context.Context, req UnsupportedRequest) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	key := req.Key()
	if !key.Valid() {
		return Result{}, fmt.Errorf("%w: song and artist are required", shared.ErrInvalidInput)
	}

	logger := r.logger.With("song", req.Song, "artist", req.Artist, "version", req.Version)

	if VersionBelow(req.Version, r.cfg.MinClientVersion) {
		return r.finish(logger, Result{Outcome: OutcomeUpdateRequired, Message: updateText}), nil
	}

	tracked, err := r.ledger.Contains(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if tracked {
		return r.finish(logger, Result{
			Outcome: OutcomeAlreadyTracked,
			Message: "Issue already exists on the GitHub repo. \n" + r.cfg.IssuesURL,
		}), nil
	}

	if !r.legit(ctx, logger, key) {
		if Trivial(key) {
			return r.finish(logger, Result{
				Outcome: OutcomeMayNotExist,
				Message: fmt.Sprintf("Lyrics for %s may not exist on Genius.\n%s", key, r.ticketText()),
			}), nil
		}
		return r.finish(logger, Result{
			Outcome: OutcomeFishy,
			Message: "That's a fishy request, that song doesn't seem to exist on Spotify. \n" + r.ticketText(),
		}), nil
	}

	if err := r.ledger.Append(ctx, key); err != nil {
		return Result{}, err
	}

	issue, err := r.issues.CreateIssue(ctx, r.issueFor(req))
	if err != nil {
		logger.Warn("issue creation failed", "error", err)
	}
	if issue.Created() {
		return r.finish(logger, Result{
			Outcome: OutcomeIssueCreated,
			Message: fmt.Sprintf(
				"Lyrics for that song may not exist on Genius. Created issue on the GitHub repo for %s to investigate further. \n%s",
				key, issue.HTMLURL,
			),
			IssueURL: issue.HTMLURL,
		}), nil
	}
	if issue != nil {
		logger.Warn("issue not created", "status", issue.StatusCode)
	}

	return r.finish(logger, Result{
		Outcome: OutcomeLogged,
		Message: fmt.Sprintf("Logged %s in the server.", key),
	}), nil
}

// Trivial reports whether song and artist are made only of ASCII letters and whitespace.
//
// Only a failed legitimacy check consults it: trivial pairs get MayNotExist instead of Fishy.
func Trivial(key models.SongKey) bool {
	return trivialInput.MatchString(key.Song) && trivialInput.MatchString(key.Artist)
}

// legit reports whether the catalog's first hit is exactly key.
func (r *Resolver) legit(ctx context.Context, logger *log.Logger, key models.SongKey) bool {
	track, err := r.tracks.SearchTrack(ctx, key.Song, key.Artist)
	if err != nil {
		logger.Info("legitimacy check failed", "error", err)
		return false
	}
	if track.Title != key.Song || track.Artist != key.Artist {
		logger.Info("catalog hit differs", "title", track.Title, "track_artist", track.Artist)
		return false
	}
	return true
}

func (r *Resolver) issueFor(req UnsupportedRequest) services.IssueRequest {
	stripper := req.Stripper
	if stripper == "" {
		stripper = matcher.GuessStripper(req.Song, req.Artist)
	}
	if stripper == "" {
		stripper = PlaceholderStripper
	}

	return services.IssueRequest{
		Title: ledger.IssueTitle(req.Key()),
		Body: "Check if issue with swaglyrics or whether song lyrics unavailable on Genius. \n<hr>\n <tt><b>" +
			fmt.Sprintf("stripper -> %s</b>\n\nversion -> %s</tt>", stripper, req.Version),
		Labels: []string{r.cfg.IssueLabel},
	}
}

func (r *Resolver) ticketText() string {
	return "If you feel there's an error, open a ticket at " + r.cfg.IssuesURL
}

func (r *Resolver) finish(logger *log.Logger, res Result) Result {
	metrics.ResolverOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	logger.Info("resolved unsupported report", "outcome", res.Outcome)
	return res
}

const updateText = "Please update SwagLyrics to the latest version to get better support :)"

// ResolveStripper returns the stripper for song and artist.
//
// The local store wins; otherwise each lyrics search hit whose full title matches "{song} by {artist}" is tried in
// order and the first one whose path yields a stripper is returned. Returns [shared.ErrStripperNotFound] otherwise.
// Like ResolveUnsupported it ignores cancellation of ctx.
func (r *Resolver) ResolveStripper(ctx context.Context, song, artist string) (string, error) {
	ctx = context.WithoutCancel(ctx)
	key := models.NewSongKey(song, artist)
	if !key.Valid() {
		return "", fmt.Errorf("%w: song and artist are required", shared.ErrInvalidInput)
	}

	logger := r.logger.With("song", song, "artist", artist)

	if r.store != nil {
		record, err := r.store.GetBySongArtist(song, artist)
		switch {
		case err == nil:
			metrics.StripperLookups.WithLabelValues("store").Inc()
			return record.Stripper, nil
		case !errors.Is(err, shared.ErrStripperNotFound):
			logger.Warn("stripper store lookup failed", "error", err)
		}
	}

	hits, err := r.lyrics.Search(ctx, song+" "+artist)
	if err != nil {
		metrics.StripperLookups.WithLabelValues("miss").Inc()
		logger.Warn("lyrics search failed", "error", err)
		return "", fmt.Errorf("%w: %w", shared.ErrStripperNotFound, err)
	}

	title := key.String()
	for _, hit := range hits {
		if !matcher.IsMatch(title, hit.FullTitle) {
			continue
		}
		if stripper, ok := matcher.StripperFromPath(hit.Path); ok {
			metrics.StripperLookups.WithLabelValues("genius").Inc()
			logger.Debug("stripper found", "stripper", stripper, "full_title", hit.FullTitle)
			return stripper, nil
		}
		logger.Debug("matching hit is not a lyrics page", "path", hit.Path)
	}

	metrics.StripperLookups.WithLabelValues("miss").Inc()
	return "", shared.ErrStripperNotFound
}

// AddStripper stores a confirmed stripper and clears the pair from the ledger.
func (r *Resolver) AddStripper(ctx context.Context, song, artist, stripper string) (int, error) {
	if r.store == nil {
		return 0, fmt.Errorf("%w: no stripper store", shared.ErrInvalidConfig)
	}

	record := models.NewStripper(models.NewSongKey(song, artist), stripper)
	if err := r.store.Create(record); err != nil {
		return 0, err
	}

	return r.RemoveUnsupported(ctx, song, artist)
}

// RemoveUnsupported deletes every ledger entry for the pair.
func (r *Resolver) RemoveUnsupported(ctx context.Context, song, artist string) (int, error) {
	key := models.NewSongKey(song, artist)
	if !key.Valid() {
		return 0, fmt.Errorf("%w: song and artist are required", shared.ErrInvalidInput)
	}

	n, err := r.ledger.Remove(ctx, key)
	if err != nil {
		return 0, err
	}

	metrics.LedgerRemovals.Add(float64(n))
	r.logger.Info("removed unsupported entries", "song", song, "artist", artist, "count", n)
	return n, nil
}

// Backlog returns the ledger content.
func (r *Resolver) Backlog(ctx context.Context) (string, error) {
	return r.ledger.Dump(ctx)
}

// Entries returns the parsed ledger entries.
func (r *Resolver) Entries(ctx context.Context) ([]models.SongKey, error) {
	return r.ledger.Entries(ctx)
}
