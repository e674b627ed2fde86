package resolver

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/strippers/internal/ledger"
	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/services"
	"github.com/desertthunder/strippers/internal/shared"
	tu "github.com/desertthunder/strippers/internal/testing"
)

const issuesURL = "https://github.com/SwagLyrics/SwagLyrics-For-Spotify/issues"

type fakeIssues struct {
	status int
	err    error

	mu       sync.Mutex
	requests []services.IssueRequest
}

func (f *fakeIssues) CreateIssue(ctx context.Context, req services.IssueRequest) (*models.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &models.Issue{Number: 7, StatusCode: f.status, HTMLURL: issuesURL + "/7"}, nil
}

func (f *fakeIssues) Requests() []services.IssueRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.IssueRequest(nil), f.requests...)
}

type fakeStore struct {
	records map[models.SongKey]string
	err     error
	created []*models.Stripper
}

func (f *fakeStore) GetBySongArtist(song, artist string) (*models.Stripper, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.records[models.NewSongKey(song, artist)]; ok {
		return &models.Stripper{Song: song, Artist: artist, Stripper: s}, nil
	}
	return nil, shared.ErrStripperNotFound
}

func (f *fakeStore) Create(s *models.Stripper) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.created = append(f.created, s)
	return nil
}

type brokenLedger struct{ ledger.Ledger }

func (brokenLedger) Contains(context.Context, models.SongKey) (bool, error) {
	return false, shared.ErrLedgerIO
}

type appendFailsLedger struct{ ledger.Ledger }

func (appendFailsLedger) Append(context.Context, models.SongKey) error {
	return shared.ErrLedgerIO
}

// cancelOnAppend cancels the caller's context as soon as a line is written.
type cancelOnAppend struct {
	ledger.Ledger
	cancel context.CancelFunc
}

func (c cancelOnAppend) Append(ctx context.Context, key models.SongKey) error {
	err := c.Ledger.Append(ctx, key)
	c.cancel()
	return err
}

type fixture struct {
	resolver *Resolver
	ledger   ledger.Ledger
	tracks   *tu.FakeTrackProvider
	lyrics   *tu.FakeSearchProvider
	issues   *fakeIssues
	store    *fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ledger: ledger.NewFileLedger(filepath.Join(t.TempDir(), "unsupported.txt")),
		tracks: &tu.FakeTrackProvider{Tracks: map[string]*models.Track{}},
		lyrics: &tu.FakeSearchProvider{},
		issues: &fakeIssues{status: 201},
		store:  &fakeStore{records: map[models.SongKey]string{}},
	}
	f.build()
	return f
}

func (f *fixture) build() {
	f.resolver = New(Deps{
		Ledger: f.ledger,
		Tracks: f.tracks,
		Lyrics: f.lyrics,
		Issues: f.issues,
		Store:  f.store,
		Logger: shared.NewLogger(io.Discard),
		Config: Config{IssuesURL: issuesURL},
	})
}

func (f *fixture) confirm(song, artist string) {
	f.tracks.Tracks[song+" "+artist] = &models.Track{Title: song, Artist: artist}
}

func (f *fixture) dump(t *testing.T) string {
	t.Helper()
	d, err := f.ledger.Dump(context.Background())
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	return d
}

func TestResolveUnsupported(t *testing.T) {
	ctx := context.Background()

	t.Run("Tracks A Confirmed Pair And Files An Issue", func(t *testing.T) {
		f := newFixture(t)
		f.confirm("Test Song", "Test Artist")

		res, err := f.resolver.ResolveUnsupported(ctx, UnsupportedRequest{Song: "Test Song", Artist: "Test Artist", Version: "1.1.1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if res.Outcome != OutcomeIssueCreated {
			t.Errorf("expected %s, got %s", OutcomeIssueCreated, res.Outcome)
		}
		if res.IssueURL != issuesURL+"/7" || !strings.Contains(res.Message, issuesURL+"/7") {
			t.Errorf("expected issue link in result, got %+v", res)
		}
		if got := f.dump(t); got != "Test Song by Test Artist\n" {
			t.Errorf("expected one ledger line, got %q", got)
		}
		if n := len(f.issues.Requests()); n != 1 {
			t.Errorf("expected one issue-creation call, got %d", n)
		}
	})

	t.Run("Below Version Floor Never Mutates", func(t *testing.T) {
		pairs := []UnsupportedRequest{
			{Song: "abc", Artist: "def", Version: "1.0.0"},
			{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "0.9"},
			{Song: "Test Song", Artist: "Test Artist", Version: ""},
			{Song: "22", Artist: "Taylor Swift", Version: "1.1.0"},
		}

		for _, req := range pairs {
			t.Run(req.Song+"/"+req.Version, func(t *testing.T) {
				f := newFixture(t)
				f.confirm(req.Song, req.Artist)

				res, err := f.resolver.ResolveUnsupported(ctx, req)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if res.Outcome != OutcomeUpdateRequired || res.Message != updateText {
					t.Errorf("expected update prompt, got %+v", res)
				}
				if got := f.dump(t); got != "" {
					t.Errorf("ledger should be unchanged, got %q", got)
				}
				if f.tracks.Calls() != 0 || len(f.issues.Requests()) != 0 {
					t.Error("no provider should be called below the version floor")
				}
			})
		}
	})

	t.Run("Already Tracked Never Files A Second Issue", func(t *testing.T) {
		f := newFixture(t)
		f.confirm("HUMBLE.", "Kendrick Lamar")
		req := UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.2.0"}

		if _, err := f.resolver.ResolveUnsupported(ctx, req); err != nil {
			t.Fatalf("first report failed: %v", err)
		}

		for i := 0; i < 3; i++ {
			res, err := f.resolver.ResolveUnsupported(ctx, req)
			if err != nil {
				t.Fatalf("repeat report failed: %v", err)
			}
			if res.Outcome != OutcomeAlreadyTracked {
				t.Errorf("expected %s, got %s", OutcomeAlreadyTracked, res.Outcome)
			}
		}

		if n := len(f.issues.Requests()); n != 1 {
			t.Errorf("expected exactly one issue-creation call, got %d", n)
		}
		if got := f.dump(t); got != "HUMBLE. by Kendrick Lamar\n" {
			t.Errorf("expected a single ledger line, got %q", got)
		}
	})

	t.Run("Failing Legitimacy Never Mutates", func(t *testing.T) {
		tc := []struct {
			name    string
			setup   func(f *fixture)
			req     UnsupportedRequest
			outcome Outcome
		}{
			{
				name:    "no catalog hit",
				req:     UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.1.1"},
				outcome: OutcomeFishy,
			},
			{
				name: "different title",
				setup: func(f *fixture) {
					f.tracks.Tracks["HUMBLE. Kendrick Lamar"] = &models.Track{Title: "HUMBLE. (Skrillex Remix)", Artist: "Kendrick Lamar"}
				},
				req:     UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.1.1"},
				outcome: OutcomeFishy,
			},
			{
				name: "case differs",
				setup: func(f *fixture) {
					f.tracks.Tracks["HUMBLE. kendrick lamar"] = &models.Track{Title: "HUMBLE.", Artist: "Kendrick Lamar"}
				},
				req:     UnsupportedRequest{Song: "HUMBLE.", Artist: "kendrick lamar", Version: "1.1.1"},
				outcome: OutcomeFishy,
			},
			{
				name: "provider error",
				setup: func(f *fixture) {
					f.tracks.Err = shared.ErrCredentialRefresh
				},
				req:     UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.1.1"},
				outcome: OutcomeFishy,
			},
			{
				name:    "trivial input",
				req:     UnsupportedRequest{Song: "Some Song", Artist: "Some Artist", Version: "1.1.1"},
				outcome: OutcomeMayNotExist,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				if tt.setup != nil {
					tt.setup(f)
				}

				res, err := f.resolver.ResolveUnsupported(ctx, tt.req)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if res.Outcome != tt.outcome {
					t.Errorf("expected %s, got %s", tt.outcome, res.Outcome)
				}
				if got := f.dump(t); got != "" {
					t.Errorf("ledger should be unchanged, got %q", got)
				}
				if len(f.issues.Requests()) != 0 {
					t.Error("no issue should be filed")
				}
			})
		}
	})

	t.Run("Issue Failure Keeps The Ledger Line", func(t *testing.T) {
		tc := []struct {
			name   string
			issues *fakeIssues
		}{
			{name: "non-201 status", issues: &fakeIssues{status: 500}},
			{name: "transport error", issues: &fakeIssues{err: shared.ErrAPIRequest}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				f.issues = tt.issues
				f.build()
				f.confirm("HUMBLE.", "Kendrick Lamar")

				res, err := f.resolver.ResolveUnsupported(ctx, UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.1.1"})
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if res.Outcome != OutcomeLogged || res.Message != "Logged HUMBLE. by Kendrick Lamar in the server." {
					t.Errorf("expected logged outcome, got %+v", res)
				}
				if got := f.dump(t); got != "HUMBLE. by Kendrick Lamar\n" {
					t.Errorf("ledger write should not be rolled back, got %q", got)
				}
			})
		}
	})

	t.Run("Issue Content", func(t *testing.T) {
		t.Run("Guessed Stripper", func(t *testing.T) {
			f := newFixture(t)
			f.confirm("HUMBLE.", "Kendrick Lamar")

			f.resolver.ResolveUnsupported(ctx, UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.2.0"})

			reqs := f.issues.Requests()
			if len(reqs) != 1 {
				t.Fatalf("expected one issue, got %d", len(reqs))
			}
			if reqs[0].Title != "HUMBLE. by Kendrick Lamar unsupported." {
				t.Errorf("unexpected title %q", reqs[0].Title)
			}
			if len(reqs[0].Labels) != 1 || reqs[0].Labels[0] != DefaultIssueLabel {
				t.Errorf("unexpected labels %v", reqs[0].Labels)
			}
			if !strings.Contains(reqs[0].Body, "stripper -> Kendrick-lamar-humble") {
				t.Errorf("body should embed the guessed stripper: %q", reqs[0].Body)
			}
			if !strings.Contains(reqs[0].Body, "version -> 1.2.0") {
				t.Errorf("body should embed the client version: %q", reqs[0].Body)
			}
		})

		t.Run("Client Stripper Wins", func(t *testing.T) {
			f := newFixture(t)
			f.confirm("HUMBLE.", "Kendrick Lamar")

			f.resolver.ResolveUnsupported(ctx, UnsupportedRequest{
				Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.2.0", Stripper: "Kendrick-lamar-humble-client",
			})

			reqs := f.issues.Requests()
			if len(reqs) != 1 || !strings.Contains(reqs[0].Body, "stripper -> Kendrick-lamar-humble-client") {
				t.Errorf("body should embed the client's stripper: %+v", reqs)
			}
		})

		t.Run("Placeholder", func(t *testing.T) {
			f := newFixture(t)
			f.confirm("???", "!!!")

			f.resolver.ResolveUnsupported(ctx, UnsupportedRequest{Song: "???", Artist: "!!!", Version: "1.2.0"})

			reqs := f.issues.Requests()
			if len(reqs) != 1 || !strings.Contains(reqs[0].Body, "stripper -> "+PlaceholderStripper) {
				t.Errorf("body should embed the placeholder: %+v", reqs)
			}
		})
	})

	t.Run("Ledger Errors Propagate", func(t *testing.T) {
		t.Run("Contains", func(t *testing.T) {
			f := newFixture(t)
			f.ledger = brokenLedger{f.ledger}
			f.build()

			_, err := f.resolver.ResolveUnsupported(ctx, UnsupportedRequest{Song: "a1", Artist: "b", Version: "1.1.1"})
			if !errors.Is(err, shared.ErrLedgerIO) {
				t.Errorf("expected ErrLedgerIO, got %v", err)
			}
		})

		t.Run("Append", func(t *testing.T) {
			f := newFixture(t)
			f.ledger = appendFailsLedger{f.ledger}
			f.build()
			f.confirm("HUMBLE.", "Kendrick Lamar")

			_, err := f.resolver.ResolveUnsupported(ctx, UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.1.1"})
			if !errors.Is(err, shared.ErrLedgerIO) {
				t.Errorf("expected ErrLedgerIO, got %v", err)
			}
			if len(f.issues.Requests()) != 0 {
				t.Error("no issue should be filed when the ledger write fails")
			}
		})
	})

	t.Run("Aborted Request Still Files Issue", func(t *testing.T) {
		f := newFixture(t)
		f.confirm("HUMBLE.", "Kendrick Lamar")

		reqCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.ledger = cancelOnAppend{Ledger: f.ledger, cancel: cancel}
		f.build()

		res, err := f.resolver.ResolveUnsupported(reqCtx, UnsupportedRequest{Song: "HUMBLE.", Artist: "Kendrick Lamar", Version: "1.2.0"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if reqCtx.Err() == nil {
			t.Fatal("expected the request context to be cancelled after append")
		}
		if res.Outcome != OutcomeIssueCreated {
			t.Errorf("expected %s, got %s (%s)", OutcomeIssueCreated, res.Outcome, res.Message)
		}
		if reqs := f.issues.Requests(); len(reqs) != 1 || reqs[0].Title != "HUMBLE. by Kendrick Lamar unsupported." {
			t.Errorf("expected one issue request, got %+v", reqs)
		}
	})

	t.Run("Invalid Input", func(t *testing.T) {
		f := newFixture(t)
		for _, req := range []UnsupportedRequest{
			{Song: "", Artist: "Queen", Version: "1.1.1"},
			{Song: "Song", Artist: "Multi\nLine", Version: "1.1.1"},
		} {
			if _, err := f.resolver.ResolveUnsupported(ctx, req); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for %+v, got %v", req, err)
			}
		}
	})
}

func TestResolveStripper(t *testing.T) {
	ctx := context.Background()

	t.Run("Store First", func(t *testing.T) {
		f := newFixture(t)
		f.store.records[models.NewSongKey("HUMBLE.", "Kendrick Lamar")] = "Kendrick-lamar-humble"

		got, err := f.resolver.ResolveStripper(ctx, "HUMBLE.", "Kendrick Lamar")
		if err != nil || got != "Kendrick-lamar-humble" {
			t.Errorf("expected stored stripper, got %q, %v", got, err)
		}
		if len(f.lyrics.Queries()) != 0 {
			t.Error("lyrics search should not run on a store hit")
		}
	})

	t.Run("Falls Back To Matching Search Hit", func(t *testing.T) {
		f := newFixture(t)
		f.lyrics.Hits = []models.SearchHit{
			{FullTitle: "DNA. by Kendrick Lamar", Path: "/Kendrick-lamar-dna-lyrics"},
			{FullTitle: "HUMBLE. by Kendrick Lamar", Path: "/Kendrick-lamar-humble-annotated"},
			{FullTitle: "HUMBLE. by Kendrick Lamar", Path: "/Kendrick-lamar-humble-lyrics"},
		}

		got, err := f.resolver.ResolveStripper(ctx, "HUMBLE.", "Kendrick Lamar")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "Kendrick-lamar-humble" {
			t.Errorf("expected first matching lyrics path, got %q", got)
		}
		if q := f.lyrics.Queries(); len(q) != 1 || q[0] != "HUMBLE. Kendrick Lamar" {
			t.Errorf("unexpected search queries %v", q)
		}
	})

	t.Run("Store Failure Still Searches", func(t *testing.T) {
		f := newFixture(t)
		f.store.err = errors.New("database is locked")
		f.lyrics.Hits = []models.SearchHit{{FullTitle: "HUMBLE. by Kendrick Lamar", Path: "/Kendrick-lamar-humble-lyrics"}}

		got, err := f.resolver.ResolveStripper(ctx, "HUMBLE.", "Kendrick Lamar")
		if err != nil || got != "Kendrick-lamar-humble" {
			t.Errorf("expected search fallback, got %q, %v", got, err)
		}
	})

	t.Run("No Accepted Hit", func(t *testing.T) {
		f := newFixture(t)
		f.lyrics.Hits = []models.SearchHit{{FullTitle: "Shape of You by Ed Sheeran", Path: "/Ed-sheeran-shape-of-you-lyrics"}}

		_, err := f.resolver.ResolveStripper(ctx, "Blinding Lights", "The Weeknd")
		if !errors.Is(err, shared.ErrStripperNotFound) {
			t.Errorf("expected ErrStripperNotFound, got %v", err)
		}
	})

	t.Run("Search Failure", func(t *testing.T) {
		f := newFixture(t)
		f.lyrics.Err = shared.ErrAPIRequest

		_, err := f.resolver.ResolveStripper(ctx, "HUMBLE.", "Kendrick Lamar")
		if !errors.Is(err, shared.ErrStripperNotFound) {
			t.Errorf("expected ErrStripperNotFound, got %v", err)
		}
	})
}

func TestAdminOperations(t *testing.T) {
	ctx := context.Background()
	key := models.NewSongKey("HUMBLE.", "Kendrick Lamar")

	t.Run("AddStripper Clears Every Ledger Copy", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.Append(ctx, key)
		f.ledger.Append(ctx, key)

		n, err := f.resolver.AddStripper(ctx, key.Song, key.Artist, "Kendrick-lamar-humble")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 removed, got %d", n)
		}
		if len(f.store.created) != 1 || f.store.created[0].Stripper != "Kendrick-lamar-humble" {
			t.Errorf("expected the stripper to be stored, got %+v", f.store.created)
		}
	})

	t.Run("AddStripper Rejects Blank Stripper", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.Append(ctx, key)

		if _, err := f.resolver.AddStripper(ctx, key.Song, key.Artist, ""); err == nil {
			t.Fatal("expected validation error")
		}
		if ok, _ := f.ledger.Contains(ctx, key); !ok {
			t.Error("ledger should be untouched when the store rejects the record")
		}
	})

	t.Run("RemoveUnsupported", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.Append(ctx, key)

		n, err := f.resolver.RemoveUnsupported(ctx, key.Song, key.Artist)
		if err != nil || n != 1 {
			t.Errorf("expected 1 removed, got %d, %v", n, err)
		}

		n, err = f.resolver.RemoveUnsupported(ctx, key.Song, key.Artist)
		if err != nil || n != 0 {
			t.Errorf("expected 0 removed, got %d, %v", n, err)
		}
	})

	t.Run("Backlog", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.Append(ctx, key)
		f.ledger.Append(ctx, models.NewSongKey("Bohemian Rhapsody", "Queen"))

		got, err := f.resolver.Backlog(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "HUMBLE. by Kendrick Lamar\nBohemian Rhapsody by Queen\n" {
			t.Errorf("unexpected backlog %q", got)
		}
	})
}
