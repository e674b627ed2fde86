package webhook

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

type countingLedger struct {
	ledger.Ledger
	mu      sync.Mutex
	removed []models.SongKey
	err     error
}

func (c *countingLedger) Remove(ctx context.Context, key models.SongKey) (int, error) {
	c.mu.Lock()
	c.removed = append(c.removed, key)
	c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.Ledger.Remove(ctx, key)
}

type fakeSync struct {
	result services.PullResult
	err    error
	calls  int
}

func (f *fakeSync) Pull(ctx context.Context) (services.PullResult, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return services.PullResult{}, err
	}
	return f.result, f.err
}

var testConfig = Config{Repository: "SwagLyrics-For-Spotify", IssueLabel: "unsupported song", Branch: "master"}

func newCountingLedger(t *testing.T) *countingLedger {
	t.Helper()
	return &countingLedger{Ledger: ledger.NewFileLedger(filepath.Join(t.TempDir(), "unsupported.txt"))}
}

func TestHandlerIssues(t *testing.T) {
	ctx := context.Background()

	closed := IssuesEvent{
		Action:     "closed",
		Number:     7,
		Title:      "X by Y unsupported.",
		Labels:     []string{"unsupported song"},
		Repository: "SwagLyrics-For-Spotify",
	}

	t.Run("Closed Relevant Issue Removes Once", func(t *testing.T) {
		l := newCountingLedger(t)
		l.Append(ctx, models.NewSongKey("X", "Y"))
		l.Append(ctx, models.NewSongKey("X", "Y"))
		h := NewHandler(l, nil, nil, testConfig, shared.NewLogger(io.Discard))

		resp, err := h.Handle(ctx, closed)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(l.removed) != 1 || l.removed[0] != models.NewSongKey("X", "Y") {
			t.Errorf("expected exactly one Remove(X, Y), got %v", l.removed)
		}
		if resp.Removed != 2 || !strings.Contains(resp.Message, "Deleted 2") {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("Any Matching Label", func(t *testing.T) {
		l := newCountingLedger(t)
		h := NewHandler(l, nil, nil, testConfig, shared.NewLogger(io.Discard))

		ev := closed
		ev.Labels = []string{"help wanted", "unsupported song"}
		if _, err := h.Handle(ctx, ev); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(l.removed) != 1 {
			t.Errorf("expected Remove to be called, got %v", l.removed)
		}
	})

	t.Run("Not Relevant", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(e *IssuesEvent)
		}{
			{name: "opened", mutate: func(e *IssuesEvent) { e.Action = "opened" }},
			{name: "wrong label", mutate: func(e *IssuesEvent) { e.Labels = []string{"bug"} }},
			{name: "no labels", mutate: func(e *IssuesEvent) { e.Labels = nil }},
			{name: "other repository", mutate: func(e *IssuesEvent) { e.Repository = "swaglyrics-backend" }},
			{name: "malformed title", mutate: func(e *IssuesEvent) { e.Title = "X by Y is broken" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				l := newCountingLedger(t)
				h := NewHandler(l, nil, nil, testConfig, shared.NewLogger(io.Discard))

				ev := closed
				tt.mutate(&ev)

				resp, err := h.Handle(ctx, ev)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if resp.Message != msgNotRelevant {
					t.Errorf("expected not relevant, got %q", resp.Message)
				}
				if len(l.removed) != 0 {
					t.Errorf("ledger should not be touched, got %v", l.removed)
				}
			})
		}
	})

	t.Run("Ledger Failure", func(t *testing.T) {
		l := newCountingLedger(t)
		l.err = shared.ErrLedgerIO
		h := NewHandler(l, nil, nil, testConfig, shared.NewLogger(io.Discard))

		if _, err := h.Handle(ctx, closed); !errors.Is(err, shared.ErrLedgerIO) {
			t.Errorf("expected ErrLedgerIO, got %v", err)
		}
	})
}

func TestHandlerPush(t *testing.T) {
	ctx := context.Background()
	push := PushEvent{
		Ref:        "refs/heads/master",
		After:      "bbb",
		HeadCommit: models.Commit{ID: "bbb", Message: "Deploy"},
	}

	t.Run("Deploys And Notifies", func(t *testing.T) {
		gs := &fakeSync{result: services.PullResult{Previous: "aaa", Commit: "bbb"}}
		notifier := &tu.FakeNotifier{}
		h := NewHandler(newCountingLedger(t), gs, notifier, testConfig, shared.NewLogger(io.Discard))

		resp, err := h.Handle(ctx, push)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Commit != "bbb" || resp.Message != "Updated server to commit bbb" {
			t.Errorf("unexpected response %+v", resp)
		}
		if commits := notifier.Commits(); len(commits) != 1 || commits[0].ID != "bbb" {
			t.Errorf("expected one deploy notification, got %v", commits)
		}
	})

	t.Run("Dropped Delivery Still Deploys", func(t *testing.T) {
		gs := &fakeSync{result: services.PullResult{Previous: "aaa", Commit: "bbb"}}
		h := NewHandler(newCountingLedger(t), gs, nil, testConfig, shared.NewLogger(io.Discard))

		dropped, cancel := context.WithCancel(context.Background())
		cancel()

		resp, err := h.Handle(dropped, push)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Commit != "bbb" {
			t.Errorf("expected the pull to complete, got %+v", resp)
		}
	})

	t.Run("Head Differs From Event", func(t *testing.T) {
		gs := &fakeSync{result: services.PullResult{Previous: "aaa", Commit: "ccc"}}
		notifier := &tu.FakeNotifier{}
		h := NewHandler(newCountingLedger(t), gs, notifier, testConfig, shared.NewLogger(io.Discard))

		if _, err := h.Handle(ctx, push); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(notifier.Commits()) != 0 {
			t.Error("should not notify when the pulled commit is not the pushed head")
		}
	})

	t.Run("Notifier Failure Is Not Fatal", func(t *testing.T) {
		gs := &fakeSync{result: services.PullResult{Commit: "bbb"}}
		notifier := &tu.FakeNotifier{Err: errors.New("discord down")}
		h := NewHandler(newCountingLedger(t), gs, notifier, testConfig, shared.NewLogger(io.Discard))

		resp, err := h.Handle(ctx, push)
		if err != nil || resp.Commit != "bbb" {
			t.Errorf("expected deploy to succeed, got %+v, %v", resp, err)
		}
	})

	t.Run("Pull Failure", func(t *testing.T) {
		for _, gs := range []*fakeSync{
			{err: errors.New("exit status 1")},
			{result: services.PullResult{}},
		} {
			notifier := &tu.FakeNotifier{}
			h := NewHandler(newCountingLedger(t), gs, notifier, testConfig, shared.NewLogger(io.Discard))

			resp, err := h.Handle(ctx, push)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Message != msgNoPull {
				t.Errorf("expected no-pull message, got %q", resp.Message)
			}
			if len(notifier.Commits()) != 0 {
				t.Error("should not notify after a failed pull")
			}
		}
	})

	t.Run("Other Branch Ignored", func(t *testing.T) {
		gs := &fakeSync{}
		h := NewHandler(newCountingLedger(t), gs, nil, testConfig, shared.NewLogger(io.Discard))

		ev := push
		ev.Ref = "refs/heads/feature"
		resp, _ := h.Handle(ctx, ev)
		if gs.calls != 0 {
			t.Error("pull should not run for other branches")
		}
		if resp.Message != "Not master; ignoring" {
			t.Errorf("unexpected response %q", resp.Message)
		}
	})

	t.Run("Deploy Not Configured", func(t *testing.T) {
		h := NewHandler(newCountingLedger(t), nil, nil, testConfig, shared.NewLogger(io.Discard))
		resp, _ := h.Handle(ctx, push)
		if resp.Message != msgNoPull {
			t.Errorf("expected no-pull message, got %q", resp.Message)
		}
	})
}

func TestHandlerOtherEvents(t *testing.T) {
	ctx := context.Background()
	l := newCountingLedger(t)
	h := NewHandler(l, nil, nil, testConfig, shared.NewLogger(io.Discard))

	t.Run("Ping", func(t *testing.T) {
		resp, err := h.Handle(ctx, PingEvent{Zen: "zen"})
		if err != nil || resp.Message != "pong" {
			t.Errorf("expected pong, got %+v, %v", resp, err)
		}
	})

	t.Run("Unhandled", func(t *testing.T) {
		resp, err := h.Handle(ctx, UnhandledEvent{Name: "star"})
		if err != nil || resp.Message != msgWrongEvent {
			t.Errorf("expected wrong event type, got %+v, %v", resp, err)
		}
	})

	if len(l.removed) != 0 {
		t.Error("ping and unhandled events must not touch the ledger")
	}
}
