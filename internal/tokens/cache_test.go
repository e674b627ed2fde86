package tokens

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/strippers/internal/shared"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, clk *clock, margin time.Duration, refresh RefreshFunc) *Cache {
	t.Helper()
	return NewCache("test", margin, refresh, WithClock(clk.Now), WithLogger(shared.NewLogger(io.Discard)))
}

func TestCache(t *testing.T) {
	t.Run("Refreshes Empty Cache Once", func(t *testing.T) {
		clk := &clock{now: base}
		var calls atomic.Int32
		cache := newTestCache(t, clk, GitHubMargin, func(ctx context.Context) (Token, error) {
			calls.Add(1)
			return Token{Value: "tok-1", ExpiresAt: clk.Now().Add(time.Hour)}, nil
		})

		for i := 0; i < 3; i++ {
			got, err := cache.Token(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != "tok-1" {
				t.Errorf("expected tok-1, got %s", got)
			}
		}

		if calls.Load() != 1 {
			t.Errorf("expected 1 refresh, got %d", calls.Load())
		}
	})

	t.Run("Comfortably Fresh Token Triggers No Refresh", func(t *testing.T) {
		clk := &clock{now: base}
		var calls atomic.Int32
		cache := newTestCache(t, clk, SpotifyMargin, func(ctx context.Context) (Token, error) {
			calls.Add(1)
			return Token{Value: "fresh", ExpiresAt: clk.Now().Add(time.Hour)}, nil
		})
		if _, err := cache.Token(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		clk.Advance(54 * time.Minute)
		if _, err := cache.Token(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected no additional refresh, got %d calls", calls.Load())
		}
	})

	t.Run("Refreshes Inside Safety Margin", func(t *testing.T) {
		clk := &clock{now: base}
		var calls atomic.Int32
		cache := newTestCache(t, clk, SpotifyMargin, func(ctx context.Context) (Token, error) {
			n := calls.Add(1)
			return Token{Value: []string{"", "first", "second"}[n], ExpiresAt: clk.Now().Add(time.Hour)}, nil
		})
		if _, err := cache.Token(context.Background()); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		// exactly at expiresAt - margin counts as stale
		clk.Advance(55 * time.Minute)
		got, err := cache.Token(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "second" {
			t.Errorf("expected refreshed token, got %s", got)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 refreshes, got %d", calls.Load())
		}
	})

	t.Run("Concurrent Callers Share One Refresh", func(t *testing.T) {
		clk := &clock{now: base}
		var calls atomic.Int32
		release := make(chan struct{})
		cache := newTestCache(t, clk, GitHubMargin, func(ctx context.Context) (Token, error) {
			calls.Add(1)
			<-release
			return Token{Value: "shared", ExpiresAt: base.Add(time.Hour)}, nil
		})

		const callers = 50
		var wg sync.WaitGroup
		results := make(chan string, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := cache.Token(context.Background())
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				results <- tok
			}()
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()
		close(results)

		for tok := range results {
			if tok != "shared" {
				t.Errorf("expected shared token, got %s", tok)
			}
		}
		if calls.Load() != 1 {
			t.Errorf("expected exactly 1 refresh, got %d", calls.Load())
		}
	})

	t.Run("Refresh Error", func(t *testing.T) {
		clk := &clock{now: base}
		boom := errors.New("boom")
		cache := newTestCache(t, clk, GitHubMargin, func(ctx context.Context) (Token, error) {
			return Token{}, boom
		})

		_, err := cache.Token(context.Background())
		if !errors.Is(err, shared.ErrCredentialRefresh) {
			t.Errorf("expected ErrCredentialRefresh, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected cause to be wrapped, got %v", err)
		}
		if cache.Current().Value != "" {
			t.Error("failed refresh should not populate the cache")
		}
	})

	t.Run("Malformed Payload", func(t *testing.T) {
		tc := []struct {
			name string
			tok  Token
		}{
			{name: "empty value", tok: Token{ExpiresAt: base.Add(time.Hour)}},
			{name: "zero expiry", tok: Token{Value: "abc"}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				cache := newTestCache(t, &clock{now: base}, GitHubMargin, func(ctx context.Context) (Token, error) {
					return tt.tok, nil
				})
				if _, err := cache.Token(context.Background()); !errors.Is(err, shared.ErrCredentialRefresh) {
					t.Errorf("expected ErrCredentialRefresh, got %v", err)
				}
			})
		}
	})

	t.Run("Independent Caches", func(t *testing.T) {
		clk := &clock{now: base}
		var ghCalls, spCalls atomic.Int32
		gh := NewCache("github", GitHubMargin, func(ctx context.Context) (Token, error) {
			ghCalls.Add(1)
			return Token{Value: "gh", ExpiresAt: clk.Now().Add(time.Hour)}, nil
		}, WithClock(clk.Now), WithLogger(shared.NewLogger(io.Discard)))
		sp := NewCache("spotify", SpotifyMargin, func(ctx context.Context) (Token, error) {
			spCalls.Add(1)
			return Token{Value: "sp", ExpiresAt: clk.Now().Add(time.Hour)}, nil
		}, WithClock(clk.Now), WithLogger(shared.NewLogger(io.Discard)))

		if tok, _ := gh.Token(context.Background()); tok != "gh" {
			t.Errorf("expected gh, got %s", tok)
		}
		if spCalls.Load() != 0 {
			t.Error("refreshing one cache must not touch the other")
		}
		if tok, _ := sp.Token(context.Background()); tok != "sp" {
			t.Errorf("expected sp, got %s", tok)
		}
		if ghCalls.Load() != 1 || spCalls.Load() != 1 {
			t.Errorf("expected one refresh each, got gh=%d sp=%d", ghCalls.Load(), spCalls.Load())
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		clk := &clock{now: base}
		var calls atomic.Int32
		cache := newTestCache(t, clk, GitHubMargin, func(ctx context.Context) (Token, error) {
			calls.Add(1)
			return Token{Value: "v", ExpiresAt: clk.Now().Add(time.Hour)}, nil
		})
		cache.Token(context.Background())
		cache.Invalidate()
		cache.Token(context.Background())
		if calls.Load() != 2 {
			t.Errorf("expected refresh after invalidate, got %d calls", calls.Load())
		}
	})

	t.Run("Waiter Cancellation Does Not Abort Refresh", func(t *testing.T) {
		clk := &clock{now: base}
		release := make(chan struct{})
		done := make(chan error, 1)
		cache := newTestCache(t, clk, GitHubMargin, func(ctx context.Context) (Token, error) {
			<-release
			done <- ctx.Err()
			return Token{Value: "late", ExpiresAt: base.Add(time.Hour)}, nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		if _, err := cache.Token(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Errorf("refresh context should not be cancelled, got %v", err)
		}

		tok, err := cache.Token(context.Background())
		if err != nil || tok != "late" {
			t.Errorf("expected completed refresh to be cached, got %q %v", tok, err)
		}
	})
}

func TestStatic(t *testing.T) {
	if tok, err := Static("abc").Token(context.Background()); err != nil || tok != "abc" {
		t.Errorf("expected abc, got %q %v", tok, err)
	}
	if _, err := Static("").Token(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}
