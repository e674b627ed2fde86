package tokens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strippers/internal/metrics"
	"github.com/desertthunder/strippers/internal/shared"
	"golang.org/x/sync/singleflight"
)

const (
	GitHubMargin    = 3 * time.Minute
	SpotifyMargin   = 5 * time.Minute
	SpotifyTokenTTL = time.Hour
)

// Source yields a bearer token for an outbound call.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Token is a bearer credential and the instant it stops being accepted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Fresh reports whether t can still be used at now with the given safety margin.
func (t Token) Fresh(now time.Time, margin time.Duration) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-margin))
}

// RefreshFunc obtains a new credential from its provider.
type RefreshFunc func(ctx context.Context) (Token, error)

// Cache holds one provider's credential.
type Cache struct {
	name    string
	margin  time.Duration
	refresh RefreshFunc
	now     func() time.Time
	logger  *log.Logger

	mu      sync.RWMutex
	current Token
	flight  singleflight.Group
}

// Option configures a [Cache].
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger refreshes are reported to.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates an empty cache; the first [Cache.Token] call refreshes.
func NewCache(name string, margin time.Duration, refresh RefreshFunc, opts ...Option) *Cache {
	c := &Cache{
		name:    name,
		margin:  margin,
		refresh: refresh,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	c.logger = shared.WithLogger(c.logger, "provider", name)
	return c
}

// Name returns the provider name the cache was created with.
func (c *Cache) Name() string {
	return c.name
}

// Current returns the cached credential without refreshing.
func (c *Cache) Current() Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Invalidate drops the cached credential so the next call refreshes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = Token{}
	c.mu.Unlock()
}

// Token returns a credential that outlives the safety margin, refreshing first when needed.
//
// A caller whose ctx ends while waiting on a refresh returns ctx.Err(); the refresh itself runs to completion
// for the remaining waiters.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok := c.Current(); tok.Fresh(c.now(), c.margin) {
		return tok.Value, nil
	}

	ch := c.flight.DoChan(c.name, func() (any, error) {
		if tok := c.Current(); tok.Fresh(c.now(), c.margin) {
			return tok, nil
		}
		return c.renew(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(Token).Value, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Cache) renew(ctx context.Context) (Token, error) {
	c.logger.Debug("refreshing token")

	tok, err := c.refresh(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(c.name, "error").Inc()
		c.logger.Error("token refresh failed", "error", err)
		return Token{}, fmt.Errorf("%w: %s: %w", shared.ErrCredentialRefresh, c.name, err)
	}
	if tok.Value == "" || tok.ExpiresAt.IsZero() {
		metrics.TokenRefreshes.WithLabelValues(c.name, "malformed").Inc()
		c.logger.Error("token refresh returned a malformed payload")
		return Token{}, fmt.Errorf("%w: %s: malformed token payload", shared.ErrCredentialRefresh, c.name)
	}

	c.mu.Lock()
	c.current = tok
	c.mu.Unlock()

	metrics.TokenRefreshes.WithLabelValues(c.name, "ok").Inc()
	c.logger.Info("token updated", "token", shared.TokenPrefix(tok.Value, 12), "expires_at", tok.ExpiresAt)
	return tok, nil
}

// Static is a long-lived token that never needs refreshing.
type Static string

// Token returns the static value, or an error when it is empty.
func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", shared.ErrMissingCredentials
	}
	return string(s), nil
}
