// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/strippers/internal/models"
)

// FakeTrackProvider is a test double for a catalog search.
//
// Tracks maps "{title} {artist}" to the first search hit. Err, when set, is returned for every call.
type FakeTrackProvider struct {
	Tracks map[string]*models.Track
	Err    error
	calls  atomic.Int32
}

func (f *FakeTrackProvider) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	if t, ok := f.Tracks[title+" "+artist]; ok {
		return t, nil
	}
	return nil, errors.New("track not found")
}

// Calls returns how many searches were made.
func (f *FakeTrackProvider) Calls() int { return int(f.calls.Load()) }

// FakeSearchProvider is a test double for a lyrics search.
type FakeSearchProvider struct {
	Hits    []models.SearchHit
	Err     error
	mu      sync.Mutex
	queries []string
}

func (f *FakeSearchProvider) Search(ctx context.Context, query string) ([]models.SearchHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Hits, nil
}

// Queries returns the queries searched so far.
func (f *FakeSearchProvider) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// FakeNotifier records deploy announcements.
type FakeNotifier struct {
	Err     error
	mu      sync.Mutex
	commits []models.Commit
}

func (f *FakeNotifier) NotifyDeploy(ctx context.Context, commit models.Commit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, commit)
	return f.Err
}

// Commits returns the announced commits.
func (f *FakeNotifier) Commits() []models.Commit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Commit(nil), f.commits...)
}

// StaticToken is a token source that always returns Value, or Err when set.
type StaticToken struct {
	Value string
	Err   error
}

func (s StaticToken) Token(context.Context) (string, error) {
	return s.Value, s.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
