package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
)

const (
	DefaultWorkers   = 4
	MaxWorkers       = 10
	DefaultRateLimit = 1.0
)

// Backlog is the part of the resolver a sweep drives.
type Backlog interface {
	Entries(ctx context.Context) ([]models.SongKey, error)
	ResolveStripper(ctx context.Context, song, artist string) (string, error)
	RemoveUnsupported(ctx context.Context, song, artist string) (int, error)
}

// SweepOpts configures a sweep.
type SweepOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Resolutions per second across all workers (default: 1)
	DryRun     bool    // Resolve only; leave the ledger untouched
}

// EntryResult is the outcome for one distinct pair.
type EntryResult struct {
	Key      models.SongKey
	Stripper string // empty when the pair still does not resolve
	Removed  int    // ledger lines removed, or that would be removed on a dry run
	Error    error
}

// SweepResult summarises a sweep. Entries keep ledger order.
type SweepResult struct {
	Lines    int
	Total    int
	Resolved int
	Removed  int
	Failed   int
	DryRun   bool
	Entries  []EntryResult
}

type sweepJob struct {
	index int
	key   models.SongKey
}

// Sweeper re-resolves ledger entries and clears the ones that now have a stripper.
type Sweeper struct {
	backlog Backlog
	logger  *log.Logger
}

// NewSweeper creates a Sweeper over b.
func NewSweeper(b Backlog, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Sweeper{backlog: b, logger: shared.WithLogger(logger, "task", "sweep")}
}

// Run sweeps the ledger. When ctx ends early the partial result is returned with ctx.Err().
func (s *Sweeper) Run(ctx context.Context, prog chan<- ProgressUpdate, opts SweepOpts) (*SweepResult, error) {
	if s.backlog == nil {
		return nil, fmt.Errorf("%w: backlog not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	lines, err := s.backlog.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load backlog: %w", err)
	}

	keys, counts := distinct(lines)
	result := &SweepResult{
		Lines:   len(lines),
		Total:   len(keys),
		DryRun:  opts.DryRun,
		Entries: make([]EntryResult, len(keys)),
	}
	sendProgress(prog, loadedBacklogUpdate(len(lines), len(keys)))
	s.logger.Info("sweep started", "lines", len(lines), "pairs", len(keys), "workers", opts.NumWorkers, "dry_run", opts.DryRun)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan sweepJob)
	done := make(chan int, len(keys))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				res := s.sweepOne(ctx, job.key, counts[job.key], opts.DryRun)
				result.Entries[job.index] = res
				done <- job.index
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, k := range keys {
			select {
			case jobs <- sweepJob{index: i, key: k}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for idx := range done {
		completed++
		sendProgress(prog, entryResolvedUpdate(completed, len(keys), result.Entries[idx]))
	}

	processed := result.Entries[:0]
	for _, res := range result.Entries {
		if res.Key == (models.SongKey{}) {
			continue
		}
		switch {
		case res.Error != nil:
			result.Failed++
		case res.Stripper != "":
			result.Resolved++
			result.Removed += res.Removed
		}
		processed = append(processed, res)
	}
	result.Entries = processed

	sendProgress(prog, finishedUpdate(result))
	s.logger.Info("sweep finished", "resolved", result.Resolved, "removed", result.Removed, "failed", result.Failed)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, key models.SongKey, lines int, dryRun bool) EntryResult {
	res := EntryResult{Key: key}

	stripper, err := s.backlog.ResolveStripper(ctx, key.Song, key.Artist)
	if errors.Is(err, shared.ErrStripperNotFound) {
		return res
	}
	if err != nil {
		res.Error = err
		return res
	}
	res.Stripper = stripper

	if dryRun {
		res.Removed = lines
		return res
	}

	n, err := s.backlog.RemoveUnsupported(ctx, key.Song, key.Artist)
	if err != nil {
		res.Error = fmt.Errorf("remove %s: %w", key, err)
		return res
	}
	res.Removed = n
	s.logger.Debug("entry cleared", "song", key.Song, "artist", key.Artist, "stripper", stripper, "removed", n)
	return res
}
