package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/strippers/internal/formatter"
	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LedgerDump prints the ledger exactly as /master_unsupported serves it.
func (r *Runner) LedgerDump(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	dump, err := s.resolver.Backlog(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%s", dump)
}

// LedgerRemove deletes every entry for a pair.
func (r *Runner) LedgerRemove(ctx context.Context, cmd *cli.Command) error {
	song, artist := cmd.String("song"), cmd.String("artist")
	if song == "" || artist == "" {
		return fmt.Errorf("%w: --song and --artist", shared.ErrMissingArgument)
	}

	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.resolver.RemoveUnsupported(ctx, song, artist)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %d instances of %s by %s\n", n, song, artist)
}

// LedgerExport writes the backlog as text, CSV, Markdown or JSON.
func (r *Runner) LedgerExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.resolver.Entries(ctx)
	if err != nil {
		return err
	}
	backlog := formatter.NewBacklog(entries, r.now())

	if cmd.Bool("stdout") {
		data, err := formatter.Export(backlog, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	path, err := formatter.WriteExport(backlog, format, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("backlog exported", "path", path, "songs", len(backlog.Rows), "lines", backlog.Lines)
	return r.writePlain("✓ Exported %d songs to %s\n", len(backlog.Rows), path)
}

// LedgerSweep re-resolves every pending pair and clears those that now have a stripper.
func (r *Runner) LedgerSweep(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	opts := r.sweepOpts(cmd)
	result, err := tasks.NewSweeper(s.resolver, r.logger).Run(ctx, nil, opts)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sweepReport(result), true)
	}

	title := "Sweep"
	if result.DryRun {
		title = "Sweep (dry run)"
	}
	r.writePlainHeader(title)
	for _, e := range result.Entries {
		switch {
		case e.Error != nil:
			r.writePlain("✗ %s: %v\n", e.Key, e.Error)
		case e.Stripper != "":
			r.writePlain("✓ %s -> %s (%d lines)\n", e.Key, e.Stripper, e.Removed)
		}
	}
	r.writePlainln("%d of %d songs resolved, %d lines removed, %d failed",
		result.Resolved, result.Total, result.Removed, result.Failed)
	return nil
}

func (r *Runner) sweepOpts(cmd *cli.Command) tasks.SweepOpts {
	opts := tasks.SweepOpts{
		NumWorkers: r.config.Sweep.Workers,
		RateLimit:  r.config.Sweep.RateLimit,
		DryRun:     cmd.Bool("dry-run"),
	}
	if w := cmd.Int("workers"); w > 0 {
		opts.NumWorkers = int(w)
	}
	if rl := cmd.Float("rate"); rl > 0 {
		opts.RateLimit = rl
	}
	return opts
}

type sweepRow struct {
	Song     string `json:"song"`
	Artist   string `json:"artist"`
	Stripper string `json:"stripper,omitempty"`
	Removed  int    `json:"removed"`
	Error    string `json:"error,omitempty"`
}

type sweepSummary struct {
	Lines    int        `json:"lines"`
	Total    int        `json:"total"`
	Resolved int        `json:"resolved"`
	Removed  int        `json:"removed"`
	Failed   int        `json:"failed"`
	DryRun   bool       `json:"dry_run"`
	Entries  []sweepRow `json:"entries"`
}

func sweepReport(r *tasks.SweepResult) sweepSummary {
	out := sweepSummary{
		Lines:    r.Lines,
		Total:    r.Total,
		Resolved: r.Resolved,
		Removed:  r.Removed,
		Failed:   r.Failed,
		DryRun:   r.DryRun,
		Entries:  make([]sweepRow, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		row := sweepRow{Song: e.Key.Song, Artist: e.Key.Artist, Stripper: e.Stripper, Removed: e.Removed}
		if e.Error != nil {
			row.Error = e.Error.Error()
		}
		out.Entries = append(out.Entries, row)
	}
	return out
}
