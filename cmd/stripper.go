package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/strippers/internal/shared"
	"github.com/urfave/cli/v3"
)

// StripperGet resolves a stripper the same way GET /stripper does.
func (r *Runner) StripperGet(ctx context.Context, cmd *cli.Command) error {
	song, artist := cmd.String("song"), cmd.String("artist")
	if song == "" || artist == "" {
		return fmt.Errorf("%w: --song and --artist", shared.ErrMissingArgument)
	}

	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	stripper, err := s.resolver.ResolveStripper(ctx, song, artist)
	if errors.Is(err, shared.ErrStripperNotFound) {
		return r.writePlain("✗ No stripper for %s by %s\n", song, artist)
	}
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", stripper)
}

// StripperAdd stores a confirmed stripper and clears the pair from the ledger.
func (r *Runner) StripperAdd(ctx context.Context, cmd *cli.Command) error {
	song, artist, stripper := cmd.String("song"), cmd.String("artist"), cmd.String("stripper")
	if song == "" || artist == "" || stripper == "" {
		return fmt.Errorf("%w: --song, --artist and --stripper", shared.ErrMissingArgument)
	}

	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.resolver.AddStripper(ctx, song, artist, stripper)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s for %s by %s, removed %d ledger lines\n", stripper, song, artist, n)
}

// StripperList prints stored strippers, optionally filtered by artist.
func (r *Runner) StripperList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.store.List(map[string]any{"artist": cmd.String("artist")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	r.writePlainHeader(fmt.Sprintf("Strippers (%d)", len(records)))
	for _, rec := range records {
		r.writePlain("%4d  %s  %s\n", rec.Sequence, rec.Key(), rec.Stripper)
	}
	return nil
}
