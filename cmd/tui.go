package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/tasks"
	"github.com/desertthunder/strippers/internal/ui"
	"github.com/urfave/cli/v3"
)

// LedgerBrowse launches the interactive backlog browser.
func (r *Runner) LedgerBrowse(ctx context.Context, cmd *cli.Command) error {
	// Logs would draw over the alternate screen.
	r.logger = shared.NewLogger(io.Discard)

	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	sweeper := tasks.NewSweeper(s.resolver, r.logger)

	model := ui.NewModel(ctx, s.resolver, sweeper, r.sweepOpts(cmd))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
