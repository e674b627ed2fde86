package ui

import (
	"github.com/desertthunder/strippers/internal/formatter"
	"github.com/desertthunder/strippers/internal/tasks"
)

type backlogLoadedMsg struct {
	backlog *formatter.Backlog
	err     error
}

type lookupDoneMsg struct {
	index    int
	row      formatter.Row
	stripper string
	err      error
}

type removedMsg struct {
	row     formatter.Row
	removed int
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

type sweepCompleteMsg struct {
	result *tasks.SweepResult
	err    error
}
