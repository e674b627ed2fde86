package tasks

import (
	"fmt"

	"github.com/desertthunder/strippers/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase enumerates the stages of a sweep.
type Phase int

const (
	LoadBacklog Phase = iota
	ResolveEntries
	Finished
)

func (p Phase) String() string {
	switch p {
	case LoadBacklog:
		return "load_backlog"
	case ResolveEntries:
		return "resolve_entries"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// sendProgress sends without blocking; updates are dropped when nobody is reading.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func loadedBacklogUpdate(lines, distinct int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadBacklog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d ledger lines (%d distinct pairs)", lines, distinct),
	}
}

func entryResolvedUpdate(step, total int, res EntryResult) ProgressUpdate {
	var msg string
	switch {
	case res.Error != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Key, res.Error)
	case res.Stripper != "":
		msg = fmt.Sprintf("[%d/%d] ✓ %s -> %s", step, total, res.Key, res.Stripper)
	default:
		msg = fmt.Sprintf("[%d/%d] · %s still unsupported", step, total, res.Key)
	}
	return ProgressUpdate{Phase: ResolveEntries, Step: step, Total: total, Message: msg, Data: res}
}

func finishedUpdate(r *SweepResult) ProgressUpdate {
	verb := "removed"
	if r.DryRun {
		verb = "would remove"
	}
	return ProgressUpdate{
		Phase:   Finished,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d of %d pairs resolve; %s %d ledger lines", r.Resolved, r.Total, verb, r.Removed),
		Data:    r,
	}
}

// distinct collapses repeated keys, keeping first-seen order, and counts the lines behind each.
func distinct(keys []models.SongKey) ([]models.SongKey, map[models.SongKey]int) {
	counts := make(map[models.SongKey]int, len(keys))
	out := make([]models.SongKey, 0, len(keys))
	for _, k := range keys {
		if counts[k] == 0 {
			out = append(out, k)
		}
		counts[k]++
	}
	return out, counts
}
