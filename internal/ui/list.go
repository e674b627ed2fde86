package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/strippers/internal/formatter"
)

var _ list.Item = entryItem{}

// entryItem wraps [formatter.Row] to implement [list.Item].
type entryItem struct {
	row      formatter.Row
	stripper string
}

func (i entryItem) FilterValue() string { return i.row.Song + " " + i.row.Artist }
func (i entryItem) Title() string       { return i.row.Song }
func (i entryItem) Description() string {
	desc := i.row.Artist
	if i.row.Reports > 1 {
		desc = fmt.Sprintf("%s • %d reports", desc, i.row.Reports)
	}
	if i.stripper != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.stripper)
	}
	return desc
}
