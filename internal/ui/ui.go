package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/strippers/internal/formatter"
	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/tasks"
)

// ViewState represents the current view in the browser.
type ViewState int

const (
	BacklogView ViewState = iota
	ConfirmView
	SweepView
	ResultView
)

// Model represents the browser state.
type Model struct {
	ctx          context.Context
	view         ViewState
	backlog      tasks.Backlog
	sweeper      *tasks.Sweeper
	opts         tasks.SweepOpts
	width        int
	height       int
	entries      list.Model
	lines        int
	status       string
	pending      *formatter.Row
	cancelSweep  context.CancelFunc
	progressChan chan tasks.ProgressUpdate
	done         chan sweepCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.SweepResult
	err          error
	spinner      spinner.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a browser over b. Sweeps started from the browser run with opts.
func NewModel(ctx context.Context, b tasks.Backlog, sweeper *tasks.Sweeper, opts tasks.SweepOpts) *Model {
	entries := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	entries.Title = "Unsupported Songs"

	return &Model{
		ctx:     ctx,
		view:    BacklogView,
		backlog: b,
		sweeper: sweeper,
		opts:    opts,
		entries: entries,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the backlog.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadBacklog(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.entries.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case BacklogView:
			return m.handleBacklogKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SweepView:
			return m.handleSweepKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case backlogLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.backlog.Rows))
		for i, row := range msg.backlog.Rows {
			items[i] = entryItem{row: row}
		}
		m.lines = msg.backlog.Lines
		m.err = nil
		return m, m.entries.SetItems(items)

	case lookupDoneMsg:
		switch {
		case errors.Is(msg.err, shared.ErrStripperNotFound):
			m.status = Warning(fmt.Sprintf("%s by %s is still unsupported", msg.row.Song, msg.row.Artist))
			return m, nil
		case msg.err != nil:
			m.status = Failure(fmt.Sprintf("Lookup failed: %v", msg.err))
			return m, nil
		}
		m.status = Success(fmt.Sprintf("✓ %s by %s -> %s", msg.row.Song, msg.row.Artist, msg.stripper))
		return m, m.entries.SetItem(msg.index, entryItem{row: msg.row, stripper: msg.stripper})

	case removedMsg:
		if msg.err != nil {
			m.status = Failure(fmt.Sprintf("Removal failed: %v", msg.err))
			return m, nil
		}
		m.status = Success(fmt.Sprintf("Deleted %d instances of %s by %s", msg.removed, msg.row.Song, msg.row.Artist))
		return m, m.loadBacklog()

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case sweepCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.done = nil
		if m.cancelSweep != nil {
			m.cancelSweep()
			m.cancelSweep = nil
		}
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return Failure(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case BacklogView:
		return m.renderBacklog()
	case ConfirmView:
		return m.renderConfirm()
	case SweepView:
		return m.renderSweep()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleBacklogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entries.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.lookup):
		if item, ok := m.entries.SelectedItem().(entryItem); ok {
			m.status = Muted(fmt.Sprintf("Looking up %s by %s...", item.row.Song, item.row.Artist))
			return m, m.lookup(m.entries.Index(), item.row)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.entries.SelectedItem().(entryItem); ok {
			row := item.row
			m.pending = &row
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.sweep):
		m.view = SweepView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startSweep()
	case key.Matches(msg, m.keys.refresh):
		m.status = ""
		return m, m.loadBacklog()
	}

	return m.updateList(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		row := *m.pending
		m.pending = nil
		m.view = BacklogView
		return m, m.remove(row)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = BacklogView
	}
	return m, nil
}

func (m *Model) handleSweepKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && m.cancelSweep != nil {
		m.status = Warning("Cancelling sweep...")
		m.cancelSweep()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.refresh):
		m.view = BacklogView
		m.result = nil
		m.err = nil
		m.status = ""
		return m, m.loadBacklog()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != BacklogView {
		return m, nil
	}
	var cmd tea.Cmd
	m.entries, cmd = m.entries.Update(msg)
	return m, cmd
}

func (m *Model) loadBacklog() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.backlog.Entries(m.ctx)
		if err != nil {
			return backlogLoadedMsg{err: err}
		}
		return backlogLoadedMsg{backlog: formatter.NewBacklog(entries, time.Now())}
	}
}

func (m *Model) lookup(index int, row formatter.Row) tea.Cmd {
	return func() tea.Msg {
		stripper, err := m.backlog.ResolveStripper(m.ctx, row.Song, row.Artist)
		return lookupDoneMsg{index: index, row: row, stripper: stripper, err: err}
	}
}

func (m *Model) remove(row formatter.Row) tea.Cmd {
	return func() tea.Msg {
		n, err := m.backlog.RemoveUnsupported(m.ctx, row.Song, row.Artist)
		return removedMsg{row: row, removed: n, err: err}
	}
}

func (m *Model) startSweep() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSweep = cancel
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan sweepCompleteMsg, 1)

	progress, done := m.progressChan, m.done
	go func() {
		result, err := m.sweeper.Run(ctx, progress, m.opts)
		close(progress)
		done <- sweepCompleteMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return sweepCompleteMsg{err: errors.New("sweep not running")}
		}

		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderBacklog() string {
	header := Muted(fmt.Sprintf("%d pairs • %d reports", len(m.entries.Items()), m.lines))
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.status == "" {
		return fmt.Sprintf("%s\n%s\n\n%s", m.entries.View(), header, helpView)
	}
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", m.entries.View(), header, m.status, helpView)
}

func (m *Model) renderConfirm() string {
	if m.pending == nil {
		return ""
	}
	title := Title(fmt.Sprintf("Remove '%s by %s' from the ledger?", m.pending.Song, m.pending.Artist))
	info := fmt.Sprintf("\nReports: %d\n", m.pending.Reports)

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSweep() string {
	title := Title("Sweeping Ledger")
	if m.opts.DryRun {
		title = Title("Sweeping Ledger (dry run)")
	}

	var phase string
	switch m.progress.Phase {
	case tasks.LoadBacklog:
		phase = "Loading backlog..."
	case tasks.ResolveEntries:
		phase = fmt.Sprintf("Resolving entries (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Finished:
		phase = "Done"
	}

	out := fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, m.progress.Message)
	if m.status != "" {
		out += "\n\n" + m.status
	}
	return out
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.result == nil {
		return Failure(fmt.Sprintf("Sweep failed: %v\n\n", m.err)) + helpView
	}

	title := Success("✓ Sweep Complete")
	if m.err != nil {
		title = Warning(fmt.Sprintf("Sweep stopped early: %v", m.err))
	}

	verb := "Removed"
	if m.result.DryRun {
		verb = "Would remove"
	}
	info := fmt.Sprintf(
		"\nPairs: %d (%d lines)\nResolved: %d\n%s: %d lines\nFailed: %d",
		m.result.Total,
		m.result.Lines,
		m.result.Resolved,
		verb,
		m.result.Removed,
		m.result.Failed,
	)

	var resolved string
	for _, res := range m.result.Entries {
		if res.Stripper != "" && res.Error == nil {
			resolved += fmt.Sprintf("\n  • %s -> %s", res.Key, res.Stripper)
		}
	}
	if resolved != "" {
		resolved = "\n\n" + Muted("Resolved:") + resolved
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, resolved, helpView)
}
