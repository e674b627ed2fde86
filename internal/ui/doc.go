// Package ui renders CLI output and the interactive backlog browser.
//
// The browser is a bubbletea program with four views:
//  1. [BacklogView] : Browse distinct unsupported pairs and their report counts
//  2. [ConfirmView] : Confirm removal of the selected pair
//  3. [SweepView] : Watch a ledger sweep resolve entries
//  4. [ResultView] : Sweep summary
//
// [Model] follows bubbletea's Init/Update/View pattern. Sweep progress flows through a channel from
// [tasks.Sweeper], and lookups and removals run as commands so the view never blocks.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, d, s, y/n, esc, q) with contextual help from
// charmbracelet/bubbles/help.
package ui
