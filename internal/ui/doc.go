// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view browser over the resolution log:
//  1. [HistoryListView] : Browse recorded resolution attempts
//  2. [DetailView] : Inspect a single attempt (query, match, confidence)
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// History rows are fetched asynchronously via a tea.Cmd so the interface
// never blocks on the database.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
