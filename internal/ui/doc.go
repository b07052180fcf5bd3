// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI resolves entries the reconciler could not match on its own:
//  1. [ReviewView] : Browse entries that need a human choice, or press v to validate the whole playlist
//  2. [CandidateView] : Pick one of the catalog candidates for an entry, or skip it
//  3. [ValidateView] : Monitor validation progress updates
//  4. [DoneView] : Summary once nothing is left to choose
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every choice is applied to the shared [tasks.Session], so the CLI sees the same playlist the picker edited.
//
// The candidate the matcher considers closest is marked with a star and preselected.
// Keyboard navigation uses vim-style bindings (j/k, enter, s, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
