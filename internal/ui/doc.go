// Package ui provides the terminal user interface for vitrine.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. The Model owns the navigation machine,
// the placeholder tree and the thumbnail pipeline; none of them are shared
// with other goroutines. Network work runs in tea.Cmds and its results come
// back as messages handled in Update.
//
// Three wake-ups feed the loop from outside:
//
//   - stateMsg when the state.Store changes (a coalescing signal)
//   - flushMsg when the pipeline's prioritize debounce fires
//   - busMsg for edit and regeneration events published on the state.Bus
//
// # Views
//
//   - Gallery: a grid of half-block thumbnails with selection, filters and search
//   - Zoom: the active image with the edit and metadata inspector
//   - Fullscreen: the active image alone with a one-line status
//
// Modals (help, confirmations, unsaved-edit prompt, bulk summaries,
// extraction conflicts and the warning log) draw over the whole screen and
// take all input while open.
//
// # Package Structure
//
//   - app.go: Model, Update loop, wake-up commands and Run
//   - navigation.go: navigation outcomes, asset loading and edit/bulk commands
//   - input_handlers.go: keyboard and mouse routing per view
//   - grid.go, picture.go: gallery layout and half-block rendering
//   - viewer.go: zoom, fullscreen and the inspector panel
//   - header.go: status bar, command bar and footer
//   - modal.go, help.go: overlays
//   - theme.go, style_helpers.go, strings.go: styling and text helpers
package ui
