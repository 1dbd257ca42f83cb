package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Logs       key.Binding
	Escape     key.Binding

	// Navigation
	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Open       key.Binding
	Fullscreen key.Binding
	Close      key.Binding

	// Selection
	Toggle      key.Binding
	ExtendLeft  key.Binding
	ExtendRight key.Binding
	SelectAll   key.Binding

	// Library
	Search      key.Binding
	Trash       key.Binding
	Sort        key.Binding
	HasWorkflow key.Binding
	HasPrompt   key.Binding
	HasEdits    key.Binding
	HasTags     key.Binding
	Reload      key.Binding
	Delete      key.Binding
	Restore     key.Binding
	Purge       key.Binding
	Extract     key.Binding
	ExtractAll  key.Binding
	Retry       key.Binding
	Bigger      key.Binding
	Smaller     key.Binding

	// Viewer
	Inspector key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ZoomReset key.Binding
	PanLeft   key.Binding
	PanRight  key.Binding
	PanUp     key.Binding
	PanDown   key.Binding

	// Edits
	BrightnessDown key.Binding
	BrightnessUp   key.Binding
	ContrastDown   key.Binding
	ContrastUp     key.Binding
	SaturationDown key.Binding
	SaturationUp   key.Binding
	SpeedDown      key.Binding
	SpeedUp        key.Binding
	Save           key.Binding
	Revert         key.Binding
	ResetEdits     key.Binding

	// Search/input
	Confirm    key.Binding
	CycleScope key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Warnings log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back / clear selection"),
		),

		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "Previous"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "Next"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "Row up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "Row down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "First image"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Last image"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Zoom"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Fullscreen"),
		),
		Close: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("bksp", "Back to gallery"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle selection"),
		),
		ExtendLeft: key.NewBinding(
			key.WithKeys("shift+left"),
			key.WithHelp("shift+←", "Extend left"),
		),
		ExtendRight: key.NewBinding(
			key.WithKeys("shift+right"),
			key.WithHelp("shift+→", "Extend right"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "Select all"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		Trash: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Trash view"),
		),
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Cycle sort"),
		),
		HasWorkflow: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Has workflow"),
		),
		HasPrompt: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Has prompt"),
		),
		HasEdits: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Has edits"),
		),
		HasTags: key.NewBinding(
			key.WithKeys("#"),
			key.WithHelp("#", "Has tags"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Reload"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "Move to trash"),
		),
		Restore: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "Restore"),
		),
		Purge: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Delete forever"),
		),
		Extract: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Extract metadata"),
		),
		ExtractAll: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "Re-extract metadata"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Retry"),
		),
		Bigger: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Larger cells"),
		),
		Smaller: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Smaller cells"),
		),

		Inspector: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Inspector"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Zoom out"),
		),
		ZoomReset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "Reset zoom"),
		),
		PanLeft: key.NewBinding(
			key.WithKeys("shift+left"),
			key.WithHelp("shift+←", "Pan left"),
		),
		PanRight: key.NewBinding(
			key.WithKeys("shift+right"),
			key.WithHelp("shift+→", "Pan right"),
		),
		PanUp: key.NewBinding(
			key.WithKeys("shift+up"),
			key.WithHelp("shift+↑", "Pan up"),
		),
		PanDown: key.NewBinding(
			key.WithKeys("shift+down"),
			key.WithHelp("shift+↓", "Pan down"),
		),

		BrightnessDown: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b/B", "Brightness -/+"),
		),
		BrightnessUp: key.NewBinding(
			key.WithKeys("B"),
		),
		ContrastDown: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c/C", "Contrast -/+"),
		),
		ContrastUp: key.NewBinding(
			key.WithKeys("C"),
		),
		SaturationDown: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s/S", "Saturation -/+"),
		),
		SaturationUp: key.NewBinding(
			key.WithKeys("S"),
		),
		SpeedDown: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("</>", "Playback speed"),
		),
		SpeedUp: key.NewBinding(
			key.WithKeys(">"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save edits"),
		),
		Revert: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Revert to saved"),
		),
		ResetEdits: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reset to original"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		CycleScope: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Search scope"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Search, k.Toggle, k.Delete, k.Trash, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.Top, k.Bottom, k.Open, k.Fullscreen, k.Escape},
		{k.Toggle, k.ExtendLeft, k.SelectAll},
		{k.Search, k.CycleScope, k.Trash, k.Sort, k.HasWorkflow, k.HasPrompt, k.HasEdits, k.HasTags, k.Reload},
		{k.Delete, k.Restore, k.Purge, k.Extract, k.ExtractAll, k.Retry, k.Bigger},
		{k.Inspector, k.ZoomIn, k.ZoomOut, k.ZoomReset, k.PanLeft},
		{k.BrightnessDown, k.ContrastDown, k.SaturationDown, k.SpeedDown, k.Save, k.Revert, k.ResetEdits},
		{k.Logs, k.CycleTheme, k.Help, k.Quit},
	}
}

// viewerHelp is the short help shown in zoom and fullscreen.
func (k keyMap) viewerHelp() []key.Binding {
	return []key.Binding{k.Left, k.Escape, k.Fullscreen, k.Inspector, k.BrightnessDown, k.Save, k.Help}
}

// helpTitles name the FullHelp groups in order.
var helpTitles = []string{"Navigate", "Select", "Filter", "Library", "Viewer", "Edit", "General"}
