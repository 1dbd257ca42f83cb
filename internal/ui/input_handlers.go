package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/vitrine/internal/edit"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/library"
	"github.com/five82/vitrine/internal/nav"
	"github.com/five82/vitrine/internal/state"
)

const (
	cellWidthStep = 2
	minCellWidth  = 8
	maxCellWidth  = 64
)

// clickInfo remembers the last plain click for double-click detection.
type clickInfo struct {
	index int
	at    time.Time
}

// dragInfo is the last pointer position of a pan drag.
type dragInfo struct {
	x, y int
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return cmd
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.edits.HasUnsavedChanges() {
			m.modal = confirmModal{
				title:  "Quit with unsaved edits?",
				detail: "Changes to the current image will be lost.",
				onYes:  quitMsg{},
			}
			return nil
		}
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.modal = helpModal{}
		return nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.refreshInspector()
		return nil
	case key.Matches(msg, m.keys.Logs):
		return m.logsCmd()
	}

	if m.state.ViewMode == state.ModeGallery {
		return m.handleGalleryKey(msg)
	}
	return m.handleViewerKey(msg)
}

// handleGalleryKey processes keyboard input for the grid.
func (m *Model) handleGalleryKey(msg tea.KeyMsg) tea.Cmd {
	g := m.grid()
	count := len(m.state.Images)
	trash := m.state.Filters.ShowTrashed

	switch {
	case key.Matches(msg, m.keys.ExtendLeft):
		return m.extendBy(-1)
	case key.Matches(msg, m.keys.ExtendRight):
		return m.extendBy(1)
	case key.Matches(msg, m.keys.Left):
		return m.dispatch(nav.Action{Kind: nav.Navigate, Dir: -1})
	case key.Matches(msg, m.keys.Right):
		return m.dispatch(nav.Action{Kind: nav.Navigate, Dir: 1})
	case key.Matches(msg, m.keys.Up):
		return m.dispatch(nav.Action{Kind: nav.NavigateGrid, Dir: -1, Cols: g.cols})
	case key.Matches(msg, m.keys.Down):
		return m.dispatch(nav.Action{Kind: nav.NavigateGrid, Dir: 1, Cols: g.cols})
	case key.Matches(msg, m.keys.PageUp):
		return m.dispatch(nav.Action{Kind: nav.NavigateGrid, Dir: -g.rows, Cols: g.cols})
	case key.Matches(msg, m.keys.PageDown):
		return m.dispatch(nav.Action{Kind: nav.NavigateGrid, Dir: g.rows, Cols: g.cols})
	case key.Matches(msg, m.keys.Top):
		return m.dispatch(nav.Action{Kind: nav.Focus, Index: 0})
	case key.Matches(msg, m.keys.Bottom):
		return m.dispatch(nav.Action{Kind: nav.Focus, Index: count - 1})
	case key.Matches(msg, m.keys.Open):
		return m.dispatch(nav.Action{Kind: nav.Open, Index: max(0, m.state.NavIndex)})
	case key.Matches(msg, m.keys.Fullscreen):
		return m.dispatch(nav.Action{Kind: nav.ToggleFullscreen})

	case key.Matches(msg, m.keys.Toggle):
		if p, ok := m.cursorPath(); ok {
			m.library.Toggle(p)
			return m.syncState()
		}
	case key.Matches(msg, m.keys.SelectAll):
		m.library.SelectAll()
		return m.syncState()
	case key.Matches(msg, m.keys.Escape):
		switch {
		case len(m.state.Selection) > 0:
			m.library.ClearSelection()
			return m.syncState()
		case m.state.Filters.Search != "":
			return m.setFilters(&state.FilterPatch{Search: state.Set("")})
		}

	case key.Matches(msg, m.keys.Search):
		return m.startSearch()
	case key.Matches(msg, m.keys.Trash):
		m.prefs.ShowTrashed = !trash
		m.savePrefs()
		m.library.ClearSelection()
		return m.setFilters(&state.FilterPatch{ShowTrashed: state.Set(!trash)})
	case key.Matches(msg, m.keys.Sort):
		next := nextSort(m.state.Filters.Normalized().Sort)
		m.prefs.Sort = string(next)
		m.savePrefs()
		return m.setFilters(&state.FilterPatch{Sort: state.Set(next)})
	case key.Matches(msg, m.keys.HasWorkflow):
		return m.setFilters(&state.FilterPatch{HasWorkflow: state.Set(!m.state.Filters.HasWorkflow)})
	case key.Matches(msg, m.keys.HasPrompt):
		return m.setFilters(&state.FilterPatch{HasPrompt: state.Set(!m.state.Filters.HasPrompt)})
	case key.Matches(msg, m.keys.HasEdits):
		return m.setFilters(&state.FilterPatch{HasEdits: state.Set(!m.state.Filters.HasEdits)})
	case key.Matches(msg, m.keys.HasTags):
		return m.setFilters(&state.FilterPatch{HasTags: state.Set(!m.state.Filters.HasTags)})
	case key.Matches(msg, m.keys.Reload):
		return m.reloadCmd()

	case key.Matches(msg, m.keys.Delete):
		if trash {
			m.confirmPurge(m.library.Targets())
			return nil
		}
		return m.bulkCmd(library.OpDelete, m.library.Targets())
	case key.Matches(msg, m.keys.Restore):
		if !trash {
			return m.setFlash("Restore works in the trash view (t)", flashWarn)
		}
		return m.bulkCmd(library.OpRestore, m.library.Targets())
	case key.Matches(msg, m.keys.Purge):
		m.confirmPurge(m.library.Targets())
		return nil
	case key.Matches(msg, m.keys.Extract):
		return m.extractCmd(m.library.Targets(), false)
	case key.Matches(msg, m.keys.ExtractAll):
		return m.extractCmd(m.library.Targets(), true)
	case key.Matches(msg, m.keys.Retry):
		return m.retryThumbs()

	case key.Matches(msg, m.keys.Bigger):
		m.resizeCells(cellWidthStep)
	case key.Matches(msg, m.keys.Smaller):
		m.resizeCells(-cellWidthStep)
	}
	return nil
}

// handleViewerKey processes keyboard input in zoom and fullscreen.
func (m *Model) handleViewerKey(msg tea.KeyMsg) tea.Cmd {
	v := m.viewer()
	cx, cy := float64(v.w)/2, float64(v.h)

	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.dispatch(nav.Action{Kind: nav.Escape})
	case key.Matches(msg, m.keys.Close):
		return m.dispatch(nav.Action{Kind: nav.Close})
	case key.Matches(msg, m.keys.Fullscreen):
		return m.dispatch(nav.Action{Kind: nav.ToggleFullscreen})

	case key.Matches(msg, m.keys.PanLeft):
		m.nav.Pan(panStep, 0)
	case key.Matches(msg, m.keys.PanRight):
		m.nav.Pan(-panStep, 0)
	case key.Matches(msg, m.keys.PanUp):
		m.nav.Pan(0, panStep)
	case key.Matches(msg, m.keys.PanDown):
		m.nav.Pan(0, -panStep)
	case key.Matches(msg, m.keys.Left):
		return m.dispatch(nav.Action{Kind: nav.Navigate, Dir: -1})
	case key.Matches(msg, m.keys.Right):
		return m.dispatch(nav.Action{Kind: nav.Navigate, Dir: 1})
	case key.Matches(msg, m.keys.ZoomIn):
		m.nav.Wheel(cx, cy, keyZoom)
	case key.Matches(msg, m.keys.ZoomOut):
		m.nav.Wheel(cx, cy, -keyZoom)
	case key.Matches(msg, m.keys.ZoomReset):
		m.nav.ResetTransform()
	case key.Matches(msg, m.keys.Inspector):
		m.inspectorOpen = !m.inspectorOpen
		m.refreshInspector()

	case key.Matches(msg, m.keys.BrightnessDown):
		return m.adjust(func(a *gallery.Adjustments) { a.Brightness -= adjustStep })
	case key.Matches(msg, m.keys.BrightnessUp):
		return m.adjust(func(a *gallery.Adjustments) { a.Brightness += adjustStep })
	case key.Matches(msg, m.keys.ContrastDown):
		return m.adjust(func(a *gallery.Adjustments) { a.Contrast -= adjustStep })
	case key.Matches(msg, m.keys.ContrastUp):
		return m.adjust(func(a *gallery.Adjustments) { a.Contrast += adjustStep })
	case key.Matches(msg, m.keys.SaturationDown):
		return m.adjust(func(a *gallery.Adjustments) { a.Saturation -= adjustStep })
	case key.Matches(msg, m.keys.SaturationUp):
		return m.adjust(func(a *gallery.Adjustments) { a.Saturation += adjustStep })
	case key.Matches(msg, m.keys.SpeedDown):
		return m.adjustSpeed(-speedStep)
	case key.Matches(msg, m.keys.SpeedUp):
		return m.adjustSpeed(speedStep)
	case key.Matches(msg, m.keys.Save):
		if !m.edits.IsDirty() {
			return m.setFlash("No changes to save", flashInfo)
		}
		return m.saveCmd(false)
	case key.Matches(msg, m.keys.Revert):
		m.edits.Cancel()
		m.refreshInspector()
	case key.Matches(msg, m.keys.ResetEdits):
		m.modal = confirmModal{
			title:  "Reset edits?",
			detail: "The saved edit is removed and the original is restored.",
			onYes:  resetRequestMsg{},
		}

	case key.Matches(msg, m.keys.Delete):
		if img, ok := m.state.Active(); ok {
			if img.Trashed {
				m.confirmPurge([]string{img.Path})
				return nil
			}
			return m.bulkCmd(library.OpDelete, []string{img.Path})
		}
	case key.Matches(msg, m.keys.Restore):
		if img, ok := m.state.Active(); ok && img.Trashed {
			return m.bulkCmd(library.OpRestore, []string{img.Path})
		}
	case key.Matches(msg, m.keys.Extract), key.Matches(msg, m.keys.ExtractAll):
		if img, ok := m.state.Active(); ok {
			return m.extractCmd([]string{img.Path}, key.Matches(msg, m.keys.ExtractAll))
		}
	case key.Matches(msg, m.keys.Retry):
		return m.retryAsset()

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.inspector, cmd = m.inspector.Update(msg)
		return cmd
	}
	return nil
}

// adjustSpeed changes playback speed. Only animated assets carry temporal edits.
func (m *Model) adjustSpeed(delta float64) tea.Cmd {
	a, ok := m.assets.get(m.nav.Displayed())
	if !ok || !a.info.Kind.Animated() {
		return m.setFlash("Playback speed applies to animated images", flashWarn)
	}
	return m.adjust(func(adj *gallery.Adjustments) {
		if adj.Temporal == nil {
			adj.Temporal = &gallery.Temporal{Speed: 1}
		}
		adj.Temporal.Speed += delta
		if adj.Temporal.Speed < edit.MinSpeed {
			adj.Temporal.Speed = edit.MinSpeed
		}
	})
}

// extendBy moves the cursor and extends the selection from the anchor.
func (m *Model) extendBy(dir int) tea.Cmd {
	if m.state.Anchor == "" {
		if p, ok := m.cursorPath(); ok {
			m.library.Toggle(p)
		}
	}
	cmd := m.dispatch(nav.Action{Kind: nav.Navigate, Dir: dir})
	if p, ok := m.cursorPath(); ok {
		m.library.Extend(p)
	}
	return tea.Batch(cmd, m.syncState())
}

// cursorPath returns the path under the gallery cursor.
func (m Model) cursorPath() (string, bool) {
	img, ok := m.store.GetState().Active()
	if !ok {
		return "", false
	}
	return img.Path, true
}

// retryThumbs restarts the failed thumbnail under the cursor, or every
// visible failed thumbnail when the cursor is elsewhere.
func (m *Model) retryThumbs() tea.Cmd {
	if p, ok := m.cursorPath(); ok {
		if l, ok := m.pipeline.Retry(p); ok {
			return m.loadThumbCmd(l)
		}
	}
	var cmds []tea.Cmd
	for _, ph := range m.tree.Children() {
		if !m.pipeline.IsVisible(ph.Path) {
			continue
		}
		if l, ok := m.pipeline.Retry(ph.Path); ok {
			cmds = append(cmds, m.loadThumbCmd(l))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) resizeCells(delta int) {
	w := min(max(m.prefs.CellWidth+delta, minCellWidth), maxCellWidth)
	if w == m.prefs.CellWidth {
		return
	}
	m.prefs.CellWidth = w
	m.savePrefs()
	m.scroll = m.grid().clampScroll(m.scroll, m.state.NavIndex, m.tree.Len())
	m.updateVisible()
}

// setFilters merges p into the filters and reloads from the top.
func (m *Model) setFilters(p *state.FilterPatch) tea.Cmd {
	m.store.SetState(state.Patch{Filters: p})
	m.scroll = 0
	m.state = m.store.GetState()
	return m.reloadCmd()
}

func (m *Model) savePrefs() {
	if m.saver != nil {
		m.saver.Update(m.prefs)
	}
}

func nextSort(s gallery.SortOrder) gallery.SortOrder {
	switch s {
	case gallery.SortNewest:
		return gallery.SortOldest
	case gallery.SortOldest:
		return gallery.SortName
	default:
		return gallery.SortNewest
	}
}

// handleMouse routes pointer input to the gallery or the viewer.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.modal != nil || m.searching {
		return nil
	}
	if m.state.ViewMode == state.ModeGallery {
		return m.handleGalleryMouse(msg)
	}
	return m.handleViewerMouse(msg)
}

func (m *Model) handleGalleryMouse(msg tea.MouseMsg) tea.Cmd {
	g := m.grid()
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll = g.clampScroll(m.scroll-1, -1, m.tree.Len())
		m.updateVisible()
		return nil
	case tea.MouseButtonWheelDown:
		m.scroll = g.clampScroll(m.scroll+1, -1, m.tree.Len())
		m.updateVisible()
		return nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}

	i := g.hit(msg.X, msg.Y, m.scroll, m.tree.Len())
	ph, ok := m.tree.At(i)
	if !ok {
		return nil
	}
	now := time.Now()
	switch {
	case msg.Ctrl:
		m.library.Toggle(ph.Path)
	case msg.Shift:
		m.library.Extend(ph.Path)
	default:
		if m.lastClick.index == i && !m.lastClick.at.IsZero() && now.Sub(m.lastClick.at) <= doubleClick {
			m.lastClick = clickInfo{}
			return m.dispatch(nav.Action{Kind: nav.Open, Index: i})
		}
		m.lastClick = clickInfo{index: i, at: now}
		m.library.Click(ph.Path)
	}
	return tea.Batch(m.dispatch(nav.Action{Kind: nav.Focus, Index: i}), m.syncState())
}

func (m *Model) handleViewerMouse(msg tea.MouseMsg) tea.Cmd {
	v := m.viewer()
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if !v.contains(msg.X, msg.Y) {
			return nil
		}
		notches := 1
		if msg.Button == tea.MouseButtonWheelDown {
			notches = -1
		}
		px, py := v.pixel(msg.X, msg.Y)
		m.nav.Wheel(px, py, notches)
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && v.contains(msg.X, msg.Y) {
			m.drag = &dragInfo{x: msg.X, y: msg.Y}
		}
	case tea.MouseActionMotion:
		if m.drag == nil || msg.Button != tea.MouseButtonLeft {
			return nil
		}
		dx, dy := msg.X-m.drag.x, msg.Y-m.drag.y
		m.nav.Pan(float64(dx), float64(dy*2))
		m.drag = &dragInfo{x: msg.X, y: msg.Y}
	case tea.MouseActionRelease:
		m.drag = nil
	}
	return nil
}
