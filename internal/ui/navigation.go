package ui

import (
	"context"
	"fmt"
	"image"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/vitrine/internal/conflicts"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/inspect"
	"github.com/five82/vitrine/internal/library"
	"github.com/five82/vitrine/internal/nav"
	"github.com/five82/vitrine/internal/state"
	"github.com/five82/vitrine/internal/thumbs"
)

// dispatch runs a navigation action and its effects.
func (m *Model) dispatch(a nav.Action) tea.Cmd {
	return m.runOutcome(m.nav.Dispatch(a))
}

// runOutcome performs the effects a navigation outcome asks for.
func (m *Model) runOutcome(out nav.Outcome) tea.Cmd {
	switch out.Result {
	case nav.NoOp, nav.Cancelled:
		return nil
	case nav.Prompt:
		m.promptUnsaved()
		return nil
	case nav.SaveRequired:
		return m.saveCmd(true)
	}

	cmds := []tea.Cmd{m.syncState()}
	if out.CloseSession {
		m.edits.Close()
	}
	if out.OpenSession != nil {
		cmds = append(cmds, m.editLoadCmd(*out.OpenSession))
	}
	if out.Load != "" {
		if _, ok := m.assets.get(out.Load); ok {
			if m.nav.AssetReady(out.Load) {
				m.onDisplayed()
			}
		} else {
			cmds = append(cmds, m.fetchAssetCmd(out.Load))
		}
	}
	for _, p := range out.Preload {
		cmds = append(cmds, m.fetchAssetCmd(p))
	}
	if out.Load == "" && m.state.ViewMode != state.ModeGallery {
		m.refreshInspector()
	}
	return tea.Batch(cmds...)
}

// promptUnsaved asks about unsaved edits on the active image. The parked
// action stays with the machine until the user decides.
func (m *Model) promptUnsaved() {
	name := ""
	if img, ok := m.state.Active(); ok {
		name = img.Filename
	}
	m.modal = promptModal{filename: name}
}

// asset is a decoded full-size image with its metadata.
type asset struct {
	img  image.Image
	info inspect.Info
	err  error

	// markdown caches the rendered inspector text for mdWidth.
	markdown string
	mdWidth  int
}

// assetCache keeps the most recent assets within assetBudget.
type assetCache struct {
	items    map[string]*asset
	order    []string
	inflight map[string]struct{}
}

func newAssetCache() *assetCache {
	return &assetCache{
		items:    make(map[string]*asset),
		inflight: make(map[string]struct{}),
	}
}

func (c *assetCache) get(path string) (*asset, bool) {
	a, ok := c.items[path]
	return a, ok
}

// put stores a and evicts the oldest entries over budget, never evicting
// the paths in keep.
func (c *assetCache) put(path string, a *asset, keep ...string) {
	delete(c.inflight, path)
	if _, ok := c.items[path]; ok {
		c.order = slices.DeleteFunc(c.order, func(p string) bool { return p == path })
	}
	c.items[path] = a
	c.order = append(c.order, path)
	for i := 0; len(c.items) > assetBudget && i < len(c.order); {
		p := c.order[i]
		if p == path || slices.Contains(keep, p) {
			i++
			continue
		}
		delete(c.items, p)
		c.order = slices.Delete(c.order, i, i+1)
	}
}

func (c *assetCache) drop(paths ...string) {
	for _, p := range paths {
		delete(c.items, p)
	}
	c.order = slices.DeleteFunc(c.order, func(p string) bool {
		_, ok := c.items[p]
		return !ok
	})
}

// fetchAssetCmd downloads, decodes and inspects a full-size asset. Paths
// already cached or in flight are skipped.
func (m *Model) fetchAssetCmd(path string) tea.Cmd {
	if path == "" || m.client == nil {
		return nil
	}
	if _, ok := m.assets.get(path); ok {
		return nil
	}
	if _, ok := m.assets.inflight[path]; ok {
		return nil
	}
	m.assets.inflight[path] = struct{}{}

	ctx, client, logger := m.ctx, m.client, m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, assetTimeout)
		defer cancel()
		data, err := client.FetchAsset(ctx, path)
		if err != nil {
			return assetMsg{path: path, err: err}
		}
		msg := assetMsg{path: path}
		img, err := thumbs.Decode(data)
		if err != nil {
			msg.err = err
		} else {
			msg.img = downscale(img, assetMaxDim)
		}
		info, err := inspect.Inspect(data)
		if err != nil {
			logger.Debug("inspect failed", "path", path, "error", err)
		}
		msg.info = info
		return msg
	}
}

func (m *Model) handleAsset(msg assetMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("asset load failed", "path", msg.path, "error", msg.err)
	}
	m.assets.put(msg.path, &asset{img: msg.img, info: msg.info, err: msg.err}, m.nav.Displayed(), m.nav.Awaiting())
	switch {
	case m.nav.AssetReady(msg.path):
		m.onDisplayed()
	case msg.path == m.nav.Displayed():
		m.refreshInspector()
	}
	return nil
}

// retryAsset refetches the displayed asset after a failure.
func (m *Model) retryAsset() tea.Cmd {
	path := m.nav.Displayed()
	a, ok := m.assets.get(path)
	if !ok || a.err == nil {
		return nil
	}
	m.assets.drop(path)
	return m.fetchAssetCmd(path)
}

// onDisplayed resets per-image viewer state after a swap.
func (m *Model) onDisplayed() {
	m.drag = nil
	m.inspector.GotoTop()
	m.refreshInspector()
}

func (m *Model) editLoadCmd(img gallery.Image) tea.Cmd {
	ctx, edits := m.ctx, m.edits
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, editTimeout)
		defer cancel()
		return editLoadedMsg{path: img.Path, err: edits.Load(ctx, img)}
	}
}

// saveCmd persists the edit session. With proceed set the parked
// navigation runs once the save succeeds.
func (m *Model) saveCmd(proceed bool) tea.Cmd {
	if !m.edits.Ready() {
		if proceed {
			m.nav.Abandon()
		}
		return m.setFlash("Edits are still loading", flashWarn)
	}
	ctx, edits := m.ctx, m.edits
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, editTimeout)
		defer cancel()
		return saveDoneMsg{err: edits.Save(ctx), proceed: proceed}
	}
}

func (m *Model) handleSaveDone(msg saveDoneMsg) tea.Cmd {
	m.refreshInspector()
	if msg.err != nil {
		m.logger.Warn("saving edits failed", "error", msg.err)
		if msg.proceed {
			m.nav.Abandon()
		}
		return m.setFlash("Save failed: "+gallery.Message(msg.err), flashError)
	}
	if !msg.proceed {
		return nil
	}
	// Adjustments made while the request was in flight are not part of
	// what was saved; ask again instead of dropping them.
	if m.edits.HasUnsavedChanges() {
		m.promptUnsaved()
		return m.setFlash("Edits changed while saving", flashWarn)
	}
	return m.runOutcome(m.nav.Proceed())
}

func (m *Model) resetCmd() tea.Cmd {
	if !m.edits.Ready() {
		return nil
	}
	ctx, edits := m.ctx, m.edits
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, editTimeout)
		defer cancel()
		return resetDoneMsg{err: edits.Reset(ctx)}
	}
}

// adjust changes the working copy and refreshes the preview.
func (m *Model) adjust(fn func(*gallery.Adjustments)) tea.Cmd {
	if _, err := m.edits.Set(fn); err != nil {
		return m.setFlash("Edits are still loading", flashWarn)
	}
	m.refreshInspector()
	return nil
}

func (m *Model) bulkCmd(op library.Op, paths []string) tea.Cmd {
	if len(paths) == 0 {
		return m.setFlash("Nothing selected", flashWarn)
	}
	orig := m.state.NavIndex
	if orig < 0 {
		orig = m.lastIndex
	}
	ctx, lib := m.ctx, m.library
	paths = slices.Clone(paths)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, bulkTimeout)
		defer cancel()
		var sum library.Summary
		var err error
		switch op {
		case library.OpRestore:
			sum, err = lib.Restore(ctx, paths)
		case library.OpPurge:
			sum, err = lib.Purge(ctx, paths)
		default:
			sum, err = lib.Delete(ctx, paths)
		}
		return bulkDoneMsg{summary: sum, err: err, origIndex: orig}
	}
}

// confirmPurge asks before deleting paths permanently.
func (m *Model) confirmPurge(paths []string) {
	if len(paths) == 0 {
		return
	}
	detail := fmt.Sprintf("%d images will be deleted from disk.", len(paths))
	if len(paths) == 1 {
		detail = truncateMiddle(paths[0], 48) + " will be deleted from disk."
	}
	m.modal = confirmModal{
		title:  "Delete forever?",
		detail: detail,
		onYes:  bulkRequestMsg{op: library.OpPurge, paths: slices.Clone(paths)},
		danger: true,
	}
}

func (m *Model) extractCmd(paths []string, force bool) tea.Cmd {
	if len(paths) == 0 {
		return m.setFlash("Nothing selected", flashWarn)
	}
	ctx, lib := m.ctx, m.library
	paths = slices.Clone(paths)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, bulkTimeout)
		defer cancel()
		sum, q, err := lib.Extract(ctx, paths, force)
		return extractDoneMsg{summary: sum, queue: q, err: err}
	}
}

func bulkText(sum library.Summary) string {
	n := len(sum.Succeeded)
	noun := "images"
	if n == 1 {
		noun = "image"
	}
	switch sum.Op {
	case library.OpRestore:
		return fmt.Sprintf("Restored %d %s", n, noun)
	case library.OpPurge:
		return fmt.Sprintf("Deleted %d %s forever", n, noun)
	default:
		return fmt.Sprintf("Moved %d %s to trash", n, noun)
	}
}

func extractText(sum library.ExtractSummary) string {
	text := fmt.Sprintf("Extracted metadata for %d", len(sum.Succeeded))
	if len(sum.Failed) > 0 {
		text += fmt.Sprintf(", %d failed", len(sum.Failed))
	}
	return text
}

func conflictReportText(r conflicts.Report) string {
	text := fmt.Sprintf("Conflicts: %d overwritten, %d skipped", len(r.Overwritten), len(r.Skipped))
	if len(r.Cancelled) > 0 {
		text += fmt.Sprintf(", %d cancelled", len(r.Cancelled))
	}
	if len(r.Failed) > 0 {
		text += fmt.Sprintf(", %d failed", len(r.Failed))
	}
	return text
}

// Flash messages

type flashLevel int

const (
	flashInfo flashLevel = iota
	flashWarn
	flashError
)

const flashDuration = 4 * time.Second

type flash struct {
	text  string
	level flashLevel
	id    int
}

// setFlash shows text in the status bar until it expires or is replaced.
func (m *Model) setFlash(text string, level flashLevel) tea.Cmd {
	m.flash = flash{text: text, level: level, id: m.flash.id + 1}
	id := m.flash.id
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg(id)
	})
}
