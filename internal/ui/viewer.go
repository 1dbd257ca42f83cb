package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/vitrine/internal/edit"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/inspect"
	"github.com/five82/vitrine/internal/nav"
	"github.com/five82/vitrine/internal/state"
)

// viewerGeom is where the picture is drawn in zoom and fullscreen.
type viewerGeom struct {
	x, y, w, h int
	inspector  bool
}

func (m Model) viewer() viewerGeom {
	if m.state.ViewMode == state.ModeFullscreen {
		return viewerGeom{w: m.width, h: max(1, m.height-1)}
	}
	v := viewerGeom{
		y: headerRows,
		w: m.width,
		h: max(1, m.height-headerRows-footerRows),
	}
	if m.inspectorOpen && m.width >= LayoutCompactWidth {
		v.inspector = true
		v.w = m.width - inspectorWidth - 1
	}
	return v
}

// contains reports whether the screen cell (x, y) is on the picture.
func (v viewerGeom) contains(x, y int) bool {
	return x >= v.x && x < v.x+v.w && y >= v.y && y < v.y+v.h
}

// pixel maps a screen cell to picture pixel coordinates. Cells carry two
// pixels vertically.
func (v viewerGeom) pixel(x, y int) (float64, float64) {
	return float64(x-v.x) + 0.5, float64(y-v.y)*2 + 1
}

// viewCache holds renderings that are expensive to recompute each frame.
type viewCache struct {
	preview     previewEntry
	picture     pictureEntry
	renderer    *glamour.TermRenderer
	renderWidth int
}

type previewEntry struct {
	path   string
	filter string
	src    image.Image
	img    image.Image
}

type pictureKey struct {
	path   string
	filter string
	w, h   int
	t      nav.Transform
}

type pictureEntry struct {
	key  pictureKey
	src  image.Image
	text string
}

// currentAdjustments returns the working copy when the edit session
// belongs to path, or the neutral adjustments.
func (m Model) currentAdjustments(path string) (gallery.Adjustments, bool) {
	if m.edits.Path() != path {
		return edit.Defaults(), false
	}
	adj, ok := m.edits.Current()
	if !ok {
		return edit.Defaults(), false
	}
	return adj, m.edits.Ready()
}

// previewImage applies the visual adjustments to src, reusing the last
// result while nothing changed.
func (m Model) previewImage(path string, src image.Image, adj gallery.Adjustments) image.Image {
	filter := edit.Filter(adj)
	c := m.view.preview
	if c.path == path && c.filter == filter && c.src == src {
		return c.img
	}
	img := edit.Preview(src, adj)
	m.view.preview = previewEntry{path: path, filter: filter, src: src, img: img}
	return img
}

// viewerPicture renders the displayed asset into a w×h box.
func (m Model) viewerPicture(w, h int) string {
	styles := m.theme.Styles()
	path := m.nav.Displayed()
	if path == "" {
		return placeBox(styles.InfoText.Render(m.spinner.View()+" loading…"), w, h)
	}
	a, ok := m.assets.get(path)
	if !ok {
		return placeBox(styles.InfoText.Render(m.spinner.View()+" loading…"), w, h)
	}
	if a.err != nil || a.img == nil {
		msg := "cannot display image"
		if a.err != nil {
			msg = gallery.Message(a.err)
		}
		lines := wrap(msg, max(10, w-4), 4)
		for i, l := range lines {
			lines[i] = styles.DangerText.Render(l)
		}
		lines = append(lines, styles.MutedText.Render("r retry"))
		return placeBox(strings.Join(lines, "\n"), w, h)
	}

	adj, _ := m.currentAdjustments(path)
	img := m.previewImage(path, a.img, adj)
	t := m.nav.Transform()
	key := pictureKey{path: path, filter: edit.Filter(adj), w: w, h: h, t: t}
	if c := m.view.picture; c.key == key && c.src == a.img {
		return c.text
	}
	text := renderPicture(img, w, h, t)
	m.view.picture = pictureEntry{key: key, src: a.img, text: text}
	return text
}

func (m Model) renderZoom(height int) string {
	v := m.viewer()
	pic := lipgloss.NewStyle().Width(v.w).Render(m.viewerPicture(v.w, height))
	if !v.inspector {
		return pic
	}
	border := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Border)).
		Render(strings.TrimSuffix(strings.Repeat("│\n", height), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, pic, border, m.inspector.View())
}

func (m Model) renderFullscreen() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	v := m.viewer()

	var parts []string
	if img, ok := m.state.Active(); ok {
		parts = append(parts,
			bg.Render(truncateMiddle(img.Filename, 40), styles.Text),
			bg.Render(fmt.Sprintf("%d/%d", m.state.NavIndex+1, len(m.state.Images)), styles.FaintText))
	}
	if t := m.nav.Transform(); !t.IsIdentity() {
		parts = append(parts, bg.Render(fmt.Sprintf("%.1fx", t.Scale), styles.InfoText))
	}
	if adj, ready := m.currentAdjustments(m.nav.Displayed()); ready && !edit.Equal(adj, edit.Defaults()) {
		parts = append(parts, bg.Render(edit.Filter(adj), styles.MutedText))
	}
	if m.edits.IsDirty() {
		parts = append(parts, bg.Render("● unsaved", styles.WarningText))
	}
	if m.flash.text != "" {
		parts = append(parts, bg.Render(m.flash.text, styles.AccentText))
	}
	parts = append(parts, bg.Render("esc back", styles.FaintText))

	return m.viewerPicture(v.w, v.h) + "\n" + bg.FillLine(bg.Join(parts, "  "), m.width)
}

// refreshInspector rebuilds the inspector panel for the displayed image.
func (m *Model) refreshInspector() {
	if !m.ready || m.state.ViewMode == state.ModeGallery {
		return
	}
	h := max(1, m.height-headerRows-footerRows)
	if m.inspector.Width != inspectorWidth || m.inspector.Height != h {
		m.inspector.Width = inspectorWidth
		m.inspector.Height = h
	}
	m.inspector.SetContent(m.inspectorContent(inspectorWidth))
}

func (m Model) inspectorContent(width int) string {
	styles := m.theme.Styles()
	path := m.nav.Displayed()
	if path == "" {
		return styles.MutedText.Render("Loading…")
	}
	img, ok := m.state.Active()
	if !ok || img.Path != path {
		img = gallery.Image{Path: path}
	}

	var b strings.Builder
	b.WriteString(m.renderEditPanel(path, width))

	a, ok := m.assets.get(path)
	if !ok {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(m.metadataMarkdown(img, a, width))
	return b.String()
}

// renderEditPanel shows the adjustments of the session with bars.
func (m Model) renderEditPanel(path string, width int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	title := styles.Text.Bold(true).Render("Edits")
	adj, ready := m.currentAdjustments(path)
	switch {
	case !ready:
		title += "  " + styles.InfoText.Render(m.spinner.View()+" loading")
	case m.edits.IsDirty():
		title += "  " + styles.WarningText.Render("● unsaved")
	default:
		title += "  " + styles.SuccessText.Render("saved")
	}
	b.WriteString(title)
	b.WriteString("\n")

	barW := max(6, width-22)
	row := func(label string, v float64) {
		b.WriteString(padRight(styles.MutedText.Render(label), 12))
		b.WriteString(levelBar(styles, v, barW))
		b.WriteString(styles.Text.Render(fmt.Sprintf(" %.2f", v)))
		b.WriteString("\n")
	}
	row("Brightness", adj.Brightness)
	row("Contrast", adj.Contrast)
	row("Saturation", adj.Saturation)

	if a, ok := m.assets.get(path); ok && a.info.Kind.Animated() {
		speed := 1.0
		if adj.Temporal != nil {
			speed = adj.Temporal.Speed
		}
		b.WriteString(padRight(styles.MutedText.Render("Speed"), 12))
		b.WriteString(styles.Text.Render(fmt.Sprintf("%.2fx", speed)))
		b.WriteString("\n")
	}

	b.WriteString(styles.FaintText.Render(truncate(edit.Filter(adj), width)))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("ctrl+s save · u revert · R reset"))
	return b.String()
}

// levelBar draws v on the 0..3 level scale with a tick at neutral.
func levelBar(styles Styles, v float64, width int) string {
	filled := int(v / edit.MaxLevel * float64(width))
	filled = min(max(filled, 0), width)
	neutral := int(1 / edit.MaxLevel * float64(width))
	var b strings.Builder
	for i := range width {
		switch {
		case i < filled:
			b.WriteString(styles.AccentText.Render("━"))
		case i == neutral:
			b.WriteString(styles.MutedText.Render("┃"))
		default:
			b.WriteString(styles.FaintText.Render("─"))
		}
	}
	return b.String()
}

// metadataMarkdown renders the inspector markdown with glamour, cached per
// asset and width. Rendering errors fall back to the raw markdown.
func (m Model) metadataMarkdown(img gallery.Image, a *asset, width int) string {
	if a.markdown != "" && a.mdWidth == width {
		return a.markdown
	}
	md := inspect.Markdown(img, a.info)
	out := md
	if r := m.markdownRenderer(width); r != nil {
		if rendered, err := r.Render(md); err == nil {
			out = strings.Trim(rendered, "\n")
		} else {
			m.logger.Debug("markdown render failed", "error", err)
		}
	}
	a.markdown, a.mdWidth = out, width
	return out
}

func (m Model) markdownRenderer(width int) *glamour.TermRenderer {
	if m.view.renderer != nil && m.view.renderWidth == width {
		return m.view.renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Debug("markdown renderer unavailable", "error", err)
		return nil
	}
	m.view.renderer, m.view.renderWidth = r, width
	return r
}
