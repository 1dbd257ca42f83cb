package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/vitrine/internal/nav"
	"github.com/five82/vitrine/internal/render"
	"github.com/five82/vitrine/internal/thumbs"
)

// gridGeom is the cell layout of the gallery for one terminal size.
type gridGeom struct {
	top    int // first screen row of the grid
	cols   int
	rows   int // fully visible rows
	cellW  int // picture width in cells
	picH   int // picture height in cells
	pitchX int // cellW plus the column gap
	pitchY int // picture, caption and row gap
}

func layoutGrid(width, height, cellWidth int) gridGeom {
	cellWidth = max(cellWidth, 4)
	g := gridGeom{
		top:    headerRows,
		cellW:  cellWidth,
		picH:   max(1, cellWidth/2),
		pitchX: cellWidth + 1,
	}
	g.pitchY = g.picH + 2
	g.cols = nav.Columns(width+1, g.pitchX)
	g.rows = max(1, (height-headerRows-footerRows)/g.pitchY)
	return g
}

// rowOf returns the grid row of item i.
func (g gridGeom) rowOf(i int) int {
	return i / g.cols
}

// visibleRange returns the half-open item range rendered at scroll,
// including overscan.
func (g gridGeom) visibleRange(scroll, count int) (int, int) {
	from := min(scroll*g.cols, count)
	to := min((scroll+g.rows+overscanRows)*g.cols, count)
	return from, to
}

// hit maps a screen position to an item index, or -1 for gaps and empty space.
func (g gridGeom) hit(x, y, scroll, count int) int {
	if x < 0 || y < g.top {
		return -1
	}
	col, dx := x/g.pitchX, x%g.pitchX
	row, dy := (y-g.top)/g.pitchY, (y-g.top)%g.pitchY
	if col >= g.cols || dx >= g.cellW || dy > g.picH || row >= g.rows {
		return -1
	}
	i := (row+scroll)*g.cols + col
	if i >= count {
		return -1
	}
	return i
}

// clampScroll keeps scroll within the list and, when cursor >= 0, keeps the
// cursor row on screen.
func (g gridGeom) clampScroll(scroll, cursor, count int) int {
	if cursor >= 0 {
		row := g.rowOf(cursor)
		if row < scroll {
			scroll = row
		}
		if row >= scroll+g.rows {
			scroll = row - g.rows + 1
		}
	}
	lastRow := 0
	if count > 0 {
		lastRow = g.rowOf(count - 1)
	}
	return max(0, min(scroll, lastRow-g.rows+1))
}

// cellView holds what one grid cell shows.
type cellView struct {
	ph       *render.Placeholder
	cursor   bool
	selected bool
	spinner  string
	picture  string // pre-rendered picture for loaded slots
}

func (m Model) renderCell(c cellView, g gridGeom) string {
	styles := m.theme.Styles()
	slot := c.ph.Thumb

	var body string
	switch slot.State {
	case thumbs.Loaded:
		body = c.picture
	case thumbs.Loading:
		body = placeBox(styles.InfoText.Render(c.spinner), g.cellW, g.picH)
	case thumbs.Failed:
		lines := wrap(slot.Err, g.cellW, max(1, g.picH-1))
		for i, l := range lines {
			lines[i] = styles.DangerText.Render(l)
		}
		lines = append(lines, styles.MutedText.Render(truncate("r retry", g.cellW)))
		body = placeBox(strings.Join(lines, "\n"), g.cellW, g.picH)
	default:
		body = placeBox(styles.FaintText.Render("·"), g.cellW, g.picH)
	}

	img := slot.Image
	marker := " "
	switch {
	case c.selected:
		marker = styles.AccentText.Render("●")
	case img.HasEdit:
		marker = lipgloss.NewStyle().Foreground(styles.BadgeColor("edited")).Render("✎")
	case img.Trashed:
		marker = lipgloss.NewStyle().Foreground(styles.BadgeColor("trash")).Render("✗")
	}
	name := padRight(truncateMiddle(img.Filename, g.cellW-2), g.cellW-2)
	captionStyle := styles.MutedText
	switch {
	case c.cursor:
		captionStyle = styles.Cursor
	case c.selected:
		captionStyle = styles.Selected
	case c.ph.Phase == render.Entering:
		captionStyle = styles.AccentText
	case c.ph.Phase == render.Exiting:
		captionStyle = styles.FaintText.Strikethrough(true)
	}
	caption := marker + " " + captionStyle.Render(name)
	return body + "\n" + caption
}

// placeBox centres content in a w×h box.
func placeBox(content string, w, h int) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderGrid(height int) string {
	g := m.grid()
	children := m.tree.Children()
	styles := m.theme.Styles()

	if m.tree.Empty() || len(children) == 0 {
		if m.state.Status.Loading {
			return placeBox(m.spinner.View()+" loading…", m.width, height)
		}
		msg := styles.MutedText.Render("No images match the current filters")
		hint := styles.FaintText.Render("/ search · t trash · esc clear")
		return placeBox(msg+"\n"+hint, m.width, height)
	}

	from, to := g.visibleRange(m.scroll, len(children))
	cursor := m.state.NavIndex
	spin := m.spinner.View()

	var rows []string
	for start := from; start < to; start += g.cols {
		end := min(start+g.cols, to)
		cells := make([]string, 0, 2*g.cols)
		for i := start; i < end; i++ {
			ph := children[i]
			cells = append(cells, m.renderCell(cellView{
				ph:       ph,
				cursor:   i == cursor,
				selected: m.state.Selection.Has(ph.Path),
				spinner:  spin,
				picture:  m.thumbPicture(ph, g),
			}, g))
			if i < end-1 {
				cells = append(cells, " ")
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		if len(rows) > g.rows {
			break
		}
	}

	if exiting := m.tree.Exiting(); len(exiting) > 0 {
		names := make([]string, 0, len(exiting))
		for _, ph := range exiting {
			names = append(names, ph.Thumb.Image.Filename)
		}
		rows = append(rows, styles.FaintText.Strikethrough(true).Render(truncate(strings.Join(names, " "), m.width)))
	}

	// Rows are separated by one blank line; hit testing relies on pitchY.
	out := strings.Join(rows, "\n\n")
	return lipgloss.NewStyle().MaxHeight(height).Render(out)
}

// thumbPicture returns the cached half-block rendering of a loaded slot.
func (m Model) thumbPicture(ph *render.Placeholder, g gridGeom) string {
	slot := ph.Thumb
	if slot.State != thumbs.Loaded || slot.Visual == nil {
		return ""
	}
	key := picKey{seq: slot.Seq, w: g.cellW, h: g.picH}
	if cached, ok := m.pics[ph.Path]; ok && cached.key == key {
		return cached.text
	}
	text := renderPicture(slot.Visual, g.cellW, g.picH, nav.Identity())
	m.pics[ph.Path] = picEntry{key: key, text: text}
	return text
}

type picKey struct {
	seq  uint64
	w, h int
}

type picEntry struct {
	key  picKey
	text string
}
