package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// BgStyle renders segments that share one background. lipgloss resets
// between styled segments would otherwise leave unstyled gaps in bars.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a new background style helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style, keeping the background on every space.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	out := make([]string, len(words))
	for i, w := range words {
		if w != "" {
			out[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(out, b.space)
}

// Space returns one styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator string.
func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator, skipping empty parts.
func (b BgStyle) Join(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, b.Sep(sep))
}

// FillLine fits rendered content into exactly width cells.
func (b BgStyle) FillLine(content string, width int) string {
	if ansi.StringWidth(content) > width {
		content = ansi.Truncate(content, width, ellipsis)
	}
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}
