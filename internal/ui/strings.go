package ui

import (
	"path"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "…"

// truncate shortens s to width terminal cells. It is ANSI-aware, so styled
// captions can be cut without breaking escape sequences.
func truncate(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, ellipsis)
}

// truncateMiddle keeps both ends of s, which for file names preserves the
// extension.
func truncateMiddle(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 0 || s == "" {
		return ""
	}
	total := ansi.StringWidth(s)
	if total <= width {
		return s
	}
	if width <= 2 {
		return ansi.Truncate(s, width, "")
	}

	ext := path.Ext(s)
	if w := ansi.StringWidth(ext); w > 0 && w < width/2 {
		base := strings.TrimSuffix(s, ext)
		return truncateMiddle(base, width-w) + ext
	}

	keep := width - ansi.StringWidth(ellipsis)
	head := keep / 2
	tail := keep - head
	return ansi.Truncate(s, head, "") + ellipsis + ansi.TruncateLeft(s, total-tail, "")
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if width <= 0 || w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// center pads s on both sides to width cells.
func center(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return truncate(s, width)
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// wrap breaks s into lines of at most width cells, at most max lines.
func wrap(s string, width, max int) []string {
	if width <= 0 || max <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(strings.TrimSpace(s), "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case ansi.StringWidth(line)+1+ansi.StringWidth(word) <= width:
				line += " " + word
			default:
				lines = append(lines, truncate(line, width))
				line = word
			}
		}
		if line != "" {
			lines = append(lines, truncate(line, width))
		}
	}
	if len(lines) > max {
		lines = lines[:max]
		lines[max-1] = truncate(lines[max-1]+" "+ellipsis, width)
	}
	return lines
}
