package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/state"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	content := m.buildStatusContent(styles, bg)
	return bg.FillLine(content, m.width)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	st := m.state
	var parts []string

	parts = append(parts, bg.Render("vitrine", styles.Logo))

	mode := st.ViewMode.String()
	if st.Filters.ShowTrashed && st.ViewMode == state.ModeGallery {
		mode = "trash"
	}
	parts = append(parts, styles.BadgeStyle(mode).Render(strings.ToUpper(mode)))

	counts := fmt.Sprintf("%d", st.Counts.Filtered)
	if st.Counts.Total != st.Counts.Filtered {
		counts = fmt.Sprintf("%d/%d", st.Counts.Filtered, st.Counts.Total)
	}
	parts = append(parts, bg.Render("Images:", styles.MutedText)+bg.Space()+bg.Render(counts, styles.Text))

	if !compact && st.Counts.Total > 0 {
		seg := bg.Render("Thumbs:", styles.MutedText) + bg.Space() +
			bg.Render(fmt.Sprintf("%d", st.Counts.ThumbnailsGenerated), styles.FaintText)
		if n := m.pipeline.Pending(); n > 0 {
			seg += bg.Space() + bg.Render(fmt.Sprintf("%d queued", n), styles.InfoText)
		}
		parts = append(parts, seg)
	}

	if n := len(st.Selection); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d selected", n), styles.AccentText))
	}

	if st.ViewMode != state.ModeGallery {
		if img, ok := st.Active(); ok {
			name := truncateMiddle(img.Filename, 32)
			if compact {
				name = truncateMiddle(img.Filename, 18)
			}
			pos := fmt.Sprintf("%d/%d", st.NavIndex+1, len(st.Images))
			parts = append(parts, bg.Render(name, styles.Text)+bg.Space()+bg.Render(pos, styles.FaintText))
		}
		if m.edits != nil && m.edits.IsDirty() {
			parts = append(parts, bg.Render("● unsaved", styles.WarningText))
		}
	}

	if ts := m.formatTimestamp(); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	switch {
	case st.Status.Error != "":
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render(classifyConnectionError(st.Status.Error), styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(st.Status.Error, maxErr), styles.DangerText))
	case st.Status.Loading:
		parts = append(parts, bg.Render(m.spinner.View()+" loading", styles.InfoText))
	}

	if m.saver != nil && m.saver.Err() != nil {
		parts = append(parts, bg.Render("prefs not saved", styles.WarningText))
	}

	if m.flash.text != "" {
		style := styles.SuccessText
		switch m.flash.level {
		case flashWarn:
			style = styles.WarningText
		case flashError:
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.flash.text, 60), style))
	}

	return bg.Join(parts, "  ")
}

// formatTimestamp formats the last list refresh time with relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}

	timeSince := time.Since(m.lastUpdated)
	timeStr := m.lastUpdated.Format("15:04:05")

	if timeSince < time.Minute {
		timeStr += " (now)"
	} else if timeSince < time.Hour {
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	} else if timeSince < 24*time.Hour {
		timeStr += fmt.Sprintf(" (%dh ago)", int(timeSince.Hours()))
	}

	return timeStr
}

// classifyConnectionError returns a short label for a status error.
func classifyConnectionError(msg string) string {
	switch {
	case msg == "":
		return ""
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the filter chips and key hints, or the search
// input while it has focus.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.searching {
		scope := bg.Render("["+string(m.searchScope())+"]", styles.FaintText)
		return bg.FillLine(m.search.View()+bg.Space()+scope, m.width)
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)
	f := m.state.Filters.Normalized()

	var segments []string
	if f.Search != "" {
		segments = append(segments,
			bg.Render("/"+truncate(f.Search, 18), styles.AccentText)+bg.Space()+
				bg.Render(string(f.SearchIn), styles.FaintText))
	}
	chip := func(key, label string, on bool) string {
		style := styles.FaintText
		if on {
			style = styles.SuccessText
		}
		return bg.Render(key, styles.AccentText) + colon + bg.Render(label, style)
	}
	segments = append(segments,
		chip("t", "Trash", f.ShowTrashed),
		bg.Render("o", styles.AccentText)+colon+bg.Render(sortLabel(f.Sort), styles.MutedText),
		chip("w", "Workflow", f.HasWorkflow),
		chip("p", "Prompt", f.HasPrompt),
		chip("e", "Edited", f.HasEdits),
		chip("#", "Tags", f.HasTags),
	)

	if m.state.ViewMode == state.ModeGallery {
		segments = append(segments,
			bg.Render("space", styles.AccentText)+colon+bg.Render("Select", styles.MutedText),
			bg.Render("x", styles.AccentText)+colon+bg.Render(deleteLabel(f.ShowTrashed), styles.MutedText),
		)
		if f.ShowTrashed {
			segments = append(segments, bg.Render("U", styles.AccentText)+colon+bg.Render("Restore", styles.MutedText))
		}
	}

	segments = append(segments,
		bg.Render("?", styles.AccentText)+colon+bg.Render("More", styles.MutedText),
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return bg.FillLine(strings.Join(segments, sep), m.width)
}

func sortLabel(s gallery.SortOrder) string {
	switch s {
	case gallery.SortOldest:
		return "Oldest"
	case gallery.SortName:
		return "Name"
	default:
		return "Newest"
	}
}

func deleteLabel(trashView bool) string {
	if trashView {
		return "Delete forever"
	}
	return "Trash"
}

// renderFooter renders the short help line for the current mode.
func (m Model) renderFooter() string {
	bindings := m.keys.ShortHelp()
	if m.state.ViewMode != state.ModeGallery {
		bindings = m.keys.viewerHelp()
	}
	m.help.Width = m.width
	return lipgloss.NewStyle().Width(m.width).MaxHeight(footerRows).Render(m.help.ShortHelpView(bindings))
}
