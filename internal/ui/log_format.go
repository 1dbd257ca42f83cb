package ui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/five82/vitrine/internal/logtail"
)

// formatLogLine renders an entry as plain text: local time, level, the
// subject path when present, the message, then remaining attributes as
// indented details.
func formatLogLine(e logtail.Entry) string {
	if e.Time == "" && len(e.Attrs) == 0 {
		return strings.TrimSpace(e.Raw)
	}
	ts := e.Time
	if parsed, err := time.Parse(time.RFC3339Nano, e.Time); err == nil {
		ts = parsed.In(time.Local).Format("2006-01-02 15:04:05")
	}
	parts := []string{}
	if ts != "" {
		parts = append(parts, ts)
	}
	parts = append(parts, e.Level.String())
	header := strings.Join(parts, " ")
	subject, details := composeSubject(e.Attrs)
	if subject != "" {
		header += " " + subject
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		header += " – " + msg
	}
	if len(details) == 0 {
		return header
	}
	var builder strings.Builder
	builder.WriteString(header)
	for _, a := range details {
		if a.Key == "" || a.Value == "" {
			continue
		}
		builder.WriteString("\n    - ")
		builder.WriteString(a.Key)
		builder.WriteString(": ")
		builder.WriteString(a.Value)
	}
	return builder.String()
}

// composeSubject pulls the path attribute out as the line's subject.
func composeSubject(attrs []logtail.Attr) (string, []logtail.Attr) {
	subject := ""
	rest := make([]logtail.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "path" && subject == "" {
			subject = "[" + a.Value + "]"
			continue
		}
		rest = append(rest, a)
	}
	return subject, rest
}

// formatLogEntry is formatLogLine coloured by level and clipped to width.
func formatLogEntry(e logtail.Entry, styles Styles, width int) string {
	style := styles.Text
	switch {
	case e.Level >= slog.LevelError:
		style = styles.DangerText
	case e.Level >= slog.LevelWarn:
		style = styles.WarningText
	}
	lines := strings.Split(formatLogLine(e), "\n")
	for i, l := range lines {
		if i > 0 {
			lines[i] = styles.MutedText.Render(truncate(l, width))
			continue
		}
		lines[i] = style.Render(truncate(l, width))
	}
	return strings.Join(lines, "\n")
}
