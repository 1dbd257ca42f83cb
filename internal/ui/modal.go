package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/vitrine/internal/conflicts"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/library"
	"github.com/five82/vitrine/internal/logtail"
	"github.com/five82/vitrine/internal/nav"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

func placeModal(theme Theme, width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Styles().Modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// promptModal asks what to do with unsaved edits before navigating away.
type promptModal struct {
	filename string
}

type promptChoiceMsg nav.Choice

func (p promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch km.String() {
	case "s", "enter":
		return p, emit(promptChoiceMsg(nav.ChoiceSave)), true
	case "d":
		return p, emit(promptChoiceMsg(nav.ChoiceDiscard)), true
	}
	if key.Matches(km, keys.Escape) || km.String() == "c" {
		return p, emit(promptChoiceMsg(nav.ChoiceCancel)), true
	}
	return p, nil, false
}

func (p promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.WarningText.Bold(true).Render("Unsaved edits"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(truncateMiddle(p.filename, 40) + " has changes that are not saved."))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("s") + styles.MutedText.Render(" save  "))
	b.WriteString(styles.AccentText.Render("d") + styles.MutedText.Render(" discard  "))
	b.WriteString(styles.AccentText.Render("esc") + styles.MutedText.Render(" stay"))
	return placeModal(theme, width, height, b.String())
}

// confirmModal asks a yes/no question and emits onYes when confirmed.
type confirmModal struct {
	title  string
	detail string
	onYes  tea.Msg
	danger bool
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch km.String() {
	case "y", "Y":
		return c, emit(c.onYes), true
	case "n", "N":
		return c, nil, true
	}
	if key.Matches(km, keys.Escape) {
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	title := styles.WarningText.Bold(true).Render(c.title)
	if c.danger {
		title = styles.DangerText.Render(c.title)
	}
	body := title
	if c.detail != "" {
		body += "\n\n" + styles.Text.Render(c.detail)
	}
	body += "\n\n" + styles.AccentText.Render("y") + styles.MutedText.Render(" yes  ") +
		styles.AccentText.Render("n") + styles.MutedText.Render(" no")
	return placeModal(theme, width, height, body)
}

// summaryModal reports a bulk operation that did not fully succeed.
type summaryModal struct {
	summary library.Summary
	err     error
}

func (s summaryModal) Update(msg tea.Msg, _ keyMap) (Modal, tea.Cmd, bool) {
	_, ok := msg.(tea.KeyMsg)
	return s, nil, ok
}

func (s summaryModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	sum := s.summary
	var b strings.Builder

	title := fmt.Sprintf("%s: %d of %d succeeded", opLabel(sum.Op), len(sum.Succeeded), sum.Requested)
	if len(sum.Succeeded) == 0 {
		b.WriteString(styles.DangerText.Render(title))
	} else {
		b.WriteString(styles.WarningText.Bold(true).Render(title))
	}
	b.WriteString("\n\n")
	writeFailures(&b, styles, sum.Failed, 10)
	if s.err != nil && len(sum.Failed) == 0 {
		b.WriteString(styles.DangerText.Render(gallery.Message(s.err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("any key to dismiss"))
	return placeModal(theme, width, height, b.String())
}

func writeFailures(b *strings.Builder, styles Styles, failed []gallery.FailedItem, limit int) {
	for i, f := range failed {
		if i == limit {
			b.WriteString(styles.MutedText.Render(fmt.Sprintf("… and %d more", len(failed)-limit)))
			b.WriteString("\n")
			break
		}
		b.WriteString(styles.Text.Render(truncateMiddle(f.Path, 36)))
		b.WriteString("  ")
		b.WriteString(styles.DangerText.Render(truncate(f.Error, 40)))
		b.WriteString("\n")
	}
}

func opLabel(op library.Op) string {
	switch op {
	case library.OpDelete:
		return "Move to trash"
	case library.OpRestore:
		return "Restore"
	case library.OpPurge:
		return "Delete forever"
	default:
		return string(op)
	}
}

// conflictModal walks the user through extraction conflicts one at a time.
// Choices run in the background; keys are ignored until the step reports back.
type conflictModal struct {
	ctx     context.Context
	queue   *conflicts.Queue
	spinner string
	lastErr error
	pending bool
}

type conflictStepMsg struct {
	err error
}

// conflictsDoneMsg is emitted when the queue report was dismissed.
type conflictsDoneMsg struct {
	report conflicts.Report
}

func newConflictModal(ctx context.Context, q *conflicts.Queue) conflictModal {
	return conflictModal{ctx: ctx, queue: q}
}

// resolve marks the step in flight before handing the choice to the queue,
// so a second key cannot act on the same conflict.
func (c conflictModal) resolve(choice conflicts.Choice) (Modal, tea.Cmd, bool) {
	c.pending = true
	ctx, q := c.ctx, c.queue
	return c, func() tea.Msg {
		return conflictStepMsg{err: q.Resolve(ctx, choice)}
	}, false
}

func (c conflictModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case conflictStepMsg:
		c.lastErr = msg.err
		c.pending = false
		return c, nil, false
	case spinnerFrame:
		c.spinner = string(msg)
		return c, nil, false
	case tea.KeyMsg:
		if c.queue.Done() {
			return c, emit(conflictsDoneMsg{report: c.queue.Report()}), true
		}
		if c.pending || c.queue.Busy() {
			return c, nil, false
		}
		switch msg.String() {
		case "s":
			return c.resolve(conflicts.Skip)
		case "o":
			return c.resolve(conflicts.Overwrite)
		case "a":
			return c.resolve(conflicts.CancelAll)
		}
		if key.Matches(msg, keys.Escape) {
			return c.resolve(conflicts.CancelAll)
		}
	}
	return c, nil, false
}

func (c conflictModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder

	if c.queue.Done() {
		r := c.queue.Report()
		b.WriteString(styles.Text.Bold(true).Render("Metadata conflicts resolved"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s overwritten  %s skipped  %s cancelled\n",
			styles.SuccessText.Render(fmt.Sprint(len(r.Overwritten))),
			styles.MutedText.Render(fmt.Sprint(len(r.Skipped))),
			styles.MutedText.Render(fmt.Sprint(len(r.Cancelled)))))
		if len(r.Failed) > 0 {
			b.WriteString("\n")
			writeFailures(&b, styles, r.Failed, 8)
		}
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("any key to dismiss"))
		return placeModal(theme, width, height, b.String())
	}

	cur, _ := c.queue.Current()
	b.WriteString(styles.WarningText.Bold(true).Render(fmt.Sprintf("Metadata conflict (%d left)", c.queue.Remaining())))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(truncateMiddle(cur.Path, 50)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(truncate(cur.Reason, 50)))
	b.WriteString("\n\n")
	if c.pending || c.queue.Busy() {
		b.WriteString(styles.InfoText.Render(c.spinner + " working…"))
	} else {
		b.WriteString(styles.AccentText.Render("o") + styles.MutedText.Render(" overwrite  "))
		b.WriteString(styles.AccentText.Render("s") + styles.MutedText.Render(" skip  "))
		b.WriteString(styles.AccentText.Render("a") + styles.MutedText.Render(" cancel all"))
	}
	if c.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(c.lastErr.Error()))
	}
	return placeModal(theme, width, height, b.String())
}

// logModal shows recent warnings and errors from vitrine's own log.
type logModal struct {
	path    string
	entries []logtail.Entry
	err     error
	vp      viewport.Model
	ready   bool
}

func newLogModal(path string, entries []logtail.Entry, err error) logModal {
	return logModal{path: path, entries: entries, err: err}
}

func (l logModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil, false
	}
	if key.Matches(km, keys.Escape, keys.Logs) || km.String() == "q" {
		return l, nil, true
	}
	var cmd tea.Cmd
	l.vp, cmd = l.vp.Update(km)
	return l, cmd, false
}

func (l logModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	w := max(20, width-8)
	h := max(5, height-8)
	if !l.ready || l.vp.Width != w || l.vp.Height != h {
		l.vp = viewport.New(w, h)
		l.ready = true
	}

	var content string
	switch {
	case l.err != nil:
		content = styles.DangerText.Render("cannot read " + l.path + ": " + l.err.Error())
	case len(l.entries) == 0:
		content = styles.MutedText.Render("No warnings or errors logged.")
	default:
		lines := make([]string, 0, len(l.entries))
		for _, e := range l.entries {
			lines = append(lines, formatLogEntry(e, styles, w))
		}
		content = strings.Join(lines, "\n")
	}
	l.vp.SetContent(content)
	l.vp.GotoBottom()

	title := styles.Text.Bold(true).Render("Warnings") + "  " + styles.FaintText.Render(truncateMiddle(l.path, w-12))
	return placeModal(theme, width, height, title+"\n\n"+l.vp.View())
}
