package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// helpModal lists every binding grouped by area. Any key closes it.
type helpModal struct{}

func (h helpModal) Update(msg tea.Msg, _ keyMap) (Modal, tea.Cmd, bool) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return h, nil, true
	}
	return h, nil, false
}

func (h helpModal) View(theme Theme, width, height int) string {
	return renderHelp(theme, DefaultKeyMap(), width, height)
}

// renderHelp renders the help overlay in two columns of sections.
func renderHelp(theme Theme, keys keyMap, width, height int) string {
	styles := theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Warning)).
		Width(12)

	groups := keys.FullHelp()
	sections := make([]string, 0, len(groups))
	for i, group := range groups {
		var b strings.Builder
		title := ""
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		for _, binding := range group {
			if !binding.Enabled() {
				continue
			}
			h := binding.Help()
			if h.Key == "" {
				continue
			}
			b.WriteString("\n")
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
		}
		sections = append(sections, b.String())
	}

	half := (len(sections) + 1) / 2
	left := strings.Join(sections[:half], "\n\n")
	right := strings.Join(sections[half:], "\n\n")
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(36).Render(left),
		lipgloss.NewStyle().Width(36).Render(right),
	)

	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	rule := styles.FaintText.Render(strings.Repeat("─", 30))
	content := title + "\n" + rule + "\n\n" + body

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		styles.Modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// bindingHint renders "key desc" pairs for bars.
func bindingHint(b key.Binding) (string, string) {
	h := b.Help()
	return h.Key, h.Desc
}
