package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/state"
)

// searchScope returns the scope the search input applies to.
func (m Model) searchScope() gallery.SearchScope {
	if m.scope == "" {
		return gallery.SearchFilename
	}
	return m.scope
}

// startSearch focuses the search input, seeded from the active filters.
func (m *Model) startSearch() tea.Cmd {
	f := m.state.Filters.Normalized()
	m.search.SetValue(f.Search)
	m.search.CursorEnd()
	m.scope = f.SearchIn
	m.searching = true
	return m.search.Focus()
}

// handleSearchKey processes input while the search field has focus.
func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.search.Blur()
		return m.setFilters(&state.FilterPatch{
			Search:   state.Set(strings.TrimSpace(m.search.Value())),
			SearchIn: state.Set(m.searchScope()),
		})
	case msg.Type == tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return nil
	case key.Matches(msg, m.keys.CycleScope):
		m.scope = nextScope(m.searchScope())
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

func nextScope(s gallery.SearchScope) gallery.SearchScope {
	switch s {
	case gallery.SearchFilename:
		return gallery.SearchPrompt
	case gallery.SearchPrompt:
		return gallery.SearchWorkflow
	default:
		return gallery.SearchFilename
	}
}
