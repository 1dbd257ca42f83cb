// Package prefs persists vitrine user preferences in
// ~/.config/vitrine/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme       string `toml:"theme"`
	CellWidth   int    `toml:"cell_width"`
	ShowTrashed bool   `toml:"show_trashed"`
	Sort        string `toml:"sort"`
}

const (
	defaultPrefsPath = "~/.config/vitrine/prefs.toml"
	defaultTheme     = "Dracula"
	defaultCellWidth = 18
	defaultSort      = "newest"

	minCellWidth = 8
	maxCellWidth = 64
)

// Default returns the preferences used when nothing was saved.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, CellWidth: defaultCellWidth, Sort: defaultSort}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	prefs := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Default(), nil // Graceful degradation
	}

	return prefs.normalized(), nil
}

func (p Prefs) normalized() Prefs {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	if p.CellWidth == 0 {
		p.CellWidth = defaultCellWidth
	}
	p.CellWidth = min(max(p.CellWidth, minCellWidth), maxCellWidth)
	switch p.Sort {
	case "newest", "oldest", "name":
	default:
		p.Sort = defaultSort
	}
	return p
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
