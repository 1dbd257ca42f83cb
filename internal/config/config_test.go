package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}

	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if cfg.LogPath() != filepath.Join(wantLogDir, "vitrine.log") {
		t.Fatalf("LogPath = %q, want %q", cfg.LogPath(), filepath.Join(wantLogDir, "vitrine.log"))
	}
	if cfg.PrioritizeBatch != 50 || cfg.PrioritizeDebounce != 250*time.Millisecond {
		t.Fatalf("prioritize = %d/%v, want 50/250ms", cfg.PrioritizeBatch, cfg.PrioritizeDebounce)
	}
	if cfg.ExitAnimation != 300*time.Millisecond {
		t.Fatalf("ExitAnimation = %v, want 300ms", cfg.ExitAnimation)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  http://10.0.0.5:9999  "
log_dir = "  ~/.vitrine/logs  "
cache_dir = "~/.vitrine/cache"
prioritize_debounce_ms = 400
prioritize_batch = 25
exit_animation_ms = 0
poll_seconds = 3
thumbnail_rate = 0
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9999" {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, "http://10.0.0.5:9999")
	}
	if !strings.HasPrefix(cfg.LogDir, home) {
		t.Fatalf("LogDir = %q, want it under HOME %q", cfg.LogDir, home)
	}
	if cfg.CachePath() != filepath.Join(home, ".vitrine", "cache", "thumbs.sqlite") {
		t.Fatalf("CachePath = %q", cfg.CachePath())
	}
	if cfg.PrioritizeDebounce != 400*time.Millisecond || cfg.PrioritizeBatch != 25 {
		t.Fatalf("prioritize = %v/%d, want 400ms/25", cfg.PrioritizeDebounce, cfg.PrioritizeBatch)
	}
	if cfg.ExitAnimation != 0 {
		t.Fatalf("ExitAnimation = %v, want 0", cfg.ExitAnimation)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("PollInterval = %v, want 3s", cfg.PollInterval)
	}
	if cfg.ThumbnailRate != 0 {
		t.Fatalf("ThumbnailRate = %v, want 0", cfg.ThumbnailRate)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "   "
log_dir = ""
prioritize_batch = -1
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if cfg.PrioritizeBatch != defaultPrioritizeBatch {
		t.Fatalf("PrioritizeBatch = %d, want %d", cfg.PrioritizeBatch, defaultPrioritizeBatch)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = [unterminated"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse config error", err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/x")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x") {
		t.Fatalf("expandPath = %q, want %q", got, filepath.Join(home, "x"))
	}
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath(blank) = nil error, want error")
	}
}
