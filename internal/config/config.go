package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings vitrine reads at startup.
type Config struct {
	APIURL             string
	LogDir             string
	CacheDir           string
	PrioritizeDebounce time.Duration
	PrioritizeBatch    int
	ExitAnimation      time.Duration
	PollInterval       time.Duration
	ThumbnailRate      float64
}

const (
	defaultConfigPath         = "~/.config/vitrine/config.toml"
	defaultAPIURL             = "http://127.0.0.1:8188"
	defaultLogDir             = "~/.local/share/vitrine/logs"
	defaultCacheDir           = "~/.cache/vitrine"
	defaultPrioritizeDebounce = 250 * time.Millisecond
	defaultPrioritizeBatch    = 50
	defaultExitAnimation      = 300 * time.Millisecond
	defaultPollInterval       = 10 * time.Second
	defaultThumbnailRate      = 20
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:             defaultAPIURL,
		LogDir:             mustExpand(defaultLogDir),
		CacheDir:           mustExpand(defaultCacheDir),
		PrioritizeDebounce: defaultPrioritizeDebounce,
		PrioritizeBatch:    defaultPrioritizeBatch,
		ExitAnimation:      defaultExitAnimation,
		PollInterval:       defaultPollInterval,
		ThumbnailRate:      defaultThumbnailRate,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL               string   `toml:"api_url"`
		LogDir               string   `toml:"log_dir"`
		CacheDir             string   `toml:"cache_dir"`
		PrioritizeDebounceMS *int     `toml:"prioritize_debounce_ms"`
		PrioritizeBatch      *int     `toml:"prioritize_batch"`
		ExitAnimationMS      *int     `toml:"exit_animation_ms"`
		PollSeconds          *int     `toml:"poll_seconds"`
		ThumbnailRate        *float64 `toml:"thumbnail_rate"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = mustExpand(v)
	}
	if v := raw.PrioritizeDebounceMS; v != nil && *v > 0 {
		cfg.PrioritizeDebounce = time.Duration(*v) * time.Millisecond
	}
	if v := raw.PrioritizeBatch; v != nil && *v > 0 {
		cfg.PrioritizeBatch = *v
	}
	if v := raw.ExitAnimationMS; v != nil && *v >= 0 {
		cfg.ExitAnimation = time.Duration(*v) * time.Millisecond
	}
	if v := raw.PollSeconds; v != nil && *v > 0 {
		cfg.PollInterval = time.Duration(*v) * time.Second
	}
	// Zero disables pacing.
	if v := raw.ThumbnailRate; v != nil && *v >= 0 {
		cfg.ThumbnailRate = *v
	}

	return cfg, nil
}

// LogPath returns vitrine's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/vitrine.log")
	}
	return filepath.Join(c.LogDir, "vitrine.log")
}

// CachePath returns the thumbnail cache database.
func (c Config) CachePath() string {
	if strings.TrimSpace(c.CacheDir) == "" {
		return mustExpand(defaultCacheDir + "/thumbs.sqlite")
	}
	return filepath.Join(c.CacheDir, "thumbs.sqlite")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
