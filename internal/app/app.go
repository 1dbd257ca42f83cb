package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/vitrine/internal/config"
	"github.com/five82/vitrine/internal/edit"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/library"
	"github.com/five82/vitrine/internal/prefs"
	"github.com/five82/vitrine/internal/state"
	"github.com/five82/vitrine/internal/thumbcache"
	"github.com/five82/vitrine/internal/thumbs"
	"github.com/five82/vitrine/internal/ui"
)

// Options configure vitrine.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/vitrine/prefs.toml
	APIURL     string // overrides api_url from the config file
	Debug      bool
	NoCache    bool
}

// cacheRetention is how long cached thumbnails survive without being rewritten.
const cacheRetention = 30 * 24 * time.Hour

// Services are the long-lived collaborators shared by the TUI and the CLI
// subcommands.
type Services struct {
	Config  config.Config
	Logger  *slog.Logger
	Client  *gallery.Client
	Cache   *thumbcache.Cache // nil when disabled or unavailable
	Store   *state.Store
	Bus     *state.Bus
	Library *library.Controller
	Edits   *edit.Manager
	Fetcher *thumbs.Fetcher

	closers []func() error
}

// Open loads configuration and builds every service.
func Open(ctx context.Context, opts Options) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}

	svc := &Services{Config: cfg}
	logger, closeLog := openLogger(cfg.LogPath(), opts.Debug)
	svc.Logger = logger
	svc.closers = append(svc.closers, closeLog)

	client, err := gallery.NewClient(cfg.APIURL, gallery.WithThumbnailRate(cfg.ThumbnailRate))
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("init gallery client: %w", err)
	}
	svc.Client = client

	var cache thumbs.Cache
	if !opts.NoCache {
		if c := openCache(ctx, cfg.CachePath(), logger); c != nil {
			svc.Cache = c
			svc.closers = append(svc.closers, c.Close)
			cache = c
		}
	}

	svc.Store = state.NewStore(state.State{NavIndex: -1})
	svc.Bus = &state.Bus{}
	svc.Library = library.New(client, svc.Store, svc.Bus, logger)
	svc.Edits = edit.NewManager(client, svc.Store, svc.Bus, logger)
	svc.Fetcher = thumbs.NewFetcher(client, cache, logger)

	logger.Info("vitrine started", "api_url", cfg.APIURL, "session", client.Session(), "cache", svc.Cache != nil)
	return svc, nil
}

// Close releases the cache and the log file.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Run boots the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	saver := prefs.NewSaver(opts.PrefsPath, prefs.DefaultSaveDelay, svc.Logger)
	defer func() { _ = saver.Flush() }()

	svc.Store.SetState(state.Patch{Filters: &state.FilterPatch{
		ShowTrashed: state.Set(userPrefs.ShowTrashed),
		Sort:        state.Set(gallery.SortOrder(userPrefs.Sort)),
	}})

	// An unreachable server is not fatal: the TUI shows the error and the
	// user can retry the reload.
	preflight, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := svc.Library.RefreshStats(preflight); err != nil {
		svc.Logger.Warn("gallery server not reachable", "api_url", svc.Config.APIURL, "error", err)
	}
	cancel()

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	StartPoller(pollCtx, svc.Library, svc.Config.PollInterval, svc.Logger)

	return ui.Run(ui.Options{
		Context: ctx,
		Client:  svc.Client,
		Store:   svc.Store,
		Bus:     svc.Bus,
		Library: svc.Library,
		Edits:   svc.Edits,
		Fetcher: svc.Fetcher,
		Config:  svc.Config,
		Prefs:   userPrefs,
		Saver:   saver,
		Logger:  svc.Logger,
	})
}

// openLogger writes text logs to path. The TUI owns the terminal, so when
// the file cannot be opened logging is discarded rather than sent to stderr.
func openLogger(path string, debug bool) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, handlerOpts)), func() error { return nil }
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, handlerOpts)), func() error { return nil }
	}
	logger := slog.New(slog.NewTextHandler(f, handlerOpts))
	slog.SetDefault(logger)
	return logger, f.Close
}

func openCache(ctx context.Context, path string, logger *slog.Logger) *thumbcache.Cache {
	c, err := thumbcache.Open(ctx, path)
	if err != nil {
		logger.Warn("thumbnail cache unavailable, continuing without it", "path", path, "error", err)
		return nil
	}
	if n, err := c.Prune(ctx, time.Now().Add(-cacheRetention)); err != nil {
		logger.Warn("pruning thumbnail cache failed", "error", err)
	} else if n > 0 {
		logger.Info("pruned thumbnail cache", "removed", n)
	}
	if n, err := c.Len(ctx); err != nil {
		logger.Warn("counting thumbnail cache failed", "error", err)
	} else {
		logger.Info("thumbnail cache ready", "path", path, "entries", n)
	}
	return c
}
