package prefs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/five82/vitrine/internal/debounce"
)

// DefaultSaveDelay is the quiet period before preferences hit the disk.
const DefaultSaveDelay = 500 * time.Millisecond

// Saver coalesces bursts of preference changes into one write.
type Saver struct {
	path   string
	logger *slog.Logger
	timer  *debounce.Timer

	mu      sync.Mutex
	latest  Prefs
	dirty   bool
	lastErr error
}

// NewSaver returns a Saver writing to path. logger may be nil.
func NewSaver(path string, delay time.Duration, logger *slog.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Saver{path: path, logger: logger}
	s.timer = debounce.New(delay, func() { _ = s.Flush() })
	return s
}

// Update records p and re-arms the save timer.
func (s *Saver) Update(p Prefs) {
	s.mu.Lock()
	s.latest = p
	s.dirty = true
	s.mu.Unlock()
	s.timer.Trigger()
}

// Flush writes pending preferences now. It is a no-op when nothing changed.
func (s *Saver) Flush() error {
	s.timer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := Save(s.path, s.latest); err != nil {
		s.lastErr = err
		s.logger.Warn("saving preferences failed", "path", s.path, "error", err)
		return err
	}
	s.dirty = false
	s.lastErr = nil
	return nil
}

// Err returns the error of the last failed write.
func (s *Saver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
