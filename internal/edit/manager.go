// Package edit owns the non-destructive edit session of the active image.
//
// A session holds the last persisted adjustments (original) and the
// working copy (current). The session is dirty whenever the two differ.
// Navigation consults HasUnsavedChanges before leaving the image.
package edit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/state"
)

// ErrNoSession is returned when no edit session is ready.
var ErrNoSession = errors.New("no edit session")

// Backend persists edit records.
type Backend interface {
	LoadEdit(ctx context.Context, path string) (gallery.EditRecord, bool, error)
	SaveEdit(ctx context.Context, path string, adj gallery.Adjustments) error
	DeleteEdit(ctx context.Context, path string) error
}

type session struct {
	path     string
	ready    bool
	original gallery.Adjustments
	current  gallery.Adjustments
}

// Manager is safe for concurrent use; Load, Save and Reset are expected to
// run in background commands while the event loop reads the session.
type Manager struct {
	backend Backend
	store   *state.Store
	bus     *state.Bus
	logger  *slog.Logger

	mu  sync.Mutex
	s   *session
	gen uint64
}

// NewManager builds a Manager. bus and logger may be nil.
func NewManager(backend Backend, store *state.Store, bus *state.Bus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{backend: backend, store: store, bus: bus, logger: logger}
}

// Load starts a session for img, fetching persisted edits or defaults. A
// load superseded by a later Load or Close is discarded.
func (m *Manager) Load(ctx context.Context, img gallery.Image) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.s = &session{path: img.Path, original: Defaults(), current: Defaults()}
	m.mu.Unlock()

	rec, found, err := m.backend.LoadEdit(ctx, img.Path)
	if err != nil {
		return fmt.Errorf("load edits for %s: %w", img.Path, err)
	}
	adj := Defaults()
	if found {
		adj = normalize(rec.Adjustments)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.s == nil || m.s.path != img.Path {
		return nil
	}
	m.s.original = clone(adj)
	m.s.current = clone(adj)
	m.s.ready = true
	return nil
}

// Path returns the image the session belongs to.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return ""
	}
	return m.s.path
}

// Ready reports whether the session finished loading.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s != nil && m.s.ready
}

// Set applies fn to the working copy and returns the result.
func (m *Manager) Set(fn func(*gallery.Adjustments)) (gallery.Adjustments, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil || !m.s.ready {
		return gallery.Adjustments{}, ErrNoSession
	}
	next := clone(m.s.current)
	fn(&next)
	m.s.current = normalize(next)
	return clone(m.s.current), nil
}

func (m *Manager) SetBrightness(v float64) (gallery.Adjustments, error) {
	return m.Set(func(a *gallery.Adjustments) { a.Brightness = v })
}

func (m *Manager) SetContrast(v float64) (gallery.Adjustments, error) {
	return m.Set(func(a *gallery.Adjustments) { a.Contrast = v })
}

func (m *Manager) SetSaturation(v float64) (gallery.Adjustments, error) {
	return m.Set(func(a *gallery.Adjustments) { a.Saturation = v })
}

// SetTemporal replaces the playback parameters. nil removes them.
func (m *Manager) SetTemporal(t *gallery.Temporal) (gallery.Adjustments, error) {
	return m.Set(func(a *gallery.Adjustments) {
		if t == nil {
			a.Temporal = nil
			return
		}
		dup := *t
		a.Temporal = &dup
	})
}

// Current returns the working copy.
func (m *Manager) Current() (gallery.Adjustments, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return gallery.Adjustments{}, false
	}
	return clone(m.s.current), true
}

// Original returns the last persisted adjustments.
func (m *Manager) Original() (gallery.Adjustments, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return gallery.Adjustments{}, false
	}
	return clone(m.s.original), true
}

// IsDirty reports whether the working copy differs from the original.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s != nil && !Equal(m.s.current, m.s.original)
}

// HasUnsavedChanges is the navigation gate.
func (m *Manager) HasUnsavedChanges() bool {
	return m.IsDirty()
}

// Cancel reverts the working copy to the original.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s != nil {
		m.s.current = clone(m.s.original)
	}
}

// Discard is Cancel under the navigation gate's name.
func (m *Manager) Discard() {
	m.Cancel()
}

// Close ends the session, dropping unsaved changes.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.s = nil
}

// Save persists the working copy. On success the saved snapshot becomes
// the original, the image is flagged as edited and its thumbnail is
// invalidated.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	if m.s == nil || !m.s.ready {
		m.mu.Unlock()
		return ErrNoSession
	}
	path := m.s.path
	saved := clone(m.s.current)
	m.mu.Unlock()

	if err := m.backend.SaveEdit(ctx, path, saved); err != nil {
		return fmt.Errorf("save edits for %s: %w", path, err)
	}

	m.mu.Lock()
	if m.s != nil && m.s.path == path {
		m.s.original = clone(saved)
	}
	m.mu.Unlock()

	m.logger.Info("edit saved", "path", path, "filter", Filter(saved))
	m.markEdited(path, true)
	m.bus.Publish(state.ThumbnailInvalidated{Path: path})
	m.bus.Publish(state.EditSaved{Path: path})
	return nil
}

// Reset deletes the persisted edit and restores the defaults.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	if m.s == nil || !m.s.ready {
		m.mu.Unlock()
		return ErrNoSession
	}
	path := m.s.path
	m.mu.Unlock()

	if err := m.backend.DeleteEdit(ctx, path); err != nil {
		return fmt.Errorf("reset edits for %s: %w", path, err)
	}

	m.mu.Lock()
	if m.s != nil && m.s.path == path {
		m.s.original = Defaults()
		m.s.current = Defaults()
	}
	m.mu.Unlock()

	m.logger.Info("edit reset", "path", path)
	m.markEdited(path, false)
	m.bus.Publish(state.ThumbnailInvalidated{Path: path})
	m.bus.Publish(state.EditReset{Path: path})
	return nil
}

func (m *Manager) markEdited(path string, edited bool) {
	if m.store == nil {
		return
	}
	m.store.UpdateImage(path, func(img *gallery.Image) { img.HasEdit = edited })
}
