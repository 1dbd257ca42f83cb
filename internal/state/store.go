package state

import (
	"sync"

	"github.com/five82/vitrine/internal/gallery"
)

// Listener receives a snapshot after every mutation. The snapshot is shared
// by all listeners of one notification and must be treated as read-only.
type Listener func(State)

type listenerEntry struct {
	id int
	fn Listener
}

// Store is the single source of truth for gallery state. All writes go
// through SetState or UpdateImage; readers get deep copies.
type Store struct {
	mu        sync.Mutex
	state     State
	ready     bool
	listeners []listenerEntry
	nextID    int
}

// NewStore creates a store seeded with initial.
func NewStore(initial State) *Store {
	s := &Store{state: initial.Clone(), ready: true}
	s.state.normalize(false, false)
	return s
}

func (s *Store) init() {
	if !s.ready {
		s.state.NavIndex = -1
		s.state.Selection = Selection{}
		s.ready = true
	}
}

// GetState returns a deep copy of the current state.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	return s.state.Clone()
}

// SetState merges p into the state and synchronously notifies listeners in
// registration order. Listeners may call SetState themselves.
func (s *Store) SetState(p Patch) {
	s.mu.Lock()
	s.init()
	imagesReplaced, selectionSet := p.applyTo(&s.state)
	s.state.normalize(imagesReplaced, selectionSet)
	snap, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, snap)
}

// UpdateImage patches one listed image in place. It returns false when path
// is not listed, in which case listeners are not notified.
func (s *Store) UpdateImage(path string, fn func(*gallery.Image)) bool {
	s.mu.Lock()
	s.init()
	idx := s.state.IndexOf(path)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	fn(&s.state.Images[idx])
	s.state.Images[idx].Path = path
	if s.state.Selection.Has(path) {
		s.state.Selection[path] = s.state.Images[idx].Clone()
	}
	s.state.normalize(false, true)
	snap, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, snap)
	return true
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, entry := range s.listeners {
				if entry.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) snapshotLocked() (State, []Listener) {
	if len(s.listeners) == 0 {
		return State{}, nil
	}
	fns := make([]Listener, len(s.listeners))
	for i, entry := range s.listeners {
		fns[i] = entry.fn
	}
	return s.state.Clone(), fns
}

func notify(listeners []Listener, snap State) {
	for _, fn := range listeners {
		fn(snap)
	}
}
