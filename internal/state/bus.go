package state

import "sync"

// Event is a cross-component notification. The set of variants is closed.
type Event interface {
	event()
}

// ThumbnailInvalidated asks the thumbnail pipeline to force-reload Path.
type ThumbnailInvalidated struct {
	Path string
}

// EditSaved reports that an edit for Path was persisted.
type EditSaved struct {
	Path string
}

// EditReset reports that the persisted edit for Path was removed.
type EditReset struct {
	Path string
}

// ImagesRemoved reports paths that left the library through a bulk action.
type ImagesRemoved struct {
	Paths []string
}

func (ThumbnailInvalidated) event() {}
func (EditSaved) event()            {}
func (EditReset) event()            {}
func (ImagesRemoved) event()        {}

// Bus delivers events synchronously to handlers in registration order.
type Bus struct {
	mu       sync.Mutex
	handlers []busHandler
	nextID   int
}

type busHandler struct {
	id int
	fn func(Event)
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, busHandler{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.handlers {
			if h.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every current handler.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	handlers := make([]func(Event), len(b.handlers))
	for i, h := range b.handlers {
		handlers[i] = h.fn
	}
	b.mu.Unlock()
	for _, fn := range handlers {
		fn(e)
	}
}
