package thumbs

import (
	"image"
	"time"

	"github.com/five82/vitrine/internal/debounce"
	"github.com/five82/vitrine/internal/gallery"
)

// Slots resolves a canonical path to its live slot. Paths that left the
// filtered list resolve to false.
type Slots interface {
	Slot(path string) (*Slot, bool)
}

// Load is one thumbnail request to run.
type Load struct {
	Path    string
	Seq     uint64
	Request gallery.ThumbnailRequest
}

// Flush is the work produced when the debounce timer fires.
type Flush struct {
	Batches [][]string
	Loads   []Load
}

// Result is the outcome of a Load.
type Result struct {
	Path   string
	Seq    uint64
	Data   []byte
	Visual image.Image
	Err    error
}

// Options tune the pipeline.
type Options struct {
	BatchSize int
	Debounce  time.Duration
	Now       func() time.Time
}

const (
	DefaultBatchSize = 50
	DefaultDebounce  = 250 * time.Millisecond
)

// Pipeline turns visibility reports into prioritization batches and
// foreground loads. It is owned by the event loop and is not safe for
// concurrent use; only the debounce callback runs elsewhere.
type Pipeline struct {
	slots     Slots
	timer     *debounce.Timer
	batchSize int
	now       func() time.Time

	visible    map[string]struct{}
	pending    []string
	pendingSet map[string]struct{}
	forceNext  map[string]struct{}
}

// NewPipeline builds a pipeline. notify is called from the timer goroutine
// when pending work should be flushed; the owner must then call Flush on
// its own loop.
func NewPipeline(slots Slots, opts Options, notify func()) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		slots:      slots,
		timer:      debounce.New(opts.Debounce, notify),
		batchSize:  opts.BatchSize,
		now:        opts.Now,
		visible:    make(map[string]struct{}),
		pendingSet: make(map[string]struct{}),
		forceNext:  make(map[string]struct{}),
	}
}

// SetVisible replaces the set of on-screen paths. Unloaded paths join the
// pending set and re-arm the debounce timer. It reports whether the timer
// was armed.
func (p *Pipeline) SetVisible(paths []string) bool {
	p.visible = make(map[string]struct{}, len(paths))
	added := false
	for _, path := range paths {
		p.visible[path] = struct{}{}
		slot, ok := p.slots.Slot(path)
		if !ok || slot.State != Unloaded {
			continue
		}
		if _, queued := p.pendingSet[path]; queued {
			continue
		}
		p.pendingSet[path] = struct{}{}
		p.pending = append(p.pending, path)
		added = true
	}
	if added {
		p.timer.Trigger()
	}
	return added
}

// IsVisible reports whether path was in the last visibility report.
func (p *Pipeline) IsVisible(path string) bool {
	_, ok := p.visible[path]
	return ok
}

// Pending returns the number of paths waiting for a flush.
func (p *Pipeline) Pending() int {
	return len(p.pending)
}

// Flush drains the pending set. Paths still listed are chunked into
// prioritization batches; those that are still visible and unloaded start
// loading immediately without waiting for the batches.
func (p *Pipeline) Flush() Flush {
	pending := p.pending
	p.pending = nil
	p.pendingSet = make(map[string]struct{})

	var out Flush
	var listed []string
	for _, path := range pending {
		slot, ok := p.slots.Slot(path)
		if !ok {
			continue
		}
		listed = append(listed, path)
		if _, vis := p.visible[path]; !vis || slot.State != Unloaded {
			continue
		}
		if load, ok := p.begin(path, slot, EventBegin); ok {
			out.Loads = append(out.Loads, load)
		}
	}
	out.Batches = Chunk(listed, p.batchSize)
	return out
}

// Complete applies a load result. Results for paths that left the list or
// were superseded by a newer request are dropped.
func (p *Pipeline) Complete(r Result) bool {
	slot, ok := p.slots.Slot(r.Path)
	if !ok {
		return false
	}
	failure := ""
	if r.Err != nil {
		failure = gallery.Message(r.Err)
		if failure == "" {
			failure = "thumbnail failed"
		}
	}
	return slot.finish(r.Seq, r.Data, r.Visual, failure)
}

// Retry restarts a failed slot with a forced, cache-busting request.
func (p *Pipeline) Retry(path string) (Load, bool) {
	slot, ok := p.slots.Slot(path)
	if !ok || slot.State != Failed {
		return Load{}, false
	}
	p.forceNext[path] = struct{}{}
	return p.begin(path, slot, EventRetry)
}

// Regenerate forces a fresh thumbnail for path, typically after an edit
// was saved or reset. Slots that never loaded are marked so their first
// load bypasses caches.
func (p *Pipeline) Regenerate(path string) (Load, bool) {
	p.forceNext[path] = struct{}{}
	slot, ok := p.slots.Slot(path)
	if !ok || slot.State == Unloaded {
		return Load{}, false
	}
	return p.begin(path, slot, EventRetry)
}

// Forget drops bookkeeping for paths that left the list.
func (p *Pipeline) Forget(paths ...string) {
	for _, path := range paths {
		delete(p.visible, path)
		delete(p.forceNext, path)
		if _, ok := p.pendingSet[path]; ok {
			delete(p.pendingSet, path)
			for i, q := range p.pending {
				if q == path {
					p.pending = append(p.pending[:i:i], p.pending[i+1:]...)
					break
				}
			}
		}
	}
}

// Stop cancels a pending flush.
func (p *Pipeline) Stop() {
	p.timer.Stop()
}

func (p *Pipeline) begin(path string, slot *Slot, e Event) (Load, bool) {
	seq, err := slot.start(e)
	if err != nil {
		return Load{}, false
	}
	req := gallery.ThumbnailFor(slot.Image)
	if _, force := p.forceNext[path]; force {
		req.Force = true
		req.Bust = p.now().UnixMilli()
		delete(p.forceNext, path)
	}
	return Load{Path: path, Seq: seq, Request: req}, true
}

// Chunk splits paths into groups of at most size.
func Chunk(paths []string, size int) [][]string {
	if len(paths) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]string, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		out = append(out, append([]string(nil), paths[start:end]...))
	}
	return out
}
