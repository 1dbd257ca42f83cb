// Package conflicts resolves per-item conflicts of a bulk metadata
// extraction one at a time.
package conflicts

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/five82/vitrine/internal/gallery"
)

var (
	// ErrBusy is returned while an overwrite for the current item is in flight.
	ErrBusy = errors.New("conflict resolution in progress")
	// ErrEmpty is returned when nothing is left to resolve.
	ErrEmpty = errors.New("no conflicts left")
)

// Resolver re-issues extraction for a single item.
type Resolver interface {
	ExtractMetadata(ctx context.Context, paths []string, force bool) (gallery.ExtractResult, error)
}

// Choice is the user's decision for one conflict.
type Choice int

const (
	Skip Choice = iota
	Overwrite
	CancelAll
)

func (c Choice) String() string {
	switch c {
	case Overwrite:
		return "overwrite"
	case CancelAll:
		return "cancel all"
	default:
		return "skip"
	}
}

// Report accumulates what happened to every conflict.
type Report struct {
	Skipped     []string
	Overwritten []string
	Failed      []gallery.FailedItem
	Cancelled   []string
}

// Queue is safe for concurrent use. Only one resolution runs at a time.
type Queue struct {
	resolver Resolver

	mu     sync.Mutex
	items  []gallery.Conflict
	busy   bool
	report Report
}

// NewQueue returns a queue over items in order.
func NewQueue(resolver Resolver, items []gallery.Conflict) *Queue {
	return &Queue{resolver: resolver, items: slices.Clone(items)}
}

// Current returns the conflict awaiting a decision.
func (q *Queue) Current() (gallery.Conflict, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return gallery.Conflict{}, false
	}
	return q.items[0], true
}

// Remaining returns the number of undecided conflicts, the current one included.
func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Done reports whether every conflict was decided.
func (q *Queue) Done() bool {
	return q.Remaining() == 0
}

// Busy reports whether an overwrite is in flight.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy
}

// Report returns a copy of the accumulated report.
func (q *Queue) Report() Report {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Report{
		Skipped:     slices.Clone(q.report.Skipped),
		Overwritten: slices.Clone(q.report.Overwritten),
		Failed:      slices.Clone(q.report.Failed),
		Cancelled:   slices.Clone(q.report.Cancelled),
	}
}

// Resolve applies c to the current conflict. An overwrite failure is
// recorded in the report and does not stop the queue.
func (q *Queue) Resolve(ctx context.Context, c Choice) error {
	q.mu.Lock()
	if q.busy {
		q.mu.Unlock()
		return ErrBusy
	}
	if len(q.items) == 0 {
		q.mu.Unlock()
		return ErrEmpty
	}
	cur := q.items[0]

	switch c {
	case CancelAll:
		for _, item := range q.items {
			q.report.Cancelled = append(q.report.Cancelled, item.Path)
		}
		q.items = nil
		q.mu.Unlock()
		return nil
	case Skip:
		q.report.Skipped = append(q.report.Skipped, cur.Path)
		q.items = q.items[1:]
		q.mu.Unlock()
		return nil
	}

	q.busy = true
	q.mu.Unlock()

	res, err := q.resolver.ExtractMetadata(ctx, []string{cur.Path}, true)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.busy = false
	q.items = q.items[1:]
	if failure := overwriteFailure(cur.Path, res, err); failure != "" {
		q.report.Failed = append(q.report.Failed, gallery.FailedItem{Path: cur.Path, Error: failure})
		return nil
	}
	q.report.Overwritten = append(q.report.Overwritten, cur.Path)
	return nil
}

func overwriteFailure(path string, res gallery.ExtractResult, err error) string {
	if err != nil {
		return gallery.Message(err)
	}
	for _, f := range res.Failed {
		if f.Path == path {
			return f.Error
		}
	}
	for _, c := range res.Conflicts {
		if c.Path == path {
			return "still conflicting: " + c.Reason
		}
	}
	return ""
}
