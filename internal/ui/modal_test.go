package ui

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/five82/vitrine/internal/conflicts"
	"github.com/five82/vitrine/internal/gallery"
)

type recordingResolver struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingResolver) ExtractMetadata(_ context.Context, paths []string, _ bool) (gallery.ExtractResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, slices.Clone(paths))
	return gallery.ExtractResult{Succeeded: paths}, nil
}

func TestConflictModalIgnoresKeysUntilStepReports(t *testing.T) {
	r := &recordingResolver{}
	q := conflicts.NewQueue(r, []gallery.Conflict{
		{Path: "out/a.png", Reason: "has metadata"},
		{Path: "out/b.png", Reason: "has metadata"},
	})
	keys := DefaultKeyMap()
	var modal Modal = newConflictModal(context.Background(), q)

	modal, overwrite, closed := modal.Update(keyRunes("o"), keys)
	if overwrite == nil || closed {
		t.Fatalf("o should start an overwrite, cmd=%v closed=%v", overwrite, closed)
	}
	modal, skip, _ := modal.Update(keyRunes("s"), keys)
	if skip != nil {
		t.Fatal("s must be ignored while the overwrite has not reported back")
	}

	step := overwrite()
	if len(r.calls) != 1 || r.calls[0][0] != "out/a.png" {
		t.Fatalf("resolver calls = %v, want [[out/a.png]]", r.calls)
	}
	if cur, _ := q.Current(); cur.Path != "out/b.png" {
		t.Fatalf("current = %q, want out/b.png", cur.Path)
	}

	modal, _, _ = modal.Update(step, keys)
	modal, skip, _ = modal.Update(keyRunes("s"), keys)
	if skip == nil {
		t.Fatal("s should skip once the step reported back")
	}
	modal, _, _ = modal.Update(skip(), keys)

	rep := q.Report()
	if !slices.Equal(rep.Overwritten, []string{"out/a.png"}) || !slices.Equal(rep.Skipped, []string{"out/b.png"}) {
		t.Fatalf("report = %+v", rep)
	}
	if len(r.calls) != 1 {
		t.Fatalf("resolver called %d times, want 1", len(r.calls))
	}

	_, done, closed := modal.Update(keyRunes("x"), keys)
	if !closed || done == nil {
		t.Fatal("any key should dismiss the finished report")
	}
	if msg, ok := done().(conflictsDoneMsg); !ok || len(msg.report.Skipped) != 1 {
		t.Fatalf("done msg = %+v", msg)
	}
}
