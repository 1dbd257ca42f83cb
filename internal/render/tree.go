// Package render keeps the gallery view tree in step with the filtered
// image list. Diff is a pure function from the previous tree and the new
// list to a Plan; Tree.Apply performs the mutation. Placeholders are keyed
// by canonical path and are never recreated while their path stays listed.
package render

import (
	"time"

	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/thumbs"
)

// Phase is the animation phase of a placeholder.
type Phase int

const (
	Steady Phase = iota
	Entering
	Exiting
)

func (p Phase) String() string {
	switch p {
	case Entering:
		return "entering"
	case Exiting:
		return "exiting"
	default:
		return "steady"
	}
}

// DefaultExitDuration is how long a removed placeholder stays in the tree.
const DefaultExitDuration = 300 * time.Millisecond

// enterFrames is the number of frames a new placeholder keeps its entering marker.
const enterFrames = 2

// Placeholder is one rendered item.
type Placeholder struct {
	Path  string
	Index int
	Phase Phase
	Thumb *thumbs.Slot

	bornFrame uint64
	removeAt  time.Time
}

// Op says what Apply does with a Node.
type Op int

const (
	OpKeep Op = iota
	OpCreate
)

// Node is one entry of the new live order.
type Node struct {
	Op    Op
	Path  string
	Index int
	Image gallery.Image
}

// Plan is the instruction set produced by Diff.
type Plan struct {
	// Exit lists live paths absent from the new list.
	Exit []string
	// Nodes is the new live order.
	Nodes []Node
	// Empty is set when the new list has no images; the tree is cleared
	// outright and the caller shows a no-results affordance.
	Empty bool
}

// Created returns the paths Apply will create.
func (p Plan) Created() []string {
	var out []string
	for _, n := range p.Nodes {
		if n.Op == OpCreate {
			out = append(out, n.Path)
		}
	}
	return out
}

// Diff computes the plan that turns prev into a tree for images. prev may
// be nil. It does not modify prev.
func Diff(prev *Tree, images []gallery.Image) Plan {
	var live map[string]*Placeholder
	var order []*Placeholder
	if prev != nil {
		live = prev.index
		order = prev.live
	}

	next := make(map[string]struct{}, len(images))
	for _, img := range images {
		next[img.Path] = struct{}{}
	}

	var plan Plan
	for _, ph := range order {
		if _, ok := next[ph.Path]; !ok {
			plan.Exit = append(plan.Exit, ph.Path)
		}
	}
	if len(images) == 0 {
		plan.Empty = true
		return plan
	}

	plan.Nodes = make([]Node, 0, len(images))
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		if _, dup := seen[img.Path]; dup {
			continue
		}
		seen[img.Path] = struct{}{}
		op := OpCreate
		if _, ok := live[img.Path]; ok {
			op = OpKeep
		}
		plan.Nodes = append(plan.Nodes, Node{Op: op, Path: img.Path, Index: len(plan.Nodes), Image: img})
	}
	return plan
}

// Tree is the live view tree. It is owned by the event loop.
type Tree struct {
	live    []*Placeholder
	index   map[string]*Placeholder
	exiting []*Placeholder
	empty   bool
	frame   uint64
	exitFor time.Duration
}

// NewTree returns an empty tree. exitFor <= 0 selects DefaultExitDuration.
func NewTree(exitFor time.Duration) *Tree {
	if exitFor <= 0 {
		exitFor = DefaultExitDuration
	}
	return &Tree{index: make(map[string]*Placeholder), exitFor: exitFor}
}

// Apply performs plan against the tree.
func (t *Tree) Apply(plan Plan, now time.Time) {
	if plan.Empty {
		t.live = nil
		t.index = make(map[string]*Placeholder)
		t.exiting = nil
		t.empty = true
		return
	}
	t.empty = false

	for _, path := range plan.Exit {
		ph, ok := t.index[path]
		if !ok {
			continue
		}
		delete(t.index, path)
		ph.Phase = Exiting
		ph.removeAt = now.Add(t.exitFor)
		t.exiting = append(t.exiting, ph)
	}

	live := make([]*Placeholder, 0, len(plan.Nodes))
	for _, n := range plan.Nodes {
		ph, ok := t.index[n.Path]
		if n.Op == OpKeep && ok {
			ph.Index = n.Index
			ph.Thumb.Image = n.Image.Clone()
		} else {
			ph = &Placeholder{
				Path:      n.Path,
				Index:     n.Index,
				Phase:     Entering,
				Thumb:     thumbs.NewSlot(n.Image),
				bornFrame: t.frame,
			}
			t.index[n.Path] = ph
		}
		live = append(live, ph)
	}
	t.live = live
}

// Reconcile diffs and applies in one step.
func (t *Tree) Reconcile(images []gallery.Image, now time.Time) Plan {
	plan := Diff(t, images)
	t.Apply(plan, now)
	return plan
}

// Frame advances the frame counter. Entering markers are cleared once
// enterFrames frames have been rendered since creation. It reports whether
// any marker changed.
func (t *Tree) Frame() bool {
	t.frame++
	changed := false
	for _, ph := range t.live {
		if ph.Phase == Entering && t.frame-ph.bornFrame >= enterFrames {
			ph.Phase = Steady
			changed = true
		}
	}
	return changed
}

// Sweep drops exiting placeholders whose animation has elapsed and returns
// their paths.
func (t *Tree) Sweep(now time.Time) []string {
	if len(t.exiting) == 0 {
		return nil
	}
	var removed []string
	keep := t.exiting[:0]
	for _, ph := range t.exiting {
		if now.Before(ph.removeAt) {
			keep = append(keep, ph)
			continue
		}
		removed = append(removed, ph.Path)
	}
	clear(t.exiting[len(keep):])
	t.exiting = keep
	return removed
}

// Animating reports whether frames or sweeps are still needed.
func (t *Tree) Animating() bool {
	if len(t.exiting) > 0 {
		return true
	}
	for _, ph := range t.live {
		if ph.Phase == Entering {
			return true
		}
	}
	return false
}

// Children returns the live placeholders in list order.
func (t *Tree) Children() []*Placeholder {
	return t.live
}

// Exiting returns placeholders still animating out.
func (t *Tree) Exiting() []*Placeholder {
	return t.exiting
}

// Len returns the number of live placeholders.
func (t *Tree) Len() int {
	return len(t.live)
}

// Empty reports whether the last reconcile saw an empty list.
func (t *Tree) Empty() bool {
	return t.empty
}

// Get returns the live placeholder for path.
func (t *Tree) Get(path string) (*Placeholder, bool) {
	ph, ok := t.index[path]
	return ph, ok
}

// At returns the placeholder at index i.
func (t *Tree) At(i int) (*Placeholder, bool) {
	if i < 0 || i >= len(t.live) {
		return nil, false
	}
	return t.live[i], true
}

// Slot implements thumbs.Slots. Exiting placeholders do not resolve.
func (t *Tree) Slot(path string) (*thumbs.Slot, bool) {
	ph, ok := t.index[path]
	if !ok {
		return nil, false
	}
	return ph.Thumb, true
}

var _ thumbs.Slots = (*Tree)(nil)
