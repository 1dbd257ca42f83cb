// Package nav implements the gallery/zoom/fullscreen view-mode machine.
//
// Every user action goes through Dispatch. When the edit gate reports
// unsaved changes the action is parked and the caller must ask the user;
// Decide then discards, cancels, or asks the caller to save before
// Proceed applies the parked action. Asset swaps in zoom and fullscreen
// wait for AssetReady so the displayed image never changes before its
// replacement has loaded.
package nav

import (
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/state"
)

// Gate is the unsaved-changes contract of the edit session.
type Gate interface {
	HasUnsavedChanges() bool
	Discard()
}

// Kind identifies an Action.
type Kind int

const (
	// Navigate moves the active image by Dir within the filtered list.
	Navigate Kind = iota
	// NavigateGrid moves by Dir rows of Cols items. Gallery mode only.
	NavigateGrid
	// Open activates the item at Index in zoom mode.
	Open
	// Escape leaves fullscreen for the mode it was entered from, or zoom for the gallery.
	Escape
	// ToggleFullscreen enters or leaves fullscreen.
	ToggleFullscreen
	// Close returns to the gallery from any mode.
	Close
	// Focus moves the gallery cursor to Index. Gallery mode only.
	Focus
)

// Action is one navigation request.
type Action struct {
	Kind  Kind
	Dir   int
	Cols  int
	Index int
}

// Result classifies what Dispatch, Decide or Proceed did.
type Result int

const (
	// NoOp means nothing changed and nothing needs to be fetched.
	NoOp Result = iota
	// Applied means the store was updated.
	Applied
	// Prompt means the action is parked behind unsaved changes.
	Prompt
	// SaveRequired means the caller must save, then call Proceed or Abandon.
	SaveRequired
	// Cancelled means the parked action was dropped.
	Cancelled
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Prompt:
		return "prompt"
	case SaveRequired:
		return "save-required"
	case Cancelled:
		return "cancelled"
	default:
		return "noop"
	}
}

// Choice is the user's answer to an unsaved-changes prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceSave
	ChoiceDiscard
)

// Outcome describes the effects the caller has to run.
type Outcome struct {
	Result Result
	// Load is the path of the asset to fetch before calling AssetReady.
	Load string
	// Preload lists neighbouring paths to warm.
	Preload []string
	// CloseSession is set when the edit session of the previous image ends.
	CloseSession bool
	// OpenSession is the image whose edit session should be loaded.
	OpenSession *gallery.Image
}

// Machine drives view-mode transitions against the store. It is owned by
// the event loop and is not safe for concurrent use.
type Machine struct {
	store *state.Store
	gate  Gate

	pending    *Action
	back       state.ViewMode
	want       string
	displayed  string
	transforms map[state.ViewMode]Transform
}

// New builds a machine. gate may be nil when no edit session exists.
func New(store *state.Store, gate Gate) *Machine {
	return &Machine{
		store: store,
		gate:  gate,
		back:  state.ModeGallery,
		transforms: map[state.ViewMode]Transform{
			state.ModeZoom:       Identity(),
			state.ModeFullscreen: Identity(),
		},
	}
}

// snapshot is the part of the state transition reads.
type snapshot struct {
	mode  state.ViewMode
	index int
	count int
	back  state.ViewMode
}

// move is the target of a transition.
type move struct {
	mode  state.ViewMode
	index int
	back  state.ViewMode
}

// transition is the single transition function of the machine. It reports
// false when the action changes nothing.
func transition(s snapshot, a Action) (move, bool) {
	cur := move{mode: s.mode, index: s.index, back: s.back}
	next := cur
	switch a.Kind {
	case Navigate:
		if s.count == 0 || a.Dir == 0 {
			return cur, false
		}
		if s.index < 0 {
			if s.mode != state.ModeGallery {
				return cur, false
			}
			next.index = 0
			break
		}
		next.index = clamp(s.index+a.Dir, 0, s.count-1)
	case NavigateGrid:
		if s.mode != state.ModeGallery || s.count == 0 || a.Dir == 0 {
			return cur, false
		}
		if s.index < 0 {
			next.index = 0
			break
		}
		next.index = clamp(s.index+a.Dir*max(1, a.Cols), 0, s.count-1)
	case Open:
		if s.mode != state.ModeGallery || a.Index < 0 || a.Index >= s.count {
			return cur, false
		}
		next.mode = state.ModeZoom
		next.index = a.Index
	case Escape:
		switch s.mode {
		case state.ModeFullscreen:
			next.mode = s.back
			next.back = state.ModeGallery
		case state.ModeZoom:
			next.mode = state.ModeGallery
		default:
			return cur, false
		}
	case ToggleFullscreen:
		switch s.mode {
		case state.ModeFullscreen:
			next.mode = s.back
			next.back = state.ModeGallery
		default:
			if s.index < 0 {
				return cur, false
			}
			next.back = s.mode
			next.mode = state.ModeFullscreen
		}
	case Focus:
		if s.mode != state.ModeGallery || a.Index < 0 || a.Index >= s.count {
			return cur, false
		}
		next.index = a.Index
	case Close:
		if s.mode == state.ModeGallery {
			return cur, false
		}
		next.mode = state.ModeGallery
		next.back = state.ModeGallery
	}
	return next, next != cur
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func (m *Machine) snapshot(st state.State) snapshot {
	idx := st.NavIndex
	if st.ActiveImage == nil {
		idx = -1
	}
	return snapshot{mode: st.ViewMode, index: idx, count: len(st.Images), back: m.back}
}

// Dispatch runs a. With unsaved changes the action is parked and Prompt is
// returned; nothing changes until Decide.
func (m *Machine) Dispatch(a Action) Outcome {
	st := m.store.GetState()
	if _, ok := transition(m.snapshot(st), a); !ok {
		return Outcome{Result: NoOp}
	}
	if m.gate != nil && m.gate.HasUnsavedChanges() {
		parked := a
		m.pending = &parked
		return Outcome{Result: Prompt}
	}
	return m.apply(st, a)
}

// Pending returns the parked action.
func (m *Machine) Pending() (Action, bool) {
	if m.pending == nil {
		return Action{}, false
	}
	return *m.pending, true
}

// Decide resolves a prompt.
func (m *Machine) Decide(c Choice) Outcome {
	if m.pending == nil {
		return Outcome{Result: NoOp}
	}
	switch c {
	case ChoiceSave:
		return Outcome{Result: SaveRequired}
	case ChoiceDiscard:
		if m.gate != nil {
			m.gate.Discard()
		}
		return m.Proceed()
	default:
		m.pending = nil
		return Outcome{Result: Cancelled}
	}
}

// Proceed applies the parked action after a successful save or discard.
func (m *Machine) Proceed() Outcome {
	if m.pending == nil {
		return Outcome{Result: NoOp}
	}
	a := *m.pending
	m.pending = nil
	return m.apply(m.store.GetState(), a)
}

// Abandon drops the parked action, typically after a failed save.
func (m *Machine) Abandon() {
	m.pending = nil
}

func (m *Machine) apply(st state.State, a Action) Outcome {
	prev := m.snapshot(st)
	next, ok := transition(prev, a)
	if !ok {
		return Outcome{Result: NoOp}
	}
	m.back = next.back

	var active *gallery.Image
	if next.index >= 0 {
		img := st.Images[next.index]
		active = &img
	}
	m.store.SetState(state.Patch{
		ViewMode:    state.Set(next.mode),
		ActiveImage: state.Set(active),
		NavIndex:    state.Set(next.index),
	})

	out := Outcome{Result: Applied}
	prevPath := ""
	if prev.index >= 0 && st.ActiveImage != nil {
		prevPath = st.ActiveImage.Path
	}
	nextPath := ""
	if active != nil {
		nextPath = active.Path
	}
	wasViewing := prev.mode != state.ModeGallery
	viewing := next.mode != state.ModeGallery
	same := prevPath == nextPath

	if wasViewing && (!viewing || !same) {
		out.CloseSession = true
	}
	if !viewing {
		m.want, m.displayed = "", ""
		return out
	}
	if next.mode == state.ModeFullscreen && prev.mode != state.ModeFullscreen {
		m.transforms[next.mode] = Identity()
	}
	if !wasViewing || !same {
		out.OpenSession = active
		out.Load = nextPath
		m.want = nextPath
		out.Preload = neighbours(st.Images, next.index)
	}
	return out
}

func neighbours(images []gallery.Image, i int) []string {
	var out []string
	if i-1 >= 0 {
		out = append(out, images[i-1].Path)
	}
	if i+1 < len(images) {
		out = append(out, images[i+1].Path)
	}
	return out
}

// AssetReady swaps the displayed asset once path has loaded. Assets that
// are no longer wanted are ignored. The transform of the current view is
// reset on swap.
func (m *Machine) AssetReady(path string) bool {
	if path == "" || path != m.want {
		return false
	}
	st := m.store.GetState()
	if st.ViewMode == state.ModeGallery || st.ActiveImage == nil || st.ActiveImage.Path != path {
		return false
	}
	m.want = ""
	m.displayed = path
	m.transforms[st.ViewMode] = Identity()
	return true
}

// Displayed returns the path of the asset currently shown in zoom or fullscreen.
func (m *Machine) Displayed() string {
	return m.displayed
}

// Awaiting returns the path being preloaded for display.
func (m *Machine) Awaiting() string {
	return m.want
}

// AfterDelete retargets after the list was reloaded following a delete.
// originalIndex is the active index before the delete. An empty list
// forces the gallery with no active image; in zoom and fullscreen the item
// now at min(originalIndex, len-1) becomes active.
func (m *Machine) AfterDelete(originalIndex int) Outcome {
	m.pending = nil
	st := m.store.GetState()
	wasViewing := st.ViewMode != state.ModeGallery

	if len(st.Images) == 0 {
		m.back = state.ModeGallery
		m.want, m.displayed = "", ""
		m.store.SetState(state.Patch{
			ViewMode:    state.Set(state.ModeGallery),
			ActiveImage: state.Set[*gallery.Image](nil),
			NavIndex:    state.Set(-1),
		})
		return Outcome{Result: Applied, CloseSession: wasViewing}
	}

	if !wasViewing {
		if st.ActiveImage != nil && st.IndexOf(st.ActiveImage.Path) < 0 {
			m.store.SetState(state.Patch{
				ActiveImage: state.Set[*gallery.Image](nil),
				NavIndex:    state.Set(-1),
			})
			return Outcome{Result: Applied}
		}
		return Outcome{Result: NoOp}
	}

	idx := clamp(originalIndex, 0, len(st.Images)-1)
	img := st.Images[idx]
	m.store.SetState(state.Patch{
		ActiveImage: state.Set(&img),
		NavIndex:    state.Set(idx),
	})
	out := Outcome{Result: Applied}
	if st.ActiveImage == nil || st.ActiveImage.Path != img.Path || m.displayed != img.Path {
		out.CloseSession = true
		out.OpenSession = &img
		out.Load = img.Path
		out.Preload = neighbours(st.Images, idx)
		m.want = img.Path
	}
	return out
}

// Transform returns the pan/zoom state of the current view.
func (m *Machine) Transform() Transform {
	mode := m.store.GetState().ViewMode
	if mode == state.ModeGallery {
		return Identity()
	}
	return m.transforms[mode]
}

// Wheel zooms the current view around (px, py).
func (m *Machine) Wheel(px, py float64, notches int) bool {
	mode := m.store.GetState().ViewMode
	if mode == state.ModeGallery || notches == 0 {
		return false
	}
	m.transforms[mode] = m.transforms[mode].Wheel(px, py, notches)
	return true
}

// Pan drags the current view. It reports false when not zoomed in.
func (m *Machine) Pan(dx, dy float64) bool {
	mode := m.store.GetState().ViewMode
	if mode == state.ModeGallery {
		return false
	}
	t, ok := m.transforms[mode].Pan(dx, dy)
	if ok {
		m.transforms[mode] = t
	}
	return ok
}

// ResetTransform returns the current view to the identity transform.
func (m *Machine) ResetTransform() {
	mode := m.store.GetState().ViewMode
	if mode != state.ModeGallery {
		m.transforms[mode] = Identity()
	}
}

// Columns returns how many cells of width cell fit in width.
func Columns(width, cell int) int {
	if cell <= 0 || width <= cell {
		return 1
	}
	return width / cell
}
