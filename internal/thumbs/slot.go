package thumbs

import (
	"errors"
	"fmt"
	"image"

	"github.com/five82/vitrine/internal/gallery"
)

// LoadState is the per-placeholder thumbnail state.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return "unloaded"
	}
}

// Event drives a LoadState transition.
type Event int

const (
	EventBegin Event = iota
	EventSucceed
	EventFail
	EventRetry
)

func (e Event) String() string {
	switch e {
	case EventSucceed:
		return "succeed"
	case EventFail:
		return "fail"
	case EventRetry:
		return "retry"
	default:
		return "begin"
	}
}

// ErrInvalidTransition is returned for events the current state does not accept.
var ErrInvalidTransition = errors.New("invalid thumbnail transition")

// Next is the transition function of the load state machine:
//
//	unloaded --begin--> loading --succeed--> loaded
//	                       |
//	                       +--fail--> error --retry--> loading
//
// Retry is also accepted from loaded (forced regeneration after an edit)
// and from loading (restart with a newer request).
func Next(s LoadState, e Event) (LoadState, error) {
	switch {
	case s == Unloaded && e == EventBegin:
		return Loading, nil
	case s == Loading && e == EventSucceed:
		return Loaded, nil
	case s == Loading && e == EventFail:
		return Failed, nil
	case e == EventRetry && (s == Failed || s == Loaded || s == Loading):
		return Loading, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}

// Slot is the thumbnail half of a placeholder.
type Slot struct {
	Image  gallery.Image
	State  LoadState
	Seq    uint64
	Data   []byte
	Visual image.Image
	Err    string
}

// NewSlot returns an unloaded slot for img.
func NewSlot(img gallery.Image) *Slot {
	return &Slot{Image: img.Clone()}
}

// Apply runs one transition. Error text is cleared whenever the slot
// leaves the error state so a stale overlay never sits next to an image.
func (s *Slot) Apply(e Event) error {
	next, err := Next(s.State, e)
	if err != nil {
		return err
	}
	s.State = next
	if next != Failed {
		s.Err = ""
	}
	return nil
}

func (s *Slot) start(e Event) (uint64, error) {
	if err := s.Apply(e); err != nil {
		return 0, err
	}
	s.Seq++
	return s.Seq, nil
}

func (s *Slot) finish(seq uint64, data []byte, visual image.Image, failure string) bool {
	if seq != s.Seq || s.State != Loading {
		return false
	}
	if failure != "" {
		_ = s.Apply(EventFail)
		s.Err = failure
		return true
	}
	_ = s.Apply(EventSucceed)
	s.Data = data
	s.Visual = visual
	return true
}
