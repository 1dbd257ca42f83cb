package state

import (
	"slices"
	"sort"
	"time"

	"github.com/five82/vitrine/internal/gallery"
)

// ViewMode is the mutually exclusive presentation state.
type ViewMode int

const (
	ModeGallery ViewMode = iota
	ModeZoom
	ModeFullscreen
)

func (m ViewMode) String() string {
	switch m {
	case ModeZoom:
		return "zoom"
	case ModeFullscreen:
		return "fullscreen"
	default:
		return "gallery"
	}
}

// Selection is a set of images keyed by canonical path.
type Selection map[string]gallery.Image

// Has reports membership.
func (s Selection) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Paths returns the selected paths sorted.
func (s Selection) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	if s == nil {
		return Selection{}
	}
	dup := make(Selection, len(s))
	for k, v := range s {
		dup[k] = v.Clone()
	}
	return dup
}

// With returns a copy that also contains imgs.
func (s Selection) With(imgs ...gallery.Image) Selection {
	dup := s.Clone()
	for _, img := range imgs {
		dup[img.Path] = img.Clone()
	}
	return dup
}

// Without returns a copy without paths.
func (s Selection) Without(paths ...string) Selection {
	dup := s.Clone()
	for _, p := range paths {
		delete(dup, p)
	}
	return dup
}

// Status carries the transient flags the UI renders in its status line.
type Status struct {
	Loading bool
	Message string
	Error   string
}

// State is the canonical application state.
type State struct {
	Images    []gallery.Image
	Counts    gallery.Counts
	Filters   gallery.FilterCriteria
	Selection Selection
	// Anchor is the path range selection extends from.
	Anchor string

	ViewMode    ViewMode
	ActiveImage *gallery.Image
	// NavIndex points at ActiveImage within Images, or is -1.
	NavIndex int

	Status Status
}

// Clone returns a deep copy sharing nothing with s.
func (s State) Clone() State {
	dup := s
	if s.Images != nil {
		dup.Images = make([]gallery.Image, len(s.Images))
		for i, img := range s.Images {
			dup.Images[i] = img.Clone()
		}
	}
	dup.Filters = s.Filters.Clone()
	dup.Selection = s.Selection.Clone()
	if s.ActiveImage != nil {
		active := s.ActiveImage.Clone()
		dup.ActiveImage = &active
	}
	return dup
}

// IndexOf returns the position of path in Images, or -1.
func (s State) IndexOf(path string) int {
	return slices.IndexFunc(s.Images, func(img gallery.Image) bool { return img.Path == path })
}

// Active returns the active image, if any.
func (s State) Active() (gallery.Image, bool) {
	if s.ActiveImage == nil {
		return gallery.Image{}, false
	}
	return *s.ActiveImage, true
}

// SelectedImages returns the selection in list order, followed by any
// selected records that are no longer listed.
func (s State) SelectedImages() []gallery.Image {
	out := make([]gallery.Image, 0, len(s.Selection))
	seen := make(map[string]struct{}, len(s.Selection))
	for _, img := range s.Images {
		if s.Selection.Has(img.Path) {
			out = append(out, img)
			seen[img.Path] = struct{}{}
		}
	}
	for _, p := range s.Selection.Paths() {
		if _, ok := seen[p]; !ok {
			out = append(out, s.Selection[p])
		}
	}
	return out
}

// normalize restores the cross-field invariants after a merge. Selection is
// pruned to listed paths only when the image list was replaced and the
// patch did not set the selection itself.
func (s *State) normalize(imagesReplaced, selectionSet bool) {
	present := make(map[string]int, len(s.Images))
	for i, img := range s.Images {
		present[img.Path] = i
	}
	if imagesReplaced && !selectionSet {
		keep := make(Selection, len(s.Selection))
		for p := range s.Selection {
			if i, ok := present[p]; ok {
				keep[p] = s.Images[i].Clone()
			}
		}
		s.Selection = keep
	}
	if s.Selection == nil {
		s.Selection = Selection{}
	}
	if _, ok := present[s.Anchor]; !ok {
		s.Anchor = ""
	}
	if s.ActiveImage == nil {
		s.NavIndex = -1
		return
	}
	if i, ok := present[s.ActiveImage.Path]; ok {
		fresh := s.Images[i].Clone()
		s.ActiveImage = &fresh
		s.NavIndex = i
		return
	}
	s.NavIndex = -1
}

// Opt is an optional patch value. The zero Opt leaves a field untouched.
type Opt[T any] struct {
	value T
	set   bool
}

// Set wraps v so a patch replaces the field with it.
func Set[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Opt[T]) apply(dst *T) {
	if o.set {
		*dst = o.value
	}
}

// FilterPatch merges into FilterCriteria field by field.
type FilterPatch struct {
	Folders     Opt[[]string]
	Formats     Opt[[]string]
	Search      Opt[string]
	SearchIn    Opt[gallery.SearchScope]
	HasWorkflow Opt[bool]
	HasPrompt   Opt[bool]
	HasEdits    Opt[bool]
	HasTags     Opt[bool]
	ShowTrashed Opt[bool]
	Sort        Opt[gallery.SortOrder]
	Range       Opt[DateRange]
}

// DateRange replaces both ends of the date filter. Nil ends are open.
type DateRange struct {
	From, To *time.Time
}

// CountsPatch merges into gallery.Counts field by field.
type CountsPatch struct {
	Total               Opt[int]
	Filtered            Opt[int]
	ThumbnailsGenerated Opt[int]
}

// StatusPatch merges into Status field by field.
type StatusPatch struct {
	Loading Opt[bool]
	Message Opt[string]
	Error   Opt[string]
}

// Patch is a partial update. Nested struct fields (Filters, Counts, Status)
// merge key by key; slices, sets, pointers and scalars replace wholesale.
type Patch struct {
	Images      Opt[[]gallery.Image]
	Counts      *CountsPatch
	Filters     *FilterPatch
	Selection   Opt[Selection]
	Anchor      Opt[string]
	ViewMode    Opt[ViewMode]
	ActiveImage Opt[*gallery.Image]
	NavIndex    Opt[int]
	Status      *StatusPatch
}

func (p Patch) applyTo(s *State) (imagesReplaced, selectionSet bool) {
	if imgs, ok := p.Images.Get(); ok {
		s.Images = make([]gallery.Image, len(imgs))
		for i, img := range imgs {
			s.Images[i] = img.Clone()
		}
		imagesReplaced = true
	}
	if p.Counts != nil {
		p.Counts.Total.apply(&s.Counts.Total)
		p.Counts.Filtered.apply(&s.Counts.Filtered)
		p.Counts.ThumbnailsGenerated.apply(&s.Counts.ThumbnailsGenerated)
	}
	if p.Filters != nil {
		p.Filters.applyTo(&s.Filters)
	}
	if sel, ok := p.Selection.Get(); ok {
		s.Selection = sel.Clone()
		selectionSet = true
	}
	p.Anchor.apply(&s.Anchor)
	p.ViewMode.apply(&s.ViewMode)
	if active, ok := p.ActiveImage.Get(); ok {
		if active == nil {
			s.ActiveImage = nil
		} else {
			dup := active.Clone()
			s.ActiveImage = &dup
		}
	}
	p.NavIndex.apply(&s.NavIndex)
	if p.Status != nil {
		p.Status.Loading.apply(&s.Status.Loading)
		p.Status.Message.apply(&s.Status.Message)
		p.Status.Error.apply(&s.Status.Error)
	}
	return imagesReplaced, selectionSet
}

func (p FilterPatch) applyTo(f *gallery.FilterCriteria) {
	if v, ok := p.Folders.Get(); ok {
		f.Folders = slices.Clone(v)
	}
	if v, ok := p.Formats.Get(); ok {
		f.Formats = slices.Clone(v)
	}
	if r, ok := p.Range.Get(); ok {
		f.From, f.To = cloneTime(r.From), cloneTime(r.To)
	}
	p.Search.apply(&f.Search)
	p.SearchIn.apply(&f.SearchIn)
	p.HasWorkflow.apply(&f.HasWorkflow)
	p.HasPrompt.apply(&f.HasPrompt)
	p.HasEdits.apply(&f.HasEdits)
	p.HasTags.apply(&f.HasTags)
	p.ShowTrashed.apply(&f.ShowTrashed)
	p.Sort.apply(&f.Sort)
}

// ReplaceFilters builds a FilterPatch that sets every field from f.
func ReplaceFilters(f gallery.FilterCriteria) *FilterPatch {
	return &FilterPatch{
		Folders:     Set(slices.Clone(f.Folders)),
		Formats:     Set(slices.Clone(f.Formats)),
		Range:       Set(DateRange{From: f.From, To: f.To}),
		Search:      Set(f.Search),
		SearchIn:    Set(f.SearchIn),
		HasWorkflow: Set(f.HasWorkflow),
		HasPrompt:   Set(f.HasPrompt),
		HasEdits:    Set(f.HasEdits),
		HasTags:     Set(f.HasTags),
		ShowTrashed: Set(f.ShowTrashed),
		Sort:        Set(f.Sort),
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	dup := *t
	return &dup
}
