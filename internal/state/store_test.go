package state

import (
	"reflect"
	"testing"

	"github.com/five82/vitrine/internal/gallery"
)

func imgs(paths ...string) []gallery.Image {
	out := make([]gallery.Image, len(paths))
	for i, p := range paths {
		out[i] = gallery.Image{Path: p, Filename: p + ".png", Tags: []string{"t"}}
	}
	return out
}

func TestStore_GetStateIsIndependent(t *testing.T) {
	s := NewStore(State{})
	s.SetState(Patch{Images: Set(imgs("a", "b"))})

	snap := s.GetState()
	snap.Images[0].Filename = "mutated"
	snap.Images[0].Tags[0] = "mutated"
	snap.Selection["x"] = gallery.Image{Path: "x"}

	again := s.GetState()
	if again.Images[0].Filename != "a.png" || again.Images[0].Tags[0] != "t" {
		t.Fatalf("GetState should deep copy images; got %#v", again.Images[0])
	}
	if again.Selection.Has("x") {
		t.Fatalf("GetState should copy selection")
	}
}

func TestStore_ZeroValueIsUsable(t *testing.T) {
	var s Store
	snap := s.GetState()
	if snap.NavIndex != -1 {
		t.Fatalf("NavIndex = %d, want -1", snap.NavIndex)
	}
	if snap.ViewMode != ModeGallery {
		t.Fatalf("ViewMode = %v, want gallery", snap.ViewMode)
	}
}

func TestStore_NestedFiltersMergeKeyByKey(t *testing.T) {
	s := NewStore(State{Filters: gallery.FilterCriteria{Folders: []string{"out"}, HasPrompt: true}})

	s.SetState(Patch{Filters: &FilterPatch{Search: Set("cat")}})

	got := s.GetState().Filters
	if got.Search != "cat" {
		t.Fatalf("Search = %q, want cat", got.Search)
	}
	if !reflect.DeepEqual(got.Folders, []string{"out"}) || !got.HasPrompt {
		t.Fatalf("untouched filter fields changed: %#v", got)
	}

	s.SetState(Patch{Filters: &FilterPatch{Folders: Set([]string{"a", "b"})}})
	got = s.GetState().Filters
	if !reflect.DeepEqual(got.Folders, []string{"a", "b"}) || got.Search != "cat" {
		t.Fatalf("Folders should replace wholesale and keep Search; got %#v", got)
	}
}

func TestStore_StatusAndCountsMerge(t *testing.T) {
	s := NewStore(State{})
	s.SetState(Patch{Status: &StatusPatch{Loading: Set(true), Message: Set("loading")}})
	s.SetState(Patch{Status: &StatusPatch{Loading: Set(false)}, Counts: &CountsPatch{Total: Set(9)}})
	s.SetState(Patch{Counts: &CountsPatch{Filtered: Set(3)}})

	snap := s.GetState()
	if snap.Status.Loading || snap.Status.Message != "loading" {
		t.Fatalf("Status = %#v, want Loading=false Message kept", snap.Status)
	}
	if snap.Counts.Total != 9 || snap.Counts.Filtered != 3 {
		t.Fatalf("Counts = %#v, want total 9 filtered 3", snap.Counts)
	}
}

func TestStore_SubscribeOrderAndUnsubscribe(t *testing.T) {
	s := NewStore(State{})
	var calls []string
	unsubA := s.Subscribe(func(State) { calls = append(calls, "a") })
	s.Subscribe(func(st State) { calls = append(calls, "b:"+st.ViewMode.String()) })

	s.SetState(Patch{ViewMode: Set(ModeGallery)})
	unsubA()
	unsubA()
	s.SetState(Patch{Anchor: Set("")})

	want := []string{"a", "b:gallery", "b:gallery"}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestStore_ListenerMayWrite(t *testing.T) {
	s := NewStore(State{})
	fired := 0
	s.Subscribe(func(st State) {
		fired++
		if st.Status.Message == "" {
			s.SetState(Patch{Status: &StatusPatch{Message: Set("seen")}})
		}
	})
	s.SetState(Patch{Images: Set(imgs("a"))})
	if fired != 2 {
		t.Fatalf("listener fired %d times, want 2", fired)
	}
	if s.GetState().Status.Message != "seen" {
		t.Fatalf("nested SetState was lost")
	}
}

func TestStore_ReloadPrunesSelection(t *testing.T) {
	s := NewStore(State{})
	s.SetState(Patch{Images: Set(imgs("a", "b", "c"))})
	st := s.GetState()
	s.SetState(Patch{Selection: Set(Selection{}.With(st.Images[1])), Anchor: Set("b")})

	s.SetState(Patch{Images: Set(imgs("b", "c"))})
	if !s.GetState().Selection.Has("b") {
		t.Fatalf("selection lost b although it is still listed")
	}
	if s.GetState().Anchor != "b" {
		t.Fatalf("anchor = %q, want b", s.GetState().Anchor)
	}

	s.SetState(Patch{Images: Set(imgs("c"))})
	snap := s.GetState()
	if len(snap.Selection) != 0 {
		t.Fatalf("selection = %v, want empty after b was filtered out", snap.Selection.Paths())
	}
	if snap.Anchor != "" {
		t.Fatalf("anchor = %q, want cleared", snap.Anchor)
	}
}

func TestStore_NavIndexFollowsActiveImage(t *testing.T) {
	s := NewStore(State{})
	s.SetState(Patch{Images: Set(imgs("a", "b", "c"))})
	b := s.GetState().Images[1]
	s.SetState(Patch{ActiveImage: Set(&b), NavIndex: Set(0)})
	if got := s.GetState().NavIndex; got != 1 {
		t.Fatalf("NavIndex = %d, want 1 (index of active image)", got)
	}

	s.SetState(Patch{Images: Set(imgs("c", "b"))})
	if got := s.GetState().NavIndex; got != 1 {
		t.Fatalf("NavIndex after reorder = %d, want 1", got)
	}

	s.SetState(Patch{Images: Set(imgs("c"))})
	snap := s.GetState()
	if snap.NavIndex != -1 || snap.ActiveImage == nil {
		t.Fatalf("NavIndex = %d active=%v, want -1 with active kept for the caller to retarget", snap.NavIndex, snap.ActiveImage)
	}

	s.SetState(Patch{ActiveImage: Set[*gallery.Image](nil)})
	if snap := s.GetState(); snap.ActiveImage != nil || snap.NavIndex != -1 {
		t.Fatalf("clearing active image left %#v / %d", snap.ActiveImage, snap.NavIndex)
	}
}

func TestStore_UpdateImagePatchesInPlace(t *testing.T) {
	s := NewStore(State{})
	s.SetState(Patch{Images: Set(imgs("a", "b"))})
	a := s.GetState().Images[0]
	s.SetState(Patch{Selection: Set(Selection{}.With(a)), ActiveImage: Set(&a)})

	notified := 0
	s.Subscribe(func(State) { notified++ })

	if !s.UpdateImage("a", func(img *gallery.Image) { img.HasEdit = true; img.Path = "ignored" }) {
		t.Fatalf("UpdateImage(a) = false, want true")
	}
	snap := s.GetState()
	if !snap.Images[0].HasEdit || snap.Images[0].Path != "a" {
		t.Fatalf("image = %#v, want HasEdit and path kept", snap.Images[0])
	}
	if !snap.Selection["a"].HasEdit || !snap.ActiveImage.HasEdit {
		t.Fatalf("selection/active copies not refreshed")
	}
	if s.UpdateImage("missing", func(*gallery.Image) {}) {
		t.Fatalf("UpdateImage(missing) = true, want false")
	}
	if notified != 1 {
		t.Fatalf("notified = %d, want 1", notified)
	}
}

func TestBus_PublishInOrderAndUnsubscribe(t *testing.T) {
	var b Bus
	var got []string
	unsub := b.Subscribe(func(e Event) {
		if ev, ok := e.(ThumbnailInvalidated); ok {
			got = append(got, "first:"+ev.Path)
		}
	})
	b.Subscribe(func(e Event) {
		switch ev := e.(type) {
		case ThumbnailInvalidated:
			got = append(got, "second:"+ev.Path)
		case EditSaved:
			got = append(got, "saved:"+ev.Path)
		}
	})

	b.Publish(ThumbnailInvalidated{Path: "a"})
	unsub()
	b.Publish(EditSaved{Path: "b"})

	want := []string{"first:a", "second:a", "saved:b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
