package library

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/nav"
	"github.com/five82/vitrine/internal/state"
)

type fakeBackend struct {
	mu        sync.Mutex
	images    []gallery.Image
	trashed   map[string]bool
	lastQuery gallery.FilterCriteria
	onList    func()
	listErr   error
	partial   map[string]string
	plain200  bool
	conflicts []gallery.Conflict
}

func newBackend(paths ...string) *fakeBackend {
	b := &fakeBackend{trashed: map[string]bool{}}
	for _, p := range paths {
		b.images = append(b.images, gallery.Image{Path: p, Filename: p})
	}
	return b
}

func (f *fakeBackend) ListImages(_ context.Context, filters gallery.FilterCriteria) (gallery.ListResponse, error) {
	if f.onList != nil {
		hook := f.onList
		f.onList = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = filters
	if f.listErr != nil {
		return gallery.ListResponse{}, f.listErr
	}
	var out []gallery.Image
	for _, img := range f.images {
		if f.trashed[img.Path] != filters.ShowTrashed {
			continue
		}
		if filters.Search != "" && img.Filename != filters.Search {
			continue
		}
		out = append(out, img)
	}
	return gallery.ListResponse{Images: out, Counts: gallery.Counts{Total: len(f.images), Filtered: len(out)}}, nil
}

func (f *fakeBackend) FetchStats(context.Context) (gallery.Counts, error) {
	return gallery.Counts{Total: len(f.images), ThumbnailsGenerated: 1}, nil
}

func (f *fakeBackend) ExtractMetadata(_ context.Context, paths []string, force bool) (gallery.ExtractResult, error) {
	if force {
		return gallery.ExtractResult{Succeeded: paths}, nil
	}
	res := gallery.ExtractResult{Conflicts: f.conflicts}
	for _, p := range paths {
		if !slices.ContainsFunc(f.conflicts, func(c gallery.Conflict) bool { return c.Path == p }) {
			res.Succeeded = append(res.Succeeded, p)
		}
	}
	return res, nil
}

func (f *fakeBackend) mark(paths []string, trashed bool) (gallery.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res gallery.BatchResult
	for _, p := range paths {
		if msg, ok := f.partial[p]; ok {
			res.Failed = append(res.Failed, gallery.FailedItem{Path: p, Error: msg})
			continue
		}
		f.trashed[p] = trashed
		res.Succeeded = append(res.Succeeded, p)
	}
	if len(res.Failed) > 0 {
		res.Partial = !f.plain200
		if len(res.Succeeded) == 0 {
			return res, gallery.ErrAllFailed
		}
	}
	return res, nil
}

func (f *fakeBackend) Delete(_ context.Context, paths []string) (gallery.BatchResult, error) {
	return f.mark(paths, true)
}

func (f *fakeBackend) Restore(_ context.Context, paths []string) (gallery.BatchResult, error) {
	return f.mark(paths, false)
}

func (f *fakeBackend) Purge(_ context.Context, paths []string) (gallery.BatchResult, error) {
	return f.mark(paths, true)
}

func setup(t *testing.T, backend *fakeBackend) (*Controller, *state.Store, *[]state.Event) {
	t.Helper()
	store := state.NewStore(state.State{})
	bus := &state.Bus{}
	var events []state.Event
	bus.Subscribe(func(e state.Event) { events = append(events, e) })
	c := New(backend, store, bus, nil)
	applied, err := c.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, applied)
	return c, store, &events
}

func selected(s *state.Store) []string {
	return s.GetState().Selection.Paths()
}

func TestSelectionGestures(t *testing.T) {
	c, store, _ := setup(t, newBackend("a", "b", "c", "d"))

	require.True(t, c.Click("b"))
	assert.Equal(t, []string{"b"}, selected(store))
	require.True(t, c.Extend("d"))
	assert.Equal(t, []string{"b", "c", "d"}, selected(store))
	require.True(t, c.Extend("a"))
	assert.Equal(t, []string{"a", "b"}, selected(store), "range is recomputed from the anchor")

	require.True(t, c.Toggle("d"))
	assert.Equal(t, []string{"a", "b", "d"}, selected(store))
	require.True(t, c.Toggle("d"))
	assert.Equal(t, []string{"a", "b"}, selected(store))
	assert.Equal(t, "d", store.GetState().Anchor)

	c.SelectAll()
	assert.Len(t, selected(store), 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.Targets())
	c.ClearSelection()
	assert.Empty(t, selected(store))
	assert.False(t, c.Click("missing"))
}

func TestReload_SelectionFollowsFilter(t *testing.T) {
	c, store, _ := setup(t, newBackend("p", "q"))
	ctx := context.Background()
	c.Click("p")

	_, err := c.SetFilters(ctx, &state.FilterPatch{Search: state.Set("p")})
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, selected(store))

	_, err = c.SetFilters(ctx, &state.FilterPatch{Search: state.Set("q")})
	require.NoError(t, err)
	assert.Empty(t, selected(store))
}

func TestReload_DropsResponseForChangedFilters(t *testing.T) {
	backend := newBackend("a", "b")
	c, store, _ := setup(t, backend)
	backend.onList = func() {
		store.SetState(state.Patch{Filters: &state.FilterPatch{Search: state.Set("b")}})
	}

	applied, err := c.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, store.GetState().Images, 2, "stale response must not replace the list")
}

func TestReload_ErrorSetsStatus(t *testing.T) {
	backend := newBackend("a")
	c, store, _ := setup(t, backend)
	backend.listErr = &gallery.APIError{Status: 502, Body: "upstream down"}

	_, err := c.Reload(context.Background())
	require.Error(t, err)
	st := store.GetState()
	assert.False(t, st.Status.Loading)
	assert.Equal(t, "upstream down", st.Status.Error)
	assert.Len(t, st.Images, 1)
}

func TestDeleteScenario_SelectionClearedAndGalleryForced(t *testing.T) {
	c, store, events := setup(t, newBackend("A", "B", "C"))
	m := nav.New(store, nil)
	ctx := context.Background()

	c.Click("A")
	c.Extend("B")
	m.Dispatch(nav.Action{Kind: nav.Open, Index: 1})
	m.Dispatch(nav.Action{Kind: nav.Close})
	require.Equal(t, []string{"A", "B"}, selected(store))

	idx := store.GetState().NavIndex
	sum, err := c.Delete(ctx, c.Targets())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, sum.Succeeded)
	m.AfterDelete(idx)

	st := store.GetState()
	assert.Empty(t, st.Selection)
	assert.Nil(t, st.ActiveImage)
	assert.Equal(t, state.ModeGallery, st.ViewMode)
	require.Len(t, st.Images, 1)
	assert.Equal(t, "C", st.Images[0].Path)
	assert.Contains(t, *events, state.Event(state.ImagesRemoved{Paths: []string{"A", "B"}}))
}

func TestDelete_PartialIsSuccessWithCaveats(t *testing.T) {
	backend := newBackend("a", "b")
	backend.partial = map[string]string{"b": "locked"}
	c, store, _ := setup(t, backend)
	c.SelectAll()

	sum, err := c.Delete(context.Background(), c.Targets())
	require.NoError(t, err)
	assert.True(t, sum.Partial())
	assert.Equal(t, []gallery.FailedItem{{Path: "b", Error: "locked"}}, sum.Failed)
	assert.Empty(t, selected(store))
	require.Len(t, store.GetState().Images, 1)
	assert.Equal(t, "b", store.GetState().Images[0].Path)
}

func TestDelete_FailuresWithoutMultiStatusAreLogged(t *testing.T) {
	backend := newBackend("a", "b")
	backend.partial = map[string]string{"b": "locked"}
	backend.plain200 = true
	var logs bytes.Buffer
	store := state.NewStore(state.State{})
	c := New(backend, store, &state.Bus{}, slog.New(slog.NewTextHandler(&logs, nil)))
	_, err := c.Reload(context.Background())
	require.NoError(t, err)

	sum, err := c.Delete(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, sum.Partial())
	assert.Contains(t, logs.String(), "bulk operation partially failed")
	assert.NotContains(t, logs.String(), "bulk operation done")
}

func TestDelete_TotalFailureKeepsSelection(t *testing.T) {
	backend := newBackend("a")
	backend.partial = map[string]string{"a": "locked"}
	c, store, events := setup(t, backend)
	c.Click("a")

	sum, err := c.Delete(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, gallery.ErrAllFailed))
	assert.Len(t, sum.Failed, 1)
	assert.Equal(t, []string{"a"}, selected(store))
	assert.Empty(t, *events)
}

func TestRestoreFromTrash(t *testing.T) {
	backend := newBackend("a", "b")
	backend.trashed["a"] = true
	c, store, _ := setup(t, backend)
	ctx := context.Background()

	_, err := c.SetFilters(ctx, &state.FilterPatch{ShowTrashed: state.Set(true)})
	require.NoError(t, err)
	require.Len(t, store.GetState().Images, 1)

	_, err = c.Restore(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, store.GetState().Images)
	assert.True(t, backend.lastQuery.ShowTrashed)
}

func TestExtract_ReturnsConflictQueue(t *testing.T) {
	backend := newBackend("a", "b")
	backend.conflicts = []gallery.Conflict{{Path: "b", Reason: "metadata exists"}}
	c, _, _ := setup(t, backend)

	sum, q, err := c.Extract(context.Background(), []string{"a", "b"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sum.Succeeded)
	require.NotNil(t, q)
	assert.Equal(t, 1, q.Remaining())

	_, q, err = c.Extract(context.Background(), []string{"a"}, true)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestRefreshStats(t *testing.T) {
	c, store, _ := setup(t, newBackend("a", "b"))
	require.NoError(t, c.RefreshStats(context.Background()))
	assert.Equal(t, 1, store.GetState().Counts.ThumbnailsGenerated)
}
