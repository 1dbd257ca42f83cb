package edit

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/state"
)

type fakeBackend struct {
	mu      sync.Mutex
	records map[string]gallery.Adjustments
	saveErr error
	saves   int
	deletes int
	block   chan struct{}
}

func (f *fakeBackend) LoadEdit(_ context.Context, path string) (gallery.EditRecord, bool, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	adj, ok := f.records[path]
	return gallery.EditRecord{Path: path, Adjustments: adj}, ok, nil
}

func (f *fakeBackend) SaveEdit(_ context.Context, path string, adj gallery.Adjustments) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[path] = adj
	return nil
}

func (f *fakeBackend) DeleteEdit(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.records, path)
	return nil
}

func setup(t *testing.T) (*Manager, *fakeBackend, *state.Store, *[]state.Event) {
	t.Helper()
	backend := &fakeBackend{records: map[string]gallery.Adjustments{}}
	store := state.NewStore(state.State{Images: []gallery.Image{{Path: "a"}, {Path: "b"}}})
	bus := &state.Bus{}
	var events []state.Event
	bus.Subscribe(func(e state.Event) { events = append(events, e) })
	return NewManager(backend, store, bus, nil), backend, store, &events
}

func TestManager_LoadDefaultsAndPersisted(t *testing.T) {
	m, backend, _, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, m.Load(ctx, gallery.Image{Path: "a"}))
	cur, ok := m.Current()
	require.True(t, ok)
	assert.True(t, Equal(Defaults(), cur))
	assert.False(t, m.IsDirty())

	backend.records["b"] = gallery.Adjustments{Brightness: 1.3, Contrast: 1, Saturation: 0.5}
	require.NoError(t, m.Load(ctx, gallery.Image{Path: "b"}))
	orig, _ := m.Original()
	assert.Equal(t, 1.3, orig.Brightness)
	assert.Equal(t, "b", m.Path())
	assert.False(t, m.IsDirty())
}

func TestManager_SetBeforeLoadFails(t *testing.T) {
	m, _, _, _ := setup(t)
	_, err := m.SetBrightness(2)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, m.Save(context.Background()), ErrNoSession)
}

func TestManager_DirtyAndCancel(t *testing.T) {
	m, _, _, _ := setup(t)
	require.NoError(t, m.Load(context.Background(), gallery.Image{Path: "a"}))

	adj, err := m.SetBrightness(1.3)
	require.NoError(t, err)
	assert.Equal(t, 1.3, adj.Brightness)
	assert.True(t, m.HasUnsavedChanges())

	_, _ = m.SetBrightness(1.0)
	assert.False(t, m.IsDirty(), "dirty is structural, not a sticky flag")

	_, _ = m.SetContrast(9)
	cur, _ := m.Current()
	assert.Equal(t, MaxLevel, cur.Contrast)
	m.Cancel()
	cur, _ = m.Current()
	assert.True(t, Equal(Defaults(), cur))
}

func TestManager_SaveCommitsAndInvalidates(t *testing.T) {
	m, backend, store, events := setup(t)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx, gallery.Image{Path: "a"}))
	_, _ = m.SetTemporal(&gallery.Temporal{Speed: 2})
	_, _ = m.SetSaturation(0.2)

	require.NoError(t, m.Save(ctx))
	assert.False(t, m.IsDirty())
	assert.Equal(t, 0.2, backend.records["a"].Saturation)
	assert.Equal(t, 2.0, backend.records["a"].Temporal.Speed)
	assert.True(t, store.GetState().Images[0].HasEdit)
	assert.Equal(t, []state.Event{state.ThumbnailInvalidated{Path: "a"}, state.EditSaved{Path: "a"}}, *events)
}

func TestManager_SaveFailureKeepsDirty(t *testing.T) {
	m, backend, store, events := setup(t)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx, gallery.Image{Path: "a"}))
	_, _ = m.SetBrightness(2)
	backend.saveErr = errors.New("disk full")

	err := m.Save(ctx)
	assert.ErrorContains(t, err, "disk full")
	assert.True(t, m.IsDirty())
	assert.False(t, store.GetState().Images[0].HasEdit)
	assert.Empty(t, *events)
}

func TestManager_ResetRestoresDefaults(t *testing.T) {
	m, backend, store, events := setup(t)
	ctx := context.Background()
	backend.records["a"] = gallery.Adjustments{Brightness: 2, Contrast: 1, Saturation: 1}
	store.UpdateImage("a", func(img *gallery.Image) { img.HasEdit = true })
	require.NoError(t, m.Load(ctx, gallery.Image{Path: "a"}))

	require.NoError(t, m.Reset(ctx))
	cur, _ := m.Current()
	assert.True(t, Equal(Defaults(), cur))
	assert.False(t, m.IsDirty())
	assert.Equal(t, 1, backend.deletes)
	assert.False(t, store.GetState().Images[0].HasEdit)
	assert.Contains(t, *events, state.Event(state.EditReset{Path: "a"}))
}

func TestManager_SupersededLoadIsDropped(t *testing.T) {
	m, backend, _, _ := setup(t)
	backend.records["a"] = gallery.Adjustments{Brightness: 2, Contrast: 1, Saturation: 1}
	backend.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- m.Load(context.Background(), gallery.Image{Path: "a"}) }()
	require.Eventually(t, func() bool { return m.Path() == "a" }, time.Second, time.Millisecond)
	m.Close()
	close(backend.block)
	require.NoError(t, <-done)

	_, ok := m.Current()
	assert.False(t, ok)
	assert.False(t, m.HasUnsavedChanges())
}

func TestPreview(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 50, B: 200, A: 255})

	assert.Same(t, image.Image(src), Preview(src, Defaults()))

	bright := Preview(src, gallery.Adjustments{Brightness: 2, Contrast: 1, Saturation: 1})
	got := color.NRGBAModel.Convert(bright.At(0, 0)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 255, A: 255}, got)

	gray := Preview(src, gallery.Adjustments{Brightness: 1, Contrast: 1, Saturation: 0})
	got = color.NRGBAModel.Convert(gray.At(0, 0)).(color.NRGBA)
	assert.Equal(t, got.R, got.G)
	assert.Equal(t, got.G, got.B)
}

func TestFilterAndEqual(t *testing.T) {
	assert.Equal(t, "brightness(1.00) contrast(1.00) saturate(1.00)", Filter(Defaults()))
	a := Defaults()
	b := Defaults()
	b.Temporal = &gallery.Temporal{Speed: 1}
	assert.False(t, Equal(a, b))
	a.Temporal = &gallery.Temporal{Speed: 1}
	assert.True(t, Equal(a, b))
}
