// Package library connects the store to the list, bulk and extraction
// endpoints and implements the selection gestures.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/five82/vitrine/internal/conflicts"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/state"
)

// Backend is the subset of the gallery API the controller needs.
type Backend interface {
	ListImages(ctx context.Context, filters gallery.FilterCriteria) (gallery.ListResponse, error)
	FetchStats(ctx context.Context) (gallery.Counts, error)
	ExtractMetadata(ctx context.Context, paths []string, force bool) (gallery.ExtractResult, error)
	Delete(ctx context.Context, paths []string) (gallery.BatchResult, error)
	Restore(ctx context.Context, paths []string) (gallery.BatchResult, error)
	Purge(ctx context.Context, paths []string) (gallery.BatchResult, error)
}

// Controller is safe for concurrent use. Selection gestures are expected on
// the event loop; Reload and the bulk operations run in background commands.
type Controller struct {
	backend Backend
	store   *state.Store
	bus     *state.Bus
	logger  *slog.Logger

	mu  sync.Mutex
	gen uint64
}

// New builds a Controller. bus and logger may be nil.
func New(backend Backend, store *state.Store, bus *state.Bus, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{backend: backend, store: store, bus: bus, logger: logger}
}

// Reload fetches the list for the current filters. A response is applied
// only if no newer reload started and the filters did not change while it
// was in flight; it reports whether the response was applied.
func (c *Controller) Reload(ctx context.Context) (bool, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	filters := c.store.GetState().Filters
	c.store.SetState(state.Patch{Status: &state.StatusPatch{Loading: state.Set(true)}})

	resp, err := c.backend.ListImages(ctx, filters)
	if !c.current(gen, filters) {
		c.logger.Debug("dropping stale list response", "generation", gen)
		return false, nil
	}
	if err != nil {
		c.store.SetState(state.Patch{Status: &state.StatusPatch{
			Loading: state.Set(false),
			Error:   state.Set(gallery.Message(err)),
		}})
		return false, fmt.Errorf("reload images: %w", err)
	}

	c.store.SetState(state.Patch{
		Images: state.Set(resp.Images),
		Counts: &state.CountsPatch{
			Total:               state.Set(resp.Total),
			Filtered:            state.Set(resp.Filtered),
			ThumbnailsGenerated: state.Set(resp.ThumbnailsGenerated),
		},
		Status: &state.StatusPatch{Loading: state.Set(false), Error: state.Set("")},
	})
	c.logger.Debug("images reloaded", "filtered", resp.Filtered, "total", resp.Total)
	return true, nil
}

func (c *Controller) current(gen uint64, filters gallery.FilterCriteria) bool {
	c.mu.Lock()
	latest := c.gen == gen
	c.mu.Unlock()
	return latest && c.store.GetState().Filters.Equal(filters)
}

// SetFilters merges p into the filters and reloads.
func (c *Controller) SetFilters(ctx context.Context, p *state.FilterPatch) (bool, error) {
	c.store.SetState(state.Patch{Filters: p})
	return c.Reload(ctx)
}

// RefreshStats updates the aggregate counts.
func (c *Controller) RefreshStats(ctx context.Context) error {
	counts, err := c.backend.FetchStats(ctx)
	if err != nil {
		return err
	}
	c.store.SetState(state.Patch{Counts: &state.CountsPatch{
		Total:               state.Set(counts.Total),
		Filtered:            state.Set(counts.Filtered),
		ThumbnailsGenerated: state.Set(counts.ThumbnailsGenerated),
	}})
	return nil
}

// Click replaces the selection with path and makes it the range anchor.
func (c *Controller) Click(path string) bool {
	st := c.store.GetState()
	i := st.IndexOf(path)
	if i < 0 {
		return false
	}
	c.store.SetState(state.Patch{
		Selection: state.Set(state.Selection{}.With(st.Images[i])),
		Anchor:    state.Set(path),
	})
	return true
}

// Toggle flips membership of path and makes it the range anchor.
func (c *Controller) Toggle(path string) bool {
	st := c.store.GetState()
	i := st.IndexOf(path)
	if i < 0 {
		return false
	}
	sel := st.Selection.With(st.Images[i])
	if st.Selection.Has(path) {
		sel = st.Selection.Without(path)
	}
	c.store.SetState(state.Patch{Selection: state.Set(sel), Anchor: state.Set(path)})
	return true
}

// Extend selects the list range between the anchor and path. Without an
// anchor it behaves like Click.
func (c *Controller) Extend(path string) bool {
	st := c.store.GetState()
	to := st.IndexOf(path)
	if to < 0 {
		return false
	}
	from := st.IndexOf(st.Anchor)
	if from < 0 {
		return c.Click(path)
	}
	lo, hi := min(from, to), max(from, to)
	c.store.SetState(state.Patch{Selection: state.Set(state.Selection{}.With(st.Images[lo : hi+1]...))})
	return true
}

// SelectAll selects every listed image.
func (c *Controller) SelectAll() {
	st := c.store.GetState()
	c.store.SetState(state.Patch{Selection: state.Set(state.Selection{}.With(st.Images...))})
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() {
	c.store.SetState(state.Patch{Selection: state.Set(state.Selection{}), Anchor: state.Set("")})
}

// Targets returns the selected paths in list order, or the active image
// when nothing is selected.
func (c *Controller) Targets() []string {
	st := c.store.GetState()
	if len(st.Selection) > 0 {
		imgs := st.SelectedImages()
		out := make([]string, len(imgs))
		for i, img := range imgs {
			out[i] = img.Path
		}
		return out
	}
	if st.ActiveImage != nil {
		return []string{st.ActiveImage.Path}
	}
	return nil
}

// Op names a bulk operation.
type Op string

const (
	OpDelete  Op = "delete"
	OpRestore Op = "restore"
	OpPurge   Op = "purge"
)

// Summary reports a bulk operation. Partial results are successes with
// caveats; Failed lists the items to show the user.
type Summary struct {
	Op        Op
	Requested int
	Succeeded []string
	Failed    []gallery.FailedItem
}

// Partial reports whether some but not all items succeeded.
func (s Summary) Partial() bool {
	return len(s.Succeeded) > 0 && len(s.Failed) > 0
}

// Delete moves paths to the trash.
func (c *Controller) Delete(ctx context.Context, paths []string) (Summary, error) {
	return c.bulk(ctx, OpDelete, paths, c.backend.Delete)
}

// Restore brings paths back from the trash.
func (c *Controller) Restore(ctx context.Context, paths []string) (Summary, error) {
	return c.bulk(ctx, OpRestore, paths, c.backend.Restore)
}

// Purge permanently deletes paths.
func (c *Controller) Purge(ctx context.Context, paths []string) (Summary, error) {
	return c.bulk(ctx, OpPurge, paths, c.backend.Purge)
}

func (c *Controller) bulk(ctx context.Context, op Op, paths []string, call func(context.Context, []string) (gallery.BatchResult, error)) (Summary, error) {
	sum := Summary{Op: op, Requested: len(paths)}
	if len(paths) == 0 {
		return sum, nil
	}
	res, err := call(ctx, paths)
	sum.Failed = res.Failed
	if err != nil {
		if errors.Is(err, gallery.ErrAllFailed) {
			if len(sum.Failed) == 0 {
				sum.Failed = failAll(paths, "failed")
			}
			c.logger.Warn("bulk operation failed for every item", "op", op, "paths", len(paths))
			return sum, err
		}
		sum.Failed = failAll(paths, gallery.Message(err))
		return sum, fmt.Errorf("%s: %w", op, err)
	}
	sum.Succeeded = res.Succeeded
	if !res.OK() {
		c.logger.Warn("bulk operation partially failed", "op", op, "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	} else {
		c.logger.Info("bulk operation done", "op", op, "paths", len(paths))
	}

	c.store.SetState(state.Patch{Selection: state.Set(state.Selection{}), Anchor: state.Set("")})
	c.bus.Publish(state.ImagesRemoved{Paths: slices.Clone(sum.Succeeded)})
	if _, err := c.Reload(ctx); err != nil {
		return sum, err
	}
	return sum, nil
}

func failAll(paths []string, msg string) []gallery.FailedItem {
	out := make([]gallery.FailedItem, len(paths))
	for i, p := range paths {
		out[i] = gallery.FailedItem{Path: p, Error: msg}
	}
	return out
}

// ExtractSummary reports a metadata extraction before conflicts are resolved.
type ExtractSummary struct {
	Succeeded []string
	Failed    []gallery.FailedItem
	Conflicts int
}

// Extract runs bulk metadata extraction. When the server reports conflicts
// a queue is returned for the user to work through.
func (c *Controller) Extract(ctx context.Context, paths []string, force bool) (ExtractSummary, *conflicts.Queue, error) {
	if len(paths) == 0 {
		return ExtractSummary{}, nil, nil
	}
	res, err := c.backend.ExtractMetadata(ctx, paths, force)
	if err != nil {
		return ExtractSummary{}, nil, fmt.Errorf("extract metadata: %w", err)
	}
	sum := ExtractSummary{Succeeded: res.Succeeded, Failed: res.Failed, Conflicts: len(res.Conflicts)}
	c.logger.Info("metadata extracted", "succeeded", len(res.Succeeded), "failed", len(res.Failed), "conflicts", len(res.Conflicts))
	if len(res.Conflicts) == 0 {
		return sum, nil, nil
	}
	return sum, conflicts.NewQueue(c.backend, res.Conflicts), nil
}
