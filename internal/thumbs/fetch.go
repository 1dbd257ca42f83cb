package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/five82/vitrine/internal/gallery"
)

// Source fetches thumbnail bytes from the server.
type Source interface {
	FetchThumbnail(ctx context.Context, req gallery.ThumbnailRequest) ([]byte, error)
}

// Cache stores thumbnail bytes by request cache key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Prioritizer accepts prioritization batches.
type Prioritizer interface {
	PrioritizeThumbnails(ctx context.Context, paths []string, tag string) error
}

// Fetcher reads through an optional cache and collapses concurrent requests
// for the same thumbnail into one. Forced requests skip the cache read and
// overwrite the cached bytes.
type Fetcher struct {
	source Source
	cache  Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewFetcher builds a Fetcher. cache may be nil.
func NewFetcher(source Source, cache Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, cache: cache, logger: logger}
}

// Fetch returns thumbnail bytes for req.
func (f *Fetcher) Fetch(ctx context.Context, req gallery.ThumbnailRequest) ([]byte, error) {
	key := req.CacheKey()
	if !req.Force && f.cache != nil {
		data, ok, err := f.cache.Get(ctx, key)
		if err != nil {
			f.logger.Warn("thumbnail cache read failed", "key", key, "error", err)
		} else if ok {
			return data, nil
		}
	}

	flightKey := key
	if req.Force {
		flightKey = "force:" + key
	}
	v, err, _ := f.group.Do(flightKey, func() (any, error) {
		data, err := f.source.FetchThumbnail(ctx, req)
		if err != nil {
			return nil, err
		}
		if f.cache != nil {
			if err := f.cache.Put(ctx, key, data); err != nil {
				f.logger.Warn("thumbnail cache write failed", "key", key, "error", err)
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected type from fetch group: %T", v)
	}
	return data, nil
}

// Run executes one Load and decodes the image.
func (f *Fetcher) Run(ctx context.Context, l Load) Result {
	res := Result{Path: l.Path, Seq: l.Seq}
	data, err := f.Fetch(ctx, l.Request)
	if err != nil {
		res.Err = err
		return res
	}
	img, err := Decode(data)
	if err != nil {
		// Undecodable bytes must not be served from the cache again.
		if f.cache != nil {
			if derr := f.cache.Delete(ctx, l.Request.CacheKey()); derr != nil {
				f.logger.Warn("thumbnail cache delete failed", "path", l.Path, "error", derr)
			}
		}
		res.Err = err
		return res
	}
	res.Data = data
	res.Visual = img
	return res
}

// Decode decodes thumbnail bytes with the registered image codecs.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}
	return img, nil
}

const prioritizeParallelism = 4

// SendBatches posts every batch. Failures are logged and never returned:
// prioritization is a hint and loads do not wait for it.
func SendBatches(ctx context.Context, p Prioritizer, batches [][]string, tag string, logger *slog.Logger) {
	if len(batches) == 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prioritizeParallelism)
	for _, batch := range batches {
		g.Go(func() error {
			if err := p.PrioritizeThumbnails(gctx, batch, tag); err != nil {
				logger.Warn("thumbnail prioritization failed", "paths", len(batch), "context", tag, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
