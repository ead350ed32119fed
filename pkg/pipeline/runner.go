package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/magflat/pkg/cache"
	mio "github.com/matzehuels/magflat/pkg/io"
	"github.com/matzehuels/magflat/pkg/layout"
	"github.com/matzehuels/magflat/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeCell     = "cell"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it to avoid duplicating caching logic.
//
// The Runner holds no per-run state. Multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// CellTTL is the expiry of cached cells. Artifacts always use
	// cache.TTLArtifact.
	CellTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		CellTTL: cache.TTLCell,
	}
}

// Execute runs flatten and render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForFlatten(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	flattenStart := time.Now()
	f, flattenHit, err := r.FlattenWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Cell = f.Cell
	result.Notices = f.Notices
	result.Stats.FlattenTime = time.Since(flattenStart)
	result.Stats.Files = len(f.Sources)
	result.Stats.Layers = len(f.Cell.Layers())
	result.Stats.Rects = f.Cell.TotalRects()
	result.CacheInfo.FlattenHit = flattenHit

	opts.Logger.Info("flattened cell",
		"cell", f.Cell.Name,
		"files", result.Stats.Files,
		"rects", result.Stats.Rects,
		"cached", flattenHit,
		"duration", result.Stats.FlattenTime)

	renderStart := time.Now()
	artifacts, hash, renderHit, err := r.render(ctx, f.Cell, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CellHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"layer", opts.Layer,
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// FlattenWithCacheInfo flattens opts.Path with caching and reports whether
// the cell came from the cache. A cached cell is used only while every file
// it was built from is unchanged.
func (r *Runner) FlattenWithCacheInfo(ctx context.Context, opts Options) (*Flattened, bool, error) {
	if err := opts.ValidateForFlatten(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	abs, err := absPath(opts.Path)
	if err != nil {
		return nil, false, err
	}
	opts.Path = abs
	key := r.Keyer.CellKey(abs, opts.CellKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if f, ok := decodeEntry(data, abs, opts.Logger); ok {
				observability.Cache().OnCacheHit(ctx, keyTypeCell)
				return f, true, nil
			}
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", key, "error", err)
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeCell)

	f, err := Flatten(opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := encodeEntry(f); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.CellTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeCell, len(data))
		}
	} else {
		opts.Logger.Debug("not caching cell", "error", err)
	}

	return f, false, nil
}

// Flatten is a convenience wrapper that calls FlattenWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Flatten(ctx context.Context, opts Options) (*Flattened, error) {
	f, _, err := r.FlattenWithCacheInfo(ctx, opts)
	return f, err
}

// RenderWithCacheInfo renders cell with caching and reports whether every
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, cell *layout.Cell, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	artifacts, _, hit, err := r.render(ctx, cell, opts)
	return artifacts, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, cell *layout.Cell, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, cell, opts)
	return artifacts, err
}

// render expects validated options. It also returns the cell hash the
// artifacts are keyed by.
func (r *Runner) render(ctx context.Context, cell *layout.Cell, opts Options) (map[string][]byte, string, bool, error) {
	cellData, err := mio.MarshalCell(cell)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize cell for cache key: %w", err)
	}
	hash := cache.Hash(cellData)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			return artifacts, hash, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)

	rendered, err := Render(cell, opts)
	if err != nil {
		return nil, "", false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}

	return rendered, hash, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
