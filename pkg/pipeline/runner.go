package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackchart/pkg/cache"
	"github.com/matzehuels/stackchart/pkg/layout"
	"github.com/matzehuels/stackchart/pkg/observability"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// Runner executes the pipeline with caching. It holds no per-run state,
// so one Runner may serve concurrent runs with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default entry lifetimes when non-zero.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses cache.DefaultKeyer.
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
		Cache:  cache.Instrument(c),
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs load → stack → layout → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result, err := r.Stack(ctx, opts)
	if err != nil {
		return nil, err
	}

	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, result.Series, result.DataHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"mark", l.Mark,
		"blocks", len(l.Blocks),
		"areas", len(l.Areas),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, result.Series, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Stack runs load → stack only.
func (r *Runner) Stack(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForStack(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()
	result := &Result{}

	src := source(opts)
	loadStart := time.Now()
	hooks.OnLoadStart(ctx, src)
	records, hash, err := Load(ctx, opts)
	result.Stats.LoadTime = time.Since(loadStart)
	hooks.OnLoadComplete(ctx, src, len(records), result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.DataHash = hash
	result.Stats.Records = len(records)

	r.Logger.Info("loaded records",
		"source", src,
		"records", len(records),
		"duration", result.Stats.LoadTime)

	stackStart := time.Now()
	hooks.OnStackStart(ctx, len(records))
	s, warnings, err := BuildStack(records, opts)
	var series []stack.Series
	if err == nil {
		series = s.Data()
	}
	result.Stats.StackTime = time.Since(stackStart)
	hooks.OnStackComplete(ctx, len(series), result.Stats.StackTime, err)
	if err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}
	result.Series = series
	result.Warnings = warnings
	result.Order = s.Order()
	result.Offset = s.Offset()
	result.Stats.Series = len(series)

	r.Logger.Info("stacked series",
		"series", len(series),
		"order", s.Order(),
		"offset", s.Offset(),
		"duration", result.Stats.StackTime)

	return result, nil
}

// LayoutWithCacheInfo computes or fetches the layout for series and
// reports whether it came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, series []stack.Series, dataHash string, opts Options) (layout.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Layout{}, false, err
	}

	stackKey := r.Keyer.StackKey(dataHash, opts.StackKeyOpts())
	cacheKey := r.Keyer.LayoutKey(stackKey, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil
			}
		}
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnLayoutStart(ctx, opts.Mark, len(series))
	l, err := GenerateLayout(ctx, series, opts)
	hooks.OnLayoutComplete(ctx, opts.Mark, time.Since(start), err)
	if err != nil {
		return layout.Layout{}, false, err
	}

	if data, err := json.Marshal(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLLayout)); err != nil {
			r.Logger.Debug("cache write failed", "key", cacheKey, "error", err)
		}
	}
	return l, false, nil
}

// RenderWithCacheInfo renders every requested format, reusing cached
// artifacts only when all of them are present.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, series []stack.Series, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := json.Marshal(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	rendered, err := Render(l, series, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Debug("cache write failed", "key", key, "error", err)
		}
	}
	return rendered, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
