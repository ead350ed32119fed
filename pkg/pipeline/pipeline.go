// Package pipeline runs the flatten → render pipeline for magflat.
//
// The CLI and the HTTP service both go through a [Runner] so that caching,
// validation and logging behave the same at every entry point.
//
// # Stages
//
//  1. Flatten: load a top cell file and resolve its instance hierarchy
//  2. Render: draw one layer as SVG and convert it to PNG or PDF
//
// Each stage can run on its own or as part of [Runner.Execute].
//
// # Caching
//
// A flattened cell is cached together with the SHA-256 of every file that
// went into it. A cached cell is used only while all of those files still
// hash the same, so editing any sub-cell invalidates the entry. Rendered
// artifacts are keyed by the content hash of the flattened cell.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "top.mag",
//	    Layer:   "metal1",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/magflat/pkg/cache"
	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/layout"
	"github.com/matzehuels/magflat/pkg/magic"
	"github.com/matzehuels/magflat/pkg/render"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// DefaultScale is the PNG scale factor when Options.Scale is zero.
const DefaultScale = 2.0

// ValidFormats lists the formats Render accepts.
var ValidFormats = []string{FormatSVG, FormatPNG, FormatPDF}

// Options configures a pipeline run.
type Options struct {
	// Path is the top cell file.
	Path string

	// Normalize and MaxDepth are passed to the loader.
	Normalize bool
	MaxDepth  int

	// Refresh bypasses cached cells and artifacts. Fresh results are
	// still written back.
	Refresh bool

	// Layer is the layer to render. Overlay layers are drawn on top of it.
	Layer   string
	Overlay []string

	// Formats are the artifacts to produce. Empty means svg.
	Formats []string

	// Scale is the PNG scale factor. Fill overrides the primary layer color.
	Scale float64
	Fill  string

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger
}

// ValidateForFlatten checks the options used by the flatten stage and
// fills in defaults.
func (o *Options) ValidateForFlatten() error {
	if o.Path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no cell file given")
	}
	if o.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max depth must not be negative, got %d", o.MaxDepth)
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = magic.DefaultMaxDepth
	}
	return nil
}

// ValidateForRender checks the options used by the render stage and fills
// in defaults.
func (o *Options) ValidateForRender() error {
	if err := errors.ValidateLayerName(o.Layer); err != nil {
		return err
	}
	for _, name := range o.Overlay {
		if err := errors.ValidateLayerName(name); err != nil {
			return err
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	for _, f := range o.Formats {
		if !slices.Contains(ValidFormats, f) {
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want one of svg, png, pdf)", f)
		}
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative, got %g", o.Scale)
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	return nil
}

// CellKeyOpts returns the cache key options of the flatten stage.
func (o Options) CellKeyOpts() cache.CellKeyOpts {
	return cache.CellKeyOpts{Normalize: o.Normalize, MaxDepth: o.MaxDepth}
}

// ArtifactKeyOpts returns the cache key options of one rendered format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Layer: o.Layer, Overlay: o.Overlay, Format: format, Fill: o.Fill}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// SVGOptions returns the render options for o.
func (o Options) SVGOptions() []render.Option {
	var opts []render.Option
	if o.Fill != "" {
		opts = append(opts, render.WithFill(o.Fill))
	}
	if len(o.Overlay) > 0 {
		opts = append(opts, render.WithLayers(o.Overlay...))
	}
	return opts
}

// Flattened is the output of the flatten stage.
type Flattened struct {
	Cell    *layout.Cell
	Notices []magic.Notice

	// Sources lists every file read, top cell first.
	Sources []string

	// Cells holds every distinct cell the loader built, leaves first.
	// It is empty when the cell came from the cache.
	Cells []*layout.Cell
}

// Result holds the output of Execute.
type Result struct {
	Cell      *layout.Cell
	CellHash  string
	Notices   []magic.Notice
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds counts and timings of a run.
type Stats struct {
	Files       int
	Layers      int
	Rects       int
	FlattenTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	FlattenHit bool
	RenderHit  bool
}
