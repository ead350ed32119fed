// Package layout defines the flattened geometric database produced by the
// loader: a Cell mapping layer names to ordered rectangle sequences.
//
// A Cell is built by exactly one parsing pass. Rectangles declared in the
// cell's own file are appended with [Cell.AddRect]; rectangles inherited from
// an instanced sub-cell are copied through the instance transform with
// [Cell.Merge]. Once the loader returns the Cell it is treated as immutable:
// every accessor returns copies, and sub-cell geometry is never shared by
// reference between cells.
//
// Consumers query a flattened cell through two operations: [Cell.Rects] for
// the rectangles of one layer and [Cell.Bounds] for the global bounding box.
package layout

import (
	"slices"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
)

// Instance records one placement of a sub-cell inside a parent cell.
// It is kept for hierarchy inspection; the geometry it contributes is
// already merged into the parent's layers.
type Instance struct {
	Cell      string         // referenced cell name
	Name      string         // instance name from the use record
	Transform geom.Transform // placement in the parent's coordinates
	Line      int            // line of the use record in the parent file
}

// Cell is a mapping from layer name to an ordered rectangle sequence.
// Layers iterate in first-encounter order.
type Cell struct {
	Name string // cell name (file base name without extension)
	Path string // file the cell was loaded from
	Tech string // technology named in the header, may be empty

	order     []string
	layers    map[string][]geom.Rect
	instances []Instance
}

// New creates an empty cell.
func New(name string) *Cell {
	return &Cell{
		Name:   name,
		layers: make(map[string][]geom.Rect),
	}
}

// EnsureLayer creates an empty entry for layer if none exists.
func (c *Cell) EnsureLayer(layer string) {
	if _, ok := c.layers[layer]; ok {
		return
	}
	c.layers[layer] = nil
	c.order = append(c.order, layer)
}

// AddRect appends r to layer, creating the layer on first use.
func (c *Cell) AddRect(layer string, r geom.Rect) {
	c.EnsureLayer(layer)
	c.layers[layer] = append(c.layers[layer], r)
}

// AddInstance records a sub-cell placement.
func (c *Cell) AddInstance(inst Instance) {
	c.instances = append(c.instances, inst)
}

// Merge copies every rectangle of every layer of sub, mapped through t, into
// the same-named layers of c. Layers are visited in sub's order and
// rectangles are appended in sub's order; nothing is deduplicated.
//
// When normalize is false the transformed corners are kept positionally, so
// rotations and mirrors can produce rectangles with XMin > XMax. When true
// each transformed rectangle is re-sorted with [geom.Rect.Normalized].
func (c *Cell) Merge(sub *Cell, t geom.Transform, normalize bool) {
	for _, layer := range sub.order {
		src := sub.layers[layer]
		c.EnsureLayer(layer)
		dst := slices.Grow(c.layers[layer], len(src))
		for _, r := range src {
			mapped := t.ApplyRect(r)
			if normalize {
				mapped = mapped.Normalized()
			}
			dst = append(dst, mapped)
		}
		c.layers[layer] = dst
	}
}

// Layers returns the layer names in first-encounter order.
func (c *Cell) Layers() []string {
	return slices.Clone(c.order)
}

// HasLayer reports whether layer has an entry (possibly empty).
func (c *Cell) HasLayer(layer string) bool {
	_, ok := c.layers[layer]
	return ok
}

// Rects returns a copy of the rectangles on layer in encounter order, or nil
// if the layer does not exist.
func (c *Cell) Rects(layer string) []geom.Rect {
	return slices.Clone(c.layers[layer])
}

// LayerRects returns the rectangles on layer, failing with
// LAYER_NOT_FOUND when the layer has no entry.
func (c *Cell) LayerRects(layer string) ([]geom.Rect, error) {
	rects, ok := c.layers[layer]
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "cell %q has no layer %q", c.Name, layer)
	}
	return slices.Clone(rects), nil
}

// RectCount returns the number of rectangles on layer.
func (c *Cell) RectCount(layer string) int {
	return len(c.layers[layer])
}

// TotalRects returns the number of rectangles across all layers.
func (c *Cell) TotalRects() int {
	n := 0
	for _, rects := range c.layers {
		n += len(rects)
	}
	return n
}

// Instances returns the direct sub-cell placements in file order.
func (c *Cell) Instances() []Instance {
	return slices.Clone(c.instances)
}

// Bounds returns the bounding box over all four coordinate fields of every
// rectangle on every layer. It fails with EMPTY_BOUNDS when the cell holds
// no rectangles.
func (c *Cell) Bounds() (geom.Bounds, error) {
	var bb geom.BoundsBuilder
	for _, layer := range c.order {
		for _, r := range c.layers[layer] {
			bb.Add(r)
		}
	}
	b, ok := bb.Bounds()
	if !ok {
		return geom.Bounds{}, c.emptyBounds("cell %q contains no rectangles", c.Name)
	}
	return b, nil
}

// LayerBounds returns the bounding box of a single layer.
func (c *Cell) LayerBounds(layer string) (geom.Bounds, error) {
	rects, err := c.LayerRects(layer)
	if err != nil {
		return geom.Bounds{}, err
	}
	b, ok := geom.Of(rects)
	if !ok {
		return geom.Bounds{}, c.emptyBounds("layer %q of cell %q contains no rectangles", layer, c.Name)
	}
	return b, nil
}

func (c *Cell) emptyBounds(format string, args ...any) error {
	err := errors.New(errors.ErrCodeEmptyBounds, format, args...)
	err.Path = c.Path
	return err
}

// Clone returns a deep copy of c.
func (c *Cell) Clone() *Cell {
	out := &Cell{
		Name:      c.Name,
		Path:      c.Path,
		Tech:      c.Tech,
		order:     slices.Clone(c.order),
		layers:    make(map[string][]geom.Rect, len(c.layers)),
		instances: slices.Clone(c.instances),
	}
	for k, v := range c.layers {
		out.layers[k] = slices.Clone(v)
	}
	return out
}
