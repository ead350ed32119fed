// Package scene turns a flattened cell into solid boxes for a field solver.
//
// [Build] looks up every layer of the cell in a [MaterialTable] and emits
// one box per rectangle, plus one slab per dielectric spanning the cell's
// bounding box. Layers without a material are listed in [Scene.Skipped].
// The result is plain data; writing it as JSON with [WriteJSON] is the only
// output this package produces.
package scene

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
	"github.com/matzehuels/magflat/pkg/layout"
)

// Default z extent of a conductor box without its own z range.
const (
	DefaultZMin = 0.0
	DefaultZMax = 1.0
)

// Options configures Build.
type Options struct {
	// ZMin and ZMax give the z extent of conductor boxes whose material has
	// no z range. Both zero means DefaultZMin and DefaultZMax.
	ZMin, ZMax float64

	// Unit scales layout coordinates into scene units. Zero means 1.
	Unit float64
}

// Box is one solid block of conductor.
type Box struct {
	Layer string     `json:"layer"`
	Kappa float64    `json:"kappa"`
	Min   [3]float64 `json:"min"`
	Max   [3]float64 `json:"max"`
}

// Slab is one dielectric layer spanning the cell.
type Slab struct {
	Name    string     `json:"name"`
	Epsilon float64    `json:"epsilon,omitempty"`
	Kappa   float64    `json:"kappa,omitempty"`
	Min     [3]float64 `json:"min"`
	Max     [3]float64 `json:"max"`
}

// Scene is the solid model of a cell.
type Scene struct {
	ID      uuid.UUID   `json:"id"`
	Cell    string      `json:"cell"`
	Tech    string      `json:"tech,omitempty"`
	Unit    float64     `json:"unit"`
	Bounds  geom.Bounds `json:"bounds"`
	Slabs   []Slab      `json:"slabs"`
	Boxes   []Box       `json:"boxes"`
	Skipped []string    `json:"skipped,omitempty"`
}

// Build creates the solid model of cell. It fails with EMPTY_BOUNDS when
// the cell holds no rectangles.
func Build(cell *layout.Cell, table MaterialTable, opts Options) (*Scene, error) {
	if opts.ZMin == 0 && opts.ZMax == 0 {
		opts.ZMin, opts.ZMax = DefaultZMin, DefaultZMax
	}
	if opts.ZMin >= opts.ZMax {
		return nil, errors.New(errors.ErrCodeInvalidInput, "z extent [%g, %g] is empty", opts.ZMin, opts.ZMax)
	}
	if opts.Unit == 0 {
		opts.Unit = 1
	}

	b, err := cell.Bounds()
	if err != nil {
		return nil, err
	}

	s := &Scene{
		ID:     uuid.New(),
		Cell:   cell.Name,
		Tech:   cell.Tech,
		Unit:   opts.Unit,
		Bounds: b,
		Slabs:  []Slab{},
		Boxes:  []Box{},
	}

	u := opts.Unit
	for _, name := range slices.Sorted(maps.Keys(table.Dielectrics)) {
		d := table.Dielectrics[name]
		s.Slabs = append(s.Slabs, Slab{
			Name:    name,
			Epsilon: d.Epsilon,
			Kappa:   d.Kappa,
			Min:     [3]float64{float64(b.XMin) * u, float64(b.YMin) * u, d.ZMin},
			Max:     [3]float64{float64(b.XMax) * u, float64(b.YMax) * u, d.ZMax},
		})
	}
	slices.SortStableFunc(s.Slabs, func(a, b Slab) int { return cmp.Compare(a.Min[2], b.Min[2]) })

	for _, layer := range cell.Layers() {
		c, ok := table.Conductor(layer)
		if !ok {
			s.Skipped = append(s.Skipped, layer)
			continue
		}
		zmin, zmax := opts.ZMin, opts.ZMax
		if c.ZMin != nil {
			zmin, zmax = *c.ZMin, *c.ZMax
		}
		for _, r := range cell.Rects(layer) {
			n := r.Normalized()
			s.Boxes = append(s.Boxes, Box{
				Layer: layer,
				Kappa: c.Kappa,
				Min:   [3]float64{float64(n.XMin) * u, float64(n.YMin) * u, zmin},
				Max:   [3]float64{float64(n.XMax) * u, float64(n.YMax) * u, zmax},
			})
		}
	}
	return s, nil
}

// Volume returns the total conductor volume in scene units.
func (s *Scene) Volume() float64 {
	v := 0.0
	for _, b := range s.Boxes {
		v += (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1]) * (b.Max[2] - b.Min[2])
	}
	return v
}

// WriteJSON encodes the scene as indented JSON.
func WriteJSON(s *Scene, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}
