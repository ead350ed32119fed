package scene

import (
	_ "embed"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/magflat/pkg/errors"
)

//go:embed sky130.toml
var sky130TOML string

// Conductor is the material of a drawn layer.
type Conductor struct {
	Kappa float64  `toml:"kappa" json:"kappa"`
	ZMin  *float64 `toml:"z_min" json:"z_min,omitempty"`
	ZMax  *float64 `toml:"z_max" json:"z_max,omitempty"`
}

// Dielectric is a horizontal slab of the process stack.
type Dielectric struct {
	Epsilon float64 `toml:"epsilon" json:"epsilon,omitempty"`
	Kappa   float64 `toml:"kappa" json:"kappa,omitempty"`
	ZMin    float64 `toml:"z_min" json:"z_min"`
	ZMax    float64 `toml:"z_max" json:"z_max"`
}

// MaterialTable maps layer names to conductors and names the dielectric
// slabs of a process. It is passed explicitly to Build; there is no global
// table.
type MaterialTable struct {
	Layers      map[string]Conductor  `toml:"layers"`
	Dielectrics map[string]Dielectric `toml:"dielectrics"`
}

var (
	defaultOnce  sync.Once
	defaultTable MaterialTable
	defaultErr   error
)

// DefaultMaterials returns the built-in SKY130 table. Each call returns an
// independent copy.
func DefaultMaterials() MaterialTable {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = ParseMaterials(sky130TOML)
	})
	if defaultErr != nil {
		panic("scene: embedded sky130 table: " + defaultErr.Error())
	}
	return defaultTable.Clone()
}

// ParseMaterials decodes and validates a TOML material table.
func ParseMaterials(data string) (MaterialTable, error) {
	var t MaterialTable
	md, err := toml.Decode(data, &t)
	if err != nil {
		return MaterialTable{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode material table")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return MaterialTable{}, errors.New(errors.ErrCodeInvalidConfig, "unknown material keys: %s", strings.Join(keys, ", "))
	}
	if err := t.Validate(); err != nil {
		return MaterialTable{}, err
	}
	return t, nil
}

// LoadMaterials reads a TOML material table from path.
func LoadMaterials(path string) (MaterialTable, error) {
	var t MaterialTable
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return MaterialTable{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load materials %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return MaterialTable{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown material key %s", path, undecoded[0])
	}
	if err := t.Validate(); err != nil {
		return MaterialTable{}, err
	}
	return t, nil
}

// Validate checks that values are finite and non-negative and that every
// z range is well formed.
func (t MaterialTable) Validate() error {
	for _, name := range slices.Sorted(maps.Keys(t.Layers)) {
		c := t.Layers[name]
		if !nonNegative(c.Kappa) {
			return errors.New(errors.ErrCodeInvalidConfig, "layer %s: kappa must be a non-negative number", name)
		}
		if (c.ZMin == nil) != (c.ZMax == nil) {
			return errors.New(errors.ErrCodeInvalidConfig, "layer %s: z_min and z_max must be set together", name)
		}
		if c.ZMin != nil && !(*c.ZMin < *c.ZMax) {
			return errors.New(errors.ErrCodeInvalidConfig, "layer %s: z_min %g must be below z_max %g", name, *c.ZMin, *c.ZMax)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(t.Dielectrics)) {
		d := t.Dielectrics[name]
		if !nonNegative(d.Epsilon) || !nonNegative(d.Kappa) {
			return errors.New(errors.ErrCodeInvalidConfig, "dielectric %s: epsilon and kappa must be non-negative numbers", name)
		}
		if !(d.ZMin < d.ZMax) {
			return errors.New(errors.ErrCodeInvalidConfig, "dielectric %s: z_min %g must be below z_max %g", name, d.ZMin, d.ZMax)
		}
	}
	return nil
}

// Conductor returns the material of layer.
func (t MaterialTable) Conductor(layer string) (Conductor, bool) {
	c, ok := t.Layers[layer]
	return c, ok
}

// Clone returns a deep copy of t.
func (t MaterialTable) Clone() MaterialTable {
	out := MaterialTable{
		Layers:      make(map[string]Conductor, len(t.Layers)),
		Dielectrics: make(map[string]Dielectric, len(t.Dielectrics)),
	}
	for k, c := range t.Layers {
		if c.ZMin != nil {
			zmin, zmax := *c.ZMin, *c.ZMax
			c.ZMin, c.ZMax = &zmin, &zmax
		}
		out.Layers[k] = c
	}
	for k, d := range t.Dielectrics {
		out.Dielectrics[k] = d
	}
	return out
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
