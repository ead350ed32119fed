package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
	"github.com/matzehuels/magflat/pkg/layout"
)

// ReadJSON decodes a cell from r.
//
// It fails with INVALID_FORMAT when the JSON is malformed, the cell name is
// missing, a layer name repeats or is invalid, a rectangle does not have
// exactly four coordinates or a transform does not have exactly six.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*layout.Cell, error) {
	var data cellJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode cell")
	}
	return fromJSON(data)
}

// UnmarshalCell decodes the output of [MarshalCell].
func UnmarshalCell(b []byte) (*layout.Cell, error) {
	var data cellJSON
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode cell")
	}
	return fromJSON(data)
}

func fromJSON(data cellJSON) (*layout.Cell, error) {
	if data.Cell == "" {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "missing cell name")
	}
	c := layout.New(data.Cell)
	c.Tech = data.Tech

	for _, l := range data.Layers {
		if err := errors.ValidateLayerName(l.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "layer %q", l.Name)
		}
		if c.HasLayer(l.Name) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate layer %q", l.Name)
		}
		c.EnsureLayer(l.Name)
		for i, v := range l.Rects {
			if len(v) != 4 {
				return nil, errors.New(errors.ErrCodeInvalidFormat,
					"layer %q rect %d: want 4 coordinates, got %d", l.Name, i, len(v))
			}
			c.AddRect(l.Name, geom.R(v[0], v[1], v[2], v[3]))
		}
	}

	for i, inst := range data.Instances {
		if len(inst.Transform) != 6 {
			return nil, errors.New(errors.ErrCodeInvalidFormat,
				"instance %d (%s): want 6 transform parameters, got %d", i, inst.Name, len(inst.Transform))
		}
		p := inst.Transform
		c.AddInstance(layout.Instance{
			Cell:      inst.Cell,
			Name:      inst.Name,
			Transform: geom.Transform{A: p[0], B: p[1], C: p[2], D: p[3], E: p[4], F: p[5]},
			Line:      inst.Line,
		})
	}
	return c, nil
}

// ImportJSON reads a JSON file at path and returns the decoded cell.
func ImportJSON(path string) (*layout.Cell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := ReadJSON(f)
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}
