package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/magflat/pkg/layout"
)

type cellJSON struct {
	Cell      string         `json:"cell"`
	Tech      string         `json:"tech,omitempty"`
	Layers    []layerJSON    `json:"layers"`
	Instances []instanceJSON `json:"instances,omitempty"`
}

type layerJSON struct {
	Name  string    `json:"name"`
	Rects [][]int64 `json:"rects"`
}

type instanceJSON struct {
	Cell      string  `json:"cell"`
	Name      string  `json:"name"`
	Transform []int64 `json:"transform"`
	Line      int     `json:"line,omitempty"`
}

func toJSON(c *layout.Cell) cellJSON {
	out := cellJSON{Cell: c.Name, Tech: c.Tech, Layers: []layerJSON{}}
	for _, name := range c.Layers() {
		rects := c.Rects(name)
		l := layerJSON{Name: name, Rects: make([][]int64, len(rects))}
		for i, r := range rects {
			l.Rects[i] = []int64{r.XMin, r.YMin, r.XMax, r.YMax}
		}
		out.Layers = append(out.Layers, l)
	}
	for _, inst := range c.Instances() {
		p := inst.Transform.Params()
		out.Instances = append(out.Instances, instanceJSON{
			Cell:      inst.Cell,
			Name:      inst.Name,
			Transform: p[:],
			Line:      inst.Line,
		})
	}
	return out
}

// WriteJSON encodes a cell as indented JSON and writes it to w.
func WriteJSON(c *layout.Cell, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSON(c)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a cell to a JSON file at path.
func ExportJSON(c *layout.Cell, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(c, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MarshalCell returns the compact JSON encoding of c. Equal cells produce
// identical bytes.
func MarshalCell(c *layout.Cell) ([]byte, error) {
	return json.Marshal(toJSON(c))
}
