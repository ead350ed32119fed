package hierarchy

import (
	"slices"

	"github.com/matzehuels/magflat/pkg/geom"
	"github.com/matzehuels/magflat/pkg/layout"
)

// Node is one distinct cell.
type Node struct {
	Name   string
	Tech   string
	Layers int
	Rects  int  // flattened rectangle count, sub-cells included
	Top    bool // the cell that was loaded
}

// Edge is a parent/child instance relation.
type Edge struct {
	From  string
	To    string
	Count int // number of use records from From to To
}

// Graph is the instance graph of a layout.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Build derives the instance graph from loaded cells. Nodes keep the order
// of cells; edges keep first-use order within each parent.
func Build(cells []*layout.Cell, top string) Graph {
	var g Graph
	for _, c := range cells {
		g.Nodes = append(g.Nodes, Node{
			Name:   c.Name,
			Tech:   c.Tech,
			Layers: len(c.Layers()),
			Rects:  c.TotalRects(),
			Top:    c.Name == top,
		})

		index := make(map[string]int)
		for _, inst := range c.Instances() {
			if i, ok := index[inst.Cell]; ok {
				g.Edges[i].Count++
				continue
			}
			index[inst.Cell] = len(g.Edges)
			g.Edges = append(g.Edges, Edge{From: c.Name, To: inst.Cell, Count: 1})
		}
	}
	return g
}

// Depth returns the longest instance chain below top, 0 for a leaf.
func (g Graph) Depth(top string) int {
	children := make(map[string][]string)
	for _, e := range g.Edges {
		children[e.From] = append(children[e.From], e.To)
	}
	memo := make(map[string]int)
	var walk func(string) int
	walk = func(name string) int {
		if d, ok := memo[name]; ok {
			return d
		}
		d := 0
		for _, c := range children[name] {
			d = max(d, walk(c)+1)
		}
		memo[name] = d
		return d
	}
	return walk(top)
}

// Placement is one occurrence of a cell inside the top cell.
type Placement struct {
	Path      []string       // instance names from the top cell down
	Cell      string         // placed cell
	Transform geom.Transform // cell coordinates to top coordinates
}

// Placements lists every instance reachable from top, depth first in use
// order, with its transform accumulated into top coordinates. Cells missing
// from cells contribute no placements below them.
func Placements(cells []*layout.Cell, top string) []Placement {
	byName := make(map[string]*layout.Cell, len(cells))
	for _, c := range cells {
		byName[c.Name] = c
	}

	var out []Placement
	var walk func(name string, path []string, t geom.Transform)
	walk = func(name string, path []string, t geom.Transform) {
		c, ok := byName[name]
		if !ok {
			return
		}
		for _, inst := range c.Instances() {
			p := append(slices.Clip(path), inst.Name)
			placed := t.Compose(inst.Transform)
			out = append(out, Placement{Path: p, Cell: inst.Cell, Transform: placed})
			walk(inst.Cell, p, placed)
		}
	}
	walk(top, nil, geom.Identity)
	return out
}
