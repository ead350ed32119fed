// Package hierarchy renders the instance graph of a loaded layout: one node
// per distinct cell and one edge per parent/child pair, labelled with the
// number of placements.
//
// # Usage
//
//	loader := magic.NewLoader(magic.Options{})
//	top, err := loader.Load("inverter.mag")
//	g := hierarchy.Build(loader.Cells(), top.Name)
//	svg, err := hierarchy.RenderSVG(hierarchy.ToDOT(g))
//
// [ToDOT] produces Graphviz DOT source. [RenderSVG] lays it out with the
// embedded Graphviz engine; [RenderPNG] and [RenderPDF] convert that SVG with
// rsvg-convert.
package hierarchy
