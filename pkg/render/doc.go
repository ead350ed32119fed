// Package render draws the rectangles of a flattened cell.
//
// # Layer Plots
//
// [RenderSVG] draws every rectangle of one layer and fits the viewBox to
// that layer's bounding box. Layout coordinates are y-up, so the image is
// flipped to match what a layout viewer shows. Rectangles that a rotation
// or mirror left with swapped corners are drawn from their normalized form;
// the cell itself is not modified.
//
//	svg, err := render.RenderSVG(cell, "metal1",
//	    render.WithFill("#4a90d9"),
//	    render.WithLayers("via1"),
//	)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Hierarchy Diagrams
//
// The [hierarchy] subpackage renders the cell instance graph with Graphviz.
//
// [hierarchy]: github.com/matzehuels/magflat/pkg/render/hierarchy
package render
