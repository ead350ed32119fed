package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/magflat/pkg/geom"
	"github.com/matzehuels/magflat/pkg/layout"
)

// Defaults for RenderSVG.
const (
	DefaultFill   = "#4a90d9"
	DefaultStroke = "#1f2d3d"
	DefaultSize   = 800.0
)

// overlayPalette colors extra layers in the order they are requested.
var overlayPalette = []string{"#e4572e", "#29335c", "#f3a712", "#669bbc", "#a8c686", "#8e6c8a"}

// Option configures RenderSVG.
type Option func(*svgRenderer)

type svgRenderer struct {
	fill    string
	stroke  string
	padding int64
	size    float64
	overlay []string
}

// WithFill sets the fill color of the primary layer.
func WithFill(color string) Option { return func(r *svgRenderer) { r.fill = color } }

// WithStroke sets the outline color of every rectangle. An empty color
// disables outlines.
func WithStroke(color string) Option { return func(r *svgRenderer) { r.stroke = color } }

// WithPadding sets the margin around the layer bounds in layout units.
// Without it the margin is 5% of the larger bounds dimension.
func WithPadding(units int64) Option { return func(r *svgRenderer) { r.padding = units } }

// WithSize sets the pixel size of the larger image dimension.
func WithSize(px float64) Option { return func(r *svgRenderer) { r.size = px } }

// WithLayers draws additional layers on top of the primary one. The viewBox
// still fits the primary layer.
func WithLayers(layers ...string) Option {
	return func(r *svgRenderer) { r.overlay = append(r.overlay, layers...) }
}

// RenderSVG draws the rectangles of layer with the viewBox fitted to the
// layer's bounds. It fails with LAYER_NOT_FOUND when the cell has no such
// layer (or an overlay layer is missing) and EMPTY_BOUNDS when the layer
// holds no rectangles.
func RenderSVG(cell *layout.Cell, layer string, opts ...Option) ([]byte, error) {
	r := svgRenderer{fill: DefaultFill, stroke: DefaultStroke, padding: -1, size: DefaultSize}
	for _, opt := range opts {
		opt(&r)
	}

	rects, err := cell.LayerRects(layer)
	if err != nil {
		return nil, err
	}
	b, err := cell.LayerBounds(layer)
	if err != nil {
		return nil, err
	}
	overlays := make([][]geom.Rect, len(r.overlay))
	for i, name := range r.overlay {
		if overlays[i], err = cell.LayerRects(name); err != nil {
			return nil, err
		}
	}

	pad := r.padding
	if pad < 0 {
		pad = max(max(b.Width(), b.Height())/20, 1)
	}
	vx, vy := b.XMin-pad, -(b.YMax + pad)
	vw, vh := b.Width()+2*pad, b.Height()+2*pad
	scale := r.size / float64(max(vw, vh))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%d %d %d %d" width="%.0f" height="%.0f">`+"\n",
		vx, vy, vw, vh, float64(vw)*scale, float64(vh)*scale)
	fmt.Fprintf(&buf, "  <title>%s: %s</title>\n", html.EscapeString(cell.Name), html.EscapeString(layer))

	// A stroke of one pixel regardless of the layout scale.
	strokeWidth := 1 / scale
	writeLayer(&buf, layer, rects, r.fill, r.stroke, strokeWidth)
	for i, name := range r.overlay {
		color := overlayPalette[i%len(overlayPalette)]
		writeLayer(&buf, name, overlays[i], color, r.stroke, strokeWidth)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func writeLayer(buf *bytes.Buffer, name string, rects []geom.Rect, fill, stroke string, strokeWidth float64) {
	id := html.EscapeString(name)
	fill, stroke = html.EscapeString(fill), html.EscapeString(stroke)
	if stroke == "" {
		fmt.Fprintf(buf, `  <g id="layer-%s" fill="%s" fill-opacity="0.6" stroke="none">`+"\n", id, fill)
	} else {
		fmt.Fprintf(buf, `  <g id="layer-%s" fill="%s" fill-opacity="0.6" stroke="%s" stroke-width="%.4g">`+"\n",
			id, fill, stroke, strokeWidth)
	}
	for _, rect := range rects {
		n := rect.Normalized()
		// y is negated so the drawing is y-up.
		fmt.Fprintf(buf, `    <rect x="%d" y="%d" width="%d" height="%d"/>`+"\n",
			n.XMin, -n.YMax, n.Width(), n.Height())
	}
	buf.WriteString("  </g>\n")
}
