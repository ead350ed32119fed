package pipeline

import (
	"fmt"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/layout"
	"github.com/matzehuels/magflat/pkg/render"
)

// Render draws opts.Layer of cell once as SVG and converts it to every
// requested format.
func Render(cell *layout.Cell, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	svg, err := render.RenderSVG(cell, opts.Layer, opts.SVGOptions()...)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		switch format {
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = render.ToPNG(svg, opts.Scale)
		case FormatPDF:
			data, err = render.ToPDF(svg)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
		}
		if err != nil {
			if errors.GetCode(err) != "" {
				return nil, err
			}
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
