package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file (one format) or base path
	layer   string   // primary layer
	overlay []string // layers drawn on top
	formats []string // svg, png, pdf
	scale   float64  // PNG scale factor, 0 means config
	fill    string   // primary layer color, empty means config
}

func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr, overlayStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <file.mag>",
		Short: "Render one layer of a flattened cell",
		Long: `Render draws the rectangles of one layer as SVG with the view fitted to
that layer's bounds, and converts it to PNG or PDF with rsvg-convert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			opts.overlay = parseList(overlayStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&opts.layer, "layer", "l", "", "layer to render (required)")
	cmd.Flags().StringVar(&overlayStr, "overlay", "", "extra layers drawn on top (comma-separated)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor (default from config)")
	cmd.Flags().StringVar(&opts.fill, "fill", "", "fill color of the primary layer")
	_ = cmd.MarkFlagRequired("layer")

	return cmd
}

// validateFormats checks every requested format against pipeline.ValidFormats.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(pipeline.ValidFormats, f) {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'svg', 'png' or 'pdf')", f)
		}
	}
	return nil
}

// basePath derives the output path without extension. An empty output
// uses the input path with its extension stripped; a known format
// extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.ValidFormats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns where format is written.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + "." + format
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.options(input)
	popts.Layer = opts.layer
	popts.Overlay = opts.overlay
	popts.Formats = opts.formats
	if opts.scale != 0 {
		popts.Scale = opts.scale
	}
	if opts.fill != "" {
		popts.Fill = opts.fill
	}

	spin := newSpinner(ctx, "Rendering "+filepath.Base(input))
	spin.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spin.StopWithError("Render failed")
		return err
	}
	spin.StopWithSuccess("Rendered %s", StyleNumber.Render(opts.layer))

	for _, format := range opts.formats {
		path := outputPath(opts.output, input, format, len(opts.formats) == 1)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.Files, result.Stats.Layers, result.Stats.Rects,
		result.CacheInfo.FlattenHit && result.CacheInfo.RenderHit)
	printNotices(result.Notices, false)
	return nil
}
