package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/layout"
	"github.com/matzehuels/magflat/pkg/pipeline"
	"github.com/matzehuels/magflat/pkg/render/hierarchy"
)

const formatDOT = "dot"

func (c *CLI) hierarchyCommand() *cobra.Command {
	var (
		output     string
		format     string
		scale      float64
		placements bool
	)

	cmd := &cobra.Command{
		Use:   "hierarchy <file.mag>",
		Short: "Draw the instance hierarchy of a cell",
		Long: `Hierarchy loads a cell and draws which cells instantiate which, with
Graphviz. Without --output the DOT source is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The loader's per-cell results are needed, so this bypasses the cache.
			opts := c.options(args[0])
			f, err := pipeline.Flatten(opts)
			if err != nil {
				return err
			}
			if placements {
				writeTable(os.Stdout, []string{"Instance", "Cell", "Transform"}, placementRows(f.Cells, f.Cell.Name))
				return nil
			}
			g := hierarchy.Build(f.Cells, f.Cell.Name)
			dot := hierarchy.ToDOT(g)

			var data []byte
			switch format {
			case formatDOT:
				data = []byte(dot)
			case pipeline.FormatSVG:
				data, err = hierarchy.RenderSVG(dot)
			case pipeline.FormatPNG:
				data, err = hierarchy.RenderPNG(dot, scale)
			case pipeline.FormatPDF:
				data, err = hierarchy.RenderPDF(dot)
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'dot', 'svg', 'png' or 'pdf')", format)
			}
			if err != nil {
				return err
			}

			if output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("%d cells, depth %d", len(g.Nodes), g.Depth(f.Cell.Name))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg, png, pdf")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&placements, "placements", false, "list every instance with its transform into the top cell")

	return cmd
}

// placementRows lists every instance below top with its accumulated transform.
func placementRows(cells []*layout.Cell, top string) [][]string {
	ps := hierarchy.Placements(cells, top)
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		t := "identity"
		if !p.Transform.IsIdentity() {
			v := p.Transform.Params()
			t = fmt.Sprintf("%d %d %d %d %d %d", v[0], v[1], v[2], v[3], v[4], v[5])
		}
		rows = append(rows, []string{strings.Join(p.Path, "/"), p.Cell, t})
	}
	return rows
}
