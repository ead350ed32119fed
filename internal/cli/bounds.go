package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/geom"
	"github.com/matzehuels/magflat/pkg/layout"
)

func (c *CLI) boundsCommand() *cobra.Command {
	var (
		layer  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "bounds <file.mag>",
		Short: "Print the bounding box of a flattened cell",
		Long: `Bounds prints the x and y extent of every rectangle in the flattened
cell, or of one layer with --layer. Rectangles with reversed corners count
by their corner values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := c.flatten(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := cellBounds(f.Cell, layer)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			x0, x1 := b.X()
			y0, y1 := b.Y()
			fmt.Printf("%d %d\n%d %d\n", x0, x1, y0, y1)
			return nil
		},
	}

	cmd.Flags().StringVarP(&layer, "layer", "l", "", "bounds of one layer only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print bounds as JSON")

	return cmd
}

func cellBounds(cell *layout.Cell, layer string) (geom.Bounds, error) {
	if layer != "" {
		return cell.LayerBounds(layer)
	}
	return cell.Bounds()
}
