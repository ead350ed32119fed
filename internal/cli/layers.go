package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/magic"
)

func (c *CLI) layersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layers <file.mag> [layer]",
		Short: "List layers, or the rectangles of one layer",
		Long: `Without a layer argument, layers lists every layer of the flattened cell
in first-seen order. With one, it prints that layer's rectangles one per
line as "x1 y1 x2 y2".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := c.flatten(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				writeTable(os.Stdout, []string{"Layer", "Rects", "Bounds"}, layerRows(f.Cell))
				return nil
			}
			rects, err := f.Cell.LayerRects(args[1])
			if err != nil {
				return err
			}
			for _, r := range rects {
				fmt.Printf("%d %d %d %d\n", r.XMin, r.YMin, r.XMax, r.YMax)
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 1 {
				return nil, cobra.ShellCompDirectiveDefault
			}
			cell, err := magic.Load(args[0])
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return cell.Layers(), cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}
