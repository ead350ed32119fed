package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/layout"
	"github.com/matzehuels/magflat/pkg/magic"
	"github.com/matzehuels/magflat/pkg/pipeline"
)

// flatten loads path through a cached runner.
func (c *CLI) flatten(ctx context.Context, path string) (*pipeline.Flattened, bool, error) {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return nil, false, err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	f, hit, err := runner.FlattenWithCacheInfo(ctx, c.options(path))
	if err != nil {
		return nil, false, err
	}
	prog.done("Flattened " + f.Cell.Name)
	return f, hit, nil
}

func (c *CLI) flattenCommand() *cobra.Command {
	var showNotices bool

	cmd := &cobra.Command{
		Use:   "flatten <file.mag>",
		Short: "Flatten a cell and summarize its layers",
		Long: `Flatten resolves every instance of a cell recursively and prints the
layers of the flattened result with their rectangle counts and bounds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, hit, err := c.flatten(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCellSummary(f, hit)
			printNotices(f.Notices, showNotices)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showNotices, "notices", false, "list every skipped record")

	return cmd
}

func printCellSummary(f *pipeline.Flattened, cached bool) {
	cell := f.Cell
	fmt.Println(StyleTitle.Render(cell.Name))
	if cell.Tech != "" {
		printKeyValue("tech", cell.Tech)
	}
	if b, err := cell.Bounds(); err == nil {
		printKeyValue("bounds", formatBounds(b))
	} else {
		printKeyValue("bounds", StyleDim.Render("empty"))
	}
	printKeyValue("instances", strconv.Itoa(len(cell.Instances())))

	if len(cell.Layers()) > 0 {
		writeTable(os.Stdout, []string{"Layer", "Rects", "Bounds"}, layerRows(cell))
	}
	printStats(len(f.Sources), len(cell.Layers()), cell.TotalRects(), cached)
}

// layerRows lists every layer with its rectangle count and bounds.
func layerRows(cell *layout.Cell) [][]string {
	rows := make([][]string, 0, len(cell.Layers()))
	for _, name := range cell.Layers() {
		bounds := "-"
		if b, err := cell.LayerBounds(name); err == nil {
			bounds = formatBounds(b)
		}
		rows = append(rows, []string{name, strconv.Itoa(cell.RectCount(name)), bounds})
	}
	return rows
}

func printNotices(notices []magic.Notice, all bool) {
	if len(notices) == 0 {
		return
	}
	printWarning("%d unrecognized records skipped", len(notices))
	if !all {
		printDetail("use --notices to list them")
		return
	}
	for _, n := range notices {
		printDetail("%s", n)
	}
}
