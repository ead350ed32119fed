package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/errors"
	mio "github.com/matzehuels/magflat/pkg/io"
	"github.com/matzehuels/magflat/pkg/layout"
	"github.com/matzehuels/magflat/pkg/scene"
)

// Export formats.
const (
	exportJSON  = "json"
	exportScene = "scene"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output    string
	format    string
	materials string
	zmin      float64
	zmax      float64
	unit      float64
}

func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{format: exportJSON, zmin: scene.DefaultZMin, zmax: scene.DefaultZMax, unit: 1}

	cmd := &cobra.Command{
		Use:   "export <file.mag>",
		Short: "Write the flattened cell as JSON or as a solid scene",
		Long: `Export writes the flattened cell in one of two forms:

  json   layers and rectangles in first-seen order
  scene  one solid box per rectangle and one slab per dielectric, using a
         material table (built-in SKY130 unless --materials or the config
         names a TOML file)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != exportJSON && opts.format != exportScene {
				return errors.New(errors.ErrCodeInvalidFormat, "invalid export format: %s (must be 'json' or 'scene')", opts.format)
			}
			if opts.materials == "" {
				opts.materials = c.Config.Materials
			}
			f, _, err := c.flatten(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := io.Writer(os.Stdout)
			if opts.output != "" {
				file, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("create %s: %w", opts.output, err)
				}
				defer file.Close()
				w = file
			}

			if err := writeExport(w, f.Cell, opts, loggerFromContext(cmd.Context())); err != nil {
				return err
			}
			if opts.output != "" {
				printSuccess("Exported %s as %s", f.Cell.Name, opts.format)
				printFile(opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "export format: json, scene")
	cmd.Flags().StringVar(&opts.materials, "materials", "", "material table TOML for scene export")
	cmd.Flags().Float64Var(&opts.zmin, "z-min", opts.zmin, "bottom of conductors without a material z range")
	cmd.Flags().Float64Var(&opts.zmax, "z-max", opts.zmax, "top of conductors without a material z range")
	cmd.Flags().Float64Var(&opts.unit, "unit", opts.unit, "scene units per layout unit")

	return cmd
}

func writeExport(w io.Writer, cell *layout.Cell, opts exportOpts, logger *log.Logger) error {
	switch opts.format {
	case exportJSON:
		return mio.WriteJSON(cell, w)
	case exportScene:
		table := scene.DefaultMaterials()
		if opts.materials != "" {
			var err error
			if table, err = scene.LoadMaterials(opts.materials); err != nil {
				return err
			}
		}
		s, err := scene.Build(cell, table, scene.Options{ZMin: opts.zmin, ZMax: opts.zmax, Unit: opts.unit})
		if err != nil {
			return err
		}
		for _, layer := range s.Skipped {
			logger.Warn("no material for layer, skipped", "layer", layer)
		}
		logger.Debug("scene built", "boxes", len(s.Boxes), "slabs", len(s.Slabs), "volume", s.Volume())
		return scene.WriteJSON(s, w)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid export format: %s (must be 'json' or 'scene')", opts.format)
	}
}
