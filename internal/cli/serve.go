package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr, root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layer and bounds queries over HTTP",
		Long: `Serve answers queries for the cells under a root directory:

  GET /cells/{cell}/layers            layers with rectangle counts
  GET /cells/{cell}/layers/{layer}    rectangles of one layer
  GET /cells/{cell}/bounds            bounding box
  GET /cells/{cell}/render.svg?layer= one layer as SVG
  GET /stats                          load and cache counters
  GET /healthz                        liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			if root == "" {
				root = c.Config.Serve.Root
			}

			runner, err := c.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer runner.Close()

			srv, err := server.New(server.Config{
				Root:      root,
				Normalize: c.Config.Normalize,
				MaxDepth:  c.Config.MaxDepth,
				Runner:    runner,
				Logger:    c.Logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&root, "root", "", "directory holding .mag files (default from config, .)")

	return cmd
}
