package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the flatten and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached cell and artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := c.newCache(cmd.Context())
			if err != nil {
				return err
			}
			defer ch.Close()

			var count int
			switch ch := ch.(type) {
			case *cache.FileCache:
				if count, err = ch.Clear(); err != nil {
					return fmt.Errorf("clear %s: %w", ch.Dir(), err)
				}
				printSuccess("Cleared %d cached entries", count)
				printDetail("Directory: %s", ch.Dir())
			case *cache.RedisCache:
				if count, err = ch.Clear(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Cleared %d cached entries", count)
				printDetail("Redis: %s", c.Config.Cache.URL)
			default:
				printInfo("Caching is disabled")
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
