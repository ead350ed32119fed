// Package cli implements the magflat command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/buildinfo"
	"github.com/matzehuels/magflat/pkg/cache"
	"github.com/matzehuels/magflat/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "magflat"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configPath string
	noCache    bool
	refresh    bool
	normalize  bool
	maxDepth   int
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "magflat flattens hierarchical Magic layouts",
		Long: `magflat reads Magic .mag layout files, resolves every cell instance
recursively and answers layer and bounding-box queries on the flattened cell.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "project config file (default ./"+configFile+" when present)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the flatten and render cache")
	flags.BoolVar(&c.refresh, "refresh", false, "ignore cached results and store fresh ones")
	flags.BoolVar(&c.normalize, "normalize", false, "re-sort transformed rectangles into min/max order")
	flags.IntVar(&c.maxDepth, "max-depth", 0, "deepest allowed instance nesting")

	root.AddCommand(c.flattenCommand())
	root.AddCommand(c.boundsCommand())
	root.AddCommand(c.layersCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.hierarchyCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file, applies flag overrides and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("normalize") {
		cfg.Normalize = c.normalize
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = c.maxDepth
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// options returns pipeline options for path from the config and flags.
func (c *CLI) options(path string) pipeline.Options {
	return pipeline.Options{
		Path:      path,
		Normalize: c.Config.Normalize,
		MaxDepth:  c.Config.MaxDepth,
		Refresh:   c.refresh,
		Scale:     c.Config.Render.Scale,
		Fill:      c.Config.Render.Fill,
		Logger:    c.Logger,
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if ns := c.Config.Cache.Namespace; ns != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), ns)
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	if ttl := c.Config.Cache.TTL.Duration; ttl > 0 {
		r.CellTTL = ttl
	}
	return r, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.URL, appName+":")
	default:
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Debug("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/magflat/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseList splits a comma-separated flag value, dropping empty items.
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseFormats parses the --format flag. Empty means svg.
func parseFormats(s string) []string {
	if formats := parseList(s); len(formats) > 0 {
		return formats
	}
	return []string{pipeline.FormatSVG}
}
