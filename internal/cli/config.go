package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/magflat/pkg/cache"
	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/magic"
	"github.com/matzehuels/magflat/pkg/pipeline"
	"github.com/matzehuels/magflat/pkg/render"
)

// configFile is looked up in the working directory when --config is not set.
const configFile = "magflat.toml"

// Cache backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config is the project configuration read from magflat.toml. Command-line
// flags override it.
type Config struct {
	Normalize bool   `toml:"normalize"`
	MaxDepth  int    `toml:"max_depth"`
	Materials string `toml:"materials"`

	Cache  CacheConfig  `toml:"cache"`
	Render RenderConfig `toml:"render"`
	Serve  ServeConfig  `toml:"serve"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	URL       string   `toml:"url"`
	Namespace string   `toml:"namespace"`
	TTL       duration `toml:"ttl"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Scale float64 `toml:"scale"`
	Fill  string  `toml:"fill"`
}

// ServeConfig holds defaults of the serve command.
type ServeConfig struct {
	Addr string `toml:"addr"`
	Root string `toml:"root"`
}

// duration decodes TOML strings such as "24h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the configuration used without magflat.toml.
func DefaultConfig() Config {
	return Config{
		MaxDepth: magic.DefaultMaxDepth,
		Cache: CacheConfig{
			Backend: backendFile,
			TTL:     duration{cache.TTLCell},
		},
		Render: RenderConfig{
			Scale: pipeline.DefaultScale,
			Fill:  render.DefaultFill,
		},
		Serve: ServeConfig{
			Addr: ":8080",
			Root: ".",
		},
	}
}

// loadConfig reads the configuration at path on top of DefaultConfig. An
// empty path looks for magflat.toml in the working directory and falls back
// to the defaults when it does not exist. Relative paths inside the file are
// resolved against the file's directory.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = configFile
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	dir := filepath.Dir(path)
	if cfg.Materials != "" && !filepath.IsAbs(cfg.Materials) {
		cfg.Materials = filepath.Join(dir, cfg.Materials)
	}
	if !filepath.IsAbs(cfg.Serve.Root) {
		cfg.Serve.Root = filepath.Join(dir, cfg.Serve.Root)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend settings.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_depth must not be negative, got %d", c.MaxDepth)
	}
	switch c.Cache.Backend {
	case backendFile, backendNone:
	case backendRedis:
		if c.Cache.URL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Render.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.scale must be positive, got %g", c.Render.Scale)
	}
	if c.Serve.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.addr must not be empty")
	}
	return nil
}
