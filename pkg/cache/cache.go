// Package cache provides pluggable storage for flattened cells and rendered
// artifacts.
//
// # Backends
//
//   - [FileCache] stores entries as JSON envelopes under a directory,
//     sharded by key hash. Used by the CLI.
//   - [RedisCache] stores entries in Redis with native expiry. Used when
//     several processes (or the HTTP service) share one cache.
//   - [NullCache] never stores anything.
//
// # Keys
//
// A [Keyer] derives keys from the inputs that determine a result. Flatten
// keys hash the absolute top-cell path together with the loader options;
// artifact keys hash the flattened cell's content hash with the render
// options. [ScopedKeyer] prefixes every key, which keeps several projects
// apart in one Redis database.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default expiries.
const (
	// TTLCell bounds how long a flattened cell is trusted. Entries are also
	// invalidated whenever a source file changes, so this is only a ceiling.
	TTLCell = 24 * time.Hour

	// TTLArtifact is the lifetime of rendered SVG, PNG and PDF output.
	TTLArtifact = 7 * 24 * time.Hour
)

// CellKeyOpts holds the loader options that change a flattened cell.
type CellKeyOpts struct {
	Normalize bool `json:"normalize"`
	MaxDepth  int  `json:"max_depth"`
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Layer   string   `json:"layer"`
	Overlay []string `json:"overlay,omitempty"`
	Format  string   `json:"format"`
	Fill    string   `json:"fill,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// CellKey returns the key of the flattened cell loaded from path.
	CellKey(path string, opts CellKeyOpts) string

	// ArtifactKey returns the key of an artifact rendered from a cell
	// whose content hashes to cellHash.
	ArtifactKey(cellHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unprefixed keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CellKey implements Keyer.
func (DefaultKeyer) CellKey(path string, opts CellKeyOpts) string {
	return hashKey("cell", path, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(cellHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", cellHash, opts)
}
