package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share one
// backend without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "magflat:inverter:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
// A nil inner keyer means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CellKey implements Keyer.
func (k *ScopedKeyer) CellKey(path string, opts CellKeyOpts) string {
	return k.prefix + k.inner.CellKey(path, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(cellHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(cellHash, opts)
}
