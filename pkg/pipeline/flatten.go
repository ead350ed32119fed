package pipeline

import (
	"encoding/json"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/magflat/pkg/cache"
	"github.com/matzehuels/magflat/pkg/errors"
	mio "github.com/matzehuels/magflat/pkg/io"
	"github.com/matzehuels/magflat/pkg/magic"
)

// cellEntry is the cached form of a flattened cell.
type cellEntry struct {
	Sources []sourceHash    `json:"sources"`
	Notices []magic.Notice  `json:"notices,omitempty"`
	Cell    json.RawMessage `json:"cell"`
}

type sourceHash struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// Flatten loads opts.Path and resolves its instance hierarchy without
// touching any cache.
func Flatten(opts Options) (*Flattened, error) {
	if err := opts.ValidateForFlatten(); err != nil {
		return nil, err
	}
	loader := magic.NewLoader(magic.Options{
		Normalize: opts.Normalize,
		MaxDepth:  opts.MaxDepth,
		Logger:    opts.Logger,
	})
	cell, err := loader.Load(opts.Path)
	if err != nil {
		return nil, err
	}
	return &Flattened{
		Cell:    cell,
		Notices: loader.Notices(),
		Sources: topFirst(loader.Sources(), opts.Path),
		Cells:   loader.Cells(),
	}, nil
}

// topFirst moves the top cell file to the front. The loader records files
// in completion order, which puts the top cell last.
func topFirst(sources []string, top string) []string {
	for i, s := range sources {
		if s == top {
			out := append([]string{s}, sources[:i]...)
			return append(out, sources[i+1:]...)
		}
	}
	return sources
}

// encodeEntry hashes every source file and packs the flattened cell.
func encodeEntry(f *Flattened) ([]byte, error) {
	cellData, err := mio.MarshalCell(f.Cell)
	if err != nil {
		return nil, err
	}
	e := cellEntry{Notices: f.Notices, Cell: cellData}
	for _, path := range f.Sources {
		sum, err := cache.HashFile(path)
		if err != nil {
			return nil, err
		}
		e.Sources = append(e.Sources, sourceHash{Path: path, SHA256: sum})
	}
	return json.Marshal(e)
}

// decodeEntry unpacks a cached cell. It reports false when the entry is
// unreadable or any source file changed since it was written.
func decodeEntry(data []byte, path string, logger *log.Logger) (*Flattened, bool) {
	var e cellEntry
	if err := json.Unmarshal(data, &e); err != nil {
		logger.Debug("discarding unreadable cache entry", "path", path, "error", err)
		return nil, false
	}
	for _, src := range e.Sources {
		sum, err := cache.HashFile(src.Path)
		if err != nil || sum != src.SHA256 {
			logger.Debug("source changed since cached", "source", src.Path)
			return nil, false
		}
	}
	cell, err := mio.UnmarshalCell(e.Cell)
	if err != nil {
		logger.Debug("discarding undecodable cached cell", "path", path, "error", err)
		return nil, false
	}
	cell.Path = path

	f := &Flattened{Cell: cell, Notices: e.Notices}
	for _, src := range e.Sources {
		f.Sources = append(f.Sources, src.Path)
	}
	return f, true
}

// absPath resolves the top cell path so that cache keys and recorded
// sources do not depend on the working directory.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}
	return abs, nil
}
