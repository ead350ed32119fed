package magic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
	"github.com/matzehuels/magflat/pkg/layout"
	"github.com/matzehuels/magflat/pkg/observability"
)

// DefaultMaxDepth bounds instance nesting when Options.MaxDepth is zero.
const DefaultMaxDepth = 64

// Ext is the file extension of a cell file.
const Ext = ".mag"

// Options configures a Loader.
type Options struct {
	// Normalize re-sorts every transformed rectangle into min/max order.
	// When false, transformed corners are kept positionally.
	Normalize bool

	// MaxDepth is the deepest allowed instance nesting. The top cell is
	// depth 0. Zero means DefaultMaxDepth.
	MaxDepth int

	// NoCache parses a sub-cell file again for every instance instead of
	// reusing the cell from an earlier load. Output is the same either way.
	NoCache bool

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// Notice is a non-fatal report of a line the loader skipped.
type Notice struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

func (n Notice) String() string {
	return fmt.Sprintf("%s:%d: %s", filepath.Base(n.Path), n.Line, n.Text)
}

type frame struct {
	abs  string
	path string
}

type entry struct {
	cell   *layout.Cell
	height int // deepest nesting below this cell
}

// reference is the use record that caused a load.
type reference struct {
	path string
	line int
}

// Loader parses cell files and flattens their instance hierarchy.
// A Loader keeps a memo of completed cells between calls to Load and is not
// safe for concurrent use.
type Loader struct {
	opts   Options
	logger *log.Logger

	stack   []frame
	memo    map[string]entry
	cells   []*layout.Cell
	sources []string
	notices []Notice
}

// NewLoader creates a loader with the given options.
func NewLoader(opts Options) *Loader {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Loader{
		opts:   opts,
		logger: logger,
		memo:   make(map[string]entry),
	}
}

// Load parses the cell file at path, recursively resolving every use block,
// and returns the flattened cell.
func Load(path string) (*layout.Cell, error) {
	return NewLoader(Options{}).Load(path)
}

// Load parses the cell file at path and returns the flattened cell.
// Sub-cells are looked up as <cellname>.mag in the directory of the file
// that references them. The result is a copy; changing it does not affect
// later loads.
func (l *Loader) Load(path string) (*layout.Cell, error) {
	l.stack = l.stack[:0]
	e, err := l.load(path, 0, nil)
	if err != nil {
		return nil, err
	}
	return e.cell.Clone(), nil
}

// Notices returns every line skipped as unrecognized, in the order seen.
func (l *Loader) Notices() []Notice {
	return append([]Notice(nil), l.notices...)
}

// Cells returns every distinct cell loaded so far in completion order,
// leaves first. The cells are shared with the loader and must not be
// modified.
func (l *Loader) Cells() []*layout.Cell {
	return append([]*layout.Cell(nil), l.cells...)
}

// Sources returns the path of every file read, each listed once.
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

func (l *Loader) load(path string, depth int, ref *reference) (entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return entry{}, l.refError(errors.ErrCodeFileNotFound, path, ref, "resolve %s: %v", path, err)
	}

	for i, f := range l.stack {
		if f.abs == abs {
			return entry{}, l.refError(errors.ErrCodeCycle, path, ref, "cell reference cycle: %s", l.chain(i, path))
		}
	}
	if depth > l.opts.MaxDepth {
		return entry{}, l.refError(errors.ErrCodeDepthExceeded, path, ref,
			"instance nesting deeper than %d at %s", l.opts.MaxDepth, filepath.Base(path))
	}

	if e, ok := l.memo[abs]; ok && !l.opts.NoCache {
		if depth+e.height > l.opts.MaxDepth {
			return entry{}, l.refError(errors.ErrCodeDepthExceeded, path, ref,
				"instance nesting deeper than %d below %s", l.opts.MaxDepth, filepath.Base(path))
		}
		observability.Load().OnCellReuse(path)
		l.logger.Debug("reusing cell", "cell", e.cell.Name, "path", path)
		return e, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entry{}, l.refError(errors.ErrCodeFileNotFound, path, ref, "cell file %s not found", path)
		}
		e := errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
		e.Path = path
		return entry{}, e
	}

	l.stack = append(l.stack, frame{abs: abs, path: path})
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()

	start := time.Now()
	observability.Load().OnLoadStart(path, depth)

	e, err := l.parse(path, string(data), depth)

	rects := 0
	if err == nil {
		rects = e.cell.TotalRects()
	}
	observability.Load().OnLoadComplete(path, rects, time.Since(start), err)
	if err != nil {
		return entry{}, err
	}

	if _, seen := l.memo[abs]; !seen {
		l.cells = append(l.cells, e.cell)
		l.sources = append(l.sources, path)
	}
	l.memo[abs] = e
	l.logger.Debug("loaded cell", "cell", e.cell.Name, "path", path, "depth", depth,
		"layers", len(e.cell.Layers()), "rects", rects, "elapsed", time.Since(start))
	return e, nil
}

func (l *Loader) parse(path, data string, depth int) (entry, error) {
	cur := &cursor{lines: strings.Split(data, "\n")}
	cell := layout.New(strings.TrimSuffix(filepath.Base(path), Ext))
	cell.Path = path

	tech, err := readHeader(cur, path)
	if err != nil {
		return entry{}, err
	}
	cell.Tech = tech

	var (
		layer  string
		height int
	)
	for {
		text, n, ok := cur.next()
		if !ok {
			break
		}
		rec, err := Classify(text)
		if err != nil {
			return entry{}, position(err, path, n)
		}

		switch rec.Kind {
		case KindBlank, KindTimestamp, KindScale:
		case KindLayer:
			layer = rec.Name
		case KindRect:
			if layer == "" {
				return entry{}, errors.At(errors.ErrCodeStructural, path, n, "rect record before any layer directive")
			}
			cell.AddRect(layer, rec.Rect)
		case KindLabel:
			if layer == "" {
				return entry{}, errors.At(errors.ErrCodeStructural, path, n, "flabel record before any layer directive")
			}
			if err := expectPort(cur, path, n); err != nil {
				return entry{}, err
			}
			cell.EnsureLayer(layer)
		case KindUse:
			t, err := readUseBlock(cur, path, n, rec)
			if err != nil {
				return entry{}, err
			}
			if !localName(rec.Name) {
				return entry{}, errors.At(errors.ErrCodeInvalidCellName, path, n,
					"cell name %q leaves the directory of %s", rec.Name, filepath.Base(path))
			}
			subPath := filepath.Join(filepath.Dir(path), rec.Name+Ext)
			sub, err := l.load(subPath, depth+1, &reference{path: path, line: n})
			if err != nil {
				return entry{}, err
			}
			cell.Merge(sub.cell, t, l.opts.Normalize)
			cell.AddInstance(layout.Instance{Cell: rec.Name, Name: rec.Instance, Transform: t, Line: n})
			height = max(height, sub.height+1)
		case KindMagic, KindTech, KindTransform, KindBox, KindPort, KindUnknown:
			l.notice(path, n, text)
		}
	}
	return entry{cell: cell, height: height}, nil
}

// localName reports whether a use record's cell name resolves to a file in
// the referencing file's directory.
func localName(name string) bool {
	return name != ".." && !strings.ContainsAny(name, "/\\\x00")
}

// readHeader checks the mandatory "magic" and "tech" lines and returns the
// technology name.
func readHeader(cur *cursor, path string) (string, error) {
	text, n, ok := cur.next()
	if !ok || strings.TrimSpace(text) != "magic" {
		return "", errors.At(errors.ErrCodeStructural, path, max(n, 1), "file does not start with 'magic'")
	}
	text, n, ok = cur.next()
	if !ok {
		return "", errors.At(errors.ErrCodeStructural, path, n+1, "missing 'tech' line")
	}
	rec, err := Classify(text)
	if err != nil || rec.Kind != KindTech {
		return "", errors.At(errors.ErrCodeStructural, path, n, "second line does not start with 'tech'")
	}
	return rec.Name, nil
}

// readUseBlock consumes the lines of a use block up to and including the
// box terminator and returns its transform. Lines other than transform and
// box are ignored.
func readUseBlock(cur *cursor, path string, useLine int, rec Record) (geom.Transform, error) {
	var (
		t     geom.Transform
		found bool
	)
	for {
		text, n, ok := cur.next()
		if !ok {
			return geom.Transform{}, errors.At(errors.ErrCodeStructural, path, useLine,
				"use block for instance %q is not terminated by a box record", rec.Instance)
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "transform":
			if found {
				return geom.Transform{}, errors.At(errors.ErrCodeStructural, path, n,
					"use block for instance %q has more than one transform record", rec.Instance)
			}
			parsed, err := transformFields(fields, strings.TrimSpace(text))
			if err != nil {
				return geom.Transform{}, position(err, path, n)
			}
			t, found = parsed, true
		case "box":
			if !found {
				return geom.Transform{}, errors.At(errors.ErrCodeStructural, path, useLine,
					"use block for instance %q has no transform record", rec.Instance)
			}
			return t, nil
		}
	}
}

func expectPort(cur *cursor, path string, labelLine int) error {
	text, n, ok := cur.next()
	if !ok {
		return errors.At(errors.ErrCodeStructural, path, labelLine, "flabel record is not followed by a port record")
	}
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != "port" {
		return errors.At(errors.ErrCodeStructural, path, n, "expected port record after flabel, got %q", strings.TrimSpace(text))
	}
	return nil
}

func (l *Loader) notice(path string, line int, text string) {
	text = strings.TrimSpace(text)
	l.notices = append(l.notices, Notice{Path: path, Line: line, Text: text})
	l.logger.Debug("skipping unrecognized record", "path", path, "line", line, "text", text)
	observability.Load().OnUnrecognized(path, line, text)
}

// refError builds a reference error positioned at the use record that
// caused the load, or at path itself for the top cell.
func (l *Loader) refError(code errors.Code, path string, ref *reference, format string, args ...any) error {
	if ref != nil {
		return errors.At(code, ref.path, ref.line, format, args...)
	}
	return errors.At(code, path, 0, format, args...)
}

// chain renders the cycle that closes at stack index i, e.g.
// "top.mag -> mid.mag -> top.mag".
func (l *Loader) chain(i int, path string) string {
	names := make([]string, 0, len(l.stack)-i+1)
	for _, f := range l.stack[i:] {
		names = append(names, filepath.Base(f.path))
	}
	names = append(names, filepath.Base(path))
	return strings.Join(names, " -> ")
}

// position attaches a file position to an unpositioned error.
func position(err error, path string, line int) error {
	var e *errors.Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
		e.Line = line
		return e
	}
	return err
}

// cursor walks the lines of a file, tracking 1-based line numbers.
type cursor struct {
	lines []string
	pos   int
}

func (c *cursor) next() (string, int, bool) {
	if c.pos >= len(c.lines) {
		return "", c.pos, false
	}
	c.pos++
	return c.lines[c.pos-1], c.pos, true
}
