package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/magflat/pkg/cache"
	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/magic"
	"github.com/matzehuels/magflat/pkg/observability"
)

const (
	leafMag = "magic\ntech sky130A\n<< metal1 >>\nrect 0 0 2 2\n"
	topMag  = "magic\ntech sky130A\nstring FIXED_BBOX 0 0 9 9\n<< poly >>\nrect 0 0 1 1\nuse leaf inst1\ntransform 1 0 5 0 1 5\nbox 0 0 0 0\n"
)

func writeCells(t *testing.T) (dir, top string) {
	t.Helper()
	dir = t.TempDir()
	for name, content := range map[string]string{"leaf.mag": leafMag, "top.mag": topMag} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, filepath.Join(dir, "top.mag")
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

type countingHooks struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	sets   map[string]int
}

func newCountingHooks() *countingHooks {
	return &countingHooks{hits: map[string]int{}, misses: map[string]int{}, sets: map[string]int{}}
}

func (h *countingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[keyType]++
}

func (h *countingHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[keyType]++
}

func (h *countingHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sets[keyType]++
}

func TestValidateForFlatten(t *testing.T) {
	opts := Options{Path: "top.mag"}
	if err := opts.ValidateForFlatten(); err != nil {
		t.Fatalf("valid options: %v", err)
	}
	if opts.MaxDepth != magic.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", opts.MaxDepth, magic.DefaultMaxDepth)
	}

	tests := []struct {
		name string
		opts Options
	}{
		{"no path", Options{}},
		{"negative depth", Options{Path: "top.mag", MaxDepth: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateForFlatten(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestValidateForRender(t *testing.T) {
	opts := Options{Layer: "metal1"}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatalf("valid options: %v", err)
	}
	if !reflect.DeepEqual(opts.Formats, []string{FormatSVG}) {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %g, want %g", opts.Scale, DefaultScale)
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no layer", Options{}, errors.ErrCodeInvalidInput},
		{"bad overlay", Options{Layer: "metal1", Overlay: []string{"a b"}}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Layer: "metal1", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"negative scale", Options{Layer: "metal1", Scale: -1}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateForRender(); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOptsScaleOnlyForPNG(t *testing.T) {
	opts := Options{Layer: "metal1", Scale: 3}
	if got := opts.ArtifactKeyOpts(FormatSVG).Scale; got != 0 {
		t.Errorf("svg key scale = %g, want 0", got)
	}
	if got := opts.ArtifactKeyOpts(FormatPNG).Scale; got != 3 {
		t.Errorf("png key scale = %g, want 3", got)
	}
}

func TestFlatten(t *testing.T) {
	_, top := writeCells(t)

	f, err := Flatten(Options{Path: top})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Cell.Rects("metal1"); len(got) != 1 || got[0].String() != "(5,5,7,7)" {
		t.Errorf("metal1 = %v, want [(5,5,7,7)]", got)
	}
	if len(f.Sources) != 2 || f.Sources[0] != top {
		t.Errorf("Sources = %v, want top cell first", f.Sources)
	}
	if len(f.Cells) != 2 {
		t.Errorf("Cells = %d, want 2", len(f.Cells))
	}
	if len(f.Notices) != 1 || !strings.Contains(f.Notices[0].Text, "FIXED_BBOX") {
		t.Errorf("Notices = %v, want the string record", f.Notices)
	}
}

func TestFlattenWithCacheInfo(t *testing.T) {
	_, top := writeCells(t)
	r := newTestRunner(t)
	ctx := context.Background()

	fresh, hit, err := r.FlattenWithCacheInfo(ctx, Options{Path: top})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first flatten should miss")
	}

	cached, hit, err := r.FlattenWithCacheInfo(ctx, Options{Path: top})
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("second flatten should hit")
	}
	if !reflect.DeepEqual(cached.Cell.Layers(), fresh.Cell.Layers()) {
		t.Errorf("layers = %v, want %v", cached.Cell.Layers(), fresh.Cell.Layers())
	}
	for _, layer := range fresh.Cell.Layers() {
		if !reflect.DeepEqual(cached.Cell.Rects(layer), fresh.Cell.Rects(layer)) {
			t.Errorf("%s = %v, want %v", layer, cached.Cell.Rects(layer), fresh.Cell.Rects(layer))
		}
	}
	if !reflect.DeepEqual(cached.Notices, fresh.Notices) {
		t.Errorf("notices = %v, want %v", cached.Notices, fresh.Notices)
	}
	if len(cached.Cells) != 0 {
		t.Error("cached result should not carry loader cells")
	}

	_, hit, err = r.FlattenWithCacheInfo(ctx, Options{Path: top, Normalize: true})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("different loader options should miss")
	}
}

func TestFlattenCacheInvalidatedBySubCellEdit(t *testing.T) {
	dir, top := writeCells(t)
	r := newTestRunner(t)
	ctx := context.Background()

	if _, err := r.Flatten(ctx, Options{Path: top}); err != nil {
		t.Fatal(err)
	}

	edited := "magic\ntech sky130A\n<< metal1 >>\nrect 0 0 3 3\n"
	if err := os.WriteFile(filepath.Join(dir, "leaf.mag"), []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	f, hit, err := r.FlattenWithCacheInfo(ctx, Options{Path: top})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Fatal("editing a sub-cell should invalidate the cached cell")
	}
	if got := f.Cell.Rects("metal1"); len(got) != 1 || got[0].String() != "(5,5,8,8)" {
		t.Errorf("metal1 = %v, want [(5,5,8,8)]", got)
	}
}

func TestFlattenRefresh(t *testing.T) {
	_, top := writeCells(t)
	r := newTestRunner(t)
	ctx := context.Background()

	if _, err := r.Flatten(ctx, Options{Path: top}); err != nil {
		t.Fatal(err)
	}
	_, hit, err := r.FlattenWithCacheInfo(ctx, Options{Path: top, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("refresh should bypass the cache")
	}
}

func TestFlattenErrorsPropagate(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(t)

	_, err := r.Flatten(context.Background(), Options{Path: filepath.Join(dir, "missing.mag")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExecute(t *testing.T) {
	_, top := writeCells(t)
	r := newTestRunner(t)
	ctx := context.Background()

	opts := Options{Path: top, Layer: "metal1", Overlay: []string{"poly"}}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(res.Artifacts[FormatSVG])
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, `id="layer-poly"`) {
		t.Errorf("unexpected svg:\n%s", svg)
	}
	if res.Stats.Files != 2 || res.Stats.Layers != 2 || res.Stats.Rects != 2 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CellHash == "" {
		t.Error("CellHash should be set")
	}
	if res.CacheInfo.FlattenHit || res.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want all misses", res.CacheInfo)
	}
	if len(res.Notices) != 1 {
		t.Errorf("Notices = %v, want 1", res.Notices)
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.FlattenHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want all hits", again.CacheInfo)
	}
	if again.CellHash != res.CellHash {
		t.Error("cell hash changed between runs")
	}
	if string(again.Artifacts[FormatSVG]) != svg {
		t.Error("cached svg differs from rendered svg")
	}
}

func TestExecuteMissingLayer(t *testing.T) {
	_, top := writeCells(t)
	r := newTestRunner(t)

	_, err := r.Execute(context.Background(), Options{Path: top, Layer: "metal9"})
	if !errors.Is(err, errors.ErrCodeLayerNotFound) {
		t.Errorf("error = %v, want LAYER_NOT_FOUND", err)
	}
}

func TestExecuteWithoutCache(t *testing.T) {
	_, top := writeCells(t)
	r := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))

	for range 2 {
		res, err := r.Execute(context.Background(), Options{Path: top, Layer: "poly"})
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheInfo.FlattenHit || res.CacheInfo.RenderHit {
			t.Errorf("null cache should never hit, got %+v", res.CacheInfo)
		}
	}
}

func TestCacheHooks(t *testing.T) {
	hooks := newCountingHooks()
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	_, top := writeCells(t)
	r := newTestRunner(t)
	opts := Options{Path: top, Layer: "metal1"}

	for range 2 {
		if _, err := r.Execute(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
	}

	for _, kt := range []string{keyTypeCell, keyTypeArtifact} {
		if hooks.misses[kt] != 1 || hooks.hits[kt] != 1 || hooks.sets[kt] != 1 {
			t.Errorf("%s: hits=%d misses=%d sets=%d, want 1 each", kt, hooks.hits[kt], hooks.misses[kt], hooks.sets[kt])
		}
	}
}
