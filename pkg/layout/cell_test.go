package layout

import (
	"slices"
	"testing"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
)

func leafCell() *Cell {
	c := New("leaf")
	c.AddRect("metal1", geom.R(0, 0, 2, 2))
	c.AddRect("poly", geom.R(1, 1, 3, 4))
	c.AddRect("metal1", geom.R(4, 4, 6, 6))
	return c
}

func TestLayersKeepEncounterOrder(t *testing.T) {
	c := New("top")
	c.AddRect("poly", geom.R(0, 0, 1, 1))
	c.EnsureLayer("labels")
	c.AddRect("metal1", geom.R(0, 0, 1, 1))
	c.AddRect("poly", geom.R(1, 1, 2, 2))

	want := []string{"poly", "labels", "metal1"}
	if got := c.Layers(); !slices.Equal(got, want) {
		t.Errorf("Layers() = %v, want %v", got, want)
	}
	if !c.HasLayer("labels") || c.RectCount("labels") != 0 {
		t.Error("labels should exist with no rectangles")
	}
	if c.TotalRects() != 3 {
		t.Errorf("TotalRects() = %d, want 3", c.TotalRects())
	}
}

func TestMergeIdentity(t *testing.T) {
	leaf := leafCell()
	top := New("top")
	top.Merge(leaf, geom.Identity, false)

	for _, layer := range leaf.Layers() {
		if got, want := top.Rects(layer), leaf.Rects(layer); !slices.Equal(got, want) {
			t.Errorf("layer %s: got %v, want %v", layer, got, want)
		}
	}
}

func TestMergeTranslation(t *testing.T) {
	top := New("top")
	top.Merge(leafCell(), geom.Translate(5, 5), false)

	want := []geom.Rect{geom.R(5, 5, 7, 7), geom.R(9, 9, 11, 11)}
	if got := top.Rects("metal1"); !slices.Equal(got, want) {
		t.Errorf("metal1 = %v, want %v", got, want)
	}
}

func TestMergeRotationKeepsCornerPositions(t *testing.T) {
	sub := New("sub")
	sub.AddRect("metal1", geom.R(0, 0, 10, 5))
	rot := geom.Transform{A: 0, B: -1, C: 0, D: 1, E: 0, F: 0}

	raw := New("raw")
	raw.Merge(sub, rot, false)
	if got := raw.Rects("metal1"); !slices.Equal(got, []geom.Rect{geom.R(0, 0, -5, 10)}) {
		t.Errorf("positional merge = %v, want [(0,0,-5,10)]", got)
	}

	norm := New("norm")
	norm.Merge(sub, rot, true)
	if got := norm.Rects("metal1"); !slices.Equal(got, []geom.Rect{geom.R(-5, 0, 0, 10)}) {
		t.Errorf("normalized merge = %v, want [(-5,0,0,10)]", got)
	}
}

func TestMergeAppendsAfterOwnRects(t *testing.T) {
	top := New("top")
	top.AddRect("metal1", geom.R(100, 100, 101, 101))
	top.Merge(leafCell(), geom.Translate(1, 0), false)
	top.Merge(leafCell(), geom.Translate(1, 0), false)

	want := []geom.Rect{
		geom.R(100, 100, 101, 101),
		geom.R(1, 0, 3, 2), geom.R(5, 4, 7, 6),
		geom.R(1, 0, 3, 2), geom.R(5, 4, 7, 6),
	}
	if got := top.Rects("metal1"); !slices.Equal(got, want) {
		t.Errorf("metal1 = %v, want %v", got, want)
	}
	if got := top.Layers(); !slices.Equal(got, []string{"metal1", "poly"}) {
		t.Errorf("Layers() = %v", got)
	}
}

func TestMergeDoesNotAliasSubCell(t *testing.T) {
	leaf := leafCell()
	top := New("top")
	top.Merge(leaf, geom.Identity, false)
	top.AddRect("metal1", geom.R(9, 9, 9, 9))

	if leaf.RectCount("metal1") != 2 {
		t.Errorf("sub-cell was mutated: %v", leaf.Rects("metal1"))
	}

	rects := top.Rects("metal1")
	rects[0] = geom.R(-1, -1, -1, -1)
	if top.Rects("metal1")[0] == rects[0] {
		t.Error("Rects() should return a copy")
	}
}

func TestBounds(t *testing.T) {
	c := New("top")
	c.AddRect("metal1", geom.R(5, 5, 7, 7))

	b, err := c.Bounds()
	if err != nil {
		t.Fatalf("Bounds() error: %v", err)
	}
	if b != (geom.Bounds{XMin: 5, XMax: 7, YMin: 5, YMax: 7}) {
		t.Errorf("Bounds() = %+v", b)
	}

	c.AddRect("poly", geom.R(0, 0, -5, 10))
	b, _ = c.Bounds()
	if b != (geom.Bounds{XMin: -5, XMax: 7, YMin: 0, YMax: 10}) {
		t.Errorf("Bounds() over unsorted rect = %+v", b)
	}
}

func TestBoundsEmpty(t *testing.T) {
	c := New("empty")
	c.Path = "empty.mag"
	c.EnsureLayer("labels")

	_, err := c.Bounds()
	if !errors.Is(err, errors.ErrCodeEmptyBounds) {
		t.Fatalf("Bounds() error = %v, want EMPTY_BOUNDS", err)
	}
}

func TestLayerBounds(t *testing.T) {
	c := leafCell()
	b, err := c.LayerBounds("poly")
	if err != nil {
		t.Fatalf("LayerBounds() error: %v", err)
	}
	if b != (geom.Bounds{XMin: 1, XMax: 3, YMin: 1, YMax: 4}) {
		t.Errorf("LayerBounds(poly) = %+v", b)
	}

	if _, err := c.LayerBounds("metal9"); !errors.Is(err, errors.ErrCodeLayerNotFound) {
		t.Errorf("LayerBounds(metal9) error = %v, want LAYER_NOT_FOUND", err)
	}

	c.EnsureLayer("labels")
	if _, err := c.LayerBounds("labels"); !errors.Is(err, errors.ErrCodeEmptyBounds) {
		t.Errorf("LayerBounds(labels) error = %v, want EMPTY_BOUNDS", err)
	}
}

func TestClone(t *testing.T) {
	c := leafCell()
	c.AddInstance(Instance{Cell: "x", Name: "x_0", Transform: geom.Identity})
	cp := c.Clone()
	cp.AddRect("metal1", geom.R(0, 0, 0, 0))

	if c.RectCount("metal1") != 2 {
		t.Error("Clone() shares layer storage with the original")
	}
	if len(cp.Instances()) != 1 {
		t.Error("Clone() dropped instances")
	}
}
