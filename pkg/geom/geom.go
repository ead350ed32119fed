// Package geom provides the integer geometry used by the flattening engine:
// points, axis-aligned rectangles, six-parameter affine transforms and
// bounding boxes.
//
// All coordinates are layout units (int64). Transforms map a point with
//
//	x' = A·x + B·y + C
//	y' = D·x + E·y + F
//
// Pure translation has A=E=1 and B=D=0; rotation and mirroring use the
// off-diagonal or negative diagonal terms.
package geom

import "fmt"

// Point is a location in layout units.
type Point struct {
	X, Y int64
}

// Rect is an axis-aligned rectangle stored as two corners.
//
// Rectangles read from a layout file satisfy XMin <= XMax and YMin <= YMax.
// Rectangles produced by [Transform.ApplyRect] keep their corners
// positionally and may violate that ordering under rotation or mirroring;
// use [Rect.Normalized] to recover the canonical form.
type Rect struct {
	XMin, YMin, XMax, YMax int64
}

// R is shorthand for Rect{x1, y1, x2, y2}.
func R(x1, y1, x2, y2 int64) Rect {
	return Rect{XMin: x1, YMin: y1, XMax: x2, YMax: y2}
}

// Lo returns the (XMin, YMin) corner.
func (r Rect) Lo() Point { return Point{r.XMin, r.YMin} }

// Hi returns the (XMax, YMax) corner.
func (r Rect) Hi() Point { return Point{r.XMax, r.YMax} }

// Normalized returns r with each axis sorted so that min <= max.
func (r Rect) Normalized() Rect {
	if r.XMin > r.XMax {
		r.XMin, r.XMax = r.XMax, r.XMin
	}
	if r.YMin > r.YMax {
		r.YMin, r.YMax = r.YMax, r.YMin
	}
	return r
}

// IsNormalized reports whether both axes are in min/max order.
func (r Rect) IsNormalized() bool {
	return r.XMin <= r.XMax && r.YMin <= r.YMax
}

// Width returns the absolute extent along x.
func (r Rect) Width() int64 { return abs(r.XMax - r.XMin) }

// Height returns the absolute extent along y.
func (r Rect) Height() int64 { return abs(r.YMax - r.YMin) }

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.XMin, r.YMin, r.XMax, r.YMax)
}

// Transform is the affine map x' = A·x + B·y + C, y' = D·x + E·y + F.
type Transform struct {
	A, B, C int64
	D, E, F int64
}

// Identity leaves every point unchanged.
var Identity = Transform{A: 1, E: 1}

// Translate returns a pure translation by (tx, ty).
func Translate(tx, ty int64) Transform {
	return Transform{A: 1, C: tx, E: 1, F: ty}
}

// Apply maps a single point.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.B*p.Y + t.C,
		Y: t.D*p.X + t.E*p.Y + t.F,
	}
}

// ApplyRect maps both corners of r independently and returns them in the
// same positions. The result is not re-sorted.
func (t Transform) ApplyRect(r Rect) Rect {
	lo := t.Apply(r.Lo())
	hi := t.Apply(r.Hi())
	return Rect{XMin: lo.X, YMin: lo.Y, XMax: hi.X, YMax: hi.Y}
}

// Compose returns the transform that applies inner first, then t.
func (t Transform) Compose(inner Transform) Transform {
	return Transform{
		A: t.A*inner.A + t.B*inner.D,
		B: t.A*inner.B + t.B*inner.E,
		C: t.A*inner.C + t.B*inner.F + t.C,
		D: t.D*inner.A + t.E*inner.D,
		E: t.D*inner.B + t.E*inner.E,
		F: t.D*inner.C + t.E*inner.F + t.F,
	}
}

// IsIdentity reports whether t equals [Identity].
func (t Transform) IsIdentity() bool { return t == Identity }

// Params returns the six parameters in record order (a b c d e f).
func (t Transform) Params() [6]int64 {
	return [6]int64{t.A, t.B, t.C, t.D, t.E, t.F}
}

func (t Transform) String() string {
	return fmt.Sprintf("transform %d %d %d %d %d %d", t.A, t.B, t.C, t.D, t.E, t.F)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
