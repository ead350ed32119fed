package geom

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	XMin int64 `json:"x_min"`
	XMax int64 `json:"x_max"`
	YMin int64 `json:"y_min"`
	YMax int64 `json:"y_max"`
}

// X returns the (min, max) extent along x.
func (b Bounds) X() (int64, int64) { return b.XMin, b.XMax }

// Y returns the (min, max) extent along y.
func (b Bounds) Y() (int64, int64) { return b.YMin, b.YMax }

// Width returns XMax - XMin.
func (b Bounds) Width() int64 { return b.XMax - b.XMin }

// Height returns YMax - YMin.
func (b Bounds) Height() int64 { return b.YMax - b.YMin }

// BoundsBuilder accumulates rectangles into a bounding box. The zero value
// is empty and ready to use.
type BoundsBuilder struct {
	b    Bounds
	init bool
}

// Add extends the box with all four coordinate fields of r. Coordinates are
// considered individually, so unsorted rectangles still contribute their
// true extremes.
func (bb *BoundsBuilder) Add(r Rect) {
	if !bb.init {
		bb.b = Bounds{
			XMin: min(r.XMin, r.XMax), XMax: max(r.XMin, r.XMax),
			YMin: min(r.YMin, r.YMax), YMax: max(r.YMin, r.YMax),
		}
		bb.init = true
		return
	}
	bb.b.XMin = min(bb.b.XMin, r.XMin, r.XMax)
	bb.b.XMax = max(bb.b.XMax, r.XMin, r.XMax)
	bb.b.YMin = min(bb.b.YMin, r.YMin, r.YMax)
	bb.b.YMax = max(bb.b.YMax, r.YMin, r.YMax)
}

// Empty reports whether no rectangle has been added.
func (bb *BoundsBuilder) Empty() bool { return !bb.init }

// Bounds returns the accumulated box and false when nothing was added.
func (bb *BoundsBuilder) Bounds() (Bounds, bool) {
	return bb.b, bb.init
}

// Of returns the bounding box of rects and false when rects is empty.
func Of(rects []Rect) (Bounds, bool) {
	var bb BoundsBuilder
	for _, r := range rects {
		bb.Add(r)
	}
	return bb.Bounds()
}
