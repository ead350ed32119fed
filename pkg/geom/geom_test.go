package geom

import "testing"

func TestApplyRect(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		in   Rect
		want Rect
	}{
		{"identity", Identity, R(1, 2, 3, 4), R(1, 2, 3, 4)},
		{"translation", Translate(10, -5), R(1, 2, 3, 4), R(11, -3, 13, -1)},
		{"rotate 90 keeps corner positions", Transform{A: 0, B: -1, C: 0, D: 1, E: 0, F: 0}, R(0, 0, 10, 5), R(0, 0, -5, 10)},
		{"mirror x", Transform{A: -1, E: 1}, R(0, 0, 4, 2), R(0, 0, -4, 2)},
		{"rotate 180 with offset", Transform{A: -1, B: 0, C: 100, D: 0, E: -1, F: 50}, R(0, 0, 10, 5), R(100, 50, 90, 45)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.ApplyRect(tt.in); got != tt.want {
				t.Errorf("ApplyRect(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyPoint(t *testing.T) {
	rot := Transform{A: 0, B: -1, C: 0, D: 1, E: 0, F: 0}
	if got := rot.Apply(Point{0, 0}); got != (Point{0, 0}) {
		t.Errorf("Apply(0,0) = %v, want (0,0)", got)
	}
	if got := rot.Apply(Point{10, 5}); got != (Point{-5, 10}) {
		t.Errorf("Apply(10,5) = %v, want (-5,10)", got)
	}
}

func TestCompose(t *testing.T) {
	rot := Transform{A: 0, B: -1, D: 1, E: 0}
	move := Translate(7, 3)
	p := Point{4, 9}

	got := move.Compose(rot).Apply(p)
	want := move.Apply(rot.Apply(p))
	if got != want {
		t.Errorf("Compose: got %v, want %v", got, want)
	}

	if c := Translate(1, 2).Compose(Translate(3, 4)); c != Translate(4, 6) {
		t.Errorf("translations should add, got %v", c)
	}
	if !Identity.Compose(Identity).IsIdentity() {
		t.Error("identity composed with identity should be identity")
	}
}

func TestNormalized(t *testing.T) {
	r := R(0, 0, -5, 10)
	if r.IsNormalized() {
		t.Error("R(0,0,-5,10) should not be normalized")
	}
	n := r.Normalized()
	if n != R(-5, 0, 0, 10) {
		t.Errorf("Normalized() = %v, want (-5,0,0,10)", n)
	}
	if !n.IsNormalized() {
		t.Error("Normalized() result should be normalized")
	}
	if r.Width() != 5 || r.Height() != 10 {
		t.Errorf("Width/Height = %d/%d, want 5/10", r.Width(), r.Height())
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := Of(nil); ok {
		t.Error("Of(nil) should report empty")
	}

	b, ok := Of([]Rect{R(5, 5, 7, 7), R(0, 0, -5, 10)})
	if !ok {
		t.Fatal("Of() reported empty")
	}
	want := Bounds{XMin: -5, XMax: 7, YMin: 0, YMax: 10}
	if b != want {
		t.Errorf("Of() = %+v, want %+v", b, want)
	}
	if b.Width() != 12 || b.Height() != 10 {
		t.Errorf("Width/Height = %d/%d", b.Width(), b.Height())
	}
	if lo, hi := b.X(); lo != -5 || hi != 7 {
		t.Errorf("X() = (%d,%d)", lo, hi)
	}
}
