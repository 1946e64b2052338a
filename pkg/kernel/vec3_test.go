package kernel

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestVec3Arithmetic(t *testing.T) {
	v := Vec3{1, 2, 3}
	w := Vec3{4, -5, 6}

	if got := v.Add(w); got != (Vec3{5, -3, 9}) {
		t.Errorf("Add = %v, want {5 -3 9}", got)
	}
	if got := v.Sub(w); got != (Vec3{-3, 7, -3}) {
		t.Errorf("Sub = %v, want {-3 7 -3}", got)
	}
	if got := v.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v, want {2 4 6}", got)
	}
	if got := v.Dot(w); got != 12 {
		t.Errorf("Dot = %v, want 12", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	z := Vec3{0, 0, 1}

	if got := x.Cross(y); got != z {
		t.Errorf("x cross y = %v, want z", got)
	}
	if got := y.Cross(x); got != z.Scale(-1) {
		t.Errorf("y cross x = %v, want -z", got)
	}

	// The cross product is orthogonal to both operands.
	v := Vec3{1, 2, 3}
	w := Vec3{-2, 0.5, 4}
	c := v.Cross(w)
	if d := math32.Abs(c.Dot(v)); d > 1e-5 {
		t.Errorf("cross not orthogonal to v: dot = %v", d)
	}
	if d := math32.Abs(c.Dot(w)); d > 1e-5 {
		t.Errorf("cross not orthogonal to w: dot = %v", d)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}
	n := v.Normalize()
	if math32.Abs(n.Length()-1) > 1e-6 {
		t.Errorf("normalized length = %v, want 1", n.Length())
	}
	if math32.Abs(n.X-0.6) > 1e-6 || math32.Abs(n.Z-0.8) > 1e-6 {
		t.Errorf("Normalize = %v, want {0.6 0 0.8}", n)
	}

	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize of zero = %v, want zero", got)
	}
}

func TestVec3Axis(t *testing.T) {
	v := Vec3{7, 8, 9}
	for axis, want := range []float32{7, 8, 9} {
		if got := v.Axis(axis); got != want {
			t.Errorf("Axis(%d) = %v, want %v", axis, got, want)
		}
	}
}

func TestVec3MinMax(t *testing.T) {
	v := Vec3{1, 5, -3}
	w := Vec3{2, -5, -3}
	if got := v.Min(w); got != (Vec3{1, -5, -3}) {
		t.Errorf("Min = %v, want {1 -5 -3}", got)
	}
	if got := v.Max(w); got != (Vec3{2, 5, -3}) {
		t.Errorf("Max = %v, want {2 5 -3}", got)
	}
}
