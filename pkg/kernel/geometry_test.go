package kernel

import "testing"

func TestNewTriangleGeometryCopies(t *testing.T) {
	verts := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	idx := []uint32{0, 1, 2}

	g := NewTriangleGeometry(verts, idx)

	// Mutating the caller's slices must not affect the geometry.
	verts[0] = 99
	idx[0] = 2

	a, b, c := g.Triangle(0)
	if a != (Vec3{0, 0, 0}) || b != (Vec3{1, 0, 0}) || c != (Vec3{0, 1, 0}) {
		t.Errorf("Triangle(0) = %v %v %v, want original corners", a, b, c)
	}
}

func TestGeometryCounts(t *testing.T) {
	g := NewTriangleGeometry(
		[]float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0},
		[]uint32{0, 1, 2, 1, 3, 2},
	)
	if got := g.VertexCount(); got != 4 {
		t.Errorf("VertexCount = %d, want 4", got)
	}
	if got := g.TriangleCount(); got != 2 {
		t.Errorf("TriangleCount = %d, want 2", got)
	}
	if g.IsEmpty() {
		t.Error("IsEmpty = true for a 2-triangle geometry")
	}
	if g.Kind() != GeomTriangles {
		t.Errorf("Kind = %v, want GeomTriangles", g.Kind())
	}
}

func TestGeometryEmpty(t *testing.T) {
	g := NewTriangleGeometry(nil, nil)
	if !g.IsEmpty() {
		t.Error("IsEmpty = false for empty geometry")
	}
	if g.VertexCount() != 0 || g.TriangleCount() != 0 {
		t.Errorf("counts = %d verts, %d tris, want 0, 0",
			g.VertexCount(), g.TriangleCount())
	}
}

func TestGeometryTriangleIndexing(t *testing.T) {
	// Two triangles sharing an edge; the second one uses vertices out
	// of order to exercise index indirection.
	g := NewTriangleGeometry(
		[]float32{0, 0, 0, 2, 0, 0, 0, 2, 0, 2, 2, 0},
		[]uint32{0, 1, 2, 3, 2, 1},
	)
	a, b, c := g.Triangle(1)
	if a != (Vec3{2, 2, 0}) || b != (Vec3{0, 2, 0}) || c != (Vec3{2, 0, 0}) {
		t.Errorf("Triangle(1) = %v %v %v, want {2 2 0} {0 2 0} {2 0 0}", a, b, c)
	}
}
