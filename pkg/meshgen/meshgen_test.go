package meshgen

import (
	"testing"

	"github.com/chazu/resin/pkg/raycast"
	"github.com/chewxy/math32"
	"gorgonia.org/tensor"
)

func pointTensor(x, y, z float32) *tensor.Dense {
	return tensor.New(tensor.WithShape(1, 3), tensor.WithBacking([]float32{x, y, z}))
}

func TestCuboidTopology(t *testing.T) {
	m := Cuboid(1, 2, 4)

	if shp := m.Vertices.Shape(); shp[0] != 8 || shp[1] != 3 {
		t.Fatalf("vertices shape = %v, want (8, 3)", shp)
	}
	if shp := m.Triangles.Shape(); shp[0] != 12 || shp[1] != 3 {
		t.Fatalf("triangles shape = %v, want (12, 3)", shp)
	}
	if got := m.TriangleCount(); got != 12 {
		t.Errorf("TriangleCount = %d, want 12", got)
	}

	verts := m.Vertices.Data().([]float32)
	tris := m.Triangles.Data().([]uint32)
	for i, vi := range tris {
		if vi >= 8 {
			t.Fatalf("index %d refers to vertex %d, want < 8", i, vi)
		}
	}

	// Winding must face outward: each face normal points away from the
	// cuboid center at the origin.
	at := func(vi uint32) (x, y, z float32) {
		return verts[vi*3], verts[vi*3+1], verts[vi*3+2]
	}
	for p := 0; p < 12; p++ {
		ax, ay, az := at(tris[p*3])
		bx, by, bz := at(tris[p*3+1])
		cx, cy, cz := at(tris[p*3+2])

		e1x, e1y, e1z := bx-ax, by-ay, bz-az
		e2x, e2y, e2z := cx-ax, cy-ay, cz-az
		nx := e1y*e2z - e1z*e2y
		ny := e1z*e2x - e1x*e2z
		nz := e1x*e2y - e1y*e2x

		gx, gy, gz := (ax+bx+cx)/3, (ay+by+cy)/3, (az+bz+cz)/3
		if nx*gx+ny*gy+nz*gz <= 0 {
			t.Errorf("triangle %d winds inward", p)
		}
	}
}

func TestCuboidQueries(t *testing.T) {
	s := raycast.NewScene()
	m := Cuboid(1, 1, 1)
	if _, err := s.AddTriangles(m.Vertices, m.Triangles); err != nil {
		t.Fatalf("AddTriangles: %v", err)
	}

	occ, err := s.ComputeOccupancy(pointTensor(0, 0, 0))
	if err != nil {
		t.Fatalf("ComputeOccupancy: %v", err)
	}
	if got := occ.Data().([]float32)[0]; got != 1 {
		t.Errorf("occupancy at center = %v, want 1", got)
	}

	d, err := s.ComputeDistance(pointTensor(2, 0, 0))
	if err != nil {
		t.Fatalf("ComputeDistance: %v", err)
	}
	if got := d.Data().([]float32)[0]; got != 1.5 {
		t.Errorf("distance from (2 0 0) = %v, want 1.5", got)
	}
}

func TestSphereTessellation(t *testing.T) {
	m, err := Sphere(1, 32)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	if m.TriangleCount() < 100 {
		t.Fatalf("TriangleCount = %d, want a real tessellation", m.TriangleCount())
	}

	verts := m.Vertices.Data().([]float32)
	for i := 0; i < len(verts); i += 3 {
		r := math32.Sqrt(verts[i]*verts[i] + verts[i+1]*verts[i+1] + verts[i+2]*verts[i+2])
		if r < 0.9 || r > 1.1 {
			t.Fatalf("vertex %d at radius %v, want about 1", i/3, r)
		}
	}

	s := raycast.NewScene()
	if _, err := s.AddTriangles(m.Vertices, m.Triangles); err != nil {
		t.Fatalf("AddTriangles: %v", err)
	}
	occ, err := s.ComputeOccupancy(pointTensor(0, 0, 0))
	if err != nil {
		t.Fatalf("ComputeOccupancy: %v", err)
	}
	if got := occ.Data().([]float32)[0]; got != 1 {
		t.Errorf("occupancy at center = %v, want 1", got)
	}
	d, err := s.ComputeDistance(pointTensor(0, 0, 0))
	if err != nil {
		t.Fatalf("ComputeDistance: %v", err)
	}
	if got := d.Data().([]float32)[0]; got < 0.9 || got > 1.05 {
		t.Errorf("distance from center = %v, want about 1", got)
	}
}

func TestBoxTessellation(t *testing.T) {
	m, err := Box(1, 1, 1, 16)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("no triangles")
	}

	s := raycast.NewScene()
	if _, err := s.AddTriangles(m.Vertices, m.Triangles); err != nil {
		t.Fatalf("AddTriangles: %v", err)
	}
	occ, err := s.ComputeOccupancy(pointTensor(0, 0, 0))
	if err != nil {
		t.Fatalf("ComputeOccupancy: %v", err)
	}
	if got := occ.Data().([]float32)[0]; got != 1 {
		t.Errorf("occupancy at center = %v, want 1", got)
	}
	d, err := s.ComputeDistance(pointTensor(0, 0, 2))
	if err != nil {
		t.Fatalf("ComputeDistance: %v", err)
	}
	if got := d.Data().([]float32)[0]; got < 1.4 || got > 1.6 {
		t.Errorf("distance from (0 0 2) = %v, want about 1.5", got)
	}
}

func TestCylinderTessellation(t *testing.T) {
	m, err := Cylinder(2, 0.5, 24)
	if err != nil {
		t.Fatalf("Cylinder: %v", err)
	}

	s := raycast.NewScene()
	if _, err := s.AddTriangles(m.Vertices, m.Triangles); err != nil {
		t.Fatalf("AddTriangles: %v", err)
	}
	occ, err := s.ComputeOccupancy(pointTensor(0, 0, 0))
	if err != nil {
		t.Fatalf("ComputeOccupancy: %v", err)
	}
	if got := occ.Data().([]float32)[0]; got != 1 {
		t.Errorf("occupancy at center = %v, want 1", got)
	}
	occ, err = s.ComputeOccupancy(pointTensor(0, 0, 1.5))
	if err != nil {
		t.Fatalf("ComputeOccupancy: %v", err)
	}
	if got := occ.Data().([]float32)[0]; got != 0 {
		t.Errorf("occupancy above the cap = %v, want 0", got)
	}
}

func TestTranslate(t *testing.T) {
	m := Cuboid(1, 1, 1).Translate(3, 0, 0)

	s := raycast.NewScene()
	if _, err := s.AddTriangles(m.Vertices, m.Triangles); err != nil {
		t.Fatalf("AddTriangles: %v", err)
	}
	occ, err := s.ComputeOccupancy(pointTensor(3, 0, 0))
	if err != nil {
		t.Fatalf("ComputeOccupancy: %v", err)
	}
	if got := occ.Data().([]float32)[0]; got != 1 {
		t.Errorf("occupancy at translated center = %v, want 1", got)
	}
	occ, err = s.ComputeOccupancy(pointTensor(0, 0, 0))
	if err != nil {
		t.Fatalf("ComputeOccupancy: %v", err)
	}
	if got := occ.Data().([]float32)[0]; got != 0 {
		t.Errorf("occupancy at origin = %v, want 0", got)
	}
}

func TestFromSDFNil(t *testing.T) {
	if _, err := FromSDF(nil, 16); err == nil {
		t.Fatal("expected error for nil sdf")
	}
}
