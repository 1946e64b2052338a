// Package meshgen produces triangle buffers for the raycast engine,
// either analytically or by tessellating signed distance fields from
// the github.com/deadsy/sdfx CAD library.
package meshgen

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gorgonia.org/tensor"
)

// DefaultCells is the marching cubes resolution used when the caller
// passes cells <= 0.
const DefaultCells = 64

// Mesh holds triangle buffers in the layout Scene.AddTriangles
// expects: float32 vertices with shape (n, 3) and uint32 indices with
// shape (m, 3).
type Mesh struct {
	Vertices  *tensor.Dense
	Triangles *tensor.Dense
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int { return m.Triangles.Shape()[0] }

// Translate shifts every vertex by (dx, dy, dz) and returns the mesh.
func (m *Mesh) Translate(dx, dy, dz float32) *Mesh {
	v := m.Vertices.Data().([]float32)
	for i := 0; i < len(v); i += 3 {
		v[i] += dx
		v[i+1] += dy
		v[i+2] += dz
	}
	return m
}

// FromSDF tessellates a signed distance field with uniform marching
// cubes. The result is a triangle soup: three vertices per triangle,
// indices running sequentially.
func FromSDF(s sdf.SDF3, cells int) (*Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("meshgen: nil sdf")
	}
	if cells <= 0 {
		cells = DefaultCells
	}

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	vertices := make([]float32, 0, len(triangles)*9)
	indices := make([]uint32, 0, len(triangles)*3)
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &Mesh{
		Vertices: tensor.New(tensor.WithShape(len(triangles)*3, 3),
			tensor.WithBacking(vertices)),
		Triangles: tensor.New(tensor.WithShape(len(triangles), 3),
			tensor.WithBacking(indices)),
	}, nil
}

// Sphere tessellates a sphere of the given radius centered at the
// origin.
func Sphere(radius float64, cells int) (*Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("meshgen: sphere: %w", err)
	}
	return FromSDF(s, cells)
}

// Box tessellates an axis-aligned box with the given side lengths
// centered at the origin. For an exact box prefer Cuboid; this path
// exists for boxes feeding further SDF operations.
func Box(x, y, z float64, cells int) (*Mesh, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("meshgen: box: %w", err)
	}
	return FromSDF(s, cells)
}

// Cylinder tessellates a z-axis aligned cylinder with the given
// height and radius centered at the origin.
func Cylinder(height, radius float64, cells int) (*Mesh, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("meshgen: cylinder: %w", err)
	}
	return FromSDF(s, cells)
}

// Cuboid returns the exact twelve-triangle mesh of an axis-aligned
// box with the given side lengths centered at the origin, wound
// counter-clockwise seen from outside.
func Cuboid(x, y, z float32) *Mesh {
	hx, hy, hz := x/2, y/2, z/2
	vertices := []float32{
		-hx, -hy, -hz,
		hx, -hy, -hz,
		hx, hy, -hz,
		-hx, hy, -hz,
		-hx, -hy, hz,
		hx, -hy, hz,
		hx, hy, hz,
		-hx, hy, hz,
	}
	indices := []uint32{
		0, 3, 2, 0, 2, 1,
		4, 5, 6, 4, 6, 7,
		0, 1, 5, 0, 5, 4,
		3, 7, 6, 3, 6, 2,
		0, 4, 7, 0, 7, 3,
		1, 2, 6, 1, 6, 5,
	}
	return &Mesh{
		Vertices:  tensor.New(tensor.WithShape(8, 3), tensor.WithBacking(vertices)),
		Triangles: tensor.New(tensor.WithShape(12, 3), tensor.WithBacking(indices)),
	}
}
