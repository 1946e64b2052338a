package kernel

// GeomKind identifies the primitive type a Geometry holds. Query
// engines dispatch on it, so further kinds can be added without
// touching the Index implementations.
type GeomKind uint8

const (
	// GeomTriangles is an indexed triangle surface.
	GeomTriangles GeomKind = iota
)

// Geometry is an immutable surface held by an Index. All arrays are
// flat: vertices has 3 floats per vertex (x,y,z), indices has 3
// uint32s per triangle. Buffers are allocated with one trailing
// element of spare capacity, matching the padding contract of
// vectorized index backends.
type Geometry struct {
	kind     GeomKind
	vertices []float32
	indices  []uint32
}

// NewTriangleGeometry builds a triangle geometry from flat vertex and
// index buffers. Both buffers are copied; the caller keeps ownership
// of its slices. Empty buffers are valid and produce a geometry that
// no query ever reports.
func NewTriangleGeometry(vertices []float32, indices []uint32) *Geometry {
	g := &Geometry{
		kind:     GeomTriangles,
		vertices: make([]float32, len(vertices), len(vertices)+1),
		indices:  make([]uint32, len(indices), len(indices)+1),
	}
	copy(g.vertices, vertices)
	copy(g.indices, indices)
	return g
}

// Kind returns the primitive type.
func (g *Geometry) Kind() GeomKind { return g.kind }

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int { return len(g.vertices) / 3 }

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int { return len(g.indices) / 3 }

// IsEmpty returns true if the geometry has no primitives.
func (g *Geometry) IsEmpty() bool { return len(g.indices) == 0 }

// Vertex returns the position of vertex i.
func (g *Geometry) Vertex(i int) Vec3 {
	return Vec3{g.vertices[3*i], g.vertices[3*i+1], g.vertices[3*i+2]}
}

// Triangle returns the corner positions of triangle prim in index
// buffer order.
func (g *Geometry) Triangle(prim uint32) (a, b, c Vec3) {
	i := 3 * int(prim)
	return g.Vertex(int(g.indices[i])),
		g.Vertex(int(g.indices[i+1])),
		g.Vertex(int(g.indices[i+2]))
}
