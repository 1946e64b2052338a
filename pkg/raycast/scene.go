// Package raycast implements a ray-query engine over triangulated
// surfaces: nearest-hit casting, intersection counting, closest-point
// search, and the distance and occupancy predicates derived from
// them.
//
// A Scene accumulates triangle geometry and lazily (re)builds its
// spatial index on the first query after a change. Query inputs and
// outputs are gorgonia.org/tensor dense arrays; every operation
// validates shape, dtype and storage before touching the index and
// preserves the leading ("batch") shape of its input.
package raycast

import (
	"fmt"
	"time"

	"gorgonia.org/tensor"

	"github.com/chazu/resin/pkg/kernel"
	"github.com/chazu/resin/pkg/kernel/bvh"
)

// InvalidID marks "no hit" and "no surface" in every id output.
// Callers must compare against it rather than assuming any finite id
// is invalid.
const InvalidID = kernel.InvalidID

// maxBatchSize bounds the scratch memory of one query call. Larger
// inputs are processed in sequential batches of this many rays, which
// is observationally invisible: results are identical for any batch
// size.
const maxBatchSize = 1 << 20

// Scene is a collection of triangle surfaces with a spatial index
// answering ray and proximity queries.
//
// A Scene is not safe for concurrent use; callers must serialize
// access. Adding geometry marks the index stale and the next query
// rebuilds it before any batch is issued.
type Scene struct {
	index     kernel.Index
	geoms     []*kernel.Geometry
	committed bool

	// batchSize is maxBatchSize outside of tests.
	batchSize int
}

// NewScene returns an empty scene backed by the bvh index.
func NewScene() *Scene {
	return NewSceneWith(bvh.New())
}

// NewSceneWith returns an empty scene backed by a caller-supplied
// index.
func NewSceneWith(index kernel.Index) *Scene {
	return &Scene{index: index, batchSize: maxBatchSize}
}

// AddTriangles copies a triangle surface into the scene and returns
// its surface id. vertices must be float32 with shape (n, 3) and
// indices uint32 with shape (m, 3); both are copied, so the caller
// may reuse or free them. Ids are dense, starting at zero, in
// insertion order. An empty mesh is valid: it gets an id and never
// appears in any query result.
func (s *Scene) AddTriangles(vertices, indices *tensor.Dense) (uint32, error) {
	nv, err := checkBuffer("vertices", vertices, tensor.Float32)
	if err != nil {
		return InvalidID, err
	}
	nt, err := checkBuffer("indices", indices, tensor.Uint32)
	if err != nil {
		return InvalidID, err
	}
	if uint64(nv) > uint64(^uint32(0)) {
		return InvalidID, fmt.Errorf("%w: %d vertices, the id space addresses %d",
			ErrCapacityExceeded, nv, ^uint32(0))
	}

	var vbuf []float32
	var ibuf []uint32
	if nv > 0 {
		vbuf = float32Data(vertices)
	}
	if nt > 0 {
		ibuf = uint32Data(indices)
	}

	g := kernel.NewTriangleGeometry(vbuf, ibuf)
	id := s.index.Attach(g)
	s.geoms = append(s.geoms, g)
	s.committed = false

	Logger().Debug("geometry added",
		"surface", id, "vertices", nv, "triangles", nt)
	return id, nil
}

// SurfaceCount returns the number of surfaces added so far, empty
// ones included.
func (s *Scene) SurfaceCount() int { return len(s.geoms) }

// commit rebuilds the index if geometry changed since the last query.
// Every query calls it first, so queries always observe all added
// geometry.
func (s *Scene) commit() {
	if s.committed {
		return
	}
	start := time.Now()
	s.index.Commit()
	s.committed = true

	tris := 0
	for _, g := range s.geoms {
		tris += g.TriangleCount()
	}
	Logger().Debug("index committed",
		"surfaces", len(s.geoms), "triangles", tris,
		"elapsed", time.Since(start))
}
