package raycast

import (
	"github.com/chewxy/math32"
	"gorgonia.org/tensor"

	"github.com/chazu/resin/pkg/kernel"
)

// prevHit is the dedup state of one ray: the last counted
// (surface, primitive, t) triple. Sentinel ids mean "no previous
// hit".
type prevHit struct {
	geomID uint32
	primID uint32
	t      float32
}

// CountIntersections counts surface crossings along each ray. rays
// must be float32 with shape (..., 6): origin in elements 0-2,
// direction in elements 3-5; the count covers the whole half-line.
// The output is int32 with the leading query shape.
//
// An unfiltered count would report a crossing through a shared
// triangle edge or vertex twice. A candidate is therefore only
// counted when its surface id differs from the last counted hit of
// that ray, or when both its primitive id and its t differ; other
// candidates are treated as duplicate reports of an already counted
// crossing. The count is exact for closed non-self-intersecting
// geometry up to that heuristic; duplicate reports that differ in t
// still count twice.
func (s *Scene) CountIntersections(rays *tensor.Dense) (*tensor.Dense, error) {
	n, err := checkQuery("rays", rays, tensor.Float32, 6)
	if err != nil {
		return nil, err
	}
	s.commit()

	counts := make([]int32, n)

	// Dedup state lives for exactly one call, indexed by a ray id
	// that is global across batches.
	prev := make([]prevHit, n)
	for i := range prev {
		prev[i] = prevHit{geomID: kernel.InvalidID, primID: kernel.InvalidID}
	}
	ctx := &kernel.IntersectContext{
		Filter: func(ray *kernel.Ray, t float32, hit *kernel.Hit) bool {
			p := &prev[ray.ID]
			if hit.GeomID != p.geomID || (hit.PrimID != p.primID && t != p.t) {
				counts[ray.ID]++
				*p = prevHit{geomID: hit.GeomID, primID: hit.PrimID, t: t}
			}
			// Never commit: the far bound must not shrink, so
			// traversal reaches every crossing along the ray.
			return false
		},
	}

	var data []float32
	if n > 0 {
		data = float32Data(rays)
	}
	batch := make([]kernel.RayHit, min(n, s.batchSize))

	for base := 0; base < n; base += s.batchSize {
		m := min(s.batchSize, n-base)
		b := batch[:m]
		for i := 0; i < m; i++ {
			row := data[(base+i)*6 : (base+i)*6+6]
			b[i] = kernel.RayHit{
				Ray: kernel.Ray{
					Org:  kernel.Vec3{X: row[0], Y: row[1], Z: row[2]},
					Dir:  kernel.Vec3{X: row[3], Y: row[4], Z: row[5]},
					TFar: math32.Inf(1),
					ID:   uint32(base + i),
				},
				Hit: kernel.Hit{GeomID: kernel.InvalidID, PrimID: kernel.InvalidID},
			}
		}
		s.index.Intersect(ctx, b)
	}

	return tensor.New(tensor.WithShape(resultShape(rays.Shape())...), tensor.WithBacking(counts)), nil
}
