package raycast

import (
	"github.com/chewxy/math32"
	"gorgonia.org/tensor"

	"github.com/chazu/resin/pkg/kernel"
)

// RayHits holds the per-ray outputs of CastRays and CastSegments.
// THit is the ray parameter of the nearest hit, or the far bound of
// the query mode for misses. Missed rays carry InvalidID ids and
// zeroed barycentrics and normals.
type RayHits struct {
	THit             *tensor.Dense // float32, leading query shape
	GeometryIDs      *tensor.Dense // uint32, leading query shape
	PrimitiveIDs     *tensor.Dense // uint32, leading query shape
	PrimitiveUVs     *tensor.Dense // float32, leading shape + (2)
	PrimitiveNormals *tensor.Dense // float32, leading shape + (3), unit length
}

// CastRays finds the nearest intersection for each ray. rays must be
// float32 with shape (..., 6): origin in elements 0-2, direction in
// elements 3-5. Directions need not be unit length; t is measured in
// direction lengths. Misses report THit = +Inf.
func (s *Scene) CastRays(rays *tensor.Dense) (*RayHits, error) {
	return s.cast("rays", rays, false)
}

// CastSegments intersects each line segment. segments must be float32
// with shape (..., 6): start point in elements 0-2, end point in
// elements 3-5. Hits report t in [0, 1] along the segment; misses
// report THit = 1.
func (s *Scene) CastSegments(segments *tensor.Dense) (*RayHits, error) {
	return s.cast("segments", segments, true)
}

func (s *Scene) cast(name string, lines *tensor.Dense, segment bool) (*RayHits, error) {
	n, err := checkQuery(name, lines, tensor.Float32, 6)
	if err != nil {
		return nil, err
	}
	s.commit()

	tHit := make([]float32, n)
	geomIDs := make([]uint32, n)
	primIDs := make([]uint32, n)
	uvs := make([]float32, 2*n)
	normals := make([]float32, 3*n)

	far := math32.Inf(1)
	if segment {
		far = 1
	}

	var data []float32
	if n > 0 {
		data = float32Data(lines)
	}
	batch := make([]kernel.RayHit, min(n, s.batchSize))

	for base := 0; base < n; base += s.batchSize {
		m := min(s.batchSize, n-base)
		rays := batch[:m]
		for i := 0; i < m; i++ {
			row := data[(base+i)*6 : (base+i)*6+6]
			org := kernel.Vec3{X: row[0], Y: row[1], Z: row[2]}
			dir := kernel.Vec3{X: row[3], Y: row[4], Z: row[5]}
			if segment {
				dir = dir.Sub(org)
			}
			rays[i] = kernel.RayHit{
				Ray: kernel.Ray{Org: org, Dir: dir, TFar: far, ID: uint32(i)},
				Hit: kernel.Hit{GeomID: kernel.InvalidID, PrimID: kernel.InvalidID},
			}
		}

		s.index.Intersect(nil, rays)

		for i := 0; i < m; i++ {
			out := base + i
			rh := &rays[i]
			if rh.Hit.GeomID == kernel.InvalidID {
				tHit[out] = far
				geomIDs[out] = kernel.InvalidID
				primIDs[out] = kernel.InvalidID
				continue
			}
			tHit[out] = rh.Ray.TFar
			geomIDs[out] = rh.Hit.GeomID
			primIDs[out] = rh.Hit.PrimID
			uvs[2*out] = rh.Hit.U
			uvs[2*out+1] = rh.Hit.V

			ng := rh.Hit.Ng
			l := ng.Length()
			if l == 0 {
				// A zero-length face normal means a degenerate
				// triangle. Flag it and emit zero instead of NaN.
				Logger().Warn("degenerate geometric normal",
					"surface", rh.Hit.GeomID, "primitive", rh.Hit.PrimID)
				continue
			}
			normals[3*out] = ng.X / l
			normals[3*out+1] = ng.Y / l
			normals[3*out+2] = ng.Z / l
		}
	}

	shp := lines.Shape()
	return &RayHits{
		THit:             tensor.New(tensor.WithShape(resultShape(shp)...), tensor.WithBacking(tHit)),
		GeometryIDs:      tensor.New(tensor.WithShape(resultShape(shp)...), tensor.WithBacking(geomIDs)),
		PrimitiveIDs:     tensor.New(tensor.WithShape(resultShape(shp)...), tensor.WithBacking(primIDs)),
		PrimitiveUVs:     tensor.New(tensor.WithShape(resultShape(shp, 2)...), tensor.WithBacking(uvs)),
		PrimitiveNormals: tensor.New(tensor.WithShape(resultShape(shp, 3)...), tensor.WithBacking(normals)),
	}, nil
}
