package raycast

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/chewxy/math32"
	"gorgonia.org/tensor"

	"github.com/chazu/resin/pkg/kernel"
)

// ClosestPoints holds the per-point outputs of ComputeClosestPoints.
type ClosestPoints struct {
	Points       *tensor.Dense // float32, leading shape + (3)
	GeometryIDs  *tensor.Dense // uint32, leading query shape
	PrimitiveIDs *tensor.Dense // uint32, leading query shape
}

// ComputeClosestPoints finds the nearest surface point for each query
// point. points must be float32 with shape (..., 3). On a scene
// without geometry every id is InvalidID and every point is zero.
func (s *Scene) ComputeClosestPoints(points *tensor.Dense) (*ClosestPoints, error) {
	n, err := checkQuery("points", points, tensor.Float32, 3)
	if err != nil {
		return nil, err
	}
	s.commit()

	out := make([]float32, 3*n)
	geomIDs := make([]uint32, n)
	primIDs := make([]uint32, n)

	var data []float32
	if n > 0 {
		data = float32Data(points)
	}

	// Each point runs an independent shrinking-radius search; the
	// candidate state lives on this frame, so points can run in
	// parallel.
	forEachPoint(n, func(i int) {
		p := kernel.Vec3{X: data[3*i], Y: data[3*i+1], Z: data[3*i+2]}
		geomIDs[i] = kernel.InvalidID
		primIDs[i] = kernel.InvalidID

		q := kernel.PointQuery{Point: p, Radius: math32.Inf(1)}
		var best kernel.Vec3
		s.index.PointQuery(&q, func(geomID, primID uint32) bool {
			g := s.geoms[geomID]
			if g.Kind() != kernel.GeomTriangles {
				panic(fmt.Sprintf("raycast: surface %d has kind %d, closest-point search supports triangles only",
					geomID, g.Kind()))
			}
			a, b, c := g.Triangle(primID)
			cp := closestPointTriangle(p, a, b, c)
			d := cp.Sub(p).Length()
			if d >= q.Radius {
				return false
			}
			q.Radius = d
			best = cp
			geomIDs[i] = geomID
			primIDs[i] = primID
			return true
		})

		out[3*i] = best.X
		out[3*i+1] = best.Y
		out[3*i+2] = best.Z
	})

	shp := points.Shape()
	return &ClosestPoints{
		Points:       tensor.New(tensor.WithShape(resultShape(shp, 3)...), tensor.WithBacking(out)),
		GeometryIDs:  tensor.New(tensor.WithShape(resultShape(shp)...), tensor.WithBacking(geomIDs)),
		PrimitiveIDs: tensor.New(tensor.WithShape(resultShape(shp)...), tensor.WithBacking(primIDs)),
	}, nil
}

// closestPointTriangle returns the point of triangle abc closest to
// p, projecting onto the face, an edge or a corner as the voronoi
// region of p dictates.
func closestPointTriangle(p, a, b, c kernel.Vec3) kernel.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Scale(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Scale(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Scale(w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Scale(v)).Add(ac.Scale(w))
}

// pointParallelCutoff is the query size above which closest-point
// searches fan out across workers.
const pointParallelCutoff = 256

func forEachPoint(n int, fn func(i int)) {
	if n < pointParallelCutoff {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	workers := runtime.NumCPU()
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}
	wg.Wait()
}
