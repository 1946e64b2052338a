package bvh

import (
	"runtime"
	"sync"

	"github.com/chazu/resin/pkg/kernel"
)

// parallelCutoff is the batch size above which Intersect fans the
// rays out across workers. Filters must tolerate concurrent calls for
// distinct rays; per-ray state indexed by Ray.ID satisfies that.
const parallelCutoff = 256

// triEpsilon rejects rays parallel to the triangle plane.
const triEpsilon = 1e-6

// Intersect resolves every ray of the batch against the committed
// tree. See kernel.Index for the calling contract.
func (t *Tree) Intersect(ctx *kernel.IntersectContext, batch []kernel.RayHit) {
	if t.root == nil || len(batch) == 0 {
		return
	}
	var filter kernel.Filter
	if ctx != nil {
		filter = ctx.Filter
	}

	if len(batch) < parallelCutoff {
		for i := range batch {
			t.intersect1(&batch[i], filter)
		}
		return
	}

	workers := runtime.NumCPU()
	chunk := (len(batch) + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < len(batch); lo += chunk {
		hi := min(lo+chunk, len(batch))
		wg.Add(1)
		go func(rays []kernel.RayHit) {
			defer wg.Done()
			for i := range rays {
				t.intersect1(&rays[i], filter)
			}
		}(batch[lo:hi])
	}
	wg.Wait()
}

// stackEntry remembers the box entry parameter alongside the node so
// popped subtrees can be discarded cheaply once the ray's far bound
// has shrunk below it.
type stackEntry struct {
	n    *node
	tmin float32
}

func (t *Tree) intersect1(rh *kernel.RayHit, filter kernel.Filter) {
	org := rh.Ray.Org
	invDir := kernel.Vec3{X: 1 / rh.Ray.Dir.X, Y: 1 / rh.Ray.Dir.Y, Z: 1 / rh.Ray.Dir.Z}

	tmin, ok := t.root.bounds.hit(org, invDir, rh.Ray.TNear, rh.Ray.TFar)
	if !ok {
		return
	}

	var stackArr [64]stackEntry
	stack := append(stackArr[:0], stackEntry{t.root, tmin})

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.tmin > rh.Ray.TFar {
			continue
		}

		if e.n.leaf() {
			for i := range e.n.prims {
				t.intersectPrim(rh, &e.n.prims[i], filter)
			}
			continue
		}

		lt, lok := e.n.left.bounds.hit(org, invDir, rh.Ray.TNear, rh.Ray.TFar)
		rt, rok := e.n.right.bounds.hit(org, invDir, rh.Ray.TNear, rh.Ray.TFar)
		switch {
		case lok && rok:
			// Push the far child first so the near child pops next.
			if lt <= rt {
				stack = append(stack, stackEntry{e.n.right, rt}, stackEntry{e.n.left, lt})
			} else {
				stack = append(stack, stackEntry{e.n.left, lt}, stackEntry{e.n.right, rt})
			}
		case lok:
			stack = append(stack, stackEntry{e.n.left, lt})
		case rok:
			stack = append(stack, stackEntry{e.n.right, rt})
		}
	}
}

func (t *Tree) intersectPrim(rh *kernel.RayHit, p *primRef, filter kernel.Filter) {
	a, b, c := t.geoms[p.geomID].Triangle(p.primID)
	hitT, u, v, ok := intersectTriangle(&rh.Ray, a, b, c)
	if !ok {
		return
	}
	hit := kernel.Hit{
		GeomID: p.geomID,
		PrimID: p.primID,
		U:      u,
		V:      v,
		Ng:     b.Sub(a).Cross(c.Sub(a)),
	}
	if filter != nil && !filter(&rh.Ray, hitT, &hit) {
		return
	}
	rh.Hit = hit
	rh.Ray.TFar = hitT
}

// intersectTriangle runs the Moller-Trumbore test. It reports the ray
// parameter and barycentric coordinates when the intersection lies
// inside the triangle and t is within [TNear, TFar]. Boundary hits
// (u or v exactly 0 or 1) are accepted, so a ray through a shared
// edge reports both triangles.
func intersectTriangle(ray *kernel.Ray, a, b, c kernel.Vec3) (t, u, v float32, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)

	pvec := ray.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -triEpsilon && det < triEpsilon {
		return 0, 0, 0, false
	}
	inv := 1 / det

	tvec := ray.Org.Sub(a)
	u = tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(e1)
	v = ray.Dir.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(qvec) * inv
	if t < ray.TNear || t > ray.TFar {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
