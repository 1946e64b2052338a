package bvh

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/chazu/resin/pkg/kernel"
)

// randomSoup builds a triangle soup of n triangles with corners in
// [-1,1]^3 and sequential indices.
func randomSoup(r *rand.Rand, n int) *kernel.Geometry {
	verts := make([]float32, 0, 9*n)
	idx := make([]uint32, 0, 3*n)
	for i := 0; i < 3*n; i++ {
		verts = append(verts,
			float32(r.Float64()*2-1),
			float32(r.Float64()*2-1),
			float32(r.Float64()*2-1))
		idx = append(idx, uint32(i))
	}
	return kernel.NewTriangleGeometry(verts, idx)
}

func randomRay(r *rand.Rand, id uint32) kernel.RayHit {
	return kernel.RayHit{
		Ray: kernel.Ray{
			Org: kernel.Vec3{
				X: float32(r.Float64()*4 - 2),
				Y: float32(r.Float64()*4 - 2),
				Z: float32(r.Float64()*4 - 2),
			},
			Dir: kernel.Vec3{
				X: float32(r.Float64()*2 - 1),
				Y: float32(r.Float64()*2 - 1),
				Z: float32(r.Float64()*2 - 1),
			},
			TFar: math32.Inf(1),
			ID:   id,
		},
		Hit: kernel.Hit{GeomID: kernel.InvalidID, PrimID: kernel.InvalidID},
	}
}

// bruteNearest resolves one ray by testing every triangle.
func bruteNearest(geoms []*kernel.Geometry, rh *kernel.RayHit) {
	for gi, g := range geoms {
		for p := 0; p < g.TriangleCount(); p++ {
			a, b, c := g.Triangle(uint32(p))
			t, u, v, ok := intersectTriangle(&rh.Ray, a, b, c)
			if !ok {
				continue
			}
			rh.Hit = kernel.Hit{
				GeomID: uint32(gi), PrimID: uint32(p),
				U: u, V: v,
				Ng: b.Sub(a).Cross(c.Sub(a)),
			}
			rh.Ray.TFar = t
		}
	}
}

func TestIntersectMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	g0 := randomSoup(r, 150)
	g1 := randomSoup(r, 70)
	geoms := []*kernel.Geometry{g0, g1}

	tree := New()
	tree.Attach(g0)
	tree.Attach(g1)
	tree.Commit()

	// Enough rays to cross the parallel cutoff.
	const numRays = 1000
	batch := make([]kernel.RayHit, numRays)
	want := make([]kernel.RayHit, numRays)
	for i := range batch {
		batch[i] = randomRay(r, uint32(i))
		want[i] = batch[i]
	}

	tree.Intersect(nil, batch)
	for i := range want {
		bruteNearest(geoms, &want[i])
	}

	hits := 0
	for i := range batch {
		got, exp := &batch[i], &want[i]
		gotHit := got.Hit.GeomID != kernel.InvalidID
		expHit := exp.Hit.GeomID != kernel.InvalidID
		if gotHit != expHit {
			t.Fatalf("ray %d: hit = %v, brute force = %v", i, gotHit, expHit)
		}
		if !gotHit {
			continue
		}
		hits++
		if got.Ray.TFar != exp.Ray.TFar {
			t.Fatalf("ray %d: t = %v, brute force = %v", i, got.Ray.TFar, exp.Ray.TFar)
		}
		// Ids may differ only when two triangles tie exactly in t.
		if got.Hit.GeomID != exp.Hit.GeomID || got.Hit.PrimID != exp.Hit.PrimID {
			t.Fatalf("ray %d: hit (%d,%d), brute force (%d,%d) at t=%v",
				i, got.Hit.GeomID, got.Hit.PrimID,
				exp.Hit.GeomID, exp.Hit.PrimID, got.Ray.TFar)
		}
	}
	if hits == 0 {
		t.Fatal("no ray hit anything, test scene is broken")
	}
	t.Logf("%d/%d rays hit", hits, numRays)
}

func TestIntersectFilterVisitsEveryCandidate(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	g := randomSoup(r, 120)

	tree := New()
	tree.Attach(g)
	tree.Commit()

	const numRays = 400
	batch := make([]kernel.RayHit, numRays)
	for i := range batch {
		batch[i] = randomRay(r, uint32(i))
	}

	counts := make([]int, numRays)
	ctx := &kernel.IntersectContext{
		Filter: func(ray *kernel.Ray, _ float32, _ *kernel.Hit) bool {
			counts[ray.ID]++
			return false
		},
	}
	tree.Intersect(ctx, batch)

	for i := range batch {
		want := 0
		for p := 0; p < g.TriangleCount(); p++ {
			a, b, c := g.Triangle(uint32(p))
			if _, _, _, ok := intersectTriangle(&batch[i].Ray, a, b, c); ok {
				want++
			}
		}
		if counts[i] != want {
			t.Fatalf("ray %d: filter saw %d candidates, brute force found %d",
				i, counts[i], want)
		}
		// A rejecting filter must never commit.
		if batch[i].Hit.GeomID != kernel.InvalidID {
			t.Fatalf("ray %d: hit committed despite rejecting filter", i)
		}
		if !math32.IsInf(batch[i].Ray.TFar, 1) {
			t.Fatalf("ray %d: TFar shrank to %v despite rejecting filter", i, batch[i].Ray.TFar)
		}
	}
}

func TestEmptyTree(t *testing.T) {
	tree := New()
	tree.Commit()

	batch := []kernel.RayHit{randomRay(rand.New(rand.NewSource(1)), 0)}
	orig := batch[0]
	tree.Intersect(nil, batch)
	if batch[0] != orig {
		t.Error("Intersect on empty tree modified the ray")
	}

	visited := 0
	q := kernel.PointQuery{Radius: math32.Inf(1)}
	tree.PointQuery(&q, func(_, _ uint32) bool {
		visited++
		return false
	})
	if visited != 0 {
		t.Errorf("PointQuery on empty tree visited %d primitives", visited)
	}
}

func TestPointQueryVisitsAllWithinInfiniteRadius(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	g0 := randomSoup(r, 90)
	g1 := randomSoup(r, 33)

	tree := New()
	tree.Attach(g0)
	tree.Attach(g1)
	tree.Commit()

	seen := make(map[[2]uint32]int)
	q := kernel.PointQuery{Point: kernel.Vec3{X: 0.1, Y: -0.2, Z: 0.3}, Radius: math32.Inf(1)}
	tree.PointQuery(&q, func(geomID, primID uint32) bool {
		seen[[2]uint32{geomID, primID}]++
		return false
	})

	total := g0.TriangleCount() + g1.TriangleCount()
	if len(seen) != total {
		t.Fatalf("visited %d distinct primitives, want %d", len(seen), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("primitive %v visited %d times, want once", id, n)
		}
	}
}

func TestPointQueryShrinkingFindsMinimum(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	g := randomSoup(r, 200)

	tree := New()
	tree.Attach(g)
	tree.Commit()

	// The visitor shrinks the radius to the nearest triangle corner.
	// Corner distance upper-bounds triangle distance, so box pruning
	// against it stays conservative and the final minimum must match
	// an exhaustive scan.
	cornerDist := func(p kernel.Vec3, prim uint32) float32 {
		a, b, c := g.Triangle(prim)
		d := a.Sub(p).Length()
		d = math32.Min(d, b.Sub(p).Length())
		return math32.Min(d, c.Sub(p).Length())
	}

	for trial := 0; trial < 20; trial++ {
		p := kernel.Vec3{
			X: float32(r.Float64()*4 - 2),
			Y: float32(r.Float64()*4 - 2),
			Z: float32(r.Float64()*4 - 2),
		}
		q := kernel.PointQuery{Point: p, Radius: math32.Inf(1)}
		tree.PointQuery(&q, func(_, primID uint32) bool {
			if d := cornerDist(p, primID); d < q.Radius {
				q.Radius = d
				return true
			}
			return false
		})

		want := math32.Inf(1)
		for prim := 0; prim < g.TriangleCount(); prim++ {
			want = math32.Min(want, cornerDist(p, uint32(prim)))
		}
		if q.Radius != want {
			t.Fatalf("trial %d: pruned minimum %v, exhaustive minimum %v", trial, q.Radius, want)
		}
	}
}

func BenchmarkIntersect(b *testing.B) {
	r := rand.New(rand.NewSource(5))
	g := randomSoup(r, 2000)
	tree := New()
	tree.Attach(g)
	tree.Commit()

	batch := make([]kernel.RayHit, 1024)
	for i := range batch {
		batch[i] = randomRay(r, uint32(i))
	}
	work := make([]kernel.RayHit, len(batch))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(work, batch)
		tree.Intersect(nil, work)
	}
}
