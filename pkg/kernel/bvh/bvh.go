// Package bvh implements kernel.Index with a two-child bounding
// volume hierarchy. The tree is built by median splits over primitive
// centroids and traversed iteratively, visiting near children first.
package bvh

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/chazu/resin/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Index = (*Tree)(nil)

// leafTarget bounds the number of primitives per leaf.
const leafTarget = 8

// aabb is an axis-aligned bounding box.
type aabb struct {
	min, max kernel.Vec3
}

func emptyAABB() aabb {
	inf := math32.Inf(1)
	return aabb{
		min: kernel.Vec3{X: inf, Y: inf, Z: inf},
		max: kernel.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

func (b *aabb) extend(v kernel.Vec3) {
	b.min = b.min.Min(v)
	b.max = b.max.Max(v)
}

func (b *aabb) union(o aabb) {
	b.min = b.min.Min(o.min)
	b.max = b.max.Max(o.max)
}

// hit runs the slab test against the interval [tnear, tfar] and
// returns the entry parameter. A zero direction component yields an
// infinite or NaN slab bound; the comparisons below ignore NaN, which
// conservatively keeps the box.
func (b *aabb) hit(org, invDir kernel.Vec3, tnear, tfar float32) (float32, bool) {
	tmin, tmax := tnear, tfar

	t0 := (b.min.X - org.X) * invDir.X
	t1 := (b.max.X - org.X) * invDir.X
	if invDir.X < 0 {
		t0, t1 = t1, t0
	}
	if t0 > tmin {
		tmin = t0
	}
	if t1 < tmax {
		tmax = t1
	}
	if tmax < tmin {
		return 0, false
	}

	t0 = (b.min.Y - org.Y) * invDir.Y
	t1 = (b.max.Y - org.Y) * invDir.Y
	if invDir.Y < 0 {
		t0, t1 = t1, t0
	}
	if t0 > tmin {
		tmin = t0
	}
	if t1 < tmax {
		tmax = t1
	}
	if tmax < tmin {
		return 0, false
	}

	t0 = (b.min.Z - org.Z) * invDir.Z
	t1 = (b.max.Z - org.Z) * invDir.Z
	if invDir.Z < 0 {
		t0, t1 = t1, t0
	}
	if t0 > tmin {
		tmin = t0
	}
	if t1 < tmax {
		tmax = t1
	}
	if tmax < tmin {
		return 0, false
	}

	return tmin, true
}

// distanceSq returns the squared distance from p to the box, zero if
// p is inside.
func (b *aabb) distanceSq(p kernel.Vec3) float32 {
	var d float32
	if v := b.min.X - p.X; v > 0 {
		d += v * v
	} else if v := p.X - b.max.X; v > 0 {
		d += v * v
	}
	if v := b.min.Y - p.Y; v > 0 {
		d += v * v
	} else if v := p.Y - b.max.Y; v > 0 {
		d += v * v
	}
	if v := b.min.Z - p.Z; v > 0 {
		d += v * v
	} else if v := p.Z - b.max.Z; v > 0 {
		d += v * v
	}
	return d
}

// primRef is one triangle entry of the build input.
type primRef struct {
	geomID   uint32
	primID   uint32
	bounds   aabb
	centroid kernel.Vec3
}

// node is one tree node. Leaves own a slice of primRefs and have nil
// children.
type node struct {
	bounds      aabb
	left, right *node
	prims       []primRef
}

func (n *node) leaf() bool { return n.left == nil }

// Tree is a BVH over every attached geometry. Attach geometry, call
// Commit, then query. Commit rebuilds from scratch; queries must not
// run concurrently with it.
type Tree struct {
	geoms []*kernel.Geometry
	root  *node
}

// New returns an empty tree.
func New() *Tree { return &Tree{} }

// Attach registers a geometry and returns its id.
func (t *Tree) Attach(g *kernel.Geometry) uint32 {
	t.geoms = append(t.geoms, g)
	return uint32(len(t.geoms) - 1)
}

// Commit rebuilds the hierarchy over all attached geometry.
func (t *Tree) Commit() {
	var prims []primRef
	for gi, g := range t.geoms {
		for p := 0; p < g.TriangleCount(); p++ {
			a, b, c := g.Triangle(uint32(p))
			box := emptyAABB()
			box.extend(a)
			box.extend(b)
			box.extend(c)
			prims = append(prims, primRef{
				geomID:   uint32(gi),
				primID:   uint32(p),
				bounds:   box,
				centroid: a.Add(b).Add(c).Scale(1.0 / 3.0),
			})
		}
	}
	if len(prims) == 0 {
		t.root = nil
		return
	}
	t.root = build(prims)
}

// build recursively partitions prims with a median split on the axis
// of largest centroid spread, falling back to the longest box extent
// when all centroids coincide on that axis.
func build(prims []primRef) *node {
	n := &node{bounds: emptyAABB()}
	cb := emptyAABB()
	for i := range prims {
		n.bounds.union(prims[i].bounds)
		cb.extend(prims[i].centroid)
	}
	if len(prims) <= leafTarget {
		n.prims = prims
		return n
	}

	axis := widestAxis(cb.max.Sub(cb.min))
	if cb.max.Axis(axis)-cb.min.Axis(axis) == 0 {
		axis = widestAxis(n.bounds.max.Sub(n.bounds.min))
	}
	sort.Slice(prims, func(i, j int) bool {
		return prims[i].centroid.Axis(axis) < prims[j].centroid.Axis(axis)
	})

	mid := len(prims) / 2
	n.left = build(prims[:mid])
	n.right = build(prims[mid:])
	return n
}

func widestAxis(d kernel.Vec3) int {
	axis := 0
	if d.Y > d.X {
		axis = 1
	}
	if d.Z > d.Axis(axis) {
		axis = 2
	}
	return axis
}
