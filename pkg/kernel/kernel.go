// Package kernel defines the abstract spatial-index interface.
// Implementations (bvh) answer ray intersection and point proximity
// queries behind this interface. The kernel abstraction allows
// swapping acceleration structures without changing the rest of the
// system.
package kernel

// Filter inspects one candidate intersection during traversal.
// t is the ray parameter of the candidate and hit describes it.
// Returning true commits the candidate: the index records the hit and
// shrinks the ray's far bound to t. Returning false discards it and
// traversal continues with the ray unchanged, so later and farther
// candidates are still visited.
type Filter func(ray *Ray, t float32, hit *Hit) bool

// IntersectContext carries per-call traversal options. A nil context
// or a nil Filter commits every candidate, which yields nearest-hit
// behavior.
type IntersectContext struct {
	Filter Filter
}

// PointQuery is a proximity search around a point. The visitor may
// shrink Radius as nearer candidates are found; the index prunes
// remaining subtrees against the current value.
type PointQuery struct {
	Point  Vec3
	Radius float32
}

// PointQueryFunc inspects one candidate primitive of a point query.
// It reports whether it shrank the query radius.
type PointQueryFunc func(geomID, primID uint32) bool

// Index is the abstract spatial index. An Index holds attached
// geometry and answers batched queries after Commit.
type Index interface {
	// Attach registers a geometry and returns its id. Ids are dense,
	// starting at zero, in attachment order, and are never reused.
	Attach(g *Geometry) uint32

	// Commit builds the acceleration structure over all attached
	// geometry. Queries observe the geometry present at the last
	// Commit.
	Commit()

	// Intersect resolves every ray of the batch against the committed
	// index. The caller initializes each Ray and sets Hit.GeomID to
	// InvalidID; a committed hit overwrites Hit and leaves Ray.TFar at
	// the hit parameter. Rays that hit nothing are left untouched.
	Intersect(ctx *IntersectContext, batch []RayHit)

	// PointQuery invokes visit for candidate primitives within
	// q.Radius of q.Point, re-pruning whenever visit reports a shrunk
	// radius.
	PointQuery(q *PointQuery, visit PointQueryFunc)
}
