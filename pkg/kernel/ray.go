package kernel

// InvalidID marks a missing geometry or primitive across all query
// results. No Index ever assigns it.
const InvalidID = ^uint32(0)

// Ray is one ray of a batched intersection query. Org is the origin
// and Dir the direction; Dir need not be unit length, ray parameters
// are measured in multiples of it. A candidate hit is valid for
// parameters t in [TNear, TFar]. ID names the ray within the calling
// batch; filters use it to address per-ray state.
type Ray struct {
	Org   Vec3
	Dir   Vec3
	TNear float32
	TFar  float32
	ID    uint32
}

// At returns the point Org + t*Dir.
func (r *Ray) At(t float32) Vec3 { return r.Org.Add(r.Dir.Scale(t)) }

// Hit describes one intersection. U and V are the barycentric
// coordinates of the hit inside the primitive: the hit point is
// (1-U-V)*a + U*b + V*c for triangle corners a, b, c. Ng is the
// unnormalized geometric normal, oriented by the triangle winding.
type Hit struct {
	GeomID uint32
	PrimID uint32
	U, V   float32
	Ng     Vec3
}

// RayHit pairs a ray with its committed hit. Callers initialize
// Hit.GeomID to InvalidID before a query; a miss leaves the whole
// struct untouched, so Ray.TFar still holds the original far bound.
type RayHit struct {
	Ray Ray
	Hit Hit
}
