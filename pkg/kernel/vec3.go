package kernel

import "github.com/chewxy/math32"

// Vec3 is a 3-component float32 vector. It matches the element type
// and layout of the geometry buffers, so positions read from a buffer
// and positions computed by queries share one representation.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float32 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// LengthSq returns the squared euclidean length of v.
func (v Vec3) LengthSq() float32 { return v.Dot(v) }

// Length returns the euclidean length of v.
func (v Vec3) Length() float32 { return math32.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length. The zero vector is
// returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Min returns the component-wise minimum of v and w.
func (v Vec3) Min(w Vec3) Vec3 {
	return Vec3{math32.Min(v.X, w.X), math32.Min(v.Y, w.Y), math32.Min(v.Z, w.Z)}
}

// Max returns the component-wise maximum of v and w.
func (v Vec3) Max(w Vec3) Vec3 {
	return Vec3{math32.Max(v.X, w.X), math32.Max(v.Y, w.Y), math32.Max(v.Z, w.Z)}
}

// Axis returns the component selected by axis: 0 for X, 1 for Y,
// anything else for Z.
func (v Vec3) Axis(axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
