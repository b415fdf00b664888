// Package linear provides the small fixed-size vector, quaternion, and
// matrix types used for camera and transform math. All types use float32
// components laid out so they can be uploaded to GPU buffers directly.
package linear

import "math"

// Vec3 represents a 3D vector or point.
type Vec3 struct {
	X, Y, Z float32
}

// V3 is a convenience function to create a Vec3.
func V3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Mul returns the vector scaled by a scalar.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Neg returns the negation of the vector.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(w Vec3) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of two vectors.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the length (magnitude) of the vector.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns a unit vector in the same direction.
// Returns the zero vector if the original vector has zero length.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// Vec4 represents a 4D vector, typically a homogeneous point or an RGBA
// color.
type Vec4 struct {
	X, Y, Z, W float32
}

// V4 is a convenience function to create a Vec4.
func V4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Add returns the sum of two vectors.
func (v Vec4) Add(w Vec4) Vec4 {
	return Vec4{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z, W: v.W + w.W}
}

// Mul returns the vector scaled by a scalar.
func (v Vec4) Mul(s float32) Vec4 {
	return Vec4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}

// Dot returns the dot product of two vectors.
func (v Vec4) Dot(w Vec4) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z + v.W*w.W
}

// Vec3 returns the first three components as a Vec3.
func (v Vec4) Vec3() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}
