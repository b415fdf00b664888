package linear

import "math"

// Quat represents a rotation as a unit quaternion with scalar part W.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns the rotation of angle radians around axis.
// The axis does not need to be normalized.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	a := axis.Normalize()
	half := float64(angle) * 0.5
	s := float32(math.Sin(half))
	return Quat{
		X: a.X * s,
		Y: a.Y * s,
		Z: a.Z * s,
		W: float32(math.Cos(half)),
	}
}

// Mul returns the composed rotation q then p (p applied first).
func (q Quat) Mul(p Quat) Quat {
	return Quat{
		X: q.W*p.X + q.X*p.W + q.Y*p.Z - q.Z*p.Y,
		Y: q.W*p.Y - q.X*p.Z + q.Y*p.W + q.Z*p.X,
		Z: q.W*p.Z + q.X*p.Y - q.Y*p.X + q.Z*p.W,
		W: q.W*p.W - q.X*p.X - q.Y*p.Y - q.Z*p.Z,
	}
}

// Normalize returns a unit quaternion. Returns the identity rotation if
// the quaternion has zero length.
func (q Quat) Normalize() Quat {
	l := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if l == 0 {
		return QuatIdentity()
	}
	inv := 1 / l
	return Quat{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

// Rotate returns v rotated by q.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2w(u x v) + 2(u x (u x v)) with u the vector part.
	u := Vec3{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(u.Cross(t))
}
