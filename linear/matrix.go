package linear

import "math"

// Mat4 represents a 4x4 matrix stored in column-major order, matching the
// memory layout WGSL expects for mat4x4<f32> uniforms. Element (row, col)
// is at index col*4+row.
type Mat4 [16]float32

// Mat4Identity returns the identity matrix.
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Translation returns a translation matrix.
func Mat4Translation(t Vec3) Mat4 {
	m := Mat4Identity()
	m[12] = t.X
	m[13] = t.Y
	m[14] = t.Z
	return m
}

// Mat4Scaling returns a scaling matrix.
func Mat4Scaling(s Vec3) Mat4 {
	var m Mat4
	m[0] = s.X
	m[5] = s.Y
	m[10] = s.Z
	m[15] = 1
	return m
}

// Mat4FromQuat returns the rotation matrix for a unit quaternion.
func Mat4FromQuat(q Quat) Mat4 {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, yy, zz := q.X*x2, q.Y*y2, q.Z*z2
	xy, xz, yz := q.X*y2, q.X*z2, q.Y*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2
	return Mat4{
		1 - yy - zz, xy + wz, xz - wy, 0,
		xy - wz, 1 - xx - zz, yz + wx, 0,
		xz + wy, yz - wx, 1 - xx - yy, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the matrix product m * n, so that applying the result is
// equivalent to applying n first and m second.
func (m Mat4) Mul(n Mat4) Mat4 {
	var r Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += m[k*4+row] * n[col*4+k]
			}
			r[col*4+row] = s
		}
	}
	return r
}

// MulVec4 returns the matrix-vector product m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var r Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			r[row*4+col] = m[col*4+row]
		}
	}
	return r
}

// Inverse returns the inverse of the matrix. Returns the zero matrix if
// the matrix is singular.
func (m Mat4) Inverse() Mat4 {
	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]

	b00 := a00*a11 - a01*a10
	b01 := a00*a12 - a02*a10
	b02 := a00*a13 - a03*a10
	b03 := a01*a12 - a02*a11
	b04 := a01*a13 - a03*a11
	b05 := a02*a13 - a03*a12
	b06 := a20*a31 - a21*a30
	b07 := a20*a32 - a22*a30
	b08 := a20*a33 - a23*a30
	b09 := a21*a32 - a22*a31
	b10 := a21*a33 - a23*a31
	b11 := a22*a33 - a23*a32

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
	if det == 0 {
		return Mat4{}
	}
	inv := 1 / det

	return Mat4{
		(a11*b11 - a12*b10 + a13*b09) * inv,
		(a02*b10 - a01*b11 - a03*b09) * inv,
		(a31*b05 - a32*b04 + a33*b03) * inv,
		(a22*b04 - a21*b05 - a23*b03) * inv,
		(a12*b08 - a10*b11 - a13*b07) * inv,
		(a00*b11 - a02*b08 + a03*b07) * inv,
		(a32*b02 - a30*b05 - a33*b01) * inv,
		(a20*b05 - a22*b02 + a23*b01) * inv,
		(a10*b10 - a11*b08 + a13*b06) * inv,
		(a01*b08 - a00*b10 - a03*b06) * inv,
		(a30*b04 - a31*b02 + a33*b00) * inv,
		(a21*b02 - a20*b04 - a23*b00) * inv,
		(a11*b07 - a10*b09 - a12*b06) * inv,
		(a00*b09 - a01*b07 + a02*b06) * inv,
		(a31*b01 - a30*b03 - a32*b00) * inv,
		(a20*b03 - a21*b01 + a22*b00) * inv,
	}
}

// Perspective returns a right-handed perspective projection mapping depth
// to the [0, 1] clip range used by WebGPU. fovy is the vertical field of
// view in radians.
func Perspective(fovy, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovy)*0.5))
	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1
	m[14] = far * near / (near - far)
	return m
}

// LookAt returns a right-handed view matrix for a camera at eye looking
// toward center with the given up direction.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)
	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}
