package linear

import (
	"math"
	"testing"
)

const eps = 1e-5

func approxEq(a, b float32) bool {
	return math.Abs(float64(a-b)) < eps
}

func vecApproxEq(a, b Vec3) bool {
	return approxEq(a.X, b.X) && approxEq(a.Y, b.Y) && approxEq(a.Z, b.Z)
}

func matApproxEq(a, b Mat4) bool {
	for i := range a {
		if !approxEq(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestVec3Ops(t *testing.T) {
	v := V3(1, 2, 4)
	w := V3(0, -1, 2)

	if got := v.Add(w); got != (Vec3{1, 1, 6}) {
		t.Errorf("Add = %v, want {1 1 6}", got)
	}
	if got := v.Sub(w); got != (Vec3{1, 3, 2}) {
		t.Errorf("Sub = %v, want {1 3 2}", got)
	}
	if got := v.Dot(w); got != 6 {
		t.Errorf("Dot = %v, want 6", got)
	}
	if got := V3(1, 0, 0).Cross(V3(0, 1, 0)); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross = %v, want {0 0 1}", got)
	}
	if got := V3(0, 3, 4).Length(); got != 5 {
		t.Errorf("Length = %v, want 5", got)
	}
	if got := V3(0, 0, -2).Normalize(); got != (Vec3{0, 0, -1}) {
		t.Errorf("Normalize = %v, want {0 0 -1}", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize zero = %v, want zero", got)
	}
}

func TestQuatRotate(t *testing.T) {
	tests := []struct {
		name string
		q    Quat
		v    Vec3
		want Vec3
	}{
		{"identity", QuatIdentity(), V3(1, 2, 3), V3(1, 2, 3)},
		{"z90", QuatFromAxisAngle(V3(0, 0, 1), math.Pi/2), V3(1, 0, 0), V3(0, 1, 0)},
		{"y90", QuatFromAxisAngle(V3(0, 1, 0), math.Pi/2), V3(1, 0, 0), V3(0, 0, -1)},
		{"x180", QuatFromAxisAngle(V3(1, 0, 0), math.Pi), V3(0, 1, 0), V3(0, -1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Rotate(tt.v); !vecApproxEq(got, tt.want) {
				t.Errorf("Rotate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuatMulComposes(t *testing.T) {
	a := QuatFromAxisAngle(V3(0, 0, 1), math.Pi/2)
	b := QuatFromAxisAngle(V3(0, 0, 1), math.Pi/2)
	got := a.Mul(b).Rotate(V3(1, 0, 0))
	if !vecApproxEq(got, V3(-1, 0, 0)) {
		t.Errorf("composed rotation = %v, want {-1 0 0}", got)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := Mat4Translation(V3(1, 2, 3)).Mul(Mat4Scaling(V3(2, 2, 2)))
	if got := m.Mul(Mat4Identity()); !matApproxEq(got, m) {
		t.Errorf("m * I != m")
	}
	if got := Mat4Identity().Mul(m); !matApproxEq(got, m) {
		t.Errorf("I * m != m")
	}
}

func TestMat4TranslationScaling(t *testing.T) {
	m := Mat4Translation(V3(1, 2, 3)).Mul(Mat4Scaling(V3(2, 2, 2)))
	got := m.MulVec4(V4(1, 1, 1, 1))
	want := V4(3, 4, 5, 1)
	if !approxEq(got.X, want.X) || !approxEq(got.Y, want.Y) || !approxEq(got.Z, want.Z) || !approxEq(got.W, want.W) {
		t.Errorf("MulVec4 = %v, want %v", got, want)
	}
}

func TestMat4FromQuatMatchesRotate(t *testing.T) {
	q := QuatFromAxisAngle(V3(1, 1, 0), 0.7)
	v := V3(0.3, -2, 1.5)
	byQuat := q.Rotate(v)
	byMat := Mat4FromQuat(q).MulVec4(Vec4{X: v.X, Y: v.Y, Z: v.Z, W: 1}).Vec3()
	if !vecApproxEq(byQuat, byMat) {
		t.Errorf("quat rotate %v != matrix rotate %v", byQuat, byMat)
	}
}

func TestMat4Inverse(t *testing.T) {
	m := Mat4Translation(V3(4, -1, 2)).
		Mul(Mat4FromQuat(QuatFromAxisAngle(V3(0, 1, 0), 1.1))).
		Mul(Mat4Scaling(V3(2, 3, 4)))
	if got := m.Mul(m.Inverse()); !matApproxEq(got, Mat4Identity()) {
		t.Errorf("m * m^-1 != I, got %v", got)
	}

	var singular Mat4
	if got := singular.Inverse(); got != (Mat4{}) {
		t.Errorf("inverse of singular = %v, want zero", got)
	}
}

func TestMat4Transpose(t *testing.T) {
	m := Mat4Translation(V3(1, 2, 3))
	tr := m.Transpose()
	if tr[3] != 1 || tr[7] != 2 || tr[11] != 3 {
		t.Errorf("Transpose moved translation to wrong cells: %v", tr)
	}
	if !matApproxEq(tr.Transpose(), m) {
		t.Errorf("double transpose != original")
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(math.Pi/2, 1, 0.1, 100)

	near := p.MulVec4(V4(0, 0, -0.1, 1))
	if got := near.Z / near.W; !approxEq(got, 0) {
		t.Errorf("near plane depth = %v, want 0", got)
	}
	far := p.MulVec4(V4(0, 0, -100, 1))
	if got := far.Z / far.W; !approxEq(got, 1) {
		t.Errorf("far plane depth = %v, want 1", got)
	}
}

func TestLookAt(t *testing.T) {
	view := LookAt(V3(0, 0, 5), V3(0, 0, 0), V3(0, 1, 0))

	// A point at the origin ends up on the -Z axis in view space.
	got := view.MulVec4(V4(0, 0, 0, 1))
	if !approxEq(got.X, 0) || !approxEq(got.Y, 0) || !approxEq(got.Z, -5) {
		t.Errorf("origin in view space = %v, want {0 0 -5 1}", got)
	}

	// The eye maps to the view-space origin.
	eye := view.MulVec4(V4(0, 0, 5, 1))
	if !approxEq(eye.X, 0) || !approxEq(eye.Y, 0) || !approxEq(eye.Z, 0) {
		t.Errorf("eye in view space = %v, want origin", eye)
	}
}
