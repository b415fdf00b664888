package wgpurenderer

import "github.com/FairlyBet/wgpurenderer/linear"

// Transform is a position/rotation/scale triple with a lazily cached
// model matrix: setters only mark the cache dirty, and Matrix
// recomputes it at most once per change. Not safe for concurrent use.
type Transform struct {
	position linear.Vec3
	rotation linear.Quat
	scale    linear.Vec3

	matrix linear.Mat4
	dirty  bool
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{
		rotation: linear.QuatIdentity(),
		scale:    linear.V3(1, 1, 1),
		matrix:   linear.Mat4Identity(),
	}
}

// Position returns the translation component.
func (t *Transform) Position() linear.Vec3 { return t.position }

// Rotation returns the rotation component.
func (t *Transform) Rotation() linear.Quat { return t.rotation }

// Scale returns the scale component.
func (t *Transform) Scale() linear.Vec3 { return t.scale }

// SetPosition replaces the translation component.
func (t *Transform) SetPosition(p linear.Vec3) {
	t.position = p
	t.dirty = true
}

// SetRotation replaces the rotation component.
func (t *Transform) SetRotation(q linear.Quat) {
	t.rotation = q.Normalize()
	t.dirty = true
}

// SetScale replaces the scale component.
func (t *Transform) SetScale(s linear.Vec3) {
	t.scale = s
	t.dirty = true
}

// Translate moves the transform by d.
func (t *Transform) Translate(d linear.Vec3) {
	t.position = t.position.Add(d)
	t.dirty = true
}

// Rotate applies q on top of the current rotation.
func (t *Transform) Rotate(q linear.Quat) {
	t.rotation = q.Mul(t.rotation).Normalize()
	t.dirty = true
}

// Matrix returns the model matrix, recomputing it only when a setter
// ran since the last call.
func (t *Transform) Matrix() linear.Mat4 {
	if t.dirty {
		t.matrix = linear.Mat4Translation(t.position).
			Mul(linear.Mat4FromQuat(t.rotation)).
			Mul(linear.Mat4Scaling(t.scale))
		t.dirty = false
	}
	return t.matrix
}

// NormalMatrix returns the inverse-transpose of the model matrix, the
// matrix that carries normals through non-uniform scaling.
func (t *Transform) NormalMatrix() linear.Mat4 {
	return t.Matrix().Inverse().Transpose()
}
