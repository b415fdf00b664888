package wgpurenderer

import (
	"math"

	"github.com/FairlyBet/wgpurenderer/linear"
)

// Camera produces a perspective view-projection matrix. The combined
// matrix is cached and recomputed only after a setter ran, so it can be
// read once per draw without cost. Not safe for concurrent use.
type Camera struct {
	fovY   float32
	aspect float32
	near   float32
	far    float32

	eye    linear.Vec3
	center linear.Vec3
	up     linear.Vec3

	vp    linear.Mat4
	dirty bool
}

// NewCamera returns a camera at (0, 0, 3) looking at the origin with a
// 60 degree vertical field of view.
func NewCamera() *Camera {
	return &Camera{
		fovY:   float32(math.Pi / 3),
		aspect: 1,
		near:   0.1,
		far:    100,
		eye:    linear.V3(0, 0, 3),
		center: linear.V3(0, 0, 0),
		up:     linear.V3(0, 1, 0),
		dirty:  true,
	}
}

// SetPerspective replaces the projection parameters. fovY is the
// vertical field of view in radians.
func (c *Camera) SetPerspective(fovY, aspect, near, far float32) {
	c.fovY, c.aspect, c.near, c.far = fovY, aspect, near, far
	c.dirty = true
}

// SetAspect replaces only the aspect ratio, for target resizes.
func (c *Camera) SetAspect(aspect float32) {
	c.aspect = aspect
	c.dirty = true
}

// LookAt places the camera at eye looking toward center.
func (c *Camera) LookAt(eye, center, up linear.Vec3) {
	c.eye, c.center, c.up = eye, center, up
	c.dirty = true
}

// SetTransform derives the view from a Transform: the camera sits at
// the transform's position and looks along its rotated -Z axis.
func (c *Camera) SetTransform(t *Transform) {
	eye := t.Position()
	forward := t.Rotation().Rotate(linear.V3(0, 0, -1))
	up := t.Rotation().Rotate(linear.V3(0, 1, 0))
	c.LookAt(eye, eye.Add(forward), up)
}

// View returns the view matrix.
func (c *Camera) View() linear.Mat4 {
	return linear.LookAt(c.eye, c.center, c.up)
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() linear.Mat4 {
	return linear.Perspective(c.fovY, c.aspect, c.near, c.far)
}

// ViewProjection returns the combined matrix, recomputing it only when
// a setter ran since the last call.
func (c *Camera) ViewProjection() linear.Mat4 {
	if c.dirty {
		c.vp = c.Projection().Mul(c.View())
		c.dirty = false
	}
	return c.vp
}
