package wgpurenderer

// The root package keeps GPU objects opaque: each resource value wraps
// whatever the backend returned from its Create call, and the backend
// recovers its own object with a type assertion when the value comes
// back through a Recorder. This keeps the sorting and emission logic
// free of any GPU dependency.

// Pipeline is a compiled render pipeline. Values live in a Renderer
// storage and are referenced through handles returned by CreateMaterial.
type Pipeline struct {
	raw any
}

// Raw returns the backend pipeline object.
func (p *Pipeline) Raw() any { return p.raw }

// BindGroup is a bound set of shader resources backed by a uniform
// buffer. Values live in a Renderer storage and are referenced through
// handles returned by CreateUniforms.
type BindGroup struct {
	raw any
}

// Raw returns the backend bind group object.
func (g *BindGroup) Raw() any { return g.raw }

// Buffer is a GPU vertex or index buffer. Values live in a Renderer
// storage and are referenced through the handles inside a Geometry.
type Buffer struct {
	raw  any
	size uint64
}

// Raw returns the backend buffer object.
func (b *Buffer) Raw() any { return b.raw }

// Size returns the buffer length in bytes.
func (b *Buffer) Size() uint64 { return b.size }
