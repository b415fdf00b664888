package wgpurenderer

import "github.com/gogpu/gputypes"

// Backend creates and destroys GPU resources and opens render passes.
// The wgpu/hal implementation lives in internal/gpu and is obtained
// from gpu.Context; tests substitute in-memory fakes.
//
// Raw resource values returned by the Create methods are opaque to the
// root package: they travel inside Pipeline, BindGroup, Buffer, and
// RenderTarget values and come back to the backend through Recorder
// calls and the Destroy methods.
type Backend interface {
	// CreatePipeline compiles desc into a render pipeline.
	CreatePipeline(desc *MaterialDescriptor) (any, error)

	// DestroyPipeline releases a pipeline created by CreatePipeline.
	DestroyPipeline(raw any)

	// CreateVertexBuffer uploads data into a new vertex buffer.
	CreateVertexBuffer(data []byte) (any, error)

	// CreateIndexBuffer uploads data into a new index buffer.
	CreateIndexBuffer(data []byte) (any, error)

	// DestroyBuffer releases a buffer created by CreateVertexBuffer or
	// CreateIndexBuffer.
	DestroyBuffer(raw any)

	// CreateUniformGroup allocates a uniform buffer of size bytes and a
	// bind group exposing it at binding 0 of the pipeline's given group
	// slot.
	CreateUniformGroup(pipeline any, slot int, size uint64) (any, error)

	// WriteUniformGroup schedules an upload of data into the group's
	// uniform buffer at offset.
	WriteUniformGroup(raw any, offset uint64, data []byte) error

	// DestroyUniformGroup releases a group created by CreateUniformGroup.
	DestroyUniformGroup(raw any)

	// CreateTarget allocates offscreen attachments for rendering.
	CreateTarget(desc *TargetDescriptor) (any, error)

	// ResizeTarget reallocates the target's attachments at a new size.
	ResizeTarget(raw any, width, height int) error

	// DestroyTarget releases a target created by CreateTarget.
	DestroyTarget(raw any)

	// ReadTarget blocks until rendering to the target has completed and
	// returns the color attachment contents. Rows may carry alignment
	// padding; TargetPixels.Stride gives the byte distance between rows.
	ReadTarget(raw any) (*TargetPixels, error)

	// BeginPass opens a render pass that clears target to the given
	// color. immediateBytes hints how much staging space SetImmediates
	// calls will need during the pass.
	BeginPass(target any, clear gputypes.Color, immediateBytes int) (Recorder, error)

	// EndPass finishes the pass opened by BeginPass, submits the
	// recorded commands, and waits for their completion.
	EndPass(rec Recorder) error

	// Close releases all backend-owned resources. The backend must not
	// be used afterwards.
	Close()
}

// TargetPixels holds pixels read back from a render target.
// Data is laid out row by row; rows are Stride bytes apart, which can
// exceed Width*4 when the backend pads rows for copy alignment.
type TargetPixels struct {
	Data          []uint8
	Width, Height int
	Stride        int
	Format        gputypes.TextureFormat
}
