package wgpurenderer

import (
	"github.com/FairlyBet/wgpurenderer/pool"
	"github.com/gogpu/gputypes"
)

// VertexBufferBinding attaches a buffer region to a vertex input slot.
type VertexBufferBinding struct {
	// Buffer holds the vertex data. Required.
	Buffer *pool.Handle[Buffer]

	// Offset is the byte offset of the first vertex in the buffer.
	Offset uint64
}

// IndexBufferBinding attaches an index buffer to a draw call.
type IndexBufferBinding struct {
	// Buffer holds the index data. Required.
	Buffer *pool.Handle[Buffer]

	// Format is the index element type (uint16 or uint32).
	Format gputypes.IndexFormat

	// Offset is the byte offset of the first index in the buffer.
	Offset uint64
}

// DrawCall describes one draw: the pipeline to run, the resources to
// bind, and how many elements to draw. DrawCall values are submitted to
// a Renderer (or directly to ExecuteOrderedDrawCalls) and hold no
// resources themselves; the handles they carry must stay live until the
// calls have been recorded.
type DrawCall struct {
	// Pipeline selects the render pipeline. Required.
	Pipeline *pool.Handle[Pipeline]

	// BindGroups bind to group slots by position: BindGroups[i] is
	// bound to slot i. The sequence is dense; entries must be non-nil.
	BindGroups []*pool.Handle[BindGroup]

	// VertexBuffers bind to vertex input slots by position.
	VertexBuffers []VertexBufferBinding

	// IndexBuffer, when non-nil, makes the draw indexed.
	IndexBuffer *IndexBufferBinding

	// Immediates, when non-nil, names the per-draw constant block bound
	// before the draw is emitted. A block that has been freed by the
	// time the call is recorded is skipped silently.
	Immediates *Immediate

	// Count is the number of indices (indexed draws) or vertices
	// (non-indexed draws).
	Count uint32

	// InstanceCount is the number of instances to draw. Zero draws a
	// single instance, so a zero-value count stays usable.
	InstanceCount uint32
}
