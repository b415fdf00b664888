package wgpurenderer

import "github.com/gogpu/gputypes"

// Recorder records GPU commands for one render pass. The batching
// executor drives a Recorder after sorting; backends implement it over
// their command encoder, and tests implement it with an in-memory log.
//
// A Recorder belongs to a single pass on a single goroutine.
// Implementations are not required to be safe for concurrent use.
type Recorder interface {
	// BindPipeline makes p the active render pipeline.
	BindPipeline(p *Pipeline)

	// BindGroup binds g to the given group slot.
	BindGroup(slot int, g *BindGroup)

	// BindVertexBuffer attaches b to the given vertex input slot,
	// starting at offset bytes.
	BindVertexBuffer(slot int, b *Buffer, offset uint64)

	// BindIndexBuffer attaches b as the index buffer.
	BindIndexBuffer(b *Buffer, format gputypes.IndexFormat, offset uint64)

	// SetImmediates binds data as the per-draw constant block for the
	// next draw.
	SetImmediates(data []byte)

	// Draw draws count vertices across instances instances.
	Draw(count, instances uint32)

	// DrawIndexed draws count indices across instances instances, using
	// the bound index buffer.
	DrawIndexed(count, instances uint32)
}
