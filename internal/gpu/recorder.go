//go:build !nogpu

package gpu

import (
	"github.com/FairlyBet/wgpurenderer"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// passRecorder implements wgpurenderer.Recorder for one render pass.
// It belongs to a single pass; Backend.EndPass consumes it.
//
// Immediate blocks are staged into a per-pass uniform buffer at
// wgpurenderer.ImmediateAlignment strides and bound per draw through a
// dynamic-offset bind group at the active pipeline's immediates slot.
// The last staged offset stays bound until the next SetImmediates.
type passRecorder struct {
	backend *Backend
	encoder hal.CommandEncoder
	rp      hal.RenderPassEncoder

	staging    hal.Buffer
	stagingCap int
	immGroup   hal.BindGroup
	cursor     int
	immOffset  uint32

	// immSlot is the active pipeline's immediates group slot, -1 when
	// the pipeline has none.
	immSlot int
}

var _ wgpurenderer.Recorder = (*passRecorder)(nil)

// BindPipeline makes p the active render pipeline.
func (r *passRecorder) BindPipeline(p *wgpurenderer.Pipeline) {
	pl, ok := p.Raw().(*pipeline)
	if !ok || pl == nil {
		slogger().Warn("bind of foreign pipeline skipped")
		return
	}
	r.rp.SetPipeline(pl.pipeline)
	r.immSlot = pl.immSlot
}

// BindGroup binds g to the given group slot.
func (r *passRecorder) BindGroup(slot int, g *wgpurenderer.BindGroup) {
	ug, ok := g.Raw().(*uniformGroup)
	if !ok || ug == nil {
		slogger().Warn("bind of foreign group skipped", "slot", slot)
		return
	}
	r.rp.SetBindGroup(uint32(slot), ug.group, nil)
}

// BindVertexBuffer attaches b to the given vertex input slot.
func (r *passRecorder) BindVertexBuffer(slot int, b *wgpurenderer.Buffer, offset uint64) {
	buf, ok := b.Raw().(hal.Buffer)
	if !ok || buf == nil {
		slogger().Warn("bind of foreign vertex buffer skipped", "slot", slot)
		return
	}
	r.rp.SetVertexBuffer(uint32(slot), buf, offset)
}

// BindIndexBuffer attaches b as the index buffer.
func (r *passRecorder) BindIndexBuffer(b *wgpurenderer.Buffer, format gputypes.IndexFormat, offset uint64) {
	buf, ok := b.Raw().(hal.Buffer)
	if !ok || buf == nil {
		slogger().Warn("bind of foreign index buffer skipped")
		return
	}
	r.rp.SetIndexBuffer(buf, format, offset)
}

// SetImmediates stages data as the per-draw constant block for
// subsequent draws. Blocks are limited to ImmediateAlignment bytes;
// longer data is truncated.
func (r *passRecorder) SetImmediates(data []byte) {
	if r.immSlot < 0 {
		slogger().Debug("immediates set on a pipeline without an immediates slot")
		return
	}
	if len(data) > wgpurenderer.ImmediateAlignment {
		slogger().Warn("immediate block truncated",
			"size", len(data), "limit", wgpurenderer.ImmediateAlignment)
		data = data[:wgpurenderer.ImmediateAlignment]
	}
	if r.cursor+wgpurenderer.ImmediateAlignment > r.stagingCap {
		slogger().Warn("immediate staging exhausted", "capacity", r.stagingCap)
		return
	}
	r.backend.queue.WriteBuffer(r.staging, uint64(r.cursor), data)
	r.immOffset = uint32(r.cursor)
	r.cursor += wgpurenderer.ImmediateAlignment
}

// Draw draws count vertices across instances instances.
func (r *passRecorder) Draw(count, instances uint32) {
	r.bindImmediates()
	r.rp.Draw(count, instances, 0, 0)
}

// DrawIndexed draws count indices across instances instances.
func (r *passRecorder) DrawIndexed(count, instances uint32) {
	r.bindImmediates()
	r.rp.DrawIndexed(count, instances, 0, 0, 0)
}

// bindImmediates rebinds the staging group with the current block
// offset. Dynamic offsets make this a cheap per-draw rebind, and it
// keeps the immediates slot valid even when no block was staged.
func (r *passRecorder) bindImmediates() {
	if r.immSlot < 0 {
		return
	}
	r.rp.SetBindGroup(uint32(r.immSlot), r.immGroup, []uint32{r.immOffset})
}
