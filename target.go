package wgpurenderer

import (
	"github.com/FairlyBet/wgpurenderer/immediate"
	"github.com/gogpu/gputypes"
)

// TargetDescriptor describes an offscreen render target.
// Zero-value Format and SampleCount are filled from the renderer
// Config when the target is created.
type TargetDescriptor struct {
	// Width and Height are the target extent in pixels. Required.
	Width, Height int

	// Format is the color attachment format.
	Format gputypes.TextureFormat

	// SampleCount is the MSAA sample count. Counts above 1 allocate a
	// multisampled color attachment that resolves into the readable
	// texture at the end of each pass.
	SampleCount uint32

	// Depth allocates a depth-stencil attachment alongside the color
	// attachment. Materials with a DepthStencil config require it.
	Depth bool
}

// RenderTarget is an offscreen rendering destination created by
// Renderer.CreateTarget. The backend owns the attachment textures; the
// root package tracks only the descriptor.
type RenderTarget struct {
	raw  any
	desc TargetDescriptor
}

// Raw returns the backend target object.
func (t *RenderTarget) Raw() any { return t.raw }

// Size returns the current extent in pixels.
func (t *RenderTarget) Size() (width, height int) {
	return t.desc.Width, t.desc.Height
}

// Format returns the color attachment format.
func (t *RenderTarget) Format() gputypes.TextureFormat { return t.desc.Format }

// SampleCount returns the MSAA sample count.
func (t *RenderTarget) SampleCount() uint32 { return t.desc.SampleCount }

// ExecuteFunc replays draw calls through a recorder. The default is
// ExecuteOrderedDrawCalls; a Pass can substitute its own strategy, for
// example to keep submission order for debugging.
type ExecuteFunc func(rec Recorder, calls []DrawCall, imm *immediate.Manager)

// Pass describes one rendering pass over the accumulated draw list.
type Pass struct {
	// Target receives the rendering. Required.
	Target *RenderTarget

	// ClearColor fills the target before drawing.
	ClearColor gputypes.Color

	// Executor replays the draw list. Nil uses
	// ExecuteOrderedDrawCalls, the sorting executor.
	Executor ExecuteFunc
}
