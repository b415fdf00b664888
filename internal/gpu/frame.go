//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/FairlyBet/wgpurenderer"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// gpuTimeout bounds every fence wait. A healthy submission completes in
// milliseconds; hitting this means the device hung.
const gpuTimeout = 5 * time.Second

// BeginPass opens a render pass on the target, clearing it to the given
// color. immediateBytes sizes the per-pass staging buffer for
// SetImmediates; at least one block of space is always allocated so the
// immediates slot can be bound on every draw.
func (b *Backend) BeginPass(targetRaw any, clear gputypes.Color, immediateBytes int) (wgpurenderer.Recorder, error) {
	t, ok := targetRaw.(*target)
	if !ok || t == nil {
		return nil, fmt.Errorf("gpu: not a render target")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBackendClosed
	}

	stagingCap := immediateBytes
	if stagingCap < wgpurenderer.ImmediateAlignment {
		stagingCap = wgpurenderer.ImmediateAlignment
	}
	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "immediates_staging",
		Size:  uint64(stagingCap),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create immediates staging: %w", err)
	}

	immLayout, err := b.immediatesLayoutLocked()
	if err != nil {
		b.device.DestroyBuffer(staging)
		return nil, err
	}
	immGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "immediates_group",
		Layout: immLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: staging.NativeHandle(),
				Offset: 0,
				Size:   wgpurenderer.ImmediateAlignment,
			}},
		},
	})
	if err != nil {
		b.device.DestroyBuffer(staging)
		return nil, fmt.Errorf("create immediates group: %w", err)
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "pass_encoder",
	})
	if err != nil {
		b.device.DestroyBindGroup(immGroup)
		b.device.DestroyBuffer(staging)
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("pass"); err != nil {
		b.device.DestroyBindGroup(immGroup)
		b.device.DestroyBuffer(staging)
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// With MSAA the pass renders into the multisampled attachment and
	// resolves into the readable color texture.
	colorAttachment := hal.RenderPassColorAttachment{
		View:       t.colorView,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: clear,
	}
	if t.samples > 1 {
		colorAttachment.View = t.msaaView
		colorAttachment.ResolveTarget = t.colorView
	}

	rpDesc := &hal.RenderPassDescriptor{
		Label:            "pass",
		ColorAttachments: []hal.RenderPassColorAttachment{colorAttachment},
	}
	if t.depth {
		rpDesc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              t.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		}
	}

	rp := encoder.BeginRenderPass(rpDesc)

	return &passRecorder{
		backend:    b,
		encoder:    encoder,
		rp:         rp,
		staging:    staging,
		stagingCap: stagingCap,
		immGroup:   immGroup,
		immSlot:    -1,
	}, nil
}

// EndPass closes the pass, submits the recorded commands, and waits for
// the GPU to finish them. The recorder is spent afterwards.
func (b *Backend) EndPass(rec wgpurenderer.Recorder) error {
	r, ok := rec.(*passRecorder)
	if !ok || r == nil {
		return fmt.Errorf("gpu: not a pass recorder")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBackendClosed
	}
	defer func() {
		b.device.DestroyBindGroup(r.immGroup)
		b.device.DestroyBuffer(r.staging)
	}()

	r.rp.End()

	cmdBuf, err := r.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	return b.submitAndWaitLocked(cmdBuf)
}

// ReadTarget copies the target's color attachment into a staging buffer
// and reads it back. It encodes its own transfer submission, so it can
// run any time after a pass has completed.
func (b *Backend) ReadTarget(raw any) (*wgpurenderer.TargetPixels, error) {
	t, ok := raw.(*target)
	if !ok || t == nil {
		return nil, fmt.Errorf("gpu: not a render target")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBackendClosed
	}

	// Copy pitch must be 256-byte aligned (WebGPU and DX12 rule).
	bytesPerRow := t.width * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(t.height)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback staging: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The pass left the color texture in attachment state;
	// CopyTextureToBuffer needs it in copy-source state, and the next
	// pass expects attachment state again.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	encoder.CopyTextureToBuffer(t.colorTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  alignedBytesPerRow,
			RowsPerImage: t.height,
		},
		TextureBase: hal.ImageCopyTexture{Texture: t.colorTex, MipLevel: 0},
		Size:        hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if err := b.submitAndWaitLocked(cmdBuf); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	return &wgpurenderer.TargetPixels{
		Data:   readback,
		Width:  int(t.width),
		Height: int(t.height),
		Stride: int(alignedBytesPerRow),
		Format: t.format,
	}, nil
}

// submitAndWaitLocked submits one command buffer and blocks until the
// GPU signals its fence. The caller holds b.mu.
func (b *Backend) submitAndWaitLocked(cmdBuf hal.CommandBuffer) error {
	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, gpuTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}
