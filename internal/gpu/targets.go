//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/FairlyBet/wgpurenderer"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// depthFormat is the fixed depth-stencil attachment format for targets
// created with Depth enabled.
const depthFormat = gputypes.TextureFormatDepth24PlusStencil8

// target holds the offscreen attachments for one render target:
//   - color: single-sample, readable (RenderAttachment | CopySrc)
//   - msaa: multisampled color, present when samples > 1; the pass
//     renders into it and resolves into color
//   - depth: Depth24PlusStencil8, present when depth is enabled
type target struct {
	colorTex  hal.Texture
	colorView hal.TextureView
	msaaTex   hal.Texture
	msaaView  hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView

	width, height uint32
	format        gputypes.TextureFormat
	samples       uint32
	depth         bool
}

// CreateTarget allocates offscreen attachments per desc. The root
// renderer fills zero Format and SampleCount before calling.
func (b *Backend) CreateTarget(desc *wgpurenderer.TargetDescriptor) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBackendClosed
	}

	t := &target{
		format:  desc.Format,
		samples: desc.SampleCount,
		depth:   desc.Depth,
	}
	if t.samples == 0 {
		t.samples = 1
	}
	if err := t.create(b.device, uint32(desc.Width), uint32(desc.Height)); err != nil {
		return nil, err
	}
	return t, nil
}

// ResizeTarget drops the target's attachments and recreates them at the
// new size. Format, sample count, and depth setting are kept.
func (b *Backend) ResizeTarget(raw any, width, height int) error {
	t, ok := raw.(*target)
	if !ok || t == nil {
		return fmt.Errorf("gpu: not a render target")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBackendClosed
	}
	t.destroy(b.device)
	return t.create(b.device, uint32(width), uint32(height))
}

// DestroyTarget releases a target created by CreateTarget.
func (b *Backend) DestroyTarget(raw any) {
	t, ok := raw.(*target)
	if !ok || t == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		slogger().Warn("target destroy after backend close")
		return
	}
	t.destroy(b.device)
}

// create allocates all attachments at the given size. On failure the
// partially created set is destroyed before the error is returned.
func (t *target) create(device hal.Device, w, h uint32) error {
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "target_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create color texture: %w", err)
	}
	t.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "target_color_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create color view: %w", err)
	}
	t.colorView = colorView

	if t.samples > 1 {
		msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "target_msaa",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   t.samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        t.format,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("create MSAA texture: %w", err)
		}
		t.msaaTex = msaaTex

		msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
			Label: "target_msaa_view",
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("create MSAA view: %w", err)
		}
		t.msaaView = msaaView
	}

	if t.depth {
		depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "target_depth",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   t.samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        depthFormat,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("create depth texture: %w", err)
		}
		t.depthTex = depthTex

		depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
			Label: "target_depth_view",
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("create depth view: %w", err)
		}
		t.depthView = depthView
	}

	t.width = w
	t.height = h
	return nil
}

// destroy releases all attachments and resets dimensions.
func (t *target) destroy(device hal.Device) {
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depthTex != nil {
		device.DestroyTexture(t.depthTex)
		t.depthTex = nil
	}
	if t.msaaView != nil {
		device.DestroyTextureView(t.msaaView)
		t.msaaView = nil
	}
	if t.msaaTex != nil {
		device.DestroyTexture(t.msaaTex)
		t.msaaTex = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.colorTex != nil {
		device.DestroyTexture(t.colorTex)
		t.colorTex = nil
	}
	t.width = 0
	t.height = 0
}
