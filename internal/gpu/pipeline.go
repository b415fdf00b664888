//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/FairlyBet/wgpurenderer"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pipeline bundles a compiled render pipeline with the bind group
// layouts it was built from. The layouts stay alive for the pipeline's
// lifetime because uniform groups are created against them; everything
// is destroyed together in destroy.
//
// immSlot is the group slot holding the shared immediates layout, or -1
// when the material does not use immediates. The layout itself is owned
// by the Backend, not the pipeline.
type pipeline struct {
	shader     hal.ShaderModule
	layouts    []hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	immSlot    int
}

// CreatePipeline compiles desc into a render pipeline. On failure every
// object created so far is destroyed before the error is returned.
func (b *Backend) CreatePipeline(desc *wgpurenderer.MaterialDescriptor) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBackendClosed
	}

	p := &pipeline{immSlot: -1}

	shader, err := createShaderModule(b.device, desc.Label, desc.Source)
	if err != nil {
		return nil, err
	}
	p.shader = shader

	for i, entries := range desc.BindGroupLayouts {
		layout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d", desc.Label, i),
			Entries: entries,
		})
		if err != nil {
			p.destroy(b.device)
			return nil, fmt.Errorf("create group layout %d: %w", i, err)
		}
		p.layouts = append(p.layouts, layout)
	}

	// The immediates group occupies the slot after the last user group.
	groupLayouts := make([]hal.BindGroupLayout, len(p.layouts))
	copy(groupLayouts, p.layouts)
	if desc.Immediates {
		immLayout, err := b.immediatesLayoutLocked()
		if err != nil {
			p.destroy(b.device)
			return nil, err
		}
		p.immSlot = len(groupLayouts)
		groupLayouts = append(groupLayouts, immLayout)
	}

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: groupLayouts,
	})
	if err != nil {
		p.destroy(b.device)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	rpDesc := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.VertexLayouts,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    desc.ColorFormat,
					Blend:     desc.Blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: desc.Topology,
			CullMode: desc.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: desc.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	}
	if ds := desc.DepthStencil; ds != nil {
		rpDesc.DepthStencil = &hal.DepthStencilState{
			Format:            ds.Format,
			DepthWriteEnabled: ds.DepthWriteEnabled,
			DepthCompare:      ds.DepthCompare,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		}
	}

	rp, err := b.device.CreateRenderPipeline(rpDesc)
	if err != nil {
		p.destroy(b.device)
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = rp

	slogger().Debug("pipeline created", "label", desc.Label,
		"groups", len(desc.BindGroupLayouts), "immediates", desc.Immediates)
	return p, nil
}

// DestroyPipeline releases a pipeline created by CreatePipeline.
func (b *Backend) DestroyPipeline(raw any) {
	p, ok := raw.(*pipeline)
	if !ok || p == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		slogger().Warn("pipeline destroy after backend close")
		return
	}
	p.destroy(b.device)
}

// destroy releases all pipeline resources in reverse creation order.
// Safe to call on a partially constructed pipeline.
func (p *pipeline) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	for _, layout := range p.layouts {
		if layout != nil {
			device.DestroyBindGroupLayout(layout)
		}
	}
	p.layouts = nil
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
