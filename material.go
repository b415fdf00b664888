package wgpurenderer

import "github.com/gogpu/gputypes"

// MaterialDescriptor describes a render pipeline to compile. The
// descriptor owns every nested layout value; nothing is retained by
// reference after CreateMaterial returns.
type MaterialDescriptor struct {
	// Label names the pipeline in debug output.
	Label string

	// Source is the WGSL shader source for both stages. It is
	// validated and compiled before any GPU object is created, so a
	// malformed shader fails CreateMaterial with a compile error.
	Source string

	// VertexEntry and FragmentEntry name the stage entry points.
	// Empty values default to "vs_main" and "fs_main".
	VertexEntry   string
	FragmentEntry string

	// VertexLayouts describe the vertex buffers consumed by the vertex
	// stage, one entry per input slot.
	VertexLayouts []gputypes.VertexBufferLayout

	// BindGroupLayouts describe the uniform groups per slot:
	// BindGroupLayouts[i] lists the entries of group slot i.
	BindGroupLayouts [][]gputypes.BindGroupLayoutEntry

	// Immediates reserves the group slot after the last entry of
	// BindGroupLayouts for per-draw immediate data. The shader declares
	// that slot as a single uniform buffer at binding 0.
	Immediates bool

	// ColorFormat is the render target color format the pipeline
	// writes to. Zero uses the renderer Config default.
	ColorFormat gputypes.TextureFormat

	// Blend, when non-nil, enables blending on the color target.
	Blend *gputypes.BlendState

	// Topology is the primitive topology. The zero value is point
	// lists; DefaultMaterialDescriptor sets triangle lists.
	Topology gputypes.PrimitiveTopology

	// CullMode selects back-face culling.
	CullMode gputypes.CullMode

	// DepthStencil, when non-nil, enables depth testing. The target
	// rendered with this material must carry a depth attachment.
	DepthStencil *DepthStencilConfig

	// SampleCount is the MSAA sample count the pipeline renders at.
	// Zero uses the renderer Config default.
	SampleCount uint32
}

// DepthStencilConfig enables depth testing for a material.
type DepthStencilConfig struct {
	// Format is the depth-stencil attachment format.
	Format gputypes.TextureFormat

	// DepthWriteEnabled lets the material write depth.
	DepthWriteEnabled bool

	// DepthCompare is the depth test function.
	DepthCompare gputypes.CompareFunction
}

// DefaultMaterialDescriptor returns a descriptor for an opaque
// triangle-list material with depth testing enabled. Callers fill in
// Source and the layouts.
func DefaultMaterialDescriptor() MaterialDescriptor {
	return MaterialDescriptor{
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		CullMode:      gputypes.CullModeBack,
		DepthStencil: &DepthStencilConfig{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
		},
	}
}
