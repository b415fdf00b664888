package wgpurenderer

import (
	"github.com/FairlyBet/wgpurenderer/pool"
	"github.com/gogpu/gputypes"
)

// GeometryDescriptor describes vertex and index data to upload.
type GeometryDescriptor struct {
	// Label names the buffers in debug output.
	Label string

	// VertexData is the raw contents of the vertex buffer. Required.
	VertexData []byte

	// VertexCount is the number of vertices in VertexData.
	VertexCount uint32

	// IndexData, when non-empty, uploads an index buffer and makes
	// draws of this geometry indexed.
	IndexData []byte

	// IndexFormat is the index element type. Defaults to uint16.
	IndexFormat gputypes.IndexFormat

	// IndexCount is the number of indices in IndexData.
	IndexCount uint32
}

// Geometry bundles the uploaded buffers of one mesh. The handles are
// owned by the Geometry; call Release when the mesh is no longer drawn.
type Geometry struct {
	// Vertices is the vertex buffer handle.
	Vertices *pool.Handle[Buffer]

	// Indices is the index buffer handle, nil for non-indexed meshes.
	Indices *pool.Handle[Buffer]

	// IndexFormat is the index element type when Indices is set.
	IndexFormat gputypes.IndexFormat

	// VertexCount and IndexCount size the draws built from this
	// geometry.
	VertexCount uint32
	IndexCount  uint32
}

// DrawCall assembles a draw of this geometry with the given pipeline,
// bind groups, and optional immediate block. The returned call shares
// this geometry's handles rather than cloning them, so the geometry
// must outlive the call's recording.
func (g *Geometry) DrawCall(pipeline *pool.Handle[Pipeline], groups []*pool.Handle[BindGroup], imm *Immediate) DrawCall {
	call := DrawCall{
		Pipeline:      pipeline,
		BindGroups:    groups,
		VertexBuffers: []VertexBufferBinding{{Buffer: g.Vertices}},
		Immediates:    imm,
		Count:         g.VertexCount,
	}
	if g.Indices != nil {
		call.IndexBuffer = &IndexBufferBinding{Buffer: g.Indices, Format: g.IndexFormat}
		call.Count = g.IndexCount
	}
	return call
}

// Release releases the geometry's buffer handles.
func (g *Geometry) Release() {
	g.Vertices.Release()
	if g.Indices != nil {
		g.Indices.Release()
	}
}
