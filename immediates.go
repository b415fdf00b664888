package wgpurenderer

import (
	"encoding/binary"
	"math"

	"github.com/FairlyBet/wgpurenderer/immediate"
	"github.com/FairlyBet/wgpurenderer/linear"
	"github.com/FairlyBet/wgpurenderer/pool"
)

// Immediate is a typed view over one block in an immediate manager,
// carrying small per-draw constants (a color, a transform) that change
// too often to live in a uniform group. Blocks are allocated through
// Renderer.NewImmediate, attached to draw calls via DrawCall.Immediates,
// and freed with Free when no draw references them anymore.
//
// Scalars are stored little-endian; vectors and matrices follow WGSL
// uniform layout, with matrices written column-major. Writing outside
// the block panics, as does writing after Free.
type Immediate struct {
	m  *immediate.Manager
	id pool.ID
}

// NewImmediate allocates a size-byte block in m. Most callers go
// through Renderer.NewImmediate; this constructor exists for custom
// executors and tests that own their manager.
func NewImmediate(m *immediate.Manager, size int) *Immediate {
	return &Immediate{m: m, id: m.Add(size)}
}

// ID returns the block id inside the manager.
func (im *Immediate) ID() pool.ID { return im.id }

// Bytes returns the live block contents, or ok=false once the block has
// been freed. The slice is invalidated by any allocation that grows the
// manager's buffer.
func (im *Immediate) Bytes() ([]byte, bool) { return im.m.Get(im.id) }

// Free returns the block to the manager. Freeing twice panics.
func (im *Immediate) Free() { im.m.Remove(im.id) }

// span returns n writable bytes at off, checking both block liveness
// and bounds.
func (im *Immediate) span(off, n int) []byte {
	b, ok := im.m.Get(im.id)
	if !ok {
		panic("wgpurenderer: access to freed immediate block")
	}
	if off < 0 || off+n > len(b) {
		panic("wgpurenderer: immediate access out of range")
	}
	return b[off : off+n]
}

// SetFloat32 stores v at byte offset off.
func (im *Immediate) SetFloat32(off int, v float32) {
	binary.LittleEndian.PutUint32(im.span(off, 4), math.Float32bits(v))
}

// Float32 reads the float32 at byte offset off.
func (im *Immediate) Float32(off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(im.span(off, 4)))
}

// SetVec3 stores v at byte offset off as three consecutive float32s.
func (im *Immediate) SetVec3(off int, v linear.Vec3) {
	b := im.span(off, 12)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}

// SetVec4 stores v at byte offset off as four consecutive float32s.
func (im *Immediate) SetVec4(off int, v linear.Vec4) {
	b := im.span(off, 16)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
	binary.LittleEndian.PutUint32(b[12:], math.Float32bits(v.W))
}

// SetMat4 stores m at byte offset off, column-major as WGSL expects.
func (im *Immediate) SetMat4(off int, m linear.Mat4) {
	b := im.span(off, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
}
