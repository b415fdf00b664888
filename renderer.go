package wgpurenderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/FairlyBet/wgpurenderer/immediate"
	"github.com/FairlyBet/wgpurenderer/pool"
	"github.com/gogpu/gputypes"
)

var (
	// ErrRendererClosed is returned by operations on a closed Renderer.
	ErrRendererClosed = errors.New("wgpurenderer: renderer is closed")

	// ErrNoTarget is returned by Render when the pass names no target.
	ErrNoTarget = errors.New("wgpurenderer: pass has no target")
)

// Config holds renderer-wide defaults applied to descriptors that leave
// the corresponding fields zero.
type Config struct {
	// ColorFormat is the default color format for materials and render
	// targets.
	ColorFormat gputypes.TextureFormat

	// SampleCount is the default MSAA sample count for materials and
	// render targets.
	SampleCount uint32
}

// DefaultConfig returns the default renderer configuration:
// BGRA8Unorm color, no MSAA.
func DefaultConfig() Config {
	return Config{
		ColorFormat: gputypes.TextureFormatBGRA8Unorm,
		SampleCount: 1,
	}
}

// Renderer owns the GPU resources created through it and re-plays
// submitted draw calls in sorted order. All resources live in id-keyed
// storages and are referenced by handles; the last handle release
// destroys the backend resource through the storage delete hook.
//
// A Renderer has a single logical owner. Structural state is guarded so
// accidental cross-goroutine use fails loudly rather than corrupting
// anything, but concurrent recording is not supported.
type Renderer struct {
	backend Backend
	cfg     Config

	pipelines *pool.Storage[Pipeline]
	groups    *pool.Storage[BindGroup]
	buffers   *pool.Storage[Buffer]
	imm       *immediate.Manager

	mu     sync.Mutex
	calls  []DrawCall
	closed bool
}

// New creates a Renderer on the given backend. Zero cfg fields are
// filled from DefaultConfig.
func New(backend Backend, cfg Config) *Renderer {
	if backend == nil {
		panic("wgpurenderer: nil backend")
	}
	def := DefaultConfig()
	if cfg.ColorFormat == gputypes.TextureFormatUndefined {
		cfg.ColorFormat = def.ColorFormat
	}
	if cfg.SampleCount == 0 {
		cfg.SampleCount = def.SampleCount
	}

	r := &Renderer{
		backend:   backend,
		cfg:       cfg,
		pipelines: pool.NewStorage[Pipeline](),
		groups:    pool.NewStorage[BindGroup](),
		buffers:   pool.NewStorage[Buffer](),
		imm:       immediate.NewManager(),
	}
	r.pipelines.SetDeleteFunc(func(p Pipeline) { backend.DestroyPipeline(p.raw) })
	r.groups.SetDeleteFunc(func(g BindGroup) { backend.DestroyUniformGroup(g.raw) })
	r.buffers.SetDeleteFunc(func(b Buffer) { backend.DestroyBuffer(b.raw) })
	return r
}

// CreateMaterial validates and compiles desc into a render pipeline and
// returns the first handle to it. The descriptor is not retained.
func (r *Renderer) CreateMaterial(desc *MaterialDescriptor) (*pool.Handle[Pipeline], error) {
	if r.isClosed() {
		return nil, ErrRendererClosed
	}

	d := *desc
	if d.VertexEntry == "" {
		d.VertexEntry = "vs_main"
	}
	if d.FragmentEntry == "" {
		d.FragmentEntry = "fs_main"
	}
	if d.ColorFormat == gputypes.TextureFormatUndefined {
		d.ColorFormat = r.cfg.ColorFormat
	}
	if d.SampleCount == 0 {
		d.SampleCount = r.cfg.SampleCount
	}

	raw, err := r.backend.CreatePipeline(&d)
	if err != nil {
		return nil, fmt.Errorf("create material %q: %w", desc.Label, err)
	}
	return r.pipelines.Create(Pipeline{raw: raw}), nil
}

// CreateUniforms allocates a uniform buffer of size bytes bound at
// binding 0 of the pipeline's given group slot, and returns the first
// handle to the resulting bind group. Fill it with WriteUniforms.
func (r *Renderer) CreateUniforms(pipeline *pool.Handle[Pipeline], slot int, size uint64) (*pool.Handle[BindGroup], error) {
	if r.isClosed() {
		return nil, ErrRendererClosed
	}
	raw, err := r.backend.CreateUniformGroup(pipeline.Value().raw, slot, size)
	if err != nil {
		return nil, fmt.Errorf("create uniforms (slot %d): %w", slot, err)
	}
	return r.groups.Create(BindGroup{raw: raw}), nil
}

// WriteUniforms schedules an upload of data into the group's uniform
// buffer at offset. The write lands before the next submitted pass.
func (r *Renderer) WriteUniforms(group *pool.Handle[BindGroup], offset uint64, data []byte) error {
	if r.isClosed() {
		return ErrRendererClosed
	}
	if err := r.backend.WriteUniformGroup(group.Value().raw, offset, data); err != nil {
		return fmt.Errorf("write uniforms: %w", err)
	}
	return nil
}

// CreateGeometry uploads desc's vertex data (and index data, when
// present) into new buffers and returns the bundled handles.
func (r *Renderer) CreateGeometry(desc *GeometryDescriptor) (*Geometry, error) {
	if r.isClosed() {
		return nil, ErrRendererClosed
	}

	vraw, err := r.backend.CreateVertexBuffer(desc.VertexData)
	if err != nil {
		return nil, fmt.Errorf("create geometry %q: %w", desc.Label, err)
	}
	geo := &Geometry{
		Vertices:    r.buffers.Create(Buffer{raw: vraw, size: uint64(len(desc.VertexData))}),
		VertexCount: desc.VertexCount,
	}

	if len(desc.IndexData) > 0 {
		iraw, err := r.backend.CreateIndexBuffer(desc.IndexData)
		if err != nil {
			geo.Vertices.Release()
			return nil, fmt.Errorf("create geometry %q indices: %w", desc.Label, err)
		}
		geo.Indices = r.buffers.Create(Buffer{raw: iraw, size: uint64(len(desc.IndexData))})
		geo.IndexCount = desc.IndexCount
		// Anything that is not explicitly uint32 indexes as uint16.
		if desc.IndexFormat == gputypes.IndexFormatUint32 {
			geo.IndexFormat = gputypes.IndexFormatUint32
		} else {
			geo.IndexFormat = gputypes.IndexFormatUint16
		}
	}
	return geo, nil
}

// NewImmediate allocates a size-byte per-draw constant block in the
// renderer's immediate manager.
func (r *Renderer) NewImmediate(size int) *Immediate {
	return NewImmediate(r.imm, size)
}

// Immediates exposes the renderer's immediate manager for custom
// executors and tests.
func (r *Renderer) Immediates() *immediate.Manager { return r.imm }

// CreateTarget allocates an offscreen render target. Zero Format and
// SampleCount fall back to the renderer Config.
func (r *Renderer) CreateTarget(desc TargetDescriptor) (*RenderTarget, error) {
	if r.isClosed() {
		return nil, ErrRendererClosed
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("wgpurenderer: invalid target size %dx%d", desc.Width, desc.Height)
	}
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = r.cfg.ColorFormat
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = r.cfg.SampleCount
	}

	raw, err := r.backend.CreateTarget(&desc)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return &RenderTarget{raw: raw, desc: desc}, nil
}

// ResizeTarget reallocates the target's attachments at a new size.
// Outstanding TargetPixels from the old size remain valid; handles to
// the target itself stay usable.
func (r *Renderer) ResizeTarget(t *RenderTarget, width, height int) error {
	if r.isClosed() {
		return ErrRendererClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpurenderer: invalid target size %dx%d", width, height)
	}
	if err := r.backend.ResizeTarget(t.raw, width, height); err != nil {
		return fmt.Errorf("resize target: %w", err)
	}
	t.desc.Width, t.desc.Height = width, height
	return nil
}

// DestroyTarget releases the target's attachments.
func (r *Renderer) DestroyTarget(t *RenderTarget) {
	r.backend.DestroyTarget(t.raw)
}

// ReadTarget blocks until rendering to t has completed and returns its
// color contents.
func (r *Renderer) ReadTarget(t *RenderTarget) (*TargetPixels, error) {
	if r.isClosed() {
		return nil, ErrRendererClosed
	}
	px, err := r.backend.ReadTarget(t.raw)
	if err != nil {
		return nil, fmt.Errorf("read target: %w", err)
	}
	return px, nil
}

// Draw appends call to the pending draw list. The list is consumed by
// the next Render.
func (r *Renderer) Draw(call DrawCall) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

// Render consumes the pending draw list and replays it into one render
// pass on the pass target: sort, record through the backend's Recorder,
// submit, wait for completion. An empty draw list still clears the
// target.
func (r *Renderer) Render(pass *Pass) error {
	if pass == nil || pass.Target == nil {
		return ErrNoTarget
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRendererClosed
	}
	calls := r.calls
	r.calls = nil
	r.mu.Unlock()

	// Give the backend the summed staging space its recorder will need
	// for per-draw immediates during this pass.
	immediateBytes := 0
	for i := range calls {
		if calls[i].Immediates == nil {
			continue
		}
		if b, ok := calls[i].Immediates.Bytes(); ok {
			immediateBytes += alignImmediate(len(b))
		}
	}

	rec, err := r.backend.BeginPass(pass.Target.raw, pass.ClearColor, immediateBytes)
	if err != nil {
		return fmt.Errorf("begin pass: %w", err)
	}
	exec := pass.Executor
	if exec == nil {
		exec = ExecuteOrderedDrawCalls
	}
	exec(rec, calls, r.imm)
	if err := r.backend.EndPass(rec); err != nil {
		return fmt.Errorf("submit pass: %w", err)
	}
	return nil
}

// Close shuts down the backend. Callers should release their handles
// first; resources still live at Close are logged and abandoned to the
// device teardown.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	if n, g, b := r.pipelines.Len(), r.groups.Len(), r.buffers.Len(); n+g+b > 0 {
		Logger().Warn("renderer closed with live resources",
			"pipelines", n, "bindGroups", g, "buffers", b)
	}
	r.backend.Close()
}

func (r *Renderer) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// ImmediateAlignment is the byte alignment of per-draw immediate blocks
// in the backend staging buffer, the WebGPU minimum dynamic uniform
// offset alignment.
const ImmediateAlignment = 256

func alignImmediate(n int) int {
	return (n + ImmediateAlignment - 1) &^ (ImmediateAlignment - 1)
}
