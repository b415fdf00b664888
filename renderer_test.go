package wgpurenderer

import (
	"errors"
	"testing"

	"github.com/FairlyBet/wgpurenderer/immediate"
	"github.com/gogpu/gputypes"
)

// fakeBackend implements Backend in memory, counting live resources so
// tests can observe the renderer's storage delete hooks.
type fakeBackend struct {
	pipelines int
	buffers   int
	groups    int
	targets   int

	lastMaterial *MaterialDescriptor
	lastTarget   *TargetDescriptor
	lastWrite    []byte
	lastHint     int
	lastClear    gputypes.Color
	rec          *logRecorder
	ended        bool
	closed       bool

	pipelineErr error
}

type fakeTarget struct{ width, height int }

func (f *fakeBackend) CreatePipeline(desc *MaterialDescriptor) (any, error) {
	if f.pipelineErr != nil {
		return nil, f.pipelineErr
	}
	f.pipelines++
	d := *desc
	f.lastMaterial = &d
	return "pipeline", nil
}

func (f *fakeBackend) DestroyPipeline(any) { f.pipelines-- }

func (f *fakeBackend) CreateVertexBuffer(data []byte) (any, error) {
	f.buffers++
	return "vbuf", nil
}

func (f *fakeBackend) CreateIndexBuffer(data []byte) (any, error) {
	f.buffers++
	return "ibuf", nil
}

func (f *fakeBackend) DestroyBuffer(any) { f.buffers-- }

func (f *fakeBackend) CreateUniformGroup(pipeline any, slot int, size uint64) (any, error) {
	f.groups++
	return "group", nil
}

func (f *fakeBackend) WriteUniformGroup(raw any, offset uint64, data []byte) error {
	f.lastWrite = append([]byte(nil), data...)
	return nil
}

func (f *fakeBackend) DestroyUniformGroup(any) { f.groups-- }

func (f *fakeBackend) CreateTarget(desc *TargetDescriptor) (any, error) {
	f.targets++
	d := *desc
	f.lastTarget = &d
	return &fakeTarget{width: desc.Width, height: desc.Height}, nil
}

func (f *fakeBackend) ResizeTarget(raw any, width, height int) error {
	t := raw.(*fakeTarget)
	t.width, t.height = width, height
	return nil
}

func (f *fakeBackend) DestroyTarget(any) { f.targets-- }

func (f *fakeBackend) ReadTarget(raw any) (*TargetPixels, error) {
	t := raw.(*fakeTarget)
	return &TargetPixels{
		Data:   make([]uint8, t.width*t.height*4),
		Width:  t.width,
		Height: t.height,
		Stride: t.width * 4,
	}, nil
}

func (f *fakeBackend) BeginPass(target any, clear gputypes.Color, immediateBytes int) (Recorder, error) {
	f.rec = &logRecorder{}
	f.lastHint = immediateBytes
	f.lastClear = clear
	f.ended = false
	return f.rec, nil
}

func (f *fakeBackend) EndPass(rec Recorder) error {
	f.ended = true
	return nil
}

func (f *fakeBackend) Close() { f.closed = true }

func TestRendererMaterialLifecycle(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	h, err := r.CreateMaterial(&MaterialDescriptor{Label: "lit", Source: "src"})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	if fb.pipelines != 1 {
		t.Fatalf("backend pipelines = %d, want 1", fb.pipelines)
	}

	// The last handle release destroys the backend pipeline.
	h.Release()
	if fb.pipelines != 0 {
		t.Errorf("backend pipelines = %d after release, want 0", fb.pipelines)
	}
}

func TestRendererMaterialDefaults(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	if _, err := r.CreateMaterial(&MaterialDescriptor{Source: "src"}); err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	d := fb.lastMaterial
	if d.VertexEntry != "vs_main" || d.FragmentEntry != "fs_main" {
		t.Errorf("entries = %q/%q, want vs_main/fs_main", d.VertexEntry, d.FragmentEntry)
	}
	if d.ColorFormat != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("color format = %v, want BGRA8Unorm", d.ColorFormat)
	}
	if d.SampleCount != 1 {
		t.Errorf("sample count = %d, want 1", d.SampleCount)
	}
}

func TestRendererMaterialError(t *testing.T) {
	fb := &fakeBackend{pipelineErr: errors.New("compile failed")}
	r := New(fb, Config{})

	_, err := r.CreateMaterial(&MaterialDescriptor{Label: "bad", Source: "src"})
	if !errors.Is(err, fb.pipelineErr) {
		t.Fatalf("err = %v, want wrapped compile error", err)
	}
	if fb.pipelines != 0 {
		t.Errorf("backend pipelines = %d after failed create, want 0", fb.pipelines)
	}
}

func TestRendererGeometry(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	geo, err := r.CreateGeometry(&GeometryDescriptor{
		Label:       "cube",
		VertexData:  make([]byte, 96),
		VertexCount: 4,
		IndexData:   make([]byte, 12),
		IndexCount:  6,
	})
	if err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}
	if fb.buffers != 2 {
		t.Fatalf("backend buffers = %d, want 2", fb.buffers)
	}
	if geo.IndexFormat != gputypes.IndexFormatUint16 {
		t.Errorf("index format = %v, want uint16 default", geo.IndexFormat)
	}

	mat, _ := r.CreateMaterial(&MaterialDescriptor{Source: "src"})
	call := geo.DrawCall(mat, nil, nil)
	if call.IndexBuffer == nil {
		t.Fatal("DrawCall has no index buffer for indexed geometry")
	}
	if call.Count != 6 {
		t.Errorf("DrawCall count = %d, want index count 6", call.Count)
	}

	geo.Release()
	if fb.buffers != 0 {
		t.Errorf("backend buffers = %d after release, want 0", fb.buffers)
	}
}

func TestRendererRenderFlow(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	matA, _ := r.CreateMaterial(&MaterialDescriptor{Label: "A", Source: "src"})
	matB, _ := r.CreateMaterial(&MaterialDescriptor{Label: "B", Source: "src"})
	tgt, err := r.CreateTarget(TargetDescriptor{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}

	im := r.NewImmediate(80)
	r.Draw(DrawCall{Pipeline: matB, Count: 3})
	r.Draw(DrawCall{Pipeline: matA, Count: 3, Immediates: im})
	r.Draw(DrawCall{Pipeline: matB.Clone(), Count: 3})

	clear := gputypes.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}
	if err := r.Render(&Pass{Target: tgt, ClearColor: clear}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := fb.rec.count("pipeline"); got != 2 {
		t.Errorf("pipeline binds = %d, want 2 (ops: %v)", got, fb.rec.ops)
	}
	if got := fb.rec.count("draw"); got != 3 {
		t.Errorf("draws = %d, want 3", got)
	}
	if !fb.ended {
		t.Error("pass not submitted")
	}
	if fb.lastClear != clear {
		t.Errorf("clear color = %v, want %v", fb.lastClear, clear)
	}
	// One 80-byte block rounds up to one aligned slot.
	if fb.lastHint != ImmediateAlignment {
		t.Errorf("immediate hint = %d, want %d", fb.lastHint, ImmediateAlignment)
	}

	// The draw list is consumed by Render.
	if err := r.Render(&Pass{Target: tgt}); err != nil {
		t.Fatalf("second Render: %v", err)
	}
	if got := fb.rec.count("draw"); got != 0 {
		t.Errorf("second pass draws = %d, want 0", got)
	}
}

func TestRendererRenderTargetRequired(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	if err := r.Render(nil); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Render(nil) = %v, want ErrNoTarget", err)
	}
	if err := r.Render(&Pass{}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Render(no target) = %v, want ErrNoTarget", err)
	}
}

func TestRendererCustomExecutor(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	mat, _ := r.CreateMaterial(&MaterialDescriptor{Source: "src"})
	tgt, _ := r.CreateTarget(TargetDescriptor{Width: 4, Height: 4})
	r.Draw(DrawCall{Pipeline: mat, Count: 3})

	called := false
	pass := &Pass{
		Target: tgt,
		Executor: func(rec Recorder, calls []DrawCall, imm *immediate.Manager) {
			called = true
			if len(calls) != 1 {
				t.Errorf("executor got %d calls, want 1", len(calls))
			}
		},
	}
	if err := r.Render(pass); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !called {
		t.Error("custom executor not called")
	}
	if got := fb.rec.count("draw"); got != 0 {
		t.Errorf("default executor ran anyway (%d draws)", got)
	}
}

func TestRendererTargetDefaultsAndResize(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{SampleCount: 4})

	tgt, err := r.CreateTarget(TargetDescriptor{Width: 8, Height: 6, Depth: true})
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if fb.lastTarget.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("target format = %v, want config default", fb.lastTarget.Format)
	}
	if fb.lastTarget.SampleCount != 4 {
		t.Errorf("target samples = %d, want 4", fb.lastTarget.SampleCount)
	}

	if err := r.ResizeTarget(tgt, 16, 12); err != nil {
		t.Fatalf("ResizeTarget: %v", err)
	}
	if w, h := tgt.Size(); w != 16 || h != 12 {
		t.Errorf("size after resize = %dx%d, want 16x12", w, h)
	}

	px, err := r.ReadTarget(tgt)
	if err != nil {
		t.Fatalf("ReadTarget: %v", err)
	}
	if px.Width != 16 || px.Height != 12 {
		t.Errorf("pixels = %dx%d, want 16x12", px.Width, px.Height)
	}

	r.DestroyTarget(tgt)
	if fb.targets != 0 {
		t.Errorf("backend targets = %d after destroy, want 0", fb.targets)
	}

	if _, err := r.CreateTarget(TargetDescriptor{Width: 0, Height: 6}); err == nil {
		t.Error("zero-width target accepted")
	}
}

func TestRendererUniforms(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	mat, _ := r.CreateMaterial(&MaterialDescriptor{Source: "src"})
	g, err := r.CreateUniforms(mat, 0, 64)
	if err != nil {
		t.Fatalf("CreateUniforms: %v", err)
	}
	if fb.groups != 1 {
		t.Fatalf("backend groups = %d, want 1", fb.groups)
	}

	data := []byte{1, 2, 3, 4}
	if err := r.WriteUniforms(g, 0, data); err != nil {
		t.Fatalf("WriteUniforms: %v", err)
	}
	if len(fb.lastWrite) != 4 || fb.lastWrite[0] != 1 {
		t.Errorf("backend write = %v, want %v", fb.lastWrite, data)
	}

	g.Release()
	if fb.groups != 0 {
		t.Errorf("backend groups = %d after release, want 0", fb.groups)
	}
}

func TestRendererClose(t *testing.T) {
	fb := &fakeBackend{}
	r := New(fb, Config{})

	r.Close()
	if !fb.closed {
		t.Fatal("backend not closed")
	}
	if _, err := r.CreateMaterial(&MaterialDescriptor{Source: "src"}); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("CreateMaterial after close = %v, want ErrRendererClosed", err)
	}
	if err := r.Render(&Pass{Target: &RenderTarget{}}); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Render after close = %v, want ErrRendererClosed", err)
	}
	// Closing twice is a no-op.
	r.Close()
}
