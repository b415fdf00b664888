//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/FairlyBet/wgpurenderer"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import the Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var (
	// errBackendClosed is returned by create operations after Close.
	errBackendClosed = errors.New("gpu: backend is closed")

	// ErrNoGPU indicates that no usable GPU adapter was found.
	ErrNoGPU = errors.New("gpu: no GPU available")
)

// Backend implements wgpurenderer.Backend on a wgpu/hal device.
//
// A Backend created by Open owns the instance and device and destroys
// them on Close. A Backend created by NewBackend borrows the device from
// the caller and leaves it alive on Close.
type Backend struct {
	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// immLayout is the shared dynamic-offset uniform layout used by
	// every pipeline with immediates enabled and by the per-pass
	// staging bind group. Created lazily.
	immLayout hal.BindGroupLayout

	// adapter is the raw hal adapter the device was opened on, kept for
	// the gpucontext provider surface.
	adapter     any
	adapterName string
	deviceType  gputypes.DeviceType

	externalDevice bool
	closed         bool
}

var _ wgpurenderer.Backend = (*Backend)(nil)

// Open boots the full device stack: instance, adapter selection,
// device, and queue. Hardware GPUs are preferred over software
// adapters; preferLowPower picks an integrated adapter over a discrete
// one when both are present.
func Open(preferLowPower bool) (*Backend, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters found", ErrNoGPU)
	}
	selected := selectAdapter(adapters, preferLowPower)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	b := &Backend{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		adapter:     selected.Adapter,
		adapterName: selected.Info.Name,
		deviceType:  selected.Info.DeviceType,
	}
	slogger().Info("gpu backend initialized", "adapter", b.adapterName)
	return b, nil
}

// selectAdapter picks the preferred adapter: discrete first (integrated
// first with preferLowPower), falling back to whatever is available.
func selectAdapter(adapters []hal.ExposedAdapter, preferLowPower bool) *hal.ExposedAdapter {
	first, second := gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU
	if preferLowPower {
		first, second = second, first
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == first {
			return &adapters[i]
		}
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == second {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// NewBackend wraps an externally owned device and queue, for embedding
// the renderer in an application that already booted wgpu. Close leaves
// the device alive.
func NewBackend(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{
		device:         device,
		queue:          queue,
		externalDevice: true,
	}
}

// AdapterName returns the name of the selected GPU adapter.
// Empty for backends wrapping an external device.
func (b *Backend) AdapterName() string { return b.adapterName }

// DeviceType returns the type of the selected GPU adapter.
func (b *Backend) DeviceType() gputypes.DeviceType { return b.deviceType }

// Device returns the underlying hal device.
func (b *Backend) Device() hal.Device { return b.device }

// Queue returns the underlying hal queue.
func (b *Backend) Queue() hal.Queue { return b.queue }

// Adapter returns the raw hal adapter, nil for external devices.
func (b *Backend) Adapter() any { return b.adapter }

// Close releases backend-owned resources. With an owned device the
// device and instance are destroyed too; with an external device they
// are left alive. Safe to call more than once.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.immLayout != nil {
		b.device.DestroyBindGroupLayout(b.immLayout)
		b.immLayout = nil
	}

	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.device = nil
	b.instance = nil
	b.queue = nil
	slogger().Debug("gpu backend closed")
}

// immediatesLayoutLocked returns the shared immediates bind group
// layout, creating it on first use. The caller holds b.mu.
//
// A single layout object serves both pipeline creation and the per-pass
// staging bind group, so group compatibility holds on every hal backend.
func (b *Backend) immediatesLayoutLocked() (hal.BindGroupLayout, error) {
	if b.immLayout != nil {
		return b.immLayout, nil
	}
	layout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "immediates_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create immediates layout: %w", err)
	}
	b.immLayout = layout
	return layout, nil
}

// CreateVertexBuffer uploads data into a new vertex buffer.
func (b *Backend) CreateVertexBuffer(data []byte) (any, error) {
	return b.createBuffer("vertex_buffer", data,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
}

// CreateIndexBuffer uploads data into a new index buffer.
func (b *Backend) CreateIndexBuffer(data []byte) (any, error) {
	return b.createBuffer("index_buffer", data,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
}

func (b *Backend) createBuffer(label string, data []byte, usage gputypes.BufferUsage) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBackendClosed
	}
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// DestroyBuffer releases a buffer created by CreateVertexBuffer or
// CreateIndexBuffer.
func (b *Backend) DestroyBuffer(raw any) {
	buf, ok := raw.(hal.Buffer)
	if !ok || buf == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		slogger().Warn("buffer destroy after backend close")
		return
	}
	b.device.DestroyBuffer(buf)
}

// uniformGroup is a uniform buffer together with the bind group exposing
// it at binding 0 of one pipeline group slot.
type uniformGroup struct {
	buf   hal.Buffer
	group hal.BindGroup
	size  uint64
}

// CreateUniformGroup allocates a uniform buffer of size bytes and binds
// it at binding 0 of the pipeline's given group slot.
func (b *Backend) CreateUniformGroup(pipelineRaw any, slot int, size uint64) (any, error) {
	p, ok := pipelineRaw.(*pipeline)
	if !ok || p == nil {
		return nil, errors.New("gpu: not a pipeline")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBackendClosed
	}
	if slot < 0 || slot >= len(p.layouts) {
		return nil, fmt.Errorf("gpu: pipeline has no group slot %d", slot)
	}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "uniform_buffer",
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}

	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "uniform_group",
		Layout: p.layouts[slot],
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: size,
			}},
		},
	})
	if err != nil {
		b.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("create bind group: %w", err)
	}

	return &uniformGroup{buf: buf, group: group, size: size}, nil
}

// WriteUniformGroup schedules an upload of data into the group's
// uniform buffer at offset.
func (b *Backend) WriteUniformGroup(raw any, offset uint64, data []byte) error {
	ug, ok := raw.(*uniformGroup)
	if !ok || ug == nil {
		return errors.New("gpu: not a uniform group")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBackendClosed
	}
	if offset+uint64(len(data)) > ug.size {
		return fmt.Errorf("gpu: uniform write of %d bytes at %d exceeds buffer size %d",
			len(data), offset, ug.size)
	}
	b.queue.WriteBuffer(ug.buf, offset, data)
	return nil
}

// DestroyUniformGroup releases a group created by CreateUniformGroup.
func (b *Backend) DestroyUniformGroup(raw any) {
	ug, ok := raw.(*uniformGroup)
	if !ok || ug == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		slogger().Warn("uniform group destroy after backend close")
		return
	}
	if ug.group != nil {
		b.device.DestroyBindGroup(ug.group)
		ug.group = nil
	}
	if ug.buf != nil {
		b.device.DestroyBuffer(ug.buf)
		ug.buf = nil
	}
}
