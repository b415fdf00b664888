//go:build !nogpu

// Package gpu boots the wgpu device stack and hands back the backend
// the renderer runs on.
//
// Open creates an instance, selects an adapter, opens a device, and
// wraps everything in a Context:
//
//	ctx, err := gpu.Open(gpu.DefaultConfig())
//	if err != nil {
//		// no Vulkan/Metal/DX12 available
//	}
//	defer ctx.Close()
//
//	r := wgpurenderer.New(ctx.Backend(), wgpurenderer.DefaultConfig())
//	defer r.Close()
//
// Applications that already own a wgpu device (for example a windowing
// stack built on gogpu) use OpenWith instead, passing any value that
// exposes HalDevice() any and HalQueue() any. In the other direction,
// Context.Provider returns a gpucontext.DeviceProvider so ecosystem
// components can share the device opened here.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/FairlyBet/wgpurenderer"
	igpu "github.com/FairlyBet/wgpurenderer/internal/gpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNoGPU indicates that no usable GPU adapter was found.
	ErrNoGPU = igpu.ErrNoGPU

	// ErrInvalidProvider is returned by OpenWith when the provider does
	// not expose hal device access.
	ErrInvalidProvider = errors.New("gpu: provider does not expose HAL types")
)

// Config controls device selection.
type Config struct {
	// PreferLowPower selects an integrated adapter over a discrete one
	// when both are present.
	PreferLowPower bool

	// SurfaceFormat is reported through Provider for consumers that
	// ask. Zero defaults to BGRA8Unorm, the renderer default.
	SurfaceFormat gputypes.TextureFormat
}

// DefaultConfig returns the default device selection configuration.
func DefaultConfig() Config {
	return Config{SurfaceFormat: gputypes.TextureFormatBGRA8Unorm}
}

// GPUInfo describes the adapter a Context is running on.
type GPUInfo struct {
	// Name is the adapter name (e.g. "NVIDIA GeForce RTX 3080").
	Name string

	// DeviceType is the adapter class (discrete, integrated, CPU).
	DeviceType gputypes.DeviceType
}

// Context owns a booted device stack. It is created by Open or OpenWith
// and must be closed after the renderer using its backend is closed.
type Context struct {
	mu      sync.Mutex
	backend *igpu.Backend
	format  gputypes.TextureFormat
	info    GPUInfo
	closed  bool
}

// Open boots the device stack and returns a Context wrapping it.
func Open(cfg Config) (*Context, error) {
	if cfg.SurfaceFormat == gputypes.TextureFormatUndefined {
		cfg.SurfaceFormat = gputypes.TextureFormatBGRA8Unorm
	}
	backend, err := igpu.Open(cfg.PreferLowPower)
	if err != nil {
		return nil, err
	}
	return &Context{
		backend: backend,
		format:  cfg.SurfaceFormat,
		info: GPUInfo{
			Name:       backend.AdapterName(),
			DeviceType: backend.DeviceType(),
		},
	}, nil
}

// OpenWith wraps an externally owned device instead of booting one. The
// provider must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. Close leaves the external device alive.
func OpenWith(provider any, cfg Config) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrInvalidProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrInvalidProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrInvalidProvider)
	}

	if cfg.SurfaceFormat == gputypes.TextureFormatUndefined {
		cfg.SurfaceFormat = gputypes.TextureFormatBGRA8Unorm
	}
	return &Context{
		backend: igpu.NewBackend(device, queue),
		format:  cfg.SurfaceFormat,
	}, nil
}

// Backend returns the wgpurenderer backend for this device.
func (c *Context) Backend() wgpurenderer.Backend { return c.backend }

// Info returns adapter information. Zero for external devices.
func (c *Context) Info() GPUInfo { return c.info }

// Provider returns a gpucontext.DeviceProvider sharing this context's
// device, for embedding other gogpu ecosystem components. The provider
// also exposes HalDevice() any and HalQueue() any, so it can be handed
// back to OpenWith or to any component speaking that protocol.
func (c *Context) Provider() gpucontext.DeviceProvider {
	return &deviceProvider{ctx: c}
}

// Close shuts the backend down and, for contexts created by Open,
// destroys the device and instance. Safe to call more than once.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.backend.Close()
}

// deviceProvider implements gpucontext.DeviceProvider plus the
// HalDevice/HalQueue accessors over a Context.
type deviceProvider struct {
	ctx *Context
}

// sharedDevice satisfies gpucontext.Device for consumers that only
// need the portable surface; direct access goes through HalDevice. The
// Context keeps ownership, so Destroy is a no-op, and every pass
// submission already waits on its fence, so Poll has nothing to flush.
type sharedDevice struct{}

func (sharedDevice) Poll(wait bool) {}
func (sharedDevice) Destroy()       {}

func (p *deviceProvider) Device() gpucontext.Device {
	return sharedDevice{}
}

func (p *deviceProvider) Queue() gpucontext.Queue { return p.ctx.backend.Queue() }

func (p *deviceProvider) Adapter() gpucontext.Adapter { return p.ctx.backend.Adapter() }

func (p *deviceProvider) SurfaceFormat() gputypes.TextureFormat { return p.ctx.format }

// HalDevice returns the raw hal device for direct HAL consumers.
func (p *deviceProvider) HalDevice() any { return p.ctx.backend.Device() }

// HalQueue returns the raw hal queue for direct HAL consumers.
func (p *deviceProvider) HalQueue() any { return p.ctx.backend.Queue() }
