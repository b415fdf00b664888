//go:build !nogpu

// Package gpu implements the wgpurenderer.Backend interface on top of
// the gogpu/wgpu hardware abstraction layer.
//
// This is an internal package; applications obtain a backend through the
// public gpu package, which boots the device stack and wraps it in a
// Context. Everything here runs on wgpu/hal directly (zero CGO), which
// supports Vulkan, Metal, and DX12 depending on the platform.
//
// Key components:
//
//   - Backend: owns the hal device and queue, creates and destroys
//     pipelines, buffers, uniform groups, and render targets
//   - pipeline: a compiled render pipeline together with the bind group
//     layouts it was built from
//   - target: offscreen color, MSAA, and depth attachments plus the
//     readback path to CPU pixels
//   - passRecorder: records one render pass; draw commands arrive
//     through the wgpurenderer.Recorder interface
//
// Shaders are written in WGSL and compiled to SPIR-V on the CPU with
// gogpu/naga before any device object is created, so malformed source
// fails early with a compile error instead of a device loss.
//
// # Immediates
//
// Per-draw immediate data is implemented with a single dynamic-offset
// uniform bind group. Each pass allocates one staging buffer; every
// SetImmediates call writes its block at a 256-byte aligned cursor and
// subsequent draws bind the group with the block's offset. The 256-byte
// stride is the WebGPU minimum dynamic uniform offset alignment, so a
// block is limited to 256 bytes; larger payloads are truncated with a
// warning.
package gpu
