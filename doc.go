// Package wgpurenderer provides a retained-mode draw-submission front
// end for GPU rendering on top of gogpu/wgpu.
//
// # Overview
//
// wgpurenderer sits between application code and a GPU command encoder.
// Applications create materials, geometry, and uniform groups through a
// Renderer, keep reference-counted handles to them, and submit DrawCall
// values each frame. The renderer sorts the submitted calls to minimize
// pipeline and bind-group switches, then replays them through a Recorder
// supplied by the active backend.
//
// # Quick Start
//
//	import (
//	    "github.com/FairlyBet/wgpurenderer"
//	    "github.com/FairlyBet/wgpurenderer/gpu"
//	)
//
//	ctx, err := gpu.Open(gpu.DefaultConfig())
//	// handle err
//	defer ctx.Close()
//
//	r := wgpurenderer.New(ctx.Backend(), wgpurenderer.DefaultConfig())
//	defer r.Close()
//
//	material, err := r.CreateMaterial(&desc)
//	// build geometry, uniforms, a render target...
//
//	r.Draw(wgpurenderer.DrawCall{Pipeline: material, /* ... */})
//	err = r.Render(&wgpurenderer.Pass{Target: target})
//
// # Architecture
//
// The library is organized into:
//   - Public API: Renderer, DrawCall, MaterialDescriptor,
//     GeometryDescriptor, Pass, Camera, Transform, Immediate
//   - pool/: id recycling, id-sorted storage, reference-counted handles
//   - immediate/: first-fit byte allocator for per-draw constant blocks
//   - gpu/ and internal/gpu/: the wgpu/hal-backed Backend and Recorder
//   - capture/: readback-to-image helpers for offscreen rendering
//
// The root package never touches the GPU directly: backends implement
// the Backend and Recorder interfaces and are injected into the
// Renderer, so the sorting and emission logic is testable without any
// GPU present.
//
// # Resource Lifetime
//
// Every GPU resource is owned by a storage and referenced through
// handles. Clone a handle to share a resource, and release every handle
// exactly once; the backing resource is destroyed when the last handle
// is released. Misuse (releasing twice, using a released handle) panics
// rather than corrupting state.
package wgpurenderer

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
