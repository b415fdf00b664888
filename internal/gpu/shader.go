//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// compileToSPIRV compiles WGSL source to a SPIR-V uint32 slice using the
// naga compiler. Compilation runs entirely on the CPU, so invalid source
// fails here rather than surfacing later as a device error.
func compileToSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// createShaderModule compiles source and wraps it in a HAL shader module.
func createShaderModule(device hal.Device, label, source string) (hal.ShaderModule, error) {
	if source == "" {
		return nil, fmt.Errorf("shader %q has empty source", label)
	}
	words, err := compileToSPIRV(source)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", label, err)
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
}
