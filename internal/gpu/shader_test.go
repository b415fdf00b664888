//go:build !nogpu

package gpu

import "testing"

const testShaderSource = `
@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func TestCompileToSPIRV(t *testing.T) {
	words, err := compileToSPIRV(testShaderSource)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("no SPIR-V emitted")
	}
	// Every SPIR-V module starts with the magic number.
	if words[0] != 0x07230203 {
		t.Fatalf("SPIR-V magic = %#x, want 0x07230203", words[0])
	}
}

func TestCompileToSPIRVRejectsInvalidSource(t *testing.T) {
	if _, err := compileToSPIRV("fn broken("); err == nil {
		t.Fatal("expected a compile error")
	}
}
