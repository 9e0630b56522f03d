package warp

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/warp.wgsl
var shaderWGSL string

// ErrShaderCompile is returned when the warp program fails to compile.
var ErrShaderCompile = errors.New("warp: shader compilation failed")

// ShaderSource returns the WGSL text of the warp program.
func ShaderSource() string {
	return shaderWGSL
}

// CompileShader translates the warp program to SPIR-V words.
func CompileShader() ([]uint32, error) {
	spirv, err := naga.Compile(shaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("%w: SPIR-V length %d is not word aligned", ErrShaderCompile, len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) | uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 | uint32(spirv[i*4+3])<<24
	}
	return words, nil
}
