package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `
@vertex
fn vs_main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

func TestNewShaderDefaults(t *testing.T) {
	vs := NewShader("test_vert", ShaderTypeVertex, testSource)
	assert.Equal(t, "test_vert", vs.Key())
	assert.Equal(t, testSource, vs.Source())
	assert.Equal(t, ShaderTypeVertex, vs.Type())
	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.False(t, vs.Ready())
	assert.NoError(t, vs.CompileError())

	fs := NewShader("test_frag", ShaderTypeFragment, testSource)
	assert.Equal(t, "fs_main", fs.EntryPoint())
}

func TestWithEntryPoint(t *testing.T) {
	s := NewShader("custom", ShaderTypeVertex, testSource, WithEntryPoint("main"))
	assert.Equal(t, "main", s.EntryPoint())
}

func TestMarkCompiled(t *testing.T) {
	s := NewShader("test", ShaderTypeVertex, testSource)

	s.MarkCompiled(nil)
	assert.True(t, s.Ready())
	assert.NoError(t, s.CompileError())
}

func TestMarkCompiledFailure(t *testing.T) {
	s := NewShader("test", ShaderTypeVertex, testSource)
	compileErr := errors.New("parse error at line 3")

	s.MarkCompiled(compileErr)
	assert.False(t, s.Ready(), "a failed compile never reports ready")
	assert.ErrorIs(t, s.CompileError(), compileErr)

	// A successful recompile clears the failure.
	s.MarkCompiled(nil)
	assert.True(t, s.Ready())
	assert.NoError(t, s.CompileError())
}

func TestModuleDescriptor(t *testing.T) {
	s := NewShader("test", ShaderTypeVertex, testSource)

	desc := s.ModuleDescriptor()
	require.NotNil(t, desc)
	assert.Equal(t, "test", desc.Label)
	require.NotNil(t, desc.WGSLDescriptor)
	assert.Equal(t, testSource, desc.WGSLDescriptor.Code)
}
