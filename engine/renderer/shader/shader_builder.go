package shader

// ShaderBuilderOption is a functional option for configuring a Shader.
// Use the With* functions to create options.
type ShaderBuilderOption func(s *shaderImpl)

// WithEntryPoint overrides the entry point function name within the WGSL source.
// Defaults to "vs_main" for vertex shaders and "fs_main" for fragment shaders.
//
// Parameters:
//   - entryPoint: the entry point function name
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithEntryPoint(entryPoint string) ShaderBuilderOption {
	return func(s *shaderImpl) {
		s.entryPoint = entryPoint
	}
}

// WithPrecompiled marks the shader as already compiled. Useful for shaders
// whose modules were created ahead of time during pipeline registration.
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithPrecompiled() ShaderBuilderOption {
	return func(s *shaderImpl) {
		s.compiled = true
	}
}
