package shader

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader targets.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shaderImpl is the implementation of the Shader interface.
// It holds the WGSL source and tracks asynchronous compile state: the backend
// compiles shader modules off the frame loop and marks the shader ready (or
// failed) when module creation completes.
type shaderImpl struct {
	mu sync.Mutex

	key        string
	source     string
	shaderType ShaderType
	entryPoint string

	compiled   bool
	compileErr error
}

// Shader defines the interface for a WGSL shader pending or holding a compiled GPU module.
// Readiness gates any pipeline work depending on the shader: render-to-texture passes
// and post-processes must not execute until Ready reports true.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Type retrieves the pipeline stage this shader targets.
	//
	// Returns:
	//   - ShaderType: the shader type
	Type() ShaderType

	// EntryPoint retrieves the entry point function name within the WGSL source.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// ModuleDescriptor builds the wgpu.ShaderModuleDescriptor used by the backend
	// to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor for this shader
	ModuleDescriptor() *wgpu.ShaderModuleDescriptor

	// Ready reports whether the shader module has finished compiling successfully.
	//
	// Returns:
	//   - bool: true once compilation has completed without error
	Ready() bool

	// CompileError retrieves the error from a failed compilation, or nil.
	//
	// Returns:
	//   - error: the compile error, or nil if not compiled or compiled successfully
	CompileError() error

	// MarkCompiled records the result of an asynchronous compile. A nil error
	// flips the shader to ready; a non-nil error leaves it not-ready with the
	// error retained for CompileError.
	//
	// Parameters:
	//   - err: the compile result (nil on success)
	MarkCompiled(err error)
}

var _ Shader = &shaderImpl{}

// NewShader creates a new Shader from inline WGSL source.
// The shader starts in the not-compiled state; the renderer's CompileShader
// moves it to ready.
//
// Parameters:
//   - key: the unique identifier for this shader
//   - shaderType: the pipeline stage this shader targets
//   - source: the WGSL source code
//   - options: variadic list of ShaderBuilderOption functions to configure the shader
//
// Returns:
//   - Shader: the newly created shader
func NewShader(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) Shader {
	s := &shaderImpl{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: defaultEntryPoint(shaderType),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// defaultEntryPoint returns the conventional entry point name for a shader stage.
func defaultEntryPoint(t ShaderType) string {
	switch t {
	case ShaderTypeFragment:
		return "fs_main"
	default:
		return "vs_main"
	}
}

func (s *shaderImpl) Key() string {
	return s.key
}

func (s *shaderImpl) Source() string {
	return s.source
}

func (s *shaderImpl) Type() ShaderType {
	return s.shaderType
}

func (s *shaderImpl) EntryPoint() string {
	return s.entryPoint
}

func (s *shaderImpl) ModuleDescriptor() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label:          s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.source},
	}
}

func (s *shaderImpl) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compiled && s.compileErr == nil
}

func (s *shaderImpl) CompileError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compileErr
}

func (s *shaderImpl) MarkCompiled(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compiled = err == nil
	s.compileErr = err
}
