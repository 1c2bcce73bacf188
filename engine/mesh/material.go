package mesh

import (
	"sync/atomic"
)

// noGeneration marks a material whose prepared GPU state is invalid.
const noGeneration = -1

// material is the implementation of the Material interface.
type material struct {
	name        string
	baseColor   [4]float32
	metallic    float32
	roughness   float32
	pipelineKey string

	// preparedGeneration is the scene render generation this material's GPU
	// state was last prepared for, or noGeneration when the cache is invalid.
	preparedGeneration atomic.Int64
}

// Material defines the interface for a render material, encapsulating surface
// properties and the render pipeline binding needed for draw calls.
//
// Surface properties (name, base color, metallic, roughness) are set at
// construction and are read-only through this interface. Prepared GPU state is
// tracked per scene render generation so that a capture rendering the scene
// out-of-band can invalidate and rebuild it.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// IsPreparedFor reports whether this material's GPU state was prepared for
	// the given scene render generation.
	//
	// Parameters:
	//   - generation: the scene render generation to check against
	//
	// Returns:
	//   - bool: true when the prepared state is valid for that generation
	IsPreparedFor(generation int64) bool

	// MarkPrepared records that this material's GPU state is valid for the
	// given scene render generation.
	//
	// Parameters:
	//   - generation: the scene render generation the state was prepared for
	MarkPrepared(generation int64)

	// ResetCachedState invalidates the material's prepared GPU state so it is
	// rebuilt on the next render pass.
	ResetCachedState()
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - name: the material identifier
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(name string, options ...MaterialBuilderOption) Material {
	m := &material{
		name:      name,
		baseColor: [4]float32{1, 1, 1, 1},
		metallic:  0.0,
		roughness: 1.0,
	}
	m.preparedGeneration.Store(noGeneration)
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) IsPreparedFor(generation int64) bool {
	return m.preparedGeneration.Load() == generation
}

func (m *material) MarkPrepared(generation int64) {
	m.preparedGeneration.Store(generation)
}

func (m *material) ResetCachedState() {
	m.preparedGeneration.Store(noGeneration)
}
