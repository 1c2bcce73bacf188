package mesh

type MeshBuilderOption func(*meshImpl)

// WithMaterial sets the mesh's material.
//
// Parameters:
//   - mat: the material to assign
//
// Returns:
//   - MeshBuilderOption: a function that sets the mesh's material
func WithMaterial(mat Material) MeshBuilderOption {
	return func(m *meshImpl) {
		m.material = mat
	}
}

// WithVisible sets the mesh's initial visibility.
//
// Parameters:
//   - visible: true to include the mesh in render passes
//
// Returns:
//   - MeshBuilderOption: a function that sets the mesh's visibility
func WithVisible(visible bool) MeshBuilderOption {
	return func(m *meshImpl) {
		m.visible = visible
	}
}

// WithLayerMask sets the mesh's layer mask.
//
// Parameters:
//   - mask: the layer mask
//
// Returns:
//   - MeshBuilderOption: a function that sets the mesh's layer mask
func WithLayerMask(mask uint32) MeshBuilderOption {
	return func(m *meshImpl) {
		m.layerMask = mask
	}
}

// WithModelMatrix sets the mesh's initial model matrix.
//
// Parameters:
//   - matrix: the model matrix (column-major)
//
// Returns:
//   - MeshBuilderOption: a function that sets the mesh's model matrix
func WithModelMatrix(matrix [16]float32) MeshBuilderOption {
	return func(m *meshImpl) {
		m.modelMatrix = matrix
	}
}

type MaterialBuilderOption func(*material)

// WithBaseColor sets the material's albedo/diffuse RGBA color.
//
// Parameters:
//   - r, g, b, a: color components in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that sets the base color
func WithBaseColor(r, g, b, a float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = [4]float32{r, g, b, a}
	}
}

// WithMetallic sets the material's metallic factor.
//
// Parameters:
//   - metallic: the metallic factor in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that sets the metallic factor
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness sets the material's roughness factor.
//
// Parameters:
//   - roughness: the roughness factor in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that sets the roughness factor
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithPipelineKey sets the render pipeline key this material draws with.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - MaterialBuilderOption: a function that sets the pipeline key
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}
