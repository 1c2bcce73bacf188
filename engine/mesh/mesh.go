package mesh

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen-engine/lumen-go/common"
	"github.com/lumen-engine/lumen-go/engine/renderer"
)

type meshImpl struct {
	mu *sync.Mutex

	name      string
	visible   bool
	layerMask uint32

	material Material

	// CPU-side geometry, uploaded by InitGPU.
	vertexData []float32
	indexData  []uint32

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
	bindGroup    *wgpu.BindGroup

	modelMatrix [16]float32
	ready       bool
}

// Mesh defines the interface for a renderable mesh: geometry, a material, and
// the GPU buffers bound at draw time. A mesh participates in a render pass
// only when it is visible, ready, and its layer mask intersects the active
// camera's layer mask.
type Mesh interface {
	renderer.MeshBinding

	// Name returns the mesh's name.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Visible reports whether the mesh is included in render passes.
	//
	// Returns:
	//   - bool: true when visible
	Visible() bool

	// LayerMask returns the mesh's layer mask.
	//
	// Returns:
	//   - uint32: the layer mask
	LayerMask() uint32

	// Material returns the mesh's material, or nil if none is set.
	//
	// Returns:
	//   - Material: the material or nil
	Material() Material

	// ModelMatrix returns the mesh's 4x4 model matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the model matrix
	ModelMatrix() [16]float32

	// IsReady reports whether the mesh's GPU buffers have been initialized
	// and it can be drawn.
	//
	// Returns:
	//   - bool: true when ready to draw
	IsReady() bool

	// InitGPU uploads the mesh's vertex and index data to GPU buffers through
	// the renderer. Safe to call more than once; subsequent calls are no-ops.
	//
	// Parameters:
	//   - r: the renderer to create buffers with
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitGPU(r renderer.Renderer) error

	// SetVisible sets whether the mesh is included in render passes.
	//
	// Parameters:
	//   - visible: true to include the mesh
	SetVisible(visible bool)

	// SetLayerMask sets the mesh's layer mask.
	//
	// Parameters:
	//   - mask: the layer mask
	SetLayerMask(mask uint32)

	// SetModelMatrix sets the mesh's model matrix.
	//
	// Parameters:
	//   - m: the model matrix (column-major)
	SetModelMatrix(m [16]float32)

	// SetBindGroup sets the bind group bound at draw time, or nil for
	// pipelines using auto layout with no bindings.
	//
	// Parameters:
	//   - bg: the bind group or nil
	SetBindGroup(bg *wgpu.BindGroup)
}

var _ Mesh = &meshImpl{}

// NewMesh creates a new Mesh from CPU-side geometry. GPU buffers are not
// created until InitGPU is called with a renderer.
//
// Parameters:
//   - name: the mesh name
//   - vertexData: interleaved vertex attributes
//   - indexData: triangle indices
//   - options: functional options to configure the mesh
//
// Returns:
//   - Mesh: the newly created mesh
func NewMesh(name string, vertexData []float32, indexData []uint32, options ...MeshBuilderOption) Mesh {
	m := &meshImpl{
		mu:          &sync.Mutex{},
		name:        name,
		visible:     true,
		layerMask:   0xFFFFFFFF,
		vertexData:  vertexData,
		indexData:   indexData,
		indexCount:  len(indexData),
		modelMatrix: [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *meshImpl) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

func (m *meshImpl) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *meshImpl) LayerMask() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layerMask
}

func (m *meshImpl) Material() Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.material
}

func (m *meshImpl) ModelMatrix() [16]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelMatrix
}

func (m *meshImpl) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *meshImpl) VertexBuffer() *wgpu.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertexBuffer
}

func (m *meshImpl) IndexBuffer() *wgpu.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexBuffer
}

func (m *meshImpl) IndexCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexCount
}

func (m *meshImpl) BindGroup() *wgpu.BindGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindGroup
}

func (m *meshImpl) InitGPU(r renderer.Renderer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		return nil
	}

	vb, ib, err := r.InitMeshBuffers(
		common.SliceToBytes(m.vertexData),
		common.SliceToBytes(m.indexData),
	)
	if err != nil {
		return err
	}

	m.vertexBuffer = vb
	m.indexBuffer = ib
	m.ready = true
	return nil
}

func (m *meshImpl) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = visible
}

func (m *meshImpl) SetLayerMask(mask uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layerMask = mask
}

func (m *meshImpl) SetModelMatrix(matrix [16]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelMatrix = matrix
}

func (m *meshImpl) SetBindGroup(bg *wgpu.BindGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindGroup = bg
}
