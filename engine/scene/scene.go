package scene

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/lumen-engine/lumen-go/engine/camera"
	"github.com/lumen-engine/lumen-go/engine/mesh"
	"github.com/lumen-engine/lumen-go/engine/renderer"
)

// Scene manages a collection of meshes and cameras with a Renderer for
// rendering. Rendering draws every visible, ready mesh whose layer mask
// intersects the active camera's mask.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// SetRenderer replaces the scene's renderer.
	//
	// Parameters:
	//   - r: the new renderer
	SetRenderer(r renderer.Renderer)

	// ActiveCamera returns the camera the next render pass draws from,
	// or nil if none is set.
	ActiveCamera() camera.Camera

	// SetActiveCamera sets the camera the next render pass draws from.
	//
	// Parameters:
	//   - cam: the new active camera (may be nil)
	SetActiveCamera(cam camera.Camera)

	// Cameras returns a copy of the scene's camera list.
	//
	// Returns:
	//   - []camera.Camera: the cameras registered in the scene
	Cameras() []camera.Camera

	// SetCameras replaces the scene's camera list.
	//
	// Parameters:
	//   - cams: the new camera list
	SetCameras(cams []camera.Camera)

	// AddCamera appends a camera to the scene's camera list.
	//
	// Parameters:
	//   - cam: the camera to add
	AddCamera(cam camera.Camera)

	// Meshes returns a copy of the scene's mesh list.
	//
	// Returns:
	//   - []mesh.Mesh: the meshes registered in the scene
	Meshes() []mesh.Mesh

	// SetMeshes replaces the scene's mesh list.
	//
	// Parameters:
	//   - meshes: the new mesh list
	SetMeshes(meshes []mesh.Mesh)

	// AddMesh appends a mesh to the scene's mesh list.
	//
	// Parameters:
	//   - m: the mesh to add
	AddMesh(m mesh.Mesh)

	// RemoveMesh removes a mesh from the scene's mesh list by reference.
	//
	// Parameters:
	//   - m: the mesh to remove
	RemoveMesh(m mesh.Mesh)

	// SpritesEnabled returns whether sprite rendering participates in
	// render passes.
	SpritesEnabled() bool

	// SetSpritesEnabled enables or disables sprite rendering for this scene.
	//
	// Parameters:
	//   - enabled: true to render sprites
	SetSpritesEnabled(enabled bool)

	// RenderGeneration returns the scene's current render generation. The
	// generation increments whenever cached per-material GPU state must be
	// rebuilt, such as when a render pass draws into a different output
	// target than the previous pass.
	//
	// Returns:
	//   - int64: the current render generation
	RenderGeneration() int64

	// IncrementRenderGeneration advances the render generation, invalidating
	// every material's prepared GPU state for the next pass.
	//
	// Returns:
	//   - int64: the new render generation
	IncrementRenderGeneration() int64

	// ResetCachedMaterialState invalidates prepared GPU state on every
	// material in the scene so it is rebuilt on the next render pass.
	ResetCachedMaterialState()

	// IsReady reports whether every mesh and camera in the scene is ready
	// to render.
	//
	// Returns:
	//   - bool: true when the whole scene is ready
	IsReady() bool

	// Render executes one full render pass from the active camera: meshes
	// are prepared in parallel (GPU buffer init plus material state), then
	// drawn within a BeginFrame/EndFrame block on the renderer. Meshes that
	// are invisible, not ready, or masked out by the active camera are
	// skipped. Present is NOT called — the caller decides whether the frame
	// reaches the display.
	//
	// Returns:
	//   - error: error if the frame could not be started or a prep step fails
	Render() error
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	r renderer.Renderer

	activeCamera camera.Camera
	cameras      []camera.Camera
	meshes       []mesh.Mesh

	spritesEnabled bool

	renderGeneration atomic.Int64

	// prepPool manages a bounded set of reusable goroutines for the parallel
	// mesh preparation phase of Render. Workers persist across frames,
	// avoiding per-frame goroutine spawn/teardown overhead.
	prepPool    worker.DynamicWorkerPool
	prepWorkers int // stored so we can log/inspect the configured count
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given renderer. The renderer is
// required and NewScene panics if it is nil.
//
// Parameters:
//   - name: the name of the scene
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		active:         false,
		r:              r,
		spritesEnabled: true,
		prepWorkers:    max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the prep pool after options so WithPrepWorkers can override the default.
	// Queue size of 256 accommodates typical mesh counts with headroom.
	s.prepPool = worker.NewDynamicWorkerPool(s.prepWorkers, 256, 1*time.Second)

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) SetRenderer(r renderer.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r = r
}

func (s *scene) ActiveCamera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeCamera
}

func (s *scene) SetActiveCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCamera = cam
}

func (s *scene) Cameras() []camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]camera.Camera, len(s.cameras))
	copy(out, s.cameras)
	return out
}

func (s *scene) SetCameras(cams []camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = make([]camera.Camera, len(cams))
	copy(s.cameras, cams)
}

func (s *scene) AddCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = append(s.cameras, cam)
}

func (s *scene) Meshes() []mesh.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mesh.Mesh, len(s.meshes))
	copy(out, s.meshes)
	return out
}

func (s *scene) SetMeshes(meshes []mesh.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshes = make([]mesh.Mesh, len(meshes))
	copy(s.meshes, meshes)
}

func (s *scene) AddMesh(m mesh.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshes = append(s.meshes, m)
}

func (s *scene) RemoveMesh(m mesh.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.meshes {
		if existing == m {
			s.meshes = append(s.meshes[:i], s.meshes[i+1:]...)
			return
		}
	}
}

func (s *scene) SpritesEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spritesEnabled
}

func (s *scene) SetSpritesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spritesEnabled = enabled
}

func (s *scene) RenderGeneration() int64 {
	return s.renderGeneration.Load()
}

func (s *scene) IncrementRenderGeneration() int64 {
	return s.renderGeneration.Add(1)
}

func (s *scene) ResetCachedMaterialState() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.meshes {
		if mat := m.Material(); mat != nil {
			mat.ResetCachedState()
		}
	}
}

func (s *scene) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.meshes {
		if !m.IsReady() {
			return false
		}
	}
	for _, cam := range s.cameras {
		if !cam.IsReady() {
			return false
		}
	}
	if s.activeCamera != nil && !s.activeCamera.IsReady() {
		return false
	}
	return true
}

func (s *scene) Render() error {
	s.mu.RLock()
	r := s.r
	cam := s.activeCamera
	meshes := make([]mesh.Mesh, len(s.meshes))
	copy(meshes, s.meshes)
	s.mu.RUnlock()

	if cam == nil {
		return fmt.Errorf("scene %q has no active camera", s.Name())
	}

	generation := s.renderGeneration.Load()

	// Phase 1: parallel prep. GPU buffer uploads and material preparation are
	// independent per mesh, so they fan out across the worker pool with a
	// WaitGroup barrier before any draw command is encoded.
	var wg sync.WaitGroup
	prepErrs := make([]error, len(meshes))
	for i, m := range meshes {
		wg.Add(1)
		idx, mm := i, m
		s.prepPool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				if !mm.IsReady() {
					if err := mm.InitGPU(r); err != nil {
						prepErrs[idx] = err
						return nil, err
					}
				}
				if mat := mm.Material(); mat != nil && !mat.IsPreparedFor(generation) {
					mat.MarkPrepared(generation)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	for _, err := range prepErrs {
		if err != nil {
			return fmt.Errorf("scene %q mesh prep failed: %w", s.Name(), err)
		}
	}

	cam.Update()

	// Phase 2: draw pass.
	if err := r.BeginFrame(); err != nil {
		return err
	}
	camMask := cam.LayerMask()
	for _, m := range meshes {
		if !m.Visible() || !m.IsReady() {
			continue
		}
		if m.LayerMask()&camMask == 0 {
			continue
		}
		mat := m.Material()
		if mat == nil {
			continue
		}
		if err := r.DrawMesh(mat.PipelineKey(), m, 1); err != nil {
			r.EndFrame()
			return err
		}
	}
	r.EndFrame()

	return nil
}
