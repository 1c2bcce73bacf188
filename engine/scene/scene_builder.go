package scene

import (
	"github.com/lumen-engine/lumen-go/engine/camera"
	"github.com/lumen-engine/lumen-go/engine/mesh"
)

type SceneBuilderOption func(*scene)

// WithActive sets whether the scene starts active for rendering.
//
// Parameters:
//   - active: true to start active
//
// Returns:
//   - SceneBuilderOption: a function that sets the active flag
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithActiveCamera sets the scene's active camera and registers it in the
// camera list if not already present.
//
// Parameters:
//   - cam: the camera to render from
//
// Returns:
//   - SceneBuilderOption: a function that sets the active camera
func WithActiveCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.activeCamera = cam
		for _, existing := range s.cameras {
			if existing == cam {
				return
			}
		}
		s.cameras = append(s.cameras, cam)
	}
}

// WithCameras sets the scene's camera list.
//
// Parameters:
//   - cams: the cameras to register
//
// Returns:
//   - SceneBuilderOption: a function that sets the camera list
func WithCameras(cams ...camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cameras = append(s.cameras, cams...)
	}
}

// WithMeshes sets the scene's mesh list.
//
// Parameters:
//   - meshes: the meshes to register
//
// Returns:
//   - SceneBuilderOption: a function that sets the mesh list
func WithMeshes(meshes ...mesh.Mesh) SceneBuilderOption {
	return func(s *scene) {
		s.meshes = append(s.meshes, meshes...)
	}
}

// WithSpritesEnabled sets whether sprite rendering participates in render passes.
//
// Parameters:
//   - enabled: true to render sprites
//
// Returns:
//   - SceneBuilderOption: a function that sets the sprites flag
func WithSpritesEnabled(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.spritesEnabled = enabled
	}
}

// WithPrepWorkers overrides the number of worker goroutines used for the
// parallel mesh preparation phase of Render. Defaults to NumCPU-1.
//
// Parameters:
//   - workers: the worker count (minimum 1)
//
// Returns:
//   - SceneBuilderOption: a function that sets the worker count
func WithPrepWorkers(workers int) SceneBuilderOption {
	return func(s *scene) {
		s.prepWorkers = max(workers, 1)
	}
}
