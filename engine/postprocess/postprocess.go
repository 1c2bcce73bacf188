// Package postprocess provides full-screen effect passes that run over a
// render target's output after the scene geometry has been drawn. A target
// holding post-processes is not ready until every effect's shader has
// finished compiling.
package postprocess

// PostProcess defines the interface for a full-screen effect pass attached
// to a render target.
type PostProcess interface {
	// Name returns the effect's identifier.
	//
	// Returns:
	//   - string: the effect name
	Name() string

	// PipelineKey returns the key of the render pipeline this effect draws
	// its full-screen pass with.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// IsReady reports whether the effect's shaders have finished compiling
	// and the pass can execute.
	//
	// Returns:
	//   - bool: true when ready
	IsReady() bool

	// Dispose releases the effect's GPU resources. Safe to call more than once.
	Dispose()
}
