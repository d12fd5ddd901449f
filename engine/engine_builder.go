package engine

import (
	"github.com/Carmen-Shannon/oxy-character/engine/camera"
	"github.com/Carmen-Shannon/oxy-character/engine/profiler"
	"github.com/Carmen-Shannon/oxy-character/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables frame statistics output.
//
// Parameters:
//   - enabled: if true, enables frame statistics
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithFrameStats sets the frame statistics ticked each frame when profiling is enabled.
//
// Parameters:
//   - stats: the frame statistics to tick
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameStats(stats *profiler.FrameStats) EngineBuilderOption {
	return func(e *engine) {
		e.stats = stats
	}
}

// WithTickRate sets the simulation rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.tickRate = fps
	}
}

// WithStream sets the command stream every scene records skinning into.
// Without a stream the engine only runs the CPU side of each frame.
//
// Parameters:
//   - stream: the frame-batched command stream
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStream(stream FrameStream) EngineBuilderOption {
	return func(e *engine) {
		e.stream = stream
	}
}

// WithCamera sets the camera updated each frame whose view-projection feeds every scene.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(cam camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.cam = cam
	}
}

// WithShadowProjection sets the shadow projection handed to every scene.
//
// Parameters:
//   - shadowProj: the shadow view-projection matrix
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShadowProjection(shadowProj mgl32.Mat4) EngineBuilderOption {
	return func(e *engine) {
		e.shadowProj = &shadowProj
	}
}

// WithTemporal sets whether scenes keep previous-frame matrices.
//
// Parameters:
//   - temporal: true to keep previous-frame matrices
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTemporal(temporal bool) EngineBuilderOption {
	return func(e *engine) {
		e.temporal = temporal
	}
}

// WithScene registers a scene at the given z-index key during engine construction.
//
// Parameters:
//   - key: the z-index determining processing order (lower goes first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit sets an optional frame rate cap for Run in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
