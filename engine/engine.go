package engine

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-character/engine/camera"
	"github.com/Carmen-Shannon/oxy-character/engine/profiler"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/skinning"
	"github.com/Carmen-Shannon/oxy-character/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameStream is a CommandStream whose commands are batched per frame.
// skinning.WGPUStream satisfies it.
type FrameStream interface {
	skinning.CommandStream
	BeginFrame() error
	EndFrame()
}

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	stream     FrameStream
	cam        camera.Camera
	shadowProj *mgl32.Mat4
	temporal   bool

	stats            *profiler.FrameStats
	profilingEnabled bool

	tickRate         float64
	tickCallback     func(t float64, deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	scenes map[int]scene.Scene

	time   float64
	frames int
}

// Engine drives scenes of characters one frame at a time without a window.
//
// Every frame advances playback time by exactly one tick, so a run is deterministic
// regardless of how fast frames are produced. Wall-clock pacing is controlled separately
// by the render frame limit.
type Engine interface {
	// SetTickRate sets the simulation rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the start of each frame, before any scene moves.
	//
	// Parameters:
	//   - callback: receives the playback time of the frame and the tick length in seconds
	SetTickCallback(callback func(t float64, deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap for Run in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// EnableProfiler enables frame statistics output to the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics output.
	DisableProfiler()

	// AddScene registers a scene at the given z-index key.
	// Scenes are processed in ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining processing order (lower goes first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key, or nil.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Camera returns the camera whose view-projection is handed to every scene, or nil.
	//
	// Returns:
	//   - camera.Camera: the camera or nil
	Camera() camera.Camera

	// Time returns the playback time of the next frame in seconds.
	//
	// Returns:
	//   - float64: the playback time
	Time() float64

	// Frames returns the number of frames stepped so far.
	//
	// Returns:
	//   - int: the frame count
	Frames() int

	// Step runs one frame: tick callback, camera update, FrameMove of every active scene,
	// then skinning and draw preparation of every active scene inside one stream frame.
	// Every scene is processed even when an earlier one fails. Step must not be called
	// concurrently with itself or Run.
	//
	// Returns:
	//   - error: the joined scene errors, or the stream's BeginFrame error
	Step() error

	// Run steps frames until the given count is reached or Quit is called.
	// Scene errors are logged and do not stop the run. A panic inside a frame is recovered
	// and ends the run with an error.
	//
	// Parameters:
	//   - frames: the number of frames to run; 0 runs until Quit
	//
	// Returns:
	//   - error: a stream failure or a recovered panic
	Run(frames int) error

	// Quit stops Run after the current frame. Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (stream, camera, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:          &sync.Mutex{},
		quitChannel: make(chan struct{}),
		scenes:      make(map[int]scene.Scene),
		tickRate:    60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.stats == nil {
		e.stats = profiler.NewFrameStats(time.Now())
	}
	return e
}

func (e *engine) SetTickRate(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		fps = 60
	}
	e.tickRate = fps
}

func (e *engine) SetTickCallback(callback func(t float64, deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) Camera() camera.Camera {
	return e.cam
}

func (e *engine) Time() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.time
}

func (e *engine) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) Step() error {
	e.mu.Lock()
	t, dt := e.time, float32(1/e.tickRate)
	callback := e.tickCallback
	active := e.activeScenes()
	stream, shadowProj, temporal := e.stream, e.shadowProj, e.temporal
	e.mu.Unlock()

	if callback != nil {
		callback(t, dt)
	}

	viewProj := mgl32.Ident4()
	if e.cam != nil {
		e.cam.Update()
		viewProj = e.cam.ViewProjectionMatrix()
	}

	var errs []error
	for _, s := range active {
		errs = append(errs, s.FrameMove(t, viewProj, shadowProj, temporal))
	}

	// All scenes share one stream frame so their dispatches go out in a single submission.
	if stream != nil {
		if err := stream.BeginFrame(); err != nil {
			return &beginFrameError{frame: e.Frames(), err: err}
		}
		for _, s := range active {
			errs = append(errs, s.Skinning(stream))
		}
		for _, s := range active {
			s.PrepareDraw(stream)
		}
		stream.EndFrame()
	}

	e.mu.Lock()
	if e.profilingEnabled {
		e.stats.Tick(time.Now())
	}
	e.frames++
	e.time += 1 / e.tickRate
	e.mu.Unlock()
	return errors.Join(errs...)
}

// activeScenes returns the active scenes in ascending z-index order. Caller must hold the mutex.
func (e *engine) activeScenes() []scene.Scene {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

func (e *engine) Run(frames int) (err error) {
	// Recover from panics inside a frame (barrier violations) so the caller can release GPU resources.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] frame loop recovered from panic: %v", r)
			err = fmt.Errorf("frame loop panic: %v", r)
			e.Quit()
		}
	}()

	for n := 0; frames == 0 || n < frames; n++ {
		select {
		case <-e.quitChannel:
			return nil
		default:
		}

		start := time.Now()
		if stepErr := e.Step(); stepErr != nil {
			var beginErr *beginFrameError
			if errors.As(stepErr, &beginErr) {
				return stepErr
			}
			log.Printf("[Engine] frame %d: %v", e.Frames()-1, stepErr)
		}

		e.mu.Lock()
		limit := e.renderFrameLimit
		e.mu.Unlock()
		if limit > 0 {
			if remaining := limit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// beginFrameError reports a stream that could not open a frame. Run stops on it.
type beginFrameError struct {
	frame int
	err   error
}

func (b *beginFrameError) Error() string {
	return fmt.Sprintf("begin frame %d: %v", b.frame, b.err)
}

func (b *beginFrameError) Unwrap() error {
	return b.err
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
