package scene

import (
	"errors"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-character/engine/character"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/skinning"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene owns a crowd of characters and drives them through one frame at a time.
//
// CPU work (pose evaluation, palette staging, attachment matrices) is fanned out over a
// worker pool, one task per character, so no character is ever touched by two goroutines
// at once. GPU work (buffer uploads, skinning dispatch, barriers) is recorded sequentially
// in insertion order because it shares the caller's single command stream.
type Scene interface {
	// Name returns the name of the scene.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// SetName sets the name of the scene.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Active reports whether the scene is updated. Inactive scenes skip every per-frame call.
	//
	// Returns:
	//   - bool: true if the scene is active
	Active() bool

	// SetActive sets whether the scene is updated.
	//
	// Parameters:
	//   - active: whether the scene is active
	SetActive(active bool)

	// Add registers a character and returns its ID. The character keeps its own placement;
	// timeOffset is added to the scene time on every FrameMove so crowd members can play out of step.
	//
	// Parameters:
	//   - c: the character to add
	//   - timeOffset: playback offset in seconds
	//
	// Returns:
	//   - uint64: the new ID, never 0
	Add(c character.Character, timeOffset float64) uint64

	// Get returns the character registered under id, or nil.
	//
	// Parameters:
	//   - id: the character ID
	//
	// Returns:
	//   - character.Character: the character or nil
	Get(id uint64) character.Character

	// Remove unregisters a character. Its GPU resources are not released.
	//
	// Parameters:
	//   - id: the character ID
	Remove(id uint64)

	// Count returns the number of registered characters.
	//
	// Returns:
	//   - int: the character count
	Count() int

	// Clear unregisters every character without releasing them.
	Clear()

	// FrameMove advances every character to scene time t in parallel.
	// All characters are processed even when some fail.
	//
	// Parameters:
	//   - t: scene playback time in seconds
	//   - viewProj: the camera view-projection matrix
	//   - shadowProj: the shadow projection, or nil
	//   - isTemporal: whether previous-frame matrices are kept
	//
	// Returns:
	//   - error: the joined errors of every failing character
	FrameMove(t float64, viewProj mgl32.Mat4, shadowProj *mgl32.Mat4, isTemporal bool) error

	// Skinning records the palette uploads and skinning dispatches of every character.
	//
	// Parameters:
	//   - stream: the command stream to record into
	//
	// Returns:
	//   - error: the joined errors of every failing character
	Skinning(stream skinning.CommandStream) error

	// PrepareDraw records the barriers that make every character's skinned output readable.
	//
	// Parameters:
	//   - stream: the command stream to record into
	PrepareDraw(stream skinning.CommandStream)

	// Release releases every registered character and clears the scene.
	Release()
}

type member struct {
	id         uint64
	c          character.Character
	timeOffset float64
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	members []member
	nextID  uint64

	// computePool runs the per-character CPU phase of FrameMove. Workers persist across frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int

	errs []error
}

var _ Scene = &scene{}

// NewScene creates a new active Scene with the specified options applied.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		active:         true,
		nextID:         1,
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	log.Printf("[Scene] %q: %d characters, %d compute workers", s.name, len(s.members), s.computeWorkers)
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

func (s *scene) Add(c character.Character, timeOffset float64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(c, timeOffset)
}

func (s *scene) add(c character.Character, timeOffset float64) uint64 {
	id := s.nextID
	s.nextID++
	s.members = append(s.members, member{id: id, c: c, timeOffset: timeOffset})
	return id
}

func (s *scene) Get(id uint64) character.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.find(id); i >= 0 {
		return s.members[i].c
	}
	return nil
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(id); i >= 0 {
		s.members = append(s.members[:i], s.members[i+1:]...)
	}
}

// find returns the index of id in members, or -1. Members are kept sorted by ID.
func (s *scene) find(id uint64) int {
	lo, hi := 0, len(s.members)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.members[mid].id == id:
			return mid
		case s.members[mid].id < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = nil
}

func (s *scene) FrameMove(t float64, viewProj mgl32.Mat4, shadowProj *mgl32.Mat4, isTemporal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || len(s.members) == 0 {
		return nil
	}

	errs := s.resetErrs()

	// A WaitGroup provides per-frame barrier sync since pool.Wait() blocks until
	// workers idle-exit which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	// Only whole characters fan out; each character's pose, palette and attachments stay on one goroutine.
	for i, m := range s.members {
		wg.Add(1)
		s.computePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				errs[i] = m.c.FrameMove(t+m.timeOffset, viewProj, nil, shadowProj, isTemporal)
				return nil, errs[i]
			},
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (s *scene) Skinning(stream skinning.CommandStream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}

	errs := s.resetErrs()
	for i, m := range s.members {
		errs[i] = m.c.Skinning(stream)
	}
	return errors.Join(errs...)
}

func (s *scene) PrepareDraw(stream skinning.CommandStream) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return
	}
	for _, m := range s.members {
		m.c.PrepareDraw(stream)
	}
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		m.c.Release()
	}
	s.members = nil
}

// resetErrs returns the reusable per-member error slice, cleared.
func (s *scene) resetErrs() []error {
	if cap(s.errs) < len(s.members) {
		s.errs = make([]error, len(s.members))
	}
	s.errs = s.errs[:len(s.members)]
	clear(s.errs)
	return s.errs
}
