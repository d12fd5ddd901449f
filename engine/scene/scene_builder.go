package scene

import (
	"github.com/Carmen-Shannon/oxy-character/engine/character"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is updated. Scenes are active by default.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithCharacters adds initial characters to the scene with no time offset.
// They receive IDs 1..n in argument order.
//
// Parameters:
//   - characters: the characters to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCharacters(characters ...character.Character) SceneBuilderOption {
	return func(s *scene) {
		for _, c := range characters {
			s.add(c, 0)
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used during the parallel
// CPU phase of FrameMove. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}
