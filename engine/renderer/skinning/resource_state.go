package skinning

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
)

// ResourceState is the access state a skinned output buffer is in on the command stream.
type ResourceState int

const (
	// StateUndefined is the state of a buffer that has not been transitioned yet.
	StateUndefined ResourceState = iota

	// StateUnorderedAccess is the writable state the skinning kernel requires.
	StateUnorderedAccess

	// StateShaderRead is the readable state a draw (or a history read) requires.
	StateShaderRead
)

func (s ResourceState) String() string {
	switch s {
	case StateUndefined:
		return "Undefined"
	case StateUnorderedAccess:
		return "UnorderedAccess"
	case StateShaderRead:
		return "ShaderRead"
	default:
		return fmt.Sprintf("ResourceState(%d)", int(s))
	}
}

type resourceKey struct {
	provider bind_group_provider.BindGroupProvider
	binding  int
}

// StateTracker records the last state every tracked buffer was transitioned to.
// Accessing a buffer in the wrong state is a programming error and panics.
type StateTracker struct {
	states map[resourceKey]ResourceState
}

// NewStateTracker creates a tracker with every buffer in StateUndefined.
//
// Returns:
//   - *StateTracker: the tracker
func NewStateTracker() *StateTracker {
	return &StateTracker{states: make(map[resourceKey]ResourceState)}
}

// State returns the recorded state of a buffer.
//
// Parameters:
//   - p: the provider owning the buffer
//   - binding: the buffer's binding index
//
// Returns:
//   - ResourceState: the recorded state
func (t *StateTracker) State(p bind_group_provider.BindGroupProvider, binding int) ResourceState {
	return t.states[resourceKey{p, binding}]
}

// Transition records a new state for a buffer.
//
// Parameters:
//   - p: the provider owning the buffer
//   - binding: the buffer's binding index
//   - after: the new state
//
// Returns:
//   - ResourceState: the state the buffer was in before
func (t *StateTracker) Transition(p bind_group_provider.BindGroupProvider, binding int, after ResourceState) ResourceState {
	k := resourceKey{p, binding}
	before := t.states[k]
	t.states[k] = after
	return before
}

// Require panics unless the buffer is in the wanted state.
//
// Parameters:
//   - p: the provider owning the buffer
//   - binding: the buffer's binding index
//   - want: the required state
func (t *StateTracker) Require(p bind_group_provider.BindGroupProvider, binding int, want ResourceState) {
	if got := t.State(p, binding); got != want {
		panic(fmt.Sprintf("skinning: %s binding %d is %s; access requires %s", p.Label(), binding, got, want))
	}
}
