package character

import (
	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/go-gl/mathgl/mgl32"
)

// CharacterBuilderOption is a functional option for configuring a Character during construction.
type CharacterBuilderOption func(*character)

// WithLabel sets the label prefix of the character's GPU resources. Defaults to the model name.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - CharacterBuilderOption: a function that applies the label option to a character
func WithLabel(label string) CharacterBuilderOption {
	return func(c *character) {
		c.label = label
	}
}

// WithPosition places the character as InitPosition does.
//
// Parameters:
//   - posRot: position in XYZ, yaw in radians in W
//
// Returns:
//   - CharacterBuilderOption: a function that applies the position option to a character
func WithPosition(posRot mgl32.Vec4) CharacterBuilderOption {
	return func(c *character) {
		c.placement = common.PlacementMatrix(posRot)
	}
}
