package animator

import (
	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DualQuat is a unit dual quaternion: Real holds the rotation and Dual encodes the translation.
type DualQuat struct {
	Real mgl32.Quat
	Dual mgl32.Quat
}

// IdentityDualQuat returns the dual quaternion of the identity transform.
//
// Returns:
//   - DualQuat: identity rotation with a zero dual part
func IdentityDualQuat() DualQuat {
	return DualQuat{Real: mgl32.QuatIdent()}
}

// ToDualQuat builds the dual quaternion for a unit rotation q followed by a translation t.
// The dual part is 0.5 * t * q with t taken as a pure quaternion.
//
// Parameters:
//   - q: unit rotation quaternion
//   - t: translation
//
// Returns:
//   - DualQuat: the rotation and its dual part
func ToDualQuat(q mgl32.Quat, t mgl32.Vec3) DualQuat {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	return DualQuat{
		Real: q,
		Dual: mgl32.Quat{
			W: -0.5 * (t[0]*x + t[1]*y + t[2]*z),
			V: mgl32.Vec3{
				0.5 * (t[0]*w + t[1]*z - t[2]*y),
				0.5 * (-t[0]*z + t[1]*w + t[2]*x),
				0.5 * (t[0]*y - t[1]*x + t[2]*w),
			},
		},
	}
}

// FromMatrix converts a skinning matrix into a dual quaternion.
// The matrix scale is decomposed but does not take part in the result;
// a degenerate rotation becomes the identity rotation.
//
// Parameters:
//   - m: the skinning matrix
//
// Returns:
//   - DualQuat: the skinning dual quaternion
func FromMatrix(m mgl32.Mat4) DualQuat {
	_, rotation, translation := common.Decompose(m)
	return ToDualQuat(rotation, translation)
}

// Translation recovers the translation encoded by the dual part.
//
// Returns:
//   - mgl32.Vec3: 2 * Dual * conjugate(Real), vector part
func (d DualQuat) Translation() mgl32.Vec3 {
	return d.Dual.Mul(d.Real.Conjugate()).V.Mul(2)
}

// Transform applies the rigid transform to a point.
//
// Parameters:
//   - p: the point to transform
//
// Returns:
//   - mgl32.Vec3: the rotated and translated point
func (d DualQuat) Transform(p mgl32.Vec3) mgl32.Vec3 {
	return d.Real.Rotate(p).Add(d.Translation())
}

// GPU returns the packed GPU representation, with quaternions stored as (x, y, z, w).
//
// Returns:
//   - GPUDualQuat: the packed dual quaternion
func (d DualQuat) GPU() GPUDualQuat {
	return GPUDualQuat{
		Real: [4]float32{d.Real.V[0], d.Real.V[1], d.Real.V[2], d.Real.W},
		Dual: [4]float32{d.Dual.V[0], d.Dual.V[1], d.Dual.V[2], d.Dual.W},
	}
}
