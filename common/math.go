package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Matrices throughout the engine are mgl32 column-major matrices applied to column vectors.
// Hierarchies are composed child-first: a frame's world matrix is parentWorld.Mul4(local).

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Then chains two transforms so that first is applied before second.
// It is the column-vector form of the row-vector product first * second.
//
// Parameters:
//   - first: the transform applied first
//   - second: the transform applied afterwards
//
// Returns:
//   - mgl32.Mat4: second * first
func Then(first, second mgl32.Mat4) mgl32.Mat4 {
	return second.Mul4(first)
}

// QuatOrIdentity returns q normalized, or the identity quaternion when q is exactly zero.
// Uninitialized keyframes carry a zero quaternion, which would otherwise collapse the rotation matrix.
//
// Parameters:
//   - q: the quaternion to sanitize
//
// Returns:
//   - mgl32.Quat: a unit quaternion
func QuatOrIdentity(q mgl32.Quat) mgl32.Quat {
	if q.W == 0 && q.V[0] == 0 && q.V[1] == 0 && q.V[2] == 0 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}

// Compose builds the transform that scales, then rotates, then translates.
//
// Parameters:
//   - scale: per-axis scale
//   - rotation: rotation quaternion, sanitized with QuatOrIdentity
//   - translation: translation vector
//
// Returns:
//   - mgl32.Mat4: T * R * S
func Compose(scale mgl32.Vec3, rotation mgl32.Quat, translation mgl32.Vec3) mgl32.Mat4 {
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	r := QuatOrIdentity(rotation).Mat4()
	t := mgl32.Translate3D(translation[0], translation[1], translation[2])
	return t.Mul4(r).Mul4(s)
}

// Decompose splits an affine transform into scale, rotation and translation.
// A negative determinant is folded into the X scale so the rotation stays proper.
// Zero-length axes yield a zero scale on that axis and the identity rotation.
//
// Parameters:
//   - m: the affine transform to decompose
//
// Returns:
//   - mgl32.Vec3: per-axis scale
//   - mgl32.Quat: unit rotation quaternion
//   - mgl32.Vec3: translation
func Decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	translation := m.Col(3).Vec3()

	x, y, z := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale := mgl32.Vec3{x.Len(), y.Len(), z.Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}
	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return scale, mgl32.QuatIdent(), translation
	}

	x, y, z = x.Mul(1/scale[0]), y.Mul(1/scale[1]), z.Mul(1/scale[2])
	rot := mgl32.Mat4{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		0, 0, 0, 1,
	}
	return scale, QuatOrIdentity(mgl32.Mat4ToQuat(rot)), translation
}

// PlacementMatrix builds an actor world matrix from a position and a yaw angle in radians.
// The actor is rotated about Y first and then moved to the position.
//
// Parameters:
//   - posRot: xyz holds the position and w the yaw angle
//
// Returns:
//   - mgl32.Mat4: T(x,y,z) * RotY(w)
func PlacementMatrix(posRot mgl32.Vec4) mgl32.Mat4 {
	return Then(mgl32.HomogRotate3DY(posRot[3]), mgl32.Translate3D(posRot[0], posRot[1], posRot[2]))
}

// NearlyEqual reports whether a and b differ by no more than eps.
//
// Parameters:
//   - a, b: values to compare
//   - eps: absolute tolerance
//
// Returns:
//   - bool: true if |a-b| <= eps
func NearlyEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}
