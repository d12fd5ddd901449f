package camera

import "github.com/go-gl/mathgl/mgl32"

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// of the directional light shadow frustum around its center.
const DefaultShadowHalfExtent float32 = 10.0

// DefaultShadowNear is the default near plane of the orthographic shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane of the orthographic shadow projection.
const DefaultShadowFar float32 = 50.0

// ShadowProjection returns the view-projection of a directional light shining along dir,
// framing a cube of halfExtent around center. The light eye sits halfway down the depth range.
//
// Parameters:
//   - dir: the light direction; need not be normalized
//   - center: the point the shadow frustum is centered on
//   - halfExtent: half the width and height of the orthographic frustum
//   - near: near plane distance from the light eye
//   - far: far plane distance from the light eye
//
// Returns:
//   - mgl32.Mat4: the shadow view-projection matrix
func ShadowProjection(dir, center mgl32.Vec3, halfExtent, near, far float32) mgl32.Mat4 {
	d := dir.Normalize()
	eye := center.Sub(d.Mul((near + far) / 2))

	up := mgl32.Vec3{0, 1, 0}
	if abs(d.Dot(up)) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(eye, center, up)
	proj := mgl32.Ortho(-halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	return proj.Mul4(view)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
