package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-character/common"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

func near(a, b float32) bool {
	return common.NearlyEqual(a, b, eps)
}

func TestOrbitPosition(t *testing.T) {
	tests := []struct {
		azimuth, elevation float32
		want               mgl32.Vec3
	}{
		{0, 0, mgl32.Vec3{0, 1, 4}},
		{math.Pi / 2, 0, mgl32.Vec3{4, 1, 0}},
		{0, math.Pi / 4, mgl32.Vec3{0, 1 + 4*math.Sqrt2/2, 4 * math.Sqrt2 / 2}},
	}
	for _, tt := range tests {
		cc := NewOrbitController(
			WithTarget(mgl32.Vec3{0, 1, 0}),
			WithRadius(4),
			WithAzimuth(tt.azimuth),
			WithElevation(tt.elevation),
		)
		if got := cc.Position(); !got.ApproxFuncEqual(tt.want, near) {
			t.Errorf("Position(az=%v, el=%v)=%v; expected %v", tt.azimuth, tt.elevation, got, tt.want)
		}
	}
}

func TestOrbitClampsElevationAndZoom(t *testing.T) {
	cc := NewOrbitController(WithRadius(4), WithRadiusBounds(1, 10), WithElevationBounds(0, 1), WithZoomSpeed(1))
	cc.Orbit(0, 5)
	if got := cc.Elevation(); got != 1 {
		t.Errorf("Elevation()=%v; expected clamp to 1", got)
	}
	cc.Zoom(100)
	if got := cc.Radius(); got != 1 {
		t.Errorf("Radius()=%v; expected clamp to 1", got)
	}
	cc.Zoom(-2)
	if got := cc.Radius(); got != 3 {
		t.Errorf("Radius()=%v; expected 3", got)
	}
}

func TestCameraViewProjection(t *testing.T) {
	cc := NewOrbitController(WithRadius(5), WithElevation(0), WithElevationBounds(-1, 1))
	c := NewCamera(WithController(cc), WithAspect(16.0/9.0), WithClipPlanes(0.1, 50))

	// The target projects to the center of the screen.
	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if ndc := clip.Vec3().Mul(1 / clip.W()); math.Abs(float64(ndc.X())) > eps || math.Abs(float64(ndc.Y())) > eps {
		t.Errorf("target NDC=%v; expected centered", ndc)
	}
	if got, want := c.ViewProjectionMatrix(), c.ProjectionMatrix().Mul4(c.ViewMatrix()); !got.ApproxEqualThreshold(want, eps) {
		t.Errorf("ViewProjectionMatrix()=%v; expected projection*view", got)
	}
}

func TestCameraKeepsPreviousViewProjection(t *testing.T) {
	cc := NewOrbitController(WithRadius(5))
	c := NewCamera(WithController(cc))
	first := c.ViewProjectionMatrix()
	if c.PrevViewProjectionMatrix() != first {
		t.Error("PrevViewProjectionMatrix() before any Update differs from the current matrix")
	}
	cc.Orbit(0.5, 0)
	c.Update()
	if c.PrevViewProjectionMatrix() != first {
		t.Error("PrevViewProjectionMatrix() after Update is not the earlier matrix")
	}
	if c.ViewProjectionMatrix() == first {
		t.Error("ViewProjectionMatrix() did not change after orbiting")
	}
}

func TestShadowProjectionFramesCenter(t *testing.T) {
	center := mgl32.Vec3{3, 0, -2}
	m := ShadowProjection(mgl32.Vec3{-1, -2, -1}, center, DefaultShadowHalfExtent, DefaultShadowNear, DefaultShadowFar)
	clip := m.Mul4x1(center.Vec4(1))
	if math.Abs(float64(clip.X())) > eps || math.Abs(float64(clip.Y())) > eps {
		t.Errorf("center clip=%v; expected x=y=0", clip)
	}
	if z := clip.Z(); z <= -1 || z >= 1 {
		t.Errorf("center depth=%v; expected inside the depth range", z)
	}

	// Straight-down light still builds a valid basis.
	down := ShadowProjection(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{}, 5, 0.1, 20)
	for _, v := range down {
		if math.IsNaN(float64(v)) {
			t.Fatalf("ShadowProjection(down) contains NaN: %v", down)
		}
	}
}

func TestWithClipPlanesIgnoresInvertedRange(t *testing.T) {
	tests := []struct {
		near, far         float32
		wantNear, wantFar float32
	}{
		{0.5, 20, 0.5, 20},
		{5, 1, 0.1, 100},
		{0, 10, 0.1, 100},
	}
	for _, tt := range tests {
		c := NewCamera(WithClipPlanes(tt.near, tt.far))
		if c.Near() != tt.wantNear || c.Far() != tt.wantFar {
			t.Errorf("WithClipPlanes(%v, %v): near/far=%v/%v; expected %v/%v", tt.near, tt.far, c.Near(), c.Far(), tt.wantNear, tt.wantFar)
		}
	}
}
