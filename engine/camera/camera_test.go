package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestControllerSphericalPosition(t *testing.T) {
	cc := NewCameraController(WithOrbit(10, 0, 0), WithTarget(mgl32.Vec3{1, 2, 3}))
	p := cc.Position()
	assert.InDelta(t, 1, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)
	assert.InDelta(t, 13, p.Z(), 1e-5)

	cc.SetTarget(mgl32.Vec3{})
	assert.InDelta(t, 10, cc.Position().Len(), 1e-4)
}

func TestControllerClamps(t *testing.T) {
	cc := NewCameraController(WithRadiusBounds(2, 20), WithElevationBounds(-0.5, 0.5), WithSpeeds(0.4, 0.005, 1))

	cc.SetRadius(100)
	assert.Equal(t, float32(20), cc.Radius())
	cc.Zoom(1000)
	assert.Equal(t, float32(2), cc.Radius())

	for range 5 {
		cc.OrbitUp()
	}
	assert.Equal(t, float32(0.5), cc.Elevation())
	for range 5 {
		cc.OrbitDown()
	}
	assert.Equal(t, float32(-0.5), cc.Elevation())

	az := cc.Azimuth()
	cc.OrbitRight()
	assert.InDelta(t, az+0.4, cc.Azimuth(), 1e-6)
	cc.OrbitLeft()
	assert.InDelta(t, az, cc.Azimuth(), 1e-6)
}

func TestControllerDrag(t *testing.T) {
	cc := NewCameraController(WithSpeeds(0.03, 0.01, 1), WithOrbit(12, 0, 0))
	cc.Drag(10, 5)
	assert.InDelta(t, -0.1, cc.Azimuth(), 1e-6)
	assert.InDelta(t, 0.05, cc.Elevation(), 1e-6)
}

func TestCameraMatrices(t *testing.T) {
	cc := NewCameraController(WithOrbit(5, 0, 0))
	cam := NewCamera(WithController(cc), WithAspect(16.0/9.0))

	pos := cam.Position()
	assert.InDelta(t, 0, pos.X(), 1e-4)
	assert.InDelta(t, 0, pos.Y(), 1e-4)
	assert.InDelta(t, 5, pos.Z(), 1e-4)

	// The target projects to the centre of clip space.
	clip := cam.ViewProjection().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5)

	assert.True(t, cam.ViewProjection().Mul4(cam.InverseViewProjection()).ApproxEqualThreshold(mgl32.Ident4(), 1e-4))
}

func TestCameraFollowsControllerOnUpdate(t *testing.T) {
	cc := NewCameraController(WithOrbit(5, 0, 0))
	cam := NewCamera(WithController(cc))
	before := cam.View()

	cc.OrbitRight()
	assert.Equal(t, before, cam.View())
	cam.Update()
	assert.NotEqual(t, before, cam.View())
}

func TestCameraSetters(t *testing.T) {
	cam := NewCamera()
	assert.Nil(t, cam.Controller())
	assert.InDelta(t, math32.Pi/4, cam.Fov(), 1e-6)

	proj := cam.Projection()
	cam.SetAspect(2)
	assert.Equal(t, float32(2), cam.Aspect())
	assert.NotEqual(t, proj, cam.Projection())

	cam.SetAspect(0)
	assert.Equal(t, float32(2), cam.Aspect())

	cam.SetClipPlanes(1, 50)
	assert.Equal(t, float32(1), cam.Near())
	assert.Equal(t, float32(50), cam.Far())

	cam.SetFov(1)
	assert.Equal(t, float32(1), cam.Fov())
}

func TestControllerFraming(t *testing.T) {
	cc := NewCameraController(WithTarget(mgl32.Vec3{5, 5, 5}), WithFraming(100))
	assert.Equal(t, mgl32.Vec3{}, cc.Target())
	assert.Equal(t, float32(152), cc.Radius())
	cc.SetRadius(900)
	assert.Equal(t, float32(900), cc.Radius())
}
