// Package camera provides the perspective camera and the orbit controller that drives it.
// The camera derives its matrices from the controller's position and target on Update.
package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	view              mgl32.Mat4
	projection        mgl32.Mat4
	viewProjection    mgl32.Mat4
	invViewProjection mgl32.Mat4
	invView           mgl32.Mat4

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes view/projection matrices
// from an attached CameraController each frame via Update().
type Camera interface {
	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio; called when the framebuffer is resized.
	SetAspect(aspect float32)

	// SetClipPlanes sets the near and far plane distances.
	SetClipPlanes(near, far float32)

	// Position returns the world-space eye position, the translation of the inverse view.
	Position() mgl32.Vec3

	// View returns the world-to-view matrix.
	View() mgl32.Mat4

	// Projection returns the view-to-clip matrix.
	Projection() mgl32.Mat4

	// ViewProjection returns Projection * View.
	ViewProjection() mgl32.Mat4

	// InverseViewProjection returns the inverse of ViewProjection, used to reconstruct
	// world positions from depth.
	InverseViewProjection() mgl32.Mat4

	// Controller returns the attached controller, or nil.
	Controller() CameraController

	// SetController attaches a controller and recomputes the matrices.
	SetController(ctrl CameraController)

	// Update recomputes every matrix from the controller. A no-op without a controller.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with a 45 degree field of view.
// A controller must be attached via SetController or WithController option
// before position/target data is available.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                &sync.Mutex{},
		up:                mgl32.Vec3{0, 1, 0},
		fov:               mgl32.DegToRad(45),
		aspect:            1.0,
		near:              0.1,
		far:               1000.0,
		view:              mgl32.Ident4(),
		projection:        mgl32.Ident4(),
		viewProjection:    mgl32.Ident4(),
		invViewProjection: mgl32.Ident4(),
		invView:           mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetClipPlanes(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near, c.far = near, far
	c.updateMatrices()
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invView.Col(3).Vec3()
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *cameraImpl) InverseViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invViewProjection
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

// updateMatrices recalculates every derived matrix from the controller's eye and target.
// The projection is refreshed even without a controller. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.projection = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	if c.controller != nil {
		c.view = mgl32.LookAtV(c.controller.Position(), c.controller.Target(), c.up)
		c.invView = c.view.Inv()
	}
	c.viewProjection = c.projection.Mul4(c.view)
	c.invViewProjection = c.viewProjection.Inv()
}
