package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithOrbit sets the initial spherical position around the target.
//
// Parameters:
//   - radius: distance from the target
//   - azimuth: angle around the Y axis in radians, 0 looks down -Z
//   - elevation: angle above the horizontal plane in radians
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithOrbit(radius, azimuth, elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius, cc.azimuth, cc.elevation = radius, azimuth, elevation
	}
}

// WithTarget sets the pivot point.
func WithTarget(target mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = target
	}
}

// WithFraming points the camera at the origin from far enough to see a cube of the given
// edge length, such as the sphere grid whose edge is its spheres per row.
//
// Parameters:
//   - extent: edge length of the cube to frame
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithFraming(extent float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = mgl32.Vec3{}
		cc.radius = 1.5*extent + 2
		cc.maxRadius = max(cc.maxRadius, 10*extent)
	}
}

// WithRadiusBounds limits zooming to [lo, hi].
func WithRadiusBounds(lo, hi float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius, cc.maxRadius = lo, hi
	}
}

// WithElevationBounds limits the elevation to [lo, hi] radians. Keep both inside
// (-Pi/2, Pi/2) or the view flips at the poles.
func WithElevationBounds(lo, hi float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minElevation, cc.maxElevation = lo, hi
	}
}

// WithSpeeds sets the input response.
//
// Parameters:
//   - orbit: radians per OrbitLeft/Right/Up/Down call
//   - mouse: radians per dragged pixel
//   - zoom: radius change per scroll unit
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithSpeeds(orbit, mouse, zoom float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed, cc.mouseSensitivity, cc.zoomSpeed = orbit, mouse, zoom
	}
}
