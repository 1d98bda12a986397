package engine

import (
	"io/fs"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/camera"
	"github.com/Carmen-Shannon/oxy-shading/engine/driver"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/algorithm"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
	"github.com/Carmen-Shannon/oxy-shading/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for input handling.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets the window the engine presents to. Without a window the engine runs
// headless at the resolution set by WithResolution.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDeviceFactory sets the function that creates the device. It runs on the render
// thread after the window's context was made current there.
//
// Parameters:
//   - factory: device constructor, typically opengl.NewDevice or a soft device
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDeviceFactory(factory func() (device.Device, error)) EngineBuilderOption {
	return func(e *engine) {
		e.newDevice = factory
	}
}

// WithResolution sets the framebuffer size of a headless engine. A window overrides it.
func WithResolution(res common.Resolution) EngineBuilderOption {
	return func(e *engine) {
		e.resolution = res
	}
}

// WithShaderDir loads shader sources from dir.
func WithShaderDir(dir string) EngineBuilderOption {
	return func(e *engine) {
		e.shaderDir = dir
	}
}

// WithShaderFS loads shader sources from fsys instead of a directory. Hot reload is not
// available for it unless a request channel is supplied with WithReloadRequests.
func WithShaderFS(fsys fs.FS) EngineBuilderOption {
	return func(e *engine) {
		e.shaderFS = fsys
	}
}

// WithWatchShaders recompiles every pass when a file in the shader directory changes.
func WithWatchShaders(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.watchShaders = enabled
	}
}

// WithReloadRequests recompiles every pass for each name received on requests.
func WithReloadRequests(requests <-chan string) EngineBuilderOption {
	return func(e *engine) {
		e.requests = requests
	}
}

// WithScene sets the scene. The default is scene.NewScene().
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithCamera sets the camera. The default is a camera with an orbit controller.
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithAlgorithm sets the algorithm active on the first frame.
func WithAlgorithm(kind algorithm.Kind) EngineBuilderOption {
	return func(e *engine) {
		e.kind = kind
	}
}

// WithSamples sets the initial MSAA sample count.
func WithSamples(n int) EngineBuilderOption {
	return func(e *engine) {
		e.samples = n
	}
}

// WithHashCapacity sets the initial hash table bucket count.
func WithHashCapacity(capacity uint32) EngineBuilderOption {
	return func(e *engine) {
		e.hashCapacity = capacity
	}
}

// WithDriverOptions passes options through to driver.New.
func WithDriverOptions(options ...driver.DriverBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.driverOptions = append(e.driverOptions, options...)
	}
}

// WithMaxFrames stops the engine after n frames. 0 runs until Quit.
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
