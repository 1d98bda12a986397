package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/camera"
	"github.com/Carmen-Shannon/oxy-shading/engine/driver"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/algorithm"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
	"github.com/Carmen-Shannon/oxy-shading/engine/window"
)

// ErrNoDevice is returned by Run when no device factory was configured.
var ErrNoDevice = errors.New("engine: no device factory")

// Command is a change applied to the driver on the render thread between two frames.
type Command func(d *driver.Driver)

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window     window.Window
	resolution common.Resolution
	newDevice  func() (device.Device, error)

	shaderDir    string
	shaderFS     fs.FS
	watchShaders bool
	requests     <-chan string

	scene         scene.Scene
	camera        camera.Camera
	kind          algorithm.Kind
	samples       int
	hashCapacity  uint32
	driverOptions []driver.DriverBuilderOption

	commands chan Command

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(d *driver.Driver, deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // stop after this many frames; 0 = until quit

	errMu sync.Mutex
	err   error
}

// Engine runs the shading harness: it owns the window, the render thread with the device
// and the driver, and the fixed-rate tick loop used for input.
type Engine interface {
	// Window returns the window, nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the scene rendered by every algorithm.
	Scene() scene.Scene

	// Camera returns the camera shared by every algorithm.
	Camera() camera.Camera

	// EnableProfiler enables frame rate and memory statistics logging.
	EnableProfiler()

	// DisableProfiler disables frame rate and memory statistics logging.
	DisableProfiler()

	// SetTickRate sets the tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick, on the tick goroutine.
	// Use this for held-key camera movement.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each frame on the render thread.
	// It may use the driver directly.
	//
	// Parameters:
	//   - callback: function receiving the driver and the delta time in seconds
	SetRenderCallback(callback func(d *driver.Driver, deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Submit queues cmd for the render thread. Commands run in submission order before the
	// next frame. Safe for concurrent use.
	//
	// Returns:
	//   - bool: false when the queue is full and cmd was dropped
	Submit(cmd Command) bool

	// Run starts the engine and blocks until the window closes, Quit is called or the frame
	// limit is reached. A headless engine renders on the calling goroutine.
	//
	// Returns:
	//   - error: the device, driver or algorithm error that stopped the render thread
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		commands:        make(chan Command, 64),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		resolution:      common.Resolution{Width: 1280, Height: 720},
		kind:            algorithm.Forward,
	}

	for _, opt := range options {
		opt(e)
	}
	e.shaderDir = common.Coalesce(e.shaderDir, "shaders")
	if e.scene == nil {
		e.scene = scene.NewScene()
	}
	if e.camera == nil {
		e.camera = camera.NewCamera(camera.WithController(camera.NewCameraController()))
	}

	if e.window != nil {
		e.resolution = e.window.Resolution()
		e.window.SetResizeCallback(func(width, height int) {
			if width <= 0 || height <= 0 {
				// Minimised.
				return
			}
			res := common.Resolution{Width: width, Height: height}
			e.Submit(func(d *driver.Driver) {
				if err := d.Resize(res); err != nil {
					logger.Logger().Error("resize failed", "resolution", res.String(), "error", err)
				}
			})
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Submit(cmd Command) bool {
	select {
	case e.commands <- cmd:
		return true
	default:
		logger.Logger().Warn("command queue full, command dropped")
		return false
	}
}

func (e *engine) Run() error {
	if e.newDevice == nil {
		return ErrNoDevice
	}
	select {
	case <-e.quitChannel:
		return nil
	default:
	}
	e.running.Store(true)
	if e.window == nil {
		e.render()
		e.signalQuit()
		return e.error()
	}

	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()

	// Events are polled here, on the thread that created the window.
	for e.running.Load() && e.window.ProcessMessages() {
		time.Sleep(time.Millisecond)
	}
	e.signalQuit()
	e.wg.Wait()
	if err := e.window.Close(); err != nil {
		logger.Logger().Warn("window close failed", "error", err)
	}
	return e.error()
}

// Quit signals all engine goroutines to stop. Run closes the window on its own thread.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.errMu.Unlock()
	logger.Logger().Error("render thread stopped", "error", err)
	e.signalQuit()
}

func (e *engine) error() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop in its own goroutine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	e.render()
}

// render owns the device for its whole lifetime: the goroutine is locked to its OS thread
// and the GL context is current on it. Panics stop the engine instead of the process.
func (e *engine) render() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("render thread panic: %v", r))
		}
	}()

	if e.window != nil {
		e.window.MakeContextCurrent()
		defer e.window.DetachContext()
	}

	d, err := e.newDevice()
	if err != nil {
		e.fail(err)
		return
	}
	defer d.Release()

	drv, err := e.newDriver(d)
	if err != nil {
		e.fail(err)
		return
	}
	defer drv.Release()

	if e.watchShaders && e.requests == nil {
		w, err := shader.NewWatcher(e.shaderDir)
		if err != nil {
			logger.Logger().Warn("shader hot reload disabled", "dir", e.shaderDir, "error", err)
		} else {
			defer w.Close()
			e.requests = w.Requests()
		}
	}

	e.loop(drv)
}

func (e *engine) newDriver(d device.Device) (*driver.Driver, error) {
	var compiler shader.Compiler
	if e.shaderFS != nil {
		compiler = shader.NewCompiler(d, shader.WithFS(e.shaderFS))
	} else {
		compiler = shader.NewCompiler(d, shader.WithDir(e.shaderDir))
	}

	ctx := algorithm.Context{
		Device:       d,
		Compiler:     compiler,
		Scene:        e.scene,
		Camera:       e.camera,
		Resolution:   e.resolution,
		Samples:      e.samples,
		HashCapacity: e.hashCapacity,
	}
	options := slices.Clone(e.driverOptions)
	if e.profilingEnabled.Load() {
		options = append(options, driver.WithProfiler(e.profiler))
	}
	drv, err := driver.New(ctx, options...)
	if err != nil {
		return nil, err
	}
	if err := drv.Switch(e.kind); err != nil {
		drv.Release()
		return nil, err
	}
	return drv, nil
}

// loop renders until quit. Between frames it applies queued commands and shader reload
// requests.
func (e *engine) loop(drv *driver.Driver) {
	lastRender := time.Now()
	var frames uint64

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastRender).Seconds())
		lastRender = frameStart

		e.drain(drv)
		if err := drv.Frame(); err != nil {
			e.fail(err)
			return
		}
		if e.window != nil {
			e.window.SwapBuffers()
		}
		if e.renderCallback != nil {
			e.renderCallback(drv, dt)
		}

		frames++
		if e.maxFrames > 0 && frames >= e.maxFrames {
			e.signalQuit()
			return
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// drain applies every pending command and at most one shader reload request.
func (e *engine) drain(drv *driver.Driver) {
	for {
		select {
		case cmd := <-e.commands:
			cmd(drv)
			continue
		default:
		}
		break
	}
	select {
	case name, ok := <-e.requests:
		if ok {
			logger.Logger().Info("shader changed", "file", name)
			drv.RecompileAll()
		}
	default:
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
	e.Submit(func(d *driver.Driver) { d.SetProfiler(e.profiler) })
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
	e.Submit(func(d *driver.Driver) { d.SetProfiler(nil) })
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called after each render frame.
func (e *engine) SetRenderCallback(callback func(d *driver.Driver, deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
