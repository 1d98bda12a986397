// Package driver owns the active shading algorithm. It switches between algorithms, forwards
// window and settings changes to the active one and runs one frame at a time.
package driver

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/algorithm"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
)

// Driver selects and runs one algorithm at a time. It is not safe for concurrent use: every
// method must be called from the thread that owns the device.
type Driver struct {
	ctx       algorithm.Context
	active    algorithm.Algorithm
	forceSync bool
	animate   bool
	frames    uint64

	profiler *profiler.Profiler
	failWarn *logger.Throttle
}

// New validates ctx and returns a driver with no active algorithm. Call Switch before Frame.
//
// Parameters:
//   - ctx: the render context shared by every algorithm
//   - options: variadic list of DriverBuilderOption functions
//
// Returns:
//   - *Driver: the driver
//   - error: a context validation error
func New(ctx algorithm.Context, options ...DriverBuilderOption) (*Driver, error) {
	ctx, err := ctx.Validate()
	if err != nil {
		return nil, err
	}
	d := &Driver{
		ctx:      ctx,
		animate:  true,
		failWarn: logger.NewThrottle(5 * time.Second),
	}
	for _, option := range options {
		option(d)
	}
	ctx.Camera.SetAspect(ctx.Resolution.Aspect())
	return d, nil
}

// Active returns the running algorithm, or nil before the first Switch.
func (d *Driver) Active() algorithm.Algorithm {
	return d.active
}

// Context returns the context the next algorithm will be built with.
func (d *Driver) Context() algorithm.Context {
	return d.ctx
}

// Switch replaces the active algorithm with a new one of the given kind. The new algorithm
// is set up and compiled before the old one is released, so a failed switch keeps the
// previous algorithm running. Switching to the active kind rebuilds it.
//
// Parameters:
//   - kind: the algorithm to run from the next frame on
//
// Returns:
//   - error: ErrUnknownKind or a setup error; the previous algorithm stays active
func (d *Driver) Switch(kind algorithm.Kind) error {
	next, err := algorithm.New(kind, d.ctx)
	if err != nil {
		return err
	}
	if err := next.Setup(); err != nil {
		next.Release()
		return fmt.Errorf("switch to %s: %w", kind, err)
	}
	if !next.Reset(true) {
		logger.Logger().Error("algorithm failed to compile, retrying every frame", "algorithm", kind.String())
	}

	prev := d.active
	d.active = next
	if prev != nil {
		logger.Logger().Info("algorithm switched", "from", prev.Name(), "to", next.Name())
		prev.Release()
	} else {
		logger.Logger().Info("algorithm selected", "algorithm", next.Name())
	}
	return nil
}

// Resize records the new default framebuffer size, updates the camera aspect and recreates
// the resolution dependent resources of the active algorithm.
//
// Returns:
//   - error: ErrIncompleteContext for a degenerate size, or an allocation error
func (d *Driver) Resize(res common.Resolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: resolution %s", algorithm.ErrIncompleteContext, res)
	}
	d.ctx.Resolution = res
	d.ctx.Camera.SetAspect(res.Aspect())
	if d.active == nil {
		return nil
	}
	logger.Logger().Info("resize", "resolution", res.String())
	return d.active.OnResize(res)
}

// RecompileAll recompiles every pass of the active algorithm and clears its statistics.
//
// Returns:
//   - bool: true when every pass compiled
func (d *Driver) RecompileAll() bool {
	if d.active == nil {
		return false
	}
	ok := d.active.Reset(true)
	logger.Logger().Info("shaders recompiled", "algorithm", d.active.Name(), "ok", ok)
	return ok
}

// ResetTimers clears every pass and frame statistic of the active algorithm.
func (d *Driver) ResetTimers() {
	if d.active != nil {
		d.active.Reset(false)
	}
}

// ForceSync reports whether the device is drained before every timer start.
func (d *Driver) ForceSync() bool {
	return d.forceSync
}

// SetForceSync changes timer synchronisation. Statistics gathered in the other mode are not
// comparable, so the timers are reset.
func (d *Driver) SetForceSync(v bool) {
	if v == d.forceSync {
		return
	}
	d.forceSync = v
	d.ResetTimers()
	logger.Logger().Info("timer synchronisation", "force_sync", v)
}

// SetAnimate controls whether Frame advances the light animation.
func (d *Driver) SetAnimate(v bool) {
	d.animate = v
}

// SetSamples changes the MSAA sample count of the active algorithm and of every algorithm
// switched to later.
//
// Returns:
//   - error: algorithm.ErrInvalidSamples or an allocation error
func (d *Driver) SetSamples(n int) error {
	if err := algorithm.ValidateSamples(n); err != nil {
		return err
	}
	d.ctx.Samples = n
	if d.active == nil {
		return nil
	}
	return d.active.SetSamples(n)
}

// SetHashCapacity changes the bucket count of the DAIS hash table, now if DAIS is active and
// for every later switch.
//
// Returns:
//   - error: hashtable.ErrNotPowerOfTwo, hashtable.ErrCapacityRange or an allocation error
func (d *Driver) SetHashCapacity(capacity uint32) error {
	if err := hashtable.ValidateCapacity(capacity); err != nil {
		return err
	}
	d.ctx.HashCapacity = capacity
	if hs, ok := d.active.(algorithm.HashCapacitySetter); ok {
		return hs.SetHashCapacity(capacity)
	}
	return nil
}

// Frame advances the scene and camera and runs the active algorithm once.
//
// Returns:
//   - error: ErrNoAlgorithm before the first successful Switch
func (d *Driver) Frame() error {
	if d.active == nil {
		if ok, suppressed := d.failWarn.Allow(); ok {
			logger.Logger().Warn("frame skipped, no algorithm selected", "suppressed", suppressed)
		}
		return ErrNoAlgorithm
	}
	if d.animate {
		d.ctx.Scene.Update()
	}
	d.ctx.Camera.Update()
	d.active.Run(d.forceSync)
	d.frames++
	if d.profiler != nil {
		d.profiler.Tick()
	}
	return nil
}

// SetProfiler replaces the profiler ticked after every frame; nil disables profiling.
func (d *Driver) SetProfiler(p *profiler.Profiler) {
	d.profiler = p
}

// Frames returns the number of frames run since construction.
func (d *Driver) Frames() uint64 {
	return d.frames
}

// Release frees the active algorithm.
func (d *Driver) Release() {
	if d.active != nil {
		d.active.Release()
		d.active = nil
	}
}
