package driver

import "github.com/Carmen-Shannon/oxy-shading/engine/profiler"

// DriverBuilderOption is a functional option for configuring a Driver.
type DriverBuilderOption func(*Driver)

// WithForceSync sets the initial timer synchronisation mode.
//
// Parameters:
//   - v: drain the device before every timer start
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithForceSync(v bool) DriverBuilderOption {
	return func(d *Driver) {
		d.forceSync = v
	}
}

// WithProfiler ticks p after every frame.
//
// Parameters:
//   - p: the profiler, nil disables profiling
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) DriverBuilderOption {
	return func(d *Driver) {
		d.profiler = p
	}
}

// WithAnimation enables or disables the light animation step in Frame.
func WithAnimation(v bool) DriverBuilderOption {
	return func(d *Driver) {
		d.animate = v
	}
}
