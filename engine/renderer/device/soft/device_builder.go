package soft

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shading/common"
)

// DeviceBuilderOption is a function that configures a soft Device during construction.
type DeviceBuilderOption func(*Device)

// WithWorkers sets how many pool workers run kernel invocations. Defaults to 4.
//
// Parameters:
//   - n: worker count, values below 1 are raised to 1
//
// Returns:
//   - DeviceBuilderOption: a function that applies the worker count
func WithWorkers(n int) DeviceBuilderOption {
	return func(d *Device) {
		d.workers = max(n, 1)
	}
}

// WithWorkerPool supplies an existing pool instead of creating one.
func WithWorkerPool(p worker.DynamicWorkerPool) DeviceBuilderOption {
	return func(d *Device) {
		d.pool = p
	}
}

// WithChunkSize sets how many invocations a single pool task runs. Defaults to 64.
func WithChunkSize(n uint32) DeviceBuilderOption {
	return func(d *Device) {
		d.chunk = max(n, 1)
	}
}

// WithClock replaces the nanosecond clock read by timer queries.
//
// Parameters:
//   - clock: returns a monotonically non-decreasing timestamp in nanoseconds
//
// Returns:
//   - DeviceBuilderOption: a function that applies the clock
func WithClock(clock func() uint64) DeviceBuilderOption {
	return func(d *Device) {
		d.clock = clock
	}
}

// WithViewport sets the initial viewport size. Defaults to 64x64.
func WithViewport(res common.Resolution) DeviceBuilderOption {
	return func(d *Device) {
		d.viewport = res
	}
}
