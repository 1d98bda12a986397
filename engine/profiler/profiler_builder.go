package profiler

import "time"

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often statistics are computed and logged.
//
// Parameters:
//   - d: the interval; non-positive values keep the 1 second default
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval
func WithUpdateInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithMemoryStats toggles runtime.ReadMemStats sampling, which briefly stops the world.
func WithMemoryStats(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}

// WithClock replaces the wall clock, used by tests.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
