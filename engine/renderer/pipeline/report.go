package pipeline

import "github.com/Carmen-Shannon/oxy-shading/engine/renderer/pass"

// OptionState is one option and its current value.
type OptionState struct {
	Name    string
	Enabled bool
}

// Report is a snapshot of a pipeline for display.
type Report struct {
	// Name is the pipeline name.
	Name string
	// Initialized reports whether the last compilation succeeded.
	Initialized bool
	// ShowDebug reports whether the debug hook runs after each frame.
	ShowDebug bool
	// Options lists the options in declaration order.
	Options []OptionState
	// Passes lists the pass statistics in execution order.
	Passes []pass.Stats
	// FrameTimeNs is the mean GPU time of a whole pipeline run.
	FrameTimeNs float64
	// FrameSamples is the number of timed runs.
	FrameSamples uint64
}

// PassShare returns the share of the frame time spent in pass i, in percent. It is 0 when
// the frame time is unknown.
func (r Report) PassShare(i int) float64 {
	if i < 0 || i >= len(r.Passes) || r.FrameTimeNs <= 0 {
		return 0
	}
	return 100 * r.Passes[i].AvgTimeNs / r.FrameTimeNs
}
