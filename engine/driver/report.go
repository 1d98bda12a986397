package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/algorithm"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/worklist"
	"github.com/muesli/termenv"
)

// Report is a snapshot of the driver and its active algorithm.
type Report struct {
	// Pipeline is the active algorithm's report. Zero before the first Switch.
	Pipeline pipeline.Report
	// Kind is the active algorithm.
	Kind algorithm.Kind
	// Active is false before the first Switch.
	Active bool

	Resolution   common.Resolution
	Samples      int
	HashCapacity uint32
	ForceSync    bool
	Frames       uint64

	Spheres   int
	Triangles int
	Lights    int

	// WorkList is the last work-list header read back, nil for algorithms without one.
	WorkList *worklist.Stats
	// Profile is the most recent profiler interval, zero without a profiler.
	Profile profiler.FrameStats
}

// Report aggregates the active pipeline report with the frame and scene statistics.
func (d *Driver) Report() Report {
	s := d.ctx.Scene
	r := Report{
		Resolution:   d.ctx.Resolution,
		Samples:      d.ctx.Samples,
		HashCapacity: d.ctx.HashCapacity,
		ForceSync:    d.forceSync,
		Frames:       d.frames,
		Spheres:      s.SphereCount(),
		Triangles:    s.TriangleCount(),
		Lights:       s.Lights().Count(),
	}
	if d.profiler != nil {
		r.Profile = d.profiler.Last()
	}
	if d.active == nil {
		return r
	}
	r.Active = true
	r.Kind = d.active.Kind()
	r.Pipeline = d.active.Describe()
	if wl, ok := d.active.(algorithm.WorkListReporter); ok {
		stats := wl.LastWorkList()
		r.WorkList = &stats
	}
	return r
}

// Render writes the report as a table, one row per pass. Colours follow the terminal
// profile detected for w.
//
// Parameters:
//   - w: the destination
//   - options: termenv output options, e.g. termenv.WithProfile(termenv.Ascii)
//
// Returns:
//   - error: the first write error
func (r Report) Render(w io.Writer, options ...termenv.OutputOption) error {
	out := termenv.NewOutput(w, options...)
	var b strings.Builder

	if !r.Active {
		b.WriteString(out.String("no algorithm selected").Faint().String())
		b.WriteByte('\n')
		_, err := io.WriteString(w, b.String())
		return err
	}

	title := out.String(r.Pipeline.Name).Bold()
	if !r.Pipeline.Initialized {
		title = title.Foreground(out.Color("1"))
	}
	fmt.Fprintf(&b, "%s  %s  samples=%d  force_sync=%t  frames=%d\n",
		title, r.Resolution, r.Samples, r.ForceSync, r.Frames)
	fmt.Fprintf(&b, "scene: %d spheres, %d triangles, %d lights\n", r.Spheres, r.Triangles, r.Lights)

	if len(r.Pipeline.Options) > 0 {
		opts := make([]string, 0, len(r.Pipeline.Options))
		for _, o := range r.Pipeline.Options {
			mark := "-"
			if o.Enabled {
				mark = "+"
			}
			opts = append(opts, mark+o.Name)
		}
		fmt.Fprintf(&b, "options: %s\n", strings.Join(opts, " "))
	}

	fmt.Fprintf(&b, "%-34s %10s %7s %8s %12s %12s\n", "pass", "ms", "%", "samples", "vertices", "fragments")
	for i, p := range r.Pipeline.Passes {
		name := fmt.Sprintf("%-34s", p.Name)
		if !p.Enabled {
			name = out.String(name).Faint().String()
		}
		fmt.Fprintf(&b, "%s %10.3f %7.1f %8d %12.0f %12.0f\n",
			name, p.AvgTimeNs/1e6, r.Pipeline.PassShare(i), p.Samples, p.AvgVertices, p.AvgFragments)
	}
	fmt.Fprintf(&b, "%-34s %10.3f %7s %8d\n", out.String("frame").Bold(), r.Pipeline.FrameTimeNs/1e6, "", r.Pipeline.FrameSamples)

	if r.WorkList != nil {
		wl := *r.WorkList
		line := fmt.Sprintf("work-list: %d/%d triangles, hash=%d, collisions=%d, overflow=%d",
			wl.Count, wl.Capacity, r.HashCapacity, wl.Collisions, wl.Overflow)
		if wl.Collisions > 0 || wl.Overflow > 0 {
			line = out.String(line).Foreground(out.Color("3")).String()
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if r.Profile.FPS > 0 {
		fmt.Fprintf(&b, "fps: %.1f  frame: %s  heap: %.1f MB\n", r.Profile.FPS, r.Profile.FrameTime, r.Profile.HeapMB)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the report without colours.
func (r Report) String() string {
	var b strings.Builder
	_ = r.Render(&b, termenv.WithProfile(termenv.Ascii))
	return b.String()
}
