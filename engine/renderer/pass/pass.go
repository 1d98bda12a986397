// Package pass implements the instrumented unit of GPU work that pipelines are built from.
package pass

import (
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/shader"
)

// Stats is the read-only view of a pass used by reports.
type Stats struct {
	// Name is the pass title.
	Name string
	// Enabled reports whether the pass currently runs.
	Enabled bool
	// AvgTimeNs is the mean GPU time per run in nanoseconds.
	AvgTimeNs float64
	// Samples is the number of timed runs.
	Samples uint64
	// AvgVertices and AvgFragments are the mean invocation counts per run.
	AvgVertices  float64
	AvgFragments float64
}

// pass is the implementation of the Pass interface.
type pass struct {
	d          device.Device
	name       string
	condition  *bool
	shaderBase string
	program    device.Program
	render     func()

	timer     *profiler.Timer
	vertices  *profiler.Counter
	fragments *profiler.Counter
	released  bool
}

// Pass is one titled step of a pipeline: an optional program, a render callback and the
// timer and invocation counters wrapped around it.
type Pass interface {
	// Run executes the pass. When the pass has a condition that is false nothing happens,
	// not even a timer sample. Otherwise the counters and timer are started (draining the
	// device first when forceSync is set), the program is bound if one is compiled, the
	// render callback runs and the timer and counters are stopped.
	//
	// Parameters:
	//   - forceSync: drain the device before timing so the sample only covers this pass
	Run(forceSync bool)

	// Compile (re)builds the program for the enabled options and resets the statistics.
	// A pass without a shader basename succeeds without touching the compiler. On failure
	// the previous program is kept and the error is logged.
	//
	// Parameters:
	//   - c: the shader variant compiler
	//   - options: enabled option names in declaration order
	//
	// Returns:
	//   - bool: true on success
	Compile(c shader.Compiler, options []string) bool

	// Reset clears the timer and counters.
	Reset()

	// IsEnabled reports whether Run would execute the callback.
	IsEnabled() bool

	// Name returns the pass title.
	Name() string

	// ShaderBase returns the shader basename, empty for passes without a program.
	ShaderBase() string

	// Program returns the compiled program, or nil.
	Program() device.Program

	// Stats returns the averaged statistics.
	Stats() Stats

	// Release frees the program and the queries. Later calls do nothing.
	Release()
}

var _ Pass = &pass{}

// NewPass creates a pass on d.
//
// Parameters:
//   - d: the device, must not be nil
//   - name: the pass title shown in reports
//   - options: variadic list of PassBuilderOption functions
//
// Returns:
//   - Pass: the pass, uncompiled
func NewPass(d device.Device, name string, options ...PassBuilderOption) Pass {
	if d == nil {
		panic("pass: NewPass requires a device")
	}
	p := &pass{
		d:         d,
		name:      name,
		render:    func() {},
		timer:     profiler.NewTimer(d),
		vertices:  profiler.NewCounter(d, device.CounterVertexInvocations),
		fragments: profiler.NewCounter(d, device.CounterFragmentInvocations),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *pass) Run(forceSync bool) {
	if !p.IsEnabled() {
		return
	}
	p.vertices.Start()
	p.fragments.Start()
	p.timer.Start(forceSync)

	if p.program != nil {
		p.d.UseProgram(p.program)
	}
	p.render()

	p.timer.Stop()
	p.fragments.Stop()
	p.vertices.Stop()
}

func (p *pass) Compile(c shader.Compiler, options []string) bool {
	p.Reset()
	if p.shaderBase == "" {
		return true
	}

	prog, err := c.Compile(p.shaderBase, options)
	if err != nil {
		logger.Logger().Error("shader compilation failed, keeping previous program", "pass", p.name, "shader", p.shaderBase, "error", err)
		return false
	}
	if p.program != nil {
		p.program.Release()
	}
	p.program = prog
	p.d.Finish()
	return true
}

func (p *pass) Reset() {
	p.timer.Reset()
	p.vertices.Reset()
	p.fragments.Reset()
}

func (p *pass) IsEnabled() bool {
	return p.condition == nil || *p.condition
}

func (p *pass) Name() string {
	return p.name
}

func (p *pass) ShaderBase() string {
	return p.shaderBase
}

func (p *pass) Program() device.Program {
	return p.program
}

func (p *pass) Stats() Stats {
	return Stats{
		Name:         p.name,
		Enabled:      p.IsEnabled(),
		AvgTimeNs:    p.timer.Average(),
		Samples:      p.timer.Count(),
		AvgVertices:  p.vertices.Average(),
		AvgFragments: p.fragments.Average(),
	}
}

func (p *pass) Release() {
	if p.released {
		return
	}
	p.released = true
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
	p.timer.Release()
	p.vertices.Release()
	p.fragments.Release()
}
