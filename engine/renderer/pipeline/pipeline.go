// Package pipeline sequences instrumented passes into a frame and owns the options that
// select shader variants. Changing an option recompiles every pass; a failed compilation
// leaves the pipeline uninitialised and it retries on the next frame.
package pipeline

import (
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/shader"
)

// Pipeline is an ordered list of passes plus the option set they are compiled with.
// Algorithm variants embed it and add their resources and pass callbacks.
type Pipeline struct {
	name        string
	d           device.Device
	compiler    shader.Compiler
	initialized bool
	showDebug   bool

	passes  []pass.Pass
	options *Options
	timer   *profiler.Timer

	debugHook  func()
	resizeHook func(common.Resolution) error
	defines    func() []string

	failWarn *logger.Throttle
}

// New creates an empty, uninitialised pipeline.
//
// Parameters:
//   - name: the pipeline name used in logs and reports
//   - d: the device, must not be nil
//   - c: the shader variant compiler, must not be nil
//   - options: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - *Pipeline: the pipeline
func New(name string, d device.Device, c shader.Compiler, options ...PipelineBuilderOption) *Pipeline {
	if d == nil || c == nil {
		panic("pipeline: New requires a device and a compiler")
	}
	p := &Pipeline{
		name:     name,
		d:        d,
		compiler: c,
		options:  NewOptions(),
		timer:    profiler.NewTimer(d),
		failWarn: logger.NewThrottle(5 * time.Second),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Device returns the device the pipeline records on.
func (p *Pipeline) Device() device.Device {
	return p.d
}

// Initialized reports whether the last compilation succeeded.
func (p *Pipeline) Initialized() bool {
	return p.initialized
}

// ShowDebug reports whether the debug hook runs after each frame.
func (p *Pipeline) ShowDebug() bool {
	return p.showDebug
}

// SetShowDebug enables or disables the debug hook.
func (p *Pipeline) SetShowDebug(v bool) {
	p.showDebug = v
}

// SetDebugHook sets the callback run after each frame while ShowDebug is set.
func (p *Pipeline) SetDebugHook(hook func()) {
	p.debugHook = hook
}

// SetResizeHook sets the callback OnResize forwards to.
func (p *Pipeline) SetResizeHook(hook func(common.Resolution) error) {
	p.resizeHook = hook
}

// AddPass appends a pass executed after every pass added before it.
//
// Parameters:
//   - name: the pass title
//   - options: pass configuration (shader, condition, render callback)
//
// Returns:
//   - pass.Pass: the new pass
func (p *Pipeline) AddPass(name string, options ...pass.PassBuilderOption) pass.Pass {
	ps := pass.NewPass(p.d, name, options...)
	p.passes = append(p.passes, ps)
	return ps
}

// Passes returns the passes in execution order.
func (p *Pipeline) Passes() []pass.Pass {
	return append([]pass.Pass(nil), p.passes...)
}

// DeclareOption adds an option and returns its stable value pointer.
func (p *Pipeline) DeclareOption(name string, def bool) *bool {
	return p.options.Declare(name, def)
}

// Option returns the value of name and whether it is declared.
func (p *Pipeline) Option(name string) (bool, bool) {
	return p.options.Get(name)
}

// Options returns the option set.
func (p *Pipeline) Options() *Options {
	return p.options
}

// SetOption assigns an option. A change recompiles every pass.
//
// Returns:
//   - error: ErrUnknownOption for undeclared names
func (p *Pipeline) SetOption(name string, v bool) error {
	changed, err := p.options.Set(name, v)
	if err != nil {
		return err
	}
	if changed {
		logger.Logger().Info("option changed", "pipeline", p.name, "option", name, "enabled", v)
		p.Reset(true)
	}
	return nil
}

// ToggleOption flips an option and recompiles every pass.
//
// Returns:
//   - error: ErrUnknownOption for undeclared names
func (p *Pipeline) ToggleOption(name string) error {
	v, ok := p.options.Get(name)
	if !ok {
		_, err := p.options.Set(name, false)
		return err
	}
	return p.SetOption(name, !v)
}

// Run records one frame. An uninitialised pipeline first tries to compile; if that fails
// the frame is skipped.
//
// Parameters:
//   - forceSync: drain the device before every timer start
func (p *Pipeline) Run(forceSync bool) {
	if !p.initialized && !p.Reset(true) {
		if ok, suppressed := p.failWarn.Allow(); ok {
			logger.Logger().Error("pipeline not initialised, frame skipped", "pipeline", p.name, "suppressed", suppressed)
		}
		return
	}

	p.timer.Start(forceSync)
	for _, ps := range p.passes {
		ps.Run(forceSync)
	}
	p.timer.Stop()

	if p.showDebug && p.debugHook != nil {
		p.debugHook()
	}
}

// Reset clears every timer and counter. With resetShaders it also recompiles every pass
// and records the outcome as the initialised state.
//
// Returns:
//   - bool: the compilation result, or true when resetShaders is false
func (p *Pipeline) Reset(resetShaders bool) bool {
	p.timer.Reset()
	for _, ps := range p.passes {
		ps.Reset()
	}
	if !resetShaders {
		return true
	}
	p.initialized = p.Compile()
	return p.initialized
}

// Compile compiles the passes in order with the enabled options, stopping at the first
// failure; later passes keep their previous programs.
func (p *Pipeline) Compile() bool {
	enabled := p.options.Enabled()
	if p.defines != nil {
		enabled = append(enabled, p.defines()...)
	}
	for _, ps := range p.passes {
		if !ps.Compile(p.compiler, enabled) {
			return false
		}
	}
	logger.Logger().Debug("pipeline compiled", "pipeline", p.name, "passes", len(p.passes), "options", enabled)
	return true
}

// OnResize forwards a new resolution to the resize hook. Programs are not recompiled.
func (p *Pipeline) OnResize(res common.Resolution) error {
	if p.resizeHook == nil {
		return nil
	}
	return p.resizeHook(res)
}

// Describe snapshots options, pass statistics and the frame timer.
func (p *Pipeline) Describe() Report {
	r := Report{
		Name:         p.name,
		Initialized:  p.initialized,
		ShowDebug:    p.showDebug,
		FrameTimeNs:  p.timer.Average(),
		FrameSamples: p.timer.Count(),
	}
	for _, n := range p.options.Names() {
		v, _ := p.options.Get(n)
		r.Options = append(r.Options, OptionState{Name: n, Enabled: v})
	}
	for _, ps := range p.passes {
		r.Passes = append(r.Passes, ps.Stats())
	}
	return r
}

// Release frees every pass and the frame timer.
func (p *Pipeline) Release() {
	for _, ps := range p.passes {
		ps.Release()
	}
	p.timer.Release()
	p.initialized = false
}
