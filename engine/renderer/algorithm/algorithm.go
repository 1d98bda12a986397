// Package algorithm implements the shading algorithms the harness compares. Each one is a
// pipeline.Pipeline with its own passes, options and offscreen resources; they all draw the
// same scene through the same camera so their pass timings can be compared directly.
package algorithm

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/worklist"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
)

// Algorithm is a selectable shading algorithm.
//
// Lifecycle:
//  1. Construct with New
//  2. Call Setup once to allocate device resources
//  3. Call Reset(true) to compile every pass
//  4. Call Run once per frame, OnResize when the window changes
//  5. Call Release when switching away
type Algorithm interface {
	// Kind returns the algorithm identity.
	Kind() Kind

	// Name returns the display name.
	Name() string

	// Setup registers the shader includes and allocates every device resource.
	//
	// Returns:
	//   - error: an allocation error; the algorithm must be released
	Setup() error

	// Run records one frame. See pipeline.Pipeline.Run.
	Run(forceSync bool)

	// Reset clears the statistics and, with resetShaders, recompiles every pass.
	Reset(resetShaders bool) bool

	// Compile compiles every pass with the current options.
	Compile() bool

	// OnResize recreates the resolution dependent resources.
	OnResize(res common.Resolution) error

	// Resolution returns the current default framebuffer size.
	Resolution() common.Resolution

	// Describe snapshots the options and pass statistics.
	Describe() pipeline.Report

	// SetOption and ToggleOption change an option and recompile on change.
	SetOption(name string, v bool) error
	ToggleOption(name string) error

	// Options returns the option set.
	Options() *pipeline.Options

	// ShowDebug and SetShowDebug control the per-frame debug hook.
	ShowDebug() bool
	SetShowDebug(v bool)

	// Samples returns the MSAA sample count of the offscreen targets.
	Samples() int

	// SetSamples changes the MSAA sample count and recreates the offscreen targets.
	// Algorithms without offscreen targets only record the value.
	//
	// Returns:
	//   - error: ErrInvalidSamples or an allocation error
	SetSamples(n int) error

	// Release frees every resource and pass.
	Release()
}

// HashCapacitySetter is implemented by algorithms that own a GPU hash table.
type HashCapacitySetter interface {
	// HashCapacity returns the bucket count.
	HashCapacity() uint32
	// SetHashCapacity resizes the table between frames.
	SetHashCapacity(capacity uint32) error
}

// WorkListReporter is implemented by algorithms that build a work-list each frame.
type WorkListReporter interface {
	// LastWorkList returns the header read back in the most recent frame.
	LastWorkList() worklist.Stats
}

// New constructs the algorithm for kind. Nothing is allocated until Setup.
//
// Parameters:
//   - kind: the algorithm to build
//   - ctx: the render context, validated and defaulted here
//
// Returns:
//   - Algorithm: the algorithm
//   - error: ErrUnknownKind or a context validation error
func New(kind Kind, ctx Context) (Algorithm, error) {
	ctx, err := ctx.Validate()
	if err != nil {
		return nil, err
	}
	switch kind {
	case Forward:
		return newForward(ctx), nil
	case Deferred:
		return newDeferred(ctx, false), nil
	case TiledDeferred:
		return newDeferred(ctx, true), nil
	case DeferredAttributeInterpolation:
		return newDAIS(ctx), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}

const uniformsLabel = "algorithm.uniforms"

// hooks are the variant specific parts of the shared lifecycle.
type hooks struct {
	setup    func() error
	defines  func() []string
	resize   func(common.Resolution) error
	samples  func() error
	release  func()
	uniforms func() []byte
}

// base is the state every algorithm shares: the pipeline, the scene mirror and one uniform
// buffer. Variants embed it and fill in hooks.
type base struct {
	*pipeline.Pipeline

	kind    Kind
	ctx     Context
	res     common.Resolution
	samples int
	hooks   hooks

	uniformBlock string
	uniforms     binding.Provider
	scene        *scene.Resources

	prepared    bool
	syncWarn    *logger.Throttle
	uniformWarn *logger.Throttle
}

// newBase builds the shared state. block is the uniform block selector the passes are
// compiled with, e.g. "FORWARD_UNIFORMS", and index its binding point.
func newBase(kind Kind, ctx Context, block string, index uint32, size int, options ...pipeline.PipelineBuilderOption) *base {
	b := &base{
		kind:         kind,
		ctx:          ctx,
		res:          ctx.Resolution,
		samples:      ctx.Samples,
		uniformBlock: block,
		uniforms:     binding.NewProvider(kind.Short()+".uniforms", ctx.Device, binding.WithUniformBuffer(uniformsLabel, index, size)),
		syncWarn:     logger.NewThrottle(5 * time.Second),
		uniformWarn:  logger.NewThrottle(5 * time.Second),
	}
	options = append(options, pipeline.WithResizeHook(b.resize), pipeline.WithDefines(b.defines))
	b.Pipeline = pipeline.New(kind.String(), ctx.Device, ctx.Compiler, options...)
	return b
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) Resolution() common.Resolution {
	return b.res
}

func (b *base) Samples() int {
	return b.samples
}

func (b *base) Setup() error {
	pp := b.ctx.Compiler.PreProcessor()
	pp.Register("light", light.GLSLInclude())
	pp.Register("scene", scene.GLSLInclude())
	pp.Register("uniforms", UniformsInclude())

	res, err := scene.NewResources(b.ctx.Device, b.ctx.Scene)
	if err != nil {
		return fmt.Errorf("%s: %w", b.kind.Short(), err)
	}
	b.scene = res
	if err := b.uniforms.Init(); err != nil {
		return fmt.Errorf("%s: %w", b.kind.Short(), err)
	}
	if b.hooks.setup != nil {
		if err := b.hooks.setup(); err != nil {
			return fmt.Errorf("%s: %w", b.kind.Short(), err)
		}
	}
	logger.Logger().Info("algorithm ready", "algorithm", b.kind.String(), "resolution", b.res.String(), "samples", b.samples)
	return nil
}

// defines selects the uniform block and appends the variant's own defines.
func (b *base) defines() []string {
	out := []string{b.uniformBlock}
	if b.hooks.defines != nil {
		out = append(out, b.hooks.defines()...)
	}
	return out
}

// Run marks the frame unprepared and runs the pipeline. The first pass that draws calls
// prepare.
func (b *base) Run(forceSync bool) {
	b.prepared = false
	b.Pipeline.Run(forceSync)
}

// prepare uploads scene changes, binds the shared buffers and writes the uniforms. Later
// calls in the same frame do nothing.
func (b *base) prepare() {
	if b.prepared {
		return
	}
	b.prepared = true

	if err := b.scene.Sync(); err != nil {
		if ok, suppressed := b.syncWarn.Allow(); ok {
			logger.Logger().Warn("scene upload failed, drawing previous data", "algorithm", b.kind.String(), "error", err, "suppressed", suppressed)
		}
	}
	b.scene.Bind()
	b.uniforms.Bind()
	b.writeUniforms()
}

// writeUniforms maps the uniform buffer and copies the variant's block into it. Corruption
// is logged and the frame renders with the recreated, zeroed buffer.
func (b *base) writeUniforms() {
	if b.hooks.uniforms == nil {
		return
	}
	data := b.hooks.uniforms()
	err := b.uniforms.MapWrite(uniformsLabel, func(dst []byte) {
		copy(dst, data)
	})
	if err != nil {
		if ok, suppressed := b.uniformWarn.Allow(); ok {
			logger.Logger().Warn("uniform upload failed", "algorithm", b.kind.String(), "error", err, "suppressed", suppressed)
		}
	}
}

func (b *base) drawScene() {
	b.scene.Draw()
}

func (b *base) resize(res common.Resolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: resolution %s", ErrIncompleteContext, res)
	}
	if res == b.res {
		return nil
	}
	b.res = res
	if b.hooks.resize == nil {
		return nil
	}
	return b.hooks.resize(res)
}

func (b *base) SetSamples(n int) error {
	if err := ValidateSamples(n); err != nil {
		return err
	}
	if n == b.samples {
		return nil
	}
	b.samples = n
	logger.Logger().Info("MSAA sample count changed", "algorithm", b.kind.String(), "samples", n)
	if b.hooks.samples == nil {
		return nil
	}
	return b.hooks.samples()
}

// Release frees the variant resources, the shared buffers and every pass.
func (b *base) Release() {
	if b.hooks.release != nil {
		b.hooks.release()
	}
	if b.scene != nil {
		b.scene.Release()
		b.scene = nil
	}
	b.uniforms.Release()
	b.Pipeline.Release()
}

// restoreDepth copies the depth of src into the default framebuffer so later overlays are
// depth tested against the scene.
func (b *base) restoreDepth(src device.Framebuffer) {
	d := b.ctx.Device
	d.BlitDepth(src, nil)
	d.BindFramebuffer(nil)
}
