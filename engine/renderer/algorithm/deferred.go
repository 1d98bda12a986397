package algorithm

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pipeline"
)

const (
	tileCountsLabel = "tiled.light_counts"
	tileIDsLabel    = "tiled.light_ids"
)

// gbufferAttachments is the G-buffer layout. The colour attachments line up with texture
// units GBufferColorUnit, GBufferNormalUnit and GBufferPositionUnit.
var gbufferAttachments = []attachment{
	{name: "color", format: device.FormatRGBA8},
	{name: "normal", format: device.FormatRGBA32F},
	{name: "position", format: device.FormatRGBA32F},
	{name: "depth", format: device.FormatDepth32F},
}

// deferred rasterises the scene into a G-buffer and shades it in a fullscreen pass. The
// tiled flavour first culls light volumes against a low resolution depth buffer and writes
// a light list per screen tile, which the shading pass reads instead of looping over every
// light.
type deferred struct {
	*base
	tiled bool

	restoreDepthOpt *bool
	tiledShading    *bool

	gbuffer *renderTarget

	tileTarget *renderTarget
	tiles      common.Resolution
	tileBufs   binding.Provider

	debugLog *logger.Throttle
}

func newDeferred(ctx Context, tiled bool) *deferred {
	kind := Deferred
	if tiled {
		kind = TiledDeferred
	}
	r := &deferred{tiled: tiled, debugLog: logger.NewThrottle(time.Second)}
	var u DeferredUniforms
	r.base = newBase(kind, ctx, "DEFERRED_UNIFORMS", DeferredUniformsBinding, u.Size(),
		pipeline.WithShowDebug(tiled),
		pipeline.WithDebugHook(r.debug),
	)
	r.hooks = hooks{
		setup:    r.setup,
		defines:  r.defines,
		resize:   r.resizeTargets,
		samples:  r.changeSamples,
		release:  r.release,
		uniforms: r.uniformData,
	}
	r.restoreDepthOpt = r.DeclareOption("Restore Depth", true)

	if tiled {
		r.tiledShading = r.DeclareOption("Tiled Shading", true)
		r.AddPass("Clear Resources",
			pass.WithCondition(r.tiledShading),
			pass.WithRender(r.clearTileResources),
		)
		r.AddPass("Tiled PreDepth",
			pass.WithShader("tiled_pre_depth"),
			pass.WithCondition(r.tiledShading),
			pass.WithRender(r.renderTileDepth),
		)
		r.AddPass("Light Count",
			pass.WithShader("light_count"),
			pass.WithCondition(r.tiledShading),
			pass.WithRender(r.renderLightCount),
		)
	}
	r.AddPass("G-Buffer",
		pass.WithShader("gbuffer"),
		pass.WithRender(r.renderGBuffer),
	)
	r.AddPass("Deferred Shading",
		pass.WithShader("deferred_shading"),
		pass.WithRender(r.renderShading),
	)
	r.AddPass("Restore Z-Buffer",
		pass.WithCondition(r.restoreDepthOpt),
		pass.WithRender(func() { r.restoreDepth(r.gbuffer.fb) }),
	)
	return r
}

func (r *deferred) setup() error {
	if err := r.createGBuffer(); err != nil {
		return err
	}
	if !r.tiled {
		return nil
	}
	r.tiles = light.TileCounts(r.res)
	n := r.tiles.Pixels()
	r.tileBufs = binding.NewProvider("tiled", r.ctx.Device,
		binding.WithStorageBuffer(tileCountsLabel, TileLightCountBinding, n*4),
		binding.WithStorageBuffer(tileIDsLabel, TileLightIDsBinding, n*light.MaxLights*4),
	)
	if err := r.tileBufs.Init(); err != nil {
		return err
	}
	return r.createTileTarget()
}

// createGBuffer (re)allocates the G-buffer for the current resolution and sample count.
func (r *deferred) createGBuffer() error {
	gb, err := newRenderTarget(r.ctx.Device, "gbuffer", r.res, r.samples, gbufferAttachments...)
	if err != nil {
		return fmt.Errorf("create G-buffer: %w", err)
	}
	r.gbuffer.release()
	r.gbuffer = gb
	logger.Logger().Debug("G-buffer created", "resolution", r.res.String(), "samples", r.samples)
	return nil
}

// defines selects the multisample G-buffer samplers in the shading pass.
func (r *deferred) defines() []string {
	if r.samples > 0 {
		return []string{"MULTISAMPLE"}
	}
	return nil
}

// changeSamples recreates the G-buffer and, once compiled, the programs whose sampler
// types depend on it.
func (r *deferred) changeSamples() error {
	if err := r.createGBuffer(); err != nil {
		return err
	}
	if r.Initialized() && !r.Reset(true) {
		return fmt.Errorf("%w: %s", ErrRecompile, r.kind.Short())
	}
	return nil
}

func (r *deferred) createTileTarget() error {
	t, err := newRenderTarget(r.ctx.Device, "tiled.depth", r.tiles, 0, attachment{name: "depth", format: device.FormatDepth32F})
	if err != nil {
		return fmt.Errorf("create tile framebuffer: %w", err)
	}
	r.tileTarget.release()
	r.tileTarget = t
	return nil
}

func (r *deferred) resizeTargets(res common.Resolution) error {
	if err := r.createGBuffer(); err != nil {
		return err
	}
	if !r.tiled {
		return nil
	}
	tiles := light.TileCounts(res)
	if tiles != r.tiles {
		r.tiles = tiles
		n := tiles.Pixels()
		if err := r.tileBufs.Resize(tileCountsLabel, n*4); err != nil {
			return err
		}
		if err := r.tileBufs.Resize(tileIDsLabel, n*light.MaxLights*4); err != nil {
			return err
		}
	}
	return r.createTileTarget()
}

func (r *deferred) release() {
	r.gbuffer.release()
	r.gbuffer = nil
	r.tileTarget.release()
	r.tileTarget = nil
	if r.tileBufs != nil {
		r.tileBufs.Release()
	}
}

func (r *deferred) uniformData() []byte {
	u := DeferredUniforms{
		Camera:     cameraUniforms(r.ctx.Camera),
		MVPInverse: r.ctx.Camera.InverseViewProjection(),
		Viewport:   viewport(r.res),
		NumSamples: uint32(r.samples),
	}
	if r.tiled {
		u.TileSize = light.TileSize
		u.TileCountX = uint32(r.tiles.Width)
		u.TileCountY = uint32(r.tiles.Height)
	}
	return u.Marshal()
}

func (r *deferred) clearTileResources() {
	r.prepare()
	r.tileBufs.Bind()
	r.tileBufs.Buffer(tileCountsLabel).Fill(0)
}

func (r *deferred) renderTileDepth() {
	r.prepare()
	d := r.ctx.Device
	d.BindFramebuffer(r.tileTarget.fb)
	d.Viewport(r.tiles)
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
	d.Clear(device.ClearDepth)
	r.drawScene()
	d.Viewport(r.res)
	d.BindFramebuffer(nil)
}

// renderLightCount rasterises every light volume at tile resolution against the tile depth.
// Each fragment that passes appends the light to its tile's list.
func (r *deferred) renderLightCount() {
	r.prepare()
	d := r.ctx.Device
	d.BindFramebuffer(r.tileTarget.fb)
	d.Viewport(r.tiles)
	d.SetDepthState(device.DepthState{Test: true, Write: false, Func: device.DepthLess})
	r.scene.DrawLightVolumes()
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
	d.Viewport(r.res)
	d.BindFramebuffer(nil)
}

func (r *deferred) renderGBuffer() {
	r.prepare()
	d := r.ctx.Device
	d.BindFramebuffer(r.gbuffer.fb)
	d.Viewport(r.res)
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
	d.Clear(device.ClearColor | device.ClearDepth)
	r.drawScene()
	d.BindFramebuffer(nil)
}

func (r *deferred) renderShading() {
	r.prepare()
	d := r.ctx.Device
	d.BindFramebuffer(nil)
	d.Clear(device.ClearColor | device.ClearDepth)
	d.SetDepthState(device.DepthState{Test: false, Write: true, Func: device.DepthLess})
	for i, tex := range r.gbuffer.color {
		d.BindTexture(uint32(GBufferColorUnit+i), tex)
	}
	if r.tiled && *r.tiledShading {
		r.tileBufs.Bind()
	}
	d.DrawFullscreenTriangle()
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
}

// debug logs the offscreen targets, at most once a second.
func (r *deferred) debug() {
	ok, _ := r.debugLog.Allow()
	if !ok || r.gbuffer == nil {
		return
	}
	args := []any{"algorithm", r.kind.String(), "gbuffer", r.gbuffer.labels()}
	if r.tileTarget != nil {
		args = append(args, "tiles", r.tiles.String(), "tile_depth", r.tileTarget.labels())
	}
	logger.Logger().Debug("offscreen targets", args...)
}
