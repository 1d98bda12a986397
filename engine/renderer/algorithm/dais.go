package algorithm

import (
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/worklist"
)

const derivativesLabel = "dais.derivatives"

// dais is deferred attribute interpolation shading. The geometry pass writes only a
// triangle address per pixel and registers every visible triangle once in a hash table,
// which appends it to a work-list. A compute pass then derives the attribute gradients of
// each listed triangle and the shading pass interpolates attributes per pixel from them.
type dais struct {
	*base

	restoreDepthOpt *bool

	table       *hashtable.Table
	list        *worklist.List
	derivatives binding.Provider

	target    *renderTarget
	address   device.Texture
	addressMS device.Texture

	lastStats worklist.Stats
	resetWarn *logger.Throttle
}

var (
	_ HashCapacitySetter = &dais{}
	_ WorkListReporter   = &dais{}
)

func newDAIS(ctx Context) *dais {
	r := &dais{resetWarn: logger.NewThrottle(5 * time.Second)}
	var u DAISUniforms
	r.base = newBase(DeferredAttributeInterpolation, ctx, "DAIS_UNIFORMS", DAISUniformsBinding, u.Size())
	r.hooks = hooks{
		setup:    r.setup,
		resize:   func(common.Resolution) error { return r.createTarget() },
		samples:  r.createTarget,
		release:  r.release,
		uniforms: r.uniformData,
	}
	r.restoreDepthOpt = r.DeclareOption("Restore Depth", true)

	r.AddPass("Reset buffers",
		pass.WithRender(r.resetBuffers),
	)
	r.AddPass("Depth Prepass",
		pass.WithShader("01_dais_depth_prepass"),
		pass.WithRender(r.renderDepthPrepass),
	)
	r.AddPass("Geometry Pass",
		pass.WithShader("02_dais_geometry_pass"),
		pass.WithRender(r.renderGeometry),
	)
	r.AddPass("Partial Derivatives Compute Pass",
		pass.WithShader("03_dais_compute_pass"),
		pass.WithRender(r.computeDerivatives),
	)
	r.AddPass("Shading Pass",
		pass.WithShader("04_dais_shading_pass"),
		pass.WithRender(r.renderShading),
	)
	r.AddPass("Restore Z-Buffer",
		pass.WithCondition(r.restoreDepthOpt),
		pass.WithRender(func() { r.restoreDepth(r.target.fb) }),
	)
	return r
}

// listCapacity is the work-list size: every triangle of the scene, bounded by the table
// since each listed triangle owns a bucket.
func (r *dais) listCapacity() uint32 {
	n := min(uint32(r.ctx.Scene.TriangleCount()), r.table.Capacity())
	return max(n, 1)
}

func (r *dais) setup() error {
	table, err := hashtable.NewTable(r.ctx.Device, r.ctx.HashCapacity)
	if err != nil {
		return err
	}
	r.table = table

	capacity := r.listCapacity()
	list, err := worklist.NewList(r.ctx.Device, capacity)
	if err != nil {
		return err
	}
	r.list = list

	r.derivatives = binding.NewProvider("dais", r.ctx.Device,
		binding.WithStorageBuffer(derivativesLabel, DerivativesBinding, int(capacity)*DerivativeBytesPerItem),
	)
	if err := r.derivatives.Init(); err != nil {
		return err
	}
	return r.createTarget()
}

// growList makes the work-list and the derivative buffer hold listCapacity items. Neither
// ever shrinks.
func (r *dais) growList() error {
	capacity := r.listCapacity()
	if capacity <= r.list.Capacity() {
		return nil
	}
	if err := r.list.EnsureCapacity(capacity); err != nil {
		return err
	}
	return r.derivatives.Resize(derivativesLabel, int(capacity)*DerivativeBytesPerItem)
}

// createTarget (re)allocates the triangle address framebuffer. The address texture that is
// not attached is a 1x1 placeholder so both sampler units always have a texture bound.
func (r *dais) createTarget() error {
	d := r.ctx.Device
	attached := attachment{name: "address", format: device.FormatR32UI}
	placeholder := device.TextureDescriptor{Label: "dais.address", Resolution: common.Resolution{Width: 1, Height: 1}, Format: device.FormatR32UI}
	if r.samples > 0 {
		attached.name = "address_ms"
	} else {
		placeholder.Label = "dais.address_ms"
		placeholder.Samples = 1
	}

	t, err := newRenderTarget(d, "dais", r.res, r.samples, attached, attachment{name: "depth", format: device.FormatDepth32F})
	if err != nil {
		return fmt.Errorf("create triangle address target: %w", err)
	}
	other, err := d.CreateTexture(placeholder)
	if err != nil {
		t.release()
		return fmt.Errorf("create triangle address target: %w", err)
	}

	r.releaseTarget()
	r.target = t
	if r.samples > 0 {
		r.address, r.addressMS = other, t.color[0]
	} else {
		r.address, r.addressMS = t.color[0], other
	}
	logger.Logger().Debug("triangle address target created", "resolution", r.res.String(), "samples", r.samples)
	return nil
}

// releaseTarget frees the framebuffer and the placeholder address texture.
func (r *dais) releaseTarget() {
	if r.target == nil {
		return
	}
	owned := r.target.color[0]
	for _, tex := range []device.Texture{r.address, r.addressMS} {
		if tex != nil && tex != owned {
			tex.Release()
		}
	}
	r.target.release()
	r.target, r.address, r.addressMS = nil, nil, nil
}

func (r *dais) release() {
	r.releaseTarget()
	if r.derivatives != nil {
		r.derivatives.Release()
	}
	if r.list != nil {
		r.list.Release()
	}
	if r.table != nil {
		r.table.Release()
	}
}

func (r *dais) HashCapacity() uint32 {
	if r.table == nil {
		return r.ctx.HashCapacity
	}
	return r.table.Capacity()
}

// SetHashCapacity resizes the hash table and grows the work-list to match. Before Setup it
// only records the capacity.
func (r *dais) SetHashCapacity(capacity uint32) error {
	if err := hashtable.ValidateCapacity(capacity); err != nil {
		return err
	}
	r.ctx.HashCapacity = capacity
	if r.table == nil {
		return nil
	}
	if err := r.table.Resize(capacity); err != nil {
		return err
	}
	return r.growList()
}

func (r *dais) LastWorkList() worklist.Stats {
	return r.lastStats
}

func (r *dais) uniformData() []byte {
	cam := r.ctx.Camera
	proj := cam.Projection()
	u := DAISUniforms{
		Camera:                cameraUniforms(cam),
		MVPInverse:            cam.InverseViewProjection(),
		Viewport:              viewport(r.res),
		BitwiseModHashSize:    r.table.Mask(),
		NumTrianglesPerSphere: uint32(r.ctx.Scene.TrianglesPerSphere()),
		Projection32:          proj[14],
		Projection22:          proj[10],
		NumSamples:            uint32(r.samples),
	}
	return u.Marshal()
}

// resetBuffers empties the hash table and the work-list and uploads the uniforms. A
// corrupted work-list header is recreated and the frame goes on.
func (r *dais) resetBuffers() {
	if err := r.growList(); err != nil {
		if ok, suppressed := r.resetWarn.Allow(); ok {
			logger.Logger().Warn("work-list resize failed", "error", err, "suppressed", suppressed)
		}
	}
	r.prepare()
	r.table.Reset()
	r.table.Bind()
	if err := r.list.Reset(); err != nil {
		if ok, suppressed := r.resetWarn.Allow(); ok {
			logger.Logger().Warn("work-list reset failed, counter recreated", "error", err, "suppressed", suppressed)
		}
	}
	r.list.Bind()
	r.derivatives.Bind()
}

func (r *dais) renderDepthPrepass() {
	r.prepare()
	d := r.ctx.Device
	d.BindFramebuffer(r.target.fb)
	d.Viewport(r.res)
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
	d.Clear(device.ClearDepth)
	r.drawScene()
}

// renderGeometry redraws the scene with an equal depth test, so only the visible triangle of
// each pixel writes its address and registers itself. The address attachment clears to all
// ones, the empty marker.
func (r *dais) renderGeometry() {
	r.prepare()
	d := r.ctx.Device
	d.SetDepthState(device.DepthState{Test: true, Write: false, Func: device.DepthEqual})
	d.Clear(device.ClearColor)
	r.drawScene()
	d.MemoryBarrier(device.BarrierStorage | device.BarrierAtomicCounter)
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
	d.BindFramebuffer(nil)
}

// computeDerivatives reads the number of listed triangles and dispatches one invocation per
// triangle. Nothing is dispatched for an empty list or an unreadable counter.
func (r *dais) computeDerivatives() {
	stats, err := r.list.ReadStats()
	r.lastStats = stats
	if err != nil {
		if errors.Is(err, device.ErrBufferCorrupted) {
			logger.Logger().Warn("work-list counter corrupted, skipping derivatives", "error", err)
		} else {
			logger.Logger().Error("work-list counter unreadable", "error", err)
		}
		return
	}
	if stats.Count == 0 {
		return
	}
	d := r.ctx.Device
	d.Dispatch(worklist.DispatchSize(stats.Count, 1), 1, 1)
	d.MemoryBarrier(device.BarrierStorage)
}

func (r *dais) renderShading() {
	r.prepare()
	d := r.ctx.Device
	d.BindFramebuffer(nil)
	d.SetDepthState(device.DepthState{Test: false, Write: true, Func: device.DepthLess})
	d.Clear(device.ClearColor)
	d.BindTexture(TriangleAddressUnit, r.address)
	d.BindTexture(TriangleAddressMSUnit, r.addressMS)
	d.DrawFullscreenTriangle()
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
}
