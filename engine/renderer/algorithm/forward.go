package algorithm

import (
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pass"
)

// forward shades every fragment as it is rasterised, looping over all lights.
type forward struct {
	*base
	wireModel *bool
}

func newForward(ctx Context) *forward {
	f := &forward{}
	var u ForwardUniforms
	f.base = newBase(Forward, ctx, "FORWARD_UNIFORMS", ForwardUniformsBinding, u.Size())
	f.wireModel = f.DeclareOption("Wire Model", false)
	f.hooks.uniforms = f.uniformData

	f.AddPass("Forward Shading",
		pass.WithShader("forward_shading"),
		pass.WithRender(f.renderForward),
	)
	return f
}

func (f *forward) uniformData() []byte {
	u := ForwardUniforms{
		Camera:   cameraUniforms(f.ctx.Camera),
		Viewport: viewport(f.res),
	}
	return u.Marshal()
}

func (f *forward) renderForward() {
	f.prepare()
	d := f.ctx.Device
	d.BindFramebuffer(nil)
	d.Viewport(f.res)
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
	d.Clear(device.ClearColor | device.ClearDepth)
	f.drawScene()
}
