// Package opengl implements device.Device on an OpenGL 4.6 core context through go-gl. Every
// call must happen on the thread the context is current on.
package opengl

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// Device drives the current OpenGL context.
type Device struct {
	debugOutput bool

	emptyVAO uint32
	bound    *framebuffer
	depth    device.DepthState
	released bool
}

var _ device.Device = &Device{}

// NewDevice loads the GL function pointers for the current context and prepares the state
// shared by every draw.
//
// Parameters:
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - *Device: the device
//   - error: an error if the GL functions could not be loaded
func NewDevice(options ...DeviceBuilderOption) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl: init: %w", err)
	}
	d := &Device{}
	for _, option := range options {
		option(d)
	}

	logger.Logger().Info("OpenGL context",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	)
	if d.debugOutput {
		gl.Enable(gl.DEBUG_OUTPUT)
		gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
		gl.DebugMessageCallback(debugMessage, nil)
	}

	gl.CreateVertexArrays(1, &d.emptyVAO)
	d.SetDepthState(device.DepthState{Test: true, Write: true, Func: device.DepthLess})
	return d, nil
}

// debugMessage forwards KHR_debug output to the engine logger.
func debugMessage(source, gltype, id, severity uint32, _ int32, message string, _ unsafe.Pointer) {
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		logger.Logger().Error("GL", "id", id, "type", gltype, "message", message)
	case gl.DEBUG_SEVERITY_MEDIUM:
		logger.Logger().Warn("GL", "id", id, "type", gltype, "message", message)
	case gl.DEBUG_SEVERITY_LOW:
		logger.Logger().Debug("GL", "id", id, "type", gltype, "message", message)
	default:
		logger.Logger().Log(context.Background(), logger.LevelTrace, "GL", "id", id, "source", source, "message", message)
	}
}

func setLabel(identifier, name uint32, s string) {
	if s == "" {
		return
	}
	gl.ObjectLabel(identifier, name, int32(len(s)), gl.Str(s+"\x00"))
}

func (d *Device) UseProgram(p device.Program) {
	if p == nil {
		gl.UseProgram(0)
		return
	}
	gl.UseProgram(p.(*program).handle)
}

func (d *Device) BindBuffer(target device.BufferTarget, index uint32, b device.Buffer) {
	var handle uint32
	if b != nil {
		handle = b.(*buffer).handle
	}
	gl.BindBufferBase(bufferTarget(target), index, handle)
}

func (d *Device) BindFramebuffer(fb device.Framebuffer) {
	if fb == nil {
		d.bound = nil
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	d.bound = fb.(*framebuffer)
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.bound.handle)
}

func (d *Device) BindTexture(unit uint32, t device.Texture) {
	var handle uint32
	if t != nil {
		handle = t.(*texture).handle
	}
	gl.BindTextureUnit(unit, handle)
}

func (d *Device) Viewport(res common.Resolution) {
	gl.Viewport(0, 0, int32(res.Width), int32(res.Height))
}

// Clear clears the bound framebuffer. Integer colour attachments clear to all ones, which
// the triangle address pass reads as "no triangle"; float attachments clear to zero.
func (d *Device) Clear(flags device.ClearFlags) {
	if flags&device.ClearDepth != 0 {
		// glClear honours the depth mask.
		gl.DepthMask(true)
	}
	if d.bound == nil {
		var mask uint32
		if flags&device.ClearColor != 0 {
			mask |= gl.COLOR_BUFFER_BIT
		}
		if flags&device.ClearDepth != 0 {
			mask |= gl.DEPTH_BUFFER_BIT
		}
		gl.ClearColor(0, 0, 0, 1)
		gl.ClearDepth(1)
		gl.Clear(mask)
	} else {
		fb := d.bound
		if flags&device.ClearColor != 0 {
			for i, tex := range fb.color {
				if tex.Descriptor().Format == device.FormatR32UI {
					ones := [4]uint32{^uint32(0), ^uint32(0), ^uint32(0), ^uint32(0)}
					gl.ClearNamedFramebufferuiv(fb.handle, gl.COLOR, int32(i), &ones[0])
					continue
				}
				zero := [4]float32{}
				gl.ClearNamedFramebufferfv(fb.handle, gl.COLOR, int32(i), &zero[0])
			}
		}
		if flags&device.ClearDepth != 0 && fb.depth != nil {
			one := float32(1)
			gl.ClearNamedFramebufferfv(fb.handle, gl.DEPTH, 0, &one)
		}
	}
	gl.DepthMask(d.depth.Write)
}

func (d *Device) SetDepthState(state device.DepthState) {
	d.depth = state
	if state.Test {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(state.Write)
	gl.DepthFunc(depthFunc(state.Func))
}

func (d *Device) SetColorMask(enabled bool) {
	gl.ColorMask(enabled, enabled, enabled, enabled)
}

func (d *Device) DrawMesh(m device.Mesh, instances int) {
	if m == nil || instances <= 0 {
		return
	}
	mm := m.(*mesh)
	gl.BindVertexArray(mm.vao)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, int32(mm.vertexCount), int32(instances))
}

// DrawFullscreenTriangle draws three vertices with no attributes; the vertex shader derives
// the positions from gl_VertexID.
func (d *Device) DrawFullscreenTriangle() {
	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

func (d *Device) Dispatch(x, y, z uint32) {
	gl.DispatchCompute(x, y, z)
}

func (d *Device) MemoryBarrier(bits device.BarrierBits) {
	var mask uint32
	if bits&device.BarrierStorage != 0 {
		mask |= gl.SHADER_STORAGE_BARRIER_BIT
	}
	if bits&device.BarrierAtomicCounter != 0 {
		mask |= gl.ATOMIC_COUNTER_BARRIER_BIT
	}
	if bits&device.BarrierTextureFetch != 0 {
		mask |= gl.TEXTURE_FETCH_BARRIER_BIT
	}
	if bits&device.BarrierBufferUpdate != 0 {
		mask |= gl.BUFFER_UPDATE_BARRIER_BIT
	}
	if bits&device.BarrierCommand != 0 {
		mask |= gl.COMMAND_BARRIER_BIT
	}
	gl.MemoryBarrier(mask)
}

// BlitDepth copies the whole depth attachment of src into the same rectangle of dst.
func (d *Device) BlitDepth(src, dst device.Framebuffer) {
	if src == nil {
		return
	}
	var read, draw uint32
	read = src.(*framebuffer).handle
	if dst != nil {
		draw = dst.(*framebuffer).handle
	}
	res := src.Resolution()
	w, h := int32(res.Width), int32(res.Height)
	gl.BlitNamedFramebuffer(read, draw, 0, 0, w, h, 0, 0, w, h, gl.DEPTH_BUFFER_BIT, gl.NEAREST)
}

func (d *Device) Finish() {
	gl.Finish()
}

func (d *Device) Release() {
	if d.released {
		return
	}
	d.released = true
	gl.DeleteVertexArrays(1, &d.emptyVAO)
}

func bufferTarget(t device.BufferTarget) uint32 {
	switch t {
	case device.TargetUniform:
		return gl.UNIFORM_BUFFER
	case device.TargetAtomicCounter:
		return gl.ATOMIC_COUNTER_BUFFER
	}
	return gl.SHADER_STORAGE_BUFFER
}

func depthFunc(f device.DepthFunc) uint32 {
	switch f {
	case device.DepthLessEqual:
		return gl.LEQUAL
	case device.DepthEqual:
		return gl.EQUAL
	case device.DepthAlways:
		return gl.ALWAYS
	}
	return gl.LESS
}

func textureFormat(f device.TextureFormat) uint32 {
	switch f {
	case device.FormatRGBA16F:
		return gl.RGBA16F
	case device.FormatRGBA32F:
		return gl.RGBA32F
	case device.FormatRG16F:
		return gl.RG16F
	case device.FormatR32UI:
		return gl.R32UI
	case device.FormatDepth32F:
		return gl.DEPTH_COMPONENT32F
	}
	return gl.RGBA8
}
