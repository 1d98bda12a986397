package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/go-gl/gl/v4.6-core/gl"
)

type program struct {
	handle   uint32
	label    string
	stages   []device.ShaderStage
	released bool
}

func (p *program) Label() string                { return p.label }
func (p *program) Stages() []device.ShaderStage { return p.stages }

func (p *program) Release() {
	if p.released {
		return
	}
	p.released = true
	gl.DeleteProgram(p.handle)
}

func shaderType(s device.ShaderStage) uint32 {
	switch s {
	case device.StageGeometry:
		return gl.GEOMETRY_SHADER
	case device.StageFragment:
		return gl.FRAGMENT_SHADER
	case device.StageCompute:
		return gl.COMPUTE_SHADER
	}
	return gl.VERTEX_SHADER
}

func compileStage(src device.ShaderSource) (uint32, error) {
	handle := gl.CreateShader(shaderType(src.Stage))
	csrc, free := gl.Strs(src.Source + "\x00")
	gl.ShaderSource(handle, 1, csrc, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &n)
		msg := strings.Repeat("\x00", int(n+1))
		gl.GetShaderInfoLog(handle, n, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("%w: %s: %s", device.ErrCompile, src.Name, strings.TrimRight(msg, "\x00"))
	}
	return handle, nil
}

func (d *Device) CreateProgram(label string, sources []device.ShaderSource) (device.Program, error) {
	handle := gl.CreateProgram()
	shaders := make([]uint32, 0, len(sources))
	defer func() {
		for _, sh := range shaders {
			gl.DetachShader(handle, sh)
			gl.DeleteShader(sh)
		}
	}()

	p := &program{handle: handle, label: label}
	for _, src := range sources {
		sh, err := compileStage(src)
		if err != nil {
			gl.DeleteProgram(handle)
			return nil, err
		}
		gl.AttachShader(handle, sh)
		shaders = append(shaders, sh)
		p.stages = append(p.stages, src.Stage)
	}
	gl.LinkProgram(handle)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &n)
		msg := strings.Repeat("\x00", int(n+1))
		gl.GetProgramInfoLog(handle, n, nil, gl.Str(msg))
		gl.DeleteProgram(handle)
		return nil, fmt.Errorf("%w: %s: %s", device.ErrLink, label, strings.TrimRight(msg, "\x00"))
	}
	setLabel(gl.PROGRAM, handle, label)
	return p, nil
}

type buffer struct {
	handle   uint32
	label    string
	size     int
	mapped   bool
	released bool
}

// CreateBuffer allocates immutable storage that can be updated, cleared and mapped.
func (d *Device) CreateBuffer(label string, size int, _ device.BufferUsage) (device.Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("opengl: buffer %s: invalid size %d", label, size)
	}
	size = common.DivCeil(size, 4) * 4
	b := &buffer{label: label, size: size}
	gl.CreateBuffers(1, &b.handle)
	gl.NamedBufferStorage(b.handle, size, nil, gl.DYNAMIC_STORAGE_BIT|gl.MAP_READ_BIT|gl.MAP_WRITE_BIT)
	var zero uint32
	gl.ClearNamedBufferData(b.handle, gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, unsafe.Pointer(&zero))
	setLabel(gl.BUFFER, b.handle, label)
	return b, nil
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int     { return b.size }

func (b *buffer) Write(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("%w: %s [%d, %d) of %d", device.ErrOutOfRange, b.label, offset, offset+len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	gl.NamedBufferSubData(b.handle, offset, len(data), gl.Ptr(data))
	return nil
}

func (b *buffer) Fill(value uint32) {
	gl.ClearNamedBufferData(b.handle, gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, unsafe.Pointer(&value))
}

func (b *buffer) Map(access device.MapAccess) ([]byte, error) {
	if b.mapped {
		return nil, fmt.Errorf("%w: %s", device.ErrAlreadyMapped, b.label)
	}
	var bits uint32
	switch access {
	case device.MapRead:
		bits = gl.MAP_READ_BIT
	case device.MapWrite:
		bits = gl.MAP_WRITE_BIT
	default:
		bits = gl.MAP_READ_BIT | gl.MAP_WRITE_BIT
	}
	ptr := gl.MapNamedBufferRange(b.handle, 0, b.size, bits)
	if ptr == nil {
		return nil, fmt.Errorf("opengl: map %s failed", b.label)
	}
	b.mapped = true
	return unsafe.Slice((*byte)(ptr), b.size), nil
}

// Unmap reports ErrBufferCorrupted when the driver says the data store was lost, which
// happens on mode switches and screen savers.
func (b *buffer) Unmap() error {
	if !b.mapped {
		return fmt.Errorf("%w: %s", device.ErrNotMapped, b.label)
	}
	b.mapped = false
	if !gl.UnmapNamedBuffer(b.handle) {
		return fmt.Errorf("%w: %s", device.ErrBufferCorrupted, b.label)
	}
	return nil
}

func (b *buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	gl.DeleteBuffers(1, &b.handle)
}

type texture struct {
	handle   uint32
	desc     device.TextureDescriptor
	released bool
}

func (d *Device) CreateTexture(desc device.TextureDescriptor) (device.Texture, error) {
	if !desc.Resolution.Valid() {
		return nil, fmt.Errorf("opengl: texture %s: invalid resolution %s", desc.Label, desc.Resolution)
	}
	t := &texture{desc: desc}
	w, h := int32(desc.Resolution.Width), int32(desc.Resolution.Height)
	if desc.Samples > 0 {
		gl.CreateTextures(gl.TEXTURE_2D_MULTISAMPLE, 1, &t.handle)
		gl.TextureStorage2DMultisample(t.handle, int32(desc.Samples), textureFormat(desc.Format), w, h, true)
	} else {
		gl.CreateTextures(gl.TEXTURE_2D, 1, &t.handle)
		gl.TextureStorage2D(t.handle, 1, textureFormat(desc.Format), w, h)
		gl.TextureParameteri(t.handle, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TextureParameteri(t.handle, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TextureParameteri(t.handle, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TextureParameteri(t.handle, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	setLabel(gl.TEXTURE, t.handle, desc.Label)
	return t, nil
}

func (t *texture) Label() string                        { return t.desc.Label }
func (t *texture) Descriptor() device.TextureDescriptor { return t.desc }

func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	gl.DeleteTextures(1, &t.handle)
}

type framebuffer struct {
	handle   uint32
	label    string
	res      common.Resolution
	samples  int
	color    []device.Texture
	depth    device.Texture
	released bool
}

func (d *Device) CreateFramebuffer(desc device.FramebufferDescriptor) (device.Framebuffer, error) {
	if len(desc.Color) == 0 && desc.Depth == nil {
		return nil, fmt.Errorf("%w: %s has no attachments", device.ErrIncompleteFramebuffer, desc.Label)
	}
	fb := &framebuffer{label: desc.Label, color: desc.Color, depth: desc.Depth}
	gl.CreateFramebuffers(1, &fb.handle)

	first := desc.Depth
	if len(desc.Color) > 0 {
		first = desc.Color[0]
	}
	fb.res = first.Descriptor().Resolution
	fb.samples = first.Descriptor().Samples

	drawBuffers := make([]uint32, len(desc.Color))
	for i, tex := range desc.Color {
		attach := uint32(gl.COLOR_ATTACHMENT0 + i)
		gl.NamedFramebufferTexture(fb.handle, attach, tex.(*texture).handle, 0)
		drawBuffers[i] = attach
	}
	if len(drawBuffers) > 0 {
		gl.NamedFramebufferDrawBuffers(fb.handle, int32(len(drawBuffers)), &drawBuffers[0])
	} else {
		gl.NamedFramebufferDrawBuffer(fb.handle, gl.NONE)
	}
	if desc.Depth != nil {
		gl.NamedFramebufferTexture(fb.handle, gl.DEPTH_ATTACHMENT, desc.Depth.(*texture).handle, 0)
	}

	if status := gl.CheckNamedFramebufferStatus(fb.handle, gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fb.handle)
		return nil, fmt.Errorf("%w: %s status 0x%x", device.ErrIncompleteFramebuffer, desc.Label, status)
	}
	setLabel(gl.FRAMEBUFFER, fb.handle, desc.Label)
	return fb, nil
}

func (f *framebuffer) Label() string                      { return f.label }
func (f *framebuffer) Resolution() common.Resolution      { return f.res }
func (f *framebuffer) Samples() int                       { return f.samples }
func (f *framebuffer) ColorAttachments() []device.Texture { return f.color }
func (f *framebuffer) DepthAttachment() device.Texture    { return f.depth }

func (f *framebuffer) Release() {
	if f.released {
		return
	}
	f.released = true
	gl.DeleteFramebuffers(1, &f.handle)
}

type mesh struct {
	vao, vbo    uint32
	label       string
	vertexCount int
	released    bool
}

// CreateMesh uploads interleaved position and normal vertices to attributes 0 and 1.
func (d *Device) CreateMesh(label string, vertices []float32) (device.Mesh, error) {
	const floats = 6
	if len(vertices) == 0 || len(vertices)%floats != 0 {
		return nil, fmt.Errorf("opengl: mesh %s: %d floats is not a whole number of vertices", label, len(vertices))
	}
	m := &mesh{label: label, vertexCount: len(vertices) / floats}
	gl.CreateBuffers(1, &m.vbo)
	gl.NamedBufferStorage(m.vbo, len(vertices)*4, gl.Ptr(vertices), 0)

	gl.CreateVertexArrays(1, &m.vao)
	gl.VertexArrayVertexBuffer(m.vao, 0, m.vbo, 0, floats*4)
	gl.EnableVertexArrayAttrib(m.vao, 0)
	gl.VertexArrayAttribFormat(m.vao, 0, 3, gl.FLOAT, false, 0)
	gl.VertexArrayAttribBinding(m.vao, 0, 0)
	gl.EnableVertexArrayAttrib(m.vao, 1)
	gl.VertexArrayAttribFormat(m.vao, 1, 3, gl.FLOAT, false, 3*4)
	gl.VertexArrayAttribBinding(m.vao, 1, 0)
	setLabel(gl.VERTEX_ARRAY, m.vao, label)
	return m, nil
}

func (m *mesh) Label() string    { return m.label }
func (m *mesh) VertexCount() int { return m.vertexCount }

func (m *mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
}

// timerQuery brackets the measured commands with two timestamps, so queries can nest: a
// pipeline timer encloses its pass timers, which GL_TIME_ELAPSED would not allow.
type timerQuery struct {
	ids      [2]uint32
	released bool
}

func (d *Device) CreateTimerQuery() (device.TimerQuery, error) {
	q := &timerQuery{}
	gl.GenQueries(2, &q.ids[0])
	return q, nil
}

func (q *timerQuery) Begin() { gl.QueryCounter(q.ids[0], gl.TIMESTAMP) }
func (q *timerQuery) End()   { gl.QueryCounter(q.ids[1], gl.TIMESTAMP) }

func (q *timerQuery) Result() uint64 {
	var begin, end uint64
	gl.GetQueryObjectui64v(q.ids[0], gl.QUERY_RESULT, &begin)
	gl.GetQueryObjectui64v(q.ids[1], gl.QUERY_RESULT, &end)
	if end < begin {
		return 0
	}
	return end - begin
}

func (q *timerQuery) Release() {
	if q.released {
		return
	}
	q.released = true
	gl.DeleteQueries(2, &q.ids[0])
}

type counterQuery struct {
	id       uint32
	kind     device.CounterKind
	target   uint32
	released bool
}

func (d *Device) CreateCounterQuery(kind device.CounterKind) (device.CounterQuery, error) {
	q := &counterQuery{kind: kind, target: gl.VERTICES_SUBMITTED}
	if kind == device.CounterFragmentInvocations {
		q.target = gl.FRAGMENT_SHADER_INVOCATIONS
	}
	gl.GenQueries(1, &q.id)
	return q, nil
}

func (q *counterQuery) Kind() device.CounterKind { return q.kind }
func (q *counterQuery) Begin()                   { gl.BeginQuery(q.target, q.id) }
func (q *counterQuery) End()                     { gl.EndQuery(q.target) }

func (q *counterQuery) Result() uint64 {
	var v uint64
	gl.GetQueryObjectui64v(q.id, gl.QUERY_RESULT, &v)
	return v
}

func (q *counterQuery) Release() {
	if q.released {
		return
	}
	q.released = true
	gl.DeleteQueries(1, &q.id)
}
