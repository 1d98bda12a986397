package soft

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// corruptWord is written over a buffer whose unmap was made to fail.
const corruptWord = 0xDEADBEEF

var localSizeRe = regexp.MustCompile(`local_size_x\s*=\s*(\d+)`)

type program struct {
	d         *Device
	label     string
	stages    []device.ShaderStage
	sources   []device.ShaderSource
	localSize uint32
	released  bool
}

func (p *program) Label() string                  { return p.label }
func (p *program) Stages() []device.ShaderStage   { return p.stages }
func (p *program) Sources() []device.ShaderSource { return p.sources }

func (p *program) Release() {
	if p.released {
		return
	}
	p.released = true
	p.d.live--
}

// CreateProgram "compiles" sources by checking stage combinations and that every stage
// declares a main function. A compute source may declare local_size_x.
func (d *Device) CreateProgram(label string, sources []device.ShaderSource) (device.Program, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s: no stages", device.ErrLink, label)
	}
	p := &program{d: d, label: label, localSize: 1, sources: sources}
	for _, src := range sources {
		if !strings.Contains(src.Source, "void main") {
			return nil, fmt.Errorf("%w: %s: missing entry point", device.ErrCompile, src.Name)
		}
		if slices.Contains(p.stages, src.Stage) {
			return nil, fmt.Errorf("%w: %s: duplicate %s stage", device.ErrLink, label, src.Stage)
		}
		p.stages = append(p.stages, src.Stage)
		if src.Stage == device.StageCompute {
			if m := localSizeRe.FindStringSubmatch(src.Source); m != nil {
				n, _ := strconv.ParseUint(m[1], 10, 32)
				p.localSize = uint32(max(n, 1))
			}
		}
	}
	hasCompute := slices.Contains(p.stages, device.StageCompute)
	switch {
	case hasCompute && len(p.stages) > 1:
		return nil, fmt.Errorf("%w: %s: compute stage cannot be linked with graphics stages", device.ErrLink, label)
	case !hasCompute && (!slices.Contains(p.stages, device.StageVertex) || !slices.Contains(p.stages, device.StageFragment)):
		return nil, fmt.Errorf("%w: %s: graphics program needs vertex and fragment stages", device.ErrLink, label)
	}
	d.live++
	d.record("CreateProgram %s", label)
	return p, nil
}

type buffer struct {
	d        *Device
	label    string
	size     int
	words    []uint32
	mapped   bool
	released bool
}

// Words exposes the backing words of a soft buffer for inspection in tests. It returns nil
// for buffers created by another device implementation.
func Words(b device.Buffer) []uint32 {
	sb, ok := b.(*buffer)
	if !ok {
		return nil
	}
	return sb.words
}

func (d *Device) CreateBuffer(label string, size int, _ device.BufferUsage) (device.Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("soft: buffer %s: invalid size %d", label, size)
	}
	words := common.DivCeil(size, 4)
	d.live++
	d.record("CreateBuffer %s %d", label, words*4)
	return &buffer{d: d, label: label, size: words * 4, words: make([]uint32, words)}, nil
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int     { return b.size }

func (b *buffer) Write(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("%w: %s: write [%d, %d) of %d", device.ErrOutOfRange, b.label, offset, offset+len(data), b.size)
	}
	copy(common.SliceToBytes(b.words)[offset:], data)
	return nil
}

func (b *buffer) Fill(value uint32) {
	for i := range b.words {
		b.words[i] = value
	}
	b.d.record("Fill %s %#x", b.label, value)
}

func (b *buffer) Map(_ device.MapAccess) ([]byte, error) {
	if b.mapped {
		return nil, fmt.Errorf("%w: %s", device.ErrAlreadyMapped, b.label)
	}
	b.mapped = true
	return common.SliceToBytes(b.words)[:b.size], nil
}

func (b *buffer) Unmap() error {
	if !b.mapped {
		return fmt.Errorf("%w: %s", device.ErrNotMapped, b.label)
	}
	b.mapped = false
	if b.d.consumeUnmapFailure(b.label) {
		for i := range b.words {
			b.words[i] = corruptWord
		}
		return fmt.Errorf("%w: %s", device.ErrBufferCorrupted, b.label)
	}
	return nil
}

func (b *buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.d.live--
	b.d.record("ReleaseBuffer %s", b.label)
}

type texture struct {
	d        *Device
	desc     device.TextureDescriptor
	released bool
}

func (d *Device) CreateTexture(desc device.TextureDescriptor) (device.Texture, error) {
	if !desc.Resolution.Valid() {
		return nil, fmt.Errorf("soft: texture %s: invalid resolution %s", desc.Label, desc.Resolution)
	}
	d.live++
	d.record("CreateTexture %s %s samples=%d", desc.Label, desc.Resolution, desc.Samples)
	return &texture{d: d, desc: desc}, nil
}

func (t *texture) Label() string                        { return t.desc.Label }
func (t *texture) Descriptor() device.TextureDescriptor { return t.desc }

func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.d.live--
}

type framebuffer struct {
	d        *Device
	label    string
	res      common.Resolution
	samples  int
	color    []device.Texture
	depth    device.Texture
	released bool
}

func (d *Device) CreateFramebuffer(desc device.FramebufferDescriptor) (device.Framebuffer, error) {
	all := slices.Clone(desc.Color)
	if desc.Depth != nil {
		if !desc.Depth.Descriptor().Format.IsDepth() {
			return nil, fmt.Errorf("%w: %s: depth attachment has colour format", device.ErrIncompleteFramebuffer, desc.Label)
		}
		all = append(all, desc.Depth)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s: no attachments", device.ErrIncompleteFramebuffer, desc.Label)
	}
	first := all[0].Descriptor()
	for _, t := range all[1:] {
		td := t.Descriptor()
		if td.Resolution != first.Resolution || td.Samples != first.Samples {
			return nil, fmt.Errorf("%w: %s: attachment %s does not match %s", device.ErrIncompleteFramebuffer, desc.Label, td.Label, first.Label)
		}
	}
	d.live++
	d.record("CreateFramebuffer %s", desc.Label)
	return &framebuffer{d: d, label: desc.Label, res: first.Resolution, samples: first.Samples, color: desc.Color, depth: desc.Depth}, nil
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
	f.d.live--
}

type mesh struct {
	d           *Device
	label       string
	vertexCount int
	released    bool
}

func (d *Device) CreateMesh(label string, vertices []float32) (device.Mesh, error) {
	if len(vertices)%6 != 0 {
		return nil, fmt.Errorf("soft: mesh %s: %d floats is not a whole number of vertices", label, len(vertices))
	}
	d.live++
	return &mesh{d: d, label: label, vertexCount: len(vertices) / 6}, nil
}

func (m *mesh) Label() string    { return m.label }
func (m *mesh) VertexCount() int { return m.vertexCount }

func (m *mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	m.d.live--
}

type timerQuery struct {
	d          *Device
	begin, end uint64
	released   bool
}

func (d *Device) CreateTimerQuery() (device.TimerQuery, error) {
	d.live++
	return &timerQuery{d: d}, nil
}

func (q *timerQuery) Begin() { q.begin = q.d.clock() }
func (q *timerQuery) End()   { q.end = q.d.clock() }

func (q *timerQuery) Result() uint64 {
	if q.end < q.begin {
		return 0
	}
	return q.end - q.begin
}

func (q *timerQuery) Release() {
	if q.released {
		return
	}
	q.released = true
	q.d.live--
}

type counterQuery struct {
	d        *Device
	kind     device.CounterKind
	value    uint64
	released bool
}

func (d *Device) CreateCounterQuery(kind device.CounterKind) (device.CounterQuery, error) {
	d.live++
	return &counterQuery{d: d, kind: kind}, nil
}

func (q *counterQuery) Kind() device.CounterKind { return q.kind }

func (q *counterQuery) Begin() {
	q.value = 0
	q.d.counters = append(q.d.counters, q)
}

func (q *counterQuery) End() {
	q.d.counters = slices.DeleteFunc(q.d.counters, func(c *counterQuery) bool { return c == q })
}

func (q *counterQuery) Result() uint64 { return q.value }

func (q *counterQuery) Release() {
	if q.released {
		return
	}
	q.released = true
	q.d.live--
}
