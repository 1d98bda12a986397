// Package device defines the small graphics-device surface the shading pipelines are written
// against. Two implementations exist: device/opengl drives an OpenGL 4.6 core context and
// device/soft simulates the device on the CPU for tests and headless runs.
package device

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-shading/common"
)

var (
	// ErrBufferCorrupted is returned by Buffer.Unmap when the driver reports that the
	// contents of a mapped buffer were lost while it was mapped.
	ErrBufferCorrupted = errors.New("device: buffer contents corrupted while mapped")

	// ErrNotMapped is returned by Buffer.Unmap when the buffer is not currently mapped.
	ErrNotMapped = errors.New("device: buffer is not mapped")

	// ErrAlreadyMapped is returned by Buffer.Map when the buffer is already mapped.
	ErrAlreadyMapped = errors.New("device: buffer is already mapped")

	// ErrOutOfRange is returned by buffer writes that exceed the allocation.
	ErrOutOfRange = errors.New("device: range exceeds buffer size")

	// ErrCompile is wrapped by Device.CreateProgram for stage compile failures.
	ErrCompile = errors.New("device: shader compile failed")

	// ErrLink is wrapped by Device.CreateProgram for program link failures.
	ErrLink = errors.New("device: program link failed")

	// ErrIncompleteFramebuffer is returned when framebuffer attachments are not complete.
	ErrIncompleteFramebuffer = errors.New("device: framebuffer incomplete")
)

// Device is the command and resource surface used by passes. All methods must be called from
// the goroutine that owns the device (the render thread for the GL device).
type Device interface {
	// CreateProgram compiles and links the given stages into a program.
	//
	// Parameters:
	//   - label: debug label, usually the shader basename
	//   - sources: one entry per stage, already pre-processed
	//
	// Returns:
	//   - Program: the linked program
	//   - error: wrapping ErrCompile or ErrLink on failure
	CreateProgram(label string, sources []ShaderSource) (Program, error)

	// CreateBuffer allocates a zero-initialised GPU buffer of size bytes.
	//
	// Parameters:
	//   - label: debug label
	//   - size: size in bytes, rounded up to a multiple of 4
	//   - usage: how the buffer will be accessed
	//
	// Returns:
	//   - Buffer: the buffer
	//   - error: an error if allocation failed
	CreateBuffer(label string, size int, usage BufferUsage) (Buffer, error)

	// CreateTexture allocates a 2D (optionally multisampled) texture.
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateFramebuffer creates a framebuffer from already allocated textures.
	//
	// Returns:
	//   - Framebuffer: the framebuffer
	//   - error: wrapping ErrIncompleteFramebuffer if the attachments do not form a complete framebuffer
	CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error)

	// CreateMesh uploads interleaved position/normal vertices (6 floats per vertex).
	CreateMesh(label string, vertices []float32) (Mesh, error)

	// CreateTimerQuery creates a GPU elapsed-time query.
	CreateTimerQuery() (TimerQuery, error)

	// CreateCounterQuery creates a pipeline statistics query of the given kind.
	CreateCounterQuery(kind CounterKind) (CounterQuery, error)

	// UseProgram binds p for subsequent draws and dispatches.
	UseProgram(p Program)

	// BindBuffer binds b to the indexed binding point of target.
	BindBuffer(target BufferTarget, index uint32, b Buffer)

	// BindFramebuffer binds fb for drawing; nil selects the default framebuffer.
	BindFramebuffer(fb Framebuffer)

	// BindTexture binds t to a texture unit.
	BindTexture(unit uint32, t Texture)

	// Viewport sets the viewport rectangle origin to zero and size to res.
	Viewport(res common.Resolution)

	// Clear clears the buffers selected by flags of the bound framebuffer.
	Clear(flags ClearFlags)

	// SetDepthState configures depth testing, the comparison function and depth writes.
	SetDepthState(state DepthState)

	// SetColorMask enables or disables colour writes.
	SetColorMask(enabled bool)

	// DrawMesh draws instances copies of m as triangles.
	DrawMesh(m Mesh, instances int)

	// DrawFullscreenTriangle draws a single triangle covering the viewport.
	DrawFullscreenTriangle()

	// Dispatch launches x*y*z compute work groups with the bound program.
	Dispatch(x, y, z uint32)

	// MemoryBarrier orders shader writes before subsequent reads of the selected kinds.
	MemoryBarrier(bits BarrierBits)

	// BlitDepth copies the depth attachment of src into dst (nil = default framebuffer).
	BlitDepth(src, dst Framebuffer)

	// Finish blocks until every submitted command has completed.
	Finish()

	// Release frees device level resources.
	Release()
}

// Program is a linked shader program.
type Program interface {
	// Label returns the debug label given at creation.
	Label() string
	// Stages returns the stages the program was linked from.
	Stages() []ShaderStage
	// Release frees the program. Calling it more than once is a no-op.
	Release()
}

// Buffer is a linear GPU buffer addressed in bytes.
type Buffer interface {
	// Label returns the debug label given at creation.
	Label() string
	// Size returns the size in bytes.
	Size() int
	// Write copies data into the buffer at offset.
	Write(offset int, data []byte) error
	// Fill sets every 32-bit word of the buffer to value.
	Fill(value uint32)
	// Map maps the whole buffer for host access.
	Map(access MapAccess) ([]byte, error)
	// Unmap ends host access. It returns ErrBufferCorrupted when the contents were lost
	// while mapped; the buffer must then be considered undefined.
	Unmap() error
	// Release frees the buffer. Calling it more than once is a no-op.
	Release()
}

// Texture is a 2D texture or multisample texture.
type Texture interface {
	// Label returns the debug label given at creation.
	Label() string
	// Descriptor returns the creation parameters.
	Descriptor() TextureDescriptor
	// Release frees the texture. Calling it more than once is a no-op.
	Release()
}

// Framebuffer groups colour attachments and an optional depth attachment.
type Framebuffer interface {
	// Label returns the debug label given at creation.
	Label() string
	// Resolution returns the size shared by all attachments.
	Resolution() common.Resolution
	// Samples returns the MSAA sample count shared by all attachments (0 = single sampled).
	Samples() int
	// ColorAttachments returns the colour attachments in draw-buffer order.
	ColorAttachments() []Texture
	// DepthAttachment returns the depth attachment or nil.
	DepthAttachment() Texture
	// Release frees the framebuffer object. Attachments are owned by the caller.
	Release()
}

// Mesh is an uploaded triangle list.
type Mesh interface {
	// Label returns the debug label given at creation.
	Label() string
	// VertexCount returns the number of vertices.
	VertexCount() int
	// Release frees the mesh. Calling it more than once is a no-op.
	Release()
}

// TimerQuery measures GPU time between Begin and End. Queries may be nested.
type TimerQuery interface {
	Begin()
	End()
	// Result blocks until the measurement is available and returns it in nanoseconds.
	Result() uint64
	Release()
}

// CounterQuery counts pipeline statistics between Begin and End.
type CounterQuery interface {
	Kind() CounterKind
	Begin()
	End()
	// Result blocks until the count is available.
	Result() uint64
	Release()
}
