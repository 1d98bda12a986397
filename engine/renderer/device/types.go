package device

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shading/common"
)

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

const (
	// StageVertex is the vertex stage, file extension "vert".
	StageVertex ShaderStage = iota
	// StageGeometry is the geometry stage, file extension "geom".
	StageGeometry
	// StageFragment is the fragment stage, file extension "frag".
	StageFragment
	// StageCompute is the compute stage, file extension "comp".
	StageCompute
)

// Ext returns the file extension used for sources of this stage.
func (s ShaderStage) Ext() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageGeometry:
		return "geom"
	case StageFragment:
		return "frag"
	case StageCompute:
		return "comp"
	}
	return ""
}

func (s ShaderStage) String() string {
	if e := s.Ext(); e != "" {
		return e
	}
	return fmt.Sprintf("ShaderStage(%d)", int(s))
}

// ShaderSource is one pre-processed stage handed to Device.CreateProgram.
type ShaderSource struct {
	// Stage is the pipeline stage.
	Stage ShaderStage
	// Name is the file the source came from, used in error messages.
	Name string
	// Source is the GLSL text.
	Source string
}

// BufferUsage hints how a buffer is accessed.
type BufferUsage int

const (
	// UsageStorage buffers are read and written by shaders.
	UsageStorage BufferUsage = iota
	// UsageUniform buffers are written by the host and read by shaders.
	UsageUniform
	// UsageReadback buffers are written by shaders and read by the host.
	UsageReadback
)

// BufferTarget is an indexed binding target.
type BufferTarget int

const (
	// TargetStorage is the shader storage buffer binding target.
	TargetStorage BufferTarget = iota
	// TargetUniform is the uniform buffer binding target.
	TargetUniform
	// TargetAtomicCounter is the atomic counter buffer binding target.
	TargetAtomicCounter
)

// MapAccess selects host access for Buffer.Map.
type MapAccess int

const (
	MapRead MapAccess = iota
	MapWrite
	MapReadWrite
)

// TextureFormat is the internal storage format of a texture.
type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGBA16F
	FormatRGBA32F
	FormatRG16F
	FormatR32UI
	FormatDepth32F
)

// IsDepth reports whether f is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32F
}

// TextureDescriptor describes a texture allocation.
type TextureDescriptor struct {
	Label      string
	Resolution common.Resolution
	Format     TextureFormat
	// Samples is the MSAA sample count; 0 allocates a single sampled texture.
	Samples int
}

// FramebufferDescriptor lists the attachments of a framebuffer.
type FramebufferDescriptor struct {
	Label string
	Color []Texture
	Depth Texture
}

// ClearFlags selects which attachments Device.Clear touches.
type ClearFlags int

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
)

// DepthFunc is the depth comparison function.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
	DepthEqual
	DepthAlways
)

// DepthState configures depth testing.
type DepthState struct {
	Test  bool
	Write bool
	Func  DepthFunc
}

// BarrierBits selects the memory barrier scope.
type BarrierBits int

const (
	BarrierStorage BarrierBits = 1 << iota
	BarrierAtomicCounter
	BarrierTextureFetch
	BarrierBufferUpdate
	BarrierCommand

	BarrierAll = BarrierStorage | BarrierAtomicCounter | BarrierTextureFetch | BarrierBufferUpdate | BarrierCommand
)

// CounterKind is the pipeline statistic a CounterQuery records.
type CounterKind int

const (
	// CounterVertexInvocations counts vertices submitted.
	CounterVertexInvocations CounterKind = iota
	// CounterFragmentInvocations counts fragment shader invocations.
	CounterFragmentInvocations
)

func (k CounterKind) String() string {
	switch k {
	case CounterVertexInvocations:
		return "vertex invocations"
	case CounterFragmentInvocations:
		return "fragment invocations"
	}
	return fmt.Sprintf("CounterKind(%d)", int(k))
}
