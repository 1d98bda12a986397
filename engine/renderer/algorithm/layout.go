package algorithm

import (
	_ "embed"
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// Storage binding points owned by the algorithms. The work-list (2, 3), the hash table
// (4, 5), the lights (6) and the sphere offsets (7) are declared by their packages.
const (
	TileLightCountBinding = 0
	TileLightIDsBinding   = 1
	DerivativesBinding    = 8
)

// Uniform binding points, one per algorithm family.
const (
	ForwardUniformsBinding  = 0
	DAISUniformsBinding     = 1
	DeferredUniformsBinding = 2
)

// Texture units read by the screen-space passes. G-buffer attachments occupy the first
// units in attachment order; the DAIS triangle address shares unit 0 with the colour.
const (
	GBufferColorUnit       = 0
	GBufferNormalUnit      = 1
	GBufferPositionUnit    = 2
	TriangleAddressUnit    = 0
	TriangleAddressMSUnit  = 4
	DerivativeBytesPerItem = 72
)

// UniformsGLSL declares the uniform blocks. A program sees only the block whose selector
// (FORWARD_UNIFORMS, DEFERRED_UNIFORMS or DAIS_UNIFORMS) its pipeline defines.
//
//go:embed assets/uniforms.glsl
var UniformsGLSL string

// UniformsInclude returns the "uniforms" include: the binding point of every block followed
// by UniformsGLSL. The text is the same for every algorithm, so the shared pre-processor
// never holds one algorithm's state.
func UniformsInclude() string {
	return fmt.Sprintf("#define FORWARD_UNIFORMS_BINDING %d\n#define DAIS_UNIFORMS_BINDING %d\n#define DEFERRED_UNIFORMS_BINDING %d\n%s",
		ForwardUniformsBinding, DAISUniformsBinding, DeferredUniformsBinding, UniformsGLSL)
}

// CameraUniforms is the head shared by every uniform block, std140.
type CameraUniforms struct {
	CameraPosition mgl32.Vec4 // offset  0
	MVP            mgl32.Mat4 // offset 16
}

// ForwardUniforms is the forward shading block, 96 bytes.
type ForwardUniforms struct {
	Camera   CameraUniforms // offset  0
	Viewport mgl32.Vec4     // offset 80
}

// DeferredUniforms is the block shared by deferred and tiled deferred shading, 176 bytes.
type DeferredUniforms struct {
	Camera     CameraUniforms // offset   0
	MVPInverse mgl32.Mat4     // offset  80
	Viewport   mgl32.Vec4     // offset 144
	NumSamples uint32         // offset 160
	TileSize   uint32         // offset 164
	TileCountX uint32         // offset 168
	TileCountY uint32         // offset 172
}

// DAISUniforms is the deferred attribute interpolation block, 192 bytes.
type DAISUniforms struct {
	Camera                CameraUniforms // offset   0
	MVPInverse            mgl32.Mat4     // offset  80
	Viewport              mgl32.Vec4     // offset 144
	BitwiseModHashSize    uint32         // offset 160
	NumTrianglesPerSphere uint32         // offset 164
	Projection32          float32        // offset 168, projection column 3 row 2
	Projection22          float32        // offset 172, projection column 2 row 2
	NumSamples            uint32         // offset 176
	_                     [3]uint32      // pad to 192
}

// Size returns the struct size in bytes.
func (u *ForwardUniforms) Size() int { return int(unsafe.Sizeof(*u)) }

// Size returns the struct size in bytes.
func (u *DeferredUniforms) Size() int { return int(unsafe.Sizeof(*u)) }

// Size returns the struct size in bytes.
func (u *DAISUniforms) Size() int { return int(unsafe.Sizeof(*u)) }

// Marshal returns the bytes uploaded to the uniform buffer.
func (u *ForwardUniforms) Marshal() []byte { return common.StructToBytes(u) }

// Marshal returns the bytes uploaded to the uniform buffer.
func (u *DeferredUniforms) Marshal() []byte { return common.StructToBytes(u) }

// Marshal returns the bytes uploaded to the uniform buffer.
func (u *DAISUniforms) Marshal() []byte { return common.StructToBytes(u) }

// cameraUniforms reads the eye and the model-view-projection matrix from cam. The model
// matrix is the identity.
func cameraUniforms(cam camera.Camera) CameraUniforms {
	return CameraUniforms{
		CameraPosition: cam.Position().Vec4(1),
		MVP:            cam.ViewProjection(),
	}
}

// viewport returns the viewport rectangle as x, y, width, height.
func viewport(res common.Resolution) mgl32.Vec4 {
	return mgl32.Vec4{0, 0, float32(res.Width), float32(res.Height)}
}
