package light

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-shading/common"
)

// MaxLights is the capacity of the light storage buffer.
const MaxLights = 1024

// Binding is the storage binding index the GLSL include declares the light array at.
const Binding = 6

// GLSLSource is the shader-side light array. Registered with the shader pre-processor as
// "light".
//
//go:embed assets/light.glsl
var GLSLSource string

// GLSLInclude returns GLSLSource prefixed with the binding define it expects.
func GLSLInclude() string {
	return fmt.Sprintf("#define LIGHTS_BINDING %d\n%s", Binding, GLSLSource)
}

// Light is the GPU representation of a point light, 32 bytes, std430 aligned.
type Light struct {
	// Position holds the world-space position in xyz and the range in w.
	Position [4]float32
	// Color holds the RGB colour in xyz and the ambient weight in w.
	Color [4]float32
}

// Size returns the size of the Light struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (l *Light) Size() int {
	return int(unsafe.Sizeof(*l))
}

// Range returns the light's range of influence.
func (l *Light) Range() float32 {
	return l.Position[3]
}

// HeaderSize is the byte size of the count header preceding the light array. The array
// starts at the next 16 byte boundary.
const HeaderSize = 16

// BufferSize returns the byte size of a storage buffer holding the header and MaxLights
// lights.
func BufferSize() int {
	var l Light
	return HeaderSize + MaxLights*l.Size()
}

// MarshalHeader serializes the count header.
//
// Parameters:
//   - count: the number of active lights
//
// Returns:
//   - []byte: HeaderSize bytes
func MarshalHeader(count int) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf, uint32(count))
	return buf
}

// Marshal serializes lights into a byte buffer suitable for GPU upload.
//
// Parameters:
//   - lights: the lights to serialize
//
// Returns:
//   - []byte: the serialized lights, 32 bytes each
func Marshal(lights []Light) []byte {
	return common.SliceToBytes(lights)
}
