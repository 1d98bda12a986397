package scene

import (
	_ "embed"
	"fmt"
)

// Storage binding indices of the sphere offsets and of the sphere mesh vertices. The
// vertices are the mesh's interleaved position and normal, read by compute passes.
const (
	OffsetsBinding  = 7
	VerticesBinding = 9
)

// GLSLSource declares the sphere offsets and the sphere vertices.
// Registered with the shader pre-processor as "scene".
//
//go:embed assets/scene.glsl
var GLSLSource string

// GLSLInclude returns GLSLSource prefixed with the binding define it expects.
func GLSLInclude() string {
	return fmt.Sprintf("#define SPHERE_OFFSETS_BINDING %d\n#define SPHERE_VERTICES_BINDING %d\n#define FLOATS_PER_VERTEX %d\n%s",
		OffsetsBinding, VerticesBinding, FloatsPerVertex, GLSLSource)
}
