package worklist

import (
	_ "embed"
	"fmt"
)

// Header word offsets.
const (
	// HeaderCount is the number of claimed items.
	HeaderCount = iota
	// HeaderOverflow counts claims rejected because the list was full.
	HeaderOverflow
	// HeaderCollisions counts hash-table registrations rejected by bucket collisions.
	HeaderCollisions
	// HeaderWords is the size of the header in 32-bit words.
	HeaderWords
)

const (
	// DefaultCapacity is the default item capacity: one item per triangle of the densest scene.
	DefaultCapacity = 1036800

	// HeaderBinding and ItemsBinding are the storage binding indices used by the GLSL include.
	HeaderBinding = 2
	ItemsBinding  = 3
)

// GLSLSource is the shader-side work-list: header and item declarations plus the saturating
// claim routine. Registered with the shader pre-processor as "worklist".
//
//go:embed assets/worklist.glsl
var GLSLSource string

// GLSLInclude returns GLSLSource prefixed with the binding defines it expects.
func GLSLInclude() string {
	return fmt.Sprintf("#define WORKLIST_HEADER_BINDING %d\n#define WORKLIST_ITEMS_BINDING %d\n%s", HeaderBinding, ItemsBinding, GLSLSource)
}
