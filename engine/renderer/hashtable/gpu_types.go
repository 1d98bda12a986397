package hashtable

import (
	_ "embed"
	"fmt"
)

const (
	// EmptyKey marks an unused bucket.
	EmptyKey = 0xFFFFFFFF

	// EntryWords is the size of one entry: key followed by three payload words.
	// Payload word 0 holds the derivative slot (the work-list index of the key).
	EntryWords = 4

	// MinCapacity and MaxCapacity bound the bucket count.
	MinCapacity = 256
	MaxCapacity = 32768
	// DefaultCapacity is the bucket count used when none is configured.
	DefaultCapacity = 8192

	// EntriesBinding and LocksBinding are the storage binding indices used by the GLSL include.
	EntriesBinding = 4
	LocksBinding   = 5
)

// GLSLSource is the shader-side table: entry and lock declarations and the find-or-register
// routine. Registered with the shader pre-processor as "hashtable"; it must follow the
// "worklist" include.
//
//go:embed assets/hashtable.glsl
var GLSLSource string

// GLSLInclude returns GLSLSource prefixed with the binding defines it expects.
func GLSLInclude() string {
	return fmt.Sprintf("#define HASHTABLE_ENTRIES_BINDING %d\n#define HASHTABLE_LOCKS_BINDING %d\n%s", EntriesBinding, LocksBinding, GLSLSource)
}

// Capacities lists the selectable bucket counts in ascending order.
func Capacities() []uint32 {
	var out []uint32
	for c := uint32(MinCapacity); c <= MaxCapacity; c <<= 1 {
		out = append(out, c)
	}
	return out
}
