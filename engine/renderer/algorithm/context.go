package algorithm

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/camera"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
)

var (
	// ErrIncompleteContext is returned when a required Context field is nil.
	ErrIncompleteContext = errors.New("algorithm: incomplete context")
	// ErrInvalidSamples is returned for MSAA sample counts other than 0, 4 and 8.
	ErrInvalidSamples = errors.New("algorithm: invalid MSAA sample count")
	// ErrRecompile is returned when a change that needs new shader variants fails to compile.
	ErrRecompile = errors.New("algorithm: recompile failed")
)

// Context is everything an algorithm renders with. It is passed by value on construction;
// algorithms never reach for process-wide state.
type Context struct {
	Device   device.Device
	Compiler shader.Compiler
	Scene    scene.Scene
	Camera   camera.Camera

	// Resolution is the size of the default framebuffer.
	Resolution common.Resolution
	// Samples is the MSAA sample count of offscreen targets: 0, 4 or 8.
	Samples int
	// HashCapacity is the bucket count of the DAIS hash table; 0 selects the default.
	HashCapacity uint32
}

// ValidateSamples checks that n is an MSAA sample count the algorithms support.
func ValidateSamples(n int) error {
	switch n {
	case 0, 4, 8:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrInvalidSamples, n)
}

// Validate checks the context and fills in defaults.
//
// Returns:
//   - Context: the context with defaults applied
//   - error: the first problem found
func (c Context) Validate() (Context, error) {
	switch {
	case c.Device == nil:
		return c, fmt.Errorf("%w: device", ErrIncompleteContext)
	case c.Compiler == nil:
		return c, fmt.Errorf("%w: compiler", ErrIncompleteContext)
	case c.Scene == nil:
		return c, fmt.Errorf("%w: scene", ErrIncompleteContext)
	case c.Camera == nil:
		return c, fmt.Errorf("%w: camera", ErrIncompleteContext)
	case !c.Resolution.Valid():
		return c, fmt.Errorf("%w: resolution %s", ErrIncompleteContext, c.Resolution)
	}
	if err := ValidateSamples(c.Samples); err != nil {
		return c, err
	}
	if c.HashCapacity == 0 {
		c.HashCapacity = hashtable.DefaultCapacity
	}
	if err := hashtable.ValidateCapacity(c.HashCapacity); err != nil {
		return c, err
	}
	return c, nil
}
