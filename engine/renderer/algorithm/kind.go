package algorithm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by ParseKind for names that select no algorithm.
var ErrUnknownKind = errors.New("algorithm: unknown kind")

// Kind selects one of the shading algorithms.
type Kind int

const (
	// Forward shades every fragment while rasterising the scene.
	Forward Kind = iota
	// Deferred rasterises attributes into a G-buffer and shades in screen space.
	Deferred
	// TiledDeferred is Deferred with per-tile light counts.
	TiledDeferred
	// DeferredAttributeInterpolation stores triangle ids per pixel and interpolates
	// attributes from per-triangle partial derivatives while shading.
	DeferredAttributeInterpolation
)

// Kinds returns every kind in selection order.
func Kinds() []Kind {
	return []Kind{Forward, Deferred, TiledDeferred, DeferredAttributeInterpolation}
}

func (k Kind) String() string {
	switch k {
	case Forward:
		return "Forward Shading"
	case Deferred:
		return "Deferred Shading"
	case TiledDeferred:
		return "Tiled Deferred Shading"
	case DeferredAttributeInterpolation:
		return "Deferred Attribute Interpolation Shading"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Short returns the command-line name of k.
func (k Kind) Short() string {
	switch k {
	case Forward:
		return "forward"
	case Deferred:
		return "deferred"
	case TiledDeferred:
		return "tiled"
	case DeferredAttributeInterpolation:
		return "dais"
	}
	return ""
}

// ParseKind accepts either the display name or the short name of a kind, ignoring case.
//
// Parameters:
//   - s: the name
//
// Returns:
//   - Kind: the kind
//   - error: ErrUnknownKind when nothing matches
func ParseKind(s string) (Kind, error) {
	name := strings.TrimSpace(s)
	for _, k := range Kinds() {
		if strings.EqualFold(name, k.String()) || strings.EqualFold(name, k.Short()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
