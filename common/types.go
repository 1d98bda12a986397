// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Resolution is a framebuffer size in pixels.
type Resolution struct {
	// Width is the horizontal size in pixels.
	Width int
	// Height is the vertical size in pixels.
	Height int
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Pixels returns the number of pixels covered by the resolution.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

// Aspect returns width / height, or 1 for a degenerate resolution.
func (r Resolution) Aspect() float32 {
	if r.Height == 0 {
		return 1
	}
	return float32(r.Width) / float32(r.Height)
}

// Tiles returns how many tileSize × tileSize tiles are needed to cover the resolution.
//
// Parameters:
//   - tileSize: tile edge length in pixels
//
// Returns:
//   - Resolution: tile grid dimensions, rounded up
func (r Resolution) Tiles(tileSize int) Resolution {
	return Resolution{Width: DivCeil(r.Width, tileSize), Height: DivCeil(r.Height, tileSize)}
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
