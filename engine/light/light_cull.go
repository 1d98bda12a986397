package light

import "github.com/Carmen-Shannon/oxy-shading/common"

// TileSize is the width and height in pixels of each screen-space tile used by tiled
// shading. Lights are counted per tile by a pass writing into a framebuffer with one texel
// per tile.
const TileSize = 32

// TileCounts computes the number of tiles in each dimension for a screen resolution.
//
// Parameters:
//   - res: the screen resolution
//
// Returns:
//   - common.Resolution: the tile grid, one texel per tile
func TileCounts(res common.Resolution) common.Resolution {
	return res.Tiles(TileSize)
}
