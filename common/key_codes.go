package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyD     = 68  // D key (ASCII): toggle debug output
	KeyL     = 76  // L key (ASCII): toggle light rotation
	KeyP     = 80  // P key (ASCII): print the pipeline report
	KeyR     = 82  // R key (ASCII): recompile all shaders
	KeyS     = 83  // S key (ASCII): toggle timer synchronisation
	KeyT     = 84  // T key (ASCII): reset timers
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)

	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
	Key4 = 52 // 4 key (ASCII)
)

// Arrow keys orbit the camera while held.
const (
	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)
)

// Function keys cycle the hash table size and MSAA sample count.
const (
	KeyF1 = 290 // F1 (GLFW)
	KeyF2 = 291 // F2 (GLFW)
)
