// Package window owns the GLFW window, its OpenGL context and input events.
package window

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-shading/common"
)

// Window provides platform windowing, input event handling and the OpenGL context.
// Events are processed on the thread that created the window; the context is made current on
// the render thread with MakeContextCurrent.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key presses. Auto-repeat does not call it again.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key releases.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDragCallback sets the callback for cursor movement while the middle button is held.
	//
	// Parameters:
	//   - callback: function receiving the movement in pixels since the previous call
	SetDragCallback(callback func(dx, dy float32))

	// KeyDown reports whether key is held. Safe to call from any goroutine.
	KeyDown(keyCode uint32) bool

	// SetTitle changes the title bar text. Safe to call from any goroutine; the change is
	// applied by the next ProcessMessages.
	SetTitle(title string)

	// MakeContextCurrent binds the OpenGL context to the calling thread. The caller must have
	// locked its goroutine to the OS thread.
	MakeContextCurrent()

	// DetachContext releases the context from the calling thread so another thread can take it.
	DetachContext()

	// SwapBuffers presents the default framebuffer. Call from the thread owning the context.
	SwapBuffers()

	// Resolution returns the framebuffer size in pixels. Safe to call from any goroutine.
	//
	// Returns:
	//   - common.Resolution: the current size
	Resolution() common.Resolution

	// IsRunning returns true until the window was asked to close.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close destroys the window and releases platform resources. Call from the event thread.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages handles pending events without blocking and reports whether the window
	// is still running.
	ProcessMessages() bool
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title     string
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	// requested size; the framebuffer may differ on high-DPI displays
	width  int
	height int

	vsync        bool
	debugContext bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	sizeMu sync.Mutex
	size   common.Resolution

	pendingTitle atomic.Pointer[string]

	keys keyState
	drag dragTracker

	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
	onDrag    func(dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window; its context is not current on any thread
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "oxy-shading",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	w.width = common.Clamp(w.width, w.minWidth, w.maxWidth)
	w.height = common.Clamp(w.height, w.minHeight, w.maxHeight)
	w.size = common.Resolution{Width: w.width, Height: w.height}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) KeyDown(keyCode uint32) bool {
	return w.keys.down(keyCode)
}

func (w *engineWindow) SetTitle(title string) {
	w.pendingTitle.Store(&title)
}

func (w *engineWindow) MakeContextCurrent() {
	platformMakeContextCurrent(w)
}

func (w *engineWindow) DetachContext() {
	platformDetachContext()
}

func (w *engineWindow) SwapBuffers() {
	platformSwapBuffers(w)
}

func (w *engineWindow) Resolution() common.Resolution {
	w.sizeMu.Lock()
	defer w.sizeMu.Unlock()
	return w.size
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() bool {
	if title := w.pendingTitle.Swap(nil); title != nil {
		platformSetTitle(w, *title)
	}
	return platformProcessMessages(w)
}

// The handlers below run on the event thread from the platform callbacks.

func (w *engineWindow) handleKey(keyCode uint32, pressed bool) {
	if pressed {
		if w.keys.press(keyCode) && w.onKeyDown != nil {
			w.onKeyDown(keyCode)
		}
		return
	}
	if w.keys.release(keyCode) && w.onKeyUp != nil {
		w.onKeyUp(keyCode)
	}
}

func (w *engineWindow) handleFocus(focused bool) {
	if !focused {
		w.keys.reset()
		w.drag.end()
	}
}

func (w *engineWindow) handleCursor(x, y float64) {
	if dx, dy, ok := w.drag.move(x, y); ok && w.onDrag != nil {
		w.onDrag(dx, dy)
	}
}

func (w *engineWindow) handleFramebufferSize(width, height int) {
	w.sizeMu.Lock()
	w.size = common.Resolution{Width: width, Height: height}
	w.sizeMu.Unlock()
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
