package window

import "sync"

// keyState tracks which keys are held. Presses and releases arrive on the event thread while
// the tick loop polls from its own goroutine.
type keyState struct {
	mu   sync.Mutex
	held map[uint32]bool
}

// press records key as held and reports whether it was up before, so auto-repeat is ignored.
func (k *keyState) press(key uint32) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.held == nil {
		k.held = make(map[uint32]bool)
	}
	if k.held[key] {
		return false
	}
	k.held[key] = true
	return true
}

// release records key as up and reports whether it was held.
func (k *keyState) release(key uint32) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.held[key] {
		return false
	}
	delete(k.held, key)
	return true
}

func (k *keyState) down(key uint32) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.held[key]
}

// reset releases every key, for focus loss.
func (k *keyState) reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	clear(k.held)
}

// dragTracker turns absolute cursor positions into deltas while a button is held.
type dragTracker struct {
	active bool
	lastX  float64
	lastY  float64
}

func (d *dragTracker) begin(x, y float64) {
	d.active, d.lastX, d.lastY = true, x, y
}

func (d *dragTracker) end() {
	d.active = false
}

// move returns the offset since the previous position. ok is false when no drag is active.
func (d *dragTracker) move(x, y float64) (dx, dy float32, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	dx, dy = float32(x-d.lastX), float32(y-d.lastY)
	d.lastX, d.lastY = x, y
	return dx, dy, true
}
