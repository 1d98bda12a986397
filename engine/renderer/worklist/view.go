package worklist

import "sync/atomic"

// View is the kernel side of the work-list over raw buffer words. It mirrors the GLSL
// include and is what software kernels and tests call. Methods are safe for concurrent use
// by any number of invocations.
type View struct {
	// Header holds at least HeaderWords words.
	Header []uint32
	// Items holds at least Capacity words.
	Items []uint32
	// Capacity bounds the number of claims that succeed.
	Capacity uint32
}

// Claim reserves the next item slot. It never moves the count past Capacity: once full,
// every further claim fails and increments the overflow word instead.
//
// Returns:
//   - uint32: the claimed slot
//   - bool: false when the list is full
func (v View) Claim() (uint32, bool) {
	count := &v.Header[HeaderCount]
	for {
		cur := atomic.LoadUint32(count)
		if cur >= v.Capacity {
			atomic.AddUint32(&v.Header[HeaderOverflow], 1)
			return 0, false
		}
		if atomic.CompareAndSwapUint32(count, cur, cur+1) {
			return cur, true
		}
	}
}

// Append claims a slot and stores id in it.
//
// Returns:
//   - uint32: the slot id was written to
//   - bool: false on overflow, id was not stored
func (v View) Append(id uint32) (uint32, bool) {
	slot, ok := v.Claim()
	if !ok {
		return 0, false
	}
	atomic.StoreUint32(&v.Items[slot], id)
	return slot, true
}

// RecordCollision increments the collision word.
func (v View) RecordCollision() {
	atomic.AddUint32(&v.Header[HeaderCollisions], 1)
}

// Count returns the current claim count.
func (v View) Count() uint32 {
	return atomic.LoadUint32(&v.Header[HeaderCount])
}
