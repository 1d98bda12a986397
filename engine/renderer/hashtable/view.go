package hashtable

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/worklist"
)

// Outcome is the result of a find-or-register call.
type Outcome int

const (
	// Found means the id was already registered.
	Found Outcome = iota
	// Registered means the id took an empty bucket and was appended to the work-list.
	Registered
	// Collision means the bucket is owned by another id; the newcomer was rejected.
	Collision
	// Overflow means the bucket was empty but the work-list was full; nothing was stored.
	Overflow
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Registered:
		return "registered"
	case Collision:
		return "collision"
	case Overflow:
		return "overflow"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// View is the kernel side of the table over raw buffer words. It mirrors the GLSL include
// and is safe for concurrent use by any number of invocations.
type View struct {
	// Entries holds capacity*EntryWords words.
	Entries []uint32
	// Locks holds capacity words.
	Locks []uint32
	// Mask is capacity-1.
	Mask uint32
	// SpinLimit bounds failed lock attempts before ErrLockSpinLimit; 0 spins forever.
	SpinLimit int
	// WorkList receives newly registered ids.
	WorkList worklist.View
	// Held, when set, is called with true right after a bucket lock is taken and with false
	// right before it is released.
	Held func(bucket uint32, held bool)
}

// FindOrRegister looks id up and registers it on first sight. The bucket lock is held only
// for a constant number of word reads and writes and is released on every path.
//
// Parameters:
//   - id: the key, must not be EmptyKey
//
// Returns:
//   - Outcome: what happened
//   - uint32: the derivative slot for Found and Registered, 0 otherwise
//   - error: ErrReservedKey or ErrLockSpinLimit
func (v View) FindOrRegister(id uint32) (Outcome, uint32, error) {
	if id == EmptyKey {
		return Collision, 0, ErrReservedKey
	}
	bucket := id & v.Mask
	lock := &v.Locks[bucket]

	spins := 0
	for !atomic.CompareAndSwapUint32(lock, 0, 1) {
		spins++
		if v.SpinLimit > 0 && spins >= v.SpinLimit {
			return Collision, 0, fmt.Errorf("%w: bucket %d", ErrLockSpinLimit, bucket)
		}
		runtime.Gosched()
	}
	defer atomic.StoreUint32(lock, 0)
	if v.Held != nil {
		v.Held(bucket, true)
		defer v.Held(bucket, false)
	}

	base := bucket * EntryWords
	switch key := atomic.LoadUint32(&v.Entries[base]); key {
	case id:
		return Found, atomic.LoadUint32(&v.Entries[base+1]), nil
	case EmptyKey:
		slot, ok := v.WorkList.Append(id)
		if !ok {
			return Overflow, 0, nil
		}
		atomic.StoreUint32(&v.Entries[base+1], slot)
		atomic.StoreUint32(&v.Entries[base], id)
		return Registered, slot, nil
	default:
		v.WorkList.RecordCollision()
		return Collision, 0, nil
	}
}

// Lookup returns the derivative slot of id without locking. Only valid once every writer
// has finished, i.e. after the memory barrier that ends the registering pass.
//
// Returns:
//   - uint32: the slot
//   - bool: false when id is not registered
func (v View) Lookup(id uint32) (uint32, bool) {
	base := (id & v.Mask) * EntryWords
	if v.Entries[base] != id || id == EmptyKey {
		return 0, false
	}
	return v.Entries[base+1], true
}
