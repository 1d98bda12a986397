// Package hashtable implements a fixed-capacity GPU hash table keyed by triangle id. Each
// bucket is guarded by its own spinlock word so registrations into different buckets never
// contend; registering a key also appends it to a work-list.
package hashtable

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

var (
	// ErrNotPowerOfTwo is returned for capacities that are not a power of two.
	ErrNotPowerOfTwo = errors.New("hashtable: capacity is not a power of two")
	// ErrCapacityRange is returned for capacities outside [MinCapacity, MaxCapacity].
	ErrCapacityRange = errors.New("hashtable: capacity out of range")
	// ErrLockSpinLimit is returned by View.FindOrRegister when a bucket lock stays held
	// for more than View.SpinLimit attempts.
	ErrLockSpinLimit = errors.New("hashtable: lock spin limit exceeded")
	// ErrReservedKey is returned when registering EmptyKey.
	ErrReservedKey = errors.New("hashtable: key collides with the empty sentinel")
)

const (
	entriesLabel = "hashtable.entries"
	locksLabel   = "hashtable.locks"
)

// ValidateCapacity checks that c is a power of two within [MinCapacity, MaxCapacity].
func ValidateCapacity(c uint32) error {
	if !common.IsPowerOfTwo(c) {
		return fmt.Errorf("%w: %d", ErrNotPowerOfTwo, c)
	}
	if c < MinCapacity || c > MaxCapacity {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrCapacityRange, c, MinCapacity, MaxCapacity)
	}
	return nil
}

// NextCapacity returns the capacity after c in Capacities, wrapping to MinCapacity. Values
// between two capacities round up.
func NextCapacity(c uint32) uint32 {
	next := common.NextPowerOfTwo(c + 1)
	if next < MinCapacity || next > MaxCapacity {
		return MinCapacity
	}
	return next
}

// Table owns the entry and lock buffers.
type Table struct {
	provider binding.Provider
	capacity uint32
}

// NewTable allocates, binds-ready and resets a table of capacity buckets.
//
// Parameters:
//   - d: the device, must not be nil
//   - capacity: bucket count, see ValidateCapacity
//
// Returns:
//   - *Table: the table, every bucket empty and unlocked
//   - error: a validation or allocation error
func NewTable(d device.Device, capacity uint32) (*Table, error) {
	if d == nil {
		panic("hashtable: NewTable requires a device")
	}
	if err := ValidateCapacity(capacity); err != nil {
		return nil, err
	}
	t := &Table{
		capacity: capacity,
		provider: binding.NewProvider("hashtable", d,
			binding.WithStorageBuffer(entriesLabel, EntriesBinding, int(capacity)*EntryWords*4),
			binding.WithStorageBuffer(locksLabel, LocksBinding, int(capacity)*4),
		),
	}
	if err := t.provider.Init(); err != nil {
		t.provider.Release()
		return nil, err
	}
	t.Reset()
	return t, nil
}

// Capacity returns the bucket count.
func (t *Table) Capacity() uint32 {
	return t.capacity
}

// Mask returns capacity-1, uploaded to shaders as bitwiseModHashSize.
func (t *Table) Mask() uint32 {
	return t.capacity - 1
}

// Entries returns the entry buffer.
func (t *Table) Entries() device.Buffer {
	return t.provider.Buffer(entriesLabel)
}

// Locks returns the lock buffer.
func (t *Table) Locks() device.Buffer {
	return t.provider.Buffer(locksLabel)
}

// Bind attaches both buffers to their storage binding points.
func (t *Table) Bind() {
	t.provider.Bind()
}

// Reset marks every bucket empty and every lock free. It must be recorded before any pass
// that registers keys in the same frame.
func (t *Table) Reset() {
	t.Entries().Fill(EmptyKey)
	t.Locks().Fill(0)
}

// Resize reallocates both buffers for a new capacity, rebinds and resets them. Must only be
// called between frames.
//
// Parameters:
//   - capacity: the new bucket count, see ValidateCapacity
//
// Returns:
//   - error: a validation or allocation error; the table is unusable after an allocation error
func (t *Table) Resize(capacity uint32) error {
	if err := ValidateCapacity(capacity); err != nil {
		return err
	}
	if capacity == t.capacity {
		return nil
	}
	if err := t.provider.Resize(entriesLabel, int(capacity)*EntryWords*4); err != nil {
		return err
	}
	if err := t.provider.Resize(locksLabel, int(capacity)*4); err != nil {
		return err
	}
	logger.Logger().Info("hash table resized", "from", t.capacity, "to", capacity)
	t.capacity = capacity
	t.Reset()
	return nil
}

// Release frees both buffers.
func (t *Table) Release() {
	t.provider.Release()
}
