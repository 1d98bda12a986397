// Package worklist builds a compact, append-only list of triangle ids on the GPU. Any number
// of invocations append concurrently through a saturating atomic counter; the host reads the
// count back to size the compute dispatch that consumes the list.
package worklist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// ErrZeroCapacity is returned when a list is created or grown to zero items.
var ErrZeroCapacity = errors.New("worklist: capacity must be positive")

// Stats is a host snapshot of the header.
type Stats struct {
	Count      uint32
	Overflow   uint32
	Collisions uint32
	Capacity   uint32
}

// List owns the header and item buffers of a work-list.
type List struct {
	provider    binding.Provider
	headerLabel string
	itemsLabel  string
	capacity    uint32

	headerBinding uint32
	itemsBinding  uint32
	prefix        string

	overflowWarn  *logger.Throttle
	collisionWarn *logger.Throttle
}

// NewList allocates a work-list for capacity items on d.
//
// Parameters:
//   - d: the device, must not be nil
//   - capacity: maximum number of items per frame
//   - options: variadic list of ListBuilderOption functions
//
// Returns:
//   - *List: the list, buffers allocated and zeroed
//   - error: ErrZeroCapacity or an allocation error
func NewList(d device.Device, capacity uint32, options ...ListBuilderOption) (*List, error) {
	if d == nil {
		panic("worklist: NewList requires a device")
	}
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}
	l := &List{
		capacity:      capacity,
		headerBinding: HeaderBinding,
		itemsBinding:  ItemsBinding,
		prefix:        "worklist",
		overflowWarn:  logger.NewThrottle(time.Second),
		collisionWarn: logger.NewThrottle(time.Second),
	}
	for _, option := range options {
		option(l)
	}
	l.headerLabel = l.prefix + ".header"
	l.itemsLabel = l.prefix + ".items"
	l.provider = binding.NewProvider(l.prefix, d,
		binding.WithBuffer(binding.BufferSpec{Label: l.headerLabel, Target: device.TargetStorage, Index: l.headerBinding, Size: HeaderWords * 4, Usage: device.UsageReadback}),
		binding.WithStorageBuffer(l.itemsLabel, l.itemsBinding, int(capacity)*4),
	)
	if err := l.provider.Init(); err != nil {
		l.provider.Release()
		return nil, err
	}
	l.provider.Buffer(l.headerLabel).Fill(0)
	return l, nil
}

// Capacity returns the item capacity.
func (l *List) Capacity() uint32 {
	return l.capacity
}

// Header returns the header buffer. It changes identity after corruption recovery.
func (l *List) Header() device.Buffer {
	return l.provider.Buffer(l.headerLabel)
}

// Items returns the item buffer.
func (l *List) Items() device.Buffer {
	return l.provider.Buffer(l.itemsLabel)
}

// Bind attaches both buffers to their storage binding points.
func (l *List) Bind() {
	l.provider.Bind()
}

// EnsureCapacity grows the item buffer to hold at least n items. It never shrinks.
//
// Parameters:
//   - n: required capacity
//
// Returns:
//   - error: ErrZeroCapacity or an allocation error
func (l *List) EnsureCapacity(n uint32) error {
	if n == 0 {
		return ErrZeroCapacity
	}
	if n <= l.capacity {
		return nil
	}
	if err := l.provider.Resize(l.itemsLabel, int(n)*4); err != nil {
		return err
	}
	logger.Logger().Info("work-list grown", "from", l.capacity, "to", n)
	l.capacity = n
	return nil
}

// Reset zeroes the header through a mapped write. When the unmap reports corruption the
// header buffer is reallocated, rebound and cleared, and the returned error wraps
// device.ErrBufferCorrupted; the frame proceeds with whatever the items hold.
func (l *List) Reset() error {
	err := l.provider.MapWrite(l.headerLabel, func(data []byte) {
		clear(data[:HeaderWords*4])
	})
	if errors.Is(err, device.ErrBufferCorrupted) {
		if hdr := l.Header(); hdr != nil {
			hdr.Fill(0)
		}
	}
	return err
}

// ReadStats maps the header and returns its contents. Overflow and collisions produce
// rate-limited warnings.
//
// Returns:
//   - Stats: the header snapshot, zero on corruption
//   - error: wrapping device.ErrBufferCorrupted when the read could not be trusted
func (l *List) ReadStats() (Stats, error) {
	var s Stats
	err := l.provider.MapRead(l.headerLabel, func(data []byte) {
		s.Count = binary.LittleEndian.Uint32(data[HeaderCount*4:])
		s.Overflow = binary.LittleEndian.Uint32(data[HeaderOverflow*4:])
		s.Collisions = binary.LittleEndian.Uint32(data[HeaderCollisions*4:])
	})
	if err != nil {
		return Stats{Capacity: l.capacity}, fmt.Errorf("worklist: read stats: %w", err)
	}
	s.Capacity = l.capacity
	s.Count = min(s.Count, l.capacity)

	if s.Overflow > 0 {
		if ok, suppressed := l.overflowWarn.Allow(); ok {
			logger.Logger().Warn("work-list overflow, items dropped", "dropped", s.Overflow, "capacity", l.capacity, "suppressed", suppressed)
		}
	}
	if s.Collisions > 0 {
		if ok, suppressed := l.collisionWarn.Allow(); ok {
			logger.Logger().Warn("hash table collisions, registrations rejected", "collisions", s.Collisions, "suppressed", suppressed)
		}
	}
	return s, nil
}

// Release frees both buffers.
func (l *List) Release() {
	l.provider.Release()
}

// DispatchSize returns the number of work groups needed to cover count items with groups of
// localSize invocations. A zero result means the dispatch must be skipped.
//
// Parameters:
//   - count: number of items
//   - localSize: invocations per work group, values below 1 count as 1
//
// Returns:
//   - uint32: work group count
func DispatchSize(count, localSize uint32) uint32 {
	localSize = max(localSize, 1)
	return uint32(common.DivCeil(int(count), int(localSize)))
}
