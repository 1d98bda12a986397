package soft

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// Kernel simulates one shader invocation. For compute programs ID is the global invocation
// index, for mesh draws it is the primitive index across all instances and for fullscreen
// draws it is the pixel index.
type Kernel func(inv Invocation) error

// Invocation is the per-invocation view handed to a Kernel.
type Invocation struct {
	// ID identifies the invocation within its launch.
	ID uint32
	// Count is the number of invocations in the launch.
	Count uint32
	// Viewport is the viewport size at launch time.
	Width, Height int

	d *Device
}

// Storage returns the words of the storage buffer bound at index, or nil.
func (i Invocation) Storage(index uint32) []uint32 {
	return i.words(device.TargetStorage, index)
}

// Uniform returns the words of the uniform buffer bound at index, or nil.
func (i Invocation) Uniform(index uint32) []uint32 {
	return i.words(device.TargetUniform, index)
}

// AtomicCounter returns the words of the atomic counter buffer bound at index, or nil.
func (i Invocation) AtomicCounter(index uint32) []uint32 {
	return i.words(device.TargetAtomicCounter, index)
}

func (i Invocation) words(target device.BufferTarget, index uint32) []uint32 {
	b, ok := i.d.bindings[target][index]
	if !ok {
		return nil
	}
	return b.words
}

// launch runs the kernel registered for the bound program count times across the pool and
// blocks until every invocation returned. A per-launch WaitGroup is the barrier, the pool's
// own Wait only returns once workers idle out.
func (d *Device) launch(count uint32) {
	if d.program == nil || count == 0 {
		return
	}
	k, ok := d.kernels[d.program.label]
	if !ok {
		return
	}

	var wg sync.WaitGroup
	taskID := 0
	for start := uint32(0); start < count; start += d.chunk {
		end := min(start+d.chunk, count)
		wg.Add(1)
		d.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				for id := start; id < end; id++ {
					inv := Invocation{ID: id, Count: count, Width: d.viewport.Width, Height: d.viewport.Height, d: d}
					if err := k(inv); err != nil {
						d.recordErr(err)
						return nil, err
					}
				}
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()
}
