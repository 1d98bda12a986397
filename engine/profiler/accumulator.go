package profiler

import (
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// query is the part shared by device.TimerQuery and device.CounterQuery.
type query interface {
	Begin()
	End()
	Result() uint64
	Release()
}

// accumulator sums the results of a recycled set of GPU queries. Results are read lazily,
// at the next Start or when an average is requested, so a running frame never stalls on
// its own queries.
type accumulator struct {
	create  func() (query, error)
	free    []query
	pending []query
	active  query
	total   uint64
	count   uint64
}

func (a *accumulator) begin() {
	a.collect()
	if a.active != nil {
		return
	}
	var q query
	if n := len(a.free); n > 0 {
		q = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		var err error
		q, err = a.create()
		if err != nil {
			logger.Logger().Warn("query creation failed, sample skipped", "error", err)
			return
		}
	}
	q.Begin()
	a.active = q
}

func (a *accumulator) end() {
	if a.active == nil {
		return
	}
	a.active.End()
	a.pending = append(a.pending, a.active)
	a.active = nil
}

func (a *accumulator) collect() {
	for _, q := range a.pending {
		a.total += q.Result()
		a.count++
		a.free = append(a.free, q)
	}
	a.pending = a.pending[:0]
}

func (a *accumulator) average() float64 {
	a.collect()
	if a.count == 0 {
		return 0
	}
	return float64(a.total) / float64(a.count)
}

func (a *accumulator) samples() uint64 {
	a.collect()
	return a.count
}

func (a *accumulator) reset() {
	a.free = append(a.free, a.pending...)
	a.pending = a.pending[:0]
	a.total = 0
	a.count = 0
}

func (a *accumulator) release() {
	for _, q := range a.free {
		q.Release()
	}
	for _, q := range a.pending {
		q.Release()
	}
	if a.active != nil {
		a.active.Release()
	}
	a.free, a.pending, a.active = nil, nil, nil
}

// Timer accumulates GPU elapsed time over any number of Start/Stop intervals.
// Timers may be nested, the frame timer encloses every pass timer.
type Timer struct {
	acc accumulator
	d   device.Device
}

// NewTimer creates a Timer backed by d's timer queries.
//
// Parameters:
//   - d: the device that owns the queries, must not be nil
//
// Returns:
//   - *Timer: the timer
func NewTimer(d device.Device) *Timer {
	if d == nil {
		panic("profiler: NewTimer requires a device")
	}
	t := &Timer{d: d}
	t.acc.create = func() (query, error) { return d.CreateTimerQuery() }
	return t
}

// Start begins a measurement. With forceSync the device is drained first so the sample
// only contains work submitted after this call.
func (t *Timer) Start(forceSync bool) {
	t.acc.collect()
	if forceSync {
		t.d.Finish()
	}
	t.acc.begin()
}

// Stop ends the current measurement. Without a matching Start it does nothing.
func (t *Timer) Stop() { t.acc.end() }

// Average returns the mean elapsed nanoseconds per sample, 0 when there are none.
func (t *Timer) Average() float64 { return t.acc.average() }

// Count returns the number of completed samples.
func (t *Timer) Count() uint64 { return t.acc.samples() }

// Reset discards every sample, including measurements still in flight.
func (t *Timer) Reset() { t.acc.reset() }

// Release frees the underlying queries.
func (t *Timer) Release() { t.acc.release() }

// Counter accumulates a pipeline statistic (vertex or fragment invocations).
type Counter struct {
	acc  accumulator
	kind device.CounterKind
}

// NewCounter creates a Counter of the given kind backed by d's counter queries.
//
// Parameters:
//   - d: the device that owns the queries, must not be nil
//   - kind: the statistic to count
//
// Returns:
//   - *Counter: the counter
func NewCounter(d device.Device, kind device.CounterKind) *Counter {
	if d == nil {
		panic("profiler: NewCounter requires a device")
	}
	c := &Counter{kind: kind}
	c.acc.create = func() (query, error) { return d.CreateCounterQuery(kind) }
	return c
}

// Kind returns the counted statistic.
func (c *Counter) Kind() device.CounterKind { return c.kind }

// Start begins counting.
func (c *Counter) Start() { c.acc.begin() }

// Stop ends counting.
func (c *Counter) Stop() { c.acc.end() }

// Average returns the mean count per sample, 0 when there are none.
func (c *Counter) Average() float64 { return c.acc.average() }

// Count returns the number of completed samples.
func (c *Counter) Count() uint64 { return c.acc.samples() }

// Reset discards every sample.
func (c *Counter) Reset() { c.acc.reset() }

// Release frees the underlying queries.
func (c *Counter) Release() { c.acc.release() }
