package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device/soft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steppingDevice(t *testing.T, step uint64) *soft.Device {
	t.Helper()
	var now uint64
	d := soft.NewDevice(soft.WithClock(func() uint64 {
		now += step
		return now
	}))
	t.Cleanup(d.Release)
	return d
}

func TestTimerAverage(t *testing.T) {
	d := steppingDevice(t, 100)
	timer := NewTimer(d)

	assert.Equal(t, 0.0, timer.Average())
	assert.Equal(t, uint64(0), timer.Count())

	for range 3 {
		timer.Start(false)
		timer.Stop()
	}
	assert.Equal(t, uint64(3), timer.Count())
	assert.Equal(t, 100.0, timer.Average())
}

func TestTimerReusesQueries(t *testing.T) {
	d := steppingDevice(t, 1)
	timer := NewTimer(d)
	for range 10 {
		timer.Start(false)
		timer.Stop()
	}
	assert.Equal(t, 1, d.Live())
	timer.Release()
	assert.Equal(t, 0, d.Live())
}

func TestTimerForceSyncFinishes(t *testing.T) {
	d := steppingDevice(t, 1)
	timer := NewTimer(d)

	timer.Start(false)
	timer.Stop()
	assert.Equal(t, 0, d.CountCommands("Finish"))

	timer.Start(true)
	timer.Stop()
	assert.Equal(t, 1, d.CountCommands("Finish"))
}

func TestTimerResetDiscardsPending(t *testing.T) {
	d := steppingDevice(t, 5)
	timer := NewTimer(d)
	timer.Start(false)
	timer.Stop()
	timer.Reset()
	assert.Equal(t, uint64(0), timer.Count())
	assert.Equal(t, 0.0, timer.Average())
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	d := steppingDevice(t, 5)
	timer := NewTimer(d)
	timer.Stop()
	assert.Equal(t, uint64(0), timer.Count())
}

func TestCounterAverage(t *testing.T) {
	d := steppingDevice(t, 1)
	mesh, err := d.CreateMesh("tri", make([]float32, 18))
	require.NoError(t, err)

	c := NewCounter(d, device.CounterVertexInvocations)
	assert.Equal(t, device.CounterVertexInvocations, c.Kind())

	c.Start()
	d.DrawMesh(mesh, 1)
	c.Stop()
	c.Start()
	d.DrawMesh(mesh, 3)
	c.Stop()

	assert.Equal(t, uint64(2), c.Count())
	assert.Equal(t, 6.0, c.Average())
}

func TestNewTimerPanicsWithoutDevice(t *testing.T) {
	assert.Panics(t, func() { NewTimer(nil) })
	assert.Panics(t, func() { NewCounter(nil, device.CounterVertexInvocations) })
}

func TestProfilerTick(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithClock(func() time.Time { return now }), WithMemoryStats(false), WithUpdateInterval(time.Second))

	for range 59 {
		now = now.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	now = now.Add(410 * time.Millisecond)
	require.True(t, p.Tick())

	stats := p.Last()
	assert.InDelta(t, 60.0, stats.FPS, 1e-9)
	assert.Equal(t, time.Second/60, stats.FrameTime)
}
