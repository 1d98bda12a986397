package algorithm

import (
	"log/slog"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device/soft"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/worklist"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerGeometryKernel makes the geometry pass register every rasterised triangle, as if
// each one covered at least one pixel.
func registerGeometryKernel(d *soft.Device) {
	d.RegisterKernel("02_dais_geometry_pass", func(inv soft.Invocation) error {
		items := inv.Storage(worklist.ItemsBinding)
		v := hashtable.View{
			Entries:   inv.Storage(hashtable.EntriesBinding),
			Locks:     inv.Storage(hashtable.LocksBinding),
			Mask:      inv.Uniform(DAISUniformsBinding)[160/4],
			SpinLimit: 1 << 20,
			WorkList: worklist.View{
				Header:   inv.Storage(worklist.HeaderBinding),
				Items:    items,
				Capacity: uint32(len(items)),
			},
		}
		_, _, err := v.FindOrRegister(inv.ID)
		return err
	})
}

// computeRecorder collects the triangle ids the compute pass was launched for.
type computeRecorder struct {
	mu  sync.Mutex
	ids []uint32
}

func (c *computeRecorder) register(d *soft.Device) {
	d.RegisterKernel("03_dais_compute_pass", func(inv soft.Invocation) error {
		id := inv.Storage(worklist.ItemsBinding)[inv.ID]
		c.mu.Lock()
		c.ids = append(c.ids, id)
		c.mu.Unlock()
		return nil
	})
}

func TestDAISDispatchesOncePerVisibleTriangle(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	registerGeometryKernel(h.d)
	var rec computeRecorder
	rec.register(h.d)
	a := h.build(t, DeferredAttributeInterpolation)

	a.Run(false)

	want := uint32(h.scene.TriangleCount())
	require.Equal(t, uint32(40), want)
	assert.Equal(t, []string{"Dispatch 40 1 1"}, filter(h.d.Commands(), "Dispatch"))
	stats := a.(WorkListReporter).LastWorkList()
	assert.Equal(t, want, stats.Count)
	assert.Zero(t, stats.Collisions)
	assert.Zero(t, stats.Overflow)

	ids := slices.Clone(rec.ids)
	slices.Sort(ids)
	require.Len(t, ids, int(want))
	for i, id := range ids {
		assert.Equal(t, uint32(i), id)
	}
}

func TestDAISTableResetEveryFrame(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	registerGeometryKernel(h.d)
	a := h.build(t, DeferredAttributeInterpolation)

	for range 3 {
		a.Run(false)
		assert.Equal(t, uint32(40), a.(WorkListReporter).LastWorkList().Count)
	}
	assert.Equal(t, 3, h.d.CountCommands("Dispatch 40 1 1"))
}

func TestDAISCollisionsAreRejected(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(2), scene.WithSlices(10))
	registerGeometryKernel(h.d)
	a := h.build(t, DeferredAttributeInterpolation)

	total := uint32(h.scene.TriangleCount())
	require.Equal(t, uint32(8*180), total)

	a.Run(false)
	stats := a.(WorkListReporter).LastWorkList()
	assert.Equal(t, uint32(256), stats.Count)
	assert.Equal(t, uint32(256), stats.Capacity)
	assert.Equal(t, total-256, stats.Collisions)
	assert.Zero(t, stats.Overflow)
	assert.Equal(t, []string{"Dispatch 256 1 1"}, filter(h.d.Commands(), "Dispatch"))
}

func TestDAISSkipsDispatchWhenNothingRegistered(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, DeferredAttributeInterpolation)

	a.Run(false)
	assert.Zero(t, h.d.CountCommands("Dispatch"))
	assert.Zero(t, a.(WorkListReporter).LastWorkList().Count)

	r := a.Describe()
	require.Equal(t, "Partial Derivatives Compute Pass", r.Passes[3].Name)
	assert.Equal(t, uint64(1), r.Passes[3].Samples)
}

func TestDAISResetCorruptionRecovers(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	registerGeometryKernel(h.d)
	a := h.build(t, DeferredAttributeInterpolation)
	r := a.(*dais)
	rec := logger.NewRecorder()
	prev := logger.Logger()
	logger.SetLogger(slog.New(rec))
	t.Cleanup(func() { logger.SetLogger(prev) })

	old := r.list.Header()
	h.d.FailNextUnmap("worklist.header")
	a.Run(false)

	assert.NotSame(t, old, r.list.Header())
	assert.Equal(t, []string{"Dispatch 40 1 1"}, filter(h.d.Commands(), "Dispatch"))
	assert.Equal(t, 1, rec.Count(slog.LevelWarn, "buffer corrupted while mapped, recreating"))
	assert.Equal(t, 1, rec.Count(slog.LevelWarn, "work-list reset failed, counter recreated"))

	a.Run(false)
	assert.Equal(t, 1, rec.Count(slog.LevelWarn, "buffer corrupted while mapped, recreating"))
	assert.Equal(t, 2, h.d.CountCommands("Dispatch 40 1 1"))
}

func TestDAISCounterReadCorruptionSkipsDispatch(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	registerGeometryKernel(h.d)
	a := h.build(t, DeferredAttributeInterpolation)

	h.d.FailNextUnmap("worklist.header")
	h.d.FailNextUnmap("worklist.header")
	a.Run(false)
	assert.Zero(t, h.d.CountCommands("Dispatch"))

	a.Run(false)
	assert.Equal(t, 1, h.d.CountCommands("Dispatch 40 1 1"))
}

func TestDAISHashCapacity(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(2), scene.WithSlices(10))
	registerGeometryKernel(h.d)
	a := h.build(t, DeferredAttributeInterpolation)
	hs := a.(HashCapacitySetter)

	assert.Equal(t, uint32(256), hs.HashCapacity())
	assert.ErrorIs(t, hs.SetHashCapacity(300), hashtable.ErrNotPowerOfTwo)
	assert.ErrorIs(t, hs.SetHashCapacity(1<<16), hashtable.ErrCapacityRange)

	require.NoError(t, hs.SetHashCapacity(2048))
	assert.Equal(t, uint32(2048), hs.HashCapacity())

	a.Run(false)
	r := a.(*dais)
	assert.Equal(t, uint32(2047), soft.Words(r.uniforms.Buffer(uniformsLabel))[160/4])
	stats := r.LastWorkList()
	assert.Equal(t, uint32(1440), stats.Capacity)
	assert.Equal(t, uint32(1440), stats.Count)
	assert.Zero(t, stats.Collisions)
}

func TestDAISUniforms(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, DeferredAttributeInterpolation)
	require.NoError(t, a.SetSamples(4))

	a.Run(false)
	words := soft.Words(a.(*dais).uniforms.Buffer(uniformsLabel))
	assert.Equal(t, uint32(255), words[160/4])
	assert.Equal(t, uint32(40), words[164/4])
	assert.Equal(t, uint32(4), words[176/4])
	proj := h.ctx.Camera.Projection()
	assert.Equal(t, proj[14], math.Float32frombits(words[168/4]))
	assert.Equal(t, proj[10], math.Float32frombits(words[172/4]))
	assert.Equal(t, float32(96), math.Float32frombits(words[144/4+2]))
}

func TestDAISSampleCountSwapsAddressTextures(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, DeferredAttributeInterpolation)
	r := a.(*dais)

	assert.Equal(t, 0, r.target.fb.Samples())
	assert.Same(t, r.address, r.target.color[0])
	live := h.d.Live()

	require.NoError(t, a.SetSamples(8))
	assert.Equal(t, 8, r.target.fb.Samples())
	assert.Same(t, r.addressMS, r.target.color[0])
	assert.Equal(t, "dais.address_ms", r.addressMS.Label())
	assert.Equal(t, 1, r.address.Descriptor().Resolution.Width)
	assert.Equal(t, live, h.d.Live())

	h.d.ResetCommands()
	a.Run(false)
	assert.Contains(t, h.d.Commands(), "BindTexture 0 dais.address")
	assert.Contains(t, h.d.Commands(), "BindTexture 4 dais.address_ms")

	require.NoError(t, a.SetSamples(0))
	assert.Equal(t, live, h.d.Live())
}

func TestDAISRestoreDepthOption(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, DeferredAttributeInterpolation)

	a.Run(false)
	assert.Equal(t, 1, h.d.CountCommands("BlitDepth dais default"))

	require.NoError(t, a.SetOption("Restore Depth", false))
	a.Run(false)
	assert.Equal(t, 1, h.d.CountCommands("BlitDepth"))
}
