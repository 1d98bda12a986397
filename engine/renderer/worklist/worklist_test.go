package worklist

import (
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device/soft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newList(t *testing.T, capacity uint32) (*soft.Device, *List) {
	t.Helper()
	d := soft.NewDevice(soft.WithWorkers(8), soft.WithChunkSize(8))
	t.Cleanup(d.Release)
	l, err := NewList(d, capacity)
	require.NoError(t, err)
	t.Cleanup(l.Release)
	return d, l
}

func viewOf(l *List) View {
	return View{Header: soft.Words(l.Header()), Items: soft.Words(l.Items()), Capacity: l.Capacity()}
}

func TestViewAppendSequential(t *testing.T) {
	_, l := newList(t, 3)
	v := viewOf(l)

	for i, id := range []uint32{10, 20, 30} {
		slot, ok := v.Append(id)
		require.True(t, ok)
		assert.Equal(t, uint32(i), slot)
	}
	_, ok := v.Append(40)
	assert.False(t, ok)

	stats, err := l.ReadStats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Count: 3, Overflow: 1, Capacity: 3}, stats)
	assert.Equal(t, []uint32{10, 20, 30}, soft.Words(l.Items()))
}

func TestViewAppendConcurrentIsDenseAndUnique(t *testing.T) {
	d, l := newList(t, 4096)
	d.RegisterKernel("append", func(inv soft.Invocation) error {
		v := View{Header: inv.Storage(HeaderBinding), Items: inv.Storage(ItemsBinding), Capacity: 4096}
		v.Append(inv.ID + 1)
		return nil
	})
	p, err := d.CreateProgram("append", []device.ShaderSource{{Stage: device.StageCompute, Source: "void main() {}"}})
	require.NoError(t, err)

	l.Bind()
	d.UseProgram(p)
	d.Dispatch(4096, 1, 1)

	stats, err := l.ReadStats()
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), stats.Count)
	assert.Equal(t, uint32(0), stats.Overflow)

	items := slices.Clone(soft.Words(l.Items()))
	slices.Sort(items)
	for i, id := range items {
		require.Equal(t, uint32(i+1), id)
	}
}

func TestClaimSaturatesUnderContention(t *testing.T) {
	_, l := newList(t, 100)
	v := viewOf(l)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				v.Claim()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(100), v.Count())
	assert.Equal(t, uint32(16*50-100), v.Header[HeaderOverflow])
}

func TestResetZeroesHeader(t *testing.T) {
	_, l := newList(t, 8)
	v := viewOf(l)
	v.Append(1)
	v.RecordCollision()

	require.NoError(t, l.Reset())
	stats, err := l.ReadStats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Capacity: 8}, stats)
}

func TestResetRecoversFromCorruption(t *testing.T) {
	d, l := newList(t, 8)
	rec := logger.NewRecorder()
	prev := logger.Logger()
	logger.SetLogger(slog.New(rec))
	t.Cleanup(func() { logger.SetLogger(prev) })

	old := l.Header()
	viewOf(l).Append(5)
	d.FailNextUnmap("worklist.header")

	err := l.Reset()
	assert.ErrorIs(t, err, device.ErrBufferCorrupted)
	assert.NotSame(t, old, l.Header())
	assert.Equal(t, []uint32{0, 0, 0}, soft.Words(l.Header()))
	assert.Equal(t, 1, rec.Count(slog.LevelWarn, "buffer corrupted while mapped, recreating"))

	recreated := l.Header()
	stats, err := l.ReadStats()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), stats.Count)
	require.NoError(t, l.Reset())
	assert.Same(t, recreated, l.Header())
	assert.Equal(t, 1, rec.Count(slog.LevelWarn, "buffer corrupted while mapped, recreating"))
}

func TestReadStatsCorruption(t *testing.T) {
	d, l := newList(t, 8)
	d.FailNextUnmap("worklist.header")
	stats, err := l.ReadStats()
	assert.ErrorIs(t, err, device.ErrBufferCorrupted)
	assert.Equal(t, Stats{Capacity: 8}, stats)
}

func TestEnsureCapacityOnlyGrows(t *testing.T) {
	_, l := newList(t, 8)
	require.NoError(t, l.EnsureCapacity(4))
	assert.Equal(t, uint32(8), l.Capacity())

	require.NoError(t, l.EnsureCapacity(32))
	assert.Equal(t, uint32(32), l.Capacity())
	assert.Equal(t, 32*4, l.Items().Size())

	assert.ErrorIs(t, l.EnsureCapacity(0), ErrZeroCapacity)
}

func TestNewListRejectsZeroCapacity(t *testing.T) {
	d := soft.NewDevice()
	defer d.Release()
	_, err := NewList(d, 0)
	assert.ErrorIs(t, err, ErrZeroCapacity)
}

func TestDispatchSize(t *testing.T) {
	tests := []struct{ count, local, want uint32 }{
		{0, 1, 0}, {5, 1, 5}, {5, 0, 5}, {64, 64, 1}, {65, 64, 2},
	}
	for _, tt := range tests {
		if got := DispatchSize(tt.count, tt.local); got != tt.want {
			t.Errorf("DispatchSize(%d, %d) = %d, want %d", tt.count, tt.local, got, tt.want)
		}
	}
}

func TestGLSLIncludeDefinesBindings(t *testing.T) {
	src := GLSLInclude()
	assert.Contains(t, src, "#define WORKLIST_HEADER_BINDING 2")
	assert.Contains(t, src, "bool wlClaim(")
}
