package algorithm

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device/soft"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferredFrameOrder(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, Deferred)

	h.d.ResetCommands()
	a.Run(false)
	got := filter(h.d.Commands(), "BindFramebuffer", "BindTexture", "DrawMesh", "DrawFullscreenTriangle", "BlitDepth")
	assert.Equal(t, []string{
		"BindFramebuffer gbuffer",
		"DrawMesh scene.sphere x1",
		"BindFramebuffer default",
		"BindFramebuffer default",
		"BindTexture 0 gbuffer.color",
		"BindTexture 1 gbuffer.normal",
		"BindTexture 2 gbuffer.position",
		"DrawFullscreenTriangle",
		"BlitDepth gbuffer default",
		"BindFramebuffer default",
	}, got)
	assert.Zero(t, h.d.CountCommands("BindBuffer storage 0"))
}

func TestDeferredRestoreDepthOption(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, Deferred)

	require.NoError(t, a.SetOption("Restore Depth", false))
	a.Run(false)
	assert.Zero(t, h.d.CountCommands("BlitDepth"))

	r := a.Describe()
	require.Equal(t, "Restore Z-Buffer", r.Passes[2].Name)
	assert.False(t, r.Passes[2].Enabled)
	assert.Zero(t, r.Passes[2].Samples)
}

func TestDeferredSamplesRecreateGBuffer(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, Deferred)
	r := a.(*deferred)
	live := h.d.Live()

	before := h.d.CountCommands("CreateProgram deferred_shading")
	require.NoError(t, a.SetSamples(4))
	assert.Equal(t, before+1, h.d.CountCommands("CreateProgram deferred_shading"), "multisample variant")
	assert.Equal(t, 4, r.gbuffer.fb.Samples())
	for _, tex := range r.gbuffer.color {
		assert.Equal(t, 4, tex.Descriptor().Samples, tex.Label())
	}
	assert.Equal(t, live, h.d.Live())

	require.NoError(t, a.OnResize(common.Resolution{Width: 200, Height: 100}))
	assert.Equal(t, common.Resolution{Width: 200, Height: 100}, r.gbuffer.fb.Resolution())
	assert.Equal(t, 4, r.gbuffer.fb.Samples())
	assert.Equal(t, live, h.d.Live())
}

func TestDeferredShowDebugDefaults(t *testing.T) {
	h := newHarness(t)
	plain := h.build(t, Deferred)
	tiled := h.build(t, TiledDeferred)

	assert.False(t, plain.ShowDebug())
	assert.True(t, tiled.ShowDebug())
}

func TestTiledClearsCountersEveryFrame(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, TiledDeferred)
	r := a.(*deferred)

	counts := soft.Words(r.tileBufs.Buffer(tileCountsLabel))
	require.Len(t, counts, 6)
	for i := range counts {
		counts[i] = 7
	}
	a.Run(false)
	assert.Equal(t, make([]uint32, 6), soft.Words(r.tileBufs.Buffer(tileCountsLabel)))
}

func TestTiledLightCountPass(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5),
		scene.WithLightOptions(light.WithCount(12)))
	a := h.build(t, TiledDeferred)

	h.d.ResetCommands()
	a.Run(false)
	got := filter(h.d.Commands(), "BindFramebuffer", "Viewport", "DrawMesh")
	assert.Equal(t, []string{
		"BindFramebuffer tiled.depth",
		"Viewport 3x2",
		"DrawMesh scene.sphere x1",
		"Viewport 96x64",
		"BindFramebuffer default",
		"BindFramebuffer tiled.depth",
		"Viewport 3x2",
		"DrawMesh scene.light_volume x12",
		"Viewport 96x64",
		"BindFramebuffer default",
		"BindFramebuffer gbuffer",
		"Viewport 96x64",
		"DrawMesh scene.sphere x1",
		"BindFramebuffer default",
		"BindFramebuffer default",
		"BindFramebuffer default",
	}, got)
	assert.Equal(t, 2, h.d.CountCommands("BindBuffer storage 0 tiled.light_counts"))
}

func TestTiledShadingOff(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, TiledDeferred)

	require.NoError(t, a.SetOption("Tiled Shading", false))
	h.d.ResetCommands()
	a.Run(false)

	r := a.Describe()
	for _, p := range r.Passes[:3] {
		assert.False(t, p.Enabled, p.Name)
		assert.Zero(t, p.Samples, p.Name)
	}
	for _, p := range r.Passes[3:] {
		assert.Equal(t, uint64(1), p.Samples, p.Name)
	}
	assert.Zero(t, h.d.CountCommands("DrawMesh scene.light_volume"))
	assert.Zero(t, h.d.CountCommands("BindBuffer storage 0"))
}

func TestTiledResizeReallocatesTiles(t *testing.T) {
	h := newHarness(t, scene.WithSpheresPerRow(1), scene.WithSlices(5))
	a := h.build(t, TiledDeferred)
	r := a.(*deferred)
	live := h.d.Live()

	require.NoError(t, a.OnResize(common.Resolution{Width: 100, Height: 70}))
	assert.Equal(t, common.Resolution{Width: 4, Height: 3}, r.tiles)
	assert.Equal(t, 48, r.tileBufs.Buffer(tileCountsLabel).Size())
	assert.Equal(t, 12*light.MaxLights*4, r.tileBufs.Buffer(tileIDsLabel).Size())
	assert.Equal(t, common.Resolution{Width: 4, Height: 3}, r.tileTarget.fb.Resolution())
	assert.Equal(t, live, h.d.Live())

	a.Run(false)
	words := soft.Words(r.uniforms.Buffer(uniformsLabel))
	assert.Equal(t, []uint32{0, light.TileSize, 4, 3}, words[160/4:176/4])
}
