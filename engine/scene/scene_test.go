package scene

import (
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device/soft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := NewScene()
	assert.Equal(t, DefaultSpheresPerRow, s.SpheresPerRow())
	assert.Equal(t, DefaultSlices, s.Slices())
	assert.Equal(t, 216, s.SphereCount())
	assert.Equal(t, 760, s.TrianglesPerSphere())
	assert.Equal(t, 216*760, s.TriangleCount())
	assert.Equal(t, light.DefaultCount, s.Lights().Count())
}

func TestTrianglesPerSphereMatchesMesh(t *testing.T) {
	for _, slices := range []int{3, 5, 20, 64} {
		v := SphereVertices(SphereRadius, slices)
		require.Zero(t, len(v)%(3*FloatsPerVertex))
		assert.Equal(t, TrianglesPerSphere(slices), len(v)/(3*FloatsPerVertex), "slices %d", slices)
	}
}

func TestSphereVerticesOnSurface(t *testing.T) {
	v := SphereVertices(SphereRadius, 12)
	for i := 0; i < len(v); i += FloatsPerVertex {
		r := math.Sqrt(float64(v[i]*v[i] + v[i+1]*v[i+1] + v[i+2]*v[i+2]))
		assert.InDelta(t, SphereRadius, r, 1e-5)
		n := math.Sqrt(float64(v[i+3]*v[i+3] + v[i+4]*v[i+4] + v[i+5]*v[i+5]))
		assert.InDelta(t, 1, n, 1e-5)
	}
}

func TestSphereVerticesWindOutward(t *testing.T) {
	v := SphereVertices(SphereRadius, 8)
	stride := FloatsPerVertex
	for tri := 0; tri < len(v); tri += 3 * stride {
		a := [3]float64{float64(v[tri]), float64(v[tri+1]), float64(v[tri+2])}
		b := [3]float64{float64(v[tri+stride]), float64(v[tri+stride+1]), float64(v[tri+stride+2])}
		c := [3]float64{float64(v[tri+2*stride]), float64(v[tri+2*stride+1]), float64(v[tri+2*stride+2])}
		e1 := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		n := [3]float64{e1[1]*e2[2] - e1[2]*e2[1], e1[2]*e2[0] - e1[0]*e2[2], e1[0]*e2[1] - e1[1]*e2[0]}
		centroid := [3]float64{a[0] + b[0] + c[0], a[1] + b[1] + c[1], a[2] + b[2] + c[2]}
		assert.Greater(t, n[0]*centroid[0]+n[1]*centroid[1]+n[2]*centroid[2], 0.0, "triangle %d", tri/(3*stride))
	}
}

func TestGridOffsetsCentred(t *testing.T) {
	offsets := GridOffsets(3)
	require.Len(t, offsets, 27)
	assert.Equal(t, [4]float32{-1, -1, -1, 0}, offsets[0])
	assert.Equal(t, [4]float32{0, -1, -1, 0}, offsets[1])
	assert.Equal(t, [4]float32{-1, 0, -1, 0}, offsets[3])
	assert.Equal(t, [4]float32{1, 1, 1, 0}, offsets[26])

	var sum [3]float32
	for _, o := range offsets {
		sum[0] += o[0]
		sum[1] += o[1]
		sum[2] += o[2]
	}
	assert.Equal(t, [3]float32{}, sum)

	assert.Equal(t, [][4]float32{{0, 0, 0, 0}}, GridOffsets(1))
	assert.Equal(t, [4]float32{-0.5, -0.5, -0.5, 0}, GridOffsets(2)[0])
}

func TestGridGeneratedOnWorkerPool(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(3, 8, time.Second)
	defer pool.Stop()
	s := NewScene(WithWorkerPool(pool), WithSpheresPerRow(7))
	assert.Equal(t, GridOffsets(7), s.Offsets())

	require.True(t, s.SetSpheresPerRow(12))
	assert.Equal(t, GridOffsets(12), s.Offsets())
	assert.Len(t, s.Offsets(), 12*12*12)

	s = NewScene(WithWorkers(1), WithSpheresPerRow(4))
	assert.Equal(t, GridOffsets(4), s.Offsets())
}

func TestSettersClampAndBumpVersion(t *testing.T) {
	s := NewScene(WithSpheresPerRow(2), WithSlices(6))
	v := s.GeometryVersion()

	assert.False(t, s.SetSpheresPerRow(2))
	assert.True(t, s.SetSpheresPerRow(500))
	assert.Equal(t, MaxSpheresPerRow, s.SpheresPerRow())
	assert.Len(t, s.Offsets(), MaxSpheresPerRow*MaxSpheresPerRow*MaxSpheresPerRow)
	assert.Greater(t, s.GeometryVersion(), v)

	v = s.GeometryVersion()
	assert.True(t, s.SetSlices(1))
	assert.Equal(t, MinSlices, s.Slices())
	assert.Equal(t, TrianglesPerSphere(MinSlices)*3*FloatsPerVertex, len(s.Vertices()))
	assert.Greater(t, s.GeometryVersion(), v)

	assert.Equal(t, MinSpheresPerRow, NewScene(WithSpheresPerRow(0)).SpheresPerRow())
}

func TestLightsPlacedWithinGrid(t *testing.T) {
	s := NewScene(WithSpheresPerRow(3), WithLightOptions(light.WithCount(50), light.WithSeed(9)))
	require.Equal(t, 50, s.Lights().Count())
	for _, l := range s.Lights().Lights() {
		d := math.Sqrt(float64(l.Position[0]*l.Position[0] + l.Position[1]*l.Position[1] + l.Position[2]*l.Position[2]))
		assert.LessOrEqual(t, d, 3.0+1e-4)
	}
}

func TestResourcesSyncUploadsOnChange(t *testing.T) {
	d := soft.NewDevice()
	t.Cleanup(d.Release)
	s := NewScene(WithSpheresPerRow(2), WithSlices(5), WithLightOptions(light.WithCount(3), light.WithSeed(1)))
	r, err := NewResources(d, s)
	require.NoError(t, err)
	defer r.Release()

	assert.Nil(t, r.Mesh())
	r.Draw()
	r.DrawLightVolumes()
	assert.Zero(t, d.CountCommands("DrawMesh"))

	require.NoError(t, r.Sync())
	require.NotNil(t, r.Mesh())
	assert.Equal(t, TrianglesPerSphere(5)*3, r.Mesh().VertexCount())

	lightWords := soft.Words(r.provider.Buffer(lightsLabel))
	assert.Equal(t, uint32(3), lightWords[0])
	assert.Equal(t, math.Float32bits(s.Lights().Lights()[0].Position[0]), lightWords[light.HeaderSize/4])

	offsetWords := soft.Words(r.provider.Buffer(offsetsLabel))
	assert.Equal(t, math.Float32bits(-0.5), offsetWords[0])

	vertexWords := soft.Words(r.provider.Buffer(verticesLabel))
	require.Len(t, vertexWords, len(s.Vertices()))
	assert.Equal(t, math.Float32bits(s.Vertices()[2]), vertexWords[2])

	mesh := r.Mesh()
	require.NoError(t, r.Sync())
	assert.Same(t, mesh, r.Mesh())

	s.SetSpheresPerRow(4)
	require.NoError(t, r.Sync())
	assert.NotSame(t, mesh, r.Mesh())
	assert.GreaterOrEqual(t, r.provider.Buffer(offsetsLabel).Size(), 64*16)
	offsetWords = soft.Words(r.provider.Buffer(offsetsLabel))
	assert.Equal(t, math.Float32bits(-1.5), offsetWords[0])

	s.Lights().SetCount(7)
	require.NoError(t, r.Sync())
	assert.Equal(t, uint32(7), soft.Words(r.provider.Buffer(lightsLabel))[0])

	r.Draw()
	r.DrawLightVolumes()
	assert.Equal(t, []string{"DrawMesh scene.sphere x64", "DrawMesh scene.light_volume x7"}, filter(d.Commands(), "DrawMesh"))
}

func TestResourcesReleaseFreesEverything(t *testing.T) {
	d := soft.NewDevice()
	t.Cleanup(d.Release)
	r, err := NewResources(d, NewScene(WithSpheresPerRow(1)))
	require.NoError(t, err)
	require.NoError(t, r.Sync())
	assert.NotZero(t, d.Live())

	r.Release()
	assert.Zero(t, d.Live())
	r.DrawLightVolumes()
	assert.Zero(t, d.CountCommands("DrawMesh"))
}

func TestResourcesUpdateAnimatesUploadedLights(t *testing.T) {
	d := soft.NewDevice()
	t.Cleanup(d.Release)
	s := NewScene(WithSpheresPerRow(1), WithLightOptions(light.WithCount(1), light.WithRotation(true, 0.5)))
	r, err := NewResources(d, s)
	require.NoError(t, err)
	defer r.Release()
	require.NoError(t, r.Sync())

	before := soft.Words(r.provider.Buffer(lightsLabel))[light.HeaderSize/4]
	s.Update()
	require.NoError(t, r.Sync())
	after := soft.Words(r.provider.Buffer(lightsLabel))[light.HeaderSize/4]
	assert.NotEqual(t, before, after)
}

func filter(cmds []string, prefix string) []string {
	var out []string
	for _, c := range cmds {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}
