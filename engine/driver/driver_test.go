package driver

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/camera"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/algorithm"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device/soft"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/hashtable"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shading/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stub = "#version 460 core\nvoid main() {}\n"

func shaders() fstest.MapFS {
	fsys := fstest.MapFS{
		"03_dais_compute_pass.comp": {Data: []byte("#version 460 core\nlayout(local_size_x = 1) in;\nvoid main() {}\n")},
	}
	for _, base := range []string{"forward_shading", "gbuffer", "deferred_shading", "tiled_pre_depth", "light_count", "01_dais_depth_prepass", "02_dais_geometry_pass", "04_dais_shading_pass"} {
		fsys[base+".vert"] = &fstest.MapFile{Data: []byte(stub)}
		fsys[base+".frag"] = &fstest.MapFile{Data: []byte(stub)}
	}
	return fsys
}

func newDriver(t *testing.T, options ...DriverBuilderOption) (*Driver, *soft.Device) {
	t.Helper()
	d := soft.NewDevice(soft.WithWorkers(2))
	t.Cleanup(d.Release)
	ctx := algorithm.Context{
		Device:     d,
		Compiler:   shader.NewCompiler(d, shader.WithFS(shaders())),
		Scene:      scene.NewScene(scene.WithSpheresPerRow(2), scene.WithSlices(5)),
		Camera:     camera.NewCamera(camera.WithController(camera.NewCameraController())),
		Resolution: common.Resolution{Width: 128, Height: 64},
	}
	drv, err := New(ctx, options...)
	require.NoError(t, err)
	t.Cleanup(drv.Release)
	return drv, d
}

func TestNewValidatesContext(t *testing.T) {
	_, err := New(algorithm.Context{})
	assert.ErrorIs(t, err, algorithm.ErrIncompleteContext)

	drv, _ := newDriver(t)
	assert.Equal(t, uint32(hashtable.DefaultCapacity), drv.Context().HashCapacity)
	assert.Equal(t, float32(2), drv.Context().Camera.Aspect())
}

func TestFrameWithoutAlgorithm(t *testing.T) {
	drv, _ := newDriver(t)
	assert.ErrorIs(t, drv.Frame(), ErrNoAlgorithm)
	assert.Zero(t, drv.Frames())
	assert.False(t, drv.Report().Active)
	assert.Contains(t, drv.Report().String(), "no algorithm selected")
}

func TestSwitchReleasesPrevious(t *testing.T) {
	drv, d := newDriver(t)

	require.NoError(t, drv.Switch(algorithm.Forward))
	require.NoError(t, drv.Frame())
	forwardLive := d.Live()

	require.NoError(t, drv.Switch(algorithm.DeferredAttributeInterpolation))
	assert.Equal(t, algorithm.DeferredAttributeInterpolation, drv.Active().Kind())
	require.NoError(t, drv.Frame())

	require.NoError(t, drv.Switch(algorithm.Forward))
	require.NoError(t, drv.Frame())
	assert.Equal(t, forwardLive, d.Live())

	drv.Release()
	assert.Nil(t, drv.Active())
	assert.Zero(t, d.Live())
}

func TestFailedSwitchKeepsActive(t *testing.T) {
	drv, _ := newDriver(t)
	require.NoError(t, drv.Switch(algorithm.Deferred))

	assert.ErrorIs(t, drv.Switch(algorithm.Kind(17)), algorithm.ErrUnknownKind)
	assert.Equal(t, algorithm.Deferred, drv.Active().Kind())
	assert.NoError(t, drv.Frame())
}

var errTextureDenied = errors.New("texture denied")

// textureDenier fails every texture whose label starts with prefix.
type textureDenier struct {
	*soft.Device
	prefix string
}

func (d textureDenier) CreateTexture(desc device.TextureDescriptor) (device.Texture, error) {
	if strings.HasPrefix(desc.Label, d.prefix) {
		return nil, errTextureDenied
	}
	return d.Device.CreateTexture(desc)
}

func TestFailedSetupKeepsActiveUniformBlock(t *testing.T) {
	sd := soft.NewDevice(soft.WithWorkers(2))
	t.Cleanup(sd.Release)
	d := textureDenier{Device: sd, prefix: "dais"}
	fsys := shaders()
	fsys["forward_shading.vert"] = &fstest.MapFile{Data: []byte("#version 460 core\n//@oxy:include uniforms\nvoid main() {}\n")}
	drv, err := New(algorithm.Context{
		Device:     d,
		Compiler:   shader.NewCompiler(d, shader.WithFS(fsys)),
		Scene:      scene.NewScene(scene.WithSpheresPerRow(2), scene.WithSlices(5)),
		Camera:     camera.NewCamera(camera.WithController(camera.NewCameraController())),
		Resolution: common.Resolution{Width: 128, Height: 64},
	})
	require.NoError(t, err)
	t.Cleanup(drv.Release)

	require.NoError(t, drv.Switch(algorithm.Forward))
	assert.ErrorIs(t, drv.Switch(algorithm.DeferredAttributeInterpolation), errTextureDenied)
	require.Equal(t, algorithm.Forward, drv.Active().Kind())

	require.True(t, drv.RecompileAll())
	passes := drv.Active().(interface{ Passes() []pass.Pass }).Passes()
	src := passes[0].Program().(interface{ Sources() []device.ShaderSource }).Sources()[0].Source
	assert.Contains(t, src, "#define FORWARD_UNIFORMS\n")
	assert.NotContains(t, src, "#define DAIS_UNIFORMS\n")
	assert.Contains(t, src, "#define FORWARD_UNIFORMS_BINDING 0\n")
	require.NoError(t, drv.Frame())
}

func TestEveryKindRuns(t *testing.T) {
	for _, kind := range algorithm.Kinds() {
		t.Run(kind.Short(), func(t *testing.T) {
			drv, _ := newDriver(t)
			require.NoError(t, drv.Switch(kind))
			for range 3 {
				require.NoError(t, drv.Frame())
			}
			r := drv.Report()
			assert.True(t, r.Active)
			assert.Equal(t, kind, r.Kind)
			assert.True(t, r.Pipeline.Initialized)
			assert.Equal(t, uint64(3), r.Pipeline.FrameSamples)
			assert.Equal(t, uint64(3), r.Frames)
		})
	}
}

func TestSetForceSyncResetsTimers(t *testing.T) {
	drv, d := newDriver(t)
	require.NoError(t, drv.Switch(algorithm.Forward))
	finishes := d.CountCommands("Finish")
	require.NoError(t, drv.Frame())
	require.NoError(t, drv.Frame())
	assert.Equal(t, finishes, d.CountCommands("Finish"))

	drv.SetForceSync(true)
	assert.True(t, drv.ForceSync())
	assert.Zero(t, drv.Report().Pipeline.FrameSamples)

	require.NoError(t, drv.Frame())
	assert.Equal(t, uint64(1), drv.Report().Pipeline.FrameSamples)
	assert.Greater(t, d.CountCommands("Finish"), finishes)
}

func TestResetTimersAndRecompile(t *testing.T) {
	drv, d := newDriver(t)
	assert.False(t, drv.RecompileAll())

	require.NoError(t, drv.Switch(algorithm.Deferred))
	require.NoError(t, drv.Frame())
	drv.ResetTimers()
	assert.Zero(t, drv.Report().Pipeline.Passes[0].Samples)

	before := d.CountCommands("CreateProgram gbuffer")
	assert.True(t, drv.RecompileAll())
	assert.Equal(t, before+1, d.CountCommands("CreateProgram gbuffer"))
}

func TestResize(t *testing.T) {
	drv, d := newDriver(t)
	require.NoError(t, drv.Switch(algorithm.Forward))

	assert.ErrorIs(t, drv.Resize(common.Resolution{Width: 0, Height: 10}), algorithm.ErrIncompleteContext)

	res := common.Resolution{Width: 300, Height: 100}
	require.NoError(t, drv.Resize(res))
	assert.Equal(t, res, drv.Active().Resolution())
	assert.Equal(t, float32(3), drv.Context().Camera.Aspect())

	require.NoError(t, drv.Frame())
	assert.Equal(t, res, d.ViewportSize())

	require.NoError(t, drv.Switch(algorithm.Deferred))
	assert.Equal(t, res, drv.Active().Resolution())
}

func TestSettingsCarryAcrossSwitches(t *testing.T) {
	drv, _ := newDriver(t)
	require.NoError(t, drv.Switch(algorithm.Forward))

	assert.ErrorIs(t, drv.SetSamples(2), algorithm.ErrInvalidSamples)
	assert.ErrorIs(t, drv.SetHashCapacity(100), hashtable.ErrNotPowerOfTwo)
	require.NoError(t, drv.SetSamples(4))
	require.NoError(t, drv.SetHashCapacity(1024))
	assert.Nil(t, drv.Report().WorkList)

	require.NoError(t, drv.Switch(algorithm.DeferredAttributeInterpolation))
	assert.Equal(t, 4, drv.Active().Samples())
	hs := drv.Active().(algorithm.HashCapacitySetter)
	assert.Equal(t, uint32(1024), hs.HashCapacity())

	require.NoError(t, drv.SetHashCapacity(512))
	assert.Equal(t, uint32(512), hs.HashCapacity())

	require.NoError(t, drv.Frame())
	r := drv.Report()
	require.NotNil(t, r.WorkList)
	assert.Equal(t, uint32(512), r.HashCapacity)
	assert.Equal(t, 4, r.Samples)
}

func TestReportRender(t *testing.T) {
	drv, _ := newDriver(t)
	require.NoError(t, drv.Switch(algorithm.TiledDeferred))
	require.NoError(t, drv.Frame())

	out := drv.Report().String()
	assert.Contains(t, out, "Tiled Deferred Shading")
	assert.Contains(t, out, "8 spheres")
	assert.Contains(t, out, "+Tiled Shading")
	for _, name := range []string{"Clear Resources", "Light Count", "Restore Z-Buffer", "frame"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "\x1b[")
}
