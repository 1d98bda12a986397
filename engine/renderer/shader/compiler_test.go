package shader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device/soft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainSrc = "#version 460 core\nvoid main() {}\n"

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"forward_shading.vert":       {Data: []byte(mainSrc)},
		"forward_shading.frag":       {Data: []byte(mainSrc)},
		"02_dais_geometry_pass.vert": {Data: []byte(mainSrc)},
		"02_dais_geometry_pass.geom": {Data: []byte(mainSrc)},
		"02_dais_geometry_pass.frag": {Data: []byte("#version 460 core\n//@oxy:include hashtable\nvoid main() {}\n")},
		"03_dais_compute_pass.comp":  {Data: []byte(mainSrc)},
		"03_dais_compute_pass.vert":  {Data: []byte(mainSrc)},
		"broken.vert":                {Data: []byte("#version 460 core\n")},
		"broken.frag":                {Data: []byte(mainSrc)},
		"half_geometry.geom":         {Data: []byte(mainSrc)},
		"half_geometry.frag":         {Data: []byte(mainSrc)},
		"bad_include.vert":           {Data: []byte("//@oxy:include nope\nvoid main() {}")},
		"bad_include.frag":           {Data: []byte(mainSrc)},
	}
}

func newTestCompiler(t *testing.T) (*soft.Device, Compiler) {
	t.Helper()
	d := soft.NewDevice()
	t.Cleanup(d.Release)
	return d, NewCompiler(d, WithFS(testFS()))
}

func TestStagesFallbackOrder(t *testing.T) {
	_, c := newTestCompiler(t)

	tests := []struct {
		base string
		want []device.ShaderStage
	}{
		{"forward_shading", []device.ShaderStage{device.StageVertex, device.StageFragment}},
		{"02_dais_geometry_pass", []device.ShaderStage{device.StageVertex, device.StageGeometry, device.StageFragment}},
		{"03_dais_compute_pass", []device.ShaderStage{device.StageCompute}},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := c.Stages(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStagesMissingFiles(t *testing.T) {
	_, c := newTestCompiler(t)

	_, err := c.Stages("nothing")
	assert.ErrorIs(t, err, ErrMissingStage)

	_, err = c.Stages("half_geometry")
	require.ErrorIs(t, err, ErrMissingStage)
	assert.Contains(t, err.Error(), "half_geometry.vert")
}

func TestCompileInjectsDefinesAndIncludes(t *testing.T) {
	_, c := newTestCompiler(t)

	p, err := c.Compile("02_dais_geometry_pass", []string{"Restore Depth"})
	require.NoError(t, err)
	assert.Equal(t, "02_dais_geometry_pass", p.Label())

	srcs := p.(interface{ Sources() []device.ShaderSource }).Sources()
	require.Len(t, srcs, 3)
	for _, s := range srcs {
		assert.True(t, strings.HasPrefix(s.Source, "#version 460 core\n#define Restore_Depth\n"), s.Name)
	}
	assert.Equal(t, "02_dais_geometry_pass.frag", srcs[2].Name)
	assert.Contains(t, srcs[2].Source, "htFindOrRegister")
}

func TestCompileErrors(t *testing.T) {
	_, c := newTestCompiler(t)

	_, err := c.Compile("broken", nil)
	assert.ErrorIs(t, err, device.ErrCompile)

	_, err = c.Compile("bad_include", nil)
	assert.ErrorIs(t, err, ErrUnknownInclude)

	_, err = c.Compile("missing", nil)
	assert.ErrorIs(t, err, ErrMissingStage)
}

func TestNewCompilerPanicsWithoutDevice(t *testing.T) {
	assert.Panics(t, func() { NewCompiler(nil) })
}
