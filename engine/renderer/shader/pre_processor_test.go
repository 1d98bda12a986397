package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefines(t *testing.T) {
	assert.Equal(t, "", Defines(nil))
	assert.Equal(t, "#define Restore_Depth\n#define Wire_Model\n", Defines([]string{"Restore Depth", "Wire Model"}))
}

func TestProcessInsertsDefinesAfterVersion(t *testing.T) {
	pp := NewPreProcessor()
	src := "// header\n#version 460 core\nvoid main() {}"

	out, err := pp.Process(src, Defines([]string{"Tiled Shading"}))
	require.NoError(t, err)
	assert.Equal(t, "// header\n#version 460 core\n#define Tiled_Shading\nvoid main() {}", out)
}

func TestProcessWithoutVersionPrependsDefines(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("void main() {}", "#define A\n")
	require.NoError(t, err)
	assert.Equal(t, "#define A\nvoid main() {}", out)

	out, err = pp.Process("void main() {}", "")
	require.NoError(t, err)
	assert.Equal(t, "void main() {}", out)
}

func TestProcessExpandsIncludesWithRequirementsOnce(t *testing.T) {
	pp := NewPreProcessor()
	src := "#version 460\n//@oxy:include hashtable\n// @oxy:include worklist\nvoid main() {}"

	out, err := pp.Process(src, "")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "bool wlClaim("))
	assert.Equal(t, 1, strings.Count(out, "bool htFindOrRegister("))
	assert.Less(t, strings.Index(out, "bool wlClaim("), strings.Index(out, "bool htFindOrRegister("))
	assert.NotContains(t, out, "@oxy:")
}

func TestProcessCustomSnippet(t *testing.T) {
	pp := NewPreProcessor()
	pp.Register("lights", "struct Light { vec4 pos; };")
	out, err := pp.Process("//@oxy:include lights", "")
	require.NoError(t, err)
	assert.Equal(t, "struct Light { vec4 pos; };", out)
}

func TestProcessErrors(t *testing.T) {
	pp := NewPreProcessor()
	pp.Register("a", "A", "b")
	pp.Register("b", "B", "a")

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown include", "//@oxy:include nope", ErrUnknownInclude},
		{"missing argument", "//@oxy:include", ErrAnnotation},
		{"unknown type", "//@oxy:frobnicate x", ErrAnnotation},
		{"empty", "//@oxy:", ErrAnnotation},
		{"cycle", "//@oxy:include a", ErrUnknownInclude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pp.Process(tt.src, "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseAnnotationIgnoresOrdinaryLines(t *testing.T) {
	for _, line := range []string{"", "void main() {}", "// plain comment", "x = 1; // @oxy:include trailing"} {
		a, err := parseAnnotation(line, 1)
		assert.NoError(t, err)
		assert.Nil(t, a)
	}
}
