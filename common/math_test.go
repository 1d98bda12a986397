package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPowerOfTwo(t *testing.T) {
	for _, v := range []uint32{1, 2, 256, 8192, 32768, 1 << 31} {
		assert.True(t, IsPowerOfTwo(v), "%d", v)
	}
	for _, v := range []uint32{0, 3, 255, 8191, 12288} {
		assert.False(t, IsPowerOfTwo(v), "%d", v)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want uint32 }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {255, 256}, {256, 256}, {257, 512}, {1<<31 + 1, 1 << 31},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 1, 100))
	assert.Equal(t, 100, Clamp(150, 1, 100))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0.2, 2.0))
}

func TestBytesToWords(t *testing.T) {
	words := []uint32{1, 0xFFFFFFFF}
	assert.Equal(t, words, BytesToWords(SliceToBytes(words)))
	assert.Nil(t, BytesToWords([]byte{1, 2}))
}

func TestResolutionTiles(t *testing.T) {
	r := Resolution{Width: 1280, Height: 720}
	assert.Equal(t, Resolution{Width: 40, Height: 23}, r.Tiles(32))
	assert.Equal(t, "1280x720", r.String())
	assert.False(t, Resolution{}.Valid())
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
