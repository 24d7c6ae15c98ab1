package mark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/watermark_lsb/internal/bitconv"
)

func TestShuffledGolay(t *testing.T) {
	var sg shuffledgolay = 12345
	t.Run("encode length", func(t *testing.T) {
		for v := 1; v <= 64*4; v++ {
			encoded := sg.Encode(make([]bool, v))
			assert.Len(t, encoded, sg.EncodedLen(v))
		}
		assert.Empty(t, sg.Encode(nil))
	})

	t.Run("encode/decode", func(t *testing.T) {
		original := bitconv.TextToBits("65f1a2b3c4d5e6f7a8b9c0d1")
		encoded := sg.Encode(original)
		decoded := sg.Decode(encoded, len(original))
		assert.Equal(t, original, decoded)
	})

	t.Run("corrects flipped bits", func(t *testing.T) {
		original := bitconv.Uint32ToBits(24)
		encoded := sg.Encode(original)
		require.Greater(t, len(encoded), 8)
		damaged := append([]bool(nil), encoded...)
		damaged[0] = !damaged[0]
		damaged[len(damaged)-1] = !damaged[len(damaged)-1]
		assert.Equal(t, original, sg.Decode(damaged, len(original)))
	})
}

func TestWithoutECC(t *testing.T) {
	c := WithoutECC()
	bits := []bool{true, false, true}
	assert.Equal(t, bits, c.Encode(bits))
	assert.Equal(t, 3, c.EncodedLen(3))
	assert.Equal(t, []bool{true, false}, c.Decode(bits, 2))
	assert.Equal(t, []bool{true, false, true, false}, c.Decode(bits, 4))
}
