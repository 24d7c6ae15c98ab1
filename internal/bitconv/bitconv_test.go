package bitconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitConv(t *testing.T) {
	test := []struct {
		data []byte
		exp  []byte
	}{
		{data: []byte{0b10101010}, exp: []byte{0b10101010}},
		{data: []byte{0b11110000, 0b00001111}, exp: []byte{0b11110000, 0b00001111}},
		{data: []byte("Hello"), exp: []byte("Hello")},
		{data: []byte{0x00, 0xff}, exp: []byte{0x00, 0xff}},
		{data: []byte{}, exp: []byte{}},
	}
	for _, tt := range test {
		bits := BytesToBools(tt.data)
		out := BoolsToBytes(bits)
		assert.Equal(t, tt.exp, out)
	}
}

func TestTextBits(t *testing.T) {
	t.Run("msb first", func(t *testing.T) {
		bits := TextToBits("A")
		assert.Equal(t, []bool{false, true, false, false, false, false, false, true}, bits)
	})

	t.Run("round trip", func(t *testing.T) {
		test := []string{
			"65f1a2b3c4d5e6f7a8b9c0d1",
			"a",
			"user@example.com|END|",
			"café",
		}
		for _, src := range test {
			assert.Equal(t, src, BitsToText(TextToBits(src)))
			assert.Len(t, TextToBits(src), 8*len([]rune(src)))
		}
	})

	t.Run("runes above 0xff are truncated", func(t *testing.T) {
		// U+3042 keeps its low byte 0x42 ('B')
		assert.Equal(t, "B", BitsToText(TextToBits("あ")))
	})

	t.Run("trailing partial octet dropped", func(t *testing.T) {
		bits := append(TextToBits("ok"), true, false, true)
		assert.Equal(t, "ok", BitsToText(bits))
	})

	t.Run("skip zero", func(t *testing.T) {
		bits := TextToBits("a\x00b\x00")
		assert.Equal(t, "a\x00b\x00", BitsToText(bits))
		assert.Equal(t, "ab", BitsToTextSkipZero(bits))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, TextToBits(""))
		assert.Equal(t, "", BitsToText(nil))
		assert.Equal(t, "", BitsToTextSkipZero([]bool{true, true}))
	})
}

func TestUint32Bits(t *testing.T) {
	test := []uint32{0, 1, 24, 1000, 0xdeadbeef}
	for _, v := range test {
		bits := Uint32ToBits(v)
		assert.Len(t, bits, 32)
		got, ok := BitsToUint32(bits)
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}

	// 24 -> ...00011000
	bits := Uint32ToBits(24)
	assert.Equal(t, []bool{true, true, false, false, false}, bits[27:])

	_, ok := BitsToUint32(make([]bool, 31))
	assert.False(t, ok)
}
