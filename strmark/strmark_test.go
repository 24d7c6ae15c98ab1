package strmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrMark(t *testing.T) {
	test := []struct {
		name     string
		mark     Mark
		src      string
		expected string
	}{
		{"ascii", New(), "65f1a2b3", "65f1a2b3"},
		{"latin1", New(), "café", "café"},
		{"wide rune keeps low byte", New(), "あ", "B"},
		{"nul kept", New(), "a\x00b", "a\x00b"},
		{"nul skipped", NewSkipZero(), "a\x00b", "ab"},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			bits, err := tt.mark.Encode(tt.src)
			require.NoError(t, err)
			assert.Len(t, bits, 8*len([]rune(tt.src)))

			got, err := tt.mark.Decode(bits)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecodePartialByte(t *testing.T) {
	bits := append(Encode("ok"), true, false, true)
	assert.Equal(t, "ok", Decode(bits))
	assert.Equal(t, "", Decode(bits[:7]))
}
