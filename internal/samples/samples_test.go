package samples

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/watermark_lsb/internal/lsb"
)

func TestPixImages(t *testing.T) {
	rect := image.Rect(0, 0, 3, 2)
	test := []struct {
		name     string
		src      func() image.Image
		channels int
		keepType bool
	}{
		{"nrgba", func() image.Image { return image.NewNRGBA(rect) }, 3, true},
		{"rgba opaque", func() image.Image {
			img := image.NewRGBA(rect)
			for i := 3; i < len(img.Pix); i += 4 {
				img.Pix[i] = 0xff
			}
			return img
		}, 3, true},
		{"rgba translucent", func() image.Image { return image.NewRGBA(rect) }, 3, false},
		{"nrgba64", func() image.Image { return image.NewNRGBA64(rect) }, 3, true},
		{"gray", func() image.Image { return image.NewGray(rect) }, 1, true},
		{"gray16", func() image.Image { return image.NewGray16(rect) }, 1, true},
		{"paletted", func() image.Image {
			return image.NewPaletted(rect, color.Palette{color.Black, color.White, color.Gray{0x80}})
		}, 1, true},
		{"ycbcr", func() image.Image {
			return image.NewYCbCr(rect, image.YCbCrSubsampleRatio444)
		}, 3, false},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.src()
			p, img := NewImage(src)
			assert.Equal(t, rect.Dx()*rect.Dy()*tt.channels, p.Len())
			assert.Equal(t, tt.channels, p.Channels())
			if tt.keepType {
				assert.Same(t, src, img)
			} else {
				assert.NotSame(t, src, img)
			}

			bits := []bool{true, false, true, true, false, true}
			n := lsb.Embed(p, bits, 0)
			assert.Equal(t, min(len(bits), p.Len()), n)
			assert.Equal(t, bits[:n], lsb.Extract(p, len(bits), 0))
		})
	}
}

func TestPixChannelOrder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	copy(img.Pix, []byte{
		10, 20, 30, 40,
		50, 60, 70, 80,
	})
	p, _ := NewImage(img)
	lsb.Embed(p, []bool{true, true, true, true, true, true}, 0)

	// R, G, B of pixel 0 then pixel 1; alpha untouched
	assert.Equal(t, []byte{
		11, 21, 31, 40,
		51, 61, 71, 80,
	}, img.Pix)
}

func TestPixAlphaPassThrough(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	p, _ := NewImage(img)
	ones := make([]bool, p.Len())
	for i := range ones {
		ones[i] = i%2 == 0
	}
	lsb.Embed(p, ones, 0)
	for i := 3; i < len(img.Pix); i += 4 {
		assert.Equal(t, byte(i), img.Pix[i])
	}
}

func TestPixRowMajorWithStride(t *testing.T) {
	parent := image.NewGray(image.Rect(0, 0, 4, 4))
	sub := parent.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)
	p, _ := NewImage(sub)
	require.Equal(t, 4, p.Len())

	lsb.Embed(p, []bool{true, true, true, true}, 0)
	for y := range 4 {
		for x := range 4 {
			inside := x >= 1 && x < 3 && y >= 1 && y < 3
			want := uint8(0)
			if inside {
				want = 1
			}
			assert.Equal(t, want, parent.GrayAt(x, y).Y, "x=%d y=%d", x, y)
		}
	}
}

func TestPix16BitLowByte(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 1, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 0x1234})
	p, _ := NewImage(img)
	p.SetLowBit(0, true)
	assert.Equal(t, uint16(0x1235), img.Gray16At(0, 0).Y)
	assert.Equal(t, 0x1235, p.Value(0))
}

func TestPixPalettePadding(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, color.White, color.Gray{0x80}})
	img.Pix[0], img.Pix[1] = 2, 1
	p, _ := NewImage(img)
	require.Len(t, img.Palette, 4)
	p.SetLowBit(0, true)
	assert.Equal(t, uint8(3), img.Pix[0])
	assert.Equal(t, img.Palette[2], img.Palette[3])
}

func TestPixOutOfRange(t *testing.T) {
	p := NewRGB24(make([]byte, 2*2*3), 2, 2)
	assert.Equal(t, 12, p.Len())
	assert.NotPanics(t, func() {
		p.SetLowBit(12, true)
		p.SetLowBit(-1, true)
	})
	assert.False(t, p.LowBit(12))
	assert.Equal(t, 0, p.Value(99))
}

func TestPCM(t *testing.T) {
	p := PCM{100, -3, 7, 0}
	assert.Equal(t, 4, p.Len())
	lsb.Embed(p, []bool{true, false, false, true, true}, 0)
	assert.Equal(t, PCM{101, -4, 6, 1}, p)
	assert.NotPanics(t, func() { p.SetLowBit(10, true) })
	assert.False(t, p.LowBit(-1))
}

func TestClone(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White, color.Black})
	c := Clone(src).(*image.Paletted)
	p, _ := NewImage(c)
	lsb.Embed(p, []bool{true, true, true, true}, 0)

	assert.Equal(t, []uint8{0, 0, 0, 0}, src.Pix)
	assert.Len(t, src.Palette, 3)
	assert.Equal(t, []uint8{1, 1, 1, 1}, c.Pix)
	assert.Len(t, c.Palette, 4)

	ycc := image.NewYCbCr(image.Rect(0, 0, 1, 1), image.YCbCrSubsampleRatio420)
	assert.Same(t, ycc, Clone(ycc))
}
