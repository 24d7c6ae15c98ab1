package samples

import (
	"image"
	"image/color"

	"github.com/yyyoichi/watermark_lsb/internal/lsb"
	"golang.org/x/image/draw"
)

var _ lsb.Samples = (*Pix)(nil)

// Pix exposes the colour channels of an interleaved pixel buffer as one
// sample sequence: pixels in row-major order, and within a pixel the
// channels listed in lsbOffsets (R, G, B; alpha is never listed).
type Pix struct {
	pix           []byte
	width, height int
	stride        int
	pixelSize     int
	// byte offset, inside a pixel, of the least significant byte of each channel
	lsbOffsets []int
}

func newPix(pix []byte, rect image.Rectangle, stride, pixelSize int, lsbOffsets ...int) *Pix {
	return &Pix{
		pix:        pix,
		width:      rect.Dx(),
		height:     rect.Dy(),
		stride:     stride,
		pixelSize:  pixelSize,
		lsbOffsets: lsbOffsets,
	}
}

// NewRGB24 wraps a packed rgb24 frame, the layout ffmpeg emits for
// -pix_fmt rgb24.
func NewRGB24(pix []byte, width, height int) *Pix {
	return newPix(pix, image.Rect(0, 0, width, height), width*3, 3, 0, 1, 2)
}

// NewImage returns a Pix view writing straight into src when its layout is
// addressable; otherwise src is first converted to *image.NRGBA. The returned
// image is the one the view writes into and the one to encode afterwards.
func NewImage(src image.Image) (*Pix, image.Image) {
	switch img := src.(type) {
	case *image.NRGBA:
		return newPix(img.Pix, img.Rect, img.Stride, 4, 0, 1, 2), img
	case *image.RGBA:
		if img.Opaque() {
			return newPix(img.Pix, img.Rect, img.Stride, 4, 0, 1, 2), img
		}
	case *image.NRGBA64:
		return newPix(img.Pix, img.Rect, img.Stride, 8, 1, 3, 5), img
	case *image.RGBA64:
		if img.Opaque() {
			return newPix(img.Pix, img.Rect, img.Stride, 8, 1, 3, 5), img
		}
		dst := image.NewNRGBA64(img.Rect)
		draw.Draw(dst, dst.Rect, img, img.Rect.Min, draw.Src)
		return newPix(dst.Pix, dst.Rect, dst.Stride, 8, 1, 3, 5), dst
	case *image.Gray:
		return newPix(img.Pix, img.Rect, img.Stride, 1, 0), img
	case *image.Gray16:
		return newPix(img.Pix, img.Rect, img.Stride, 2, 1), img
	case *image.Paletted:
		padPalette(img)
		return newPix(img.Pix, img.Rect, img.Stride, 1, 0), img
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Rect, src, src.Bounds().Min, draw.Src)
	return newPix(dst.Pix, dst.Rect, dst.Stride, 4, 0, 1, 2), dst
}

// padPalette makes the palette length even so that flipping the low bit of
// any used index still points at a palette entry.
func padPalette(img *image.Paletted) {
	if len(img.Palette) == 0 {
		img.Palette = color.Palette{color.Black, color.White}
		return
	}
	if len(img.Palette)%2 == 1 {
		img.Palette = append(img.Palette, img.Palette[len(img.Palette)-1])
	}
}

func (p *Pix) Len() int {
	return p.width * p.height * len(p.lsbOffsets)
}

func (p *Pix) LowBit(i int) bool {
	at, ok := p.offset(i)
	return ok && p.pix[at]&1 == 1
}

func (p *Pix) SetLowBit(i int, bit bool) {
	at, ok := p.offset(i)
	if !ok {
		return
	}
	if bit {
		p.pix[at] |= 1
	} else {
		p.pix[at] &^= 1
	}
}

func (p *Pix) offset(i int) (int, bool) {
	if i < 0 || i >= p.Len() {
		return 0, false
	}
	channels := len(p.lsbOffsets)
	px, ch := i/channels, i%channels
	x, y := px%p.width, px/p.width
	return y*p.stride + x*p.pixelSize + p.lsbOffsets[ch], true
}

// Channels is the number of samples per pixel.
func (p *Pix) Channels() int {
	return len(p.lsbOffsets)
}

// Value returns the full sample value (8 or 16 bit) at index i.
func (p *Pix) Value(i int) int {
	at, ok := p.offset(i)
	if !ok {
		return 0
	}
	// 16-bit channels are stored big-endian; the LSB byte follows the MSB byte
	if p.pixelSize == 2 || p.pixelSize == 8 {
		return int(p.pix[at-1])<<8 | int(p.pix[at])
	}
	return int(p.pix[at])
}

// BitDepth is 16 for 16-bit channel layouts and 8 otherwise.
func (p *Pix) BitDepth() int {
	if p.pixelSize == 2 || p.pixelSize == 8 {
		return 16
	}
	return 8
}

// Clone returns a deep copy of src when NewImage would write into it, and
// src itself otherwise.
func Clone(src image.Image) image.Image {
	switch img := src.(type) {
	case *image.NRGBA:
		c := *img
		c.Pix = append([]byte(nil), img.Pix...)
		return &c
	case *image.RGBA:
		c := *img
		c.Pix = append([]byte(nil), img.Pix...)
		return &c
	case *image.NRGBA64:
		c := *img
		c.Pix = append([]byte(nil), img.Pix...)
		return &c
	case *image.RGBA64:
		c := *img
		c.Pix = append([]byte(nil), img.Pix...)
		return &c
	case *image.Gray:
		c := *img
		c.Pix = append([]byte(nil), img.Pix...)
		return &c
	case *image.Gray16:
		c := *img
		c.Pix = append([]byte(nil), img.Pix...)
		return &c
	case *image.Paletted:
		c := *img
		c.Pix = append([]byte(nil), img.Pix...)
		c.Palette = append(color.Palette(nil), img.Palette...)
		return &c
	}
	return src
}
