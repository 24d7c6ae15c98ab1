// Package strmark converts identifier strings to and from the bit sequences
// written into sample low bits.
//
// Every rune is stored as a single byte, so only Latin-1 text round-trips.
// Runes above U+00FF keep their low 8 bits.
package strmark

import "github.com/yyyoichi/watermark_lsb/internal/bitconv"

type Mark interface {
	Encode(src string) (mark []bool, err error)
	Decode(mark []bool) (src string, err error)
}

// Encode encodes the input string into a slice of booleans, 8 bits per rune,
// most significant bit first.
func Encode(src string) []bool {
	return bitconv.TextToBits(src)
}

// Decode decodes the input slice of booleans back into a string. A trailing
// partial byte is dropped.
func Decode(mark []bool) string {
	return bitconv.BitsToText(mark)
}

// DecodeSkipZero is Decode with every 0x00 byte removed.
func DecodeSkipZero(mark []bool) string {
	return bitconv.BitsToTextSkipZero(mark)
}

var _ Mark = (*StrMark)(nil)

type StrMark struct {
	skipZero bool
}

func New() Mark {
	return &StrMark{}
}

// NewSkipZero returns a Mark whose Decode drops 0x00 bytes.
func NewSkipZero() Mark {
	return &StrMark{skipZero: true}
}

func (sm *StrMark) Encode(src string) ([]bool, error) {
	return Encode(src), nil
}

func (sm *StrMark) Decode(mark []bool) (src string, err error) {
	if sm.skipZero {
		return DecodeSkipZero(mark), nil
	}
	return Decode(mark), nil
}
