package bitconv

import "encoding/binary"

func BytesToBools(b []byte) []bool {
	bits := make([]bool, 0, len(b)*8)
	for _, bb := range b {
		for i := 7; i >= 0; i-- {
			bits = append(bits, ((bb>>uint(i))&1) == 1)
		}
	}
	return bits
}

func BoolsToBytes(bits []bool) []byte {
	// calculate padded length without modifying input
	n := len(bits)
	paddedLen := n
	if n%8 != 0 {
		paddedLen += 8 - (n % 8)
	}

	// create padded copy
	paddedBits := make([]bool, paddedLen)
	copy(paddedBits, bits)

	out := make([]byte, paddedLen/8)
	for i := 0; i < len(out); i++ {
		var v byte
		for j := 0; j < 8; j++ {
			if paddedBits[i*8+j] {
				v |= 1 << uint(7-j)
			}
		}
		out[i] = v
	}
	return out
}

// TextToBytes maps every rune of s to one byte.
// Runes above 0xFF keep only their low 8 bits; the mapping is lossy for them.
func TextToBytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}

// BytesToText is the inverse of TextToBytes: each byte becomes the rune with
// the same code point.
func BytesToText(b []byte) string {
	rs := make([]rune, len(b))
	for i, c := range b {
		rs[i] = rune(c)
	}
	return string(rs)
}

// TextToBits expands s to 8 bits per rune, most significant bit first.
func TextToBits(s string) []bool {
	return BytesToBools(TextToBytes(s))
}

// BitsToText groups bits into octets and decodes them with BytesToText.
// A trailing incomplete octet is dropped.
func BitsToText(bits []bool) string {
	return BytesToText(wholeBytes(bits))
}

// BitsToTextSkipZero behaves like BitsToText but drops every NUL octet.
func BitsToTextSkipZero(bits []bool) string {
	b := wholeBytes(bits)
	kept := b[:0]
	for _, c := range b {
		if c != 0 {
			kept = append(kept, c)
		}
	}
	return BytesToText(kept)
}

func Uint32ToBits(v uint32) []bool {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return BytesToBools(b[:])
}

// BitsToUint32 reads a big-endian header from the first 32 bits.
// ok is false when fewer than 32 bits are given.
func BitsToUint32(bits []bool) (v uint32, ok bool) {
	if len(bits) < 32 {
		return 0, false
	}
	return binary.BigEndian.Uint32(BoolsToBytes(bits[:32])), true
}

func wholeBytes(bits []bool) []byte {
	return BoolsToBytes(bits[:len(bits)-len(bits)%8])
}
