package mark

import (
	"math/rand"

	"github.com/yyyoichi/bitstream-go"
	"github.com/yyyoichi/golay"
)

var (
	DefaultShuffleSeed int64 = 1234567890
)

// Code is an error correcting code applied to a framed bit sequence.
type Code interface {
	Encode(bits []bool) []bool
	// Decode returns the first size data bits recovered from bits.
	Decode(bits []bool, size int) []bool
	EncodedLen(size int) int
}

// WithoutECC writes the bits as they are.
func WithoutECC() Code {
	return withoutecc{}
}

// WithGolay protects bits with the extended Golay(24,12) code.
// seed is the seed value for shuffling the encoded bits, so that a run of
// damaged samples is spread over several code words.
func WithGolay(seed int64) Code {
	return shuffledgolay(seed)
}

var _ Code = (*shuffledgolay)(nil)

type shuffledgolay int64

func (sg shuffledgolay) Encode(bits []bool) []bool {
	if len(bits) == 0 {
		return nil
	}
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range bits {
		w.WriteBool(v)
	}
	var encoded []uint64
	enc := golay.NewEncoder(&encoded)
	_ = enc.Encode(w.Data(), len(bits))
	encodedLen := enc.Bits()

	// shuffle
	index := sg.generatePermutation(encodedLen)
	r := bitstream.NewBitReader(encoded, 0, 0)
	out := make([]bool, encodedLen)
	for i := range out {
		out[i], _ = r.ReadBitAt(index[i])
	}
	return out
}

func (sg shuffledgolay) Decode(bits []bool, size int) []bool {
	out := make([]bool, size)
	if len(bits) == 0 || size == 0 {
		return out
	}
	// reverse shuffle: create same permutation then apply inverse
	index := sg.generatePermutation(len(bits))
	w := bitstream.NewBitWriter[uint64](0, 0)
	for i := range bits {
		w.WriteBitAt(index[i], bits[i])
	}

	var decoded []uint64
	dec := golay.NewDecoder(w.Data(), w.Bits())
	_ = dec.Decode(&decoded)

	r := bitstream.NewBitReader(decoded, 0, 0)
	for i := range out {
		out[i], _ = r.ReadBitAt(i)
	}
	return out
}

func (sg shuffledgolay) EncodedLen(size int) int {
	return golay.EncodedBits(size)
}

func (sg shuffledgolay) generatePermutation(length int) []int {
	index := make([]int, length)
	for i := range index {
		index[i] = i
	}
	rd := rand.New(rand.NewSource(int64(sg)))
	rd.Shuffle(length, func(i, j int) {
		index[i], index[j] = index[j], index[i]
	})
	return index
}

var _ Code = (*withoutecc)(nil)

type withoutecc struct{}

func (withoutecc) Encode(bits []bool) []bool {
	return append([]bool(nil), bits...)
}

func (withoutecc) Decode(bits []bool, size int) []bool {
	out := make([]bool, size)
	copy(out, bits)
	return out
}

func (withoutecc) EncodedLen(size int) int {
	return size
}
