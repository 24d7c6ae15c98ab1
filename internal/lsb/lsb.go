package lsb

// Samples is a flat, ordered view over the lowest-order bit of every
// embeddable sample of a decoded media unit.
type Samples interface {
	Len() int
	LowBit(i int) bool
	// SetLowBit must leave every other bit of the sample untouched.
	SetLowBit(i int, bit bool)
}

// Embed writes bits[i] into sample start+i and returns how many bits were
// written. Writing stops at the end of the buffer.
func Embed(s Samples, bits []bool, start int) int {
	n := Capacity(s, start)
	if n > len(bits) {
		n = len(bits)
	}
	for i := range n {
		s.SetLowBit(start+i, bits[i])
	}
	return n
}

// Extract reads count bits starting at sample start. The result is shorter
// than count when the buffer ends first.
func Extract(s Samples, count, start int) []bool {
	n := Capacity(s, start)
	if n > count {
		n = count
	}
	if n <= 0 {
		return []bool{}
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = s.LowBit(start + i)
	}
	return bits
}

// Capacity is the number of bits that fit from start to the end of s.
func Capacity(s Samples, start int) int {
	if start < 0 {
		return 0
	}
	if n := s.Len() - start; n > 0 {
		return n
	}
	return 0
}

// Reader adapts Samples to the bit reader used by the framing strategies.
type Reader struct {
	s Samples
}

func NewReader(s Samples) Reader {
	return Reader{s: s}
}

func (r Reader) ReadBits(count, start int) []bool {
	return Extract(r.s, count, start)
}
