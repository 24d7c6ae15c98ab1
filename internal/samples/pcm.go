package samples

import "github.com/yyyoichi/watermark_lsb/internal/lsb"

var _ lsb.Samples = PCM(nil)

// PCM is a flat sequence of interleaved integer audio samples in playback
// order. Multi-channel audio is not split per channel.
type PCM []int

func (p PCM) Len() int {
	return len(p)
}

func (p PCM) LowBit(i int) bool {
	if i < 0 || i >= len(p) {
		return false
	}
	return p[i]&1 == 1
}

func (p PCM) SetLowBit(i int, bit bool) {
	if i < 0 || i >= len(p) {
		return
	}
	if bit {
		p[i] |= 1
	} else {
		p[i] &^= 1
	}
}

func (p PCM) Value(i int) int {
	if i < 0 || i >= len(p) {
		return 0
	}
	return p[i]
}
