// Package quality measures how far a marked sample buffer drifted from its
// original.
package quality

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrLengthMismatch = errors.New("sample counts differ")

// Sampler is a read-only sample sequence.
type Sampler interface {
	Len() int
	Value(i int) int
}

type Report struct {
	Samples  int
	Changed  int
	MaxDelta float64
	// MeanDelta is the signed average of marked minus original.
	MeanDelta float64
	MSE       float64
	// PSNR in dB. +Inf when both buffers are identical.
	PSNR float64
}

// LSBOnly reports whether no sample moved by more than one step.
func (r Report) LSBOnly() bool {
	return r.MaxDelta <= 1
}

func (r Report) String() string {
	return fmt.Sprintf("samples=%d changed=%d max_delta=%.0f mse=%.6f psnr=%.2fdB",
		r.Samples, r.Changed, r.MaxDelta, r.MSE, r.PSNR)
}

// Compare computes the distortion of marked against original for samples
// of the given bit depth.
func Compare(original, marked Sampler, bitDepth int) (Report, error) {
	n := original.Len()
	if n != marked.Len() {
		return Report{}, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, n, marked.Len())
	}
	r := Report{Samples: n, PSNR: math.Inf(1)}
	if n == 0 {
		return r, nil
	}

	diff := make([]float64, n)
	for i := range diff {
		diff[i] = float64(marked.Value(i) - original.Value(i))
	}
	r.Changed = floats.Count(func(v float64) bool { return v != 0 }, diff)
	r.MeanDelta = stat.Mean(diff, nil)
	r.MSE = floats.Dot(diff, diff) / float64(n)
	r.MaxDelta = floats.Norm(diff, math.Inf(1))
	if r.MSE > 0 {
		peak := math.Exp2(float64(bitDepth)) - 1
		r.PSNR = 10 * math.Log10(peak*peak/r.MSE)
	}
	return r, nil
}

// Ints adapts a plain sample slice.
type Ints []int

func (s Ints) Len() int        { return len(s) }
func (s Ints) Value(i int) int { return s[i] }
