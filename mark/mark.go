package mark

import "errors"

const (
	// DefaultMaxLength is the largest length header accepted on extraction.
	DefaultMaxLength = 1000
	// DefaultMarker terminates a delimiter-framed payload.
	DefaultMarker = "|END|"
	// DefaultWindow is how many characters a delimiter search reads.
	DefaultWindow = 500
	// DefaultInterlayerOffset is the sample index of the recipient layer.
	// Each dual-layer payload, NUL included, must fit in this many bits.
	DefaultInterlayerOffset = 1000
)

var (
	ErrNotFound       = errors.New("No media ID found")
	ErrLayerCollision = errors.New("payload overflows its layer window")
	ErrEmptyPayload   = errors.New("payload is empty")
	ErrTooLong        = errors.New("payload exceeds the maximum length")
)

type (
	// BitReader reads count low-order bits starting at sample index start.
	// Fewer bits are returned when the underlying buffer is shorter.
	BitReader interface {
		ReadBits(count, start int) []bool
	}

	// Framing delimits a variable-length payload inside a fixed-capacity
	// bit channel. Embed and extract must use the same Framing; the
	// variants are not interchangeable.
	Framing interface {
		// Frame returns the bits to embed and the sample index to start at.
		Frame(payload string) (bits []bool, start int, err error)
		// Unframe recovers the payload from r.
		Unframe(r BitReader) (string, error)
		framing()
	}
)

// MaxLayerPayload is the longest payload a NullTerminated layer of the
// given window can carry without overflowing into the next layer.
func MaxLayerPayload(window int) int {
	if n := window/8 - 1; n > 0 {
		return n
	}
	return 0
}
