package mark

import (
	"fmt"
	"strings"

	"github.com/yyyoichi/watermark_lsb/internal/bitconv"
	"github.com/yyyoichi/watermark_lsb/strmark"
)

var (
	_ Framing = LengthPrefixed{}
	_ Framing = Delimiter{}
	_ Framing = NullTerminated{}
)

const headerBits = 32

// LengthPrefixed writes a 32-bit big-endian character count followed by the
// payload bits, starting at sample 0.
//
// Frame rejects payloads longer than Max characters. On extraction a header
// outside (0, Max] or a body cut short by the buffer falls back to a
// Delimiter search with default settings.
type LengthPrefixed struct {
	// Max bounds the accepted header. Zero means DefaultMaxLength.
	Max int
	// Code optionally protects header and body. Nil writes raw bits.
	Code Code
}

func (f LengthPrefixed) Frame(payload string) ([]bool, int, error) {
	if payload == "" {
		return nil, 0, ErrEmptyPayload
	}
	body := strmark.Encode(payload)
	if n := len(body) / 8; n > f.max() {
		return nil, 0, fmt.Errorf("%w: %d > %d characters", ErrTooLong, n, f.max())
	}
	code := f.code()
	header := code.Encode(bitconv.Uint32ToBits(uint32(len(body) / 8)))
	return append(header, code.Encode(body)...), 0, nil
}

func (f LengthPrefixed) Unframe(r BitReader) (string, error) {
	code := f.code()
	headerLen := code.EncodedLen(headerBits)
	header := r.ReadBits(headerLen, 0)
	if len(header) == headerLen {
		length, _ := bitconv.BitsToUint32(code.Decode(header, headerBits))
		if length > 0 && int64(length) <= int64(f.max()) {
			size := int(length) * 8
			bodyLen := code.EncodedLen(size)
			body := r.ReadBits(bodyLen, headerLen)
			if len(body) == bodyLen {
				return strmark.DecodeSkipZero(code.Decode(body, size)), nil
			}
		}
	}
	return Delimiter{}.Unframe(r)
}

func (f LengthPrefixed) max() int {
	if f.Max > 0 {
		return f.Max
	}
	return DefaultMaxLength
}

func (f LengthPrefixed) code() Code {
	if f.Code == nil {
		return WithoutECC()
	}
	return f.Code
}

func (LengthPrefixed) framing() {}

// Delimiter appends Marker to the payload and writes it from sample 0.
// Extraction reads Window characters and keeps the text before the first
// Marker, trimmed of surrounding whitespace. Frame rejects payloads whose
// marker would end past Window.
type Delimiter struct {
	Marker string
	Window int
}

func (f Delimiter) Frame(payload string) ([]bool, int, error) {
	if payload == "" {
		return nil, 0, ErrEmptyPayload
	}
	if n := len([]rune(payload)) + len([]rune(f.marker())); n > f.window() {
		return nil, 0, fmt.Errorf("%w: %d characters with marker > window %d", ErrTooLong, n, f.window())
	}
	return strmark.Encode(payload + f.marker()), 0, nil
}

func (f Delimiter) Unframe(r BitReader) (string, error) {
	text := strmark.DecodeSkipZero(r.ReadBits(f.window()*8, 0))
	before, _, found := strings.Cut(text, f.marker())
	if !found {
		return "", ErrNotFound
	}
	return strings.TrimSpace(before), nil
}

func (f Delimiter) marker() string {
	if f.Marker == "" {
		return DefaultMarker
	}
	return f.Marker
}

func (f Delimiter) window() int {
	if f.Window > 0 {
		return f.Window
	}
	return DefaultWindow
}

func (Delimiter) framing() {}

// NullTerminated writes payload+NUL at sample Offset. It is the layer format
// of the dual-layer scheme: extraction reads Window bits at Offset and splits
// at the first NUL.
//
// Frame rejects payloads whose framed length exceeds Window, so a layer can
// never spill into the one placed Window samples later.
type NullTerminated struct {
	Offset int
	// Window is the bit budget of the layer. Zero means DefaultInterlayerOffset.
	Window int
}

func (f NullTerminated) Frame(payload string) ([]bool, int, error) {
	bits := strmark.Encode(payload + "\x00")
	if len(bits) > f.window() {
		return nil, 0, fmt.Errorf("%w: %d bits > window %d (max %d characters)",
			ErrLayerCollision, len(bits), f.window(), MaxLayerPayload(f.window()))
	}
	return bits, f.Offset, nil
}

func (f NullTerminated) Unframe(r BitReader) (string, error) {
	text := strmark.Decode(r.ReadBits(f.window(), f.Offset))
	before, _, found := strings.Cut(text, "\x00")
	if !found {
		return "", ErrNotFound
	}
	return before, nil
}

func (f NullTerminated) window() int {
	if f.Window > 0 {
		return f.Window
	}
	return DefaultInterlayerOffset
}

func (NullTerminated) framing() {}
