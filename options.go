package watermark

import (
	"fmt"
	"log/slog"

	"github.com/yyyoichi/watermark_lsb/internal/audioio"
	"github.com/yyyoichi/watermark_lsb/internal/videoio"
	"github.com/yyyoichi/watermark_lsb/mark"
)

// MinInterlayerOffset is the smallest layer window: one character and its
// terminator.
const MinInterlayerOffset = 16

type Option func(*Marker) error

// WithInterlayerOffset places the recipient layer n samples after the
// creator layer. Each layer may then carry at most MaxLayerPayload(n)
// characters. n must be a multiple of 8 and at least MinInterlayerOffset.
func WithInterlayerOffset(n int) Option {
	return func(w *Marker) error {
		if n < MinInterlayerOffset || n%8 != 0 {
			return fmt.Errorf("%w: interlayer offset %d must be a multiple of 8, at least %d",
				ErrInvalidOption, n, MinInterlayerOffset)
		}
		w.interlayerOffset = n
		return nil
	}
}

// WithMaxPayload bounds the single-ID payload length in characters. The same
// bound is used to validate the length header on extraction.
func WithMaxPayload(n int) Option {
	return func(w *Marker) error {
		if n <= 0 {
			return fmt.Errorf("%w: max payload %d must be positive", ErrInvalidOption, n)
		}
		w.maxPayload = n
		return nil
	}
}

// WithDelimiter switches single-ID payloads to delimiter framing: the payload
// is followed by marker and extraction searches the first window characters.
func WithDelimiter(marker string, window int) Option {
	return func(w *Marker) error {
		if marker == "" || window <= len([]rune(marker)) {
			return fmt.Errorf("%w: delimiter %q with window %d", ErrInvalidOption, marker, window)
		}
		w.framing = mark.Delimiter{Marker: marker, Window: window}
		return nil
	}
}

// WithFraming sets the single-ID framing directly.
func WithFraming(f mark.Framing) Option {
	return func(w *Marker) error {
		if f == nil {
			return fmt.Errorf("%w: nil framing", ErrInvalidOption)
		}
		w.framing = f
		return nil
	}
}

// WithGolay protects the length-prefixed header and body with a shuffled
// Golay code. Embedding and extraction must use the same seed.
func WithGolay(seed int64) Option {
	return func(w *Marker) error {
		w.code = mark.WithGolay(seed)
		return nil
	}
}

// WithTruncation lets a payload that does not fit be cut at the end of the
// buffer instead of failing with ErrTruncatedPayload.
func WithTruncation(allow bool) Option {
	return func(w *Marker) error {
		w.truncate = allow
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Marker) error {
		w.logger = logger
		return nil
	}
}

// WithVideoTranscoder replaces the ffmpeg-backed video pipeline.
func WithVideoTranscoder(t videoio.Transcoder) Option {
	return func(w *Marker) error {
		w.video = t
		return nil
	}
}

// WithAudioEncoder replaces the ffmpeg-backed mp3 encoder.
func WithAudioEncoder(e audioio.Encoder) Option {
	return func(w *Marker) error {
		w.mp3 = e
		return nil
	}
}
