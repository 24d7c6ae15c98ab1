// Package watermark hides short text identifiers in the least significant
// bits of image, video and audio samples.
//
// Two schemes are offered. A single identifier can be written at the start of
// the medium and looked up later, or a creator layer and a recipient layer
// can be stacked to trace which recipient leaked a copy. Only bit 0 of the
// touched samples changes, so the marks survive lossless containers only.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/yyyoichi/watermark_lsb/internal/audioio"
	"github.com/yyyoichi/watermark_lsb/internal/ffmpeg"
	"github.com/yyyoichi/watermark_lsb/internal/imageio"
	"github.com/yyyoichi/watermark_lsb/internal/samples"
	"github.com/yyyoichi/watermark_lsb/internal/videoio"
	"github.com/yyyoichi/watermark_lsb/mark"
)

// Embed writes payload into the medium at input and stores the result at
// output. This is a convenience function that creates a Marker instance and
// calls its Embed method.
func Embed(ctx context.Context, input, payload, output string, mode Mode, opts ...Option) Result {
	w, err := New(opts...)
	if err != nil {
		return failed(err)
	}
	return w.Embed(ctx, input, payload, output, mode)
}

// Extract recovers the payload of the medium at input. This is a convenience
// function that creates a Marker instance and calls its Extract method.
func Extract(ctx context.Context, input string, mode Mode, opts ...Option) Result {
	w, err := New(opts...)
	if err != nil {
		return failed(err)
	}
	return w.Extract(ctx, input, mode)
}

// Marker embeds and extracts identifiers. It holds no per-call state and is
// safe for concurrent use.
type Marker struct {
	interlayerOffset int
	maxPayload       int
	framing          mark.Framing
	code             mark.Code
	truncate         bool

	logger *slog.Logger
	video  videoio.Transcoder
	mp3    audioio.Encoder
}

// New initializes a Marker.
// For default values, refer to the init function.
func New(opts ...Option) (*Marker, error) {
	w := new(Marker)
	if err := w.init(opts...); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Marker) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return err
		}
	}
	if w.interlayerOffset == 0 {
		w.interlayerOffset = mark.DefaultInterlayerOffset
	}
	if w.maxPayload == 0 {
		w.maxPayload = mark.DefaultMaxLength
	}
	if w.framing == nil {
		w.framing = mark.LengthPrefixed{Max: w.maxPayload, Code: w.code}
	} else if w.code != nil {
		return fmt.Errorf("%w: golay requires length-prefixed framing", ErrInvalidOption)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	tool := ffmpeg.Tool{Logger: w.logger}
	if w.video == nil {
		w.video = videoio.FFmpeg{Tool: tool}
	}
	if w.mp3 == nil {
		w.mp3 = audioio.FFmpegMP3{Tool: tool}
	}
	return nil
}

// Embed writes payload into the medium at input and stores the marked copy
// at output, which must carry an extension of the same media type.
//
// Process:
//  1. Classifies input by extension; unknown types fail before any decode.
//  2. Frames the payload for mode and checks layer bounds.
//  3. Decodes the samples: all pixels of an image, the first frame of a
//     video, or the whole PCM stream of an audio file.
//  4. Writes one framed bit into the low bit of each consecutive sample.
//  5. Re-encodes to a temporary file beside output and renames it into place.
//
// Fails with ErrTruncatedPayload when the medium is too small, unless
// WithTruncation(true) is set.
func (w *Marker) Embed(ctx context.Context, input, payload, output string, mode Mode) (res Result) {
	logger := w.logger.With("op", "embed", "input", input, "mode", mode)
	media := Classify(input)
	if media == MediaUnknown {
		return w.fail(logger, ErrUnsupportedType)
	}
	logger = logger.With("media", media)
	if out := Classify(output); out != media {
		return w.fail(logger, fmt.Errorf("%w: output %s is not %s", ErrUnsupportedType, output, media))
	}
	defer w.recoverPanic(logger, &res)

	framed, err := w.frame(payload, mode)
	if err != nil {
		return w.fail(logger, err)
	}
	logger.Debug("embedding", "bits", len(framed.bits), "start", framed.start)

	switch media {
	case MediaImage:
		err = w.embedImageFile(logger, input, output, framed)
	case MediaAudio:
		err = w.embedAudioFile(ctx, logger, input, output, framed)
	case MediaVideo:
		err = w.embedVideoFile(ctx, logger, input, output, framed)
	}
	if err != nil {
		return w.fail(logger, err)
	}
	logger.Info("embedded", "output", output)
	return Result{Status: StatusSuccess, FilePath: output}
}

// Extract recovers the payload of the medium at input. ModeSingleID yields
// MediaID; the layer modes yield a Trace.
func (w *Marker) Extract(ctx context.Context, input string, mode Mode) (res Result) {
	logger := w.logger.With("op", "extract", "input", input, "mode", mode)
	media := Classify(input)
	if media == MediaUnknown {
		return w.fail(logger, ErrUnsupportedType)
	}
	logger = logger.With("media", media)
	mode, err := ParseMode(string(mode))
	if err != nil {
		return w.fail(logger, err)
	}
	defer w.recoverPanic(logger, &res)

	var s readSamples
	switch media {
	case MediaImage:
		img, _, err := imageio.Read(input)
		if err != nil {
			return w.fail(logger, decodeFailure(err))
		}
		s, _ = samples.NewImage(img)
	case MediaAudio:
		clip, err := audioio.Read(input)
		if err != nil {
			return w.fail(logger, decodeFailure(err))
		}
		s = samples.PCM(clip.Samples)
	case MediaVideo:
		frame, err := w.video.FirstFrame(ctx, input)
		if err != nil {
			return w.fail(logger, decodeFailure(err))
		}
		s = samples.NewRGB24(frame.Pix, frame.Width, frame.Height)
	}

	res = w.extract(s, mode)
	if !res.OK() {
		return w.fail(logger, res.Err)
	}
	logger.Info("extracted", "result", res.String())
	return res
}

func (w *Marker) embedImageFile(logger *slog.Logger, input, output string, framed framedPayload) error {
	img, inFormat, err := imageio.Read(input)
	if err != nil {
		return decodeFailure(err)
	}
	if inFormat == imageio.GIF {
		if n, err := imageio.GIFFrames(input); err == nil && n > 1 {
			logger.Warn("only the first gif frame is kept", "frames", n)
		}
	}
	format, err := imageio.FormatOf(output)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedType, err)
	}
	s, marked := samples.NewImage(img)
	if err := w.write(logger, s, framed); err != nil {
		return err
	}
	if !format.Lossless(marked) {
		logger.Warn("output format does not keep low bits", "format", format)
	}
	return writeAtomic(output, func(f io.Writer) error {
		return imageio.Encode(f, marked, format)
	})
}

func (w *Marker) embedAudioFile(ctx context.Context, logger *slog.Logger, input, output string, framed framedPayload) error {
	clip, err := audioio.Read(input)
	if err != nil {
		return decodeFailure(err)
	}
	if err := w.write(logger, samples.PCM(clip.Samples), framed); err != nil {
		return err
	}
	if format, _ := audioio.FormatOf(output); format == audioio.MP3 {
		logger.Warn("output format does not keep low bits", "format", format)
	}
	return writeAtomicPath(ctx, output, func(tmp string) error {
		return audioio.Write(ctx, tmp, clip, w.mp3)
	})
}

func (w *Marker) embedVideoFile(ctx context.Context, logger *slog.Logger, input, output string, framed framedPayload) error {
	return writeAtomicPath(ctx, output, func(tmp string) error {
		err := w.video.Rewrite(ctx, input, tmp, func(f *videoio.Frame) error {
			return w.write(logger, samples.NewRGB24(f.Pix, f.Width, f.Height), framed)
		})
		if errors.Is(err, videoio.ErrNoFrame) {
			return decodeFailure(err)
		}
		return err
	})
}

func (w *Marker) fail(logger *slog.Logger, err error) Result {
	logger.Error("watermark operation failed", "error", err)
	return failed(err)
}

// recoverPanic turns a panic from a third-party decoder into a decode failure.
func (w *Marker) recoverPanic(logger *slog.Logger, res *Result) {
	if r := recover(); r != nil {
		*res = w.fail(logger, fmt.Errorf("%w: panic: %v", ErrDecodeFailure, r))
	}
}

func decodeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrDecodeFailure, err)
}
