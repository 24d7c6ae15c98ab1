package watermark

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/yyyoichi/watermark_lsb/internal/lsb"
	"github.com/yyyoichi/watermark_lsb/internal/samples"
	"github.com/yyyoichi/watermark_lsb/mark"
)

type readSamples interface {
	Len() int
	LowBit(i int) bool
}

// readOnly hides SetLowBit so extraction cannot write.
type readOnly struct {
	readSamples
}

func (readOnly) SetLowBit(int, bool) {}

type framedPayload struct {
	bits  []bool
	start int
}

// framingFor returns the strategy for mode. Embedding ModeDualLayer is invalid.
func (w *Marker) framingFor(mode Mode) (mark.Framing, error) {
	switch mode {
	case ModeSingleID:
		return w.framing, nil
	case ModeSource:
		return w.layer(0), nil
	case ModeForensic:
		return w.layer(w.interlayerOffset), nil
	}
	return nil, fmt.Errorf("%w: cannot embed with %q", ErrInvalidMode, mode)
}

func (w *Marker) layer(offset int) mark.NullTerminated {
	return mark.NullTerminated{Offset: offset, Window: w.interlayerOffset}
}

func (w *Marker) frame(payload string, mode Mode) (framedPayload, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return framedPayload{}, err
	}
	f, err := w.framingFor(mode)
	if err != nil {
		return framedPayload{}, err
	}
	bits, start, err := f.Frame(payload)
	if err != nil {
		return framedPayload{}, err
	}
	return framedPayload{bits: bits, start: start}, nil
}

func (w *Marker) write(logger *slog.Logger, s lsb.Samples, framed framedPayload) error {
	need := framed.start + len(framed.bits)
	if need > s.Len() && !w.truncate {
		return fmt.Errorf("%w: %d bits needed, %d samples available", ErrTruncatedPayload, need, s.Len())
	}
	if n := lsb.Embed(s, framed.bits, framed.start); n < len(framed.bits) {
		logger.Warn("payload truncated", "written", n, "bits", len(framed.bits))
	}
	return nil
}

func (w *Marker) extract(s readSamples, mode Mode) Result {
	r := lsb.NewReader(readOnly{s})
	if !mode.dual() {
		payload, err := w.framing.Unframe(r)
		if err != nil {
			return failed(err)
		}
		return Result{Status: StatusSuccess, MediaID: payload}
	}

	creator, cerr := w.layer(0).Unframe(r)
	recipient, rerr := w.layer(w.interlayerOffset).Unframe(r)
	if cerr != nil && rerr != nil {
		return failed(ErrNotFound)
	}
	return Result{Status: StatusSuccess, Trace: &Trace{
		OriginalCreator:   layerValue(creator, cerr),
		LeakedByRecipient: layerValue(recipient, rerr),
	}}
}

func layerValue(v string, err error) string {
	if errors.Is(err, mark.ErrNotFound) {
		return Unknown
	}
	return v
}

// EmbedImage returns a copy of src carrying payload. Images whose pixel layout
// cannot be addressed directly come back as *image.NRGBA.
func (w *Marker) EmbedImage(src image.Image, payload string, mode Mode) (image.Image, error) {
	framed, err := w.frame(payload, mode)
	if err != nil {
		return nil, err
	}
	s, marked := samples.NewImage(samples.Clone(src))
	if err := w.write(w.logger, s, framed); err != nil {
		return nil, err
	}
	return marked, nil
}

// ExtractImage reads the payload of img without modifying it.
func (w *Marker) ExtractImage(img image.Image, mode Mode) Result {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return failed(err)
	}
	s, _ := samples.NewImage(samples.Clone(img))
	return w.extract(s, mode)
}

// EmbedPCM returns a copy of the interleaved samples carrying payload.
func (w *Marker) EmbedPCM(pcm []int, payload string, mode Mode) ([]int, error) {
	framed, err := w.frame(payload, mode)
	if err != nil {
		return nil, err
	}
	marked := append([]int(nil), pcm...)
	if err := w.write(w.logger, samples.PCM(marked), framed); err != nil {
		return nil, err
	}
	return marked, nil
}

// ExtractPCM reads the payload of interleaved samples.
func (w *Marker) ExtractPCM(pcm []int, mode Mode) Result {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return failed(err)
	}
	return w.extract(samples.PCM(pcm), mode)
}
