package main

import (
	"context"
	"errors"
	"fmt"

	watermark "github.com/yyyoichi/watermark_lsb"
	"github.com/yyyoichi/watermark_lsb/internal/audioio"
	"github.com/yyyoichi/watermark_lsb/internal/imageio"
	"github.com/yyyoichi/watermark_lsb/internal/quality"
	"github.com/yyyoichi/watermark_lsb/internal/samples"
	"github.com/yyyoichi/watermark_lsb/internal/videoio"
)

type verifyOutput struct {
	Status   string  `json:"status"`
	Message  string  `json:"message,omitempty"`
	Samples  int     `json:"samples"`
	Changed  int     `json:"changed"`
	MaxDelta float64 `json:"max_delta"`
	MSE      float64 `json:"mse"`
	// PSNR is omitted when the buffers are identical.
	PSNR    *float64 `json:"psnr,omitempty"`
	LSBOnly bool     `json:"lsb_only"`
}

// verify compares the samples of an original and its marked copy and fails
// when any sample moved by more than its low bit.
func (a *app) verify(ctx context.Context, args []string) (int, error) {
	fs := a.flags("verify")
	original := fs.String("original", "", "unmarked media file")
	marked := fs.String("marked", "", "marked copy")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	if *original == "" || *marked == "" {
		return exitUsage, errors.New("verify requires -original and -marked")
	}

	r, err := a.compare(ctx, *original, *marked)
	if err != nil {
		if perr := a.print(verifyOutput{Status: watermark.StatusError, Message: err.Error()}); perr != nil {
			return exitFailed, perr
		}
		return exitFailed, err
	}
	a.logger.Info("compared", "original", *original, "marked", *marked, "report", r.String())

	out := verifyOutput{
		Status:   watermark.StatusSuccess,
		Samples:  r.Samples,
		Changed:  r.Changed,
		MaxDelta: r.MaxDelta,
		MSE:      r.MSE,
		LSBOnly:  r.LSBOnly(),
	}
	if r.MSE > 0 {
		out.PSNR = &r.PSNR
	}
	if !out.LSBOnly {
		out.Status = watermark.StatusError
		out.Message = "samples changed beyond the low bit"
	}
	if err := a.print(out); err != nil {
		return exitFailed, err
	}
	if !out.LSBOnly {
		return exitFailed, nil
	}
	return exitOK, nil
}

func (a *app) compare(ctx context.Context, original, marked string) (quality.Report, error) {
	media := watermark.Classify(original)
	if media == watermark.MediaUnknown || watermark.Classify(marked) != media {
		return quality.Report{}, watermark.ErrUnsupportedType
	}
	o, depth, err := a.load(ctx, media, original)
	if err != nil {
		return quality.Report{}, fmt.Errorf("%s: %w", original, err)
	}
	m, _, err := a.load(ctx, media, marked)
	if err != nil {
		return quality.Report{}, fmt.Errorf("%s: %w", marked, err)
	}
	return quality.Compare(o, m, depth)
}

// load decodes the samples an embed would have touched, and their bit depth.
func (a *app) load(ctx context.Context, media watermark.MediaType, path string) (quality.Sampler, int, error) {
	switch media {
	case watermark.MediaImage:
		img, _, err := imageio.Read(path)
		if err != nil {
			return nil, 0, err
		}
		p, _ := samples.NewImage(img)
		return p, p.BitDepth(), nil
	case watermark.MediaAudio:
		clip, err := audioio.Read(path)
		if err != nil {
			return nil, 0, err
		}
		return samples.PCM(clip.Samples), clip.BitDepth, nil
	}
	v := videoio.FFmpeg{Tool: a.cfg.Tool(a.logger)}
	f, err := v.FirstFrame(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return samples.NewRGB24(f.Pix, f.Width, f.Height), 8, nil
}
