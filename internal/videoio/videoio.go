// Package videoio decodes video containers into raw rgb24 frames and
// re-encodes them through ffmpeg.
package videoio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yyyoichi/watermark_lsb/internal/ffmpeg"
)

var (
	ErrNoFrame     = errors.New("could not read video file")
	ErrNoVideo     = errors.New("no video stream")
	ErrUnknownType = errors.New("unknown video container")
)

// Frame is one packed rgb24 picture, row-major without padding.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

func newFrame(w, h int) *Frame {
	return &Frame{Pix: make([]byte, w*h*3), Width: w, Height: h}
}

// Transcoder gives access to the first frame of a video and rewrites a video
// with its first frame replaced. Every other frame and the audio track are
// passed through.
type Transcoder interface {
	FirstFrame(ctx context.Context, path string) (*Frame, error)
	Rewrite(ctx context.Context, in, out string, mutate func(*Frame) error) error
}

var _ Transcoder = FFmpeg{}

// FFmpeg is the Transcoder backed by the ffmpeg and ffprobe binaries. Output
// is encoded losslessly: libx264rgb at qp 0 for mp4 and mov, ffv1 for avi.
type FFmpeg struct {
	Tool ffmpeg.Tool
}

// Info is the subset of ffprobe output needed to pipe raw frames.
type Info struct {
	Width     int
	Height    int
	FrameRate string
}

func (i Info) frameSize() int {
	return i.Width * i.Height * 3
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

func (v FFmpeg) Probe(ctx context.Context, path string) (Info, error) {
	out, err := v.Tool.Probe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate",
		"-of", "json",
		path,
	)
	if err != nil {
		return Info{}, err
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (Info, error) {
	var p probeOutput
	if err := json.Unmarshal(out, &p); err != nil {
		return Info{}, fmt.Errorf("ffprobe output: %w", err)
	}
	if len(p.Streams) == 0 || p.Streams[0].Width <= 0 || p.Streams[0].Height <= 0 {
		return Info{}, ErrNoVideo
	}
	s := p.Streams[0]
	rate := s.RFrameRate
	if !validRate(rate) {
		rate = s.AvgFrameRate
	}
	if !validRate(rate) {
		rate = "25"
	}
	return Info{Width: s.Width, Height: s.Height, FrameRate: rate}, nil
}

// validRate accepts "n" or "n/d" with both parts positive.
func validRate(r string) bool {
	num, den, found := strings.Cut(r, "/")
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return false
	}
	if !found {
		return true
	}
	d, err := strconv.Atoi(den)
	return err == nil && d > 0
}

func (v FFmpeg) FirstFrame(ctx context.Context, path string) (*Frame, error) {
	info, err := v.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
	}
	p, err := v.Tool.Start(ctx, decodeArgs(path, 1)...)
	if err != nil {
		return nil, err
	}
	_ = p.Stdin.Close()

	f := newFrame(info.Width, info.Height)
	_, readErr := io.ReadFull(p.Stdout, f.Pix)
	// drain so ffmpeg is never blocked on a full pipe
	_, _ = io.Copy(io.Discard, p.Stdout)
	if err := p.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
	}
	if readErr != nil {
		return nil, ErrNoFrame
	}
	return f, nil
}

func (v FFmpeg) Rewrite(ctx context.Context, in, out string, mutate func(*Frame) error) error {
	encArgs, err := encodeCodec(out)
	if err != nil {
		return err
	}
	info, err := v.Probe(ctx, in)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoFrame, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dec, err := v.Tool.Start(ctx, decodeArgs(in, 0)...)
	if err != nil {
		return err
	}
	_ = dec.Stdin.Close()
	enc, err := v.Tool.Start(ctx, encodeArgs(in, out, info, encArgs)...)
	if err != nil {
		cancel()
		_ = dec.Wait(ctx)
		return err
	}

	copyErr := pipeFrames(dec.Stdout, enc.Stdin, info, mutate)
	if copyErr != nil {
		cancel()
	}
	_ = enc.Stdin.Close()
	decErr := dec.Wait(ctx)
	encErr := enc.Wait(ctx)
	switch {
	case copyErr != nil:
		return copyErr
	case decErr != nil:
		return fmt.Errorf("%w: %w", ErrNoFrame, decErr)
	case encErr != nil:
		return encErr
	}
	return nil
}

// pipeFrames copies whole frames from r to w, handing the first to mutate.
func pipeFrames(r io.Reader, w io.Writer, info Info, mutate func(*Frame) error) error {
	f := newFrame(info.Width, info.Height)
	for n := 0; ; n++ {
		if _, err := io.ReadFull(r, f.Pix); err != nil {
			if n == 0 {
				return ErrNoFrame
			}
			// a trailing partial frame is dropped like ffmpeg's rawvideo demuxer does
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if n == 0 {
			if err := mutate(f); err != nil {
				return err
			}
		}
		if _, err := w.Write(f.Pix); err != nil {
			return fmt.Errorf("write frame %d: %w", n, err)
		}
	}
}

func decodeArgs(in string, frames int) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", in, "-map", "0:v:0"}
	if frames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(frames))
	}
	return append(args, "-f", "rawvideo", "-pix_fmt", "rgb24", "pipe:1")
}

func encodeArgs(in, out string, info Info, codec []string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo", "-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-framerate", info.FrameRate,
		"-i", "pipe:0",
		"-i", in,
		"-map", "0:v:0", "-map", "1:a?",
		"-c:a", "copy",
	}
	args = append(args, codec...)
	return append(args, out)
}

// encodeCodec returns lossless rgb codec settings for the container of out.
func encodeCodec(out string) ([]string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(out), ".")) {
	case "mp4", "mov":
		return []string{"-c:v", "libx264rgb", "-qp", "0", "-preset", "ultrafast", "-f", containerOf(out)}, nil
	case "avi":
		return []string{"-c:v", "ffv1", "-f", "avi"}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, out)
}

func containerOf(out string) string {
	if strings.EqualFold(filepath.Ext(out), ".mov") {
		return "mov"
	}
	return "mp4"
}
