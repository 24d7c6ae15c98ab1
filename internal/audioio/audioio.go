// Package audioio decodes wav and mp3 files into one interleaved integer
// sample buffer and writes such buffers back.
//
// WAV is read and written losslessly. MP3 is decoded to 16-bit stereo and
// re-encoded through ffmpeg; that round trip is lossy and does not keep
// sample low bits.
package audioio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/yyyoichi/watermark_lsb/internal/ffmpeg"
)

var (
	ErrUnknownFormat = errors.New("unknown audio format")
	ErrInvalidWAV    = errors.New("invalid wav file")
)

type Format string

const (
	WAV Format = "wav"
	MP3 Format = "mp3"
)

const wavFormatPCM = 1

func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "wav":
		return WAV, nil
	case "mp3":
		return MP3, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

// Clip is a decoded audio stream. Samples holds every channel interleaved in
// playback order.
type Clip struct {
	Samples    []int
	SampleRate int
	Channels   int
	BitDepth   int
}

func (c *Clip) buffer() *audio.IntBuffer {
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: c.Channels,
			SampleRate:  c.SampleRate,
		},
		Data:           c.Samples,
		SourceBitDepth: c.BitDepth,
	}
}

// Read decodes the file at path, choosing the container by extension.
func Read(path string) (*Clip, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch format {
	case WAV:
		return DecodeWAV(f)
	default:
		return DecodeMP3(f)
	}
}

// DecodeWAV reads integer PCM wav data.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if d.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: audio format %d is not integer PCM", ErrInvalidWAV, d.WavAudioFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	return &Clip{
		Samples:    buf.Data,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}, nil
}

// DecodeMP3 decodes r to signed 16-bit stereo samples.
func DecodeMP3(r io.Reader) (*Clip, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, err
	}
	return &Clip{
		Samples:    s16leToInts(raw),
		SampleRate: d.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}, nil
}

// Encoder writes a clip to path.
type Encoder interface {
	Encode(ctx context.Context, c *Clip, path string) error
}

// Write encodes c into path in the container named by its extension. mp3
// output is delegated to enc, which defaults to FFmpegMP3.
func Write(ctx context.Context, path string, c *Clip, enc Encoder) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if format == WAV {
		return WriteWAV(path, c)
	}
	if enc == nil {
		enc = FFmpegMP3{}
	}
	return enc.Encode(ctx, c, path)
}

// WriteWAV writes c as integer PCM.
func WriteWAV(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, c.SampleRate, c.BitDepth, c.Channels, wavFormatPCM)
	if err := enc.Write(c.buffer()); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FFmpegMP3 pipes 16-bit samples into ffmpeg's mp3 encoder.
type FFmpegMP3 struct {
	Tool ffmpeg.Tool
	// Bitrate such as "192k". Empty lets ffmpeg decide.
	Bitrate string
}

func (e FFmpegMP3) Encode(ctx context.Context, c *Clip, path string) error {
	if c.BitDepth != 16 {
		return fmt.Errorf("mp3 encode: %d-bit samples are not supported", c.BitDepth)
	}
	return e.Tool.Run(ctx, bytes.NewReader(intsToS16LE(c.Samples)), nil, e.args(c, path)...)
}

func (e FFmpegMP3) args(c *Clip, path string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(c.SampleRate),
		"-ac", strconv.Itoa(c.Channels),
		"-i", "pipe:0",
		"-f", "mp3",
	}
	if e.Bitrate != "" {
		args = append(args, "-b:a", e.Bitrate)
	}
	return append(args, path)
}

func s16leToInts(raw []byte) []int {
	out := make([]int, len(raw)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}
	return out
}

func intsToS16LE(samples []int) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s)))
	}
	return out
}
