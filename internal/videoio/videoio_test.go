package videoio

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/watermark_lsb/internal/ffmpeg"
)

func TestParseProbe(t *testing.T) {
	test := []struct {
		name     string
		out      string
		expected Info
		err      error
	}{
		{
			name:     "r_frame_rate",
			out:      `{"streams":[{"width":640,"height":360,"r_frame_rate":"30000/1001","avg_frame_rate":"0/0"}]}`,
			expected: Info{Width: 640, Height: 360, FrameRate: "30000/1001"},
		},
		{
			name:     "avg fallback",
			out:      `{"streams":[{"width":2,"height":2,"r_frame_rate":"0/0","avg_frame_rate":"25/1"}]}`,
			expected: Info{Width: 2, Height: 2, FrameRate: "25/1"},
		},
		{
			name:     "default rate",
			out:      `{"streams":[{"width":2,"height":2}]}`,
			expected: Info{Width: 2, Height: 2, FrameRate: "25"},
		},
		{name: "no streams", out: `{"streams":[]}`, err: ErrNoVideo},
		{name: "zero size", out: `{"streams":[{"width":0,"height":0}]}`, err: ErrNoVideo},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseProbe([]byte(tt.out))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, info)
		})
	}

	_, err := parseProbe([]byte("not json"))
	assert.Error(t, err)
}

func TestEncodeCodec(t *testing.T) {
	args, err := encodeCodec("out/a.MP4")
	require.NoError(t, err)
	assert.Equal(t, []string{"-c:v", "libx264rgb", "-qp", "0", "-preset", "ultrafast", "-f", "mp4"}, args)

	args, err = encodeCodec("a.mov")
	require.NoError(t, err)
	assert.Equal(t, "mov", args[len(args)-1])

	args, err = encodeCodec("a.avi")
	require.NoError(t, err)
	assert.Equal(t, []string{"-c:v", "ffv1", "-f", "avi"}, args)

	_, err = encodeCodec("a.mkv")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-hide_banner", "-loglevel", "error", "-i", "in.avi", "-map", "0:v:0", "-frames:v", "1", "-f", "rawvideo", "-pix_fmt", "rgb24", "pipe:1"},
		decodeArgs("in.avi", 1))
	assert.NotContains(t, decodeArgs("in.avi", 0), "-frames:v")

	args := encodeArgs("in.avi", "out.avi", Info{Width: 4, Height: 2, FrameRate: "24"}, []string{"-c:v", "ffv1"})
	assert.Contains(t, args, "4x2")
	assert.Contains(t, args, "1:a?")
	assert.Equal(t, "out.avi", args[len(args)-1])
}

func TestPipeFrames(t *testing.T) {
	info := Info{Width: 2, Height: 1}
	src := []byte{
		10, 10, 10, 10, 10, 10,
		20, 20, 20, 20, 20, 20,
		30, 30, 30, // partial frame
	}
	var dst bytes.Buffer
	calls := 0
	err := pipeFrames(bytes.NewReader(src), &dst, info, func(f *Frame) error {
		calls++
		assert.Equal(t, 2, f.Width)
		f.Pix[0] = 11
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []byte{
		11, 10, 10, 10, 10, 10,
		20, 20, 20, 20, 20, 20,
	}, dst.Bytes())

	err = pipeFrames(bytes.NewReader(nil), &dst, info, func(*Frame) error { return nil })
	assert.ErrorIs(t, err, ErrNoFrame)

	boom := errors.New("boom")
	err = pipeFrames(bytes.NewReader(src), &dst, info, func(*Frame) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestValidRate(t *testing.T) {
	assert.True(t, validRate("25"))
	assert.True(t, validRate("30000/1001"))
	assert.False(t, validRate("0/0"))
	assert.False(t, validRate("25/0"))
	assert.False(t, validRate(""))
}

func TestFFmpegRewrite(t *testing.T) {
	tool := ffmpeg.Tool{}
	if !tool.Available() {
		t.Skip("ffmpeg not installed")
	}
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.avi")
	require.NoError(t, tool.Run(ctx, nil, nil,
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "lavfi", "-i", "testsrc=size=32x24:rate=5",
		"-frames:v", "3", "-c:v", "ffv1", src))

	v := FFmpeg{Tool: tool}
	first, err := v.FirstFrame(ctx, src)
	require.NoError(t, err)
	require.Len(t, first.Pix, 32*24*3)

	out := filepath.Join(dir, "out.avi")
	err = v.Rewrite(ctx, src, out, func(f *Frame) error {
		for i := range 64 {
			f.Pix[i] ^= 1
		}
		return nil
	})
	require.NoError(t, err)

	got, err := v.FirstFrame(ctx, out)
	require.NoError(t, err)
	for i := range first.Pix {
		want := first.Pix[i]
		if i < 64 {
			want ^= 1
		}
		require.Equal(t, want, got.Pix[i], "byte %d", i)
	}
}

func TestFFmpegMissingFile(t *testing.T) {
	tool := ffmpeg.Tool{}
	if !tool.Available() {
		t.Skip("ffmpeg not installed")
	}
	_, err := FFmpeg{Tool: tool}.FirstFrame(context.Background(), filepath.Join(t.TempDir(), "none.mp4"))
	assert.ErrorIs(t, err, ErrNoFrame)
}
