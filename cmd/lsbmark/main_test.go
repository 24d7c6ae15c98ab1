package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/watermark_lsb/internal/audioio"
)

type cli struct {
	t      *testing.T
	dir    string
	config string
	ledger string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{
		t:      t,
		dir:    dir,
		config: filepath.Join(dir, "missing.yaml"),
		ledger: filepath.Join(dir, "ledger.db"),
	}
}

func (c *cli) run(args ...string) (int, map[string]any) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	base := []string{"-config", c.config, "-ledger", c.ledger}
	code := run(context.Background(), append(base, args...), &stdout, &stderr)
	var out map[string]any
	if stdout.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	}
	return code, out
}

func (c *cli) path(name string) string {
	return filepath.Join(c.dir, name)
}

func (c *cli) png(name string, w, h int) string {
	c.t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(c.path(name))
	require.NoError(c.t, err)
	require.NoError(c.t, png.Encode(f, img))
	require.NoError(c.t, f.Close())
	return c.path(name)
}

func TestEmbedExtractLookup(t *testing.T) {
	c := newCLI(t)
	in := c.png("cat.png", 32, 32)

	code, out := c.run("embed", "-in", in, "-payload", "65f1a2b3", "-dir", c.dir)
	require.Equal(t, exitOK, code, out)
	assert.Equal(t, "success", out["status"])
	marked := c.path("65f1a2b3_cat.png")
	assert.Equal(t, marked, out["filePath"])

	code, out = c.run("extract", "-in", marked)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "65f1a2b3", out["media_id"])

	code, out = c.run("lookup", "-in", marked)
	require.Equal(t, exitOK, code)
	media := out["media"].(map[string]any)
	assert.Equal(t, "65f1a2b3", media["payload"])
	assert.Equal(t, "image", media["media_type"])
	assert.Equal(t, marked, media["file_path"])

	code, out = c.run("verify", "-original", in, "-marked", marked)
	require.Equal(t, exitOK, code)
	assert.Equal(t, true, out["lsb_only"])
	assert.Equal(t, float64(1), out["max_delta"])
}

func TestEmbedGeneratesID(t *testing.T) {
	c := newCLI(t)
	in := c.png("dog.png", 16, 16)

	code, out := c.run("embed", "-in", in, "-dir", c.dir)
	require.Equal(t, exitOK, code, out)
	marked := out["filePath"].(string)
	name := filepath.Base(marked)
	require.Len(t, name, 24+len("_dog.png"))

	code, out = c.run("lookup", "-in", marked)
	require.Equal(t, exitOK, code)
	assert.Equal(t, name[:24], out["media_id"])
	assert.Equal(t, name[:24], out["media"].(map[string]any)["payload"])
}

func TestEmbedKeyedIDsAreDistinct(t *testing.T) {
	c := newCLI(t)
	c.config = c.path("lsbmark.yaml")
	require.NoError(t, os.WriteFile(c.config, []byte("ledger:\n  id_key: org-secret\n"), 0o644))

	var payloads, outputs []string
	for _, name := range []string{"a.png", "b.png"} {
		in := c.png(name, 16, 16)
		code, out := c.run("embed", "-in", in, "-dir", c.dir)
		require.Equal(t, exitOK, code, out)
		marked := out["filePath"].(string)
		outputs = append(outputs, marked)
		payloads = append(payloads, filepath.Base(marked)[:24])
	}
	assert.NotEqual(t, payloads[0], payloads[1])

	for i, marked := range outputs {
		code, out := c.run("lookup", "-in", marked)
		require.Equal(t, exitOK, code)
		media := out["media"].(map[string]any)
		assert.Equal(t, payloads[i], media["payload"])
		assert.Equal(t, marked, media["file_path"])
	}
}

func TestEmbedDuplicatePayloadFails(t *testing.T) {
	c := newCLI(t)
	a, b := c.png("a.png", 16, 16), c.png("b.png", 16, 16)

	code, out := c.run("embed", "-in", a, "-payload", "dup-1", "-dir", c.dir)
	require.Equal(t, exitOK, code, out)
	code, _ = c.run("embed", "-in", b, "-payload", "dup-1", "-dir", c.dir)
	assert.Equal(t, exitFailed, code)

	code, out = c.run("lookup", "-in", c.path("dup-1_a.png"))
	require.Equal(t, exitOK, code)
	assert.Equal(t, c.path("dup-1_a.png"), out["media"].(map[string]any)["file_path"])
}

func TestLeakTrace(t *testing.T) {
	c := newCLI(t)
	in := c.path("song.wav")
	pcm := make([]int, 5000)
	for i := range pcm {
		pcm[i] = i%300 - 150
	}
	require.NoError(t, audioio.WriteWAV(in, &audioio.Clip{Samples: pcm, SampleRate: 8000, Channels: 1, BitDepth: 16}))

	master, shared := c.path("master.wav"), c.path("shared.wav")
	code, out := c.run("embed", "-in", in, "-payload", "studio", "-mode", "source_layer", "-out", master)
	require.Equal(t, exitOK, code, out)
	code, out = c.run("embed", "-in", master, "-payload", "bob", "-mode", "forensic_layer", "-out", shared)
	require.Equal(t, exitOK, code, out)

	code, out = c.run("lookup", "-in", shared, "-mode", "dual_layer")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "studio", out["original_creator"])
	assert.Equal(t, "bob", out["leaked_by_recipient"])
	dist := out["distribution"].(map[string]any)
	assert.Equal(t, "bob", dist["recipient"])
	assert.Equal(t, shared, dist["file_path"])
}

func TestFailures(t *testing.T) {
	c := newCLI(t)
	txt := c.path("notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))

	test := []struct {
		name    string
		args    []string
		code    int
		message string
	}{
		{"no command", nil, exitUsage, ""},
		{"unknown command", []string{"stamp"}, exitUsage, ""},
		{"embed without input", []string{"embed", "-payload", "a"}, exitUsage, ""},
		{"forensic without payload", []string{"embed", "-in", txt, "-mode", "forensic_layer"}, exitUsage, ""},
		{"unsupported", []string{"extract", "-in", txt}, exitFailed, "Unsupported file type"},
		{"bad mode", []string{"embed", "-in", txt, "-payload", "a", "-mode", "x"}, exitFailed, `invalid mode: "x"`},
		{"verify mismatch", []string{"verify", "-original", txt, "-marked", txt}, exitFailed, "Unsupported file type"},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			code, out := c.run(tt.args...)
			assert.Equal(t, tt.code, code)
			if tt.message != "" {
				assert.Equal(t, "error", out["status"])
				assert.Equal(t, tt.message, out["message"])
			}
		})
	}
}

func TestVerifyDetectsLargeChange(t *testing.T) {
	c := newCLI(t)
	a := c.png("a.png", 4, 4)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Open(a)
	require.NoError(t, err)
	src, err := png.Decode(f)
	require.NoError(t, err)
	f.Close()
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, src.At(x, y))
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: img.NRGBAAt(0, 0).R + 9, A: 0xff})
	b := c.path("b.png")
	f, err = os.Create(b)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	code, out := c.run("verify", "-original", a, "-marked", b)
	assert.Equal(t, exitFailed, code)
	assert.Equal(t, false, out["lsb_only"])
}
