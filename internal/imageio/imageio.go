// Package imageio decodes and encodes the still-image containers the
// watermark codec accepts.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown image format")

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
)

// FormatOf picks the container format from a file extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

// Lossless reports whether encoding in f keeps every sample low bit.
// JPEG never does; GIF only does for paletted images.
func (f Format) Lossless(img image.Image) bool {
	switch f {
	case PNG:
		return true
	case GIF:
		_, ok := img.(*image.Paletted)
		return ok
	}
	return false
}

// Decode reads the first frame of a png, jpeg or gif stream. The container
// is sniffed from the content, not from a name.
func Decode(r io.Reader) (image.Image, Format, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	return img, Format(name), nil
}

func Read(path string) (image.Image, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return Decode(f)
}

// GIFFrames counts the frames of the gif at path. Decode and Read only
// return the first one.
func GIFFrames(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		return 0, err
	}
	return len(g.Image), nil
}

// Encode writes img in format f. JPEG uses the highest quality setting.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case GIF:
		opts := &gif.Options{NumColors: 256}
		if p, ok := img.(*image.Paletted); ok && len(p.Palette) > 0 {
			opts.NumColors = len(p.Palette)
		}
		return gif.Encode(w, img, opts)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
