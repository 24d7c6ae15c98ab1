// Command quality measures how much an LSB mark disturbs images of several
// sizes and which container round trips keep it readable.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"golang.org/x/image/draw"

	watermark "github.com/yyyoichi/watermark_lsb"
	"github.com/yyyoichi/watermark_lsb/internal/imageio"
	"github.com/yyyoichi/watermark_lsb/internal/quality"
	"github.com/yyyoichi/watermark_lsb/internal/samples"
	"github.com/yyyoichi/watermark_lsb/mark"
)

type TestParams struct {
	Framing string
	Payload string
	Format  imageio.Format

	// meta
	ImageWidth  int
	ImageHeight int
	Capacity    int
}

type framing struct {
	name string
	opts []watermark.Option
}

func main() {
	numImages := flag.Int("n", 3, "number of synthetic images per size")
	seed := flag.Int64("seed", 1, "seed of the synthetic images")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	quiet := watermark.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	imageSizes := [][]int{
		{1920, 1080}, // FHD
		{1280, 720},  // HD
		{640, 360},   // 360p
		{32, 32},
		{10, 10},
	}
	framings := []framing{
		{"length", nil},
		{"delimiter", []watermark.Option{watermark.WithDelimiter(mark.DefaultMarker, mark.DefaultWindow)}},
		{"golay", []watermark.Option{watermark.WithGolay(mark.DefaultShuffleSeed)}},
	}
	payloads := []string{"65f1a2b3c4d5e6f7a8b9c0d1", strings.Repeat("id", 60)}
	formats := []imageio.Format{imageio.PNG, imageio.GIF, imageio.JPEG}

	logger.Info("starting quality evaluation",
		"images", *numImages, "sizes", len(imageSizes), "framings", len(framings),
		"payloads", len(payloads), "formats", len(formats))

	rng := rand.New(rand.NewSource(*seed))
	successCount, totalTests := 0, 0
	for i := range *numImages {
		base := pattern(rng)
		for _, size := range imageSizes {
			width, height := size[0], size[1]
			img := scale(base, width, height)
			logger.Info("testing image", "n", i+1, "size", fmt.Sprintf("%dx%d", width, height))

			for _, f := range framings {
				w, err := watermark.New(append([]watermark.Option{quiet}, f.opts...)...)
				if err != nil {
					logger.Error("failed to create marker", "framing", f.name, "error", err)
					os.Exit(1)
				}
				for _, payload := range payloads {
					for _, format := range formats {
						p, _ := samples.NewImage(img)
						params := TestParams{
							Framing:     f.name,
							Payload:     payload,
							Format:      format,
							ImageWidth:  width,
							ImageHeight: height,
							Capacity:    p.Len(),
						}
						totalTests++
						if testWatermark(logger, w, img, params) {
							successCount++
						}
					}
				}
			}
		}
	}

	logger.Info("results",
		"total", totalTests,
		"successful", successCount,
		"success_rate", fmt.Sprintf("%.2f%%", float64(successCount)/float64(totalTests)*100),
		"failed", totalTests-successCount)
}

// pattern is a small noisy gradient that scale blows up to each test size.
func pattern(rng *rand.Rand) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			img.Set(x, y, color.RGBA{
				uint8(x*4) ^ uint8(rng.Intn(16)),
				uint8(y*4) ^ uint8(rng.Intn(16)),
				uint8((x+y)*2) ^ uint8(rng.Intn(16)),
				255,
			})
		}
	}
	return img
}

func scale(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func testWatermark(logger *slog.Logger, w *watermark.Marker, img image.Image, params TestParams) bool {
	logger = logger.With(
		"size", fmt.Sprintf("%dx%d", params.ImageWidth, params.ImageHeight),
		"framing", params.Framing,
		"payload_len", len(params.Payload),
		"format", params.Format,
		"capacity", params.Capacity,
	)
	start := time.Now()

	marked, err := w.EmbedImage(img, params.Payload, watermark.ModeSingleID)
	if err != nil {
		logger.Warn("[FAIL] embed", "error", err)
		return false
	}

	original, _ := samples.NewImage(img)
	changed, _ := samples.NewImage(marked)
	report, err := quality.Compare(original, changed, changed.BitDepth())
	if err != nil {
		logger.Warn("[FAIL] compare", "error", err)
		return false
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, marked, params.Format); err != nil {
		logger.Warn("[FAIL] encode", "error", err)
		return false
	}
	decoded, _, err := imageio.Decode(&buf)
	if err != nil {
		logger.Warn("[FAIL] decode", "error", err)
		return false
	}

	res := w.ExtractImage(decoded, watermark.ModeSingleID)
	duration := time.Since(start)
	if res.OK() && res.MediaID == params.Payload {
		logger.Info("[OK]", "psnr", fmt.Sprintf("%.2fdB", report.PSNR), "changed", report.Changed, "time", duration)
		return true
	}
	logger.Info("[FAIL] extract", "psnr", fmt.Sprintf("%.2fdB", report.PSNR), "result", res.String(), "time", duration)
	return false
}
