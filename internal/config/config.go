// Package config loads the yaml configuration of the lsbmark command.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	watermark "github.com/yyyoichi/watermark_lsb"
	"github.com/yyyoichi/watermark_lsb/internal/audioio"
	"github.com/yyyoichi/watermark_lsb/internal/ffmpeg"
	"github.com/yyyoichi/watermark_lsb/internal/videoio"
	"github.com/yyyoichi/watermark_lsb/mark"
)

type Config struct {
	Watermark WatermarkConfig `yaml:"watermark"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WatermarkConfig struct {
	Framing          string `yaml:"framing"` // "length" or "delimiter"
	MaxPayload       int    `yaml:"max_payload"`
	Delimiter        string `yaml:"delimiter"`
	DelimiterWindow  int    `yaml:"delimiter_window"`
	InterlayerOffset int    `yaml:"interlayer_offset"`
	Golay            bool   `yaml:"golay"`
	GolaySeed        int64  `yaml:"golay_seed"`
	AllowTruncation  bool   `yaml:"allow_truncation"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	MP3Bitrate  string `yaml:"mp3_bitrate"`
}

type LedgerConfig struct {
	// Path of the sqlite database. Empty disables the ledger.
	Path string `yaml:"path"`
	// IDKey seeds generated media IDs. Empty yields random IDs.
	IDKey string `yaml:"id_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// GetConfigWithDefaults returns default configuration values
func GetConfigWithDefaults() *Config {
	return &Config{
		Watermark: WatermarkConfig{
			Framing:          "length",
			MaxPayload:       mark.DefaultMaxLength,
			Delimiter:        mark.DefaultMarker,
			DelimiterWindow:  mark.DefaultWindow,
			InterlayerOffset: mark.DefaultInterlayerOffset,
			GolaySeed:        mark.DefaultShuffleSeed,
		},
		FFmpeg: FFmpegConfig{
			MP3Bitrate: "192k",
		},
		Ledger: LedgerConfig{
			Path: "lsbmark.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	config := GetConfigWithDefaults()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

var (
	validFramings = []string{"length", "delimiter"}
	validLevels   = []string{"debug", "info", "warn", "error"}
	validFormats  = []string{"text", "json"}
)

// validate checks if the configuration is valid
func (c *Config) validate() error {
	w := c.Watermark
	if !slices.Contains(validFramings, strings.ToLower(w.Framing)) {
		return fmt.Errorf("invalid framing: %s (must be one of: %v)", w.Framing, validFramings)
	}
	if w.MaxPayload <= 0 {
		return fmt.Errorf("invalid max_payload: %d (must be positive)", w.MaxPayload)
	}
	if w.Delimiter == "" {
		return fmt.Errorf("delimiter must not be empty")
	}
	if w.DelimiterWindow <= len([]rune(w.Delimiter)) {
		return fmt.Errorf("invalid delimiter_window: %d (must exceed the delimiter length)", w.DelimiterWindow)
	}
	if w.InterlayerOffset < watermark.MinInterlayerOffset || w.InterlayerOffset%8 != 0 {
		return fmt.Errorf("invalid interlayer_offset: %d (must be a multiple of 8, at least %d)",
			w.InterlayerOffset, watermark.MinInterlayerOffset)
	}
	if w.Golay && strings.ToLower(w.Framing) != "length" {
		return fmt.Errorf("golay requires the length framing")
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %v)", c.Logging.Level, validLevels)
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("invalid log format: %s (must be one of: %v)", c.Logging.Format, validFormats)
	}
	return nil
}

func (c *Config) Tool(logger *slog.Logger) ffmpeg.Tool {
	return ffmpeg.Tool{
		FFmpeg:  c.FFmpeg.FFmpegPath,
		FFprobe: c.FFmpeg.FFprobePath,
		Logger:  logger,
	}
}

// Options maps the configuration onto watermark options.
func (c *Config) Options(logger *slog.Logger) []watermark.Option {
	w := c.Watermark
	tool := c.Tool(logger)
	opts := []watermark.Option{
		watermark.WithInterlayerOffset(w.InterlayerOffset),
		watermark.WithTruncation(w.AllowTruncation),
		watermark.WithLogger(logger),
		watermark.WithVideoTranscoder(videoio.FFmpeg{Tool: tool}),
		watermark.WithAudioEncoder(audioio.FFmpegMP3{Tool: tool, Bitrate: c.FFmpeg.MP3Bitrate}),
	}
	if strings.ToLower(w.Framing) == "delimiter" {
		return append(opts, watermark.WithDelimiter(w.Delimiter, w.DelimiterWindow))
	}
	opts = append(opts, watermark.WithMaxPayload(w.MaxPayload))
	if w.Golay {
		opts = append(opts, watermark.WithGolay(w.GolaySeed))
	}
	return opts
}

// Level is the slog level named by Logging.Level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds the handler selected by Logging.Format writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if strings.ToLower(c.Logging.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
