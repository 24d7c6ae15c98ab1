package watermark

import (
	"fmt"
	"path/filepath"
	"strings"
)

type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaAudio   MediaType = "audio"
	MediaUnknown MediaType = "unknown"
)

var extensions = map[string]MediaType{
	"jpg":  MediaImage,
	"jpeg": MediaImage,
	"png":  MediaImage,
	"gif":  MediaImage,
	"mp4":  MediaVideo,
	"avi":  MediaVideo,
	"mov":  MediaVideo,
	"mp3":  MediaAudio,
	"wav":  MediaAudio,
}

// Classify maps a file name to its media type by extension, ignoring case.
func Classify(filename string) MediaType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if t, ok := extensions[ext]; ok {
		return t
	}
	return MediaUnknown
}

// Mode selects the payload layout.
//
// ModeSingleID writes one identifier at the start of the buffer.
// ModeSource and ModeForensic write the creator and recipient layers of the
// dual-layer scheme. On extraction both layer modes, and ModeDualLayer, read
// the two layers together.
type Mode string

const (
	ModeSingleID  Mode = "single_id"
	ModeSource    Mode = "source_layer"
	ModeForensic  Mode = "forensic_layer"
	ModeDualLayer Mode = "dual_layer"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSingleID, ModeSource, ModeForensic, ModeDualLayer:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) dual() bool {
	return m == ModeSource || m == ModeForensic || m == ModeDualLayer
}
