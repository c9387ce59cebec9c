package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"media-inspector/internal/metadata"
)

// ErrNoInfo is returned by every decoder that could not produce an
// ImageInfo. It is always wrapped with the reason.
var ErrNoInfo = errors.New("no image info")

var errUnhandled = fmt.Errorf("%w: extension not handled", ErrNoInfo)

// Decoder extracts raster properties from an image file without decoding
// its pixels.
type Decoder interface {
	Name() string
	DecodeImage(path string) (metadata.ImageInfo, error)
}

func noInfo(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNoInfo, fmt.Sprintf(format, args...))
}

type extensionDecoder struct {
	Decoder
	exts map[string]bool
}

// ForExtensions restricts d to files whose extension is one of exts
// (case-insensitive, with or without the leading dot).
func ForExtensions(d Decoder, exts ...string) Decoder {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m["."+strings.TrimPrefix(strings.ToLower(e), ".")] = true
	}
	return &extensionDecoder{Decoder: d, exts: m}
}

func (d *extensionDecoder) DecodeImage(path string) (metadata.ImageInfo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !d.exts[ext] {
		return metadata.ImageInfo{}, fmt.Errorf("%s: %s %w", d.Name(), filepath.Base(path), errUnhandled)
	}
	return d.Decoder.DecodeImage(path)
}
