package media

import (
	"bytes"
	"encoding/binary"
	"path/filepath"

	"golang.org/x/image/webp"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"
)

// WebPDecoder queries the WebP bitstream features (size and alpha) without
// decoding pixels.
type WebPDecoder struct{}

// Name implements Decoder.
func (WebPDecoder) Name() string { return "webp" }

// DecodeImage implements Decoder.
func (WebPDecoder) DecodeImage(path string) (metadata.ImageInfo, error) {
	buf, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return metadata.ImageInfo{}, noInfo("webp: %v", err)
	}
	return decodeWebP(filepath.Base(path), buf)
}

func decodeWebP(name string, buf []byte) (metadata.ImageInfo, error) {
	alpha, ok := webpHasAlpha(buf)
	if !ok {
		return metadata.ImageInfo{}, noInfo("webp: %s: not a RIFF/WEBP bitstream", name)
	}
	cfg, err := webp.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return metadata.ImageInfo{}, noInfo("webp: %s: %v", name, err)
	}

	info := metadata.ImageInfo{Width: cfg.Width, Height: cfg.Height, ColorMode: "RGB", Depth: 24}
	if alpha {
		info.ColorMode = "RGBA"
		info.Depth = 32
	}
	return info, nil
}

// webpHasAlpha inspects the first chunk of a RIFF/WEBP buffer. ok is false
// when the container header is not recognized.
func webpHasAlpha(buf []byte) (alpha bool, ok bool) {
	if len(buf) < 21 || string(buf[0:4]) != "RIFF" || string(buf[8:12]) != "WEBP" {
		return false, false
	}
	payload := buf[20:]
	switch string(buf[12:16]) {
	case "VP8X":
		// Feature flags: ICC, alpha, EXIF, XMP, animation.
		return payload[0]&0x10 != 0, true
	case "VP8L":
		if len(payload) < 5 || payload[0] != 0x2f {
			return false, false
		}
		// 14 bits width-1, 14 bits height-1, 1 bit alpha_is_used.
		bits := binary.LittleEndian.Uint32(payload[1:5])
		return bits&(1<<28) != 0, true
	case "VP8 ":
		return false, true
	default:
		return false, false
	}
}
