package media

import (
	"image"
	"image/color"
	"io"
	"math"
	"path/filepath"

	// Registered image formats for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
)

// ProbeDecoder is the generic image probe. It uses libvips when it has been
// started with InitVips, otherwise the registered Go image decoders. Only the
// header is read in both cases.
type ProbeDecoder struct{}

// Name implements Decoder.
func (ProbeDecoder) Name() string { return "probe" }

// DecodeImage implements Decoder.
func (ProbeDecoder) DecodeImage(path string) (metadata.ImageInfo, error) {
	if IsVipsAvailable() {
		info, err := probeWithVips(path)
		if err == nil {
			return info, nil
		}
		logging.Debug("vips probe failed for %s, falling back: %v", filepath.Base(path), err)
	}

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return metadata.ImageInfo{}, noInfo("probe: %v", err)
	}
	defer filesystem.CloseLogged(f, path)

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return metadata.ImageInfo{}, noInfo("probe: %s: %v", filepath.Base(path), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return metadata.ImageInfo{}, noInfo("probe: %s: no image properties", filepath.Base(path))
	}

	colorMode, depth := describeColorModel(cfg.ColorModel)
	info := metadata.ImageInfo{
		Width:     cfg.Width,
		Height:    cfg.Height,
		ColorMode: colorMode,
		Depth:     depth,
	}

	if format == "jpeg" || format == "tiff" {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			info.DPI = exifDPI(f)
		}
	}
	return info, nil
}

// describeColorModel returns a color label and the bits per pixel of a Go
// color model.
func describeColorModel(m color.Model) (string, int) {
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA", 32
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA", 64
	case color.GrayModel:
		return "GRAY", 8
	case color.Gray16Model:
		return "GRAY", 16
	case color.CMYKModel:
		return "CMYK", 32
	case color.YCbCrModel:
		return "RGB", 24
	case color.NYCbCrAModel:
		return "RGBA", 32
	case color.AlphaModel, color.Alpha16Model:
		return "GRAY", 8
	}
	if _, ok := m.(color.Palette); ok {
		return "Indexed", 8
	}
	return "", 0
}

// exifDPI returns the horizontal resolution in dots per inch, or 0.
func exifDPI(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.XResolution)
	if err != nil {
		return 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	res := float64(num) / float64(den)

	// ResolutionUnit: 2 = inch (default), 3 = centimeter.
	if unit, err := x.Get(exif.ResolutionUnit); err == nil {
		if u, err := unit.Int(0); err == nil && u == 3 {
			res *= 2.54
		}
	}
	return int(math.Round(res))
}
