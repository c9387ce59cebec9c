package media

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"media-inspector/internal/logging"
)

const (
	// DefaultIconSize is the edge of the menu icon in pixels.
	DefaultIconSize = 32
	// MaxIconSize bounds the requested icon edge.
	MaxIconSize = 512

	// MaxIconSourcePixels is the largest image the Go fallback decodes.
	// libvips shrinks on load and is not bound by it.
	MaxIconSourcePixels = 50_000_000
)

// ErrImageTooLarge is returned when the fallback refuses to decode an image.
var ErrImageTooLarge = fmt.Errorf("image exceeds %d pixels", MaxIconSourcePixels)

// Icon renders a PNG thumbnail of path that fits in a size×size box,
// preserving the aspect ratio.
func Icon(path string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultIconSize
	}
	if size > MaxIconSize {
		size = MaxIconSize
	}

	if IsVipsAvailable() {
		data, err := iconWithVips(path, size)
		if err == nil {
			return data, nil
		}
		logging.Debug("vips icon failed for %s, falling back to imaging: %v", filepath.Base(path), err)
	}

	img, err := openBounded(path, MaxIconSourcePixels)
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

// openBounded decodes path with the registered Go decoders after checking
// from the header that it holds at most maxPixels pixels.
func openBounded(path string, maxPixels int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(f)
	if closeErr := f.Close(); closeErr != nil {
		logging.Warn("failed to close image file %s: %v", path, closeErr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width*cfg.Height > maxPixels {
		logging.Debug("Refusing to decode %s (%dx%d) for an icon", filepath.Base(path), cfg.Width, cfg.Height)
		return nil, ErrImageTooLarge
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

func iconWithVips(path string, size int) ([]byte, error) {
	// Thumbnail shrinks during decode
	ref, err := vips.NewThumbnailFromFile(path, size, size, vips.InterestingNone)
	if err != nil {
		return nil, fmt.Errorf("vips thumbnail failed: %w", err)
	}
	defer ref.Close()

	data, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return data, nil
}
