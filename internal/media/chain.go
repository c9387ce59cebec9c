package media

import (
	"errors"
	"path/filepath"

	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
	"media-inspector/internal/metrics"
)

// Chain tries each decoder in order and returns the first success.
type Chain []Decoder

// DefaultChain is the decoder order used by the helper: the generic probe
// first, then the format specific parsers.
func DefaultChain() Chain {
	return Chain{
		ProbeDecoder{},
		ForExtensions(NetPBMDecoder{}, "pbm", "pgm", "ppm", "pnm"),
		ForExtensions(WebPDecoder{}, "webp"),
		ForExtensions(BPGDecoder{}, "bpg"),
		ForExtensions(SVGDecoder{}, "svg"),
	}
}

// Name implements Decoder.
func (c Chain) Name() string { return "chain" }

// DecodeImage implements Decoder.
func (c Chain) DecodeImage(path string) (metadata.ImageInfo, error) {
	var errs []error
	for _, d := range c {
		info, err := d.DecodeImage(path)
		if err == nil {
			metrics.DecoderAttemptsTotal.WithLabelValues(d.Name(), "success").Inc()
			logging.Debug("%s decoded by %s: %dx%d %s/%d", filepath.Base(path), d.Name(), info.Width, info.Height, info.ColorMode, info.Depth)
			return info, nil
		}
		if errors.Is(err, errUnhandled) {
			continue
		}
		metrics.DecoderAttemptsTotal.WithLabelValues(d.Name(), "failure").Inc()
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return metadata.ImageInfo{}, noInfo("%s: no decoder handles this file", filepath.Base(path))
	}
	return metadata.ImageInfo{}, errors.Join(errs...)
}
