// Package media reads raster image properties (size, resolution, color mode
// and bit depth) without decoding pixel data.
//
// Each format has its own Decoder:
//   - ProbeDecoder: libvips when started, else the Go image decoders plus EXIF
//   - NetPBMDecoder: P1-P6 portable bitmaps
//   - WebPDecoder: WebP feature query (size, alpha)
//   - BPGDecoder: BPG header parsing
//   - SVGDecoder: root <svg> width and height
//
// A failed decode always returns an error wrapping ErrNoInfo; callers never
// receive a zero ImageInfo with a nil error. DefaultChain returns the order
// the helper uses. Icon renders small PNG thumbnails for menu entries.
package media
