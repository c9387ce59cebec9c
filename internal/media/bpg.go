package media

import (
	"errors"
	"path/filepath"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"
)

// BPGDecoder parses the BPG file header.
type BPGDecoder struct{}

var bpgMagic = [4]byte{'B', 'P', 'G', 0xfb}

// BPG color space codes.
const (
	bpgCSYCbCr = iota
	bpgCSRGB
	bpgCSYCgCo
	bpgCSYCbCrBT709
	bpgCSYCbCrBT2020
)

// Name implements Decoder.
func (BPGDecoder) Name() string { return "bpg" }

// DecodeImage implements Decoder.
func (BPGDecoder) DecodeImage(path string) (metadata.ImageInfo, error) {
	buf, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return metadata.ImageInfo{}, noInfo("bpg: %v", err)
	}
	info, err := decodeBPGHeader(buf)
	if err != nil {
		return metadata.ImageInfo{}, noInfo("bpg: %s: %v", filepath.Base(path), err)
	}
	return info, nil
}

func decodeBPGHeader(buf []byte) (metadata.ImageInfo, error) {
	if len(buf) < 6 || [4]byte(buf[0:4]) != bpgMagic {
		return metadata.ImageInfo{}, errors.New("invalid magic")
	}

	pixelFormat := buf[4] >> 5
	alpha1 := buf[4]>>4&1 != 0
	bitDepth := int(buf[4]&0x0f) + 8
	colorSpace := buf[5] >> 4

	if pixelFormat > 5 {
		return metadata.ImageInfo{}, errors.New("invalid pixel format")
	}
	if bitDepth > 14 {
		return metadata.ImageInfo{}, errors.New("invalid bit depth")
	}

	width, n, err := readUE7(buf[6:])
	if err != nil {
		return metadata.ImageInfo{}, err
	}
	height, _, err := readUE7(buf[6+n:])
	if err != nil {
		return metadata.ImageInfo{}, err
	}
	if width == 0 || height == 0 {
		return metadata.ImageInfo{}, errors.New("invalid dimensions")
	}

	var color string
	switch colorSpace {
	case bpgCSRGB:
		color = "RGB"
		if alpha1 {
			color = "RGBA"
		}
	case bpgCSYCbCr:
		color = "YCbCr"
	case bpgCSYCgCo:
		color = "YCgCo"
	case bpgCSYCbCrBT709:
		color = "YCbCr (ITU-R BT.709)"
	case bpgCSYCbCrBT2020:
		color = "YCbCr (BT.2020)"
	}

	return metadata.ImageInfo{
		Width:     int(width),
		Height:    int(height),
		ColorMode: color,
		Depth:     bitDepth,
	}, nil
}

// readUE7 reads a big-endian base-128 integer with continuation bits. It
// returns the value and the number of bytes consumed.
func readUE7(buf []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 5 && i < len(buf); i++ {
		b := buf[i]
		if i == 0 && b == 0x80 {
			return 0, 0, errors.New("ue7: leading zero")
		}
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errors.New("ue7: truncated value")
}
