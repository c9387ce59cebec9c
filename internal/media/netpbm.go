package media

import (
	"bufio"
	"path/filepath"
	"strconv"
	"strings"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"
)

// NetPBMDecoder reads the header of the portable bitmap family
// (P1 to P6). The format has no resolution field so DPI is always 0.
type NetPBMDecoder struct{}

// netpbmModes maps the magic code to the color label and bit depth.
var netpbmModes = map[string]struct {
	color string
	depth int
}{
	"P1": {"B/N", 1},
	"P4": {"B/N", 1},
	"P2": {"GRAY", 8},
	"P5": {"GRAY", 8},
	"P3": {"RGB", 24},
	"P6": {"RGB", 24},
}

// Name implements Decoder.
func (NetPBMDecoder) Name() string { return "netpbm" }

// DecodeImage implements Decoder.
func (NetPBMDecoder) DecodeImage(path string) (metadata.ImageInfo, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return metadata.ImageInfo{}, noInfo("netpbm: %v", err)
	}
	defer filesystem.CloseLogged(f, path)

	info, ok := parseNetPBM(bufio.NewReader(f))
	if !ok {
		return metadata.ImageInfo{}, noInfo("netpbm: %s: invalid header", filepath.Base(path))
	}
	return info, nil
}

// parseNetPBM scans the header line by line. The first line must carry the
// magic code; the first two integers that follow (comments skipped) are the
// width and the height.
func parseNetPBM(r *bufio.Reader) (metadata.ImageInfo, bool) {
	var info metadata.ImageInfo
	dims := make([]int, 0, 2)

	for row := 0; len(dims) < 2; row++ {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			return metadata.ImageInfo{}, false
		}
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)

		if row == 0 {
			if len(fields) == 0 {
				return metadata.ImageInfo{}, false
			}
			mode, ok := netpbmModes[fields[0]]
			if !ok {
				return metadata.ImageInfo{}, false
			}
			info.ColorMode = mode.color
			info.Depth = mode.depth
			fields = fields[1:]
		}

		for _, f := range fields {
			n, convErr := strconv.Atoi(f)
			if convErr != nil || n < 0 {
				return metadata.ImageInfo{}, false
			}
			dims = append(dims, n)
			if len(dims) == 2 {
				break
			}
		}

		if err != nil && len(dims) < 2 {
			return metadata.ImageInfo{}, false
		}
	}

	info.Width, info.Height = dims[0], dims[1]
	return info, true
}
