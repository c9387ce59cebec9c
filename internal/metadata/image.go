package metadata

import "fmt"

// ImageInfo describes the raster properties of an image.
type ImageInfo struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	DPI       int    `json:"dpi"`
	ColorMode string `json:"colorMode"`
	Depth     int    `json:"depth"`
	FileSize  int64  `json:"fileSize,omitempty"`
}

// Size returns the dimensions formatted as "WxH".
func (i ImageInfo) Size() string {
	if i.Width == 0 && i.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%d × %d", i.Width, i.Height)
}
