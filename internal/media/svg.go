package media

import (
	"encoding/xml"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"
)

// SVGDecoder reads the width and height attributes of the root <svg>
// element. Parsing stops at the first element.
type SVGDecoder struct{}

// Name implements Decoder.
func (SVGDecoder) Name() string { return "svg" }

// DecodeImage implements Decoder.
func (SVGDecoder) DecodeImage(path string) (metadata.ImageInfo, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return metadata.ImageInfo{}, noInfo("svg: %v", err)
	}
	defer filesystem.CloseLogged(f, path)

	w, h, err := scanSVGRoot(f)
	if err != nil {
		return metadata.ImageInfo{}, noInfo("svg: %s: %v", filepath.Base(path), err)
	}
	return metadata.ImageInfo{Width: w, Height: h, Depth: 24}, nil
}

func scanSVGRoot(r io.Reader) (width, height int, err error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	d.Strict = false

	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, 0, errors.New("no root element")
			}
			return 0, 0, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return 0, 0, errors.New("root element is <" + start.Name.Local + ">")
		}

		haveW, haveH := false, false
		for _, a := range start.Attr {
			if a.Name.Space != "" {
				continue
			}
			n, convErr := strconv.Atoi(strings.TrimSpace(a.Value))
			if convErr != nil {
				continue
			}
			switch a.Name.Local {
			case "width":
				width, haveW = n, true
			case "height":
				height, haveH = n, true
			}
		}
		if !haveW || !haveH {
			return 0, 0, errors.New("missing integer width or height")
		}
		return width, height, nil
	}
}
