package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"
)

// maxXMLPart caps how much of a single package part is read.
const maxXMLPart = 8 << 20

// coreProperties is docProps/core.xml of an OOXML package. Elements are
// matched by local name so the dc/cp/dcterms prefixes do not matter.
type coreProperties struct {
	Title          string `xml:"title"`
	Subject        string `xml:"subject"`
	Creator        string `xml:"creator"`
	Keywords       string `xml:"keywords"`
	Description    string `xml:"description"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
}

// appProperties is docProps/app.xml of an OOXML package.
type appProperties struct {
	Application string `xml:"Application"`
	AppVersion  string `xml:"AppVersion"`
	Pages       int    `xml:"Pages"`
	Words       int    `xml:"Words"`
	Characters  int    `xml:"Characters"`
	Slides      int    `xml:"Slides"`
}

// odfMeta is meta.xml of an OpenDocument package.
type odfMeta struct {
	Meta struct {
		Generator      string   `xml:"generator"`
		Title          string   `xml:"title"`
		Subject        string   `xml:"subject"`
		Description    string   `xml:"description"`
		Keywords       []string `xml:"keyword"`
		InitialCreator string   `xml:"initial-creator"`
		Creator        string   `xml:"creator"`
		CreationDate   string   `xml:"creation-date"`
		Date           string   `xml:"date"`
		Statistic      struct {
			Pages      int `xml:"page-count,attr"`
			Words      int `xml:"word-count,attr"`
			Characters int `xml:"character-count,attr"`
			Tables     int `xml:"table-count,attr"`
		} `xml:"document-statistic"`
	} `xml:"meta"`
}

func (e *Extractor) office(tag metadata.Tag, path string, size int64) (*metadata.OfficeInfo, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not an office package: %v", ErrNoInfo, path, err)
	}
	defer filesystem.CloseLogged(zr, "office package")

	var info *metadata.OfficeInfo
	switch tag {
	case metadata.TagODT, metadata.TagODS, metadata.TagODP:
		info, err = readODF(&zr.Reader, tag)
	default:
		info, err = readOOXML(&zr.Reader, tag)
	}
	if err != nil {
		return nil, err
	}
	info.FileSize = size
	return info, nil
}

func readOOXML(zr *zip.Reader, tag metadata.Tag) (*metadata.OfficeInfo, error) {
	var core coreProperties
	if err := decodePart(zr, "docProps/core.xml", &core); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	var app appProperties
	// app.xml is optional; documents written by some tools omit it.
	_ = decodePart(zr, "docProps/app.xml", &app)

	info := &metadata.OfficeInfo{
		Title:        strings.TrimSpace(core.Title),
		Subject:      strings.TrimSpace(core.Subject),
		Creator:      strings.TrimSpace(core.Creator),
		Keywords:     strings.TrimSpace(core.Keywords),
		Description:  strings.TrimSpace(core.Description),
		LastModifier: strings.TrimSpace(core.LastModifiedBy),
		Created:      parseOfficeTime(core.Created),
		Modified:     parseOfficeTime(core.Modified),
		Application:  strings.TrimSpace(app.Application),
		Pages:        app.Pages,
		Words:        app.Words,
		Characters:   app.Characters,
		Slides:       app.Slides,
	}
	switch tag {
	case metadata.TagXLS:
		info.Sheets = countParts(zr, "xl/worksheets/sheet")
	case metadata.TagPPT:
		if info.Slides == 0 {
			info.Slides = countParts(zr, "ppt/slides/slide")
		}
	}
	return info, nil
}

func readODF(zr *zip.Reader, tag metadata.Tag) (*metadata.OfficeInfo, error) {
	var doc odfMeta
	if err := decodePart(zr, "meta.xml", &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	m := doc.Meta
	creator := m.InitialCreator
	if creator == "" {
		creator = m.Creator
	}
	info := &metadata.OfficeInfo{
		Title:        strings.TrimSpace(m.Title),
		Subject:      strings.TrimSpace(m.Subject),
		Creator:      strings.TrimSpace(creator),
		Keywords:     strings.Join(m.Keywords, ", "),
		Description:  strings.TrimSpace(m.Description),
		LastModifier: strings.TrimSpace(m.Creator),
		Created:      parseOfficeTime(m.CreationDate),
		Modified:     parseOfficeTime(m.Date),
		Application:  strings.TrimSpace(m.Generator),
		Pages:        m.Statistic.Pages,
		Words:        m.Statistic.Words,
		Characters:   m.Statistic.Characters,
	}
	switch tag {
	case metadata.TagODS:
		info.Sheets = m.Statistic.Tables
	case metadata.TagODP:
		info.Slides = countElements(zr, "content.xml", "page")
	}
	return info, nil
}

func openPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("missing %s", name)
}

func decodePart(zr *zip.Reader, name string, v interface{}) error {
	rc, err := openPart(zr, name)
	if err != nil {
		return err
	}
	defer filesystem.CloseLogged(rc, name)

	if err := xml.NewDecoder(io.LimitReader(rc, maxXMLPart)).Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// countParts counts package members named prefix<N>.xml.
func countParts(zr *zip.Reader, prefix string) int {
	n := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, prefix) && strings.HasSuffix(f.Name, ".xml") {
			n++
		}
	}
	return n
}

// countElements streams a part and counts start elements with the given
// local name.
func countElements(zr *zip.Reader, part, local string) int {
	rc, err := openPart(zr, part)
	if err != nil {
		return 0
	}
	defer filesystem.CloseLogged(rc, part)

	dec := xml.NewDecoder(io.LimitReader(rc, maxXMLPart))
	n := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return n
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == local {
			n++
		}
	}
}

func parseOfficeTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
