package metadata

import (
	"encoding/json"
	"fmt"
)

// Tag selects the extractor the helper runs for a request.
type Tag string

const (
	TagPDF     Tag = "pdf"
	TagImage   Tag = "image"
	TagAudio   Tag = "audio"
	TagVideo   Tag = "video"
	TagDoc     Tag = "doc"
	TagXLS     Tag = "xls"
	TagPPT     Tag = "ppt"
	TagODT     Tag = "odt"
	TagODS     Tag = "ods"
	TagODP     Tag = "odp"
	Tag3D      Tag = "3d"
	TagArchive Tag = "archive"
	TagFolder  Tag = "folder"
	TagFile    Tag = "file"
)

// Tags lists every request tag.
var Tags = []Tag{
	TagPDF, TagImage, TagAudio, TagVideo,
	TagDoc, TagXLS, TagPPT, TagODT, TagODS, TagODP,
	Tag3D, TagArchive, TagFolder, TagFile,
}

// ParseTag validates a tag received over the wire.
func ParseTag(s string) (Tag, error) {
	for _, t := range Tags {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown type tag %q", s)
}

// IsOffice reports whether the tag is one of the office document tags.
func (t Tag) IsOffice() bool {
	switch t {
	case TagDoc, TagXLS, TagPPT, TagODT, TagODS, TagODP:
		return true
	}
	return false
}

// New returns a pointer to an empty record of the type the tag produces.
func (t Tag) New() (interface{}, error) {
	switch {
	case t == TagImage:
		return &ImageInfo{}, nil
	case t == TagAudio, t == TagVideo:
		return &MediaInfo{}, nil
	case t == TagPDF:
		return &PDFInfo{}, nil
	case t.IsOffice():
		return &OfficeInfo{}, nil
	case t == Tag3D:
		return &ModelInfo{}, nil
	case t == TagArchive:
		return &ArchiveInfo{}, nil
	case t == TagFolder:
		return &FolderInfo{}, nil
	case t == TagFile:
		return &FileInfo{}, nil
	}
	return nil, fmt.Errorf("unknown type tag %q", t)
}

// Decode decodes a helper reply into the record type of the tag.
// The returned value is a pointer (e.g. *ImageInfo).
func Decode(t Tag, payload []byte) (interface{}, error) {
	v, err := t.New()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, fmt.Errorf("failed to decode %s info: %w", t, err)
	}
	return v, nil
}
