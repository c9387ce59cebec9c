package classifier

import (
	"fmt"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/logging"
	"media-inspector/internal/mediatypes"
	"media-inspector/internal/metadata"
	"media-inspector/internal/settings"
)

// Domain is the family an item was classified into.
type Domain string

const (
	DomainNone    Domain = "none"
	DomainPDF     Domain = "pdf"
	DomainImage   Domain = "image"
	DomainVideo   Domain = "video"
	DomainAudio   Domain = "audio"
	DomainOffice  Domain = "office"
	DomainModel   Domain = "model"
	DomainArchive Domain = "archive"
	DomainFolder  Domain = "folder"
	DomainCustom  Domain = "custom"
	DomainOthers  Domain = "others"
)

// Result is the outcome of a classification: the selected domain, the
// helper request tag of its extractor, and the settings that authorized it.
type Result struct {
	Domain     Domain
	Tag        metadata.Tag
	Identifier mediatypes.Identifier
	Settings   settings.FormatSettings
	// Custom is set when the match came from the custom format list.
	Custom *settings.CustomFormat
	// Bundle is set when a bundle-like folder matched.
	Bundle bool
}

type officeFormat struct {
	id  mediatypes.Identifier
	tag metadata.Tag
}

// Office families in dispatch order.
var officeFormats = []officeFormat{
	{mediatypes.DOCX, metadata.TagDoc},
	{mediatypes.XLSX, metadata.TagXLS},
	{mediatypes.PPTX, metadata.TagPPT},
	{mediatypes.ODT, metadata.TagODT},
	{mediatypes.ODS, metadata.TagODS},
	{mediatypes.ODP, metadata.TagODP},
}

var archiveFormats = []mediatypes.Identifier{
	mediatypes.ZIP,
	mediatypes.RAR,
	mediatypes.Archive,
	mediatypes.GZIP,
	mediatypes.BZIP2,
	mediatypes.XZ,
}

var bundleFormats = []mediatypes.Identifier{
	mediatypes.ApplicationBundle,
	mediatypes.Bundle,
	mediatypes.Package,
}

// Classify selects exactly one domain for an item with the given content type
// identifier. Checks run in a fixed order and the first enabled match wins.
// It returns false when nothing enabled matches.
func Classify(id mediatypes.Identifier, s settings.Settings) (Result, bool) {
	match := func(d Domain, tag metadata.Tag, fs settings.FormatSettings) (Result, bool) {
		return Result{Domain: d, Tag: tag, Identifier: id, Settings: fs}, true
	}

	if s.PDF.Enabled && mediatypes.ConformsToAny(id, mediatypes.PDF, mediatypes.Illustrator) {
		return match(DomainPDF, metadata.TagPDF, s.PDF)
	}
	if s.Image.Enabled && mediatypes.Conforms(id, mediatypes.Image) {
		return match(DomainImage, metadata.TagImage, s.Image)
	}
	if s.Video.Enabled && mediatypes.Conforms(id, mediatypes.Movie) {
		return match(DomainVideo, metadata.TagVideo, s.Video)
	}
	if s.Audio.Enabled && mediatypes.Conforms(id, mediatypes.Audio) {
		return match(DomainAudio, metadata.TagAudio, s.Audio)
	}
	if s.Office.Enabled {
		for _, f := range officeFormats {
			if mediatypes.Conforms(id, f.id) {
				return match(DomainOffice, f.tag, s.Office)
			}
		}
	}
	if s.Model.Enabled && mediatypes.Conforms(id, mediatypes.ThreeD) {
		return match(DomainModel, metadata.Tag3D, s.Model)
	}
	if s.Archive.Enabled && !mediatypes.Conforms(id, mediatypes.DiskImage) &&
		mediatypes.ConformsToAny(id, archiveFormats...) {
		return match(DomainArchive, metadata.TagArchive, s.Archive)
	}
	if s.Folder.Enabled && mediatypes.Conforms(id, mediatypes.Folder) {
		return match(DomainFolder, metadata.TagFolder, s.Folder.FormatSettings)
	}
	if s.Folder.Enabled && s.Folder.BundleEnabled && mediatypes.ConformsToAny(id, bundleFormats...) {
		r, ok := match(DomainFolder, metadata.TagFolder, s.Folder.FormatSettings)
		r.Bundle = true
		return r, ok
	}
	for i := range s.CustomFormats {
		f := s.CustomFormats[i]
		if f.Enabled && mediatypes.Conforms(id, f.Identifier) {
			r, ok := match(DomainCustom, metadata.TagFile, settings.FormatSettings{Enabled: true, Templates: f.Templates})
			r.Custom = &f
			return r, ok
		}
	}
	if s.Others.Enabled {
		return match(DomainOthers, metadata.TagFile, s.Others)
	}
	return Result{Domain: DomainNone, Identifier: id}, false
}

// ClassifyPath resolves the identifier of the item at path and classifies
// it. A stat failure is logged and reported as no match.
func ClassifyPath(path string, s settings.Settings) (Result, bool) {
	id, err := IdentifierForPath(path)
	if err != nil {
		logging.Warn("Unable to get the content type of %s: %v", path, err)
		return Result{Domain: DomainNone}, false
	}
	r, ok := Classify(id, s)
	if ok {
		logging.Debug("Classified %s (%s) as %s", path, id, r.Domain)
	} else {
		logging.Debug("No enabled format for %s (%s)", path, id)
	}
	return r, ok
}

// IdentifierForPath stats the item at path and returns its identifier.
func IdentifierForPath(path string) (mediatypes.Identifier, error) {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("%w: %v", mediatypes.ErrUnavailable, err)
	}
	return mediatypes.ForFileInfo(path, info), nil
}
