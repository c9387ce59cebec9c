package mediatypes

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrUnavailable is returned when the type of an item cannot be determined.
var ErrUnavailable = errors.New("content type unavailable")

// Identifier is a reverse-DNS content type identifier.
type Identifier string

// Abstract and structural identifiers.
const (
	Item              Identifier = "public.item"
	Content           Identifier = "public.content"
	Data              Identifier = "public.data"
	Text              Identifier = "public.text"
	PlainText         Identifier = "public.plain-text"
	Directory         Identifier = "public.directory"
	Folder            Identifier = "public.folder"
	Package           Identifier = "com.apple.package"
	Bundle            Identifier = "com.apple.bundle"
	Application       Identifier = "com.apple.application"
	ApplicationBundle Identifier = "com.apple.application-bundle"
)

// Images.
const (
	Image  Identifier = "public.image"
	JPEG   Identifier = "public.jpeg"
	PNG    Identifier = "public.png"
	GIF    Identifier = "com.compuserve.gif"
	BMP    Identifier = "com.microsoft.bmp"
	TIFF   Identifier = "public.tiff"
	HEIC   Identifier = "public.heic"
	WebP   Identifier = "org.webmproject.webp"
	SVG    Identifier = "public.svg-image"
	NetPBM Identifier = "public.pbm"
	BPG    Identifier = "org.bellard.bpg"
	ICO    Identifier = "com.microsoft.ico"
)

// Documents.
const (
	PDF         Identifier = "com.adobe.pdf"
	Illustrator Identifier = "com.adobe.illustrator.ai-image"
	DOCX        Identifier = "org.openxmlformats.wordprocessingml.document"
	XLSX        Identifier = "org.openxmlformats.spreadsheetml.sheet"
	PPTX        Identifier = "org.openxmlformats.presentationml.presentation"
	ODT         Identifier = "org.oasis-open.opendocument.text"
	ODS         Identifier = "org.oasis-open.opendocument.spreadsheet"
	ODP         Identifier = "org.oasis-open.opendocument.presentation"
	JSON        Identifier = "public.json"
	XML         Identifier = "public.xml"
)

// Audio and video.
const (
	AudiovisualContent Identifier = "public.audiovisual-content"
	Movie              Identifier = "public.movie"
	MPEG4              Identifier = "public.mpeg-4"
	QuickTime          Identifier = "com.apple.quicktime-movie"
	Matroska           Identifier = "org.matroska.mkv"
	WebM               Identifier = "org.webmproject.webm"
	AVI                Identifier = "public.avi"
	MPEG               Identifier = "public.mpeg"
	MPEG2TS            Identifier = "public.mpeg-2-transport-stream"
	Audio              Identifier = "public.audio"
	MP3                Identifier = "public.mp3"
	M4A                Identifier = "com.apple.m4a-audio"
	AAC                Identifier = "public.aac-audio"
	FLAC               Identifier = "org.xiph.flac"
	Ogg                Identifier = "org.xiph.ogg-audio"
	WAV                Identifier = "com.microsoft.waveform-audio"
)

// 3D content.
const (
	ThreeD Identifier = "public.3d-content"
	OBJ    Identifier = "public.geometry-definition-format"
	USDZ   Identifier = "com.pixar.universal-scene-description-mobile"
	STL    Identifier = "public.standard-tesselated-geometry-format"
)

// Archives and disk images.
const (
	Archive   Identifier = "public.archive"
	ZIP       Identifier = "public.zip-archive"
	RAR       Identifier = "com.rarlab.rar-archive"
	GZIP      Identifier = "org.gnu.gnu-zip-archive"
	BZIP2     Identifier = "public.bzip2-archive"
	XZ        Identifier = "org.tukaani.xz-archive"
	Tar       Identifier = "public.tar-archive"
	DiskImage Identifier = "public.disk-image"
	ISO       Identifier = "public.iso-image"
	DMG       Identifier = "com.apple.disk-image-udif"
)

// parents lists the direct supertypes of each identifier.
var parents = map[Identifier][]Identifier{
	Content:   {Item},
	Data:      {Item},
	Text:      {Data, Content},
	PlainText: {Text},
	JSON:      {Text},
	XML:       {Text},

	Directory:         {Item},
	Folder:            {Directory},
	Package:           {Directory},
	Bundle:            {Directory},
	Application:       {Item},
	ApplicationBundle: {Application, Bundle, Package},

	Image:  {Data, Content},
	JPEG:   {Image},
	PNG:    {Image},
	GIF:    {Image},
	BMP:    {Image},
	TIFF:   {Image},
	HEIC:   {Image},
	WebP:   {Image},
	SVG:    {Image, XML},
	NetPBM: {Image},
	BPG:    {Image},
	ICO:    {Image},

	PDF:         {Data, Content},
	Illustrator: {PDF},
	DOCX:        {ZIP, Content},
	XLSX:        {ZIP, Content},
	PPTX:        {ZIP, Content},
	ODT:         {ZIP, Content},
	ODS:         {ZIP, Content},
	ODP:         {ZIP, Content},

	AudiovisualContent: {Data, Content},
	Movie:              {AudiovisualContent},
	MPEG4:              {Movie},
	QuickTime:          {Movie},
	Matroska:           {Movie},
	WebM:               {Movie},
	AVI:                {Movie},
	MPEG:               {Movie},
	MPEG2TS:            {Movie},
	Audio:              {AudiovisualContent},
	MP3:                {Audio},
	M4A:                {Audio},
	AAC:                {Audio},
	FLAC:               {Audio},
	Ogg:                {Audio},
	WAV:                {Audio},

	ThreeD: {Data, Content},
	OBJ:    {ThreeD, Text},
	USDZ:   {ThreeD, ZIP},
	STL:    {ThreeD},

	Archive:   {Data},
	ZIP:       {Archive},
	RAR:       {Archive},
	GZIP:      {Archive},
	BZIP2:     {Archive},
	XZ:        {Archive},
	Tar:       {Archive},
	DiskImage: {Data},
	ISO:       {DiskImage, Archive},
	DMG:       {DiskImage, Archive},
}

// extensions maps lowercase file extensions (with the leading dot) to identifiers.
var extensions = map[string]Identifier{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".gif":  GIF,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".heic": HEIC,
	".heif": HEIC,
	".webp": WebP,
	".svg":  SVG,
	".pbm":  NetPBM,
	".pgm":  NetPBM,
	".ppm":  NetPBM,
	".pnm":  NetPBM,
	".bpg":  BPG,
	".ico":  ICO,

	".pdf":  PDF,
	".ai":   Illustrator,
	".docx": DOCX,
	".xlsx": XLSX,
	".pptx": PPTX,
	".odt":  ODT,
	".ods":  ODS,
	".odp":  ODP,
	".txt":  PlainText,
	".json": JSON,
	".xml":  XML,

	".mp4":  MPEG4,
	".m4v":  MPEG4,
	".mov":  QuickTime,
	".mkv":  Matroska,
	".webm": WebM,
	".avi":  AVI,
	".mpg":  MPEG,
	".mpeg": MPEG,
	".ts":   MPEG2TS,
	".mp3":  MP3,
	".m4a":  M4A,
	".aac":  AAC,
	".flac": FLAC,
	".ogg":  Ogg,
	".oga":  Ogg,
	".wav":  WAV,

	".obj":  OBJ,
	".usdz": USDZ,
	".stl":  STL,

	".zip": ZIP,
	".rar": RAR,
	".gz":  GZIP,
	".tgz": GZIP,
	".bz2": BZIP2,
	".xz":  XZ,
	".tar": Tar,
	".iso": ISO,
	".dmg": DMG,
}

// Directory extensions that turn a folder into a bundle or package.
var (
	bundleExtensions = map[string]bool{
		".bundle":    true,
		".framework": true,
		".plugin":    true,
		".kext":      true,
	}
	packageExtensions = map[string]bool{
		".pages":         true,
		".numbers":       true,
		".key":           true,
		".rtfd":          true,
		".photoslibrary": true,
		".xcodeproj":     true,
	}
)

// MimeTypes maps identifiers to MIME types.
var MimeTypes = map[Identifier]string{
	JPEG:      "image/jpeg",
	PNG:       "image/png",
	GIF:       "image/gif",
	BMP:       "image/bmp",
	TIFF:      "image/tiff",
	HEIC:      "image/heic",
	WebP:      "image/webp",
	SVG:       "image/svg+xml",
	NetPBM:    "image/x-portable-anymap",
	ICO:       "image/x-icon",
	PDF:       "application/pdf",
	DOCX:      "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	XLSX:      "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	PPTX:      "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	ODT:       "application/vnd.oasis.opendocument.text",
	ODS:       "application/vnd.oasis.opendocument.spreadsheet",
	ODP:       "application/vnd.oasis.opendocument.presentation",
	PlainText: "text/plain",
	JSON:      "application/json",
	XML:       "application/xml",
	MPEG4:     "video/mp4",
	QuickTime: "video/quicktime",
	Matroska:  "video/x-matroska",
	WebM:      "video/webm",
	AVI:       "video/x-msvideo",
	MPEG:      "video/mpeg",
	MPEG2TS:   "video/mp2t",
	MP3:       "audio/mpeg",
	M4A:       "audio/mp4",
	AAC:       "audio/aac",
	FLAC:      "audio/flac",
	Ogg:       "audio/ogg",
	WAV:       "audio/wav",
	ZIP:       "application/zip",
	RAR:       "application/vnd.rar",
	GZIP:      "application/gzip",
	BZIP2:     "application/x-bzip2",
	XZ:        "application/x-xz",
	Tar:       "application/x-tar",
	OBJ:       "model/obj",
	STL:       "model/stl",
}

// dynamicPrefix marks identifiers synthesized for unknown extensions.
const dynamicPrefix = "dyn."

// Conforms reports whether id is parent or one of its transitive supertypes.
// Identifiers synthesized for unknown extensions conform to public.data.
func Conforms(id, parent Identifier) bool {
	if id == parent {
		return true
	}
	if strings.HasPrefix(string(id), dynamicPrefix) {
		return parent == Data || parent == Item
	}
	visited := make(map[Identifier]bool)
	queue := []Identifier{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range parents[cur] {
			if p == parent {
				return true
			}
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}
	return false
}

// ConformsToAny reports whether id conforms to at least one of the candidates.
func ConformsToAny(id Identifier, candidates ...Identifier) bool {
	for _, c := range candidates {
		if Conforms(id, c) {
			return true
		}
	}
	return false
}

// ForExtension returns the identifier for a file extension. The extension
// may be given with or without the leading dot and in any case. Unknown
// extensions map to a "dyn.<ext>" identifier.
func ForExtension(ext string) Identifier {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if id, ok := extensions[ext]; ok {
		return id
	}
	if ext == "" {
		return Data
	}
	return Identifier(dynamicPrefix + strings.TrimPrefix(ext, "."))
}

// ForFileInfo returns the identifier of a file system item from its name
// and stat result.
func ForFileInfo(name string, info fs.FileInfo) Identifier {
	ext := strings.ToLower(filepath.Ext(name))
	if info.IsDir() {
		switch {
		case ext == ".app":
			return ApplicationBundle
		case bundleExtensions[ext]:
			return Bundle
		case packageExtensions[ext]:
			return Package
		default:
			return Folder
		}
	}
	return ForExtension(ext)
}

// GetMimeType returns the MIME type of an identifier.
// Returns "application/octet-stream" if the identifier is not recognized.
func GetMimeType(id Identifier) string {
	if mime, ok := MimeTypes[id]; ok {
		return mime
	}
	return "application/octet-stream"
}
