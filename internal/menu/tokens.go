package menu

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"media-inspector/internal/metadata"
)

// maxListed bounds the children of a files entry.
const maxListed = 50

// renderer resolves the tokens of one request.
type renderer struct {
	path      string
	info      interface{}
	scriptDir string
}

// token returns the value of a token name (without brackets) and whether
// it carried data.
func (r *renderer) token(name string) (string, bool) {
	switch name {
	case "file-name":
		base := filepath.Base(r.path)
		return base, base != ""
	case "file-ext":
		ext := strings.TrimPrefix(filepath.Ext(r.path), ".")
		return ext, ext != ""
	case "file-size":
		n := fileSize(r.info)
		if n <= 0 {
			return "", false
		}
		return formatBytes(n), true
	}

	switch v := r.info.(type) {
	case *metadata.ImageInfo:
		return imageToken(v, name)
	case *metadata.MediaInfo:
		return mediaToken(v, name)
	case *metadata.PDFInfo:
		return pdfToken(v, name)
	case *metadata.OfficeInfo:
		return officeToken(v, name)
	case *metadata.ArchiveInfo:
		return archiveToken(v, name)
	case *metadata.FolderInfo:
		return folderToken(v, name)
	case *metadata.ModelInfo:
		return modelToken(v, name)
	}
	return "", false
}

func fileSize(info interface{}) int64 {
	switch v := info.(type) {
	case *metadata.ImageInfo:
		return v.FileSize
	case *metadata.MediaInfo:
		return v.FileSize
	case *metadata.PDFInfo:
		return v.FileSize
	case *metadata.OfficeInfo:
		return v.FileSize
	case *metadata.ArchiveInfo:
		return v.FileSize
	case *metadata.FolderInfo:
		return v.TotalSize
	case *metadata.ModelInfo:
		return v.FileSize
	case *metadata.FileInfo:
		return v.FileSize
	}
	return 0
}

func text(s string) (string, bool) {
	return s, s != ""
}

// dimensionToken handles the tokens shared by images and video tracks.
func dimensionToken(width, height int, name string) (string, bool) {
	switch name {
	case "size":
		if width <= 0 && height <= 0 {
			return "", false
		}
		return fmt.Sprintf("%s × %s px", formatInt(int64(width)), formatInt(int64(height))), true
	case "width":
		return formatInt(int64(width)) + " px", width > 0
	case "height":
		return formatInt(int64(height)) + " px", height > 0
	case "ratio":
		return aspectRatio(width, height, true)
	case "resolution":
		return text(resolutionName(width, height))
	}
	return "", false
}

func imageToken(img *metadata.ImageInfo, name string) (string, bool) {
	switch name {
	case "size", "width", "height", "ratio", "resolution":
		return dimensionToken(img.Width, img.Height, name)
	case "color-space":
		return text(img.ColorMode)
	case "color-depth":
		switch {
		case img.Depth <= 0:
			return "", false
		case img.ColorMode == "":
			return fmt.Sprintf("%d bit", img.Depth), true
		default:
			return fmt.Sprintf("%s %d bit", img.ColorMode, img.Depth), true
		}
	case "dpi":
		if img.DPI <= 0 {
			return "", false
		}
		return fmt.Sprintf("%d dpi", img.DPI), true
	}
	if strings.HasPrefix(name, "print:") {
		return printToken(img, strings.Split(name, ":")[1:])
	}
	return "", false
}

// printToken renders the printed size, print:unit[:dpi]. Without an
// explicit resolution the image DPI is used.
func printToken(img *metadata.ImageInfo, args []string) (string, bool) {
	if len(args) == 0 || len(args) > 2 {
		return "", false
	}
	unit, ok := printUnits[args[0]]
	if !ok {
		return "", false
	}
	dpi := img.DPI
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", false
		}
		dpi = n
	}
	if dpi <= 0 || img.Width <= 0 || img.Height <= 0 {
		return "", false
	}
	w := float64(img.Width) / float64(dpi) * unit.scale
	h := float64(img.Height) / float64(dpi) * unit.scale
	return fmt.Sprintf("%s × %s %s (%d dpi)", formatDecimal(w, 1), formatDecimal(h, 1), unit.label, dpi), true
}

func mediaToken(m *metadata.MediaInfo, name string) (string, bool) {
	video, hasVideo := m.PrimaryVideo()
	audio, hasAudio := m.PrimaryAudio()

	duration := m.Duration
	if duration <= 0 {
		switch {
		case hasVideo:
			duration = video.Duration
		case hasAudio:
			duration = audio.Duration
		}
	}

	switch name {
	case "size", "width", "height", "ratio", "resolution":
		if !hasVideo {
			return "", false
		}
		return dimensionToken(video.Width, video.Height, name)
	case "duration":
		return formatTime(duration), duration > 0
	case "seconds":
		return formatDecimal(duration, 2) + " s", duration > 0
	case "fps":
		if !hasVideo || video.FrameCount <= 0 || video.Duration <= 0 {
			return "", false
		}
		return formatDecimal(float64(video.FrameCount)/video.Duration, 2) + " fps", true
	case "frames":
		if !hasVideo || video.FrameCount <= 0 {
			return "", false
		}
		return formatInt(int64(video.FrameCount)) + " frames", true
	case "bitrate":
		rate := m.BitRate
		if rate <= 0 {
			switch {
			case hasVideo:
				rate = video.BitRate
			case hasAudio:
				rate = audio.BitRate
			}
		}
		if rate <= 0 {
			return "", false
		}
		return formatBits(rate), true
	case "codec":
		if hasVideo {
			return text(video.Codec)
		}
		if hasAudio {
			return text(audio.Codec)
		}
		return "", false
	case "languages":
		langs := m.Streams.Languages()
		names := make([]string, 0, len(langs))
		for _, l := range langs {
			names = append(names, languageName(l))
		}
		return text(strings.Join(names, ", "))
	case "language":
		switch {
		case hasVideo && video.Lang != "":
			return text(languageName(video.Lang))
		case hasAudio:
			return text(languageName(audio.Lang))
		}
		return "", false
	case "title":
		return text(m.Title)
	case "video":
		return formatCount(len(m.Streams.Video()), "", "1 video track", "%s video tracks")
	case "audio":
		return formatCount(len(m.Streams.Audio()), "", "1 audio track", "%s audio tracks")
	case "subtitles":
		return formatCount(len(m.Streams.Subtitles()), "", "1 subtitle", "%s subtitles")
	case "engine":
		return text(m.Engine)
	}
	return "", false
}

func pdfToken(p *metadata.PDFInfo, name string) (string, bool) {
	switch name {
	case "pages":
		return formatCount(p.Pages, "", "1 page", "%s pages")
	case "title":
		return text(p.Title)
	case "author":
		return text(p.Author)
	case "creator":
		return text(p.Creator)
	case "producer":
		return text(p.Producer)
	case "subject":
		return text(p.Subject)
	case "keywords":
		return text(p.Keywords)
	case "version":
		if p.Version == "" {
			return "", false
		}
		return "PDF version " + p.Version, true
	case "security":
		if !p.Encrypted {
			return "", false
		}
		return "encrypted", true
	}
	return "", false
}

func officeToken(o *metadata.OfficeInfo, name string) (string, bool) {
	switch name {
	case "title":
		return text(o.Title)
	case "subject":
		return text(o.Subject)
	case "author", "creator":
		return text(o.Creator)
	case "keywords":
		return text(o.Keywords)
	case "application":
		return text(o.Application)
	case "pages":
		switch {
		case o.Pages > 0:
			return formatCount(o.Pages, "", "1 page", "%s pages")
		case o.Sheets > 0:
			return formatCount(o.Sheets, "", "1 sheet", "%s sheets")
		default:
			return formatCount(o.Slides, "", "1 slide", "%s slides")
		}
	case "words":
		return formatCount(o.Words, "", "1 word", "%s words")
	case "characters":
		return formatCount(o.Characters, "", "1 character", "%s characters")
	}
	return "", false
}

func archiveToken(a *metadata.ArchiveInfo, name string) (string, bool) {
	switch name {
	case "n-files":
		return formatCount(a.FileCount, "empty", "1 file", "%s files")
	case "compression-summary":
		if a.UncompressedSize <= 0 {
			return "", false
		}
		if a.CompressedSize <= 0 || a.CompressedSize == a.UncompressedSize {
			return formatBytes(a.UncompressedSize) + " uncompressed", true
		}
		ratio := float64(a.CompressedSize) / float64(a.UncompressedSize) * 100
		return fmt.Sprintf("%s → %s (%s%%)", formatBytes(a.UncompressedSize), formatBytes(a.CompressedSize), formatDecimal(ratio, 0)), true
	}
	return "", false
}

func folderToken(f *metadata.FolderInfo, name string) (string, bool) {
	switch name {
	case "n-files":
		return formatCount(f.FileCount, "empty", "1 file", "%s files")
	case "n-files-all":
		files, ok := formatCount(f.FileCount, "no files", "1 file", "%s files")
		folders, ok2 := formatCount(f.FolderCount, "", "1 folder", "%s folders")
		s := files
		if ok2 {
			s += ", " + folders
		}
		if f.Truncated {
			s += " (at least)"
		}
		return s, ok || ok2
	}
	return "", false
}

func modelToken(m *metadata.ModelInfo, name string) (string, bool) {
	switch name {
	case "mesh":
		return formatCount(m.Meshes, "", "1 mesh", "%s meshes")
	case "vertex":
		return formatCount(m.Vertices, "", "1 vertex", "%s vertices")
	case "normal":
		return formatCount(m.Normals, "", "1 normal", "%s normals")
	case "texture-coords":
		return formatCount(m.TextureCoords, "", "1 texture coordinate", "%s texture coordinates")
	case "colors":
		if !m.VertexColors {
			return "", false
		}
		return "vertex colors", true
	}
	return "", false
}

// filesItem lists the members of an archive or folder as children.
func (r *renderer) filesItem(image string) *Item {
	var children []*Item
	var count int
	var truncated bool

	switch v := r.info.(type) {
	case *metadata.ArchiveInfo:
		count, truncated = v.FileCount, v.Truncated
		for _, e := range v.Files {
			if len(children) == maxListed {
				truncated = true
				break
			}
			title := e.Name
			if !e.Dir {
				title += " (" + formatBytes(e.Size) + ")"
			}
			children = append(children, &Item{Title: title, Action: Action{Kind: ActionNone}})
		}
	case *metadata.FolderInfo:
		count, truncated = v.FileCount, v.Truncated
		for _, e := range v.Files {
			if len(children) == maxListed {
				truncated = true
				break
			}
			title := e.Name
			if !e.Dir {
				title += " (" + formatBytes(e.Size) + ")"
			}
			children = append(children, &Item{
				Title:  title,
				Action: Action{Kind: ActionOpen, Path: filepath.Join(r.path, e.Name)},
			})
		}
	default:
		return nil
	}
	if len(children) == 0 {
		return nil
	}
	if truncated {
		children = append(children, &Item{Title: "…", Action: Action{Kind: ActionNone}})
	}
	title, _ := formatCount(count, "", "1 file", "%s files")
	return &Item{Title: title, Image: image, Action: Action{Kind: ActionNone}, Children: children}
}
