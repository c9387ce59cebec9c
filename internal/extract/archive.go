package extract

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"
)

// maxArchiveEntries caps the entries listed in a reply. Totals still cover
// the whole archive.
const maxArchiveEntries = 1000

var (
	zipMagic   = []byte("PK\x03\x04")
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

func (e *Extractor) archive(path string, size int64) (*metadata.ArchiveInfo, error) {
	f, err := filesystem.OpenWithRetry(path, e.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	defer filesystem.CloseLogged(f, "archive")

	br := bufio.NewReader(f)
	head, _ := br.Peek(6)

	var info *metadata.ArchiveInfo
	switch {
	case bytes.HasPrefix(head, zipMagic):
		info, err = listZip(f, size)
	case bytes.HasPrefix(head, gzipMagic):
		var gz *gzip.Reader
		gz, err = gzip.NewReader(br)
		if err == nil {
			defer filesystem.CloseLogged(gz, "gzip stream")
			info, err = listCompressed(gz, "gzip", path)
		}
	case bytes.HasPrefix(head, bzip2Magic):
		info, err = listCompressed(bzip2.NewReader(br), "bzip2", path)
	case bytes.HasPrefix(head, xzMagic):
		return nil, fmt.Errorf("%w: xz streams are not supported", ErrNoInfo)
	default:
		info, err = listTar(tar.NewReader(br), "tar")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	info.FileSize = size
	info.CompressedSize = size
	sort.Slice(info.Files, func(i, j int) bool { return info.Files[i].Name < info.Files[j].Name })
	return info, nil
}

func listZip(r io.ReaderAt, size int64) (*metadata.ArchiveInfo, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	info := &metadata.ArchiveInfo{Format: "zip", Files: []metadata.ArchiveEntry{}}
	for _, f := range zr.File {
		if isMetadataEntry(f.Name) {
			continue
		}
		info.FileCount++
		info.UncompressedSize += int64(f.UncompressedSize64)
		if len(info.Files) >= maxArchiveEntries {
			info.Truncated = true
			continue
		}
		info.Files = append(info.Files, metadata.ArchiveEntry{
			Name:             f.Name,
			Dir:              f.FileInfo().IsDir(),
			Size:             int64(f.UncompressedSize64),
			CompressedSize:   int64(f.CompressedSize64),
			CompressedMethod: zipMethodName(f.Method),
		})
	}
	return info, nil
}

// listCompressed lists a tar inside a compressed stream, or describes the
// stream as a single compressed file when it does not hold a tar.
func listCompressed(r io.Reader, format, path string) (*metadata.ArchiveInfo, error) {
	br := bufio.NewReader(r)
	block, _ := br.Peek(512)
	if isTarHeader(block) {
		return listTar(tar.NewReader(br), "tar+"+format)
	}

	n, err := io.Copy(io.Discard, br)
	if err != nil {
		return nil, fmt.Errorf("corrupt %s stream: %w", format, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &metadata.ArchiveInfo{
		Format:           format,
		Files:            []metadata.ArchiveEntry{{Name: name, Size: n, CompressedMethod: format}},
		FileCount:        1,
		UncompressedSize: n,
	}, nil
}

func listTar(tr *tar.Reader, format string) (*metadata.ArchiveInfo, error) {
	info := &metadata.ArchiveInfo{Format: format, Files: []metadata.ArchiveEntry{}}
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if info.FileCount == 0 {
				return nil, fmt.Errorf("not a recognized archive: %w", err)
			}
			// Keep what was listed before a truncated tail.
			break
		}
		if isMetadataEntry(hdr.Name) {
			continue
		}
		info.FileCount++
		info.UncompressedSize += hdr.Size
		if len(info.Files) >= maxArchiveEntries {
			info.Truncated = true
			continue
		}
		info.Files = append(info.Files, metadata.ArchiveEntry{
			Name: hdr.Name,
			Dir:  hdr.Typeflag == tar.TypeDir,
			Size: hdr.Size,
		})
	}
	if info.FileCount == 0 {
		return nil, errors.New("empty archive")
	}
	return info, nil
}

// isTarHeader checks the ustar magic of a tar header block.
func isTarHeader(block []byte) bool {
	if len(block) < 512 {
		return false
	}
	magic := block[257:262]
	return bytes.Equal(magic, []byte("ustar"))
}

func isMetadataEntry(name string) bool {
	base := filepath.Base(strings.TrimSuffix(name, "/"))
	return base == ".DS_Store" || strings.HasPrefix(name, "__MACOSX/")
}

func zipMethodName(m uint16) string {
	switch m {
	case zip.Store:
		return "store"
	case zip.Deflate:
		return "deflate"
	case 12:
		return "bzip2"
	case 14:
		return "lzma"
	case 93:
		return "zstd"
	}
	return fmt.Sprintf("method %d", m)
}
