package extract

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/metadata"

	"golang.org/x/text/encoding/unicode"
)

// maxPDFScan caps how much of a PDF is scanned.
const maxPDFScan = 64 << 20

var (
	pdfHeader  = regexp.MustCompile(`^%PDF-(\d+\.\d+)`)
	pdfPage    = regexp.MustCompile(`/Type\s*/Page([^s]|$)`)
	pdfCount   = regexp.MustCompile(`/Type\s*/Pages\b[^>]*?/Count\s+(\d+)`)
	pdfEncrypt = regexp.MustCompile(`/Encrypt\s`)
)

// pdf scans the raw bytes of a PDF for its header, page objects and the
// document info strings. Compressed object streams are not inflated, so
// documents that keep their info there report only what is visible.
func (e *Extractor) pdf(path string, size int64) (*metadata.PDFInfo, error) {
	f, err := filesystem.OpenWithRetry(path, e.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	defer filesystem.CloseLogged(f, "pdf")

	data, err := io.ReadAll(io.LimitReader(f, maxPDFScan))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	return parsePDF(data, size)
}

func parsePDF(data []byte, size int64) (*metadata.PDFInfo, error) {
	m := pdfHeader.FindSubmatch(data)
	if m == nil {
		return nil, fmt.Errorf("%w: missing PDF header", ErrNoInfo)
	}
	info := &metadata.PDFInfo{
		Version:   string(m[1]),
		Encrypted: pdfEncrypt.Match(data),
		FileSize:  size,
	}

	// The root page tree carries the largest count.
	for _, c := range pdfCount.FindAllSubmatch(data, -1) {
		if n, err := strconv.Atoi(string(c[1])); err == nil && n > info.Pages {
			info.Pages = n
		}
	}
	if info.Pages == 0 {
		info.Pages = len(pdfPage.FindAllIndex(data, -1))
	}

	info.Title = pdfInfoString(data, "Title")
	info.Author = pdfInfoString(data, "Author")
	info.Subject = pdfInfoString(data, "Subject")
	info.Keywords = pdfInfoString(data, "Keywords")
	info.Creator = pdfInfoString(data, "Creator")
	info.Producer = pdfInfoString(data, "Producer")
	return info, nil
}

// pdfInfoString returns the last literal or hex string stored for key.
// Incremental updates append newer info dictionaries at the end.
func pdfInfoString(data []byte, key string) string {
	marker := []byte("/" + key)
	var value string
	for off := 0; ; {
		i := bytes.Index(data[off:], marker)
		if i < 0 {
			break
		}
		pos := off + i + len(marker)
		off = pos
		// Skip keys that only share a prefix (e.g. /Titles).
		if pos < len(data) && isPDFNameChar(data[pos]) {
			continue
		}
		for pos < len(data) && isPDFSpace(data[pos]) {
			pos++
		}
		if pos >= len(data) {
			break
		}
		switch data[pos] {
		case '(':
			if s, ok := readLiteralString(data[pos:]); ok {
				value = decodePDFText(s)
			}
		case '<':
			if pos+1 < len(data) && data[pos+1] != '<' {
				if s, ok := readHexString(data[pos:]); ok {
					value = decodePDFText(s)
				}
			}
		}
	}
	return strings.TrimSpace(value)
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isPDFNameChar(c byte) bool {
	return !isPDFSpace(c) && !strings.ContainsRune("()<>[]{}/%", rune(c))
}

// readLiteralString decodes a balanced (...) string with its escapes.
func readLiteralString(b []byte) ([]byte, bool) {
	var out []byte
	depth := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '\\' && i+1 < len(b):
			i++
			switch e := b[i]; e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && i+1 < len(b) && b[i+1] >= '0' && b[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(b[i]-'0')
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		case c == '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return out, true
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return nil, false
}

func readHexString(b []byte) ([]byte, bool) {
	end := bytes.IndexByte(b, '>')
	if end < 0 {
		return nil, false
	}
	var digits []byte
	for _, c := range b[1:end] {
		if !isPDFSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		v, err := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		if err != nil {
			return nil, false
		}
		out[i] = byte(v)
	}
	return out, true
}

// decodePDFText converts a text string: UTF-16 when it starts with a byte
// order mark, otherwise bytes are taken as Latin-1.
func decodePDFText(b []byte) string {
	if len(b) >= 2 && ((b[0] == 0xfe && b[1] == 0xff) || (b[0] == 0xff && b[1] == 0xfe)) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if s, err := dec.Bytes(b); err == nil {
			return string(s)
		}
	}
	if len(b) >= 3 && b[0] == 0xef && b[1] == 0xbb && b[2] == 0xbf {
		return string(b[3:])
	}
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
