package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"media-inspector/internal/filesystem"
)

const maxMoovSize = int64(16 << 20)

// ErrNotMP4 is returned by OpenMP4 when no usable moov box is found.
var ErrNotMP4 = errors.New("not an ISO-BMFF file")

type mp4Track struct {
	Track
	subtype string
}

// MP4Asset is an Asset read from the moov box of an ISO-BMFF file
// (MP4, MOV, M4A, M4V, 3GP).
type MP4Asset struct {
	duration float64
	tracks   []mp4Track
}

// OpenMP4 reads the movie header of path. The file is closed before
// returning; the asset only holds parsed values.
func OpenMP4(path string) (Asset, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer filesystem.CloseLogged(f, path)

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	asset, err := ParseMP4(f, st.Size())
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// ParseMP4 finds the top-level moov box and parses its tracks.
func ParseMP4(r io.ReaderAt, size int64) (*MP4Asset, error) {
	var offset int64
	for offset+8 <= size {
		boxSize, boxType, headerSize, ok := readBoxHeaderAt(r, offset, size)
		if !ok || boxSize <= 0 || boxSize > size-offset {
			break
		}
		if boxType == "moov" {
			moovSize := boxSize - headerSize
			if moovSize > maxMoovSize {
				return nil, fmt.Errorf("moov box too large: %d bytes", moovSize)
			}
			buf := make([]byte, moovSize)
			if _, err := r.ReadAt(buf, offset+headerSize); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			if asset, ok := parseMoov(buf); ok {
				return asset, nil
			}
			return nil, ErrNotMP4
		}
		offset += boxSize
	}
	return nil, ErrNotMP4
}

// Duration implements Asset.
func (a *MP4Asset) Duration() float64 { return a.duration }

// Tracks implements Asset.
func (a *MP4Asset) Tracks() []Track {
	out := make([]Track, len(a.tracks))
	for i, t := range a.tracks {
		out[i] = t.Track
	}
	return out
}

// FormatSubtypes implements Asset.
func (a *MP4Asset) FormatSubtypes(kind MediaKind) []string {
	var out []string
	for _, t := range a.tracks {
		if t.Kind == kind && t.subtype != "" {
			out = append(out, t.subtype)
		}
	}
	return out
}

// Close implements Asset.
func (a *MP4Asset) Close() error { return nil }

func readBoxHeaderAt(r io.ReaderAt, offset, fileSize int64) (boxSize int64, boxType string, headerSize int64, ok bool) {
	header := make([]byte, 16)
	n, err := r.ReadAt(header, offset)
	if n < 8 || (err != nil && !errors.Is(err, io.EOF)) {
		return 0, "", 0, false
	}
	size32 := binary.BigEndian.Uint32(header[0:4])
	boxType = string(header[4:8])
	switch {
	case size32 == 0:
		return fileSize - offset, boxType, 8, true
	case size32 == 1:
		if n < 16 {
			return 0, "", 0, false
		}
		size64 := binary.BigEndian.Uint64(header[8:16])
		if size64 < 16 {
			return 0, "", 0, false
		}
		return int64(size64), boxType, 16, true
	case size32 < 8:
		return 0, "", 0, false
	}
	return int64(size32), boxType, 8, true
}

// eachBox calls fn for every child box of buf, stopping early when fn
// returns false.
func eachBox(buf []byte, fn func(boxType string, payload []byte) bool) {
	var offset int64
	for offset+8 <= int64(len(buf)) {
		size := int64(binary.BigEndian.Uint32(buf[offset : offset+4]))
		boxType := string(buf[offset+4 : offset+8])
		headerSize := int64(8)
		switch size {
		case 0:
			size = int64(len(buf)) - offset
		case 1:
			if offset+16 > int64(len(buf)) {
				return
			}
			size = int64(binary.BigEndian.Uint64(buf[offset+8 : offset+16]))
			headerSize = 16
		}
		// Sizes past the end of buf mark a broken tail.
		if size < headerSize || size > int64(len(buf))-offset {
			return
		}
		end := offset + size
		if !fn(boxType, buf[offset+headerSize:end]) {
			return
		}
		offset += size
	}
}

func findBox(buf []byte, boxType string) ([]byte, bool) {
	var found []byte
	ok := false
	eachBox(buf, func(t string, payload []byte) bool {
		if t == boxType {
			found, ok = payload, true
			return false
		}
		return true
	})
	return found, ok
}

func parseMoov(buf []byte) (*MP4Asset, bool) {
	asset := &MP4Asset{}
	haveHeader := false
	eachBox(buf, func(boxType string, payload []byte) bool {
		switch boxType {
		case "mvhd":
			if d, ok := parseTimedHeader(payload); ok {
				asset.duration = d
				haveHeader = true
			}
		case "trak":
			if t, ok := parseTrak(payload); ok {
				asset.tracks = append(asset.tracks, t)
			}
		}
		return true
	})
	if !haveHeader && len(asset.tracks) == 0 {
		return nil, false
	}
	return asset, true
}

// parseTimedHeader reads timescale and duration from an mvhd or mdhd
// payload; both share the same layout up to the duration field.
func parseTimedHeader(payload []byte) (float64, bool) {
	if len(payload) < 20 {
		return 0, false
	}
	var timescale uint32
	var duration uint64
	switch payload[0] {
	case 0:
		timescale = binary.BigEndian.Uint32(payload[12:16])
		duration = uint64(binary.BigEndian.Uint32(payload[16:20]))
	case 1:
		if len(payload) < 32 {
			return 0, false
		}
		timescale = binary.BigEndian.Uint32(payload[20:24])
		duration = binary.BigEndian.Uint64(payload[24:32])
	default:
		return 0, false
	}
	if timescale == 0 {
		return 0, false
	}
	return float64(duration) / float64(timescale), true
}

// parseMdhdLanguage decodes the packed ISO 639-2/T code that follows the
// duration in an mdhd payload.
func parseMdhdLanguage(payload []byte) string {
	var off int
	switch {
	case len(payload) >= 22 && payload[0] == 0:
		off = 20
	case len(payload) >= 34 && payload[0] == 1:
		off = 32
	default:
		return ""
	}
	packed := binary.BigEndian.Uint16(payload[off : off+2])
	if packed == 0 || packed == 0x7fff {
		return ""
	}
	b := []byte{
		byte(packed>>10&0x1f) + 0x60,
		byte(packed>>5&0x1f) + 0x60,
		byte(packed&0x1f) + 0x60,
	}
	for _, c := range b {
		if c < 'a' || c > 'z' {
			return ""
		}
	}
	return string(b)
}

func mapHandlerType(handler string) MediaKind {
	switch handler {
	case "vide":
		return KindVideo
	case "soun":
		return KindAudio
	case "text", "sbtl", "subt", "clcp":
		return KindSubtitle
	default:
		return ""
	}
}

func parseTrak(buf []byte) (mp4Track, bool) {
	var t mp4Track
	mdia, ok := findBox(buf, "mdia")
	if !ok {
		return t, false
	}

	var trackDuration float64
	var sampleCount uint64
	var totalBytes uint64
	eachBox(mdia, func(boxType string, payload []byte) bool {
		switch boxType {
		case "hdlr":
			if len(payload) >= 12 {
				t.Kind = mapHandlerType(string(payload[8:12]))
			}
		case "mdhd":
			if d, ok := parseTimedHeader(payload); ok {
				trackDuration = d
			}
			t.Language = parseMdhdLanguage(payload)
		case "minf":
			if stbl, ok := findBox(payload, "stbl"); ok {
				eachBox(stbl, func(boxType string, p []byte) bool {
					switch boxType {
					case "stsd":
						t.subtype, t.Width, t.Height = parseStsd(p)
					case "stts":
						sampleCount = parseStts(p)
					case "stsz":
						totalBytes = parseStsz(p)
					}
					return true
				})
			}
		}
		return true
	})
	if t.Kind == "" {
		return t, false
	}

	if trackDuration > 0 {
		if t.Kind == KindVideo && sampleCount > 0 {
			t.NominalFrameRate = float64(sampleCount) / trackDuration
		}
		if totalBytes > 0 {
			t.EstimatedBitRate = int64(float64(totalBytes*8) / trackDuration)
		}
	}

	if udta, ok := findBox(buf, "udta"); ok {
		if name, ok := findBox(udta, "name"); ok {
			if title := strings.TrimRight(string(name), "\x00"); title != "" {
				t.Metadata = map[string]string{"title": title}
			}
		}
	}
	return t, true
}

// parseStsd returns the first sample entry's fourcc and, for visual
// entries, its coded width and height.
func parseStsd(buf []byte) (subtype string, width, height int) {
	if len(buf) < 16 {
		return "", 0, 0
	}
	entry := buf[8:]
	size := int(binary.BigEndian.Uint32(entry[0:4]))
	if size < 8 || size > len(entry) {
		return "", 0, 0
	}
	subtype = strings.TrimRight(string(entry[4:8]), " ")
	if isVisualSampleEntry(subtype) && size >= 36 {
		width = int(binary.BigEndian.Uint16(entry[32:34]))
		height = int(binary.BigEndian.Uint16(entry[34:36]))
	}
	return subtype, width, height
}

func isVisualSampleEntry(sample string) bool {
	switch sample {
	case "avc1", "avc3", "hvc1", "hev1", "mp4v", "av01", "vp09", "jpeg", "apcn", "apch", "apcs", "apco", "ap4h":
		return true
	default:
		return false
	}
}

func parseStts(payload []byte) uint64 {
	if len(payload) < 8 {
		return 0
	}
	entryCount := binary.BigEndian.Uint32(payload[4:8])
	offset := 8
	var total uint64
	for i := uint32(0); i < entryCount && offset+8 <= len(payload); i++ {
		total += uint64(binary.BigEndian.Uint32(payload[offset : offset+4]))
		offset += 8
	}
	return total
}

func parseStsz(payload []byte) uint64 {
	if len(payload) < 12 {
		return 0
	}
	sampleSize := binary.BigEndian.Uint32(payload[4:8])
	count := binary.BigEndian.Uint32(payload[8:12])
	if sampleSize != 0 {
		return uint64(sampleSize) * uint64(count)
	}
	var total uint64
	offset := 12
	for i := uint32(0); i < count && offset+4 <= len(payload); i++ {
		total += uint64(binary.BigEndian.Uint32(payload[offset : offset+4]))
		offset += 4
	}
	return total
}

var _ Asset = (*MP4Asset)(nil)
