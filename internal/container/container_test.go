package container

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"media-inspector/internal/metadata"
)

type fakeFormatContext struct {
	streams   []StreamDesc
	duration  int64
	bitRate   int64
	tags      map[string]string
	findErr   error
	closed    int
	findCalls int
}

func (f *fakeFormatContext) FindStreamInfo(context.Context) error {
	f.findCalls++
	return f.findErr
}
func (f *fakeFormatContext) Streams() []StreamDesc   { return f.streams }
func (f *fakeFormatContext) Duration() int64         { return f.duration }
func (f *fakeFormatContext) BitRate() int64          { return f.bitRate }
func (f *fakeFormatContext) Tags() map[string]string { return f.tags }
func (f *fakeFormatContext) Close() error {
	f.closed++
	return nil
}

type fakeDemuxer struct {
	fc      *fakeFormatContext
	openErr error
}

func (d *fakeDemuxer) Open(context.Context, string) (FormatContext, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.fc, nil
}

func TestStreamsFromDemux(t *testing.T) {
	fc := &fakeFormatContext{
		duration: 10 * TimeBase,
		bitRate:  5_000_000,
		streams: []StreamDesc{
			{Kind: KindVideo, CodecName: "hevc", Width: 3840, Height: 2160, Duration: NoPTS,
				AvgFrameRate: Rational{24000, 1001}, SampleAspectRatio: Rational{4, 3},
				Tags: map[string]string{"language": "eng", "BPS-eng": "12000000"}},
			{Kind: KindAudio, CodecName: "opus", Duration: 0, Tags: map[string]string{"language": "und"}},
			{Kind: KindAudio, CodecName: "aac", Duration: 2_500_000, Tags: map[string]string{"language": "jpn", "BPS-eng": "bad"}},
			{Kind: KindAttachment, CodecName: "ttf"},
			{Kind: KindSubtitle, Tags: map[string]string{"language": "fra"}},
			{Kind: KindVideo, CodecName: "mjpeg", Width: 600, Height: 600, Duration: 5 * TimeBase, FrameCount: 1},
		},
	}

	got := StreamsFromDemux(fc)
	want := metadata.Streams{
		metadata.VideoStream{Width: 3840, Height: 2160, Duration: 10, Codec: "hevc", Ratio: "4:3", Lang: "en", BitRate: 12_000_000, FrameCount: 240},
		metadata.AudioStream{Duration: 10, Codec: "opus", Lang: "", BitRate: 5_000_000},
		metadata.AudioStream{Duration: 2.5, Codec: "aac", Lang: "ja", BitRate: 5_000_000},
		metadata.SubtitleStream{Lang: "fr"},
		metadata.VideoStream{Width: 600, Height: 600, Duration: 5, Codec: "mjpeg", BitRate: 5_000_000, FrameCount: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StreamsFromDemux() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestStreamSecondsFallback(t *testing.T) {
	tests := []struct {
		name      string
		stream    int64
		container int64
		want      float64
	}{
		{"own duration", 3 * TimeBase, 10 * TimeBase, 3},
		{"no pts sentinel", NoPTS, 10 * TimeBase, 10},
		{"zero", 0, 7_500_000, 7.5},
		{"both unknown", NoPTS, NoPTS, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := streamSeconds(tt.stream, tt.container)
			if got != tt.want {
				t.Errorf("streamSeconds(%d, %d) = %v, want %v", tt.stream, tt.container, got, tt.want)
			}
			if got < 0 {
				t.Errorf("streamSeconds() = %v, must never be negative", got)
			}
		})
	}
}

func TestFrameCountDerivation(t *testing.T) {
	tests := []struct {
		name   string
		frames int64
		rate   Rational
		want   int
	}{
		{"reported", 1000, Rational{25, 1}, 1000},
		{"ntsc film", 0, Rational{24000, 1001}, 240},
		{"integer rate", 0, Rational{25, 1}, 250},
		{"zero denominator", 0, Rational{25, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeFormatContext{
				duration: 10 * TimeBase,
				streams:  []StreamDesc{{Kind: KindVideo, Duration: NoPTS, FrameCount: tt.frames, AvgFrameRate: tt.rate}},
			}
			v := StreamsFromDemux(fc).Video()
			if len(v) != 1 {
				t.Fatalf("Video() len = %d, want 1", len(v))
			}
			if v[0].FrameCount != tt.want {
				t.Errorf("FrameCount = %d, want %d", v[0].FrameCount, tt.want)
			}
		})
	}
}

func TestDemuxAdapterReleasesOnEveryPath(t *testing.T) {
	t.Run("stream info failure", func(t *testing.T) {
		fc := &fakeFormatContext{findErr: errors.New("probe failed")}
		a := &DemuxAdapter{Demuxer: &fakeDemuxer{fc: fc}}

		info := a.Inspect(context.Background(), "x.mkv")
		if info.Streams == nil || len(info.Streams) != 0 {
			t.Errorf("Streams = %#v, want empty list", info.Streams)
		}
		if fc.closed != 1 {
			t.Errorf("Close() calls = %d, want 1", fc.closed)
		}
	})

	t.Run("success", func(t *testing.T) {
		fc := &fakeFormatContext{duration: TimeBase, streams: []StreamDesc{{Kind: KindAudio, CodecName: "flac"}}}
		a := &DemuxAdapter{Demuxer: &fakeDemuxer{fc: fc}}

		info := a.Inspect(context.Background(), "x.flac")
		if len(info.Streams) != 1 {
			t.Errorf("Streams len = %d, want 1", len(info.Streams))
		}
		if fc.closed != 1 {
			t.Errorf("Close() calls = %d, want 1", fc.closed)
		}
	})

	t.Run("open failure", func(t *testing.T) {
		a := &DemuxAdapter{Demuxer: &fakeDemuxer{openErr: errors.New("no such file")}}
		info := a.Inspect(context.Background(), "missing.mkv")
		if info.Streams == nil || len(info.Streams) != 0 {
			t.Errorf("Streams = %#v, want empty list", info.Streams)
		}
	})
}

func TestNormalizeISO(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"und", ""},
		{"UND", ""},
		{"", ""},
		{"eng", "en"},
		{"ita", "it"},
		{"en", "en"},
		{"haw", "haw"},
		{"zz-not-a-language", "zz-not-a-language"},
	}
	for _, tt := range tests {
		if got := normalizeISO(tt.in); got != tt.want {
			t.Errorf("normalizeISO(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPassThrough(t *testing.T) {
	tests := []struct{ in, want string }{
		{"und", ""},
		{"eng", "eng"},
		{"en", "en"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := passThrough(tt.in); got != tt.want {
			t.Errorf("passThrough(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type fakeAsset struct {
	duration float64
	tracks   []Track
	subtypes map[MediaKind][]string
	closed   bool
}

func (a *fakeAsset) Duration() float64 { return a.duration }
func (a *fakeAsset) Tracks() []Track   { return a.tracks }
func (a *fakeAsset) FormatSubtypes(k MediaKind) []string {
	return a.subtypes[k]
}
func (a *fakeAsset) Close() error {
	a.closed = true
	return nil
}

func TestAssetAdapter(t *testing.T) {
	asset := &fakeAsset{
		duration: 10,
		tracks: []Track{
			{Kind: KindVideo, Language: "und", Width: 1280, Height: 720, NominalFrameRate: 23.976, EstimatedBitRate: 2_000_000},
			{Kind: KindAudio, Language: "eng", EstimatedBitRate: 128_000},
			{Kind: KindSubtitle, Language: "ita", Metadata: map[string]string{"title": "Commentary"}},
			{Kind: KindData},
			{Kind: KindAudio, Language: "fra"},
		},
		subtypes: map[MediaKind][]string{
			KindVideo: {"avc1"},
			KindAudio: {"mp4a", "ac-3"},
		},
	}
	a := &AssetAdapter{Open: func(string) (Asset, error) { return asset, nil }}

	info := a.Inspect(context.Background(), "movie.mp4")
	want := metadata.Streams{
		metadata.VideoStream{Width: 1280, Height: 720, Duration: 10, Codec: "avc1", BitRate: 2_000_000, FrameCount: 240},
		metadata.AudioStream{Duration: 10, Codec: "mp4a", Lang: "eng", BitRate: 128_000},
		metadata.SubtitleStream{Title: "Commentary", Lang: "ita"},
		metadata.AudioStream{Duration: 10, Codec: "mp4a", Lang: "fra"},
	}
	if !reflect.DeepEqual(info.Streams, want) {
		t.Errorf("Streams =\n%#v\nwant\n%#v", info.Streams, want)
	}
	if !asset.closed {
		t.Error("asset was not closed")
	}
	if info.BitRate != 2_128_000 {
		t.Errorf("BitRate = %d, want 2128000", info.BitRate)
	}
}

func TestAssetAdapterOpenFailure(t *testing.T) {
	a := &AssetAdapter{Open: func(string) (Asset, error) { return nil, ErrNotMP4 }}
	info := a.Inspect(context.Background(), "movie.avi")
	if info.Streams == nil || len(info.Streams) != 0 {
		t.Errorf("Streams = %#v, want empty list", info.Streams)
	}
}

type staticAdapter struct {
	name string
	info metadata.MediaInfo
}

func (s staticAdapter) Name() string { return s.name }
func (s staticAdapter) Inspect(context.Context, string) metadata.MediaInfo {
	return s.info
}

func TestEnginesAndSelect(t *testing.T) {
	empty := staticAdapter{name: EngineMP4, info: metadata.MediaInfo{Streams: metadata.Streams{}}}
	full := staticAdapter{name: EngineFFmpeg, info: metadata.MediaInfo{Streams: metadata.Streams{metadata.AudioStream{Codec: "mp3"}}}}
	available := map[string]Adapter{EngineMP4: empty, EngineFFmpeg: full}

	engines := Select([]string{EngineMP4, "bogus", EngineFFmpeg, EngineMP4}, available)
	if len(engines) != 2 {
		t.Fatalf("Select() len = %d, want 2", len(engines))
	}

	info := engines.Inspect(context.Background(), "song.mp3")
	if info.Engine != EngineFFmpeg {
		t.Errorf("Engine = %q, want %q", info.Engine, EngineFFmpeg)
	}
	if len(info.Streams) != 1 {
		t.Errorf("Streams len = %d, want 1", len(info.Streams))
	}

	none := Engines{empty}.Inspect(context.Background(), "song.mp3")
	if none.Streams == nil || len(none.Streams) != 0 || none.Engine != "" {
		t.Errorf("Inspect() with no results = %#v", none)
	}
}

func writeBox(buf *bytes.Buffer, boxType string, payload []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(8+len(payload)))
	buf.WriteString(boxType)
	buf.Write(payload)
}

// writeLargeBox writes a box header with a 64-bit size field that claims
// size bytes regardless of the payload actually written.
func writeLargeBox(buf *bytes.Buffer, boxType string, size uint64, payload []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(1))
	buf.WriteString(boxType)
	_ = binary.Write(buf, binary.BigEndian, size)
	buf.Write(payload)
}

func buildTimedHeader(timescale, duration uint32, lang string) []byte {
	payload := make([]byte, 24)
	binary.BigEndian.PutUint32(payload[12:16], timescale)
	binary.BigEndian.PutUint32(payload[16:20], duration)
	if len(lang) == 3 {
		packed := uint16(lang[0]-0x60)<<10 | uint16(lang[1]-0x60)<<5 | uint16(lang[2]-0x60)
		binary.BigEndian.PutUint16(payload[20:22], packed)
	}
	return payload
}

func buildTrak(handler, sample, lang string, samples uint32, sampleSize uint32, name string) []byte {
	var stsd bytes.Buffer
	stsd.Write([]byte{0, 0, 0, 0})
	_ = binary.Write(&stsd, binary.BigEndian, uint32(1))
	entry := make([]byte, 86)
	binary.BigEndian.PutUint32(entry[0:4], uint32(len(entry)))
	copy(entry[4:8], sample)
	binary.BigEndian.PutUint16(entry[32:34], 1920)
	binary.BigEndian.PutUint16(entry[34:36], 1080)
	stsd.Write(entry)

	stts := make([]byte, 16)
	binary.BigEndian.PutUint32(stts[4:8], 1)
	binary.BigEndian.PutUint32(stts[8:12], samples)
	binary.BigEndian.PutUint32(stts[12:16], 1)

	stsz := make([]byte, 12)
	binary.BigEndian.PutUint32(stsz[4:8], sampleSize)
	binary.BigEndian.PutUint32(stsz[8:12], samples)

	var stbl bytes.Buffer
	writeBox(&stbl, "stsd", stsd.Bytes())
	writeBox(&stbl, "stts", stts)
	writeBox(&stbl, "stsz", stsz)

	var minf bytes.Buffer
	writeBox(&minf, "stbl", stbl.Bytes())

	hdlr := make([]byte, 24)
	copy(hdlr[8:12], handler)

	var mdia bytes.Buffer
	writeBox(&mdia, "mdhd", buildTimedHeader(1000, 10000, lang))
	writeBox(&mdia, "hdlr", hdlr)
	writeBox(&mdia, "minf", minf.Bytes())

	var trak bytes.Buffer
	writeBox(&trak, "mdia", mdia.Bytes())
	if name != "" {
		var udta bytes.Buffer
		writeBox(&udta, "name", []byte(name))
		writeBox(&trak, "udta", udta.Bytes())
	}
	return trak.Bytes()
}

func buildMP4() []byte {
	var moov bytes.Buffer
	writeBox(&moov, "mvhd", buildTimedHeader(600, 6000, ""))
	writeBox(&moov, "trak", buildTrak("vide", "avc1", "und", 240, 1000, ""))
	writeBox(&moov, "trak", buildTrak("soun", "mp4a", "eng", 430, 100, ""))
	writeBox(&moov, "trak", buildTrak("sbtl", "tx3g", "ita", 5, 0, "Director"))
	writeBox(&moov, "trak", buildTrak("hint", "rtp ", "", 5, 0, ""))

	var file bytes.Buffer
	writeBox(&file, "ftyp", []byte("isom\x00\x00\x02\x00isomiso2"))
	writeBox(&file, "free", nil)
	writeBox(&file, "moov", moov.Bytes())
	return file.Bytes()
}

func TestParseMP4(t *testing.T) {
	data := buildMP4()
	asset, err := ParseMP4(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ParseMP4() error = %v", err)
	}

	if asset.Duration() != 10 {
		t.Errorf("Duration() = %v, want 10", asset.Duration())
	}
	tracks := asset.Tracks()
	if len(tracks) != 3 {
		t.Fatalf("Tracks() len = %d, want 3", len(tracks))
	}
	if tracks[0].Kind != KindVideo || tracks[0].Width != 1920 || tracks[0].Height != 1080 {
		t.Errorf("video track = %+v", tracks[0])
	}
	if tracks[0].NominalFrameRate != 24 {
		t.Errorf("NominalFrameRate = %v, want 24", tracks[0].NominalFrameRate)
	}
	if tracks[0].EstimatedBitRate != 192_000 {
		t.Errorf("EstimatedBitRate = %v, want 192000", tracks[0].EstimatedBitRate)
	}
	if tracks[1].Language != "eng" {
		t.Errorf("audio Language = %q, want %q", tracks[1].Language, "eng")
	}
	if tracks[2].Kind != KindSubtitle || tracks[2].Metadata["title"] != "Director" {
		t.Errorf("subtitle track = %+v", tracks[2])
	}
	if got := asset.FormatSubtypes(KindAudio); !reflect.DeepEqual(got, []string{"mp4a"}) {
		t.Errorf("FormatSubtypes(audio) = %v", got)
	}

	streams := StreamsFromAsset(asset)
	v := streams.Video()
	if len(v) != 1 || v[0].FrameCount != 240 || v[0].Codec != "avc1" || v[0].Lang != "" {
		t.Errorf("video stream = %+v", v)
	}
}

func TestParseMP4Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not an mp4 container")},
		{"no moov", func() []byte {
			var b bytes.Buffer
			writeBox(&b, "ftyp", []byte("isom"))
			return b.Bytes()
		}()},
		{"huge box in moov", func() []byte {
			var moov bytes.Buffer
			writeBox(&moov, "free", nil)
			writeLargeBox(&moov, "trak", 0x7fffffffffffffff, []byte("tail"))
			var b bytes.Buffer
			writeBox(&b, "moov", moov.Bytes())
			return b.Bytes()
		}()},
		{"huge top-level box", func() []byte {
			var b bytes.Buffer
			writeLargeBox(&b, "ftyp", 0x7fffffffffffffff, []byte("isom"))
			writeBox(&b, "moov", nil)
			return b.Bytes()
		}()},
		{"moov past end of file", func() []byte {
			var b bytes.Buffer
			_ = binary.Write(&b, binary.BigEndian, uint32(4096))
			b.WriteString("moov")
			return b.Bytes()
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMP4(bytes.NewReader(tt.data), int64(len(tt.data)))
			if !errors.Is(err, ErrNotMP4) {
				t.Errorf("ParseMP4() error = %v, want ErrNotMP4", err)
			}
		})
	}
}

func TestParseMP4DropsBrokenTail(t *testing.T) {
	var moov bytes.Buffer
	writeBox(&moov, "mvhd", buildTimedHeader(600, 6000, ""))
	writeBox(&moov, "trak", buildTrak("soun", "mp4a", "eng", 430, 100, ""))
	writeLargeBox(&moov, "trak", 0x7fffffffffffffff, buildTrak("vide", "avc1", "und", 240, 1000, ""))
	var file bytes.Buffer
	writeBox(&file, "moov", moov.Bytes())
	data := file.Bytes()

	asset, err := ParseMP4(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ParseMP4() error = %v", err)
	}
	if got := asset.Duration(); got != 10 {
		t.Errorf("Duration() = %v, want 10", got)
	}
	tracks := asset.Tracks()
	if len(tracks) != 1 || tracks[0].Kind != KindAudio {
		t.Errorf("Tracks() = %+v, want only the audio track before the broken box", tracks)
	}
}
