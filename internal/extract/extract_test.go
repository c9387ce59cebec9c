package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-inspector/internal/container"
	"media-inspector/internal/filesystem"
	"media-inspector/internal/media"
	"media-inspector/internal/metadata"
	"media-inspector/internal/settings"
)

type fakeDecoder struct {
	info metadata.ImageInfo
	err  error
}

func (d fakeDecoder) Name() string { return "fake" }

func (d fakeDecoder) DecodeImage(string) (metadata.ImageInfo, error) {
	return d.info, d.err
}

type fakeAdapter struct {
	name    string
	streams metadata.Streams
	calls   int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Inspect(context.Context, string) metadata.MediaInfo {
	a.calls++
	return metadata.MediaInfo{Streams: a.streams, Duration: 12}
}

func newTestExtractor(t *testing.T, s settings.Settings, adapters map[string]container.Adapter) *Extractor {
	t.Helper()
	return New(fakeDecoder{info: metadata.ImageInfo{Width: 10, Height: 20, Depth: 24}}, adapters, settings.NewHolder(s))
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeZip(t *testing.T, path string, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip Write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close: %v", err)
	}
	return writeFile(t, path, buf.Bytes())
}

func TestExtractMissingFile(t *testing.T) {
	e := newTestExtractor(t, settings.Default(), nil)
	_, err := e.Extract(context.Background(), metadata.TagFile, filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrNoInfo) {
		t.Errorf("Extract() error = %v, want ErrNoInfo", err)
	}
}

func TestExtractFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "notes.txt"), []byte("hello"))
	e := newTestExtractor(t, settings.Default(), nil)

	v, err := e.Extract(context.Background(), metadata.TagFile, path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	info := v.(*metadata.FileInfo)
	if info.Name != "notes.txt" || info.Ext != "txt" || info.FileSize != 5 {
		t.Errorf("FileInfo = %+v, want notes.txt/txt/5", info)
	}
	if info.Modified.IsZero() {
		t.Error("Modified is zero")
	}
}

func TestExtractImage(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.png"), []byte("12345678"))

	e := newTestExtractor(t, settings.Default(), nil)
	v, err := e.Extract(context.Background(), metadata.TagImage, path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	img := v.(*metadata.ImageInfo)
	if img.Width != 10 || img.Height != 20 || img.FileSize != 8 {
		t.Errorf("ImageInfo = %+v", img)
	}

	failing := New(fakeDecoder{err: media.ErrNoInfo}, nil, settings.NewHolder(settings.Default()))
	if _, err := failing.Extract(context.Background(), metadata.TagImage, path); !errors.Is(err, ErrNoInfo) {
		t.Errorf("Extract() error = %v, want ErrNoInfo", err)
	}
}

func TestExtractMediaUsesEngineOrder(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.mp4"), []byte("data"))

	mp4 := &fakeAdapter{name: container.EngineMP4}
	ff := &fakeAdapter{name: container.EngineFFmpeg, streams: metadata.Streams{metadata.AudioStream{Codec: "aac"}}}
	adapters := map[string]container.Adapter{container.EngineMP4: mp4, container.EngineFFmpeg: ff}

	s := settings.Default()
	s.Engines = []string{settings.EngineMP4, settings.EngineFFmpeg}
	e := newTestExtractor(t, s, adapters)

	v, err := e.Extract(context.Background(), metadata.TagAudio, path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	m := v.(*metadata.MediaInfo)
	if m.Engine != container.EngineFFmpeg {
		t.Errorf("Engine = %q, want %q", m.Engine, container.EngineFFmpeg)
	}
	if m.FileSize != 4 {
		t.Errorf("FileSize = %d, want 4", m.FileSize)
	}
	if mp4.calls != 1 || ff.calls != 1 {
		t.Errorf("calls = mp4:%d ffmpeg:%d, want 1 each", mp4.calls, ff.calls)
	}

	s.Engines = []string{settings.EngineMP4}
	e = newTestExtractor(t, s, adapters)
	if _, err := e.Extract(context.Background(), metadata.TagVideo, path); !errors.Is(err, ErrNoInfo) {
		t.Errorf("Extract() with empty engine result error = %v, want ErrNoInfo", err)
	}
}

func TestExtractFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), []byte("aaaa"))
	writeFile(t, filepath.Join(root, "b.txt"), []byte("bb"))
	writeFile(t, filepath.Join(root, ".hidden"), []byte("hhhhhhhh"))
	writeFile(t, filepath.Join(root, "sub", "c.txt"), []byte("c"))
	writeFile(t, filepath.Join(root, "sub", "deep", "d.txt"), []byte("dddddd"))

	tests := []struct {
		name       string
		mutate     func(*settings.FolderSettings)
		wantFiles  int
		wantSize   int64
		wantTrunc  bool
		wantHidden bool
	}{
		{
			name:      "unlimited",
			mutate:    func(f *settings.FolderSettings) { f.MaxFiles = 0; f.MaxDepth = 0 },
			wantFiles: 4,
			wantSize:  13,
		},
		{
			name:       "hidden included",
			mutate:     func(f *settings.FolderSettings) { f.MaxFiles = 0; f.SkipHidden = false },
			wantFiles:  5,
			wantSize:   21,
			wantHidden: true,
		},
		{
			name:      "depth limited",
			mutate:    func(f *settings.FolderSettings) { f.MaxFiles = 0; f.MaxDepth = 1 },
			wantFiles: 2,
			wantSize:  6,
			wantTrunc: true,
		},
		{
			name:      "full size ignores limits",
			mutate:    func(f *settings.FolderSettings) { f.MaxFiles = 0; f.MaxDepth = 1; f.SizeMethod = settings.SizeFull },
			wantFiles: 2,
			wantSize:  13,
			wantTrunc: true,
		},
		{
			name:      "no size",
			mutate:    func(f *settings.FolderSettings) { f.MaxFiles = 0; f.SizeMethod = settings.SizeNone },
			wantFiles: 4,
			wantSize:  0,
		},
		{
			name:      "file limit",
			mutate:    func(f *settings.FolderSettings) { f.MaxFiles = 2 },
			wantFiles: 2,
			wantSize:  6,
			wantTrunc: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Default()
			tt.mutate(&s.Folder)
			e := newTestExtractor(t, s, nil)

			v, err := e.Extract(context.Background(), metadata.TagFolder, root)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			info := v.(*metadata.FolderInfo)
			if info.FileCount != tt.wantFiles {
				t.Errorf("FileCount = %d, want %d", info.FileCount, tt.wantFiles)
			}
			if info.TotalSize != tt.wantSize {
				t.Errorf("TotalSize = %d, want %d", info.TotalSize, tt.wantSize)
			}
			if info.Truncated != tt.wantTrunc {
				t.Errorf("Truncated = %v, want %v", info.Truncated, tt.wantTrunc)
			}
			hidden := false
			for _, f := range info.Files {
				if f.Name == ".hidden" {
					hidden = true
				}
			}
			if hidden != tt.wantHidden {
				t.Errorf("hidden entry listed = %v, want %v", hidden, tt.wantHidden)
			}
		})
	}
}

func TestExtractFolderRejectsFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.txt"), []byte("a"))
	e := newTestExtractor(t, settings.Default(), nil)
	if _, err := e.Extract(context.Background(), metadata.TagFolder, path); !errors.Is(err, ErrNoInfo) {
		t.Errorf("Extract() error = %v, want ErrNoInfo", err)
	}
}

func TestExtractFolderBundle(t *testing.T) {
	app := filepath.Join(t.TempDir(), "Tool.app")
	writeFile(t, filepath.Join(app, "Contents", "Info.plist"), []byte("<plist/>"))

	e := newTestExtractor(t, settings.Default(), nil)
	v, err := e.Extract(context.Background(), metadata.TagFolder, app)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !v.(*metadata.FolderInfo).Bundle {
		t.Error("Bundle = false for a .app folder, want true")
	}
}

const coreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>Quarterly report</dc:title><dc:subject>Sales</dc:subject><dc:creator>Sam Doe</dc:creator>
<cp:keywords>sales, q3</cp:keywords><cp:lastModifiedBy>Alex</cp:lastModifiedBy>
<dcterms:created xsi:type="dcterms:W3CDTF">2023-05-01T10:00:00Z</dcterms:created>
</cp:coreProperties>`

const appXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
<Application>Microsoft Office Word</Application><Pages>3</Pages><Words>420</Words><Characters>2500</Characters>
</Properties>`

const odfMetaXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<office:meta>
<meta:generator>LibreOffice/7.5</meta:generator><dc:title>Budget</dc:title>
<meta:keyword>money</meta:keyword><meta:keyword>plan</meta:keyword>
<meta:initial-creator>Pat</meta:initial-creator>
<meta:document-statistic meta:table-count="4" meta:cell-count="120"/>
</office:meta>
</office:document-meta>`

func TestExtractOffice(t *testing.T) {
	dir := t.TempDir()
	docx := writeZip(t, filepath.Join(dir, "a.docx"), map[string]string{
		"docProps/core.xml": coreXML,
		"docProps/app.xml":  appXML,
	})
	xlsx := writeZip(t, filepath.Join(dir, "b.xlsx"), map[string]string{
		"docProps/core.xml":        coreXML,
		"xl/worksheets/sheet1.xml": "<worksheet/>",
		"xl/worksheets/sheet2.xml": "<worksheet/>",
	})
	ods := writeZip(t, filepath.Join(dir, "c.ods"), map[string]string{"meta.xml": odfMetaXML})
	odp := writeZip(t, filepath.Join(dir, "d.odp"), map[string]string{
		"meta.xml":    odfMetaXML,
		"content.xml": `<office:document-content xmlns:office="o" xmlns:draw="d"><office:body><office:presentation><draw:page/><draw:page/><draw:page/></office:presentation></office:body></office:document-content>`,
	})

	e := newTestExtractor(t, settings.Default(), nil)

	t.Run("docx", func(t *testing.T) {
		v, err := e.Extract(context.Background(), metadata.TagDoc, docx)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		info := v.(*metadata.OfficeInfo)
		if info.Title != "Quarterly report" || info.Creator != "Sam Doe" || info.Keywords != "sales, q3" {
			t.Errorf("core properties = %+v", info)
		}
		if info.Pages != 3 || info.Words != 420 || info.Characters != 2500 {
			t.Errorf("statistics = pages %d words %d chars %d", info.Pages, info.Words, info.Characters)
		}
		if info.Application != "Microsoft Office Word" {
			t.Errorf("Application = %q", info.Application)
		}
		if info.Created.Year() != 2023 {
			t.Errorf("Created = %v, want 2023", info.Created)
		}
	})

	t.Run("xlsx sheets", func(t *testing.T) {
		v, err := e.Extract(context.Background(), metadata.TagXLS, xlsx)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if got := v.(*metadata.OfficeInfo).Sheets; got != 2 {
			t.Errorf("Sheets = %d, want 2", got)
		}
	})

	t.Run("ods", func(t *testing.T) {
		v, err := e.Extract(context.Background(), metadata.TagODS, ods)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		info := v.(*metadata.OfficeInfo)
		if info.Title != "Budget" || info.Creator != "Pat" || info.Keywords != "money, plan" {
			t.Errorf("meta = %+v", info)
		}
		if info.Sheets != 4 || info.Application != "LibreOffice/7.5" {
			t.Errorf("Sheets = %d Application = %q", info.Sheets, info.Application)
		}
	})

	t.Run("odp slides", func(t *testing.T) {
		v, err := e.Extract(context.Background(), metadata.TagODP, odp)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if got := v.(*metadata.OfficeInfo).Slides; got != 3 {
			t.Errorf("Slides = %d, want 3", got)
		}
	})

	t.Run("not a package", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "bad.docx"), []byte("plain text"))
		if _, err := e.Extract(context.Background(), metadata.TagDoc, path); !errors.Is(err, ErrNoInfo) {
			t.Errorf("Extract() error = %v, want ErrNoInfo", err)
		}
	})
}

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	e := newTestExtractor(t, settings.Default(), nil)

	t.Run("zip", func(t *testing.T) {
		path := writeZip(t, filepath.Join(dir, "a.zip"), map[string]string{
			"one.txt":          "1",
			"two/three.txt":    "333",
			"__MACOSX/._x":     "junk",
			"folder/.DS_Store": "junk",
		})
		v, err := e.Extract(context.Background(), metadata.TagArchive, path)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		info := v.(*metadata.ArchiveInfo)
		if info.Format != "zip" || info.FileCount != 2 || info.UncompressedSize != 4 {
			t.Errorf("ArchiveInfo = %+v, want zip with 2 files of 4 bytes", info)
		}
		if info.Files[0].Name != "one.txt" {
			t.Errorf("first entry = %q, want sorted one.txt", info.Files[0].Name)
		}
	})

	t.Run("tar.gz", func(t *testing.T) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		tw := tar.NewWriter(gz)
		for name, body := range map[string]string{"a.txt": "hello", "b.txt": "world!"} {
			if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Format: tar.FormatUSTAR}); err != nil {
				t.Fatalf("WriteHeader: %v", err)
			}
			if _, err := tw.Write([]byte(body)); err != nil {
				t.Fatalf("Write: %v", err)
			}
		}
		if err := tw.Close(); err != nil {
			t.Fatalf("tar Close: %v", err)
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("gzip Close: %v", err)
		}
		path := writeFile(t, filepath.Join(dir, "a.tar.gz"), buf.Bytes())

		v, err := e.Extract(context.Background(), metadata.TagArchive, path)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		info := v.(*metadata.ArchiveInfo)
		if info.Format != "tar+gzip" || info.FileCount != 2 || info.UncompressedSize != 11 {
			t.Errorf("ArchiveInfo = %+v, want tar+gzip with 2 files of 11 bytes", info)
		}
	})

	t.Run("single gzip stream", func(t *testing.T) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write([]byte(strings.Repeat("x", 100))); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		path := writeFile(t, filepath.Join(dir, "log.txt.gz"), buf.Bytes())

		v, err := e.Extract(context.Background(), metadata.TagArchive, path)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		info := v.(*metadata.ArchiveInfo)
		if info.FileCount != 1 || info.Files[0].Name != "log.txt" || info.UncompressedSize != 100 {
			t.Errorf("ArchiveInfo = %+v, want one 100 byte log.txt", info)
		}
	})

	t.Run("xz unsupported", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "a.xz"), append(append([]byte{}, xzMagic...), 0, 0, 0))
		if _, err := e.Extract(context.Background(), metadata.TagArchive, path); !errors.Is(err, ErrNoInfo) {
			t.Errorf("Extract() error = %v, want ErrNoInfo", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "a.rar"), []byte("not an archive at all"))
		if _, err := e.Extract(context.Background(), metadata.TagArchive, path); !errors.Is(err, ErrNoInfo) {
			t.Errorf("Extract() error = %v, want ErrNoInfo", err)
		}
	})
}

func TestExtractModel(t *testing.T) {
	dir := t.TempDir()
	obj := `# cube
o Cube
v 0 0 0
v 1 0 0
v 1 1 0 1 0 0
vn 0 0 1
vt 0 0
vt 1 0
f 1 2 3
o Other
v 2 2 2
f 1 3 4
`
	path := writeFile(t, filepath.Join(dir, "cube.obj"), []byte(obj))
	e := newTestExtractor(t, settings.Default(), nil)

	v, err := e.Extract(context.Background(), metadata.Tag3D, path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	info := v.(*metadata.ModelInfo)
	want := metadata.ModelInfo{Meshes: 2, Vertices: 4, Normals: 1, TextureCoords: 2, Faces: 2, VertexColors: true, FileSize: int64(len(obj))}
	if *info != want {
		t.Errorf("ModelInfo = %+v, want %+v", *info, want)
	}

	stl := writeFile(t, filepath.Join(dir, "a.stl"), []byte("solid a"))
	if _, err := e.Extract(context.Background(), metadata.Tag3D, stl); !errors.Is(err, ErrNoInfo) {
		t.Errorf("Extract(stl) error = %v, want ErrNoInfo", err)
	}
}

func TestParsePDF(t *testing.T) {
	doc := "%PDF-1.7\n" +
		"1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
		"2 0 obj << /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >> endobj\n" +
		"3 0 obj << /Type /Page /Parent 2 0 R >> endobj\n" +
		"4 0 obj << /Type /Page /Parent 2 0 R >> endobj\n" +
		"5 0 obj << /Title (Annual \\(draft\\) report) /Author <FEFF004A006F> /Producer (Writer) >> endobj\n" +
		"trailer << /Root 1 0 R /Info 5 0 R >>\n%%EOF"

	info, err := parsePDF([]byte(doc), 1234)
	if err != nil {
		t.Fatalf("parsePDF() error = %v", err)
	}
	if info.Version != "1.7" || info.Pages != 2 || info.Encrypted {
		t.Errorf("PDFInfo = %+v, want version 1.7, 2 pages, not encrypted", info)
	}
	if info.Title != "Annual (draft) report" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Author != "Jo" {
		t.Errorf("Author = %q, want Jo", info.Author)
	}
	if info.Producer != "Writer" || info.FileSize != 1234 {
		t.Errorf("Producer = %q FileSize = %d", info.Producer, info.FileSize)
	}

	enc := "%PDF-1.4\n<< /Type /Page >>\ntrailer << /Encrypt 9 0 R >>"
	info, err = parsePDF([]byte(enc), 0)
	if err != nil {
		t.Fatalf("parsePDF() error = %v", err)
	}
	if !info.Encrypted || info.Pages != 1 {
		t.Errorf("PDFInfo = %+v, want encrypted with 1 page", info)
	}

	if _, err := parsePDF([]byte("hello"), 0); !errors.Is(err, ErrNoInfo) {
		t.Errorf("parsePDF(garbage) error = %v, want ErrNoInfo", err)
	}
}

func TestDecodePDFText(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("plain"), "plain"},
		{[]byte{0xe9, 't', 0xe9}, "été"},
		{[]byte{0xfe, 0xff, 0x00, 'O', 0x00, 'K'}, "OK"},
		{[]byte{0xef, 0xbb, 0xbf, 'u', 't', 'f'}, "utf"},
	}
	for _, tt := range tests {
		if got := decodePDFText(tt.in); got != tt.want {
			t.Errorf("decodePDFText(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractUnknownTag(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a"), []byte("a"))
	e := newTestExtractor(t, settings.Default(), nil)
	_, err := e.Extract(context.Background(), metadata.Tag("bogus"), path)
	if err == nil || errors.Is(err, ErrNoInfo) {
		t.Errorf("Extract(bogus) error = %v, want a non no-info error", err)
	}
}

func TestFullSizeWide(t *testing.T) {
	root := t.TempDir()
	var want int64
	for i := 0; i < 12; i++ {
		dir := filepath.Join(root, "d"+strings.Repeat("x", i), "nested")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		data := bytes.Repeat([]byte("a"), i+1)
		if err := os.WriteFile(filepath.Join(dir, "f.bin"), data, 0o644); err != nil {
			t.Fatal(err)
		}
		want += int64(i + 1)
	}
	if err := os.WriteFile(filepath.Join(root, ".hidden"), []byte("zzzz"), 0o644); err != nil {
		t.Fatal(err)
	}

	retry := filesystem.DefaultRetryConfig()
	if got := fullSize(context.Background(), root, true, retry); got != want {
		t.Errorf("fullSize(skip hidden) = %d, want %d", got, want)
	}
	if got := fullSize(context.Background(), root, false, retry); got != want+4 {
		t.Errorf("fullSize() = %d, want %d", got, want+4)
	}

	t.Setenv("WALK_WORKERS", "1")
	if got := fullSize(context.Background(), root, true, retry); got != want {
		t.Errorf("fullSize(one worker) = %d, want %d", got, want)
	}
}
