package metadata

import "time"

// MediaInfo is the audio/video record returned by the helper.
type MediaInfo struct {
	Streams  Streams `json:"streams"`
	Duration float64 `json:"duration"`
	BitRate  int64   `json:"bitRate"`
	Title    string  `json:"title,omitempty"`
	Engine   string  `json:"engine,omitempty"`
	FileSize int64   `json:"fileSize,omitempty"`
}

// PrimaryVideo returns the first video stream, if any.
func (m MediaInfo) PrimaryVideo() (VideoStream, bool) {
	v := m.Streams.Video()
	if len(v) == 0 {
		return VideoStream{}, false
	}
	return v[0], true
}

// PrimaryAudio returns the first audio stream, if any.
func (m MediaInfo) PrimaryAudio() (AudioStream, bool) {
	a := m.Streams.Audio()
	if len(a) == 0 {
		return AudioStream{}, false
	}
	return a[0], true
}

// PDFInfo describes a PDF document.
type PDFInfo struct {
	Version   string `json:"version"`
	Pages     int    `json:"pages"`
	Encrypted bool   `json:"encrypted"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Keywords  string `json:"keywords,omitempty"`
	Creator   string `json:"creator,omitempty"`
	Producer  string `json:"producer,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`
}

// OfficeInfo describes an OOXML or OpenDocument file.
type OfficeInfo struct {
	Title        string    `json:"title,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	Creator      string    `json:"creator,omitempty"`
	Keywords     string    `json:"keywords,omitempty"`
	Description  string    `json:"description,omitempty"`
	LastModifier string    `json:"lastModifiedBy,omitempty"`
	Created      time.Time `json:"created,omitempty"`
	Modified     time.Time `json:"modified,omitempty"`
	Application  string    `json:"application,omitempty"`
	Pages        int       `json:"pages,omitempty"`
	Words        int       `json:"words,omitempty"`
	Characters   int       `json:"characters,omitempty"`
	Sheets       int       `json:"sheets,omitempty"`
	Slides       int       `json:"slides,omitempty"`
	FileSize     int64     `json:"fileSize,omitempty"`
}

// ArchiveEntry is one member of an archive.
type ArchiveEntry struct {
	Name             string `json:"name"`
	Dir              bool   `json:"dir,omitempty"`
	Size             int64  `json:"size"`
	CompressedSize   int64  `json:"compressedSize"`
	CompressedMethod string `json:"method,omitempty"`
}

// ArchiveInfo describes the content of an archive.
type ArchiveInfo struct {
	Format           string         `json:"format"`
	Files            []ArchiveEntry `json:"files"`
	FileCount        int            `json:"fileCount"`
	Truncated        bool           `json:"truncated,omitempty"`
	UncompressedSize int64          `json:"uncompressedSize"`
	CompressedSize   int64          `json:"compressedSize"`
	FileSize         int64          `json:"fileSize,omitempty"`
}

// FolderEntry is one file found while walking a folder.
type FolderEntry struct {
	Name string `json:"name"`
	Dir  bool   `json:"dir,omitempty"`
	Size int64  `json:"size"`
}

// FolderInfo summarizes a folder or bundle.
type FolderInfo struct {
	Files          []FolderEntry `json:"files"`
	FileCount      int           `json:"fileCount"`
	FolderCount    int           `json:"folderCount"`
	ProcessedCount int           `json:"processedCount"`
	Truncated      bool          `json:"truncated,omitempty"`
	TotalSize      int64         `json:"totalSize"`
	Bundle         bool          `json:"bundle,omitempty"`
}

// ModelInfo describes a 3D model.
type ModelInfo struct {
	Meshes        int   `json:"meshes"`
	Vertices      int   `json:"vertices"`
	Normals       int   `json:"normals"`
	TextureCoords int   `json:"textureCoords"`
	Faces         int   `json:"faces"`
	VertexColors  bool  `json:"vertexColors,omitempty"`
	FileSize      int64 `json:"fileSize,omitempty"`
}

// FileInfo is the fallback record for unclassified files.
type FileInfo struct {
	Name     string    `json:"name"`
	Ext      string    `json:"ext"`
	FileSize int64     `json:"fileSize"`
	Modified time.Time `json:"modified"`
}
