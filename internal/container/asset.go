package container

import (
	"context"
	"math"

	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
)

// Track is one track of an Asset.
type Track struct {
	Kind             MediaKind
	Language         string
	Width            int
	Height           int
	NominalFrameRate float64
	EstimatedBitRate int64
	// Metadata holds common-key metadata items ("title", ...).
	Metadata map[string]string
}

// Asset is a track-level view of a media file.
type Asset interface {
	// Duration of the whole asset in seconds.
	Duration() float64
	Tracks() []Track
	// FormatSubtypes lists the codec subtypes of every track of the given
	// kind, in track order.
	FormatSubtypes(kind MediaKind) []string
	Close() error
}

// AssetOpener opens an Asset for path.
type AssetOpener func(path string) (Asset, error)

// AssetAdapter maps an Asset's tracks to metadata.Streams.
type AssetAdapter struct {
	Open AssetOpener
}

// Name implements Adapter.
func (a *AssetAdapter) Name() string { return EngineMP4 }

// Inspect implements Adapter.
func (a *AssetAdapter) Inspect(ctx context.Context, path string) metadata.MediaInfo {
	if ctx.Err() != nil {
		return metadata.MediaInfo{Streams: metadata.Streams{}}
	}
	asset, err := a.Open(path)
	if err != nil {
		logging.Debug("asset %s: %v", path, err)
		return metadata.MediaInfo{Streams: metadata.Streams{}}
	}
	defer func() {
		if cerr := asset.Close(); cerr != nil {
			logging.Warn("Failed to close asset %s: %v", path, cerr)
		}
	}()

	info := metadata.MediaInfo{
		Streams:  StreamsFromAsset(asset),
		Duration: asset.Duration(),
	}
	for _, s := range info.Streams.Video() {
		info.BitRate += s.BitRate
	}
	for _, s := range info.Streams.Audio() {
		info.BitRate += s.BitRate
	}
	return info
}

// StreamsFromAsset converts an asset's tracks. Durations are asset-level and
// the codec is the first subtype of the track's kind across the whole asset.
func StreamsFromAsset(asset Asset) metadata.Streams {
	streams := metadata.Streams{}
	duration := asset.Duration()

	for _, t := range asset.Tracks() {
		switch t.Kind {
		case KindVideo:
			streams = append(streams, metadata.VideoStream{
				Width:      t.Width,
				Height:     t.Height,
				Duration:   duration,
				Codec:      firstSubtype(asset, KindVideo),
				Lang:       passThrough(t.Language),
				BitRate:    t.EstimatedBitRate,
				FrameCount: int(math.Round(duration * t.NominalFrameRate)),
			})
		case KindAudio:
			streams = append(streams, metadata.AudioStream{
				Duration: duration,
				Codec:    firstSubtype(asset, KindAudio),
				Lang:     passThrough(t.Language),
				BitRate:  t.EstimatedBitRate,
			})
		case KindSubtitle:
			streams = append(streams, metadata.SubtitleStream{
				Title: t.Metadata["title"],
				Lang:  passThrough(t.Language),
			})
		}
	}
	return streams
}

func firstSubtype(asset Asset, kind MediaKind) string {
	if s := asset.FormatSubtypes(kind); len(s) > 0 {
		return s[0]
	}
	return ""
}
