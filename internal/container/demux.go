package container

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
)

// NoPTS marks a duration the demuxer could not determine.
const NoPTS int64 = math.MinInt64

// TimeBase is the number of ticks per second of every duration a demuxer
// reports.
const TimeBase = 1_000_000

// MediaKind is the media type of an elementary stream.
type MediaKind string

// Media kinds reported by demuxers and assets.
const (
	KindVideo      MediaKind = "video"
	KindAudio      MediaKind = "audio"
	KindSubtitle   MediaKind = "subtitle"
	KindAttachment MediaKind = "attachment"
	KindData       MediaKind = "data"
)

// Rational is a num/den pair as reported by the demuxer.
type Rational struct {
	Num int
	Den int
}

// StreamDesc describes one elementary stream of an opened container.
type StreamDesc struct {
	Index             int
	Kind              MediaKind
	CodecName         string
	Width             int
	Height            int
	SampleAspectRatio Rational
	AvgFrameRate      Rational
	// Duration in TimeBase ticks, NoPTS when unknown.
	Duration   int64
	FrameCount int64
	Tags       map[string]string
}

// FormatContext is an opened container. Close must be called on every path.
type FormatContext interface {
	// FindStreamInfo reads enough of the file to fill the stream table.
	FindStreamInfo(ctx context.Context) error
	Streams() []StreamDesc
	// Duration of the whole container in TimeBase ticks, NoPTS when unknown.
	Duration() int64
	BitRate() int64
	Tags() map[string]string
	Close() error
}

// Demuxer opens containers.
type Demuxer interface {
	Open(ctx context.Context, path string) (FormatContext, error)
}

// DemuxAdapter maps a demuxer's stream table to metadata.Streams.
type DemuxAdapter struct {
	Demuxer Demuxer
}

// Name implements Adapter.
func (a *DemuxAdapter) Name() string { return EngineFFmpeg }

// Inspect implements Adapter.
func (a *DemuxAdapter) Inspect(ctx context.Context, path string) metadata.MediaInfo {
	info, err := a.inspect(ctx, path)
	if err != nil {
		logging.Debug("demux %s: %v", path, err)
		return metadata.MediaInfo{Streams: metadata.Streams{}}
	}
	return info
}

func (a *DemuxAdapter) inspect(ctx context.Context, path string) (info metadata.MediaInfo, err error) {
	fc, err := a.Demuxer.Open(ctx, path)
	if err != nil {
		return info, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := fc.Close(); cerr != nil {
			logging.Warn("Failed to close demuxer for %s: %v", path, cerr)
		}
	}()

	if err := fc.FindStreamInfo(ctx); err != nil {
		return info, fmt.Errorf("find stream info: %w", err)
	}

	info.Streams = StreamsFromDemux(fc)
	info.BitRate = fc.BitRate()
	if d := fc.Duration(); d != NoPTS && d > 0 {
		info.Duration = float64(d) / TimeBase
	}
	info.Title = fc.Tags()["title"]
	return info, nil
}

// StreamsFromDemux converts the stream table of an opened container.
// Attachments and data streams are left out.
func StreamsFromDemux(fc FormatContext) metadata.Streams {
	streams := metadata.Streams{}
	containerDuration := fc.Duration()
	containerBitRate := fc.BitRate()

	for _, s := range fc.Streams() {
		lang := normalizeISO(s.Tags["language"])

		switch s.Kind {
		case KindVideo:
			duration := streamSeconds(s.Duration, containerDuration)
			v := metadata.VideoStream{
				Width:      s.Width,
				Height:     s.Height,
				Duration:   duration,
				Codec:      s.CodecName,
				Lang:       lang,
				BitRate:    streamBitRate(s.Tags, containerBitRate),
				FrameCount: int(s.FrameCount),
			}
			if s.SampleAspectRatio.Num != 0 {
				v.Ratio = fmt.Sprintf("%d:%d", s.SampleAspectRatio.Num, s.SampleAspectRatio.Den)
			}
			if v.FrameCount == 0 && s.AvgFrameRate.Den != 0 {
				v.FrameCount = int(math.Round(duration * float64(s.AvgFrameRate.Num) / float64(s.AvgFrameRate.Den)))
			}
			streams = append(streams, v)

		case KindAudio:
			streams = append(streams, metadata.AudioStream{
				Duration: streamSeconds(s.Duration, containerDuration),
				Codec:    s.CodecName,
				Lang:     lang,
				BitRate:  streamBitRate(s.Tags, containerBitRate),
			})

		case KindSubtitle:
			streams = append(streams, metadata.SubtitleStream{
				Title: s.Tags["title"],
				Lang:  lang,
			})

		case KindAttachment, KindData:
			// no information value
		}
	}
	return streams
}

// streamSeconds falls back to the container duration when the stream's own
// duration is NoPTS or zero.
func streamSeconds(stream, container int64) float64 {
	d := stream
	if d == NoPTS || d == 0 {
		d = container
	}
	if d == NoPTS || d < 0 {
		return 0
	}
	return float64(d) / TimeBase
}

func streamBitRate(tags map[string]string, container int64) int64 {
	if v, ok := tags["BPS-eng"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return container
}
