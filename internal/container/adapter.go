package container

import (
	"context"
	"time"

	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
	"media-inspector/internal/metrics"
)

// Engine names accepted in the settings engine list.
const (
	EngineFFmpeg = "ffmpeg"
	EngineMP4    = "mp4"
)

// Adapter inspects an audio/video container.
type Adapter interface {
	Name() string
	// Inspect returns the container's streams in native index order. An
	// unreadable file yields a MediaInfo with no streams.
	Inspect(ctx context.Context, path string) metadata.MediaInfo
}

// Engines tries each adapter in order and keeps the first result that has
// at least one stream.
type Engines []Adapter

// Name implements Adapter.
func (e Engines) Name() string { return "engines" }

// Inspect implements Adapter.
func (e Engines) Inspect(ctx context.Context, path string) metadata.MediaInfo {
	for _, a := range e {
		start := time.Now()
		info := a.Inspect(ctx, path)
		if len(info.Streams) > 0 {
			metrics.ContainerProbesTotal.WithLabelValues(a.Name(), "success").Inc()
			logging.Debug("%s: %d streams via %s in %v", path, len(info.Streams), a.Name(), time.Since(start))
			info.Engine = a.Name()
			return info
		}
		metrics.ContainerProbesTotal.WithLabelValues(a.Name(), "empty").Inc()
		if ctx.Err() != nil {
			break
		}
	}
	return metadata.MediaInfo{Streams: metadata.Streams{}}
}

// Select builds the engine list from configured names. Unknown names are
// logged and skipped; duplicates are ignored.
func Select(names []string, available map[string]Adapter) Engines {
	seen := make(map[string]bool, len(names))
	var out Engines
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		a, ok := available[n]
		if !ok {
			logging.Warn("Unknown media engine %q ignored", n)
			continue
		}
		out = append(out, a)
	}
	return out
}
