package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"media-inspector/internal/container"
	"media-inspector/internal/filesystem"
	"media-inspector/internal/logging"
	"media-inspector/internal/media"
	"media-inspector/internal/mediatypes"
	"media-inspector/internal/metadata"
	"media-inspector/internal/metrics"
	"media-inspector/internal/settings"
)

// ErrNoInfo is returned when nothing could be extracted from an item. The
// helper answers such requests with an empty reply.
var ErrNoInfo = errors.New("no info available")

// SettingsSource provides the settings in effect for a request.
type SettingsSource interface {
	Current() settings.Settings
}

// Extractor runs the extractor of a type tag against one path.
type Extractor struct {
	images   media.Decoder
	adapters map[string]container.Adapter
	settings SettingsSource
	retry    filesystem.RetryConfig
}

// New creates an Extractor. adapters maps engine names to the container
// adapters the settings engine list can select.
func New(images media.Decoder, adapters map[string]container.Adapter, source SettingsSource) *Extractor {
	return &Extractor{
		images:   images,
		adapters: adapters,
		settings: source,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// Extract returns a pointer to the record type of tag (see metadata.Tag.New)
// filled from the item at path. ErrNoInfo (possibly wrapped) means the item
// could not be decoded.
func (e *Extractor) Extract(ctx context.Context, tag metadata.Tag, path string) (interface{}, error) {
	start := time.Now()
	v, err := e.extract(ctx, tag, path)
	metrics.ExtractionDuration.WithLabelValues(string(tag)).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.ExtractionsTotal.WithLabelValues(string(tag), "success").Inc()
		logging.Debug("Extracted %s info for %s in %v", tag, path, time.Since(start))
	case errors.Is(err, ErrNoInfo), errors.Is(err, media.ErrNoInfo):
		metrics.ExtractionsTotal.WithLabelValues(string(tag), "no_info").Inc()
		logging.Debug("No %s info for %s: %v", tag, path, err)
		if !errors.Is(err, ErrNoInfo) {
			err = fmt.Errorf("%w: %v", ErrNoInfo, err)
		}
	default:
		metrics.ExtractionsTotal.WithLabelValues(string(tag), "error").Inc()
		logging.Warn("Failed to extract %s info for %s: %v", tag, path, err)
	}
	return v, err
}

func (e *Extractor) extract(ctx context.Context, tag metadata.Tag, path string) (interface{}, error) {
	info, err := filesystem.StatWithRetry(path, e.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}

	switch {
	case tag == metadata.TagImage:
		img, err := e.images.DecodeImage(path)
		if err != nil {
			return nil, err
		}
		img.FileSize = info.Size()
		return &img, nil

	case tag == metadata.TagAudio, tag == metadata.TagVideo:
		engines := container.Select(e.settings.Current().Engines, e.adapters)
		m := engines.Inspect(ctx, path)
		if len(m.Streams) == 0 {
			return nil, fmt.Errorf("%w: no streams found", ErrNoInfo)
		}
		m.FileSize = info.Size()
		return &m, nil

	case tag == metadata.TagPDF:
		return e.pdf(path, info.Size())

	case tag.IsOffice():
		return e.office(tag, path, info.Size())

	case tag == metadata.Tag3D:
		return e.model(path, info.Size())

	case tag == metadata.TagArchive:
		return e.archive(path, info.Size())

	case tag == metadata.TagFolder:
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: not a folder", ErrNoInfo)
		}
		id := mediatypes.ForFileInfo(path, info)
		bundle := mediatypes.ConformsToAny(id, mediatypes.ApplicationBundle, mediatypes.Bundle, mediatypes.Package)
		return e.folder(ctx, path, bundle, e.settings.Current().Folder)

	case tag == metadata.TagFile:
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		return &metadata.FileInfo{
			Name:     filepath.Base(path),
			Ext:      ext,
			FileSize: info.Size(),
			Modified: info.ModTime(),
		}, nil
	}
	return nil, fmt.Errorf("unknown type tag %q", tag)
}
