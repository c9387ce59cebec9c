package extract

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"

	"media-inspector/internal/filesystem"
	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
	"media-inspector/internal/settings"
	"media-inspector/internal/workers"
)

// maxWalkWorkers caps the goroutines of a full size walk.
const maxWalkWorkers = 8

// folderWalk carries the state of one folder summary.
type folderWalk struct {
	ctx   context.Context
	opts  settings.FolderSettings
	retry filesystem.RetryConfig
	info  *metadata.FolderInfo
	stop  bool
}

// folder lists the content of a folder honoring the folder settings. A zero
// MaxFiles or MaxDepth means no limit.
func (e *Extractor) folder(ctx context.Context, path string, bundle bool, opts settings.FolderSettings) (*metadata.FolderInfo, error) {
	w := &folderWalk{
		ctx:   ctx,
		opts:  opts,
		retry: e.retry,
		info:  &metadata.FolderInfo{Files: []metadata.FolderEntry{}},
	}
	w.info.Bundle = bundle

	w.walk(path, "", 0)

	if opts.SizeMethod == settings.SizeFull {
		w.info.TotalSize = fullSize(ctx, path, opts.SkipHidden, e.retry)
	}
	if opts.SizeMethod == settings.SizeNone {
		w.info.TotalSize = 0
	}
	logging.Debug("Folder %s: %d files, %d folders (truncated: %v)", path, w.info.FileCount, w.info.FolderCount, w.info.Truncated)
	return w.info, nil
}

func (w *folderWalk) walk(dir, rel string, level int) {
	if w.stop {
		return
	}
	if w.opts.MaxDepth > 0 && level >= w.opts.MaxDepth {
		w.info.Truncated = true
		return
	}

	entries, err := filesystem.ReadDirWithRetry(dir, w.retry)
	if err != nil {
		logging.Warn("Unable to read folder %s: %v", dir, err)
		return
	}

	for _, entry := range entries {
		if w.ctx.Err() != nil {
			w.info.Truncated = true
			w.stop = true
			return
		}
		name := entry.Name()
		if w.opts.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if w.opts.MaxFiles > 0 && w.info.ProcessedCount >= w.opts.MaxFiles {
			w.info.Truncated = true
			w.stop = true
			return
		}
		w.info.ProcessedCount++

		relName := filepath.Join(rel, name)
		if entry.IsDir() {
			w.info.FolderCount++
			w.info.Files = append(w.info.Files, metadata.FolderEntry{Name: relName, Dir: true})
			w.walk(filepath.Join(dir, name), relName, level+1)
			if w.stop {
				return
			}
			continue
		}

		var size int64
		if w.opts.SizeMethod != settings.SizeNone {
			if fi, err := entry.Info(); err == nil {
				size = fi.Size()
			}
		}
		w.info.FileCount++
		w.info.TotalSize += size
		w.info.Files = append(w.info.Files, metadata.FolderEntry{Name: relName, Size: size})
	}
}

// fullSize sums every regular file below root, ignoring the listing limits.
// Subdirectories are walked on free pool workers, or inline when none is.
func fullSize(ctx context.Context, root string, skipHidden bool, retry filesystem.RetryConfig) int64 {
	var total atomic.Int64
	pool := workers.NewPool(workers.ForIO(maxWalkWorkers))

	var visit func(dir string)
	visit = func(dir string) {
		entries, err := filesystem.ReadDirWithRetry(dir, retry)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			if skipHidden && strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if entry.IsDir() {
				sub := filepath.Join(dir, entry.Name())
				if !pool.TryGo(func() { visit(sub) }) {
					visit(sub)
				}
				continue
			}
			if fi, err := entry.Info(); err == nil && fi.Mode().IsRegular() {
				total.Add(fi.Size())
			}
		}
	}
	visit(root)
	pool.Wait()
	return total.Load()
}
