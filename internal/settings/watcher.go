package settings

import (
	"path/filepath"
	"sync"

	"media-inspector/internal/logging"
	"media-inspector/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// Watcher publishes the settings file content every time it changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan Settings
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Watch starts watching the settings file at path. The parent directory is
// watched rather than the file itself so atomic replace-on-save is seen.
func Watch(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logging.Error("failed to close settings watcher: %v", closeErr)
		}
		return nil, err
	}

	w := &Watcher{
		path:    abs,
		watcher: fw,
		updates: make(chan Settings, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	logging.Debug("Watching settings file %s", abs)
	return w, nil
}

// Updates delivers freshly loaded settings. A pending value that was not
// consumed yet is replaced by the newer one.
func (w *Watcher) Updates() <-chan Settings {
	return w.updates
}

// Close stops the watcher and closes the Updates channel.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
		close(w.updates)
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Settings watcher error: %v", err)
			metrics.SettingsReloadsTotal.WithLabelValues("error").Inc()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	s, err := LoadFromFile(w.path)
	if err != nil {
		logging.Warn("Ignoring settings change, reload failed: %v", err)
		metrics.SettingsReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.SettingsReloadsTotal.WithLabelValues("success").Inc()
	logging.Info("Settings reloaded from %s", w.path)

	// Drop a stale pending value so the newest settings always win.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- s:
	case <-w.done:
	}
}
