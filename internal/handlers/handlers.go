package handlers

import (
	"context"
	"time"

	"media-inspector/internal/actions"
	"media-inspector/internal/database"
	"media-inspector/internal/metadata"
	"media-inspector/internal/settings"
	"media-inspector/internal/startup"
)

// Extractor produces the record of a type tag for a path.
type Extractor interface {
	Extract(ctx context.Context, tag metadata.Tag, path string) (interface{}, error)
}

// Runner starts programs on behalf of the client.
type Runner interface {
	Open(ctx context.Context, path string) error
	OpenWith(ctx context.Context, path, app string) error
	Launch(ctx context.Context, app string) error
	Exec(ctx context.Context, command string, args []string) (actions.Output, error)
	Running() int
}

// SettingsStore persists the settings.
type SettingsStore interface {
	SaveSettings(ctx context.Context, s settings.Settings, source string) error
	SettingsHistory(ctx context.Context, limit int) ([]database.HistoryEntry, error)
}

type Handlers struct {
	extractor   Extractor
	runner      Runner
	store       SettingsStore
	settings    *settings.Holder
	infoTimeout time.Duration
	startTime   time.Time
}

// New creates the helper handlers. store may be nil, in which case settings
// changes are kept in memory only.
func New(extractor Extractor, runner Runner, store SettingsStore, holder *settings.Holder, config *startup.Config) *Handlers {
	h := &Handlers{
		extractor: extractor,
		runner:    runner,
		store:     store,
		settings:  holder,
		startTime: time.Now(),
	}
	if config != nil {
		h.infoTimeout = config.InfoTimeout
	}
	return h
}
