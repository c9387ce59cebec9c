package inspector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"media-inspector/internal/actions"
	"media-inspector/internal/classifier"
	"media-inspector/internal/helper"
	"media-inspector/internal/logging"
	"media-inspector/internal/menu"
	"media-inspector/internal/metadata"
	"media-inspector/internal/settings"
)

var (
	// ErrUnsupported is returned when no enabled format matches the item.
	ErrUnsupported = errors.New("no enabled format for this item")
	// ErrNoMenu is returned when the item has no menu to activate.
	ErrNoMenu = errors.New("no menu for the current item")
	// ErrNoEntry is returned when an entry index does not exist.
	ErrNoEntry = errors.New("no such menu entry")
)

// Backend is what the inspector needs from the helper. *helper.Client
// implements it.
type Backend interface {
	Info(ctx context.Context, tag metadata.Tag, path string) (interface{}, error)
	menu.Opener
	menu.Executor
}

// Request is the state of one inspection.
type Request struct {
	Path     string            `json:"path"`
	Result   classifier.Result `json:"-"`
	Domain   classifier.Domain `json:"domain"`
	Info     interface{}       `json:"info,omitempty"`
	Menu     *menu.Menu        `json:"menu,omitempty"`
	Duration time.Duration     `json:"-"`
}

// Inspector runs inspections against a Backend.
type Inspector struct {
	backend Backend
	holder  *settings.Holder
	scripts menu.ScriptEngine

	mu      sync.Mutex
	current Request
}

// New creates an Inspector. Settings are read from holder at the start of
// every request. Script entries run through the backend.
func New(backend Backend, holder *settings.Holder) *Inspector {
	return &Inspector{
		backend: backend,
		holder:  holder,
		scripts: menu.ExecEngine{Exec: backend},
	}
}

// Inspect classifies path, fetches its record and builds the menu. The
// returned Request is also kept as the current one, even when an error is
// returned, so a failed request never leaves the previous item active.
func (i *Inspector) Inspect(ctx context.Context, path string) (Request, error) {
	start := time.Now()
	req := Request{Path: path, Domain: classifier.DomainNone}
	i.setCurrent(req)

	s := i.holder.Current()
	id, err := classifier.IdentifierForPath(path)
	if err != nil {
		logging.Warn("Unable to get the content type of %s: %v", path, err)
		return req, err
	}
	result, ok := classifier.Classify(id, s)
	req.Result, req.Domain = result, result.Domain
	if !ok {
		i.setCurrent(req)
		return req, fmt.Errorf("%w: %s (%s)", ErrUnsupported, path, id)
	}
	logging.Debug("Inspecting %s as %s (tag %s)", path, result.Domain, result.Tag)

	info, err := i.backend.Info(ctx, result.Tag, path)
	if err != nil {
		i.setCurrent(req)
		if errors.Is(err, helper.ErrNoInfo) {
			logging.Debug("No info for %s", path)
		}
		return req, err
	}
	req.Info = info
	req.Menu = menu.Build(path, result, info, s)
	req.Duration = time.Since(start)
	i.setCurrent(req)

	logging.Debug("Inspected %s in %v", path, req.Duration)
	return req, nil
}

func (i *Inspector) setCurrent(req Request) {
	i.mu.Lock()
	i.current = req
	i.mu.Unlock()
}

// Current returns the state of the last request.
func (i *Inspector) Current() Request {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

// Entry resolves an entry of the current menu. index lists the position
// at each level, so {2} is the third root entry and {0, 4} the fifth child
// of the first one.
func (i *Inspector) Entry(index ...int) (*menu.Item, error) {
	cur := i.Current()
	if cur.Menu == nil {
		return nil, ErrNoMenu
	}
	if len(index) == 0 {
		return nil, ErrNoEntry
	}
	items := cur.Menu.Items
	var item *menu.Item
	for _, n := range index {
		if n < 0 || n >= len(items) {
			return nil, fmt.Errorf("%w: %v", ErrNoEntry, index)
		}
		item = items[n]
		items = item.Children
	}
	return item, nil
}

// Activate performs the action of an entry of the current menu.
func (i *Inspector) Activate(ctx context.Context, index ...int) (actions.Output, error) {
	item, err := i.Entry(index...)
	if err != nil {
		return actions.Output{Status: -1}, err
	}
	if item.Separator {
		return actions.Output{}, nil
	}
	return menu.Perform(ctx, item.Action, i.backend, i.scripts)
}

var _ Backend = (*helper.Client)(nil)
