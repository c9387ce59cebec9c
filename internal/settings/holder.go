package settings

import "sync"

// Holder keeps the settings currently in effect. Readers get a copy, so a
// reload never changes a value a request is already using.
type Holder struct {
	mu sync.RWMutex
	s  Settings
}

// NewHolder returns a holder initialized with s.
func NewHolder(s Settings) *Holder {
	return &Holder{s: s.Clone()}
}

// Current returns a copy of the settings in effect.
func (h *Holder) Current() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s.Clone()
}

// Store replaces the settings in effect.
func (h *Holder) Store(s Settings) {
	c := s.Clone()
	h.mu.Lock()
	h.s = c
	h.mu.Unlock()
}

// Follow stores every value received from updates until the channel closes,
// then calls onChange (when non-nil) with the stored value.
func (h *Holder) Follow(updates <-chan Settings, onChange func(Settings)) {
	for s := range updates {
		h.Store(s)
		if onChange != nil {
			onChange(s)
		}
	}
}
