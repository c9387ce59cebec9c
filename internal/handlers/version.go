package handlers

import (
	"net/http"

	"media-inspector/internal/media"
	"media-inspector/internal/metadata"
	"media-inspector/internal/startup"
)

// VersionResponse describes the running helper so a client can tell which
// request tags and engines it can rely on.
type VersionResponse struct {
	startup.BuildInfo
	Tags            []metadata.Tag `json:"tags"`
	Engines         []string       `json:"engines"`
	Vips            bool           `json:"vips"`
	SettingsVersion int            `json:"settingsVersion,omitempty"`
}

// GetVersion returns the build information and the capabilities of the helper
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	resp := VersionResponse{
		BuildInfo: startup.GetBuildInfo(),
		Tags:      metadata.Tags,
		Engines:   []string{},
		Vips:      media.IsVipsAvailable(),
	}
	if h.settings != nil {
		s := h.settings.Current()
		resp.Engines = append(resp.Engines, s.Engines...)
		resp.SettingsVersion = s.Version
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, resp)
}
