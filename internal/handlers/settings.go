package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"media-inspector/internal/logging"
	"media-inspector/internal/settings"
)

// GetSettings returns the settings in effect, as YAML when format=yaml.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	s := h.settings.Current()
	if r.URL.Query().Get("format") == "yaml" {
		data, err := settings.Marshal(s)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		if _, err := w.Write(data); err != nil {
			logging.Debug("failed to write settings: %v", err)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, s)
}

// PutSettings replaces the settings with the request body. YAML bodies use
// the settings file keys; JSON bodies use the keys GetSettings returns.
// Values the body omits keep their defaults.
func (h *Handlers) PutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeJSONError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var s settings.Settings
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		s = settings.Default()
		if err = json.Unmarshal(body, &s); err == nil {
			err = s.Validate()
		}
	} else {
		s, err = settings.Parse(body)
	}
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Version = settings.CurrentVersion

	if h.store != nil {
		if err := h.store.SaveSettings(r.Context(), s, "api"); err != nil {
			logging.Error("Failed to save settings: %v", err)
			writeJSONError(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
	}
	h.settings.Store(s)
	logging.Info("Settings replaced through the API")
	writeJSONStatus(w, "ok")
}

// GetSettingsHistory lists saved settings revisions, newest first.
func (h *Handlers) GetSettingsHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSONError(w, "settings store disabled", http.StatusServiceUnavailable)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	history, err := h.store.SettingsHistory(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to list settings history: %v", err)
		writeJSONError(w, "failed to list settings history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, history)
}
