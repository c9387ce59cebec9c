package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"media-inspector/internal/extract"
	"media-inspector/internal/logging"
	"media-inspector/internal/media"
	"media-inspector/internal/metadata"

	"github.com/gorilla/mux"
)

// GetInfo extracts the record of the {tag} route variable for the path query
// parameter. Nothing extracted is answered with 204 No Content.
func (h *Handlers) GetInfo(w http.ResponseWriter, r *http.Request) {
	tag, err := metadata.ParseTag(mux.Vars(r)["tag"])
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.infoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.infoTimeout)
		defer cancel()
	}

	v, err := h.extractor.Extract(ctx, tag, path)
	switch {
	case errors.Is(err, extract.ErrNoInfo):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, v)
}

// GetIcon renders a PNG icon of the image at path, size pixels on its longest
// edge.
func (h *Handlers) GetIcon(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	size := media.DefaultIconSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSONError(w, "invalid size", http.StatusBadRequest)
			return
		}
		size = n
	}

	data, err := media.Icon(path, size)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write icon: %v", err)
	}
}
