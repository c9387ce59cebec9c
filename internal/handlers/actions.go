package handlers

import (
	"net/http"

	"media-inspector/internal/actions"
)

// readAction decodes an action request and checks that a path was given.
func readAction(w http.ResponseWriter, r *http.Request) (actions.Request, bool) {
	var req actions.Request
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// writeActionResult answers with status 0 on success or -1 and the error.
func writeActionResult(w http.ResponseWriter, err error) {
	out := actions.Output{Status: 0}
	if err != nil {
		out = actions.Output{Status: -1, Output: err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, out)
}

// Open opens the path with its default application.
func (h *Handlers) Open(w http.ResponseWriter, r *http.Request) {
	req, ok := readAction(w, r)
	if !ok {
		return
	}
	writeActionResult(w, h.runner.Open(r.Context(), req.Path))
}

// OpenWith opens the path with the requested application.
func (h *Handlers) OpenWith(w http.ResponseWriter, r *http.Request) {
	req, ok := readAction(w, r)
	if !ok {
		return
	}
	if req.App == "" {
		writeJSONError(w, "app is required", http.StatusBadRequest)
		return
	}
	writeActionResult(w, h.runner.OpenWith(r.Context(), req.Path, req.App))
}

// Launch starts the application at path.
func (h *Handlers) Launch(w http.ResponseWriter, r *http.Request) {
	req, ok := readAction(w, r)
	if !ok {
		return
	}
	writeActionResult(w, h.runner.Launch(r.Context(), req.Path))
}

// Exec runs the command at path with args and returns its status and output.
func (h *Handlers) Exec(w http.ResponseWriter, r *http.Request) {
	req, ok := readAction(w, r)
	if !ok {
		return
	}
	out, err := h.runner.Exec(r.Context(), req.Path, req.Args)
	if err != nil && out.Output == "" {
		out.Output = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, out)
}
