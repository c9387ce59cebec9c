package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"media-inspector/internal/actions"
	"media-inspector/internal/database"
	"media-inspector/internal/extract"
	"media-inspector/internal/metadata"
	"media-inspector/internal/settings"
	"media-inspector/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeExtractor struct {
	records map[string]interface{}
	err     error
}

func (f *fakeExtractor) Extract(_ context.Context, tag metadata.Tag, path string) (interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.records[string(tag)+":"+path]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: nothing for %s", extract.ErrNoInfo, path)
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (f *fakeRunner) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.fail {
		return errors.New("cannot start")
	}
	return nil
}

func (f *fakeRunner) Open(_ context.Context, path string) error {
	return f.record("open " + path)
}

func (f *fakeRunner) OpenWith(_ context.Context, path, app string) error {
	return f.record("open-with " + path + " " + app)
}

func (f *fakeRunner) Launch(_ context.Context, app string) error {
	return f.record("launch " + app)
}

func (f *fakeRunner) Exec(_ context.Context, command string, args []string) (actions.Output, error) {
	if err := f.record("exec " + command); err != nil {
		return actions.Output{Status: -1}, err
	}
	return actions.Output{Status: 2, Output: strings.Join(args, ",")}, nil
}

func (f *fakeRunner) Running() int { return 0 }

type fakeStore struct {
	saved []settings.Settings
	err   error
}

func (f *fakeStore) SaveSettings(_ context.Context, s settings.Settings, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) SettingsHistory(_ context.Context, limit int) ([]database.HistoryEntry, error) {
	return []database.HistoryEntry{{ID: 1, Version: 1, Source: "api", Body: fmt.Sprintf("limit %d", limit)}}, nil
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeRunner, *fakeStore) {
	t.Helper()
	ext := &fakeExtractor{records: map[string]interface{}{
		"image:/photo.png": &metadata.ImageInfo{Width: 640, Height: 480, ColorMode: "RGB", Depth: 8},
	}}
	runner := &fakeRunner{}
	store := &fakeStore{}
	h := New(ext, runner, store, settings.NewHolder(settings.Default()), &startup.Config{})
	return h, runner, store
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"map", map[string]string{"status": "ok"}, `{"status":"ok"}`},
		{"slice", []string{"a", "b"}, `["a","b"]`},
		{"null", nil, `null`},
		{"output", actions.Output{Status: -1, Output: "Timeout"}, `{"status":-1,"output":"Timeout"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)
			if got := strings.TrimSuffix(w.Body.String(), "\n"); got != tt.expected {
				t.Errorf("writeJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONError(w, "bad things", http.StatusTeapot)

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "bad things" {
		t.Errorf("error = %q, want %q", body["error"], "bad things")
	}
}

func infoRequest(tag, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/info/"+tag+"?path="+path, http.NoBody)
	return mux.SetURLVars(req, map[string]string{"tag": tag})
}

func TestGetInfo(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	tests := []struct {
		name       string
		tag        string
		path       string
		wantStatus int
	}{
		{"record", "image", "/photo.png", http.StatusOK},
		{"no info", "image", "/other.png", http.StatusNoContent},
		{"unknown tag", "hologram", "/photo.png", http.StatusBadRequest},
		{"missing path", "image", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.GetInfo(w, infoRequest(tt.tag, tt.path))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusNoContent && w.Body.Len() != 0 {
				t.Errorf("204 reply has a body: %q", w.Body.String())
			}
		})
	}

	w := httptest.NewRecorder()
	h.GetInfo(w, infoRequest("image", "/photo.png"))
	v, err := metadata.Decode(metadata.TagImage, w.Body.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img := v.(*metadata.ImageInfo); img.Width != 640 || img.ColorMode != "RGB" {
		t.Errorf("decoded reply = %+v", img)
	}
}

func TestGetInfoExtractorError(t *testing.T) {
	h := New(&fakeExtractor{err: errors.New("boom")}, &fakeRunner{}, nil, settings.NewHolder(settings.Default()), nil)

	w := httptest.NewRecorder()
	h.GetInfo(w, infoRequest("pdf", "/doc.pdf"))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func postJSON(target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestActionHandlers(t *testing.T) {
	h, runner, _ := newTestHandlers(t)

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		body       actions.Request
		wantStatus int
		wantCall   string
	}{
		{"open", h.Open, actions.Request{Path: "/a.png"}, http.StatusOK, "open /a.png"},
		{"open with", h.OpenWith, actions.Request{Path: "/a.png", App: "gimp"}, http.StatusOK, "open-with /a.png gimp"},
		{"open with no app", h.OpenWith, actions.Request{Path: "/a.png"}, http.StatusBadRequest, ""},
		{"launch", h.Launch, actions.Request{Path: "/apps/viewer"}, http.StatusOK, "launch /apps/viewer"},
		{"missing path", h.Open, actions.Request{}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner.calls = nil
			w := httptest.NewRecorder()
			tt.handler(w, postJSON("/api/action", tt.body))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantCall == "" {
				if len(runner.calls) != 0 {
					t.Errorf("runner called: %v", runner.calls)
				}
				return
			}
			if len(runner.calls) != 1 || runner.calls[0] != tt.wantCall {
				t.Errorf("calls = %v, want [%s]", runner.calls, tt.wantCall)
			}
			var out actions.Output
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Status != 0 {
				t.Errorf("Status = %d, want 0", out.Status)
			}
		})
	}
}

func TestActionFailureReported(t *testing.T) {
	h, runner, _ := newTestHandlers(t)
	runner.fail = true

	w := httptest.NewRecorder()
	h.Open(w, postJSON("/api/open", actions.Request{Path: "/a.png"}))
	var out actions.Output
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != -1 || out.Output != "cannot start" {
		t.Errorf("Output = %+v, want status -1 with the error", out)
	}

	w = httptest.NewRecorder()
	h.Exec(w, postJSON("/api/exec", actions.Request{Path: "ls"}))
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != -1 || out.Output != "cannot start" {
		t.Errorf("Exec output = %+v, want status -1 with the error", out)
	}
}

func TestExecHandler(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.Exec(w, postJSON("/api/exec", actions.Request{Path: "script", Args: []string{"a", "b"}}))

	var out actions.Output
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != 2 || out.Output != "a,b" {
		t.Errorf("Output = %+v, want status 2 and output a,b", out)
	}
}

func TestActionRejectsUnknownFields(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/api/open", strings.NewReader(`{"path":"/a","color":"red"}`))
	w := httptest.NewRecorder()
	h.Open(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetIcon(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	path := filepath.Join(t.TempDir(), "red.png")
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	f.Close()

	w := httptest.NewRecorder()
	h.GetIcon(w, httptest.NewRequest(http.MethodGet, "/api/icon?size=16&path="+url.QueryEscape(path), http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	icon, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("icon is not a PNG: %v", err)
	}
	if b := icon.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("icon size = %dx%d, want 16x8", b.Dx(), b.Dy())
	}

	for _, target := range []string{"/api/icon", "/api/icon?size=x&path=" + url.QueryEscape(path), "/api/icon?path=/missing.png"} {
		w := httptest.NewRecorder()
		h.GetIcon(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
		if w.Code == http.StatusOK {
			t.Errorf("GetIcon(%s) status = 200, want an error", target)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	h, _, store := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.GetSettings(w, httptest.NewRequest(http.MethodGet, "/api/settings", http.NoBody))
	var s settings.Settings
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}

	s.Folder.MaxFiles = 7
	w = httptest.NewRecorder()
	h.PutSettings(w, postJSON("/api/settings", s))
	if w.Code != http.StatusOK {
		t.Fatalf("PutSettings(json) status = %d (%s)", w.Code, w.Body.String())
	}
	if got := h.settings.Current().Folder.MaxFiles; got != 7 {
		t.Errorf("Folder.MaxFiles = %d, want 7", got)
	}
	if len(store.saved) != 1 {
		t.Errorf("store saved %d times, want 1", len(store.saved))
	}

	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("skip_empty: false\nfolder:\n  max_depth: 2\n"))
	req.Header.Set("Content-Type", "application/yaml")
	w = httptest.NewRecorder()
	h.PutSettings(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("PutSettings(yaml) status = %d (%s)", w.Code, w.Body.String())
	}
	if got := h.settings.Current(); got.SkipEmpty || got.Folder.MaxDepth != 2 {
		t.Errorf("settings after yaml put = skipEmpty %v maxDepth %d", got.SkipEmpty, got.Folder.MaxDepth)
	}

	w = httptest.NewRecorder()
	h.GetSettings(w, httptest.NewRequest(http.MethodGet, "/api/settings?format=yaml", http.NoBody))
	if !strings.Contains(w.Body.String(), "max_depth: 2") {
		t.Errorf("yaml export missing max_depth:\n%s", w.Body.String())
	}
}

func TestPutSettingsErrors(t *testing.T) {
	h, _, store := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("menu_action: explode\n"))
	w := httptest.NewRecorder()
	h.PutSettings(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid settings status = %d, want 400", w.Code)
	}

	store.err = errors.New("disk full")
	req = httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("folder:\n  max_depth: 9\n"))
	w = httptest.NewRecorder()
	h.PutSettings(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("store failure status = %d, want 500", w.Code)
	}
	if got := h.settings.Current().Folder.MaxDepth; got == 9 {
		t.Error("settings changed although the store failed")
	}
}

func TestGetSettingsHistory(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.GetSettingsHistory(w, httptest.NewRequest(http.MethodGet, "/api/settings/history?limit=5", http.NoBody))
	var history []database.HistoryEntry
	if err := json.NewDecoder(w.Body).Decode(&history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history) != 1 || history[0].Body != "limit 5" {
		t.Errorf("history = %+v", history)
	}

	w = httptest.NewRecorder()
	h.GetSettingsHistory(w, httptest.NewRequest(http.MethodGet, "/api/settings/history?limit=-1", http.NoBody))
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", w.Code)
	}

	noStore := New(&fakeExtractor{}, &fakeRunner{}, nil, settings.NewHolder(settings.Default()), nil)
	w = httptest.NewRecorder()
	noStore.GetSettingsHistory(w, httptest.NewRequest(http.MethodGet, "/api/settings/history", http.NoBody))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("no store status = %d, want 503", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		handlers   *Handlers
		wantCode   int
		wantStatus string
	}{
		{"healthy", New(&fakeExtractor{}, &fakeRunner{}, &fakeStore{}, settings.NewHolder(settings.Default()), nil), http.StatusOK, statusHealthy},
		{"no store", New(&fakeExtractor{}, &fakeRunner{}, nil, settings.NewHolder(settings.Default()), nil), http.StatusOK, statusDegraded},
		{"starting", &Handlers{}, http.StatusServiceUnavailable, statusStarting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handlers.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}

			w = httptest.NewRecorder()
			tt.handlers.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
			if w.Code != tt.wantCode {
				t.Errorf("readyz code = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	h := &Handlers{}
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		w := httptest.NewRecorder()
		h.LivenessCheck(w, httptest.NewRequest(method, "/livez", http.NoBody))
		if w.Code != http.StatusOK {
			t.Errorf("%s /livez = %d, want 200", method, w.Code)
		}
		if method == http.MethodHead && w.Body.Len() != 0 {
			t.Errorf("HEAD /livez has a body")
		}
	}
}

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name        string
		holder      *settings.Holder
		wantEngines int
	}{
		{"without settings", nil, 0},
		{"with settings", settings.NewHolder(settings.Default()), len(settings.Default().Engines)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handlers{settings: tt.holder}
			w := httptest.NewRecorder()
			h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("Cache-Control = %q, want no-cache", cc)
			}
			var resp VersionResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Version != startup.Version || resp.GoVersion == "" {
				t.Errorf("BuildInfo = %+v", resp.BuildInfo)
			}
			if len(resp.Tags) != len(metadata.Tags) {
				t.Errorf("len(Tags) = %d, want %d", len(resp.Tags), len(metadata.Tags))
			}
			if len(resp.Engines) != tt.wantEngines {
				t.Errorf("Engines = %v, want %d entries", resp.Engines, tt.wantEngines)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	h := &Handlers{}
	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	for _, metric := range []string{"go_goroutines", "media_inspector_"} {
		if !strings.Contains(w.Body.String(), metric) {
			t.Errorf("metrics output missing %q", metric)
		}
	}
}

// failingCollector reports one gauge and one collection error.
type failingCollector struct {
	desc *prometheus.Desc
}

func (c failingCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c failingCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.NewInvalidMetric(c.desc, errors.New("sensor offline"))
}

func TestMetricsHandlerContinuesOnError(t *testing.T) {
	c := failingCollector{desc: prometheus.NewDesc("media_inspector_test_failing", "test collector", nil, nil)}
	if err := prometheus.Register(c); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	t.Cleanup(func() { prometheus.Unregister(c) })

	h := &Handlers{}
	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite a failing collector", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output missing the healthy metrics")
	}
}
