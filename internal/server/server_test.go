package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/config"
	"github.com/michaelbrown/carcin-play/internal/page"
)

// fakeCarcin answers run requests like carc.in. Code containing "fail"
// yields a 422, "exit" yields exit code 1.
func fakeCarcin(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			RunRequest map[string]any `json:"run_request"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		code, _ := req.RunRequest["code"].(string)
		lang, _ := req.RunRequest["language"].(string)

		if strings.Contains(code, "fail") {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":{"message":"language not supported"}}`))
			return
		}

		run := map[string]any{
			"id": "r1", "language": lang, "version": "1.11.2",
			"stdout": "out\n", "stderr": "", "exit_code": 0,
			"created_at": "2024-03-01T10:00:00Z", "html_url": "https://carc.in/#/r/r1",
		}
		if strings.Contains(code, "exit") {
			run["stdout"] = ""
			run["stderr"] = "boom\nplaypen: timeout triggered!"
			run["exit_code"] = 1
		}
		json.NewEncoder(w).Encode(map[string]any{"run_request": map[string]any{"run": run}})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testServer(t *testing.T, docsDir string, manifest page.Manifest) (*Server, *atomic.Int32) {
	t.Helper()
	backend, calls := fakeCarcin(t)

	cfg := &config.Config{
		Carcin: config.CarcinConfig{BaseURL: backend.URL, Language: "crystal"},
		Widget: config.WidgetConfig{Selector: "crystal-play"},
		Docs:   config.DocsConfig{Dir: docsDir},
	}
	return New(cfg, carcin.NewClient(backend.URL), manifest), calls
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleRun(t *testing.T) {
	s, _ := testServer(t, t.TempDir(), nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/run", `{"code":"exit 1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp runResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Run.ExitCode != 1 || resp.Run.Language != "crystal" {
		t.Errorf("run = %+v", resp.Run)
	}
	if resp.Stderr != "boom\nExecution timed out." {
		t.Errorf("stderr = %q", resp.Stderr)
	}
}

func TestHandleRunErrors(t *testing.T) {
	s, _ := testServer(t, t.TempDir(), nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
		{name: "missing code", body: `{}`, status: http.StatusBadRequest},
		{name: "service error", body: `{"code":"fail"}`, status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s.Handler(), http.MethodPost, "/api/run", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestWidgetLifecycle(t *testing.T) {
	s, _ := testServer(t, t.TempDir(), nil)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/widgets", `{"code":"puts 1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created widgetResponse
	json.NewDecoder(rec.Body).Decode(&created)
	if created.ID == "" || created.State != "idle" {
		t.Fatalf("created = %+v", created)
	}
	if !strings.Contains(created.HTML, `data-widget-id="`+created.ID+`"`) {
		t.Errorf("html = %s", created.HTML)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/widgets/"+created.ID+"/run", `{"code":"exit 1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ran widgetResponse
	json.NewDecoder(rec.Body).Decode(&ran)
	if ran.State != "success" || !ran.HasError || !ran.ShowStderr {
		t.Errorf("ran = %+v", ran.View)
	}
	if ran.Code != "exit 1" {
		t.Errorf("code = %q", ran.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/widgets/"+created.ID+"/run", `{"code":"fail"}`)
	var failed widgetResponse
	json.NewDecoder(rec.Body).Decode(&failed)
	if failed.State != "failure" || failed.Error != "language not supported" {
		t.Errorf("failed = %+v", failed.View)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/widgets/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	if rec = doJSON(t, h, http.MethodDelete, "/api/widgets/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec = doJSON(t, h, http.MethodGet, "/api/widgets/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
	if rec = doJSON(t, h, http.MethodPost, "/api/widgets/nope/run", ""); rec.Code != http.StatusNotFound {
		t.Errorf("run unknown status = %d", rec.Code)
	}
}

func TestDocsPageBootstrapsWidgets(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "syntax"), 0o755)
	os.WriteFile(filepath.Join(dir, "syntax", "index.html"), []byte(`<html><head></head><body>
<div class="md-version"><span class="md-version__current">1.10</span></div>
<div class="crystal-play"><pre><code>puts 1</code></pre></div>
<div class="crystal-play"><pre><code>puts 2</code></pre></div>
</body></html>`), 0o644)
	os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644)

	manifest := page.Manifest{{Version: "1.11", Aliases: []string{"latest"}}}
	s, calls := testServer(t, dir, manifest)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/docs/syntax/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Count(body, "carcin-play__editor") != 2 {
		t.Errorf("expected 2 widgets in %s", body)
	}
	if !strings.Contains(body, "(outdated)") {
		t.Error("expected outdated banner")
	}
	if !strings.Contains(body, "/static/carcin-play.js") {
		t.Error("expected widget script")
	}
	if s.Widgets().Len() != 2 {
		t.Errorf("widgets held = %d, want 2", s.Widgets().Len())
	}
	if calls.Load() != 0 {
		t.Error("rendering a page must not run code")
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/docs/style.css", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Errorf("static file: %d %q", rec.Code, rec.Body.String())
	}

	if rec = doJSON(t, s.Handler(), http.MethodGet, "/docs/missing.html", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing page status = %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	s, _ := testServer(t, t.TempDir(), nil)

	for _, path := range []string{"/static/carcin-play.js", "/static/carcin-play.css"} {
		if rec := doJSON(t, s.Handler(), http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := testServer(t, t.TempDir(), nil)
	doJSON(t, s.Handler(), http.MethodGet, "/healthz", "")

	rec := doJSON(t, s.Handler(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "carcin_play_http_requests_total") {
		t.Error("expected http request metric")
	}
}

func TestWebSocketRun(t *testing.T) {
	s, _ := testServer(t, t.TempDir(), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	widget := s.Widgets().Create("puts 1", s.runner, s.widgetCfg)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/widgets/" + widget.ID() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "run", "code": "puts 2"}); err != nil {
		t.Fatal(err)
	}

	var loading, result wsOutgoing
	if err := conn.ReadJSON(&loading); err != nil {
		t.Fatal(err)
	}
	if loading.Type != "loading" || loading.Widget == nil {
		t.Errorf("first message = %+v", loading)
	}
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatal(err)
	}
	if result.Type != "result" || result.Widget == nil || result.Widget.State != "success" {
		t.Errorf("second message = %+v", result)
	}
	if !bytes.Contains([]byte(result.Widget.HTML), []byte("out")) {
		t.Errorf("result html = %s", result.Widget.HTML)
	}
	if widget.Code() != "puts 2" {
		t.Errorf("code = %q", widget.Code())
	}

	conn.WriteJSON(map[string]string{"type": "bogus"})
	var bad wsOutgoing
	conn.ReadJSON(&bad)
	if bad.Type != "error" {
		t.Errorf("expected error for bogus message, got %+v", bad)
	}
}

type blockingRunner struct {
	release chan struct{}
}

func (b blockingRunner) Submit(ctx context.Context, code string, opts carcin.Options) (*carcin.Run, error) {
	<-b.release
	return &carcin.Run{ID: "late"}, nil
}

func TestRunWidgetInFlightKeepsCode(t *testing.T) {
	s, _ := testServer(t, t.TempDir(), nil)
	runner := blockingRunner{release: make(chan struct{})}
	widget := s.Widgets().Create("original", runner, s.widgetCfg)

	ch, err := widget.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/widgets/"+widget.ID()+"/run", `{"code":"replacement"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if widget.Code() != "original" {
		t.Errorf("code = %q after rejected run", widget.Code())
	}

	close(runner.release)
	<-ch
}
