package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raysh454/webdiffengine/internal/compare"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/merge"
	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/report"
	"github.com/raysh454/webdiffengine/internal/storage"
	"github.com/raysh454/webdiffengine/internal/testrunner"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) (*Server, *storage.Gateway) {
	t.Helper()
	gw, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := interfaces.NewTestLogger(false)
	cmp := compare.New(gw, logger)
	s, err := NewServer(Config{
		Storage:    gw,
		Compare:    cmp,
		Merge:      merge.New(gw, logger),
		TestRunner: testrunner.New(gw, cmp, logger),
		Report:     report.New(gw, cmp, logger),
		Logger:     logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, gw
}

func setupScreen(t *testing.T, gw *storage.Gateway, project, section, screen, dom string) {
	t.Helper()
	dir, err := gw.SectionPath(project, section)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, screen, "meta.json"), `{"url":"https://x.test/`+screen+`","type":"page"}`)
	writeFile(t, filepath.Join(dir, screen, "dom.json"), dom)
}

func TestHandleCompareSectionsReturnsShallowDiff(t *testing.T) {
	s, gw := newTestServer(t)
	setupScreen(t, gw, "proj", "main", "home", `{"t":"div"}`)
	setupScreen(t, gw, "proj", "s2", "home", `{"t":"span"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/compare/proj/main/s2", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result compare.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Summary.Changed != 1 {
		t.Errorf("Summary.Changed = %d, want 1", result.Summary.Changed)
	}
}

func TestHandleCompareSectionsNotFoundSection(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/compare/proj/main/missing", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleTestRunnerRunAndFetch(t *testing.T) {
	s, gw := newTestServer(t)
	setupScreen(t, gw, "proj", "main", "home", `{"t":"div"}`)
	setupScreen(t, gw, "proj", "s2", "home", `{"t":"span"}`)

	body := strings.NewReader(`{"projectName":"proj","sectionTimestamp":"s2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/test-runner/run", body)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("run status = %d, body = %s", w.Code, w.Body.String())
	}
	var result model.TestResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/test-runner/proj/results/"+result.ID, nil)
	w2 := httptest.NewRecorder()
	s.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w2.Code, w2.Body.String())
	}

	req3 := httptest.NewRequest(http.MethodGet, "/api/test-runner/proj/statistics", nil)
	w3 := httptest.NewRecorder()
	s.ServeHTTP(w3, req3)
	var stats model.Statistics
	if err := json.Unmarshal(w3.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 {
		t.Errorf("Total = %d, want 1", stats.Total)
	}
}

func TestHandleReportGenerateAndDownload(t *testing.T) {
	s, gw := newTestServer(t)
	setupScreen(t, gw, "proj", "main", "home", `{"t":"div"}`)
	setupScreen(t, gw, "proj", "s2", "home", `{"t":"span"}`)

	body := strings.NewReader(`{"type":"comparison","format":"html","section1":"main","section2":"s2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/reports/proj/generate", body)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp reportGenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ReportID == "" {
		t.Fatal("expected a report id")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/reports/proj/"+resp.ReportID+"/download", nil)
	w2 := httptest.NewRecorder()
	s.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("download status = %d", w2.Code)
	}
	if !strings.Contains(w2.Body.String(), "<html") {
		t.Error("expected downloaded body to contain an html document")
	}
}

func TestHandleCapturePreviewRedirectsToLiveURL(t *testing.T) {
	s, gw := newTestServer(t)
	setupScreen(t, gw, "proj", "main", "home", `{"t":"div"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/capture/preview/proj/main/home", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://x.test/home" {
		t.Errorf("Location = %q", loc)
	}
}

func TestHandleCapturePreviewNotFoundWhenNoArtefact(t *testing.T) {
	s, gw := newTestServer(t)
	dir, _ := gw.SectionPath("proj", "main")
	writeFile(t, filepath.Join(dir, "home", "dom.json"), `{}`)

	req := httptest.NewRequest(http.MethodGet, "/api/capture/preview/proj/main/home", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestOptionsHandlerSetsCORSHeaders(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/merge/proj", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected wildcard CORS origin header")
	}
}
