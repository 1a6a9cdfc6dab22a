package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/webdiffengine/internal/compare"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
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

func newTestGenerator(t *testing.T) (*Generator, *storage.Gateway) {
	t.Helper()
	gw, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cmp := compare.New(gw, interfaces.NewTestLogger(false))
	g := New(gw, cmp, interfaces.NewTestLogger(false))
	g.nowFunc = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { g.Close() })
	return g, gw
}

func setupSection(t *testing.T, gw *storage.Gateway, project, ts, screen, dom string) {
	t.Helper()
	dir, err := gw.SectionPath(project, ts)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, screen, "meta.json"), `{"url":"https://x.test/`+screen+`","type":"page"}`)
	writeFile(t, filepath.Join(dir, screen, "dom.json"), dom)
}

func TestGenerateComparisonReportWritesHTMLAndRecord(t *testing.T) {
	g, gw := newTestGenerator(t)
	setupSection(t, gw, "proj", "main", "home", `{"t":"div"}`)
	setupSection(t, gw, "proj", "s2", "home", `{"t":"span"}`)

	rec, err := g.Generate(context.Background(), "proj", Request{Type: model.ReportComparison, Format: model.FormatHTML, Section1: "main", Section2: "s2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.HTMLFile == "" {
		t.Fatal("expected an HTML file to be recorded")
	}

	reportsDir, _ := gw.ReportsDir("proj")
	if !storage.Exists(filepath.Join(reportsDir, rec.HTMLFile)) {
		t.Error("expected report HTML file to exist on disk")
	}

	list, err := g.List("proj", "", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("expected listed report to match generated record, got %+v", list)
	}
}

func TestDeleteRemovesRecordAndArtefact(t *testing.T) {
	g, gw := newTestGenerator(t)
	setupSection(t, gw, "proj", "main", "home", `{"t":"div"}`)
	setupSection(t, gw, "proj", "s2", "home", `{"t":"span"}`)

	rec, err := g.Generate(context.Background(), "proj", Request{Type: model.ReportComparison, Format: model.FormatHTML, Section1: "main", Section2: "s2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := g.Delete("proj", rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reportsDir, _ := gw.ReportsDir("proj")
	if storage.Exists(filepath.Join(reportsDir, rec.HTMLFile)) {
		t.Error("expected report HTML file to be removed")
	}
	if _, err := g.Get("proj", rec.ID); err == nil {
		t.Error("expected Get to fail after delete")
	}
}

func TestGenerateComparisonReportRequiresBothSections(t *testing.T) {
	g, _ := newTestGenerator(t)
	if _, err := g.Generate(context.Background(), "proj", Request{Type: model.ReportComparison, Format: model.FormatHTML, Section1: "main"}); err == nil {
		t.Error("expected an error when section2 is missing")
	}
}

func TestGenerateTestRunReportRendersSectionDetails(t *testing.T) {
	g, gw := newTestGenerator(t)
	setupSection(t, gw, "proj", "main", "home", `{"t":"div"}`)
	setupSection(t, gw, "proj", "s2", "home", `{"t":"span"}`)
	sectionDir, err := gw.SectionPath("proj", "s2")
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sectionDir, "home", "apis.json"), `[{"method":"GET","url":"/api/users","status":200}]`)

	rec, err := g.Generate(context.Background(), "proj", Request{Type: model.ReportTestRun, Format: model.FormatHTML, Section1: "s2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Type != model.ReportTestRun {
		t.Errorf("Type = %q, want test-run", rec.Type)
	}

	reportsDir, _ := gw.ReportsDir("proj")
	htmlBytes, err := os.ReadFile(filepath.Join(reportsDir, rec.HTMLFile))
	if err != nil {
		t.Fatalf("reading report HTML: %v", err)
	}
	html := string(htmlBytes)
	for _, want := range []string{"s2", "API calls", "Comparison against main"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected report HTML to contain %q", want)
		}
	}
}

func TestGenerateTestRunReportMissingSectionNotFound(t *testing.T) {
	g, _ := newTestGenerator(t)
	if _, err := g.Generate(context.Background(), "proj", Request{Type: model.ReportTestRun, Format: model.FormatHTML, Section1: "missing"}); err == nil {
		t.Error("expected not-found error for missing section")
	}
}

func TestGenerateTestRunReportWithoutMainOmitsComparison(t *testing.T) {
	g, gw := newTestGenerator(t)
	setupSection(t, gw, "proj", "s2", "home", `{"t":"div"}`)

	rec, err := g.Generate(context.Background(), "proj", Request{Type: model.ReportTestRun, Format: model.FormatHTML, Section1: "s2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reportsDir, _ := gw.ReportsDir("proj")
	htmlBytes, err := os.ReadFile(filepath.Join(reportsDir, rec.HTMLFile))
	if err != nil {
		t.Fatalf("reading report HTML: %v", err)
	}
	if strings.Contains(string(htmlBytes), "Comparison against main") {
		t.Error("expected no comparison section when main does not exist")
	}
}

func TestGenerateProjectHealthReportAnalysesHotspots(t *testing.T) {
	g, gw := newTestGenerator(t)
	setupSection(t, gw, "proj", "t1", "home", `{"t":"div"}`)
	setupSection(t, gw, "proj", "t2", "home", `{"t":"span"}`)
	setupSection(t, gw, "proj", "t3", "home", `{"t":"div"}`)

	rec, err := g.Generate(context.Background(), "proj", Request{Type: model.ReportProjectHealth, Format: model.FormatHTML})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Type != model.ReportProjectHealth {
		t.Errorf("Type = %q, want project-health", rec.Type)
	}
}

func TestGCRemovesReportsOlderThanRetentionWindow(t *testing.T) {
	g, gw := newTestGenerator(t)
	reportsDir, _ := gw.ReportsDir("proj")
	writeFile(t, filepath.Join(reportsDir, "old.html"), "<html></html>")

	recordsPath, _ := gw.ReportsIndexPath("proj")
	old := model.ReportRecord{ID: "old", Type: model.ReportComparison, Format: model.FormatHTML, HTMLFile: "old.html", CreatedAt: g.now().Add(-31 * 24 * time.Hour)}
	data, _ := json.Marshal([]model.ReportRecord{old})
	writeFile(t, recordsPath, string(data))

	if err := g.GC(context.Background(), "proj"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storage.Exists(filepath.Join(reportsDir, "old.html")) {
		t.Error("expected stale report HTML to be removed")
	}
	var remaining []model.ReportRecord
	if err := storage.ReadJSON(recordsPath, &remaining); err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no records to remain, got %+v", remaining)
	}
}
