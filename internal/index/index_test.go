package index

import (
	"context"
	"testing"
	"time"

	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
)

func newTestAccelerator(t *testing.T) (*Accelerator, *storage.Gateway) {
	t.Helper()
	gw, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	acc, err := Open(gw, "proj")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { acc.Close() })
	return acc, gw
}

func seedTestResults(t *testing.T, gw *storage.Gateway, results []model.TestResult) {
	t.Helper()
	path, err := gw.TestsIndexPath("proj")
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.WriteJSON(path, results); err != nil {
		t.Fatal(err)
	}
}

func TestRebuildsFromJSONWhenIndexEmpty(t *testing.T) {
	acc, gw := newTestAccelerator(t)
	seedTestResults(t, gw, []model.TestResult{
		{ID: "r1", SectionTS: "s1", Passed: true, OverallScore: 95, CreatedAt: time.Unix(1000, 0)},
		{ID: "r2", SectionTS: "s2", Passed: false, OverallScore: 40, CreatedAt: time.Unix(2000, 0)},
	})

	got, err := acc.ListTestResults(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "r2" {
		t.Errorf("expected most-recent-first ordering, got first = %q", got[0].ID)
	}
}

func TestStatisticsCountsPassedAndFailed(t *testing.T) {
	acc, gw := newTestAccelerator(t)
	seedTestResults(t, gw, []model.TestResult{
		{ID: "r1", Passed: true, CreatedAt: time.Unix(1, 0)},
		{ID: "r2", Passed: false, CreatedAt: time.Unix(2, 0)},
		{ID: "r3", Passed: true, CreatedAt: time.Unix(3, 0)},
	})

	stats, err := acc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 || stats.Passed != 2 || stats.Failed != 1 {
		t.Errorf("Statistics = %+v, want {3 2 1}", stats)
	}
}

func TestGetTestResultNotFound(t *testing.T) {
	acc, gw := newTestAccelerator(t)
	seedTestResults(t, gw, []model.TestResult{{ID: "r1", CreatedAt: time.Unix(1, 0)}})

	if _, err := acc.GetTestResult(context.Background(), "missing"); err != ErrTestResultNotFound {
		t.Errorf("expected ErrTestResultNotFound, got %v", err)
	}
}

func TestDeleteTestResultRemovesFromJSONAndIndex(t *testing.T) {
	acc, gw := newTestAccelerator(t)
	seedTestResults(t, gw, []model.TestResult{
		{ID: "r1", CreatedAt: time.Unix(1, 0)},
		{ID: "r2", CreatedAt: time.Unix(2, 0)},
	})
	if _, err := acc.ListTestResults(context.Background(), 0, 10); err != nil {
		t.Fatal(err)
	}

	if err := acc.DeleteTestResult(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := acc.ListTestResults(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r2" {
		t.Errorf("expected only r2 to remain, got %+v", got)
	}

	var onDisk []model.TestResult
	path, _ := gw.TestsIndexPath("proj")
	if err := storage.ReadJSON(path, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk) != 1 || onDisk[0].ID != "r2" {
		t.Errorf("expected JSON to reflect delete, got %+v", onDisk)
	}
}

func TestListReportsFiltersByType(t *testing.T) {
	acc, gw := newTestAccelerator(t)
	path, err := gw.ReportsIndexPath("proj")
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.WriteJSON(path, []model.ReportRecord{
		{ID: "rep1", Type: model.ReportComparison, Format: model.FormatHTML, CreatedAt: time.Unix(1, 0)},
		{ID: "rep2", Type: model.ReportTestRun, Format: model.FormatHTML, CreatedAt: time.Unix(2, 0)},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := acc.ListReports(context.Background(), string(model.ReportComparison), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "rep1" {
		t.Errorf("expected only rep1, got %+v", got)
	}
}

func TestEnsureFreshDoesNotRebuildWhenUpToDate(t *testing.T) {
	acc, gw := newTestAccelerator(t)
	seedTestResults(t, gw, []model.TestResult{{ID: "r1", CreatedAt: time.Unix(1, 0)}})

	if err := acc.EnsureFresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	stale, _ := acc.isStale(context.Background(), "test_results", mustResultsPath(t, gw))
	if stale {
		t.Error("expected index to be fresh immediately after EnsureFresh")
	}
}

func mustResultsPath(t *testing.T, gw *storage.Gateway) string {
	t.Helper()
	p, err := gw.TestsIndexPath("proj")
	if err != nil {
		t.Fatal(err)
	}
	return p
}
