package merge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

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

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	gw, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(gw, interfaces.NewTestLogger(false))
}

func TestMergeCopiesFlatFolder(t *testing.T) {
	e := newTestEngine(t)
	sectionPath, _ := e.Storage.SectionPath("proj", "2024-01-01T00-00-00-000Z")
	writeFile(t, filepath.Join(sectionPath, "home", "dom.json"), `{"t":"div"}`)

	result, err := e.Merge(context.Background(), "proj", "2024-01-01T00-00-00-000Z", []string{"home"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AllPassed || len(result.Folders) != 1 || !result.Folders[0].OK {
		t.Fatalf("expected successful merge, got %+v", result)
	}

	mainPath, _ := e.Storage.MainPath("proj")
	if !storage.Exists(filepath.Join(mainPath, "home", "dom.json")) {
		t.Error("expected home/dom.json to be copied into main")
	}
}

func TestMergeResolvesNestedPath(t *testing.T) {
	e := newTestEngine(t)
	sectionPath, _ := e.Storage.SectionPath("proj", "ts1")
	flowGraph := model.FlowGraph{Nodes: []model.FlowNode{{ID: "home", NestedPath: "pages/home"}}}
	flowBytes, _ := json.Marshal(flowGraph)
	writeFile(t, filepath.Join(sectionPath, "flow.json"), string(flowBytes))
	writeFile(t, filepath.Join(sectionPath, "pages", "home", "dom.json"), `{"t":"div"}`)

	result, err := e.Merge(context.Background(), "proj", "ts1", []string{"home"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Folders[0].OK || result.Folders[0].Path != "pages/home" {
		t.Fatalf("expected nested path resolution, got %+v", result.Folders[0])
	}
}

func TestMergeReportsErrorPerFolderWithoutAborting(t *testing.T) {
	e := newTestEngine(t)
	sectionPath, _ := e.Storage.SectionPath("proj", "ts1")
	writeFile(t, filepath.Join(sectionPath, "home", "dom.json"), `{"t":"div"}`)

	result, err := e.Merge(context.Background(), "proj", "ts1", []string{"home", "missing"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AllPassed {
		t.Error("expected AllPassed false due to missing folder")
	}
	var sawOK, sawFail bool
	for _, f := range result.Folders {
		if f.OK {
			sawOK = true
		} else {
			sawFail = true
		}
	}
	if !sawOK || !sawFail {
		t.Errorf("expected one ok and one failed folder, got %+v", result.Folders)
	}
}

func TestMergeReconcilesFlowGraph(t *testing.T) {
	e := newTestEngine(t)
	sectionPath, _ := e.Storage.SectionPath("proj", "ts1")
	sectionFlow := model.FlowGraph{
		Domain: "example.com",
		Nodes:  []model.FlowNode{{ID: "start", Type: "start"}, {ID: "home"}},
		Edges:  []model.FlowEdge{{From: "start", To: "home"}},
	}
	flowBytes, _ := json.Marshal(sectionFlow)
	writeFile(t, filepath.Join(sectionPath, "flow.json"), string(flowBytes))
	writeFile(t, filepath.Join(sectionPath, "home", "dom.json"), `{"t":"div"}`)

	_, err := e.Merge(context.Background(), "proj", "ts1", []string{"home"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flowPath, _ := e.Storage.FlowPath("proj")
	var mainFlow model.FlowGraph
	if err := storage.ReadJSON(flowPath, &mainFlow); err != nil {
		t.Fatalf("unexpected error reading main flow: %v", err)
	}
	if mainFlow.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", mainFlow.Domain)
	}
	if !mainFlow.HasEdge("start", "home") {
		t.Error("expected start->home edge in reconciled main flow")
	}
}

func TestMergeDeleteAfterOnlyWhenAllSucceed(t *testing.T) {
	e := newTestEngine(t)
	sectionPath, _ := e.Storage.SectionPath("proj", "ts1")
	writeFile(t, filepath.Join(sectionPath, "home", "dom.json"), `{"t":"div"}`)

	result, err := e.Merge(context.Background(), "proj", "ts1", []string{"home", "missing"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Deleted {
		t.Error("expected section not deleted when a folder failed")
	}
	if !storage.Exists(sectionPath) {
		t.Error("expected section directory to remain on partial failure")
	}
}

func TestPreviewDoesNotTouchFilesystem(t *testing.T) {
	e := newTestEngine(t)
	sectionPath, _ := e.Storage.SectionPath("proj", "ts1")
	writeFile(t, filepath.Join(sectionPath, "home", "dom.json"), `{"t":"div"}`)

	entries, err := e.Preview(context.Background(), "proj", "ts1", []string{"home"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "create" {
		t.Fatalf("expected one create-action entry, got %+v", entries)
	}
	mainPath, _ := e.Storage.MainPath("proj")
	if storage.Exists(filepath.Join(mainPath, "home")) {
		t.Error("preview must not write to main")
	}
}

func TestDeriveFoldersFallsBackToTopLevelDirs(t *testing.T) {
	e := newTestEngine(t)
	sectionPath, _ := e.Storage.SectionPath("proj", "ts1")
	writeFile(t, filepath.Join(sectionPath, "home", "dom.json"), `{"t":"div"}`)
	writeFile(t, filepath.Join(sectionPath, "about", "dom.json"), `{"t":"div"}`)

	result, err := e.Merge(context.Background(), "proj", "ts1", nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Folders) != 2 {
		t.Errorf("expected the empty-folders fallback to find 2 top-level dirs, got %+v", result.Folders)
	}
}
