package compare

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/raysh454/webdiffengine/internal/model"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIdentityFromURL(t *testing.T) {
	meta := model.ScreenMeta{URL: "https://Example.com/Path?tab=Billing", Type: "Page"}
	got := Identity(meta, "unused")
	want := "/path?tab=billing::page"
	if got != want {
		t.Errorf("Identity = %q, want %q", got, want)
	}
}

func TestIdentityFallsBackToFolder(t *testing.T) {
	got := Identity(model.ScreenMeta{}, "Some/Folder")
	if got != "folder::some/folder" {
		t.Errorf("Identity = %q, want folder::some/folder", got)
	}
}

func TestIsModalIncompatible(t *testing.T) {
	page := model.ScreenMeta{Type: "page"}
	modal := model.ScreenMeta{Type: "modal"}
	if !IsModalIncompatible(page, modal) {
		t.Error("expected page/modal pair to be incompatible")
	}
	if IsModalIncompatible(modal, model.ScreenMeta{Type: "dialog"}) {
		t.Error("expected modal/dialog pair to be compatible")
	}
}

func TestEnumerateScreensFindsScreenDirs(t *testing.T) {
	root := t.TempDir()
	meta, _ := json.Marshal(model.ScreenMeta{URL: "https://x.test/home", Type: "page"})
	writeFile(t, filepath.Join(root, "home", "meta.json"), string(meta))
	writeFile(t, filepath.Join(root, "home", "dom.json"), `{"t":"html"}`)
	writeFile(t, filepath.Join(root, "empty", "notes.txt"), "not a screen artefact")

	entries, err := EnumerateScreens(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 screen, got %d: %+v", len(entries), entries)
	}
	if entries[0].Path != "home" || !entries[0].HasUI {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestEnumerateScreensDedupByIdentityKeepsHigherScore(t *testing.T) {
	root := t.TempDir()
	meta, _ := json.Marshal(model.ScreenMeta{URL: "https://x.test/dash", Type: "page"})
	writeFile(t, filepath.Join(root, "dash-a", "meta.json"), string(meta))
	writeFile(t, filepath.Join(root, "dash-a", "apis.json"), "[]")
	writeFile(t, filepath.Join(root, "dash-b", "meta.json"), string(meta))
	writeFile(t, filepath.Join(root, "dash-b", "dom.json"), `{"t":"html"}`)
	writeFile(t, filepath.Join(root, "dash-b", "apis.json"), "[]")

	entries, err := EnumerateScreens(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected dedup to 1 screen, got %d: %+v", len(entries), entries)
	}
	if entries[0].Path != "dash-b" {
		t.Errorf("expected higher-scoring dash-b to survive dedup, got %q", entries[0].Path)
	}
}
