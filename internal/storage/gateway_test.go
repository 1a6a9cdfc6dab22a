package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"my-project_1", true},
		{"My Project", true},
		{"", false},
		{"../escape", false},
		{"a/b", false},
	}
	for _, c := range cases {
		err := ValidateName(c.name)
		if (err == nil) != c.ok {
			t.Errorf("ValidateName(%q) error=%v, want ok=%v", c.name, err, c.ok)
		}
	}
}

func TestGatewayProjectPathConfinement(t *testing.T) {
	root := t.TempDir()
	g, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, err := g.ProjectPath("demo")
	if err != nil {
		t.Fatalf("ProjectPath: %v", err)
	}
	want := filepath.Join(root, "projects", "demo")
	if p != want {
		t.Errorf("ProjectPath = %q, want %q", p, want)
	}

	if _, err := g.ProjectPath("../../etc"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestGatewaySectionPathMainSentinel(t *testing.T) {
	root := t.TempDir()
	g, _ := New(root)

	main, err := g.SectionPath("demo", "main")
	if err != nil {
		t.Fatalf("SectionPath(main): %v", err)
	}
	wantMain, _ := g.MainPath("demo")
	if main != wantMain {
		t.Errorf("SectionPath(main) = %q, want %q", main, wantMain)
	}

	sec, err := g.SectionPath("demo", "2024-01-01T00-00-00-000Z")
	if err != nil {
		t.Fatalf("SectionPath: %v", err)
	}
	if filepath.Base(sec) != "2024-01-01T00-00-00-000Z" {
		t.Errorf("unexpected section path: %q", sec)
	}

	if _, err := g.SectionPath("demo", "../escape"); err == nil {
		t.Error("expected traversal rejection in section timestamp")
	}
}

func TestAtomicWriteFileAndReadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "data.json")

	type payload struct {
		A int `json:"a"`
	}

	if err := WriteJSON(path, payload{A: 7}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got payload
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.A != 7 {
		t.Errorf("got.A = %d, want 7", got.A)
	}

	// No leftover temp files.
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}

func TestCopyTreeOverwritesAtomically(t *testing.T) {
	srcDir := t.TempDir()
	dstParent := t.TempDir()
	dst := filepath.Join(dstParent, "target")

	if err := os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dst, "stale.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyTree(srcDir, dst); err != nil {
		t.Fatalf("CopyTree: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "stale.txt")); !os.IsNotExist(err) {
		t.Error("expected stale.txt to be removed by overwrite")
	}
	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil || string(data) != "new" {
		t.Errorf("a.txt = %q, err=%v", data, err)
	}
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f1"), make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "f2"), make([]byte, 50), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := DirSize(dir)
	if err != nil {
		t.Fatalf("DirSize: %v", err)
	}
	if size != 150 {
		t.Errorf("DirSize = %d, want 150", size)
	}
}
