// Package storage is the one-writer-per-path filesystem gateway to a
// project's capture tree. It owns atomic writes, path validation and
// per-project merge locking; every other component reads and writes
// the project tree exclusively through it.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// projectNamePattern allows letters, digits, space, underscore, dash;
// never a path separator after normalisation.
var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)

// ErrInvalidName is returned when a project or section name fails
// validation.
var ErrInvalidName = fmt.Errorf("storage: invalid name")

// Gateway roots filesystem access at StorageRoot (projects/ lives directly
// beneath it).
type Gateway struct {
	Root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Gateway rooted at root, creating the directory if absent.
func New(root string) (*Gateway, error) {
	if root == "" {
		root = "./storage"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating root %q: %w", root, err)
	}
	return &Gateway{Root: root, locks: make(map[string]*sync.Mutex)}, nil
}

// ValidateName checks a project name against the invariant.
func ValidateName(name string) error {
	if name == "" || !projectNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ProjectPath returns projects/<name>, validating the name and refusing
// any path that would escape the storage root (defence in depth beyond
// the regex, mirroring the blob-store's path-traversal guard).
func (g *Gateway) ProjectPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	p := filepath.Join(g.Root, "projects", filepath.Clean(name))
	return g.confine(p)
}

// MainPath returns projects/<name>/main.
func (g *Gateway) MainPath(project string) (string, error) {
	p, err := g.ProjectPath(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(p, "main"), nil
}

// SectionsDir returns projects/<name>/sections.
func (g *Gateway) SectionsDir(project string) (string, error) {
	p, err := g.ProjectPath(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(p, "sections"), nil
}

// SectionPath returns projects/<name>/sections/<ts>, or MainPath when ts
// is the "main" sentinel.
func (g *Gateway) SectionPath(project, ts string) (string, error) {
	if ts == "main" {
		return g.MainPath(project)
	}
	sd, err := g.SectionsDir(project)
	if err != nil {
		return "", err
	}
	clean := filepath.Clean(ts)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: section timestamp %q", ErrInvalidName, ts)
	}
	return filepath.Join(sd, clean), nil
}

// FlowPath returns projects/<name>/flow.json.
func (g *Gateway) FlowPath(project string) (string, error) {
	p, err := g.ProjectPath(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(p, "flow.json"), nil
}

// TestsIndexPath returns projects/<name>/tests/results.json.
func (g *Gateway) TestsIndexPath(project string) (string, error) {
	p, err := g.ProjectPath(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(p, "tests", "results.json"), nil
}

// ReportsDir returns projects/<name>/.reports.
func (g *Gateway) ReportsDir(project string) (string, error) {
	p, err := g.ProjectPath(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(p, ".reports"), nil
}

// ReportsIndexPath returns projects/<name>/.reports/reports.json.
func (g *Gateway) ReportsIndexPath(project string) (string, error) {
	d, err := g.ReportsDir(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "reports.json"), nil
}

// confine rejects a path that does not live under the storage root.
func (g *Gateway) confine(p string) (string, error) {
	absRoot, err := filepath.Abs(g.Root)
	if err != nil {
		return "", err
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if absP != absRoot && !strings.HasPrefix(absP, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes storage root", ErrInvalidName)
	}
	return p, nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// ProjectLock returns the per-project mutex used to serialise merge
// write phases: held only during copy + flow write, never during
// compare/report reads.
func (g *Gateway) ProjectLock(project string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[project]
	if !ok {
		l = &sync.Mutex{}
		g.locks[project] = l
	}
	return l
}
