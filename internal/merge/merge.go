// Package merge copies selected section screens into a project's main
// tree and reconciles the flow graph, using a copy-then-commit shape
// with a per-project lock to serialise concurrent merges.
package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raysh454/webdiffengine/internal/apierr"
	"github.com/raysh454/webdiffengine/internal/flow"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
)

// FolderResult is the per-folder outcome of a merge.
type FolderResult struct {
	Folder string `json:"folder"`
	Path   string `json:"path"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Result is the full Merge output.
type Result struct {
	Project   string         `json:"project"`
	Section   string         `json:"section"`
	Folders   []FolderResult `json:"folders"`
	Deleted   bool           `json:"deleted"`
	AllPassed bool           `json:"allPassed"`
}

// PreviewEntry is one folder's dry-run report.
type PreviewEntry struct {
	Folder     string `json:"folder"`
	Action     string `json:"action"` // create | overwrite
	SourceSize int64  `json:"sourceSize"`
	DestSize   int64  `json:"destSize,omitempty"`
}

// Engine merges section screens into main.
type Engine struct {
	Storage *storage.Gateway
	Logger  interfaces.Logger
}

// New constructs an Engine over the given gateway.
func New(gw *storage.Gateway, logger interfaces.Logger) *Engine {
	return &Engine{Storage: gw, Logger: logger}
}

// Merge runs the full merge algorithm: per-folder remove-then-copy,
// flow reconciliation, optional section delete.
func (e *Engine) Merge(ctx context.Context, project, sectionTS string, folders []string, deleteAfter bool) (*Result, error) {
	lock := e.Storage.ProjectLock(project)
	lock.Lock()
	defer lock.Unlock()

	sectionPath, err := e.Storage.SectionPath(project, sectionTS)
	if err != nil {
		return nil, apierr.Invalid("merge.Merge", err)
	}
	if !storage.IsDir(sectionPath) {
		return nil, apierr.NotFound("merge.Merge", fmt.Errorf("section %q not found", sectionTS))
	}
	mainPath, err := e.Storage.MainPath(project)
	if err != nil {
		return nil, apierr.Invalid("merge.Merge", err)
	}

	sectionGraph := readFlow(filepath.Join(sectionPath, "flow.json"))

	if len(folders) == 0 {
		folders = deriveFolders(sectionGraph, sectionPath)
	}

	result := &Result{Project: project, Section: sectionTS}
	allOK := true
	mergedIDs := make(map[string]bool, len(folders))

	for _, id := range folders {
		fr := e.mergeFolder(sectionPath, mainPath, sectionGraph, id)
		result.Folders = append(result.Folders, fr)
		if fr.OK {
			mergedIDs[id] = true
		} else {
			allOK = false
		}
	}
	result.AllPassed = allOK

	if len(mergedIDs) > 0 {
		if err := e.reconcileFlow(project, sectionGraph, mergedIDs); err != nil {
			if e.Logger != nil {
				e.Logger.Error("flow reconciliation failed after file copy", interfaces.Field{Key: "project", Value: project}, interfaces.Field{Key: "error", Value: err})
			}
			return result, apierr.New(apierr.KindTransient, "merge.Merge", err)
		}
	}

	if deleteAfter && allOK {
		if err := os.RemoveAll(sectionPath); err != nil {
			if e.Logger != nil {
				e.Logger.Error("failed to delete merged section", interfaces.Field{Key: "section", Value: sectionTS}, interfaces.Field{Key: "error", Value: err})
			}
		} else {
			result.Deleted = true
		}
	}

	return result, nil
}

// mergeFolder resolves id's nested path, falling back to the flat id
// path, and copies it from the section into main.
func (e *Engine) mergeFolder(sectionPath, mainPath string, sectionGraph model.FlowGraph, id string) FolderResult {
	nestedPath := flow.ResolveNestedPath(sectionGraph, id)

	src := filepath.Join(sectionPath, filepath.FromSlash(nestedPath))
	if !storage.IsDir(src) && nestedPath != id {
		src = filepath.Join(sectionPath, filepath.FromSlash(id))
		nestedPath = id
	}
	if !storage.IsDir(src) {
		return FolderResult{Folder: id, Path: nestedPath, OK: false, Error: "source folder not found"}
	}

	dst := filepath.Join(mainPath, filepath.FromSlash(nestedPath))
	if err := storage.CopyTree(src, dst); err != nil {
		return FolderResult{Folder: id, Path: nestedPath, OK: false, Error: err.Error()}
	}
	return FolderResult{Folder: id, Path: nestedPath, OK: true}
}

// reconcileFlow loads main/flow.json (if any), reconciles it with the
// section's graph for the merged id set, and writes it back atomically
// via rename-from-temp.
func (e *Engine) reconcileFlow(project string, sectionGraph model.FlowGraph, mergedIDs map[string]bool) error {
	flowPath, err := e.Storage.FlowPath(project)
	if err != nil {
		return err
	}
	var mainGraph *model.FlowGraph
	if storage.Exists(flowPath) {
		g := readFlow(flowPath)
		mainGraph = &g
	}
	reconciled := flow.Reconcile(mainGraph, sectionGraph, mergedIDs)
	return storage.WriteJSON(flowPath, reconciled)
}

// Preview runs the dry-run variant of Merge.
func (e *Engine) Preview(ctx context.Context, project, sectionTS string, folders []string) ([]PreviewEntry, error) {
	sectionPath, err := e.Storage.SectionPath(project, sectionTS)
	if err != nil {
		return nil, apierr.Invalid("merge.Preview", err)
	}
	if !storage.IsDir(sectionPath) {
		return nil, apierr.NotFound("merge.Preview", fmt.Errorf("section %q not found", sectionTS))
	}
	mainPath, err := e.Storage.MainPath(project)
	if err != nil {
		return nil, apierr.Invalid("merge.Preview", err)
	}
	sectionGraph := readFlow(filepath.Join(sectionPath, "flow.json"))

	if len(folders) == 0 {
		folders = deriveFolders(sectionGraph, sectionPath)
	}

	var out []PreviewEntry
	for _, id := range folders {
		nestedPath := flow.ResolveNestedPath(sectionGraph, id)
		src := filepath.Join(sectionPath, filepath.FromSlash(nestedPath))
		if !storage.IsDir(src) && nestedPath != id {
			src = filepath.Join(sectionPath, filepath.FromSlash(id))
			nestedPath = id
		}
		srcSize, _ := storage.DirSize(src)

		dst := filepath.Join(mainPath, filepath.FromSlash(nestedPath))
		entry := PreviewEntry{Folder: id, SourceSize: srcSize}
		if storage.IsDir(dst) {
			entry.Action = "overwrite"
			destSize, _ := storage.DirSize(dst)
			entry.DestSize = destSize
		} else {
			entry.Action = "create"
		}
		out = append(out, entry)
	}
	return out, nil
}

// deriveFolders is the fallback when no folders are given: non-start
// flow nodes, else the section's top-level directory names.
func deriveFolders(graph model.FlowGraph, sectionPath string) []string {
	if ids := flow.DeriveMergeSet(graph); len(ids) > 0 {
		return ids
	}
	entries, err := os.ReadDir(sectionPath)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func readFlow(path string) model.FlowGraph {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FlowGraph{}
	}
	var g model.FlowGraph
	if json.Unmarshal(data, &g) != nil {
		return model.FlowGraph{}
	}
	return g
}
