// Package compare enumerates screens under two section directories,
// resolves identities, and orchestrates shallow and deep comparisons
// using a request-scoped engine with a bounded semaphore for the
// concurrent shallow comparison pass.
package compare

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/raysh454/webdiffengine/internal/model"
)

// ScreenEntry is one enumerated screen directory plus the artefacts
// found in it.
type ScreenEntry struct {
	Path       string // relative to the section root
	AbsPath    string
	Identity   string
	Meta       model.ScreenMeta
	HasUI      bool
	HasAPI     bool
	HasPreview bool
}

// Score implements the dedup priority: 2*hasUI + 2*hasAPI + 1*hasPreview.
func (s ScreenEntry) Score() int {
	score := 0
	if s.HasUI {
		score += 2
	}
	if s.HasAPI {
		score += 2
	}
	if s.HasPreview {
		score += 1
	}
	return score
}

// metaFilenames, in read preference order new -> old.
var metaFilenames = []string{"meta.json", "metadata.json"}

// EnumerateScreens walks every subdirectory of root recursively; a
// directory is a screen iff it contains UI/, any metadata file, dom.json,
// screen.html or apis.json.
// Sibling directories that resolve to the same identity are deduplicated,
// keeping the higher-scoring entry.
func EnumerateScreens(root string) ([]ScreenEntry, error) {
	var entries []ScreenEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if !isScreenDir(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entry := buildScreenEntry(rel, path)
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dedupByIdentity(entries), nil
}

func isScreenDir(path string) bool {
	if dirExists(filepath.Join(path, "UI")) {
		return true
	}
	for _, name := range metaFilenames {
		if fileExists(filepath.Join(path, name)) {
			return true
		}
	}
	if fileExists(filepath.Join(path, "dom.json")) || fileExists(filepath.Join(path, "screen.html")) {
		return true
	}
	if fileExists(filepath.Join(path, "apis.json")) {
		return true
	}
	return false
}

func buildScreenEntry(rel, abs string) ScreenEntry {
	meta := readMeta(abs)
	hasUI := fileExists(filepath.Join(abs, "dom.json")) ||
		fileExists(filepath.Join(abs, "screen.html")) ||
		fileExists(filepath.Join(abs, "UI", "snapshot.json"))
	hasAPI := fileExists(filepath.Join(abs, "apis.json")) ||
		fileExists(filepath.Join(abs, "API", "requests.json"))
	hasPreview := fileExists(filepath.Join(abs, "UI", "screenshot.jpg"))

	return ScreenEntry{
		Path:       filepath.ToSlash(rel),
		AbsPath:    abs,
		Identity:   Identity(meta, rel),
		Meta:       meta,
		HasUI:      hasUI,
		HasAPI:     hasAPI,
		HasPreview: hasPreview,
	}
}

func readMeta(dir string) model.ScreenMeta {
	for _, name := range metaFilenames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var m model.ScreenMeta
		if json.Unmarshal(data, &m) == nil {
			return m
		}
	}
	return model.ScreenMeta{}
}

// Identity derives a screen's identity: the lowercased pathname
// concatenated with an optional "?tab=<value>" and the lowercased type;
// absent a URL, falls back to "folder::<relative-path-lowercased>".
func Identity(meta model.ScreenMeta, relPath string) string {
	if meta.URL == "" {
		return "folder::" + strings.ToLower(filepath.ToSlash(relPath))
	}
	pathname := canonicalPathname(meta.URL)
	id := strings.ToLower(pathname)
	if tab := tabParam(meta.URL); tab != "" {
		id += "?tab=" + strings.ToLower(tab)
	}
	id += "::" + strings.ToLower(meta.Type)
	return id
}

// canonicalPathname returns the URL's pathname, or "/" when empty. Identity
// is pathname-only by design; the host plays no part in it.
func canonicalPathname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func tabParam(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("tab")
}

// IsModalIncompatible reports whether two identities represent the same
// logical screen except one is modal/dialog and the other is not — that
// pairing is treated as incompatible (added/removed, not changed).
func IsModalIncompatible(a, b model.ScreenMeta) bool {
	return a.IsModal() != b.IsModal()
}

func dedupByIdentity(entries []ScreenEntry) []ScreenEntry {
	best := make(map[string]ScreenEntry)
	var order []string
	for _, e := range entries {
		existing, ok := best[e.Identity]
		if !ok {
			best[e.Identity] = e
			order = append(order, e.Identity)
			continue
		}
		if e.Score() > existing.Score() {
			best[e.Identity] = e
		}
	}
	out := make([]ScreenEntry, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// signatureHashOf returns the hex SHA-256 of the file at path, or "" when
// it cannot be read. shallowCompare does not call it: when either side
// lacks a recorded signatureHash, the signature check is skipped and
// artefact size alone decides.
func signatureHashOf(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
