package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/raysh454/webdiffengine/internal/apidiff"
	"github.com/raysh454/webdiffengine/internal/apierr"
	"github.com/raysh454/webdiffengine/internal/domdiff"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
)

// shallowConcurrency bounds the fan-out for shallow per-screen
// comparison via a bounded semaphore.
const shallowConcurrency = 5

// Status is one of the four per-item comparison outcomes.
type Status string

const (
	StatusChanged   Status = "changed"
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusUnchanged Status = "unchanged"
)

// statusOrder fixes the display sort order: changed, added, removed, unchanged.
var statusOrder = map[Status]int{StatusChanged: 0, StatusAdded: 1, StatusRemoved: 2, StatusUnchanged: 3}

// Item is one per-screen entry in a comparison result.
type Item struct {
	Status   Status        `json:"status"`
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Identity string        `json:"identity"`
	Page1    *ScreenEntry  `json:"page1,omitempty"`
	Page2    *ScreenEntry  `json:"page2,omitempty"`
	Diff     *PageDiff     `json:"diff,omitempty"`
}

// Summary aggregates per-status counts for a comparison result.
type Summary struct {
	Total1    int `json:"total1"`
	Total2    int `json:"total2"`
	Matched   int `json:"matched"`
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
}

// Result is the full output of CompareSections.
type Result struct {
	Section1 string  `json:"section1"`
	Section2 string  `json:"section2"`
	Summary  Summary `json:"summary"`
	Items    []Item  `json:"items"`
}

// PageDiff is the deep-compare output for one screen pair, combining the
// DOM and API differs.
type PageDiff struct {
	HasChanges bool             `json:"hasChanges"`
	Summary    string           `json:"summary"`
	DOM        *domdiff.DOMDiff `json:"dom,omitempty"`
	CSS        []domdiff.CSSDelta `json:"css,omitempty"`
	API        *apidiff.Diff    `json:"api,omitempty"`
}

// Engine runs comparisons for a project's sections against the storage
// gateway.
type Engine struct {
	Storage *storage.Gateway
	Logger  interfaces.Logger
}

// New constructs an Engine over the given gateway.
func New(gw *storage.Gateway, logger interfaces.Logger) *Engine {
	return &Engine{Storage: gw, Logger: logger}
}

// CompareSections enumerates both section roots, resolves identities and
// runs a semaphore-bounded shallow comparison pass.
func (e *Engine) CompareSections(ctx context.Context, project, s1, s2 string) (*Result, error) {
	path1, err := e.Storage.SectionPath(project, s1)
	if err != nil {
		return nil, apierr.Invalid("compare.CompareSections", err)
	}
	path2, err := e.Storage.SectionPath(project, s2)
	if err != nil {
		return nil, apierr.Invalid("compare.CompareSections", err)
	}
	if !storage.IsDir(path1) {
		return nil, apierr.NotFound("compare.CompareSections", fmt.Errorf("section %q not found", s1))
	}
	if !storage.IsDir(path2) {
		return nil, apierr.NotFound("compare.CompareSections", fmt.Errorf("section %q not found", s2))
	}

	screens1, err := EnumerateScreens(path1)
	if err != nil {
		return nil, apierr.New(apierr.KindTransient, "compare.CompareSections", err)
	}
	screens2, err := EnumerateScreens(path2)
	if err != nil {
		return nil, apierr.New(apierr.KindTransient, "compare.CompareSections", err)
	}

	pairs, addedOnly, removedOnly := pairByIdentity(screens1, screens2, s1 == "main")

	items := make([]Item, len(pairs)+len(addedOnly)+len(removedOnly))
	var wg sync.WaitGroup
	sem := make(chan struct{}, shallowConcurrency)

	for i, p := range pairs {
		wg.Add(1)
		go func(i int, p matchedPair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			items[i] = e.shallowCompare(p)
		}(i, p)
	}
	wg.Wait()

	offset := len(pairs)
	for i, s := range addedOnly {
		items[offset+i] = Item{Status: StatusAdded, Path: s.Path, Name: filepath.Base(s.Path), Identity: s.Identity, Page2: ptr(s)}
	}
	offset += len(addedOnly)
	for i, s := range removedOnly {
		items[offset+i] = Item{Status: StatusRemoved, Path: s.Path, Name: filepath.Base(s.Path), Identity: s.Identity, Page1: ptr(s)}
	}

	sortItems(items)

	summary := Summary{Total1: len(screens1), Total2: len(screens2)}
	for _, it := range items {
		switch it.Status {
		case StatusChanged:
			summary.Changed++
			summary.Matched++
		case StatusUnchanged:
			summary.Unchanged++
			summary.Matched++
		case StatusAdded:
			summary.Added++
		case StatusRemoved:
			summary.Removed++
		}
	}

	return &Result{Section1: s1, Section2: s2, Summary: summary, Items: items}, nil
}

type matchedPair struct {
	a, b ScreenEntry
}

// pairByIdentity matches screens across two sides by exact identity.
// When sectionA is main, main's screens that sectionB lacks (or pairs
// only modal-incompatibly with) are never emitted as removed; sectionB's
// unmatched screens are still reported as added.
func pairByIdentity(a, b []ScreenEntry, aIsMain bool) (pairs []matchedPair, addedOnly, removedOnly []ScreenEntry) {
	byIDB := make(map[string]ScreenEntry, len(b))
	for _, s := range b {
		byIDB[s.Identity] = s
	}
	seenB := make(map[string]bool, len(b))

	for _, sa := range a {
		sb, ok := byIDB[sa.Identity]
		if !ok || IsModalIncompatible(sa.Meta, sb.Meta) {
			if !aIsMain {
				removedOnly = append(removedOnly, sa)
			}
			continue
		}
		seenB[sa.Identity] = true
		pairs = append(pairs, matchedPair{a: sa, b: sb})
	}
	for _, sb := range b {
		if !seenB[sb.Identity] {
			addedOnly = append(addedOnly, sb)
		}
	}
	return pairs, addedOnly, removedOnly
}

// shallowCompare reports unchanged iff UI artefact sizes and signature
// hashes (when both present) match; otherwise changed, with no diff body
//.
func (e *Engine) shallowCompare(p matchedPair) Item {
	item := Item{
		Path:     p.a.Path,
		Name:     filepath.Base(p.a.Path),
		Identity: p.a.Identity,
		Page1:    ptr(p.a),
		Page2:    ptr(p.b),
	}

	sizeA, okA := uiArtifactSize(p.a)
	sizeB, okB := uiArtifactSize(p.b)

	sameSize := okA && okB && sizeA == sizeB
	sameSignature := true
	if p.a.Meta.SignatureHash != "" && p.b.Meta.SignatureHash != "" {
		sameSignature = p.a.Meta.SignatureHash == p.b.Meta.SignatureHash
	}

	if sameSize && sameSignature {
		item.Status = StatusUnchanged
	} else {
		item.Status = StatusChanged
	}
	return item
}

func uiArtifactSize(s ScreenEntry) (int64, bool) {
	for _, name := range []string{"dom.json", "screen.html"} {
		p := filepath.Join(s.AbsPath, name)
		if fi, err := os.Stat(p); err == nil {
			return fi.Size(), true
		}
	}
	p := filepath.Join(s.AbsPath, "UI", "snapshot.json")
	if fi, err := os.Stat(p); err == nil {
		return fi.Size(), true
	}
	return 0, false
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		oi, oj := statusOrder[items[i].Status], statusOrder[items[j].Status]
		if oi != oj {
			return oi < oj
		}
		return items[i].Path < items[j].Path
	})
}

func ptr(s ScreenEntry) *ScreenEntry {
	v := s
	return &v
}

// ComparePage runs the full deep DOM/CSS/API differ on a single resolved
// screen pair.
func (e *Engine) ComparePage(ctx context.Context, project, s1, s2, p1, p2 string) (*PageDiff, error) {
	sectionPath1, err := e.Storage.SectionPath(project, s1)
	if err != nil {
		return nil, apierr.Invalid("compare.ComparePage", err)
	}
	sectionPath2, err := e.Storage.SectionPath(project, s2)
	if err != nil {
		return nil, apierr.Invalid("compare.ComparePage", err)
	}

	abs1 := filepath.Join(sectionPath1, filepath.FromSlash(p1))
	abs2 := filepath.Join(sectionPath2, filepath.FromSlash(p2))
	if !storage.IsDir(abs1) || !storage.IsDir(abs2) {
		return nil, apierr.NotFound("compare.ComparePage", fmt.Errorf("screen path not found"))
	}

	elemsA, domA := loadElements(abs1)
	elemsB, domB := loadElements(abs2)
	domDiff := domdiff.Compare(elemsA, elemsB)

	var cssDeltas []domdiff.CSSDelta
	if domA != nil && domB != nil {
		cssDeltas = domdiff.WalkCSSTree(domA, domB, 0)
	}

	callsA := loadAPICalls(abs1)
	callsB := loadAPICalls(abs2)
	apiResult := apidiff.Compare(callsA, callsB)

	hasChanges := len(domDiff.Added)+len(domDiff.Removed)+len(domDiff.Modified)+
		len(domDiff.PositionChanged)+len(domDiff.ColorChanged)+len(domDiff.StyleChanged) > 0 ||
		len(cssDeltas) > 0 || apiResult.HasChanges

	summary := domDiff.Summary() + " | " + apiResult.Summary
	return &PageDiff{HasChanges: hasChanges, Summary: summary, DOM: &domDiff, CSS: cssDeltas, API: &apiResult}, nil
}

// loadElements resolves a screen's UI artefact in preference order —
// dom.json, then screen.html, then the legacy UI/snapshot.json — and
// returns its linearised elements plus the structured DOMNode when one
// was available (nil for screen.html, which carries no CSS/rect data).
func loadElements(screenDir string) ([]domdiff.Element, *model.DOMNode) {
	if node := loadDOMNode(screenDir, "dom.json"); node != nil {
		return domdiff.ExtractElements(node), node
	}
	if f, err := os.Open(filepath.Join(screenDir, "screen.html")); err == nil {
		defer f.Close()
		if elems, err := domdiff.ExtractElementsFromHTML(f); err == nil {
			return elems, nil
		}
	}
	if node := loadDOMNode(screenDir, filepath.Join("UI", "snapshot.json")); node != nil {
		return domdiff.ExtractElements(node), node
	}
	return nil, nil
}

func loadDOMNode(screenDir, rel string) *model.DOMNode {
	data, err := os.ReadFile(filepath.Join(screenDir, rel))
	if err != nil {
		return nil
	}
	var node model.DOMNode
	if json.Unmarshal(data, &node) != nil {
		return nil
	}
	return &node
}

func loadAPICalls(screenDir string) []model.APICall {
	data, err := os.ReadFile(filepath.Join(screenDir, "apis.json"))
	if err != nil {
		return nil
	}
	calls, err := apidiff.NormalizeCalls(data)
	if err != nil {
		return nil
	}
	return calls
}
