// Package model defines the on-disk data shapes shared by the compare,
// test-runner, merge and report components: screens, DOM nodes, API
// calls, flow graphs, test results and report records.
package model

import "time"

// ScreenMeta is the normalised view of a screen's meta.json/metadata.json.
// Readers accept either file name; both are decoded with the same keys
// (url, type, signatureHash), and no other key set is recognised.
type ScreenMeta struct {
	URL           string         `json:"url,omitempty"`
	Type          string         `json:"type,omitempty"` // page | tab | modal | dialog | ui | ...
	SignatureHash string         `json:"signatureHash,omitempty"`
	Extra         map[string]any `json:"-"`
}

// IsModal reports whether the screen's type marks it as a modal/dialog
// surface, used by identity compatibility checks.
func (m ScreenMeta) IsModal() bool {
	switch m.Type {
	case "modal", "dialog":
		return true
	default:
		return false
	}
}

// Rect is a CSS-pixel bounding box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DOMNode is one node of a structured dom.json tree. T is the tag name or
// "#text" for text nodes. CSS holds computed style properties.
type DOMNode struct {
	T    string            `json:"t"`
	A    map[string]string `json:"a,omitempty"`
	C    []*DOMNode        `json:"c,omitempty"`
	CSS  map[string]string `json:"css,omitempty"`
	Rect *Rect             `json:"rect,omitempty"`
}

// IsText reports whether the node represents a text leaf.
func (n *DOMNode) IsText() bool {
	return n != nil && n.T == "#text"
}

// APICallFull is the writer-preferred shape for a captured API call.
type APICallFull struct {
	Method       string              `json:"method"`
	URL          string              `json:"url"`
	Status       int                 `json:"status"`
	Duration     float64             `json:"duration,omitempty"`
	ReqHeaders   map[string][]string `json:"reqHeaders,omitempty"`
	RequestBody  any                 `json:"requestBody,omitempty"`
	ResHeaders   map[string][]string `json:"resHeaders,omitempty"`
	ResponseBody any                 `json:"responseBody,omitempty"`
}

// APICallCompact is the compact shape some captures still emit.
type APICallCompact struct {
	M   string `json:"m"`
	U   string `json:"u"`
	S   int    `json:"s"`
	D   float64 `json:"d,omitempty"`
	Req any    `json:"req,omitempty"`
	Res any    `json:"res,omitempty"`
}

// APICall is the single normalised in-memory shape every reader folds to,
// whether the source apis.json record was compact or full. Calls stored in
// the legacy UI/API directory layout are not read.
type APICall struct {
	Method       string
	URL          string
	Status       int
	Duration     float64
	ReqHeaders   map[string][]string
	RequestBody  any
	ResHeaders   map[string][]string
	ResponseBody any
}

// Project is a named workspace rooted at projects/<name>/.
type Project struct {
	Name string `json:"name"`
}

// SectionInfo describes one captured section directory.
type SectionInfo struct {
	Timestamp string    `json:"timestamp"`
	IsReplay  bool      `json:"isReplay"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// IsMain reports whether a section reference is the sentinel "main" baseline.
func IsMain(section string) bool { return section == "main" }
