// Package domdiff extracts a linear sequence of visual elements from a
// structured DOM tree (or parsed HTML) and compares two such sequences,
// producing six change categories keyed off a structural signature
// plus normalised text identity for each element.
package domdiff

import (
	"regexp"
	"sort"
	"strings"

	"github.com/raysh454/webdiffengine/internal/color"
	"github.com/raysh454/webdiffengine/internal/model"
)

// skipTags never contribute visual elements to the comparison.
var skipTags = map[string]bool{
	"script": true, "style": true, "meta": true, "link": true,
	"noscript": true, "template": true,
}

// ContentType classifies an element's normalised text.
type ContentType string

const (
	ContentNumber ContentType = "number"
	ContentDate   ContentType = "date"
	ContentTime   ContentType = "time"
	ContentLabel  ContentType = "label"
	ContentText   ContentType = "text"
	ContentNull   ContentType = "null"
)

var (
	numberRe = regexp.MustCompile(`^[+-]?[$€£]?\s?\d{1,3}(?:[,.\s]\d{3})*(?:\.\d+)?%?$`)
	dateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$|^\d{1,2}/\d{1,2}/\d{2,4}$|^\d{1,2}-\d{1,2}-\d{2,4}$`)
	timeRe   = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?\s*(AM|PM|am|pm)?$`)
)

// ClassifyContent buckets normalised text per the content classifier.
func ClassifyContent(text string) ContentType {
	t := strings.TrimSpace(text)
	if t == "" {
		return ContentNull
	}
	if numberRe.MatchString(t) {
		return ContentNumber
	}
	if dateRe.MatchString(t) {
		return ContentDate
	}
	if timeRe.MatchString(t) {
		return ContentTime
	}
	if !strings.ContainsAny(t, " \t\n") && len(t) <= 24 {
		return ContentLabel
	}
	return ContentText
}

// Element is one linearised, visually-relevant DOM node.
type Element struct {
	Tag            string
	Attrs          map[string]string
	Text           string
	NormalizedText string
	Position       *model.Rect
	Colors         map[string]color.Color
	Style          map[string]string
	Signature      string
	ClassName      string
	ID             string
	DataTestID     string
	ContentType    ContentType
}

// colorProperties are the CSS properties treated as colour-bearing for
// colorChanged classification.
var colorProperties = map[string]bool{
	"color": true, "background-color": true, "border-color": true,
	"outline-color": true, "fill": true, "stroke": true,
}

// importantStylePrefixes and importantStyleExact feed styleChanged detection.
var importantStylePrefixes = []string{"font-", "border-"}
var importantStyleExact = map[string]bool{
	"display": true, "opacity": true, "z-index": true, "box-shadow": true, "transform": true,
}

func isImportantStyleProp(prop string) bool {
	if importantStyleExact[prop] {
		return true
	}
	for _, p := range importantStylePrefixes {
		if strings.HasPrefix(prop, p) {
			return true
		}
	}
	return false
}

// ExtractElements linearises a structured dom.json tree via depth-first
// walk, skipping non-visual tags. An explicit stack avoids unbounded
// recursion.
func ExtractElements(root *model.DOMNode) []Element {
	if root == nil {
		return nil
	}
	var out []Element
	type frame struct {
		node *model.DOMNode
	}
	stack := []frame{{root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		if n == nil {
			continue
		}
		if n.IsText() {
			continue
		}
		tag := strings.ToLower(n.T)
		if !skipTags[tag] && tag != "" {
			out = append(out, buildElement(n))
		}
		// Push children in reverse so traversal order matches document order.
		for i := len(n.C) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.C[i]})
		}
	}
	return out
}

func buildElement(n *model.DOMNode) Element {
	attrs := n.A
	text := textOf(n)
	norm := strings.Join(strings.Fields(text), " ")

	e := Element{
		Tag:            strings.ToLower(n.T),
		Attrs:          attrs,
		Text:           text,
		NormalizedText: norm,
		Style:          n.CSS,
		ID:             attrs["id"],
		DataTestID:     attrs["data-testid"],
		ContentType:    ClassifyContent(norm),
	}
	if cls, ok := attrs["class"]; ok {
		e.ClassName = cls
	}
	if n.Rect != nil {
		r := *n.Rect
		e.Position = &r
	}
	e.Colors = extractColors(n.CSS)
	e.Signature = Signature(e)
	return e
}

// textOf concatenates this node's own direct #text children (does not
// recurse into element children, matching a single "element" granularity
// rather than bubbling descendant text upward).
func textOf(n *model.DOMNode) string {
	var sb strings.Builder
	for _, c := range n.C {
		if c.IsText() {
			sb.WriteString(c.A["#text"])
		}
	}
	return sb.String()
}

func extractColors(css map[string]string) map[string]color.Color {
	if len(css) == 0 {
		return nil
	}
	out := make(map[string]color.Color)
	for prop, val := range css {
		if !colorProperties[strings.ToLower(prop)] {
			continue
		}
		if c, ok := color.Parse(val); ok {
			out[prop] = c
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Signature builds the element-identity key: tag [#id]
// [[data-testid=...]] [.firstThreeSortedClasses].
func Signature(e Element) string {
	var sb strings.Builder
	sb.WriteString(e.Tag)
	if e.ID != "" {
		sb.WriteString("#")
		sb.WriteString(e.ID)
	}
	if e.DataTestID != "" {
		sb.WriteString("[data-testid=")
		sb.WriteString(e.DataTestID)
		sb.WriteString("]")
	}
	if e.ClassName != "" {
		classes := strings.Fields(e.ClassName)
		sort.Strings(classes)
		if len(classes) > 3 {
			classes = classes[:3]
		}
		for _, c := range classes {
			sb.WriteString(".")
			sb.WriteString(c)
		}
	}
	return sb.String()
}

// MatchKey combines signature and normalised text into one key. Compare
// does not use it: it matches elements by signature and uses normalised
// text only to choose among candidates with the same signature.
func MatchKey(e Element) string {
	return e.Signature + "|" + e.NormalizedText
}
