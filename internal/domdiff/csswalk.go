package domdiff

import (
	"strconv"
	"strings"

	"github.com/raysh454/webdiffengine/internal/color"
	"github.com/raysh454/webdiffengine/internal/model"
)

// formatCoord renders a rect coordinate for a CSSDelta's Before/After.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// maxCSSDepth bounds the CSS-tree walk: modelled as explicit stacks with
// a depth cap, not unbounded recursion.
const maxCSSDepth = 20

// CSSCategory buckets a style property for hotspot reporting.
type CSSCategory string

const (
	CategoryColor      CSSCategory = "color"
	CategoryTypography CSSCategory = "typography"
	CategorySpacing    CSSCategory = "spacing"
	CategoryPosition   CSSCategory = "position"
	CategoryBorder     CSSCategory = "border"
	CategoryLayout     CSSCategory = "layout"
	CategoryOther      CSSCategory = "other"
)

// CSSDelta is one changed style property located at a tree path.
type CSSDelta struct {
	Path     string
	Property string
	Before   string
	After    string
	Category CSSCategory
}

func categorize(prop string) CSSCategory {
	p := strings.ToLower(prop)
	switch {
	case colorProperties[p]:
		return CategoryColor
	case strings.HasPrefix(p, "font") || p == "line-height" || p == "letter-spacing" || p == "text-align":
		return CategoryTypography
	case strings.HasPrefix(p, "margin") || strings.HasPrefix(p, "padding") || p == "gap":
		return CategorySpacing
	case p == "top" || p == "left" || p == "right" || p == "bottom" || p == "position" || p == "transform" || p == "z-index":
		return CategoryPosition
	case strings.HasPrefix(p, "border") || p == "outline" || p == "box-shadow":
		return CategoryBorder
	case p == "display" || p == "flex" || strings.HasPrefix(p, "flex-") || p == "grid" || strings.HasPrefix(p, "grid-") || p == "width" || p == "height":
		return CategoryLayout
	default:
		return CategoryOther
	}
}

type cssFrame struct {
	a, b *model.DOMNode
	path string
	depth int
}

// WalkCSSTree compares two DOM trees position-by-position (assuming
// structurally-aligned trees, e.g. baseline vs. candidate capture of the
// same page) and reports every style property delta, tagged by category,
// down to maxCSSDepth. Uses an explicit stack rather than recursion.
func WalkCSSTree(a, b *model.DOMNode, depth int) []CSSDelta {
	if depth <= 0 || depth > maxCSSDepth {
		depth = maxCSSDepth
	}
	var out []CSSDelta
	if a == nil || b == nil {
		return out
	}
	stack := []cssFrame{{a, b, "/", 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > depth {
			continue
		}
		out = append(out, diffStyles(f.a.CSS, f.b.CSS, f.path)...)
		out = append(out, diffRect(f.a.Rect, f.b.Rect, f.path)...)

		n := minLen(len(f.a.C), len(f.b.C))
		for i := 0; i < n; i++ {
			ca, cb := f.a.C[i], f.b.C[i]
			if ca.IsText() || cb.IsText() {
				continue
			}
			stack = append(stack, cssFrame{ca, cb, childPath(f.path, ca.T, i), f.depth + 1})
		}
	}
	return out
}

func diffStyles(a, b map[string]string, path string) []CSSDelta {
	var out []CSSDelta
	seen := make(map[string]bool)
	for prop, va := range a {
		seen[prop] = true
		vb, ok := b[prop]
		if !ok || !stylesEqual(prop, va, vb) {
			out = append(out, CSSDelta{Path: path, Property: prop, Before: va, After: vb, Category: categorize(prop)})
		}
	}
	for prop, vb := range b {
		if seen[prop] {
			continue
		}
		out = append(out, CSSDelta{Path: path, Property: prop, Before: "", After: vb, Category: categorize(prop)})
	}
	return out
}

// diffRect compares a node's bounding box across two captures, one
// CSSDelta per axis that moved or resized beyond positionTolerance.
// Absent rect data on either side means nothing to compare, not a
// layout change, so it's skipped rather than reported as a delta.
func diffRect(a, b *model.Rect, path string) []CSSDelta {
	if a == nil || b == nil {
		return nil
	}
	var out []CSSDelta
	check := func(prop string, va, vb float64) {
		if abs(va-vb) > positionTolerance {
			out = append(out, CSSDelta{Path: path, Property: prop, Before: formatCoord(va), After: formatCoord(vb), Category: CategoryPosition})
		}
	}
	check("rect.x", a.X, b.X)
	check("rect.y", a.Y, b.Y)
	check("rect.w", a.W, b.W)
	check("rect.h", a.H, b.H)
	return out
}

func stylesEqual(prop, a, b string) bool {
	if a == b {
		return true
	}
	if colorProperties[strings.ToLower(prop)] {
		ca, okA := color.Parse(a)
		cb, okB := color.Parse(b)
		if okA && okB {
			return color.Equal(ca, cb, color.DefaultThreshold)
		}
	}
	return false
}

func childPath(parent, tag string, index int) string {
	if parent == "/" {
		return "/" + tag + indexSuffix(index)
	}
	return parent + "/" + tag + indexSuffix(index)
}

func indexSuffix(i int) string {
	if i == 0 {
		return ""
	}
	return "[" + strconv.Itoa(i) + "]"
}

func minLen(a, b int) int {
	if a < b {
		return a
	}
	return b
}
