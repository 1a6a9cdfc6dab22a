package domdiff

import (
	"fmt"

	"github.com/raysh454/webdiffengine/internal/color"
	"github.com/raysh454/webdiffengine/internal/textdiff"
)

// ElementDelta describes one element that survived matching between two
// screens but differs in some observable way.
type ElementDelta struct {
	Signature      string
	Before         Element
	After          Element
	TextDiff       []textdiff.Diff `json:"textDiff,omitempty"`
	PositionDelta  *PositionDelta  `json:"positionDelta,omitempty"`
	ColorDeltas    []ColorDelta    `json:"colorDeltas,omitempty"`
	StyleDeltas    []StyleDelta    `json:"styleDeltas,omitempty"`
}

// PositionDelta is the pixel offset between two matched elements' rects.
type PositionDelta struct {
	DX, DY float64
}

// ColorDelta names a colour property that changed beyond threshold.
type ColorDelta struct {
	Property string
	Before   string
	After    string
}

// StyleDelta names a non-colour style property that changed.
type StyleDelta struct {
	Property string
	Before   string
	After    string
}

// DOMDiff is the six-bag classification of an element-level comparison.
type DOMDiff struct {
	Added           []Element
	Removed         []Element
	Modified        []ElementDelta
	PositionChanged []ElementDelta
	ColorChanged    []ElementDelta
	StyleChanged    []ElementDelta
}

// positionTolerance is the pixel slop below which a position shift is
// considered noise rather than a real layout change.
const positionTolerance = 1.0

// Compare matches elements from two linearised screens by signature +
// normalised text identity and classifies survivors into the modified,
// position, colour and style bags.
// Unmatched elements from a fall into Removed, unmatched from b into
// Added — the standard added/removed/changed set arithmetic, applied
// here to DOM element signatures.
func Compare(a, b []Element) DOMDiff {
	var diff DOMDiff

	bySig := make(map[string][]int)
	for i, e := range b {
		bySig[e.Signature] = append(bySig[e.Signature], i)
	}
	usedB := make(map[int]bool)

	for _, ea := range a {
		idx, ok := bestMatch(ea, b, bySig[ea.Signature], usedB)
		if !ok {
			diff.Removed = append(diff.Removed, ea)
			continue
		}
		usedB[idx] = true
		eb := b[idx]
		classify(&diff, ea, eb)
	}

	for i, eb := range b {
		if !usedB[i] {
			diff.Added = append(diff.Added, eb)
		}
	}

	return diff
}

// bestMatch picks the closest unused candidate sharing ea's signature,
// preferring an exact normalised-text match, else the nearest by
// position, else the first unused candidate.
func bestMatch(ea Element, b []Element, candidates []int, used map[int]bool) (int, bool) {
	best := -1
	bestDist := -1.0
	for _, idx := range candidates {
		if used[idx] {
			continue
		}
		eb := b[idx]
		if eb.NormalizedText == ea.NormalizedText {
			return idx, true
		}
		d := positionDistance(ea, eb)
		if best == -1 || d < bestDist {
			best, bestDist = idx, d
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func positionDistance(a, b Element) float64 {
	if a.Position == nil || b.Position == nil {
		return 0
	}
	dx := a.Position.X - b.Position.X
	dy := a.Position.Y - b.Position.Y
	return dx*dx + dy*dy
}

// classify places a matched pair into exactly the bags its differences
// warrant; an element with no observable difference contributes nothing.
func classify(diff *DOMDiff, ea, eb Element) {
	textChanged := ea.NormalizedText != eb.NormalizedText
	posDelta := positionDeltaOf(ea, eb)
	colorDeltas := colorDeltasOf(ea, eb)
	styleDeltas := styleDeltasOf(ea, eb)

	if !textChanged && posDelta == nil && len(colorDeltas) == 0 && len(styleDeltas) == 0 {
		return
	}

	base := ElementDelta{Signature: ea.Signature, Before: ea, After: eb}

	if textChanged {
		d := base
		d.TextDiff = textdiff.DiffWords(ea.NormalizedText, eb.NormalizedText)
		diff.Modified = append(diff.Modified, d)
	}
	if posDelta != nil {
		d := base
		d.PositionDelta = posDelta
		diff.PositionChanged = append(diff.PositionChanged, d)
	}
	if len(colorDeltas) > 0 {
		d := base
		d.ColorDeltas = colorDeltas
		diff.ColorChanged = append(diff.ColorChanged, d)
	}
	if len(styleDeltas) > 0 {
		d := base
		d.StyleDeltas = styleDeltas
		diff.StyleChanged = append(diff.StyleChanged, d)
	}
}

func positionDeltaOf(a, b Element) *PositionDelta {
	if a.Position == nil || b.Position == nil {
		return nil
	}
	dx := b.Position.X - a.Position.X
	dy := b.Position.Y - a.Position.Y
	if abs(dx) <= positionTolerance && abs(dy) <= positionTolerance {
		return nil
	}
	return &PositionDelta{DX: dx, DY: dy}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func colorDeltasOf(a, b Element) []ColorDelta {
	var out []ColorDelta
	seen := make(map[string]bool)
	for prop, ca := range a.Colors {
		seen[prop] = true
		cb, ok := b.Colors[prop]
		if !ok || !color.Equal(ca, cb, color.DefaultThreshold) {
			out = append(out, ColorDelta{Property: prop, Before: color.Hex(ca), After: colorOrEmpty(cb, ok)})
		}
	}
	for prop, cb := range b.Colors {
		if seen[prop] {
			continue
		}
		out = append(out, ColorDelta{Property: prop, Before: "", After: color.Hex(cb)})
	}
	return out
}

func colorOrEmpty(c color.Color, ok bool) string {
	if !ok {
		return ""
	}
	return color.Hex(c)
}

func styleDeltasOf(a, b Element) []StyleDelta {
	var out []StyleDelta
	seen := make(map[string]bool)
	for prop, va := range a.Style {
		if !isImportantStyleProp(prop) {
			continue
		}
		seen[prop] = true
		vb := b.Style[prop]
		if va != vb {
			out = append(out, StyleDelta{Property: prop, Before: va, After: vb})
		}
	}
	for prop, vb := range b.Style {
		if seen[prop] || !isImportantStyleProp(prop) {
			continue
		}
		out = append(out, StyleDelta{Property: prop, Before: "", After: vb})
	}
	return out
}

// Summary renders a short human-readable line for report hotspot views.
func (d DOMDiff) Summary() string {
	return fmt.Sprintf("+%d -%d ~%d pos:%d color:%d style:%d",
		len(d.Added), len(d.Removed), len(d.Modified),
		len(d.PositionChanged), len(d.ColorChanged), len(d.StyleChanged))
}
