// Package textdiff implements a Myers O(ND) line/word/char differ and
// similarity metric, built on sergi/go-diff's diffmatchpatch.
package textdiff

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultLineCap is the worst-case guard: beyond this many lines either
// side, fall back to a length-only change.
const DefaultLineCap = 5000

// Op mirrors diffmatchpatch's three-way diff operation.
type Op int

const (
	OpEqual Op = iota
	OpInsert
	OpDelete
)

// Diff is one chunk of a computed diff.
type Diff struct {
	Op   Op
	Text string
}

// NormalizeOptions control optional pre-diff normalisation, all off by
// default.
type NormalizeOptions struct {
	Trim               bool
	CollapseWhitespace bool
	CaseFold           bool
}

func normalizeLine(s string, opts NormalizeOptions) string {
	if opts.Trim {
		s = strings.TrimSpace(s)
	}
	if opts.CollapseWhitespace {
		s = collapseWhitespaceRe.ReplaceAllString(s, " ")
	}
	if opts.CaseFold {
		s = strings.ToLower(s)
	}
	return s
}

var collapseWhitespaceRe = regexp.MustCompile(`\s+`)

// LineDiff is the result of a line-level differ pass.
type LineDiff struct {
	Diffs       []Diff
	LengthOnly  bool // true when the Myers length guard tripped
	Added       int
	Removed     int
	Modified    int
	TotalA      int
	TotalB      int
}

// DiffLines runs the Myers line differ. When either side exceeds
// DefaultLineCap lines, it returns a synthetic length-only change (one
// deletion spanning all of a, one insertion spanning all of b) instead of
// paying the O(ND) cost.
func DiffLines(a, b []string, opts NormalizeOptions) LineDiff {
	if len(a) > DefaultLineCap || len(b) > DefaultLineCap {
		return lengthOnlyDiff(a, b)
	}

	na := make([]string, len(a))
	nb := make([]string, len(b))
	for i, l := range a {
		na[i] = normalizeLine(l, opts)
	}
	for i, l := range b {
		nb[i] = normalizeLine(l, opts)
	}

	dmp := diffmatchpatch.New()
	aJoined := strings.Join(na, "\n")
	bJoined := strings.Join(nb, "\n")

	// DiffLinesToChars/DiffCharsToLines encodes each distinct line as a
	// single rune so DiffMain's Myers bisect operates over lines instead
	// of characters, then decodes back to full lines — the standard
	// trick for an O(ND) line-level diff.
	charsA, charsB, lineArray := dmp.DiffLinesToChars(aJoined, bJoined)
	diffs := dmp.DiffMain(charsA, charsB, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return toLineDiff(diffs, len(a), len(b))
}

func lengthOnlyDiff(a, b []string) LineDiff {
	diffs := make([]Diff, 0, 2)
	if len(a) > 0 {
		diffs = append(diffs, Diff{Op: OpDelete, Text: strings.Join(a, "\n")})
	}
	if len(b) > 0 {
		diffs = append(diffs, Diff{Op: OpInsert, Text: strings.Join(b, "\n")})
	}
	return LineDiff{
		Diffs:      diffs,
		LengthOnly: true,
		Added:      len(b),
		Removed:    len(a),
		TotalA:     len(a),
		TotalB:     len(b),
	}
}

func toLineDiff(dmpDiffs []diffmatchpatch.Diff, totalA, totalB int) LineDiff {
	ld := LineDiff{TotalA: totalA, TotalB: totalB}
	for i, d := range dmpDiffs {
		lines := strings.Count(d.Text, "\n")
		if d.Text != "" && !strings.HasSuffix(d.Text, "\n") {
			lines++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ld.Diffs = append(ld.Diffs, Diff{Op: OpInsert, Text: d.Text})
			ld.Added += lines
		case diffmatchpatch.DiffDelete:
			// Count as removed here; after the loop, min(Added, Removed)
			// lines are reclassified as modified, regardless of where
			// the deletions and insertions sit.
			ld.Diffs = append(ld.Diffs, Diff{Op: OpDelete, Text: d.Text})
			ld.Removed += lines
		case diffmatchpatch.DiffEqual:
			ld.Diffs = append(ld.Diffs, Diff{Op: OpEqual, Text: d.Text})
		}
		_ = i
	}
	ld.Modified = minInt(ld.Added, ld.Removed)
	ld.Added -= ld.Modified
	ld.Removed -= ld.Modified
	return ld
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DiffChars runs a direct character-level Myers diff, used for inline
// highlighting on a single modified line.
func DiffChars(a, b string) []Diff {
	dmp := diffmatchpatch.New()
	raw := dmp.DiffMain(a, b, true)
	raw = dmp.DiffCleanupSemantic(raw)
	return fromDMP(raw)
}

// wordTokenRe splits into runs of non-whitespace and runs of whitespace,
// the token granularity used for prose word diffing.
var wordTokenRe = regexp.MustCompile(`\s+|\S+`)

func tokenizeWords(s string) []string {
	return wordTokenRe.FindAllString(s, -1)
}

// DiffWords runs a word-level Myers diff over whitespace/non-whitespace
// token runs, using the same line-to-chars encoding trick as DiffLines
// but applied to word tokens.
func DiffWords(a, b string) []Diff {
	ta := tokenizeWords(a)
	tb := tokenizeWords(b)

	dmp := diffmatchpatch.New()
	charsA, charsB, tokenArray := dmp.DiffLinesToChars(strings.Join(ta, "\n"), strings.Join(tb, "\n"))
	diffs := dmp.DiffMain(charsA, charsB, false)
	diffs = dmp.DiffCharsToLines(diffs, tokenArray)

	result := fromDMP(diffs)
	// The encoding trick joins tokens with "\n"; undo that artefact so
	// callers see the original token text without injected newlines.
	for i := range result {
		result[i].Text = strings.ReplaceAll(result[i].Text, "\n", "")
	}
	return result
}

func fromDMP(diffs []diffmatchpatch.Diff) []Diff {
	out := make([]Diff, 0, len(diffs))
	for _, d := range diffs {
		var op Op
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		default:
			op = OpEqual
		}
		out = append(out, Diff{Op: op, Text: d.Text})
	}
	return out
}

// Similarity computes 100*(total-added-removed-modified)/total, using a
// line-level diff under the hood. Reflexive and symmetric for inputs
// within the Myers cap.
func Similarity(a, b string) float64 {
	la := splitLines(a)
	lb := splitLines(b)
	ld := DiffLines(la, lb, NormalizeOptions{})

	total := ld.TotalA
	if ld.TotalB > total {
		total = ld.TotalB
	}
	if total == 0 {
		return 100
	}
	changed := ld.Added + ld.Removed + ld.Modified
	sim := 100 * float64(total-changed) / float64(total)
	if sim < 0 {
		sim = 0
	}
	return sim
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
