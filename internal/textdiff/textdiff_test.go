package textdiff

import (
	"strings"
	"testing"
)

func TestSimilarityReflexive(t *testing.T) {
	cases := []string{"", "hello", "line one\nline two\nline three"}
	for _, c := range cases {
		if got := Similarity(c, c); got != 100 {
			t.Errorf("Similarity(%q, %q) = %v, want 100", c, c, got)
		}
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a := "Balance: 1,000\nfooter"
	b := "Balance: 1,200\nfooter"
	ab := Similarity(a, b)
	ba := Similarity(b, a)
	if ab != ba {
		t.Errorf("Similarity not symmetric: %v vs %v", ab, ba)
	}
	if ab < 30 || ab > 99.99 {
		t.Errorf("Similarity(a,b) = %v, expected a high-similarity single-line change", ab)
	}
}

func TestDiffLinesLengthGuard(t *testing.T) {
	a := make([]string, DefaultLineCap+1)
	b := make([]string, DefaultLineCap+2)
	for i := range a {
		a[i] = "line"
	}
	for i := range b {
		b[i] = "other"
	}
	ld := DiffLines(a, b, NormalizeOptions{})
	if !ld.LengthOnly {
		t.Fatal("expected length-only diff above the Myers cap")
	}
	if len(ld.Diffs) != 2 {
		t.Fatalf("expected exactly one deletion and one insertion, got %d chunks", len(ld.Diffs))
	}
}

func TestDiffLinesDetectsSingleChange(t *testing.T) {
	a := []string{"header", "Balance: 1,000", "footer"}
	b := []string{"header", "Balance: 1,200", "footer"}
	ld := DiffLines(a, b, NormalizeOptions{})
	if ld.LengthOnly {
		t.Fatal("did not expect the length guard to trip")
	}
	if ld.Added != 0 || ld.Removed != 0 || ld.Modified != 1 {
		t.Errorf("got added=%d removed=%d modified=%d, want 0/0/1", ld.Added, ld.Removed, ld.Modified)
	}
}

func TestDiffCharsHighlightsInlineChange(t *testing.T) {
	diffs := DiffChars("Balance: 1,000", "Balance: 1,200")
	var hasInsert, hasDelete bool
	for _, d := range diffs {
		if d.Op == OpInsert {
			hasInsert = true
		}
		if d.Op == OpDelete {
			hasDelete = true
		}
	}
	if !hasInsert || !hasDelete {
		t.Errorf("expected both insert and delete chunks, got %+v", diffs)
	}
}

func TestDiffWordsTokenizesWhitespaceRuns(t *testing.T) {
	diffs := DiffWords("the quick fox", "the slow fox")
	var joined strings.Builder
	for _, d := range diffs {
		if d.Op != OpDelete {
			joined.WriteString(d.Text)
		}
	}
	if got := joined.String(); got != "the slow fox" {
		t.Errorf("reconstructed = %q, want %q", got, "the slow fox")
	}
}

func TestNormalizeOptionsCaseFold(t *testing.T) {
	ld := DiffLines([]string{"HELLO"}, []string{"hello"}, NormalizeOptions{CaseFold: true})
	if ld.Added != 0 || ld.Removed != 0 || ld.Modified != 0 {
		t.Errorf("expected case-folded lines to be equal, got added=%d removed=%d modified=%d", ld.Added, ld.Removed, ld.Modified)
	}
}
