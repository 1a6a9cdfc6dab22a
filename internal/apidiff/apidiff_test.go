package apidiff

import (
	"testing"

	"github.com/raysh454/webdiffengine/internal/model"
)

func TestEndpointKeyStripsQueryAndHost(t *testing.T) {
	got := EndpointKey("get", "https://api.example.com/v1/users/42?active=true")
	want := "GET /v1/users/42"
	if got != want {
		t.Errorf("EndpointKey = %q, want %q", got, want)
	}
}

func TestNormalizeCallsCompactShape(t *testing.T) {
	raw := []byte(`[{"m":"GET","u":"/x","s":200,"req":null,"res":{"ok":true}}]`)
	calls, err := NormalizeCalls(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0].Method != "GET" || calls[0].Status != 200 {
		t.Errorf("unexpected normalised call: %+v", calls)
	}
}

func TestNormalizeCallsFullShape(t *testing.T) {
	raw := []byte(`[{"method":"POST","url":"/y","status":201,"requestBody":{"a":1}}]`)
	calls, err := NormalizeCalls(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0].Method != "POST" || calls[0].Status != 201 {
		t.Errorf("unexpected normalised call: %+v", calls)
	}
}

func TestCompareAddedAndRemovedEndpoints(t *testing.T) {
	a := []model.APICall{{Method: "GET", URL: "/gone", Status: 200}}
	b := []model.APICall{{Method: "GET", URL: "/new", Status: 200}}
	diff := Compare(a, b)
	if !diff.HasChanges {
		t.Fatal("expected HasChanges")
	}
	var sawAdded, sawRemoved bool
	for _, e := range diff.Endpoints {
		if e.Added {
			sawAdded = true
		}
		if e.Removed {
			sawRemoved = true
		}
	}
	if !sawAdded || !sawRemoved {
		t.Errorf("expected one added and one removed endpoint, got %+v", diff.Endpoints)
	}
}

func TestComparePairedStatusChange(t *testing.T) {
	a := []model.APICall{{Method: "GET", URL: "/x", Status: 200}}
	b := []model.APICall{{Method: "GET", URL: "/x", Status: 500}}
	diff := Compare(a, b)
	if len(diff.Endpoints) != 1 || len(diff.Endpoints[0].Pairs) != 1 {
		t.Fatalf("expected one paired endpoint, got %+v", diff.Endpoints)
	}
	pair := diff.Endpoints[0].Pairs[0]
	if !pair.StatusChanged || pair.OldStatus != 200 || pair.NewStatus != 500 {
		t.Errorf("unexpected pair result: %+v", pair)
	}
}

func TestDiffBodyDetectsFieldChanges(t *testing.T) {
	a := map[string]any{"name": "alice", "age": float64(30)}
	b := map[string]any{"name": "alice", "age": float64(31), "email": "a@x.com"}
	deltas := DiffBody(a, b, "", 0)
	var sawChanged, sawAdded bool
	for _, d := range deltas {
		if d.Path == "age" && d.Type == ChangeChanged {
			sawChanged = true
		}
		if d.Path == "email" && d.Type == ChangeAdded {
			sawAdded = true
		}
	}
	if !sawChanged || !sawAdded {
		t.Errorf("unexpected deltas: %+v", deltas)
	}
}

func TestDiffBodyCollapsesArrayIndices(t *testing.T) {
	a := map[string]any{"items": []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}}}
	b := map[string]any{"items": []any{map[string]any{"id": float64(9)}, map[string]any{"id": float64(9)}}}
	deltas := DiffBody(a, b, "", 0)
	for _, d := range deltas {
		if d.NormalizedPath != "items[*].id" {
			t.Errorf("NormalizedPath = %q, want items[*].id", d.NormalizedPath)
		}
	}
	if len(deltas) != 2 {
		t.Errorf("expected 2 deltas, got %d: %+v", len(deltas), deltas)
	}
}

func TestDiffBodyRespectsDepthCap(t *testing.T) {
	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": map[string]any{"e": map[string]any{"f": "x"}}}}}}
	shallow := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": map[string]any{"e": map[string]any{"f": "y"}}}}}}
	deltas := DiffBody(deep, shallow, "", 0)
	if len(deltas) != 0 {
		t.Errorf("expected depth cap to suppress deeply nested delta, got %+v", deltas)
	}
}

func TestDiffBodyTruncatesLongStrings(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	deltas := DiffBody(map[string]any{"v": "short"}, map[string]any{"v": string(long)}, "", 0)
	if len(deltas) != 1 {
		t.Fatalf("expected one delta, got %d", len(deltas))
	}
	newVal, ok := deltas[0].New.(string)
	if !ok || len(newVal) > maxValueLen+len("…") {
		t.Errorf("expected truncated value, got %v", deltas[0].New)
	}
}
