package apidiff

import (
	"fmt"
	"reflect"
)

// DiffBody recursively diffs two decoded JSON values (maps, slices,
// scalars) down to maxBodyDiffDepth, collapsing array indices to "*" in
// normalizedPath so that e.g. "items[0].id" and "items[1].id" group
// under "items[*].id". String bodies are not Myers-diffed here —
// callers wanting inline text diffs for string leaves use textdiff
// separately; this walk reports only presence/length/content changes.
func DiffBody(a, b any, path string, depth int) []BodyDelta {
	if depth > maxBodyDiffDepth {
		return nil
	}
	if a == nil && b == nil {
		return nil
	}
	if a == nil {
		return []BodyDelta{{Path: path, NormalizedPath: normalizePath(path), Type: ChangeAdded, Value: truncate(b)}}
	}
	if b == nil {
		return []BodyDelta{{Path: path, NormalizedPath: normalizePath(path), Type: ChangeRemoved, Value: truncate(a)}}
	}

	ma, okA := a.(map[string]any)
	mb, okB := b.(map[string]any)
	if okA && okB {
		return diffMap(ma, mb, path, depth)
	}

	sa, okSA := a.([]any)
	sb, okSB := b.([]any)
	if okSA && okSB {
		return diffSlice(sa, sb, path, depth)
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return []BodyDelta{{Path: path, NormalizedPath: normalizePath(path), Type: ChangeChanged, Old: truncate(a), New: truncate(b)}}
	}

	if sa, ok := a.(string); ok {
		sb := b.(string)
		if len(sa) != len(sb) || sa != sb {
			return []BodyDelta{{Path: path, NormalizedPath: normalizePath(path), Type: ChangeChanged, Old: truncate(sa), New: truncate(sb)}}
		}
		return nil
	}

	if !reflect.DeepEqual(a, b) {
		return []BodyDelta{{Path: path, NormalizedPath: normalizePath(path), Type: ChangeChanged, Old: truncate(a), New: truncate(b)}}
	}
	return nil
}

func diffMap(a, b map[string]any, path string, depth int) []BodyDelta {
	var out []BodyDelta
	for k, va := range a {
		childPath := joinPath(path, k)
		vb, ok := b[k]
		if !ok {
			out = append(out, BodyDelta{Path: childPath, NormalizedPath: normalizePath(childPath), Type: ChangeRemoved, Value: truncate(va)})
			continue
		}
		out = append(out, DiffBody(va, vb, childPath, depth+1)...)
	}
	for k, vb := range b {
		if _, ok := a[k]; ok {
			continue
		}
		childPath := joinPath(path, k)
		out = append(out, BodyDelta{Path: childPath, NormalizedPath: normalizePath(childPath), Type: ChangeAdded, Value: truncate(vb)})
	}
	return out
}

func diffSlice(a, b []any, path string, depth int) []BodyDelta {
	var out []BodyDelta
	n := minInt(len(a), len(b))
	for i := 0; i < n; i++ {
		childPath := fmt.Sprintf("%s[%d]", path, i)
		out = append(out, DiffBody(a[i], b[i], childPath, depth+1)...)
	}
	for i := n; i < len(a); i++ {
		childPath := fmt.Sprintf("%s[%d]", path, i)
		out = append(out, BodyDelta{Path: childPath, NormalizedPath: normalizePath(childPath), Type: ChangeRemoved, Value: truncate(a[i])})
	}
	for i := n; i < len(b); i++ {
		childPath := fmt.Sprintf("%s[%d]", path, i)
		out = append(out, BodyDelta{Path: childPath, NormalizedPath: normalizePath(childPath), Type: ChangeAdded, Value: truncate(b[i])})
	}
	return out
}

// normalizePath collapses every bracketed array index to "*" for
// grouping, e.g. "items[0].id" -> "items[*].id".
func normalizePath(path string) string {
	out := make([]byte, 0, len(path))
	i := 0
	for i < len(path) {
		if path[i] == '[' {
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			out = append(out, '[', '*', ']')
			i = j + 1
			continue
		}
		out = append(out, path[i])
		i++
	}
	return string(out)
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// truncate shortens a string value past maxValueLen; non-string
// values pass through unchanged (truncation only applies to the
// leaf-string reporting rule, not structural containers).
func truncate(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if len(s) <= maxValueLen {
		return s
	}
	return s[:maxValueLen] + "…"
}
