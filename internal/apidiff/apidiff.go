// Package apidiff normalises captured apis.json records from two sides
// and produces endpoint-level and body-level diffs. Endpoints are
// matched by method+path; paired calls are compared by status, request
// body and response body, with a depth-capped structural body diff that
// carries Vietnamese change-type labels straight from the original
// capture tool's diff vocabulary.
package apidiff

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/raysh454/webdiffengine/internal/model"
)

// ChangeType enumerates the structural body-diff change kinds.
// The labels are carried verbatim from the tool's original Vietnamese
// diff vocabulary: THÊM=added, XOÁ=removed, SỬA=changed.
type ChangeType string

const (
	ChangeAdded   ChangeType = "THÊM"
	ChangeRemoved ChangeType = "XOÁ"
	ChangeChanged ChangeType = "SỬA"
)

// maxBodyDiffDepth bounds the recursive structural body diff.
const maxBodyDiffDepth = 5

// maxValueLen truncates long scalar values in reported deltas.
const maxValueLen = 100

// BodyDelta is one structural change located within a JSON body.
type BodyDelta struct {
	Path           string     `json:"path"`
	NormalizedPath string     `json:"normalizedPath"`
	Type           ChangeType `json:"type"`
	Old            any        `json:"old,omitempty"`
	New            any        `json:"new,omitempty"`
	Value          any        `json:"value,omitempty"`
}

// EndpointKey identifies a distinct API surface: method + URL pathname.
func EndpointKey(method, rawURL string) string {
	return strings.ToUpper(method) + " " + pathOf(rawURL)
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	return u.Path
}

// NormalizeCalls folds the compact or full apis.json shape into the
// single in-memory model.APICall representation every differ reads. No
// other shape is recognised.
func NormalizeCalls(raw []byte) ([]model.APICall, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var compact []model.APICallCompact
	if err := json.Unmarshal(raw, &compact); err == nil && len(compact) > 0 && looksCompact(raw) {
		return foldCompact(compact), nil
	}
	var full []model.APICallFull
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}
	return foldFull(full), nil
}

// looksCompact is a cheap heuristic distinguishing the compact {m,u,s}
// shape from the full {method,url,status} shape before committing to a
// fold, since both unmarshal successfully into either typed slice when
// fields are simply absent.
func looksCompact(raw []byte) bool {
	return strings.Contains(string(raw), `"m"`) || strings.Contains(string(raw), `"u"`)
}

func foldCompact(in []model.APICallCompact) []model.APICall {
	out := make([]model.APICall, 0, len(in))
	for _, c := range in {
		out = append(out, model.APICall{
			Method:       c.M,
			URL:          c.U,
			Status:       c.S,
			Duration:     c.D,
			RequestBody:  c.Req,
			ResponseBody: c.Res,
		})
	}
	return out
}

func foldFull(in []model.APICallFull) []model.APICall {
	out := make([]model.APICall, 0, len(in))
	for _, c := range in {
		out = append(out, model.APICall{
			Method:       c.Method,
			URL:          c.URL,
			Status:       c.Status,
			Duration:     c.Duration,
			ReqHeaders:   c.ReqHeaders,
			RequestBody:  c.RequestBody,
			ResHeaders:   c.ResHeaders,
			ResponseBody: c.ResponseBody,
		})
	}
	return out
}

// EndpointDiff is the per-key report for an endpoint present on at least
// one side.
type EndpointDiff struct {
	Key            string       `json:"key"`
	Added          bool         `json:"added,omitempty"`
	Removed        bool         `json:"removed,omitempty"`
	Count          int          `json:"count"`
	StatusCodes    []int        `json:"statusCodes,omitempty"`
	Pairs          []PairResult `json:"pairs,omitempty"`
}

// PairResult compares one index-paired call from each side of a shared
// endpoint key.
type PairResult struct {
	Index               int         `json:"index"`
	StatusChanged       bool        `json:"statusChanged,omitempty"`
	OldStatus           int         `json:"oldStatus,omitempty"`
	NewStatus           int         `json:"newStatus,omitempty"`
	RequestBodyChanged  bool        `json:"requestBodyChanged,omitempty"`
	RequestBodyDeltas   []BodyDelta `json:"requestBodyDeltas,omitempty"`
	ResponseBodyChanged bool        `json:"responseBodyChanged,omitempty"`
	ResponseBodyDeltas  []BodyDelta `json:"responseBodyDeltas,omitempty"`
}

// Diff is the full API-differ result for one page/screen pair.
type Diff struct {
	Endpoints  []EndpointDiff `json:"endpoints"`
	HasChanges bool           `json:"hasChanges"`
	Summary    string         `json:"summary"`
}

// Compare groups both sides' calls by endpoint key, then classifies each
// key as added/removed/paired and diffs paired calls by index.
func Compare(a, b []model.APICall) Diff {
	byKeyA := groupByKey(a)
	byKeyB := groupByKey(b)

	keys := make(map[string]bool)
	for k := range byKeyA {
		keys[k] = true
	}
	for k := range byKeyB {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var diff Diff
	var added, removed, changed int
	for _, k := range sorted {
		callsA, okA := byKeyA[k]
		callsB, okB := byKeyB[k]
		switch {
		case okA && !okB:
			removed++
			diff.Endpoints = append(diff.Endpoints, EndpointDiff{
				Key: k, Removed: true, Count: len(callsA), StatusCodes: statusesOf(callsA),
			})
		case okB && !okA:
			added++
			diff.Endpoints = append(diff.Endpoints, EndpointDiff{
				Key: k, Added: true, Count: len(callsB), StatusCodes: statusesOf(callsB),
			})
		default:
			ed := EndpointDiff{Key: k, Count: maxInt(len(callsA), len(callsB))}
			n := minInt(len(callsA), len(callsB))
			for i := 0; i < n; i++ {
				pr := comparePair(i, callsA[i], callsB[i])
				if pr.StatusChanged || pr.RequestBodyChanged || pr.ResponseBodyChanged {
					changed++
				}
				ed.Pairs = append(ed.Pairs, pr)
			}
			diff.Endpoints = append(diff.Endpoints, ed)
		}
	}

	diff.HasChanges = added > 0 || removed > 0 || changed > 0
	diff.Summary = summaryLine(added, removed, changed)
	return diff
}

func groupByKey(calls []model.APICall) map[string][]model.APICall {
	if len(calls) == 0 {
		return nil
	}
	out := make(map[string][]model.APICall)
	for _, c := range calls {
		k := EndpointKey(c.Method, c.URL)
		out[k] = append(out[k], c)
	}
	return out
}

func statusesOf(calls []model.APICall) []int {
	out := make([]int, len(calls))
	for i, c := range calls {
		out[i] = c.Status
	}
	return out
}

func comparePair(index int, a, b model.APICall) PairResult {
	pr := PairResult{Index: index, OldStatus: a.Status, NewStatus: b.Status}
	if a.Status != b.Status {
		pr.StatusChanged = true
	}
	pr.RequestBodyDeltas = DiffBody(a.RequestBody, b.RequestBody, "", 0)
	pr.RequestBodyChanged = len(pr.RequestBodyDeltas) > 0
	pr.ResponseBodyDeltas = DiffBody(a.ResponseBody, b.ResponseBody, "", 0)
	pr.ResponseBodyChanged = len(pr.ResponseBodyDeltas) > 0
	return pr
}

func summaryLine(added, removed, changed int) string {
	return "+" + strconv.Itoa(added) + " endpoints, -" + strconv.Itoa(removed) +
		" endpoints, " + strconv.Itoa(changed) + " pairs changed"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
