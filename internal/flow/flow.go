// Package flow reconciles a section's flow graph into a project's main
// flow graph during a merge. It is kept separate from internal/merge,
// which is its only caller.
package flow

import "github.com/raysh454/webdiffengine/internal/model"

// Reconcile merges sectionGraph's nodes/edges for the given merged node
// id set into mainGraph, returning the updated graph. mainGraph may be
// nil (no existing main/flow.json), in which case a fresh graph adopts
// the section's domain outright.
//
// Rules:
//   - domain: preserve main's domain unless empty, then adopt section's.
//   - nodes: for each section node whose id is in mergedIDs (or is the
//     "start" sentinel), insert if absent, else update in place by id.
//   - edges: for each section edge, add iff both endpoints already
//     exist in the resulting main node set; replace an existing edge
//     with the same (from, to).
func Reconcile(mainGraph *model.FlowGraph, sectionGraph model.FlowGraph, mergedIDs map[string]bool) model.FlowGraph {
	var result model.FlowGraph
	if mainGraph != nil {
		result = *mainGraph
	}
	if result.Domain == "" {
		result.Domain = sectionGraph.Domain
	}

	nodeIndex := make(map[string]int, len(result.Nodes))
	for i, n := range result.Nodes {
		nodeIndex[n.ID] = i
	}

	for _, n := range sectionGraph.Nodes {
		if !mergedIDs[n.ID] && !n.IsStart() {
			continue
		}
		if idx, ok := nodeIndex[n.ID]; ok {
			result.Nodes[idx] = n
		} else {
			nodeIndex[n.ID] = len(result.Nodes)
			result.Nodes = append(result.Nodes, n)
		}
	}

	present := make(map[string]bool, len(result.Nodes))
	for _, n := range result.Nodes {
		present[n.ID] = true
	}

	edgeIndex := make(map[[2]string]int, len(result.Edges))
	for i, e := range result.Edges {
		edgeIndex[[2]string{e.From, e.To}] = i
	}

	for _, e := range sectionGraph.Edges {
		if !present[e.From] || !present[e.To] {
			continue
		}
		key := [2]string{e.From, e.To}
		if idx, ok := edgeIndex[key]; ok {
			result.Edges[idx] = e
		} else {
			edgeIndex[key] = len(result.Edges)
			result.Edges = append(result.Edges, e)
		}
	}

	return result
}

// ResolveNestedPath maps a folder/node id to its capture-relative path
// using the section's flow.json. Legacy flat captures have no
// nestedPath recorded, so the id itself is used as the path.
func ResolveNestedPath(graph model.FlowGraph, id string) string {
	if n := graph.NodeByID(id); n != nil && n.NestedPath != "" {
		return n.NestedPath
	}
	return id
}

// DeriveMergeSet returns every non-start node id from the section's flow
// graph, the default folder set used by merge.Engine's Merge and Preview
// when no folders are given.
func DeriveMergeSet(graph model.FlowGraph) []string {
	var ids []string
	for _, n := range graph.Nodes {
		if n.IsStart() {
			continue
		}
		ids = append(ids, n.ID)
	}
	return ids
}
