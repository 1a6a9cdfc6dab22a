package report

import (
	"context"
	"fmt"

	"github.com/raysh454/webdiffengine/internal/apierr"
)

// buildComparison renders the CompareSections result as a status
// breakdown chart plus a per-screen table.
func (g *Generator) buildComparison(ctx context.Context, project, s1, s2 string) (page, error) {
	if s1 == "" || s2 == "" {
		return page{}, apierr.Invalid("report.buildComparison", fmt.Errorf("comparison report requires section1 and section2"))
	}
	result, err := g.Compare.CompareSections(ctx, project, s1, s2)
	if err != nil {
		return page{}, err
	}

	chart := map[string]any{
		"type": "bar",
		"data": map[string]any{
			"labels": []string{"Changed", "Added", "Removed", "Unchanged"},
			"datasets": []map[string]any{{
				"label":           "Screens",
				"data":            []int{result.Summary.Changed, result.Summary.Added, result.Summary.Removed, result.Summary.Unchanged},
				"backgroundColor": []string{"#e8a33d", "#4c9f70", "#d1473f", "#8a8a8a"},
			}},
		},
		"options": map[string]any{"plugins": map[string]any{"legend": map[string]any{"display": false}}},
	}

	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		note := ""
		if item.Diff != nil {
			note = item.Diff.Summary
		}
		rows = append(rows, []string{item.Path, string(item.Status), item.Identity, note})
	}

	return page{
		Title:    "Comparison Report",
		Subtitle: fmt.Sprintf("%s vs %s", s1, s2),
		ChartConfigJSON: chartJSON(chart),
		Summary: []kv{
			{Key: "Total " + s1, Value: fmt.Sprintf("%d", result.Summary.Total1)},
			{Key: "Total " + s2, Value: fmt.Sprintf("%d", result.Summary.Total2)},
			{Key: "Matched", Value: fmt.Sprintf("%d", result.Summary.Matched)},
			{Key: "Changed", Value: fmt.Sprintf("%d", result.Summary.Changed)},
		},
		Sections: []tableSection{{
			Title:   "Screens",
			Headers: []string{"Path", "Status", "Identity", "Notes"},
			Rows:    rows,
		}},
	}, nil
}
