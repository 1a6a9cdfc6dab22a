package report

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/raysh454/webdiffengine/internal/apierr"
	"github.com/raysh454/webdiffengine/internal/compare"
)

const (
	healthMaxSections = 30
	healthMaxPairs    = 10
	healthTopScreens  = 10
)

// buildProjectHealth implements the hotspot analysis: over the most
// recent sections, diff each adjacent pair and rank screens by how often
// they showed up changed.
func (g *Generator) buildProjectHealth(ctx context.Context, project string) (page, error) {
	sectionsDir, err := g.Storage.SectionsDir(project)
	if err != nil {
		return page{}, apierr.Invalid("report.buildProjectHealth", err)
	}
	names, err := listSectionNamesChronological(sectionsDir)
	if err != nil {
		return page{}, apierr.New(apierr.KindTransient, "report.buildProjectHealth", err)
	}
	if len(names) > healthMaxSections {
		names = names[len(names)-healthMaxSections:]
	}

	type pairTrend struct {
		From, To string
		Changed  int
		Total    int
	}
	var trends []pairTrend
	hotspot := make(map[string]int)

	pairsStart := 0
	if len(names) > healthMaxPairs+1 {
		pairsStart = len(names) - (healthMaxPairs + 1)
	}
	recent := names[pairsStart:]

	for i := 0; i+1 < len(recent); i++ {
		from, to := recent[i], recent[i+1]
		result, err := g.Compare.CompareSections(ctx, project, from, to)
		if err != nil {
			continue // a single bad pair (e.g. malformed section) should not sink the whole report.
		}
		changed := 0
		for _, item := range result.Items {
			if item.Status == compare.StatusChanged {
				changed++
				hotspot[item.Path]++
			}
		}
		trends = append(trends, pairTrend{From: from, To: to, Changed: changed, Total: len(result.Items)})
	}

	type screenCount struct {
		Path  string
		Count int
	}
	counts := make([]screenCount, 0, len(hotspot))
	for path, n := range hotspot {
		counts = append(counts, screenCount{Path: path, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Path < counts[j].Path
	})
	if len(counts) > healthTopScreens {
		counts = counts[:healthTopScreens]
	}

	labels := make([]string, len(trends))
	data := make([]int, len(trends))
	for i, t := range trends {
		labels[i] = t.To
		data[i] = t.Changed
	}
	chart := map[string]any{
		"type": "line",
		"data": map[string]any{
			"labels": labels,
			"datasets": []map[string]any{{
				"label":           "Screens changed",
				"data":            data,
				"borderColor":     "#e8a33d",
				"backgroundColor": "#e8a33d",
				"tension":         0.2,
			}},
		},
	}

	trendRows := make([][]string, 0, len(trends))
	for _, t := range trends {
		trendRows = append(trendRows, []string{t.From, t.To, fmt.Sprintf("%d", t.Changed), fmt.Sprintf("%d", t.Total)})
	}
	hotspotRows := make([][]string, 0, len(counts))
	for _, c := range counts {
		hotspotRows = append(hotspotRows, []string{c.Path, fmt.Sprintf("%d", c.Count)})
	}

	return page{
		Title:           "Project Health Report",
		Subtitle:        fmt.Sprintf("%d sections analysed, %d adjacent pairs", len(names), len(trends)),
		ChartConfigJSON: chartJSON(chart),
		Summary: []kv{
			{Key: "Sections considered", Value: fmt.Sprintf("%d", len(names))},
			{Key: "Adjacent pairs", Value: fmt.Sprintf("%d", len(trends))},
			{Key: "Hotspot screens", Value: fmt.Sprintf("%d", len(counts))},
		},
		Sections: []tableSection{
			{Title: "Change trend", Headers: []string{"From", "To", "Changed", "Total"}, Rows: trendRows},
			{Title: "Hotspot screens", Headers: []string{"Path", "Times changed"}, Rows: hotspotRows},
		},
	}, nil
}

// listSectionNamesChronological lists section directories in ascending
// timestamp order; section names are lexically sortable ISO-8601-ish
// strings, so a plain string sort gives chronological order.
func listSectionNamesChronological(sectionsDir string) ([]string, error) {
	entries, err := os.ReadDir(sectionsDir)
	if err != nil {
		return nil, nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasSuffix(e.Name(), "_replay") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
