package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/raysh454/webdiffengine/internal/apidiff"
	"github.com/raysh454/webdiffengine/internal/apierr"
	"github.com/raysh454/webdiffengine/internal/compare"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/storage"
)

// buildTestRun gathers a single section's own details — screen count,
// API call count, on-disk size — and, when main exists, folds in a
// comparison summary against it.
func (g *Generator) buildTestRun(ctx context.Context, project, sectionTS string) (page, error) {
	if sectionTS == "" {
		return page{}, apierr.Invalid("report.buildTestRun", fmt.Errorf("test-run report requires a section timestamp in section1"))
	}
	sectionPath, err := g.Storage.SectionPath(project, sectionTS)
	if err != nil {
		return page{}, apierr.Invalid("report.buildTestRun", err)
	}
	if !storage.IsDir(sectionPath) {
		return page{}, apierr.NotFound("report.buildTestRun", fmt.Errorf("section %q not found", sectionTS))
	}

	screens, err := compare.EnumerateScreens(sectionPath)
	if err != nil {
		return page{}, apierr.New(apierr.KindTransient, "report.buildTestRun", err)
	}
	apiCount := sectionAPICount(screens)
	size, err := storage.DirSize(sectionPath)
	if err != nil {
		return page{}, apierr.New(apierr.KindTransient, "report.buildTestRun", err)
	}

	summary := []kv{
		{Key: "Section", Value: sectionTS},
		{Key: "Screens", Value: fmt.Sprintf("%d", len(screens))},
		{Key: "API calls", Value: fmt.Sprintf("%d", apiCount)},
		{Key: "Size", Value: humanize.Bytes(uint64(size))},
	}

	chart := map[string]any{
		"type": "bar",
		"data": map[string]any{
			"labels": []string{"Screens", "API calls"},
			"datasets": []map[string]any{{
				"label":           "Section contents",
				"data":            []int{len(screens), apiCount},
				"backgroundColor": []string{"#3d7de8", "#4c9f70"},
			}},
		},
	}

	sections := []tableSection{screenTable(screens)}

	mainPath, err := g.Storage.MainPath(project)
	if err == nil && storage.IsDir(mainPath) {
		cmp, err := g.Compare.CompareSections(ctx, project, "main", sectionTS)
		if err == nil {
			summary = append(summary,
				kv{Key: "Matched vs main", Value: fmt.Sprintf("%d", cmp.Summary.Matched)},
				kv{Key: "Changed vs main", Value: fmt.Sprintf("%d", cmp.Summary.Changed)},
			)
			rows := make([][]string, 0, len(cmp.Items))
			for _, item := range cmp.Items {
				note := ""
				if item.Diff != nil {
					note = item.Diff.Summary
				}
				rows = append(rows, []string{item.Path, string(item.Status), item.Identity, note})
			}
			sections = append(sections, tableSection{
				Title:   "Comparison against main",
				Headers: []string{"Path", "Status", "Identity", "Notes"},
				Rows:    rows,
			})
		} else if g.Logger != nil {
			g.Logger.Warn("test-run report: comparison against main failed, continuing without it", interfaces.Field{Key: "error", Value: err})
		}
	}

	return page{
		Title:           "Test Run Report",
		Subtitle:        sectionTS,
		ChartConfigJSON: chartJSON(chart),
		Summary:         summary,
		Sections:        sections,
	}, nil
}

// screenTable lists every screen in the section with its identity and
// artefact mix, for the test-run report's "Screens" section.
func screenTable(screens []compare.ScreenEntry) tableSection {
	rows := make([][]string, 0, len(screens))
	for _, s := range screens {
		rows = append(rows, []string{s.Path, s.Identity, yesNo(s.HasUI), yesNo(s.HasAPI)})
	}
	return tableSection{
		Title:   "Screens",
		Headers: []string{"Path", "Identity", "UI", "API"},
		Rows:    rows,
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// sectionAPICount sums the recorded API calls across every screen's
// apis.json in the section, mirroring the Compare Engine's own loader.
func sectionAPICount(screens []compare.ScreenEntry) int {
	total := 0
	for _, s := range screens {
		if !s.HasAPI {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.AbsPath, "apis.json"))
		if err != nil {
			continue
		}
		calls, err := apidiff.NormalizeCalls(data)
		if err != nil {
			continue
		}
		total += len(calls)
	}
	return total
}
