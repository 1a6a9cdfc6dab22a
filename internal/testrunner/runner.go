package testrunner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/webdiffengine/internal/apierr"
	"github.com/raysh454/webdiffengine/internal/compare"
	"github.com/raysh454/webdiffengine/internal/index"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
)

// Runner scores sections against main and persists history via the
// storage gateway. List/Statistics/Get/Delete are served through a
// per-project internal/index accelerator rather than scanning
// tests/results.json directly.
type Runner struct {
	Storage *storage.Gateway
	Compare *compare.Engine
	Weights Weights
	Logger  interfaces.Logger

	nowFunc func() time.Time

	idxMu sync.Mutex
	idx   map[string]*index.Accelerator
}

// New constructs a Runner over the given gateway and compare engine.
func New(gw *storage.Gateway, engine *compare.Engine, logger interfaces.Logger) *Runner {
	return &Runner{
		Storage: gw, Compare: engine, Weights: DefaultWeights(), Logger: logger, nowFunc: time.Now,
		idx: make(map[string]*index.Accelerator),
	}
}

// accelerator lazily opens (and caches) the index.Accelerator for project.
func (r *Runner) accelerator(project string) (*index.Accelerator, error) {
	r.idxMu.Lock()
	defer r.idxMu.Unlock()
	if acc, ok := r.idx[project]; ok {
		return acc, nil
	}
	acc, err := index.Open(r.Storage, project)
	if err != nil {
		return nil, apierr.New(apierr.KindTransient, "testrunner.accelerator", err)
	}
	r.idx[project] = acc
	return acc, nil
}

func (r *Runner) now() time.Time {
	if r.nowFunc != nil {
		return r.nowFunc()
	}
	return time.Now()
}

// Run scores sectionTS against main and persists the result.
func (r *Runner) Run(ctx context.Context, project, sectionTS string, thresholds model.Thresholds) (*model.TestResult, error) {
	cmp, err := r.Compare.CompareSections(ctx, project, "main", sectionTS)
	if err != nil {
		return nil, err
	}

	result := &model.TestResult{
		ID:          uuid.NewString(),
		SectionTS:   sectionTS,
		SectionName: sectionTS,
		Thresholds:  thresholds,
		CreatedAt:   r.now(),
	}

	var domSum, apiSum, visSum, overallSum float64
	included := 0

	for _, item := range cmp.Items {
		if item.Status != compare.StatusChanged && item.Status != compare.StatusUnchanged {
			continue // only screens present in both main and the target section are scored
		}

		screen := r.scoreItem(ctx, project, sectionTS, item, thresholds)
		result.Screens = append(result.Screens, screen)
		domSum += screen.DOMScore
		apiSum += screen.APIScore
		visSum += screen.VisualScore
		overallSum += screen.OverallScore
		included++
	}

	if included > 0 {
		result.DOMScore = domSum / float64(included)
		result.APIScore = apiSum / float64(included)
		result.VisualScore = visSum / float64(included)
		result.OverallScore = overallSum / float64(included)
	} else {
		result.DOMScore, result.APIScore, result.VisualScore, result.OverallScore = 100, 100, 100, 100
	}

	result.Passed = allScreensPassed(result.Screens)

	if err := r.persist(project, result); err != nil {
		return nil, apierr.New(apierr.KindTransient, "testrunner.Run", err)
	}
	return result, nil
}

func allScreensPassed(screens []model.ScreenScore) bool {
	for _, s := range screens {
		if !s.Passed {
			return false
		}
	}
	return true
}

// scoreItem runs the deep differ for one screen pair and folds the
// result into a ScreenScore. A screen that cannot be read contributes
// passed:false, score 0, and an explanatory note rather than aborting
// the run.
func (r *Runner) scoreItem(ctx context.Context, project, sectionTS string, item compare.Item, thresholds model.Thresholds) model.ScreenScore {
	pd, err := r.Compare.ComparePage(ctx, project, "main", sectionTS, item.Path, item.Path)
	if err != nil {
		return model.ScreenScore{
			Name:   filepath.Base(item.Path),
			Path:   item.Path,
			Passed: false,
			Note:   fmt.Sprintf("screen unreadable: %v", err),
		}
	}

	totalElementsMain := 0
	if pd.DOM != nil {
		totalElementsMain = len(pd.DOM.Added) + len(pd.DOM.Modified) + len(pd.DOM.PositionChanged) +
			len(pd.DOM.ColorChanged) + len(pd.DOM.StyleChanged)
		if totalElementsMain == 0 {
			totalElementsMain = 1 // an unchanged screen still has elements; avoid a false divide-by-zero 100%.
		}
	}
	totalEndpointsMain := 0
	if pd.API != nil {
		totalEndpointsMain = len(pd.API.Endpoints)
	}

	score := scoreScreen(pd, totalElementsMain, totalEndpointsMain, thresholds, r.Weights)
	score.Name = filepath.Base(item.Path)
	score.Path = item.Path
	return score
}

// RunAll batch-scores every non-replay section sequentially, to keep
// resource use bounded.
func (r *Runner) RunAll(ctx context.Context, project string) ([]*model.TestResult, error) {
	sectionsDir, err := r.Storage.SectionsDir(project)
	if err != nil {
		return nil, apierr.Invalid("testrunner.RunAll", err)
	}
	names, err := listSectionNames(sectionsDir)
	if err != nil {
		return nil, apierr.New(apierr.KindTransient, "testrunner.RunAll", err)
	}

	var results []*model.TestResult
	for _, name := range names {
		if strings.HasSuffix(name, "_replay") {
			continue
		}
		res, err := r.Run(ctx, project, name, model.DefaultThresholds())
		if err != nil {
			if r.Logger != nil {
				r.Logger.Warn("test run failed, continuing batch", interfaces.Field{Key: "section", Value: name}, interfaces.Field{Key: "error", Value: err})
			}
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// ProgressEvent is one frame of a RunAllStream progress feed.
type ProgressEvent struct {
	Section string           `json:"section"`
	Result  *model.TestResult `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
	Done    bool             `json:"done"`
}

// RunAllStream batch-scores every non-replay section sequentially like
// RunAll, but invokes onEvent after each section so a caller (the
// websocket handler) can stream progress instead of waiting for the
// whole batch.
func (r *Runner) RunAllStream(ctx context.Context, project string, onEvent func(ProgressEvent)) ([]*model.TestResult, error) {
	sectionsDir, err := r.Storage.SectionsDir(project)
	if err != nil {
		return nil, apierr.Invalid("testrunner.RunAllStream", err)
	}
	names, err := listSectionNames(sectionsDir)
	if err != nil {
		return nil, apierr.New(apierr.KindTransient, "testrunner.RunAllStream", err)
	}

	var results []*model.TestResult
	for _, name := range names {
		if strings.HasSuffix(name, "_replay") {
			continue
		}
		res, err := r.Run(ctx, project, name, model.DefaultThresholds())
		if err != nil {
			if r.Logger != nil {
				r.Logger.Warn("test run failed, continuing batch", interfaces.Field{Key: "section", Value: name}, interfaces.Field{Key: "error", Value: err})
			}
			if onEvent != nil {
				onEvent(ProgressEvent{Section: name, Error: err.Error()})
			}
			continue
		}
		results = append(results, res)
		if onEvent != nil {
			onEvent(ProgressEvent{Section: name, Result: res})
		}
	}
	if onEvent != nil {
		onEvent(ProgressEvent{Done: true})
	}
	return results, nil
}

func (r *Runner) persist(project string, result *model.TestResult) error {
	path, err := r.Storage.TestsIndexPath(project)
	if err != nil {
		return err
	}
	var results []model.TestResult
	_ = storage.ReadJSON(path, &results) // absent file is fine; treat as empty.
	results = append(results, *result)
	return storage.WriteJSON(path, results)
}

// List returns a page of test results, most recent first, via the
// project's index accelerator.
func (r *Runner) List(project string, offset, limit int) ([]model.TestResult, error) {
	acc, err := r.accelerator(project)
	if err != nil {
		return nil, err
	}
	return acc.ListTestResults(context.Background(), offset, limit)
}

// Statistics summarises the full history.
func (r *Runner) Statistics(project string) (model.Statistics, error) {
	acc, err := r.accelerator(project)
	if err != nil {
		return model.Statistics{}, err
	}
	return acc.Statistics(context.Background())
}

// Get fetches a single result by id.
func (r *Runner) Get(project, id string) (*model.TestResult, error) {
	acc, err := r.accelerator(project)
	if err != nil {
		return nil, err
	}
	res, err := acc.GetTestResult(context.Background(), id)
	if err != nil {
		if err == index.ErrTestResultNotFound {
			return nil, apierr.NotFound("testrunner.Get", err)
		}
		return nil, apierr.New(apierr.KindTransient, "testrunner.Get", err)
	}
	return res, nil
}

// Delete removes a result by id, from both tests/results.json and the
// index.
func (r *Runner) Delete(project, id string) error {
	acc, err := r.accelerator(project)
	if err != nil {
		return err
	}
	if err := acc.DeleteTestResult(context.Background(), id); err != nil {
		if err == index.ErrTestResultNotFound {
			return apierr.NotFound("testrunner.Delete", err)
		}
		return apierr.New(apierr.KindTransient, "testrunner.Delete", err)
	}
	return nil
}

// Close releases every cached index accelerator.
func (r *Runner) Close() error {
	r.idxMu.Lock()
	defer r.idxMu.Unlock()
	var first error
	for _, acc := range r.idx {
		if err := acc.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func listSectionNames(sectionsDir string) ([]string, error) {
	entries, err := os.ReadDir(sectionsDir)
	if err != nil {
		return nil, nil // sections dir absent means nothing to run; not an error.
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
