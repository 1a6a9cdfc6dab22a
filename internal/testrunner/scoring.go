// Package testrunner scores a section against main, applies pass
// thresholds, and persists the run's history using transactional
// scoring persistence with configurable axis weighting.
package testrunner

import (
	"github.com/raysh454/webdiffengine/internal/apidiff"
	"github.com/raysh454/webdiffengine/internal/compare"
	"github.com/raysh454/webdiffengine/internal/model"
)

// Weights configures the OverallScore weighted average, defaulting to
// equal thirds. An explicit, defaultable struct rather than a hardcoded
// 1/3 split, so callers wanting e.g. DOM-heavy weighting can supply one
// without touching scoring code.
type Weights struct {
	DOM    float64
	API    float64
	Visual float64
}

// DefaultWeights gives every axis equal weight.
func DefaultWeights() Weights {
	return Weights{DOM: 1, API: 1, Visual: 1}
}

// Overall computes the weighted average of the three axis scores.
func (w Weights) Overall(dom, api, visual float64) float64 {
	total := w.DOM + w.API + w.Visual
	if total == 0 {
		return (dom + api + visual) / 3
	}
	return (dom*w.DOM + api*w.API + visual*w.Visual) / total
}

// domScore computes the DOM similarity: 100 minus the percentage of
// main's elements that changed, floored at 0.
func domScore(changed, totalMain int) float64 {
	if totalMain == 0 {
		return 100
	}
	score := 100 - (float64(changed)/float64(totalMain))*100
	if score < 0 {
		return 0
	}
	return score
}

// apiScore computes the endpoint-match percentage; 100 when main has
// no recorded API calls.
func apiScore(matched, totalMain int) float64 {
	if totalMain == 0 {
		return 100
	}
	score := 100 * float64(matched) / float64(totalMain)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// endpointRegressed reports whether a paired endpoint's status or body
// changed on either side — e.g. GET /api/users returning 200 in main
// and 500 in the section — so it counts against the match percentage
// even though the endpoint itself is still present on both sides.
func endpointRegressed(ep apidiff.EndpointDiff) bool {
	for _, pr := range ep.Pairs {
		if pr.StatusChanged || pr.RequestBodyChanged || pr.ResponseBodyChanged {
			return true
		}
	}
	return false
}

// countChangedElements sums the six DOM diff bags that represent an
// actual element-level change (added/removed/modified/position/color/
// style all count as "changed" for the similarity formula).
func countChangedElements(d *domdiffCounts) int {
	if d == nil {
		return 0
	}
	return d.added + d.removed + d.modified + d.positionChanged + d.colorChanged + d.styleChanged
}

type domdiffCounts struct {
	added, removed, modified, positionChanged, colorChanged, styleChanged int
}

// scoreScreen derives DOM/API/visual scores for one screen pair from a
// deep PageDiff, plus the main-side element/endpoint totals needed as
// denominators.
func scoreScreen(pd *compare.PageDiff, totalElementsMain, totalEndpointsMain int, thresholds model.Thresholds, weights Weights) model.ScreenScore {
	var dc domdiffCounts
	if pd != nil && pd.DOM != nil {
		dc = domdiffCounts{
			added:           len(pd.DOM.Added),
			removed:         len(pd.DOM.Removed),
			modified:        len(pd.DOM.Modified),
			positionChanged: len(pd.DOM.PositionChanged),
			colorChanged:    len(pd.DOM.ColorChanged),
			styleChanged:    len(pd.DOM.StyleChanged),
		}
	}
	dScore := domScore(countChangedElements(&dc), totalElementsMain)

	matched := totalEndpointsMain
	if pd != nil && pd.API != nil {
		for _, ep := range pd.API.Endpoints {
			if ep.Removed || endpointRegressed(ep) {
				matched--
			}
		}
	}
	if matched < 0 {
		matched = 0
	}
	aScore := apiScore(matched, totalEndpointsMain)

	vScore := 100.0 // visual scoring is optional and externally supplied; absent defaults to 100.

	overall := weights.Overall(dScore, aScore, vScore)
	passed := dScore >= thresholds.DOM && aScore >= thresholds.API && vScore >= thresholds.Visual

	return model.ScreenScore{
		DOMScore:     dScore,
		APIScore:     aScore,
		VisualScore:  vScore,
		OverallScore: overall,
		Passed:       passed,
	}
}
