package model

import "time"

// Thresholds holds the pass bars for each scoring axis.
type Thresholds struct {
	DOM    float64 `json:"dom"`
	API    float64 `json:"api"`
	Visual float64 `json:"visual"`
}

// DefaultThresholds matches the stated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{DOM: 95, API: 100, Visual: 90}
}

// ScreenScore is one screen's contribution to a TestResult.
type ScreenScore struct {
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	DOMScore     float64 `json:"domScore"`
	APIScore     float64 `json:"apiScore"`
	VisualScore  float64 `json:"visualScore"`
	OverallScore float64 `json:"overallScore"`
	Passed       bool    `json:"passed"`
	Note         string  `json:"note,omitempty"`
}

// TestResult is a persisted regression-test outcome.
type TestResult struct {
	ID              string        `json:"id"`
	SectionTS       string        `json:"sectionTimestamp"`
	SectionName     string        `json:"sectionName,omitempty"`
	Passed          bool          `json:"passed"`
	DOMScore        float64       `json:"domScore"`
	APIScore        float64       `json:"apiScore"`
	VisualScore     float64       `json:"visualScore"`
	OverallScore    float64       `json:"overallScore"`
	Thresholds      Thresholds    `json:"thresholds"`
	Screens         []ScreenScore `json:"screens"`
	CreatedAt       time.Time     `json:"createdAt"`
	DOMDiffSummary  string        `json:"domDiff,omitempty"`
	APIDiffSummary  string        `json:"apiDiff,omitempty"`
	VisualDiffNote  string        `json:"visualDiff,omitempty"`
}

// Statistics is the folded history summary.
type Statistics struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}
