package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/webdiffengine/internal/model"
)

type testRunRequestBody struct {
	ProjectName      string `json:"projectName"`
	SectionTimestamp string `json:"sectionTimestamp"`
	Threshold        *struct {
		DOM    float64 `json:"dom"`
		API    float64 `json:"api"`
		Visual float64 `json:"visual"`
	} `json:"threshold,omitempty"`
}

// handleTestRunnerRun implements POST /api/test-runner/run.
//
// @Summary      Score a section against main and persist the result
// @Tags         test-runner
// @Param        body body testRunRequestBody true "Test run request"
// @Success      200 {object} model.TestResult
// @Router       /api/test-runner/run [post]
func (s *Server) handleTestRunnerRun(w http.ResponseWriter, r *http.Request) {
	var body testRunRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	thresholds := model.DefaultThresholds()
	if body.Threshold != nil {
		thresholds = model.Thresholds{DOM: body.Threshold.DOM, API: body.Threshold.API, Visual: body.Threshold.Visual}
	}

	result, err := s.cfg.TestRunner.Run(r.Context(), body.ProjectName, body.SectionTimestamp, thresholds)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTestRunnerResults implements GET /api/test-runner/:project/results?page&limit.
//
// @Summary      List a project's test-run history, most recent first
// @Tags         test-runner
// @Param        project path string true "Project name"
// @Param        page query int false "Page number (1-based)"
// @Param        limit query int false "Page size"
// @Success      200 {array} model.TestResult
// @Router       /api/test-runner/{project}/results [get]
func (s *Server) handleTestRunnerResults(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	results, err := s.cfg.TestRunner.List(project, offset, limit)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleTestRunnerStatistics implements GET /api/test-runner/:project/statistics.
//
// @Summary      Summarise a project's test-run history
// @Tags         test-runner
// @Param        project path string true "Project name"
// @Success      200 {object} model.Statistics
// @Router       /api/test-runner/{project}/statistics [get]
func (s *Server) handleTestRunnerStatistics(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	stats, err := s.cfg.TestRunner.Statistics(project)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleTestRunnerGetResult implements GET /api/test-runner/:project/results/:id.
//
// @Summary      Fetch one test result
// @Tags         test-runner
// @Param        project path string true "Project name"
// @Param        id path string true "Test result id"
// @Success      200 {object} model.TestResult
// @Router       /api/test-runner/{project}/results/{id} [get]
func (s *Server) handleTestRunnerGetResult(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	id := chi.URLParam(r, "id")
	result, err := s.cfg.TestRunner.Get(project, id)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTestRunnerDeleteResult implements DELETE /api/test-runner/:project/results/:id.
//
// @Summary      Delete one test result
// @Tags         test-runner
// @Param        project path string true "Project name"
// @Param        id path string true "Test result id"
// @Success      204
// @Router       /api/test-runner/{project}/results/{id} [delete]
func (s *Server) handleTestRunnerDeleteResult(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	id := chi.URLParam(r, "id")
	if err := s.cfg.TestRunner.Delete(project, id); err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
