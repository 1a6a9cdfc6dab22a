package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/report"
)

type reportGenerateRequestBody struct {
	Type          model.ReportType   `json:"type"`
	Section1      string             `json:"section1,omitempty"`
	Section2      string             `json:"section2,omitempty"`
	Format        model.ReportFormat `json:"format"`
	IncludeCharts bool               `json:"includeCharts,omitempty"`
}

type reportGenerateResponse struct {
	ReportID string `json:"reportId"`
	HTMLPath string `json:"htmlPath"`
	PDFPath  string `json:"pdfPath,omitempty"`
}

// handleReportGenerate implements POST /api/reports/:project/generate.
//
// IncludeCharts is accepted for forward compatibility with the UI but
// every report type already embeds its Chart.js config unconditionally;
// there is no reduced-chart rendering path to opt out of.
//
// @Summary      Generate a report
// @Tags         reports
// @Param        project path string true "Project name"
// @Param        body body reportGenerateRequestBody true "Report request"
// @Success      200 {object} reportGenerateResponse
// @Router       /api/reports/{project}/generate [post]
func (s *Server) handleReportGenerate(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	var body reportGenerateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Format == "" {
		body.Format = model.FormatHTML
	}

	record, err := s.cfg.Report.Generate(r.Context(), project, report.Request{
		Type: body.Type, Format: body.Format, Section1: body.Section1, Section2: body.Section2,
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}

	resp := reportGenerateResponse{ReportID: record.ID, HTMLPath: record.HTMLFile}
	if record.PDFFile != "" {
		resp.PDFPath = record.PDFFile
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReportList implements GET /api/reports/:project.
//
// @Summary      List a project's reports
// @Tags         reports
// @Param        project path string true "Project name"
// @Param        type query string false "Filter by report type"
// @Param        page query int false "Page number (1-based)"
// @Param        limit query int false "Page size"
// @Success      200 {array} model.ReportRecord
// @Router       /api/reports/{project} [get]
func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	reportType := r.URL.Query().Get("type")
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20
	}

	records, err := s.cfg.Report.List(project, reportType, (page-1)*limit, limit)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleReportDownload implements GET /api/reports/:project/:id/download,
// streaming the report's HTML artefact (or its PDF, when ?format=pdf is
// given and one was generated).
//
// @Summary      Download a report artefact
// @Tags         reports
// @Param        project path string true "Project name"
// @Param        id path string true "Report id"
// @Param        format query string false "html (default) or pdf"
// @Success      200 {file} binary
// @Router       /api/reports/{project}/{id}/download [get]
func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	id := chi.URLParam(r, "id")

	record, err := s.cfg.Report.Get(project, id)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	filename := record.HTMLFile
	contentType := "text/html; charset=utf-8"
	if r.URL.Query().Get("format") == "pdf" {
		if record.PDFFile == "" {
			writeError(w, http.StatusNotFound, "report has no pdf artefact")
			return
		}
		filename = record.PDFFile
		contentType = "application/pdf"
	}

	path, err := s.cfg.Report.ArtefactPath(project, filename)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "report artefact not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "inline; filename=\""+filename+"\"")
	_, _ = io.Copy(w, f)
}

// handleReportDelete implements DELETE /api/reports/:project/:id.
//
// @Summary      Delete a report record and its artefacts
// @Tags         reports
// @Param        project path string true "Project name"
// @Param        id path string true "Report id"
// @Success      204
// @Router       /api/reports/{project}/{id} [delete]
func (s *Server) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	id := chi.URLParam(r, "id")

	if err := s.cfg.Report.Delete(project, id); err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
