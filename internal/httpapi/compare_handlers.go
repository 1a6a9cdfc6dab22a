package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleCompareSections implements GET /api/compare/:project/:s1/:s2 — a
// shallow, per-screen comparison of two sections.
//
// @Summary      Compare two sections
// @Tags         compare
// @Param        project path string true "Project name"
// @Param        s1 path string true "First section timestamp"
// @Param        s2 path string true "Second section timestamp"
// @Success      200 {object} compare.Result
// @Router       /api/compare/{project}/{s1}/{s2} [get]
func (s *Server) handleCompareSections(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	s1 := chi.URLParam(r, "s1")
	s2 := chi.URLParam(r, "s2")

	result, err := s.cfg.Compare.CompareSections(r.Context(), project, s1, s2)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleComparePage implements GET /api/compare/:project/page?s1&s2&p1&p2
// — a deep DOM/API diff of one screen between two sections.
//
// @Summary      Diff one screen between two sections
// @Tags         compare
// @Param        project path string true "Project name"
// @Param        s1 query string true "First section timestamp"
// @Param        s2 query string true "Second section timestamp"
// @Param        p1 query string true "Screen path within s1"
// @Param        p2 query string true "Screen path within s2"
// @Success      200 {object} compare.PageDiff
// @Router       /api/compare/{project}/page [get]
func (s *Server) handleComparePage(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	q := r.URL.Query()
	s1, s2 := q.Get("s1"), q.Get("s2")
	p1, p2 := q.Get("p1"), q.Get("p2")
	if p1 == "" {
		p1 = p2
	}
	if p2 == "" {
		p2 = p1
	}

	diff, err := s.cfg.Compare.ComparePage(r.Context(), project, s1, s2, p1, p2)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}
