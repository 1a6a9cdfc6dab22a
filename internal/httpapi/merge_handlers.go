package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/merge"
)

type mergeRequestBody struct {
	SectionTimestamp string   `json:"sectionTimestamp"`
	Folders          []string `json:"folders"`
	DeleteAfter      bool     `json:"deleteAfter,omitempty"`
}

// previewEntryView adds humanized size strings to merge.PreviewEntry for
// display in the merge-review UI, alongside the raw byte counts.
type previewEntryView struct {
	merge.PreviewEntry
	SourceSizeHuman string `json:"sourceSizeHuman"`
	DestSizeHuman   string `json:"destSizeHuman,omitempty"`
}

// handleMerge implements POST /api/merge/:project.
//
// @Summary      Merge section folders into main
// @Tags         merge
// @Param        project path string true "Project name"
// @Param        body body mergeRequestBody true "Merge request"
// @Success      200 {object} merge.Result
// @Router       /api/merge/{project} [post]
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	var body mergeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := s.cfg.Merge.Merge(r.Context(), project, body.SectionTimestamp, body.Folders, body.DeleteAfter)
	if err != nil {
		s.logger.Warn("merging section", interfaces.Field{Key: "project", Value: project}, interfaces.Field{Key: "error", Value: err})
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMergePreview implements POST /api/merge/:project/preview.
//
// @Summary      Preview a merge without touching the filesystem
// @Tags         merge
// @Param        project path string true "Project name"
// @Param        body body mergeRequestBody true "Merge request"
// @Success      200 {array} previewEntryView
// @Router       /api/merge/{project}/preview [post]
func (s *Server) handleMergePreview(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	var body mergeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	entries, err := s.cfg.Merge.Preview(r.Context(), project, body.SectionTimestamp, body.Folders)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	views := make([]previewEntryView, len(entries))
	for i, e := range entries {
		views[i] = previewEntryView{PreviewEntry: e, SourceSizeHuman: humanize.Bytes(uint64(e.SourceSize))}
		if e.DestSize > 0 {
			views[i].DestSizeHuman = humanize.Bytes(uint64(e.DestSize))
		}
	}
	writeJSON(w, http.StatusOK, views)
}
