package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/webdiffengine/internal/apierr"
	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
)

// handleCapturePreview implements
// GET /api/capture/preview/:project/:section/:screenPath. It serves the
// screen's best-available preview artefact: the legacy screenshot if
// present, else a redirect to the screen's live URL from meta.json, else
// 404 — there is no canonical "preview image" artefact family, only a
// screenshot under the legacy UI/ subtree.
//
// @Summary      Preview a screen's best-available artefact
// @Tags         capture
// @Param        project path string true "Project name"
// @Param        section path string true "Section timestamp"
// @Param        screenPath path string true "Screen path within the section"
// @Success      200 {file} binary
// @Success      302 "redirect to the screen's live URL"
// @Router       /api/capture/preview/{project}/{section}/{screenPath} [get]
func (s *Server) handleCapturePreview(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	section := chi.URLParam(r, "section")
	screenPath := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if screenPath == "" {
		writeError(w, http.StatusBadRequest, "missing screen path")
		return
	}

	sectionPath, err := s.cfg.Storage.SectionPath(project, section)
	if err != nil {
		writeAPIError(w, apierr.Invalid("httpapi.handleCapturePreview", err))
		return
	}
	screenDir := filepath.Join(sectionPath, filepath.FromSlash(screenPath))
	if !strings.HasPrefix(screenDir, filepath.Clean(sectionPath)+string(filepath.Separator)) {
		writeError(w, http.StatusBadRequest, "invalid screen path")
		return
	}

	if shot := filepath.Join(screenDir, "UI", "screenshot.jpg"); fileExists(shot) {
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, shot)
		return
	}

	if url := screenLiveURL(screenDir); url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	writeError(w, http.StatusNotFound, "no preview available for this screen")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func screenLiveURL(screenDir string) string {
	for _, name := range []string{"meta.json", "metadata.json"} {
		var meta model.ScreenMeta
		if err := storage.ReadJSON(filepath.Join(screenDir, name), &meta); err == nil && meta.URL != "" {
			return meta.URL
		}
	}
	return ""
}
