package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/testrunner"
)

// handleRunAllWS implements GET /ws/projects/:project/test-runner/run-all,
// streaming one JSON frame per scored section (or failure), finishing
// with a {"done":true} frame, using an upgrade-then-drain-events pattern.
//
// @Summary      Stream batch test-runner progress
// @Tags         test-runner
// @Param        project path string true "Project name"
// @Success      101 "switching protocols"
// @Router       /ws/projects/{project}/test-runner/run-all [get]
func (s *Server) handleRunAllWS(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", interfaces.Field{Key: "error", Value: err})
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	onEvent := func(ev testrunner.ProgressEvent) {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Warn("writing run-all progress frame", interfaces.Field{Key: "error", Value: err})
		}
		if ev.Done {
			close(done)
		}
	}

	go func() {
		if _, err := s.cfg.TestRunner.RunAllStream(r.Context(), project, onEvent); err != nil {
			_ = conn.WriteJSON(map[string]string{"error": err.Error()})
			close(done)
		}
	}()
	<-done
}
