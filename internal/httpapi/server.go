// Package httpapi is the HTTP + WebSocket API surface: comparison,
// merge, test-runner, report-generation and capture-preview endpoints
// over a single project tree, built on a chi router with CORS
// middleware, shared writeJSON/writeError helpers, a request-logging
// ServeHTTP wrapper, and swaggo-generated API docs.
package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/webdiffengine/internal/compare"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/merge"
	"github.com/raysh454/webdiffengine/internal/report"
	"github.com/raysh454/webdiffengine/internal/storage"
	"github.com/raysh454/webdiffengine/internal/testrunner"
)

// Config wires an already-constructed set of engines into a Server.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string

	Storage    *storage.Gateway
	Compare    *compare.Engine
	Merge      *merge.Engine
	TestRunner *testrunner.Runner
	Report     *report.Generator

	// Logger is used for request logging and handler warnings. If nil, a
	// no-op test logger is used.
	Logger interfaces.Logger
}

// Server is the HTTP API surface for the web diff engine.
type Server struct {
	cfg      Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   interfaces.Logger
}

// NewServer builds a Server from already-constructed engines.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = interfaces.NewTestLogger(false)
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		router: r,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/api/compare/{project}/{s1}/{s2}", s.optionsHandler("GET"))
	r.Options("/api/compare/{project}/page", s.optionsHandler("GET"))
	r.Options("/api/merge/{project}", s.optionsHandler("POST"))
	r.Options("/api/merge/{project}/preview", s.optionsHandler("POST"))
	r.Options("/api/test-runner/run", s.optionsHandler("POST"))
	r.Options("/api/test-runner/{project}/results", s.optionsHandler("GET"))
	r.Options("/api/test-runner/{project}/statistics", s.optionsHandler("GET"))
	r.Options("/api/test-runner/{project}/results/{id}", s.optionsHandler("GET, DELETE"))
	r.Options("/api/reports/{project}/generate", s.optionsHandler("POST"))
	r.Options("/api/reports/{project}", s.optionsHandler("GET"))
	r.Options("/api/reports/{project}/{id}/download", s.optionsHandler("GET"))
	r.Options("/api/reports/{project}/{id}", s.optionsHandler("DELETE"))
	r.Options("/api/capture/preview/{project}/{section}/*", s.optionsHandler("GET"))
	r.Options("/ws/projects/{project}/test-runner/run-all", s.optionsHandler("GET"))

	// Compare
	r.Get("/api/compare/{project}/{s1}/{s2}", s.handleCompareSections)
	r.Get("/api/compare/{project}/page", s.handleComparePage)

	// Merge
	r.Post("/api/merge/{project}", s.handleMerge)
	r.Post("/api/merge/{project}/preview", s.handleMergePreview)

	// Test runner
	r.Post("/api/test-runner/run", s.handleTestRunnerRun)
	r.Get("/api/test-runner/{project}/results", s.handleTestRunnerResults)
	r.Get("/api/test-runner/{project}/statistics", s.handleTestRunnerStatistics)
	r.Get("/api/test-runner/{project}/results/{id}", s.handleTestRunnerGetResult)
	r.Delete("/api/test-runner/{project}/results/{id}", s.handleTestRunnerDeleteResult)

	// Reports
	r.Post("/api/reports/{project}/generate", s.handleReportGenerate)
	r.Get("/api/reports/{project}", s.handleReportList)
	r.Get("/api/reports/{project}/{id}/download", s.handleReportDownload)
	r.Delete("/api/reports/{project}/{id}", s.handleReportDelete)

	// Capture preview
	r.Get("/api/capture/preview/{project}/{section}/*", s.handleCapturePreview)

	// Batch test-runner progress stream
	r.Get("/ws/projects/{project}/test-runner/run-all", s.handleRunAllWS)

	// Swagger UI, generated from the annotations in swagger.go.
	r.Get("/swagger/*", swaggerHandler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler, logging every request before
// delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []interfaces.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, interfaces.Field{Key: "query", Value: q})
	}
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, interfaces.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}
	s.logger.Info("http_request", fields...)
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming downloads and websocket upgrades
	}
}

// Close releases the engines' own cached resources (index accelerators).
func (s *Server) Close() error {
	var first error
	if s.cfg.TestRunner != nil {
		if err := s.cfg.TestRunner.Close(); err != nil && first == nil {
			first = err
		}
	}
	if s.cfg.Report != nil {
		if err := s.cfg.Report.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
