// Package report builds comparison/test-run/project-health reports as
// HTML (and optionally PDF) artefacts under a project's .reports/
// directory. Charts render as a plain JSON configuration consumed by a
// client-side Chart.js include, and PDF rendering drives chromedp
// against a data: URL with page.PrintToPDF. Report persistence runs
// through the internal/index accelerator.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
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

// Request describes a report to build (the report-generation endpoint
// body). For ReportComparison, Section1/Section2 are the two section
// timestamps being compared. For ReportTestRun, Section1 is the single
// section timestamp the report is built from (Section2 is unused).
// ReportProjectHealth ignores both.
type Request struct {
	Type     model.ReportType
	Format   model.ReportFormat
	Section1 string
	Section2 string
}

// Generator builds report artefacts for a project.
type Generator struct {
	Storage *storage.Gateway
	Compare *compare.Engine
	Logger  interfaces.Logger

	nowFunc func() time.Time

	idxMu sync.Mutex
	idx   map[string]*index.Accelerator
}

// New constructs a Generator over the given gateway and compare engine.
func New(gw *storage.Gateway, cmp *compare.Engine, logger interfaces.Logger) *Generator {
	return &Generator{Storage: gw, Compare: cmp, Logger: logger, nowFunc: time.Now, idx: make(map[string]*index.Accelerator)}
}

func (g *Generator) now() time.Time {
	if g.nowFunc != nil {
		return g.nowFunc()
	}
	return time.Now()
}

func (g *Generator) accelerator(project string) (*index.Accelerator, error) {
	g.idxMu.Lock()
	defer g.idxMu.Unlock()
	if acc, ok := g.idx[project]; ok {
		return acc, nil
	}
	acc, err := index.Open(g.Storage, project)
	if err != nil {
		return nil, apierr.New(apierr.KindTransient, "report.accelerator", err)
	}
	g.idx[project] = acc
	return acc, nil
}

// Close releases every cached index accelerator.
func (g *Generator) Close() error {
	g.idxMu.Lock()
	defer g.idxMu.Unlock()
	var first error
	for _, acc := range g.idx {
		if err := acc.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// page is the data handed to report.html.tmpl.
type page struct {
	Title           string
	Generated       string
	Project         string
	Subtitle        string
	ChartConfigJSON template.JS
	Summary         []kv
	Sections        []tableSection
}

type kv struct {
	Key   string
	Value string
}

type tableSection struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Generate runs retention GC, builds the requested report, writes its
// HTML (and PDF, if requested) under .reports/, and appends a
// ReportRecord to .reports/reports.json.
func (g *Generator) Generate(ctx context.Context, project string, req Request) (*model.ReportRecord, error) {
	if err := g.GC(ctx, project); err != nil && g.Logger != nil {
		g.Logger.Warn("report retention GC failed, continuing", interfaces.Field{Key: "project", Value: project}, interfaces.Field{Key: "error", Value: err})
	}

	var (
		p   page
		err error
	)
	switch req.Type {
	case model.ReportComparison:
		p, err = g.buildComparison(ctx, project, req.Section1, req.Section2)
	case model.ReportTestRun:
		p, err = g.buildTestRun(ctx, project, req.Section1)
	case model.ReportProjectHealth:
		p, err = g.buildProjectHealth(ctx, project)
	default:
		return nil, apierr.Invalid("report.Generate", fmt.Errorf("unknown report type %q", req.Type))
	}
	if err != nil {
		return nil, err
	}
	p.Project = project
	p.Generated = g.now().Format(time.RFC3339)

	htmlBytes, err := renderHTML(p)
	if err != nil {
		return nil, apierr.Invalid("report.Generate", err)
	}

	reportsDir, err := g.Storage.ReportsDir(project)
	if err != nil {
		return nil, apierr.Invalid("report.Generate", err)
	}

	id := uuid.NewString()
	htmlFile := "report-" + id + ".html" // on-disk layout: report-<uuid>.html[/.pdf]
	if err := storage.AtomicWriteFile(filepath.Join(reportsDir, htmlFile), htmlBytes, 0o644); err != nil {
		return nil, apierr.New(apierr.KindTransient, "report.Generate", err)
	}

	record := &model.ReportRecord{
		ID:        id,
		Type:      req.Type,
		Format:    req.Format,
		Section1:  req.Section1,
		Section2:  req.Section2,
		CreatedAt: g.now(),
		HTMLFile:  htmlFile,
	}

	if req.Format == model.FormatPDF {
		pdfFile := "report-" + id + ".pdf"
		pdfBytes, err := renderPDF(ctx, htmlBytes)
		if err != nil {
			return nil, apierr.New(apierr.KindTransient, "report.Generate", err)
		}
		if err := storage.AtomicWriteFile(filepath.Join(reportsDir, pdfFile), pdfBytes, 0o644); err != nil {
			return nil, apierr.New(apierr.KindTransient, "report.Generate", err)
		}
		record.PDFFile = pdfFile
	}

	if err := g.appendRecord(project, record); err != nil {
		return nil, apierr.New(apierr.KindTransient, "report.Generate", err)
	}

	return record, nil
}

func (g *Generator) appendRecord(project string, record *model.ReportRecord) error {
	path, err := g.Storage.ReportsIndexPath(project)
	if err != nil {
		return err
	}
	var records []model.ReportRecord
	_ = storage.ReadJSON(path, &records)
	records = append(records, *record)
	if err := storage.WriteJSON(path, records); err != nil {
		return err
	}
	acc, err := g.accelerator(project)
	if err != nil {
		return err
	}
	return acc.EnsureFresh(context.Background())
}

// List returns a page of report records via the index accelerator.
func (g *Generator) List(project, reportType string, offset, limit int) ([]model.ReportRecord, error) {
	acc, err := g.accelerator(project)
	if err != nil {
		return nil, err
	}
	return acc.ListReports(context.Background(), reportType, offset, limit)
}

// Get fetches a single report record by id.
func (g *Generator) Get(project, id string) (*model.ReportRecord, error) {
	acc, err := g.accelerator(project)
	if err != nil {
		return nil, err
	}
	rec, err := acc.GetReport(context.Background(), id)
	if err != nil {
		if err == index.ErrReportNotFound {
			return nil, apierr.NotFound("report.Get", err)
		}
		return nil, apierr.New(apierr.KindTransient, "report.Get", err)
	}
	return rec, nil
}

// Delete removes a report record from .reports/reports.json (and the
// index) and deletes its HTML/PDF artefact files.
func (g *Generator) Delete(project, id string) error {
	acc, err := g.accelerator(project)
	if err != nil {
		return err
	}
	rec, err := acc.GetReport(context.Background(), id)
	if err != nil {
		if err == index.ErrReportNotFound {
			return apierr.NotFound("report.Delete", err)
		}
		return apierr.New(apierr.KindTransient, "report.Delete", err)
	}

	if path, perr := g.ArtefactPath(project, rec.HTMLFile); perr == nil {
		_ = os.Remove(path)
	}
	if rec.PDFFile != "" {
		if path, perr := g.ArtefactPath(project, rec.PDFFile); perr == nil {
			_ = os.Remove(path)
		}
	}

	if err := acc.DeleteReport(context.Background(), id); err != nil {
		if err == index.ErrReportNotFound {
			return apierr.NotFound("report.Delete", err)
		}
		return apierr.New(apierr.KindTransient, "report.Delete", err)
	}
	return nil
}

// ArtefactPath resolves the absolute path to a report's HTML or PDF
// file, given the filename recorded on the ReportRecord.
func (g *Generator) ArtefactPath(project, filename string) (string, error) {
	reportsDir, err := g.Storage.ReportsDir(project)
	if err != nil {
		return "", err
	}
	clean := filepath.Clean(filename)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", apierr.Invalid("report.ArtefactPath", fmt.Errorf("invalid report filename %q", filename))
	}
	return filepath.Join(reportsDir, clean), nil
}

// GC deletes report records (and their artefact files) older than
// model.RetentionWindow, run on every Generate call.
func (g *Generator) GC(ctx context.Context, project string) error {
	path, err := g.Storage.ReportsIndexPath(project)
	if err != nil {
		return err
	}
	var records []model.ReportRecord
	if err := storage.ReadJSON(path, &records); err != nil {
		return nil // nothing to collect yet.
	}
	if len(records) == 0 {
		return nil
	}

	cutoff := g.now().Add(-model.RetentionWindow)
	reportsDir, err := g.Storage.ReportsDir(project)
	if err != nil {
		return err
	}

	kept := records[:0]
	removed := false
	for _, r := range records {
		if r.CreatedAt.After(cutoff) {
			kept = append(kept, r)
			continue
		}
		removed = true
		if r.HTMLFile != "" {
			_ = os.Remove(filepath.Join(reportsDir, r.HTMLFile))
		}
		if r.PDFFile != "" {
			_ = os.Remove(filepath.Join(reportsDir, r.PDFFile))
		}
	}
	if !removed {
		return nil
	}
	if err := storage.WriteJSON(path, kept); err != nil {
		return err
	}
	acc, err := g.accelerator(project)
	if err != nil {
		return err
	}
	return acc.EnsureFresh(ctx)
}

func renderHTML(p page) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("report: rendering template: %w", err)
	}
	return buf.Bytes(), nil
}

