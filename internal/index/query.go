package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
)

// ListTestResults returns a page of test results, most recent first,
// refreshing the index from JSON first if it is stale.
func (a *Accelerator) ListTestResults(ctx context.Context, offset, limit int) ([]model.TestResult, error) {
	if err := a.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as "no limit".
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT data FROM test_results ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("index: listing test results: %w", err)
	}
	defer rows.Close()

	var out []model.TestResult
	for rows.Next() {
		var r model.TestResult
		if err := scanJSON(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTestResult fetches a single result by id.
func (a *Accelerator) GetTestResult(ctx context.Context, id string) (*model.TestResult, error) {
	if err := a.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	row := a.db.QueryRowContext(ctx, `SELECT data FROM test_results WHERE id = ?`, id)
	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTestResultNotFound
		}
		return nil, fmt.Errorf("index: fetching test result %q: %w", id, err)
	}
	var r model.TestResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("index: decoding test result %q: %w", id, err)
	}
	return &r, nil
}

// DeleteTestResult removes id from both tests/results.json (the
// normative store) and the index, keeping them consistent.
func (a *Accelerator) DeleteTestResult(ctx context.Context, id string) error {
	path, err := a.Storage.TestsIndexPath(a.Project)
	if err != nil {
		return err
	}
	var records []model.TestResult
	if err := storage.ReadJSON(path, &records); err != nil {
		return fmt.Errorf("index: reading %q: %w", path, err)
	}
	out := records[:0]
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		out = append(out, r)
	}
	if !found {
		return ErrTestResultNotFound
	}
	if err := storage.WriteJSON(path, out); err != nil {
		return err
	}
	return a.EnsureFresh(ctx)
}

// Statistics folds the full test-result history into pass/fail totals.
func (a *Accelerator) Statistics(ctx context.Context) (model.Statistics, error) {
	if err := a.EnsureFresh(ctx); err != nil {
		return model.Statistics{}, err
	}
	row := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(passed), 0) FROM test_results`)
	var total, passed int
	if err := row.Scan(&total, &passed); err != nil {
		return model.Statistics{}, fmt.Errorf("index: computing statistics: %w", err)
	}
	return model.Statistics{Total: total, Passed: passed, Failed: total - passed}, nil
}

// ListReports returns a page of report records, most recent first,
// optionally filtered by type (empty string means all types).
func (a *Accelerator) ListReports(ctx context.Context, reportType string, offset, limit int) ([]model.ReportRecord, error) {
	if err := a.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	var rows *sql.Rows
	var err error
	if reportType == "" {
		rows, err = a.db.QueryContext(ctx,
			`SELECT data FROM reports ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	} else {
		rows, err = a.db.QueryContext(ctx,
			`SELECT data FROM reports WHERE type = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`, reportType, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("index: listing reports: %w", err)
	}
	defer rows.Close()

	var out []model.ReportRecord
	for rows.Next() {
		var r model.ReportRecord
		if err := scanJSON(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReport fetches a single report record by id.
func (a *Accelerator) GetReport(ctx context.Context, id string) (*model.ReportRecord, error) {
	if err := a.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	row := a.db.QueryRowContext(ctx, `SELECT data FROM reports WHERE id = ?`, id)
	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("index: fetching report %q: %w", id, err)
	}
	var r model.ReportRecord
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("index: decoding report %q: %w", id, err)
	}
	return &r, nil
}

// DeleteReport removes id from both .reports/reports.json and the index.
func (a *Accelerator) DeleteReport(ctx context.Context, id string) error {
	path, err := a.Storage.ReportsIndexPath(a.Project)
	if err != nil {
		return err
	}
	var records []model.ReportRecord
	if err := storage.ReadJSON(path, &records); err != nil {
		return fmt.Errorf("index: reading %q: %w", path, err)
	}
	out := records[:0]
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		out = append(out, r)
	}
	if !found {
		return ErrReportNotFound
	}
	if err := storage.WriteJSON(path, out); err != nil {
		return err
	}
	return a.EnsureFresh(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJSON(rows rowScanner, v any) error {
	var data string
	if err := rows.Scan(&data); err != nil {
		return fmt.Errorf("index: scanning row: %w", err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("index: decoding row: %w", err)
	}
	return nil
}
