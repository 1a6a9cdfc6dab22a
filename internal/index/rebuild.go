package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/raysh454/webdiffengine/internal/model"
	"github.com/raysh454/webdiffengine/internal/storage"
)

// rebuildTestResults reloads tests/results.json wholesale into the
// test_results table inside one transaction, then bumps the sync
// marker, treating the filesystem as ground truth and SQLite as a
// derived cache.
func (a *Accelerator) rebuildTestResults(ctx context.Context, path string, mtime int64) error {
	var records []model.TestResult
	if err := storage.ReadJSON(path, &records); err != nil {
		return fmt.Errorf("index: reading %q: %w", path, err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM test_results`); err != nil {
		return fmt.Errorf("index: clearing test_results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO test_results
			(id, section_ts, section_name, passed, dom_score, api_score, visual_score, overall_score, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("index: marshaling test result %q: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.SectionTS, r.SectionName, boolToInt(r.Passed),
			r.DOMScore, r.APIScore, r.VisualScore, r.OverallScore, r.CreatedAt.Unix(), string(data)); err != nil {
			return fmt.Errorf("index: inserting test result %q: %w", r.ID, err)
		}
	}

	if err := upsertMeta(ctx, tx, metaKey("test_results"), mtime); err != nil {
		return err
	}
	return tx.Commit()
}

// rebuildReports reloads .reports/reports.json wholesale into the
// reports table.
func (a *Accelerator) rebuildReports(ctx context.Context, path string, mtime int64) error {
	var records []model.ReportRecord
	if err := storage.ReadJSON(path, &records); err != nil {
		return fmt.Errorf("index: reading %q: %w", path, err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reports`); err != nil {
		return fmt.Errorf("index: clearing reports: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reports (id, type, format, section1, section2, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("index: marshaling report %q: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, string(r.Type), string(r.Format), r.Section1, r.Section2,
			r.CreatedAt.Unix(), string(data)); err != nil {
			return fmt.Errorf("index: inserting report %q: %w", r.ID, err)
		}
	}

	if err := upsertMeta(ctx, tx, metaKey("reports"), mtime); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertMeta(ctx context.Context, tx *sql.Tx, key string, mtime int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, fmt.Sprintf("%d", mtime))
	if err != nil {
		return fmt.Errorf("index: updating sync marker %q: %w", key, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
