// Package index is a per-project SQLite read accelerator over
// tests/results.json and .reports/reports.json, built with sql.Open
// ("sqlite", ...) over an embedded schema with WAL-mode pragma tuning.
//
// The JSON files remain the normative storage layout; index.db is
// rebuilt from them transparently whenever it is missing or stale, so
// losing it is never destructive.
package index

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/raysh454/webdiffengine/internal/storage"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	// ErrTestResultNotFound is returned when a test result id is absent
	// from both the index and the underlying JSON.
	ErrTestResultNotFound = errors.New("index: test result not found")
	// ErrReportNotFound is returned when a report id is absent from both
	// the index and the underlying JSON.
	ErrReportNotFound = errors.New("index: report not found")
)

// Accelerator wraps a project's index.db. It is never the source of
// truth: every read first calls EnsureFresh, which rebuilds from JSON
// when the files on disk are newer than the last sync.
type Accelerator struct {
	db      *sql.DB
	Storage *storage.Gateway
	Project string
}

// Open creates or opens .reports/index.db for project, applying pragmas
// and schema.
func Open(gw *storage.Gateway, project string) (*Accelerator, error) {
	reportsDir, err := gw.ReportsDir(project)
	if err != nil {
		return nil, fmt.Errorf("index: resolving reports dir: %w", err)
	}
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("index: creating reports dir: %w", err)
	}

	dbPath := filepath.Join(reportsDir, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("index: opening %q: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite has no internal connection pool; one writer avoids SQLITE_BUSY storms.

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Accelerator{db: db, Storage: gw, Project: project}, nil
}

// Close releases the underlying database handle.
func (a *Accelerator) Close() error {
	return a.db.Close()
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("index: pragma %q: %w", p, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("index: reading schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("index: executing schema: %w", err)
	}
	return nil
}

// EnsureFresh rebuilds whichever tables are behind their JSON source,
// comparing mtimes against the meta table's synced_at markers.
func (a *Accelerator) EnsureFresh(ctx context.Context) error {
	resultsPath, err := a.Storage.TestsIndexPath(a.Project)
	if err != nil {
		return fmt.Errorf("index: resolving results path: %w", err)
	}
	if stale, mtime := a.isStale(ctx, "test_results", resultsPath); stale {
		if err := a.rebuildTestResults(ctx, resultsPath, mtime); err != nil {
			return err
		}
	}

	reportsPath, err := a.Storage.ReportsIndexPath(a.Project)
	if err != nil {
		return fmt.Errorf("index: resolving reports path: %w", err)
	}
	if stale, mtime := a.isStale(ctx, "reports", reportsPath); stale {
		if err := a.rebuildReports(ctx, reportsPath, mtime); err != nil {
			return err
		}
	}
	return nil
}

// isStale reports whether jsonPath's mtime is newer than the recorded
// sync marker for table (or no marker exists yet). A missing jsonPath is
// never stale: there is nothing to rebuild from.
func (a *Accelerator) isStale(ctx context.Context, table, jsonPath string) (bool, int64) {
	fi, err := os.Stat(jsonPath)
	if err != nil {
		return false, 0
	}
	mtime := fi.ModTime().UnixNano()

	var synced sql.NullInt64
	row := a.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaKey(table))
	var raw string
	if err := row.Scan(&raw); err != nil {
		return true, mtime // no marker yet: first build.
	}
	synced.Int64, synced.Valid = parseInt64(raw)
	if !synced.Valid || synced.Int64 < mtime {
		return true, mtime
	}
	return false, mtime
}

func metaKey(table string) string { return table + "_synced_at" }

func parseInt64(s string) (int64, bool) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err == nil
}
