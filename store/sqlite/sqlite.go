/*
Package sqlite provides SQLite-backed persistence for allocation runs.

PURPOSE:
  Records every dispatched allocation run and its terminal outcome, plus the
  computed result matrix, so the UI can poll run status and re-open past
  results without recomputing.

KEY TABLES:
  runs:        One record per dispatched run with status lifecycle
               queued -> running -> completed | failed
  run_results: The result matrix (labels, cells, totals, metadata) as JSON,
               one record per completed run

STATUS SEMANTICS:
  A run reaches exactly one terminal state, once. Completion carries the
  output artifact path; failure carries the error message. There is no
  retry state: a failed run is re-submitted as a new run.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers do not block the
  single writer, and crash recovery is cleaner.

CONCURRENCY:
  Guarded with sync.RWMutex; the dispatcher writes from worker goroutines
  while HTTP handlers read.

USAGE:
  store, err := sqlite.New("./data/atlas.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - api/dispatcher.go: Writes run lifecycle transitions
  - api/handlers.go:   Reads runs and results
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chefomid/ATLAS-2/dataset"
)

// Fixed-width timestamp layout. RFC3339Nano trims trailing zeros, which
// breaks lexicographic ORDER BY created_at; this layout keeps string order
// equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunRecord is one allocation run's lifecycle row.
type RunRecord struct {
	ID           string
	Mode         string // "ras", "tiv" or "skeleton"
	Status       string
	InputPath    string
	ArtifactPath string
	Error        string
	Iterations   int
	Converged    bool
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// RunResult is the computed matrix for a completed run.
type RunResult struct {
	RunID     string
	Locations []string
	Coverages []string
	Cells     [][]string // dollar strings, two decimals
	RowTotals []string
	ColTotals []string
	Meta      dataset.MetaByLocation
	CreatedAt time.Time
}

// Store implements run persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		input_path TEXT,
		artifact_path TEXT,
		error TEXT,
		iterations INTEGER DEFAULT 0,
		converged BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL,
		started_at TEXT,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS run_results (
		run_id TEXT PRIMARY KEY REFERENCES runs(id),
		locations_json TEXT NOT NULL,
		coverages_json TEXT NOT NULL,
		cells_json TEXT NOT NULL,
		row_totals_json TEXT NOT NULL,
		col_totals_json TEXT NOT NULL,
		meta_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun inserts or replaces a run record. The dispatcher calls this on
// every lifecycle transition.
func (s *Store) SaveRun(ctx context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, mode, status, input_path, artifact_path, error,
			 iterations, converged, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Status, run.InputPath, run.ArtifactPath, run.Error,
		run.Iterations, run.Converged,
		run.CreatedAt.UTC().Format(timeLayout),
		formatTimePtr(run.StartedAt), formatTimePtr(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, mode, status, input_path, artifact_path, error,
		       iterations, converged, created_at, started_at, completed_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, mode, status, input_path, artifact_path, error,
		       iterations, converged, created_at, started_at, completed_at
		FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*RunRecord, error) {
	var run RunRecord
	var inputPath, artifactPath, errMsg sql.NullString
	var createdAt string
	var startedAt, completedAt sql.NullString

	err := row.Scan(&run.ID, &run.Mode, &run.Status, &inputPath, &artifactPath,
		&errMsg, &run.Iterations, &run.Converged, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.InputPath = inputPath.String
	run.ArtifactPath = artifactPath.String
	run.Error = errMsg.String
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	run.StartedAt = parseTimePtr(startedAt)
	run.CompletedAt = parseTimePtr(completedAt)
	return &run, nil
}

// =============================================================================
// RESULTS
// =============================================================================

// SaveResult stores the computed matrix for a run.
func (s *Store) SaveResult(ctx context.Context, res RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := json.Marshal(res.Locations)
	if err != nil {
		return err
	}
	covs, err := json.Marshal(res.Coverages)
	if err != nil {
		return err
	}
	cells, err := json.Marshal(res.Cells)
	if err != nil {
		return err
	}
	rowTotals, err := json.Marshal(res.RowTotals)
	if err != nil {
		return err
	}
	colTotals, err := json.Marshal(res.ColTotals)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(res.Meta)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO run_results
			(run_id, locations_json, coverages_json, cells_json,
			 row_totals_json, col_totals_json, meta_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, string(locs), string(covs), string(cells),
		string(rowTotals), string(colTotals), string(meta),
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult returns the result for a run, or nil when absent.
func (s *Store) GetResult(ctx context.Context, runID string) (*RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, locations_json, coverages_json, cells_json,
		       row_totals_json, col_totals_json, meta_json, created_at
		FROM run_results WHERE run_id = ?`, runID)

	var res RunResult
	var locs, covs, cells, rowTotals, colTotals, meta, createdAt string
	err := row.Scan(&res.RunID, &locs, &covs, &cells, &rowTotals, &colTotals, &meta, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	if err := json.Unmarshal([]byte(locs), &res.Locations); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(covs), &res.Coverages); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cells), &res.Cells); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rowTotals), &res.RowTotals); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(colTotals), &res.ColTotals); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &res.Meta); err != nil {
		return nil, err
	}
	res.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &res, nil
}

// =============================================================================
// TIME HELPERS
// =============================================================================

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
