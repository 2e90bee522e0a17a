package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pgris/sims-maf-contrib/internal/timeutil"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Run is one invocation of the metric over a set of locations.
type Run struct {
	RunID        string          `json:"run_id"`
	TemplatePath string          `json:"template_path"`
	Source       string          `json:"source"`
	ConfigJSON   json.RawMessage `json:"config_json,omitempty"`
	CreatedAt    int64           `json:"created_at"`
	FinishedAt   int64           `json:"finished_at,omitempty"`
	NEvaluated   int             `json:"n_evaluated"`
	NFailed      int             `json:"n_failed"`
	MeanFraction float64         `json:"mean_fraction"`
}

// LocationResult is the metric outcome at one sky location. Error is set,
// and the counts are zero, when evaluation failed.
type LocationResult struct {
	RunID      string  `json:"run_id"`
	LocationID string  `json:"location_id"`
	RA         float64 `json:"ra"`
	Dec        float64 `json:"dec"`
	NVisits    int     `json:"n_visits"`
	Fraction   float64 `json:"fraction"`
	NDetected  int     `json:"n_detected"`
	NTransMax  int     `json:"n_trans_max"`
	Error      string  `json:"error,omitempty"`
	CreatedAt  int64   `json:"created_at"`
}

// ResultStore provides persistence for runs and their location results.
type ResultStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the results database at path, applies
// PRAGMAs and migrates the schema. A nil clock uses the wall clock.
func Open(path string, clock timeutil.Clock) (*ResultStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps per-connection PRAGMAs in force and serialises
	// writers from concurrent workers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &ResultStore{db: db, clock: clock}, nil
}

// Close closes the database.
func (s *ResultStore) Close() error { return s.db.Close() }

// SchemaVersion reports the applied migration version.
func (s *ResultStore) SchemaVersion() (uint, bool, error) {
	return migrateVersion(s.db)
}

// InsertRun persists a new run. If RunID is empty, a UUID is generated.
func (s *ResultStore) InsertRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	var cfg interface{}
	if len(run.ConfigJSON) > 0 {
		cfg = string(run.ConfigJSON)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tde_runs (run_id, template_path, source, config_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.TemplatePath, run.Source, cfg, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CompleteRun records the run summary and finish time.
func (s *ResultStore) CompleteRun(ctx context.Context, runID string, evaluated, failed int, meanFraction float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tde_runs
		SET finished_at = ?, n_evaluated = ?, n_failed = ?, mean_fraction = ?
		WHERE run_id = ?`,
		s.clock.Now().UnixNano(), evaluated, failed, meanFraction, runID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun returns a single run by ID.
func (s *ResultStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, template_path, source, config_json, created_at,
		       finished_at, n_evaluated, n_failed, mean_fraction
		FROM tde_runs
		WHERE run_id = ?`, runID)

	var (
		r        Run
		cfg      sql.NullString
		finished sql.NullInt64
	)
	err := row.Scan(&r.RunID, &r.TemplatePath, &r.Source, &cfg, &r.CreatedAt,
		&finished, &r.NEvaluated, &r.NFailed, &r.MeanFraction)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if cfg.Valid {
		r.ConfigJSON = json.RawMessage(cfg.String)
	}
	r.FinishedAt = finished.Int64
	return &r, nil
}

// InsertResult persists one location result. Re-inserting the same
// location in a run replaces the earlier row.
func (s *ResultStore) InsertResult(ctx context.Context, res *LocationResult) error {
	if res.CreatedAt == 0 {
		res.CreatedAt = s.clock.Now().UnixNano()
	}
	var errText interface{}
	if res.Error != "" {
		errText = res.Error
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tde_results (
			run_id, location_id, ra, dec, n_visits, fraction,
			n_detected, n_trans_max, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.LocationID, res.RA, res.Dec, res.NVisits, res.Fraction,
		res.NDetected, res.NTransMax, errText, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", res.LocationID, err)
	}
	return nil
}

// ListResults returns every result of a run ordered by location ID.
func (s *ResultStore) ListResults(ctx context.Context, runID string) ([]*LocationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, location_id, ra, dec, n_visits, fraction,
		       n_detected, n_trans_max, error, created_at
		FROM tde_results
		WHERE run_id = ?
		ORDER BY location_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*LocationResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(rows *sql.Rows) (*LocationResult, error) {
	var (
		r       LocationResult
		errText sql.NullString
	)
	err := rows.Scan(&r.RunID, &r.LocationID, &r.RA, &r.Dec, &r.NVisits, &r.Fraction,
		&r.NDetected, &r.NTransMax, &errText, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan result row: %w", err)
	}
	r.Error = errText.String
	return &r, nil
}
