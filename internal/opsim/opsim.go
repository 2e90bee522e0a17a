// Package opsim reads observation schedules from OpSim sqlite databases.
package opsim

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/pgris/sims-maf-contrib/internal/monitoring"
	"github.com/pgris/sims-maf-contrib/internal/survey"
)

// DefaultTable is the visit table of OpSim v4 and later outputs.
const DefaultTable = "observations"

// DB is a read-only handle on an OpSim output database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens an existing OpSim database. The file must exist; sqlite would
// otherwise create an empty one.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opsim database: %w", err)
	}
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := path + "?_pragma=query_only(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opsim database: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// Close releases the database handle.
func (d *DB) Close() error { return d.db.Close() }

// Tables lists the user tables in the database.
func (d *DB) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadVisits reads every visit in table using the given column names. Empty
// column names take the OpSim defaults.
func (d *DB) LoadVisits(ctx context.Context, table string, cols survey.Columns) ([]survey.PointedVisit, error) {
	if table == "" {
		table = DefaultTable
	}
	if !survey.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	cols = cols.WithDefaults()
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	// Identifiers are validated above; sqlite does not accept them as
	// bound parameters.
	query := fmt.Sprintf(`SELECT "%s", "%s", "%s", "%s", "%s" FROM "%s" ORDER BY "%s"`,
		cols.MJD, cols.M5, cols.Filter, cols.RA, cols.Dec, table, cols.MJD)
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query visits from %s: %w", table, err)
	}
	defer rows.Close()

	var visits []survey.PointedVisit
	for rows.Next() {
		var (
			pv     survey.PointedVisit
			filter string
		)
		if err := rows.Scan(&pv.MJD, &pv.FiveSigmaDepth, &filter, &pv.RA, &pv.Dec); err != nil {
			return nil, fmt.Errorf("scan visit row %d: %w", len(visits)+1, err)
		}
		pv.Filter = survey.Band(filter)
		visits = append(visits, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read visits from %s: %w", table, err)
	}

	monitoring.Logf("loaded %d visits from %s:%s", len(visits), d.path, table)
	return visits, nil
}
