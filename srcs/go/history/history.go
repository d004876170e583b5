// Package history keeps a local record of dispatch runs in sqlite.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Run is one dispatch invocation.
type Run struct {
	ID        string
	JobName   string
	PoolDir   string
	Machines  int
	Jobs      int
	DryRun    bool
	Failed    int
	CreatedAt time.Time
}

// fixed width, so that created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	const createRuns = `
CREATE TABLE IF NOT EXISTS runs (
  id         TEXT PRIMARY KEY,
  job_name   TEXT,
  pool_dir   TEXT,
  machines   INTEGER,
  jobs       INTEGER,
  dry_run    INTEGER,
  failed     INTEGER,
  created_at TEXT
);`
	_, err := db.Exec(createRuns)
	return err
}

func (s *Store) Record(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, job_name, pool_dir, machines, jobs, dry_run, failed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.JobName, r.PoolDir, r.Machines, r.Jobs, boolToInt(r.DryRun), r.Failed, r.CreatedAt.UTC().Format(timeLayout))
	return err
}

// Recent lists the latest runs first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_name, pool_dir, machines, jobs, dry_run, failed, created_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var r Run
		var dryRun int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.JobName, &r.PoolDir, &r.Machines, &r.Jobs, &dryRun, &r.Failed, &createdAt); err != nil {
			return nil, err
		}
		r.DryRun = dryRun != 0
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
