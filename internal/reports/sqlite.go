package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/types"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	state      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	document   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_job_id ON reports(job_id, created_at);
`

// SQLiteStore persists reports as JSON documents in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the report database at path and initializes the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report db: %w", err)
	}
	// A single connection serializes writers, so Update's read-modify-write is atomic.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Create inserts a new report row.
func (s *SQLiteStore) Create(ctx context.Context, report *types.Report) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, job_id, state, created_at, document) VALUES (?, ?, ?, ?, ?)`,
		report.ID.String(), report.JobID.String(), string(report.State), report.CreatedAt.UnixNano(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", report.ID, err)
	}
	return nil
}

// Get loads a report by ID.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*types.Report, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM reports WHERE id = ?`, id.String()).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return decodeReport(doc)
}

// Update reads, modifies and writes the report inside one transaction.
func (s *SQLiteStore) Update(ctx context.Context, id uuid.UUID, fn func(*types.Report) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT document FROM reports WHERE id = ?`, id.String()).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(id)
		}
		return fmt.Errorf("failed to load report %s: %w", id, err)
	}
	current, err := decodeReport(doc)
	if err != nil {
		return err
	}

	next, err := applyUpdate(current, fn)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reports SET state = ?, document = ? WHERE id = ?`,
		string(next.State), string(encoded), id.String(),
	); err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}
	return tx.Commit()
}

// ListByJob returns the job's reports ordered by creation time.
func (s *SQLiteStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]types.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM reports WHERE job_id = ? ORDER BY created_at, id`, jobID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	result := []types.Report{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		r, err := decodeReport(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// ListGenerating returns the IDs of reports whose state column is GENERATING.
func (s *SQLiteStore) ListGenerating(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM reports WHERE state = ? ORDER BY created_at, id`, string(types.ReportGenerating))
	if err != nil {
		return nil, fmt.Errorf("failed to list generating reports: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid report id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func decodeReport(doc string) (*types.Report, error) {
	var r types.Report
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
