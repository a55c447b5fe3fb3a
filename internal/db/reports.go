package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/ranking-reports/internal/types"
)

// ReportStore persists ranking reports as JSONB documents.
type ReportStore struct {
	db *DB
}

// Reports returns the report store backed by this database.
func (db *DB) Reports() *ReportStore {
	return &ReportStore{db: db}
}

// Create inserts a new report.
func (s *ReportStore) Create(ctx context.Context, report *types.Report) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO ranking_reports (id, job_id, requested_by, state, created_at, document)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		report.ID, report.JobID, report.RequestedBy, string(report.State), report.CreatedAt, doc,
	)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", report.ID, err)
	}
	return nil
}

// Get loads a report by ID.
func (s *ReportStore) Get(ctx context.Context, id uuid.UUID) (*types.Report, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT document FROM ranking_reports WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.NotFoundError{Resource: "report", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return decodeReport(doc)
}

// Update locks the report row, applies fn and writes the result back.
// Terminal reports are rejected with types.ErrTerminalState.
func (s *ReportStore) Update(ctx context.Context, id uuid.UUID, fn func(*types.Report) error) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var doc []byte
	err = tx.QueryRow(ctx,
		`SELECT document FROM ranking_reports WHERE id = $1 FOR UPDATE`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &types.NotFoundError{Resource: "report", ID: id.String()}
		}
		return fmt.Errorf("failed to lock report %s: %w", id, err)
	}

	current, err := decodeReport(doc)
	if err != nil {
		return err
	}
	if current.State.IsTerminal() {
		return types.ErrTerminalState
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if next.ID != id {
		return fmt.Errorf("report id cannot change from %s to %s", id, next.ID)
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE ranking_reports SET state = $1, document = $2, updated_at = NOW() WHERE id = $3`,
		string(next.State), encoded, id,
	); err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}
	return tx.Commit(ctx)
}

// ListByJob returns the reports of a job, oldest first.
func (s *ReportStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]types.Report, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT document FROM ranking_reports WHERE job_id = $1 ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	result := []types.Report{}
	for rows.Next() {
		var doc []byte
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

// ListGenerating returns the IDs of reports still in GENERATING.
func (s *ReportStore) ListGenerating(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT id FROM ranking_reports WHERE state = $1 ORDER BY created_at, id`, string(types.ReportGenerating))
	if err != nil {
		return nil, fmt.Errorf("failed to list generating reports: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan report id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func decodeReport(doc []byte) (*types.Report, error) {
	var r types.Report
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
