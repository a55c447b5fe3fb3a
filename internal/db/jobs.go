package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/ranking-reports/internal/types"
)

// FindJob loads a job posting by ID.
func (db *DB) FindJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	var job types.Job
	var company, contact *string
	var status string
	err := db.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, company, status, contact_email
		 FROM jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.OwnerID, &job.Title, &company, &status, &contact)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.NotFoundError{Resource: "job", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	job.Status = types.JobStatus(status)
	job.Company = derefString(company)
	job.ContactEmail = derefString(contact)
	return &job, nil
}

// ListApplications returns every application of a job with its candidate,
// in submission order.
func (db *DB) ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, a.job_id, a.score, a.feedback,
		        c.id, c.name, c.email, c.phone, c.location, c.linkedin_url, c.years_experience
		 FROM applications a
		 JOIN candidates c ON c.id = a.candidate_id
		 WHERE a.job_id = $1
		 ORDER BY a.created_at, a.id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []types.Application{}
	for rows.Next() {
		var a types.Application
		var email, phone, location, linkedIn *string
		if err := rows.Scan(&a.ID, &a.JobID, &a.Score, &a.Feedback,
			&a.Candidate.ID, &a.Candidate.Name, &email, &phone, &location, &linkedIn,
			&a.Candidate.YearsExperience); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		a.Candidate.Email = derefString(email)
		a.Candidate.Phone = derefString(phone)
		a.Candidate.Location = derefString(location)
		a.Candidate.LinkedInURL = derefString(linkedIn)
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// UpsertJob inserts or replaces a job posting.
func (db *DB) UpsertJob(ctx context.Context, job *types.Job) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (id, owner_id, title, company, status, contact_email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET owner_id = $2, title = $3, company = $4,
		                                status = $5, contact_email = $6`,
		job.ID, job.OwnerID, job.Title, nullIfEmpty(job.Company), string(job.Status), nullIfEmpty(job.ContactEmail),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job: %w", err)
	}
	return nil
}

// InsertApplication stores an application and upserts its candidate.
func (db *DB) InsertApplication(ctx context.Context, app *types.Application) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	c := app.Candidate
	if _, err := tx.Exec(ctx,
		`INSERT INTO candidates (id, name, email, phone, location, linkedin_url, years_experience)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET name = $2, email = $3, phone = $4, location = $5,
		                                linkedin_url = $6, years_experience = $7`,
		c.ID, c.Name, nullIfEmpty(c.Email), nullIfEmpty(c.Phone), nullIfEmpty(c.Location),
		nullIfEmpty(c.LinkedInURL), c.YearsExperience,
	); err != nil {
		return fmt.Errorf("failed to upsert candidate: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO applications (id, job_id, candidate_id, score, feedback)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET score = $4, feedback = $5`,
		app.ID, app.JobID, c.ID, app.Score, app.Feedback,
	); err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return tx.Commit(ctx)
}

// nullIfEmpty returns nil if the string is empty, otherwise a pointer to the string
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
