//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/google/uuid"
)

// JobStatus is the publication status of a job posting.
type JobStatus string

// Job statuses. Only jobs that no longer accept applications can be reported on.
const (
	JobOpen     JobStatus = "open"
	JobPaused   JobStatus = "paused"
	JobClosed   JobStatus = "closed"
	JobArchived JobStatus = "archived"
)

// AcceptsApplications reports whether the job is still open for applications.
func (s JobStatus) AcceptsApplications() bool {
	return s == JobOpen
}

// Job is a job posting as seen by the report pipeline.
type Job struct {
	ID           uuid.UUID `json:"id" yaml:"id"`
	OwnerID      uuid.UUID `json:"owner_id" yaml:"owner_id"`
	Title        string    `json:"title" yaml:"title"`
	Company      string    `json:"company,omitempty" yaml:"company"`
	Status       JobStatus `json:"status" yaml:"status"`
	ContactEmail string    `json:"contact_email,omitempty" yaml:"contact_email"`
}

// Candidate holds the identity and profile fields of an applicant.
type Candidate struct {
	ID              uuid.UUID `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Email           string    `json:"email,omitempty" yaml:"email"`
	Phone           string    `json:"phone,omitempty" yaml:"phone"`
	Location        string    `json:"location,omitempty" yaml:"location"`
	LinkedInURL     string    `json:"linkedin_url,omitempty" yaml:"linkedin_url"`
	YearsExperience int       `json:"years_experience,omitempty" yaml:"years_experience"`
}

// Application is one candidate's application to a job, optionally scored by the
// analysis workflow. Feedback is either a JSON object or free text.
type Application struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	JobID     uuid.UUID `json:"job_id" yaml:"job_id"`
	Candidate Candidate `json:"candidate" yaml:"candidate"`
	Score     *float64  `json:"score,omitempty" yaml:"score"`
	Feedback  *string   `json:"feedback,omitempty" yaml:"feedback"`
}

// ScoreOrZero returns the application's score, or 0 when it was never scored.
func (a *Application) ScoreOrZero() float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// HasFeedback reports whether the analysis workflow left any non-blank feedback.
func (a *Application) HasFeedback() bool {
	return a.Feedback != nil && strings.TrimSpace(*a.Feedback) != ""
}
