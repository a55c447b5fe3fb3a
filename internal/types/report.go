// Package types provides type definitions for structured data used throughout the ranking report service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReportState is the lifecycle state of a ranking report.
type ReportState string

// Report states. GENERATING is the only non-terminal state.
const (
	ReportGenerating ReportState = "GENERATING"
	ReportCompleted  ReportState = "COMPLETED"
	ReportFailed     ReportState = "FAILED"
)

// IsTerminal reports whether no further transition may leave the state.
func (s ReportState) IsTerminal() bool {
	return s == ReportCompleted || s == ReportFailed
}

// ErrTerminalState is returned when a transition or update targets a report that
// already reached COMPLETED or FAILED.
var ErrTerminalState = errors.New("report is in a terminal state")

// Report is the unit of work of the ranking pipeline and its result.
type Report struct {
	ID          uuid.UUID   `json:"id"`
	JobID       uuid.UUID   `json:"job_id"`
	JobTitle    string      `json:"job_title,omitempty"`
	RequestedBy uuid.UUID   `json:"requested_by"`
	State       ReportState `json:"state"`
	IncludeAll  bool        `json:"include_all"`
	Notify      bool        `json:"notify"`

	Ranking          []CandidateRankEntry `json:"ranking"`
	TopEntries       []CandidateRankEntry `json:"top_entries"`
	ExecutiveSummary *ExecutiveSummary    `json:"executive_summary,omitempty"`
	ComparisonMatrix []ComparisonRow      `json:"comparison_matrix,omitempty"`
	Statistics       Statistics           `json:"statistics"`
	Recommendations  []string             `json:"recommendations,omitempty"`

	ArtifactLocation string `json:"artifact_location,omitempty"`
	ArtifactFormat   string `json:"artifact_format,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewReport creates a report in the GENERATING state with a fresh identifier.
func NewReport(jobID, requestedBy uuid.UUID, jobTitle string) *Report {
	return &Report{
		ID:          uuid.New(),
		JobID:       jobID,
		JobTitle:    jobTitle,
		RequestedBy: requestedBy,
		State:       ReportGenerating,
		Ranking:     []CandidateRankEntry{},
		TopEntries:  []CandidateRankEntry{},
		CreatedAt:   time.Now().UTC(),
	}
}

// Complete moves the report to COMPLETED and records where the artifact lives.
func (r *Report) Complete(location, format string) error {
	if r.State.IsTerminal() {
		return ErrTerminalState
	}
	now := time.Now().UTC()
	r.State = ReportCompleted
	r.ArtifactLocation = location
	r.ArtifactFormat = format
	r.FailureReason = ""
	r.CompletedAt = &now
	return nil
}

// Fail moves the report to FAILED. The artifact location and the executive
// summary are cleared; both belong to completed reports only.
func (r *Report) Fail(reason string) error {
	if r.State.IsTerminal() {
		return ErrTerminalState
	}
	now := time.Now().UTC()
	r.State = ReportFailed
	r.ArtifactLocation = ""
	r.ArtifactFormat = ""
	r.ExecutiveSummary = nil
	r.FailureReason = reason
	r.CompletedAt = &now
	return nil
}

// Clone returns a copy that shares no top-level slices with r.
// Entries are treated as immutable once assigned to a report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Ranking = append([]CandidateRankEntry(nil), r.Ranking...)
	c.TopEntries = append([]CandidateRankEntry(nil), r.TopEntries...)
	c.ComparisonMatrix = append([]ComparisonRow(nil), r.ComparisonMatrix...)
	c.Recommendations = append([]string(nil), r.Recommendations...)
	if r.ExecutiveSummary != nil {
		s := *r.ExecutiveSummary
		s.SecondaryReasons = append([]string(nil), r.ExecutiveSummary.SecondaryReasons...)
		c.ExecutiveSummary = &s
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// CandidateRankEntry is one ranked application.
type CandidateRankEntry struct {
	Position        int       `json:"position"`
	ApplicationID   uuid.UUID `json:"application_id"`
	CandidateID     uuid.UUID `json:"candidate_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Location        string    `json:"location,omitempty"`
	LinkedInURL     string    `json:"linkedin_url,omitempty"`
	YearsExperience int       `json:"years_experience"`
	Score           float64   `json:"score"`
	Scored          bool      `json:"scored"`
	HasFeedback     bool      `json:"has_feedback"`

	FeedbackAttributes
}

// FeedbackAttributes are the comparable attributes derived from analysis feedback.
type FeedbackAttributes struct {
	MatchPercentage    float64  `json:"match_percentage"`
	RelevantExperience []string `json:"relevant_experience"`
	KeySkills          []string `json:"key_skills"`
	Strengths          []string `json:"strengths"`
	GrowthAreas        []string `json:"growth_areas"`
	CulturalFit        float64  `json:"cultural_fit"`
}

// EmptyFeedback returns attributes with all lists non-nil and all numbers zero.
func EmptyFeedback() FeedbackAttributes {
	return FeedbackAttributes{
		RelevantExperience: []string{},
		KeySkills:          []string{},
		Strengths:          []string{},
		GrowthAreas:        []string{},
	}
}

// CandidateRef identifies the best candidate inside an executive summary.
type CandidateRef struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Name        string    `json:"name"`
	Score       float64   `json:"score"`
}

// ExecutiveSummary is the narrative head of a completed report.
type ExecutiveSummary struct {
	BestCandidate       CandidateRef `json:"best_candidate"`
	PrimaryReason       string       `json:"primary_reason"`
	SecondaryReasons    []string     `json:"secondary_reasons"`
	FinalRecommendation string       `json:"final_recommendation"`
}

// ComparisonRow is one named criterion of the top-entries comparison matrix.
// Values holds one column per top entry, in rank order.
type ComparisonRow struct {
	Criterion string    `json:"criterion"`
	Values    []float64 `json:"values"`
}

// Statistics are aggregate numbers over every application of the job.
type Statistics struct {
	CandidateCount int     `json:"candidate_count"`
	AverageScore   float64 `json:"average_score"`
	TopCandidates  int     `json:"top_candidates"`
	CompletionRate float64 `json:"completion_rate"`
}
