package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Progress steps, in the order a successful report passes through them.
const (
	StepQueued      = "queued"
	StepStarted     = "started"
	StepRanking     = "ranking"
	StepSummarizing = "summarizing"
	StepRendering   = "rendering"
	StepCompleted   = "completed"
	StepFailed      = "failed"
	StepReleased    = "released"
	StepNotified    = "notified"
)

// ProgressEvent represents a progress update during report generation
type ProgressEvent struct {
	ReportID uuid.UUID `json:"report_id"`
	Step     string    `json:"step"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

// ProgressCallback is called when pipeline progress occurs. It may be called
// from several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// emitProgress calls the progress callback if configured
func (s *Service) emitProgress(reportID uuid.UUID, step, message string) {
	if s.deps.OnProgress == nil {
		return
	}
	s.deps.OnProgress(ProgressEvent{
		ReportID: reportID,
		Step:     step,
		Message:  message,
		At:       time.Now(),
	})
}
