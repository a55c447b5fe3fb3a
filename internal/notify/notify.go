// Package notify delivers best-effort notifications when a report finishes.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/types"
)

// DefaultWebhookTimeout bounds a single webhook delivery.
const DefaultWebhookTimeout = 10 * time.Second

// Notifier tells a destination (typically the job's contact email) that a report
// reached a terminal state.
type Notifier interface {
	Notify(ctx context.Context, destination string, r *types.Report) error
}

// Message is the notification payload.
type Message struct {
	Destination      string            `json:"destination"`
	ReportID         uuid.UUID         `json:"report_id"`
	JobID            uuid.UUID         `json:"job_id"`
	JobTitle         string            `json:"job_title,omitempty"`
	State            types.ReportState `json:"state"`
	BestCandidate    string            `json:"best_candidate,omitempty"`
	CandidateCount   int               `json:"candidate_count"`
	ArtifactLocation string            `json:"artifact_location,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
}

// NewMessage summarizes a report for destination.
func NewMessage(destination string, r *types.Report) Message {
	m := Message{
		Destination:      destination,
		ReportID:         r.ID,
		JobID:            r.JobID,
		JobTitle:         r.JobTitle,
		State:            r.State,
		CandidateCount:   r.Statistics.CandidateCount,
		ArtifactLocation: r.ArtifactLocation,
		FailureReason:    r.FailureReason,
	}
	if r.ExecutiveSummary != nil {
		m.BestCandidate = r.ExecutiveSummary.BestCandidate.Name
	}
	return m
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

// Notify logs the message.
func (LogNotifier) Notify(_ context.Context, destination string, r *types.Report) error {
	m := NewMessage(destination, r)
	if m.State == types.ReportFailed {
		log.Printf("[NOTIFY] to=%s report=%s job=%q state=%s reason=%q",
			m.Destination, m.ReportID, m.JobTitle, m.State, m.FailureReason)
		return nil
	}
	log.Printf("[NOTIFY] to=%s report=%s job=%q state=%s best=%q artifact=%s",
		m.Destination, m.ReportID, m.JobTitle, m.State, m.BestCandidate, m.ArtifactLocation)
	return nil
}

// WebhookNotifier POSTs the message as JSON to URL.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

// NewWebhookNotifier creates a webhook notifier with a bounded client.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &WebhookNotifier{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Notify delivers one message. Non-2xx responses are errors.
func (w *WebhookNotifier) Notify(ctx context.Context, destination string, r *types.Report) error {
	body, err := json.Marshal(NewMessage(destination, r))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultWebhookTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
