// Package pipeline orchestrates ranking report generation: synchronous request
// validation followed by a background pipeline bounded by the concurrency gate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/gate"
	"github.com/jonathan/ranking-reports/internal/metrics"
	"github.com/jonathan/ranking-reports/internal/notify"
	"github.com/jonathan/ranking-reports/internal/rendering"
	"github.com/jonathan/ranking-reports/internal/reports"
	"github.com/jonathan/ranking-reports/internal/types"
)

// ErrShuttingDown is returned by Request once Shutdown has been called.
var ErrShuttingDown = errors.New("report service is shutting down")

// JobStore provides the jobs and applications reports are built from.
type JobStore interface {
	FindJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error)
}

// Deps are the collaborators of the report service. Notifier, Metrics and
// OnProgress are optional.
type Deps struct {
	Store      reports.Store
	Jobs       JobStore
	Gate       *gate.Gate
	Renderer   rendering.Renderer
	Notifier   notify.Notifier
	Metrics    *metrics.Collector
	OnProgress ProgressCallback
}

// Options tune the background pipeline.
type Options struct {
	// Timeout bounds one report from the start of its gate wait to its terminal
	// state. Zero means no bound.
	Timeout time.Duration
}

// Service accepts report requests and runs their pipelines in the background.
type Service struct {
	deps Deps
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewService validates deps and creates a service.
func NewService(deps Deps, opts Options) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("report store is required")
	case deps.Jobs == nil:
		return nil, fmt.Errorf("job store is required")
	case deps.Gate == nil:
		return nil, fmt.Errorf("concurrency gate is required")
	case deps.Renderer == nil:
		return nil, fmt.Errorf("renderer is required")
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got: %s", opts.Timeout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{deps: deps, opts: opts, ctx: ctx, cancel: cancel}, nil
}

// Store returns the report store the service writes to.
func (s *Service) Store() reports.Store {
	return s.deps.Store
}

// Request validates a report request for requester, stores a GENERATING report
// and starts its pipeline. It returns as soon as the report is stored.
//
// Errors: validation errors for a malformed request, *types.NotFoundError for an
// unknown job, *types.UnauthorizedError when requester does not own the job and
// *types.InvalidStateError when the job still accepts applications.
func (s *Service) Request(ctx context.Context, requester uuid.UUID, req types.GenerateReportRequest) (*types.Report, error) {
	if s.isClosed() {
		return nil, ErrShuttingDown
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job id: %w", err)
	}

	job, err := s.deps.Jobs.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != requester {
		return nil, &types.UnauthorizedError{Message: "job belongs to another owner"}
	}
	if job.Status.AcceptsApplications() {
		return nil, &types.InvalidStateError{Reason: fmt.Sprintf("job %s is still %s for applications", job.ID, job.Status)}
	}

	report := types.NewReport(job.ID, requester, job.Title)
	report.IncludeAll = req.IncludeAll
	report.Notify = req.Notify

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrShuttingDown
	}
	if err := s.deps.Store.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	s.deps.Metrics.RecordRequested()
	s.emitProgress(report.ID, StepQueued, job.Title)
	log.Printf("[PIPELINE] Report %s queued for job %s (%q)", report.ID, job.ID, job.Title)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.generate(s.ctx, report.ID, job)
	}()

	return report, nil
}

// Wait blocks until every started pipeline reached a terminal state.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown stops accepting requests, cancels running pipelines and waits for
// them to record their terminal state or for ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("report pipelines still running: %w", ctx.Err())
	}
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// generate is the background pipeline of one report.
func (s *Service) generate(ctx context.Context, reportID uuid.UUID, job *types.Job) error {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	waitStart := time.Now()
	s.publishGateStats()
	if err := s.deps.Gate.Acquire(ctx); err != nil {
		s.publishGateStats()
		s.markFailed(ctx, reportID, fmt.Errorf("gave up waiting for a rendering slot: %w", err), waitStart)
		s.notifyOwner(ctx, reportID, job)
		return err
	}
	s.deps.Metrics.RecordGateWait(time.Since(waitStart).Seconds())
	s.publishGateStats()

	err := s.produce(ctx, reportID, job)
	s.notifyOwner(ctx, reportID, job)
	return err
}

// produce runs while holding a gate slot. The slot is released on every path,
// including panics.
func (s *Service) produce(ctx context.Context, reportID uuid.UUID, job *types.Job) (err error) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("report generation panicked: %v", rec)
			s.markFailed(ctx, reportID, err, started)
		}
		s.deps.Gate.Release()
		s.publishGateStats()
		s.emitProgress(reportID, StepReleased, "")
	}()

	if err := s.deps.Store.Update(ctx, reportID, func(r *types.Report) error {
		now := started.UTC()
		r.StartedAt = &now
		return nil
	}); err != nil {
		s.markFailed(ctx, reportID, fmt.Errorf("failed to mark report started: %w", err), started)
		return err
	}
	s.emitProgress(reportID, StepStarted, "")
	log.Printf("[PIPELINE] Report %s started", reportID)

	s.emitProgress(reportID, StepRanking, "")
	apps, err := s.deps.Jobs.ListApplications(ctx, job.ID)
	if err != nil {
		err = fmt.Errorf("failed to load applications: %w", err)
		s.markFailed(ctx, reportID, err, started)
		return err
	}
	if len(apps) == 0 {
		err = &types.InvalidStateError{Reason: "job has no applications to rank"}
		s.markFailed(ctx, reportID, err, started)
		return err
	}

	populated, err := s.populate(ctx, reportID, job, apps)
	if err != nil {
		s.markFailed(ctx, reportID, err, started)
		return err
	}

	s.emitProgress(reportID, StepRendering, "")
	artifact, err := s.deps.Renderer.Render(ctx, populated)
	if err != nil {
		s.markFailed(ctx, reportID, err, started)
		return err
	}

	if err := s.deps.Store.Update(ctx, reportID, func(r *types.Report) error {
		if err := r.Complete(artifact.Location, artifact.Format); err != nil {
			return err
		}
		r.ExecutiveSummary = populated.ExecutiveSummary
		return nil
	}); err != nil {
		err = fmt.Errorf("failed to complete report: %w", err)
		s.markFailed(ctx, reportID, err, started)
		return err
	}

	s.deps.Metrics.RecordCompleted(time.Since(started).Seconds())
	s.emitProgress(reportID, StepCompleted, artifact.Location)
	log.Printf("[PIPELINE] Report %s completed: %s (%d candidates)", reportID, artifact.Location, len(apps))
	return nil
}

// markFailed records the terminal FAILED state. It runs detached from ctx so a
// cancelled or timed-out pipeline can still record why it stopped.
func (s *Service) markFailed(ctx context.Context, reportID uuid.UUID, cause error, started time.Time) {
	ctx = context.WithoutCancel(ctx)
	if err := s.deps.Store.Update(ctx, reportID, func(r *types.Report) error {
		return r.Fail(cause.Error())
	}); err != nil {
		log.Printf("[PIPELINE] Failed to record failure of report %s: %v", reportID, err)
	}
	s.deps.Metrics.RecordFailed(FailureKind(cause), time.Since(started).Seconds())
	s.emitProgress(reportID, StepFailed, cause.Error())
	log.Printf("[PIPELINE] Report %s failed: %v", reportID, cause)
}

// notifyOwner sends the optional notification. Failures are logged and never
// change the report.
func (s *Service) notifyOwner(ctx context.Context, reportID uuid.UUID, job *types.Job) {
	if s.deps.Notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	report, err := s.deps.Store.Get(ctx, reportID)
	if err != nil {
		log.Printf("[NOTIFY] Could not load report %s: %v", reportID, err)
		return
	}
	if !report.Notify {
		return
	}
	if job.ContactEmail == "" {
		log.Printf("[NOTIFY] Job %s has no contact email, skipping report %s", job.ID, reportID)
		return
	}
	if err := s.deps.Notifier.Notify(ctx, job.ContactEmail, report); err != nil {
		log.Printf("[NOTIFY] Failed to notify %s about report %s: %v", job.ContactEmail, reportID, err)
		return
	}
	s.emitProgress(reportID, StepNotified, job.ContactEmail)
}

func (s *Service) publishGateStats() {
	s.deps.Metrics.UpdateGateStats(s.deps.Gate.InUse(), s.deps.Gate.Waiting())
}

// FailureKind classifies a pipeline failure for metrics.
func FailureKind(err error) string {
	var stateErr *types.InvalidStateError
	var renderErr *rendering.RenderError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return metrics.ReasonTimeout
	case errors.As(err, &stateErr):
		return metrics.ReasonInvalidState
	case errors.As(err, &renderErr):
		return metrics.ReasonRender
	default:
		return metrics.ReasonInternal
	}
}
