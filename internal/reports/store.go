// Package reports provides storage for ranking reports.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/types"
)

// Store persists reports. Implementations must be safe for concurrent use and
// must never hand out references that alias their internal state.
type Store interface {
	// Create stores a new report. It fails if a report with the same ID exists.
	Create(ctx context.Context, report *types.Report) error
	// Get returns the report with the given ID or a *types.NotFoundError.
	Get(ctx context.Context, id uuid.UUID) (*types.Report, error)
	// Update applies fn to the current report and stores the result atomically.
	// Reports in a terminal state are never modified: Update returns
	// types.ErrTerminalState without calling fn.
	Update(ctx context.Context, id uuid.UUID, fn func(*types.Report) error) error
	// ListByJob returns the reports of a job, oldest first.
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]types.Report, error)
	// ListGenerating returns the IDs of all reports still in GENERATING.
	ListGenerating(ctx context.Context) ([]uuid.UUID, error)
}

// InterruptedReason is the failure reason recorded by FailInterrupted.
const InterruptedReason = "interrupted by restart"

// FailInterrupted moves every GENERATING report to FAILED. It must run before
// the process starts any pipeline: reports left GENERATING by a previous process
// have no task that would ever finish them. It returns the number of reports failed.
func FailInterrupted(ctx context.Context, store Store) (int, error) {
	ids, err := store.ListGenerating(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list generating reports: %w", err)
	}

	failed := 0
	for _, id := range ids {
		err := store.Update(ctx, id, func(r *types.Report) error {
			return r.Fail(InterruptedReason)
		})
		if errors.Is(err, types.ErrTerminalState) {
			continue
		}
		if err != nil {
			return failed, fmt.Errorf("failed to fail interrupted report %s: %w", id, err)
		}
		failed++
	}
	if failed > 0 {
		log.Printf("[STORE] Marked %d interrupted report(s) as FAILED", failed)
	}
	return failed, nil
}

func notFound(id uuid.UUID) error {
	return &types.NotFoundError{Resource: "report", ID: id.String()}
}

// applyUpdate runs fn on a copy of current and returns the copy. The ID cannot be
// changed by fn.
func applyUpdate(current *types.Report, fn func(*types.Report) error) (*types.Report, error) {
	if current.State.IsTerminal() {
		return nil, types.ErrTerminalState
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if next.ID != current.ID {
		return nil, fmt.Errorf("report id cannot change from %s to %s", current.ID, next.ID)
	}
	return next, nil
}
