package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/ranking"
	"github.com/jonathan/ranking-reports/internal/schemas"
	"github.com/jonathan/ranking-reports/internal/summary"
	"github.com/jonathan/ranking-reports/internal/types"
)

// populate ranks the applications, summarizes the ranking and stores the result
// on the report. The executive summary is only attached to the returned copy; it
// is stored together with the COMPLETED transition.
func (s *Service) populate(ctx context.Context, reportID uuid.UUID, job *types.Job, apps []types.Application) (*types.Report, error) {
	result := ranking.Build(apps)

	s.emitProgress(reportID, StepSummarizing, fmt.Sprintf("%d candidates", len(result.Ranking)))
	sum, err := summary.Generate(job.Title, result.Ranking)
	if err != nil {
		return nil, err
	}

	var populated *types.Report
	err = s.deps.Store.Update(ctx, reportID, func(r *types.Report) error {
		r.Ranking = result.Ranking
		r.TopEntries = result.Top
		r.ComparisonMatrix = sum.Matrix
		r.Statistics = sum.Statistics
		r.Recommendations = sum.Recommendations

		assembled := r.Clone()
		assembled.ExecutiveSummary = sum.Executive
		if err := schemas.ValidateReport(assembled); err != nil {
			return fmt.Errorf("assembled report is invalid: %w", err)
		}
		populated = assembled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return populated, nil
}
