// Package ranking turns scored applications into an ordered candidate ranking.
package ranking

import (
	"cmp"
	"slices"

	"github.com/jonathan/ranking-reports/internal/types"
)

// TopSize is the number of entries compared side by side in a report.
const TopSize = 3

// Result holds the full ranking and its leading entries.
type Result struct {
	Ranking []types.CandidateRankEntry
	Top     []types.CandidateRankEntry
}

// Build sorts applications by score descending and assigns 1-based positions.
// Missing scores count as 0 and equal scores keep their input order.
func Build(apps []types.Application) *Result {
	sorted := slices.Clone(apps)
	slices.SortStableFunc(sorted, func(a, b types.Application) int {
		return cmp.Compare(b.ScoreOrZero(), a.ScoreOrZero())
	})

	entries := make([]types.CandidateRankEntry, 0, len(sorted))
	for i := range sorted {
		entries = append(entries, newEntry(i+1, &sorted[i]))
	}

	return &Result{
		Ranking: entries,
		Top:     Top(entries),
	}
}

// Top returns the first TopSize entries (fewer if the ranking is shorter).
func Top(ranking []types.CandidateRankEntry) []types.CandidateRankEntry {
	return ranking[:min(TopSize, len(ranking))]
}

func newEntry(position int, app *types.Application) types.CandidateRankEntry {
	c := app.Candidate
	return types.CandidateRankEntry{
		Position:           position,
		ApplicationID:      app.ID,
		CandidateID:        c.ID,
		Name:               c.Name,
		Email:              c.Email,
		Phone:              c.Phone,
		Location:           c.Location,
		LinkedInURL:        c.LinkedInURL,
		YearsExperience:    c.YearsExperience,
		Score:              app.ScoreOrZero(),
		Scored:             app.Score != nil,
		HasFeedback:        app.HasFeedback(),
		FeedbackAttributes: ParseFeedback(app.Feedback),
	}
}
