// Package summary derives the executive summary, comparison matrix, statistics
// and recommendations of a ranking report.
package summary

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/ranking-reports/internal/ranking"
	"github.com/jonathan/ranking-reports/internal/types"
)

const (
	// TopCandidateThreshold is the minimum score counted as a top candidate.
	TopCandidateThreshold = 70
	// closeScoreGap is the #1/#2 score gap under which both are worth interviewing.
	closeScoreGap = 10
	// highCulturalFit is the cultural fit above which it is called out.
	highCulturalFit = 80
	// seniorYears is the experience above which it is called out.
	seniorYears = 5
	// skillsPreviewSize is how many key skills the summary lists.
	skillsPreviewSize = 3
)

// Comparison matrix criteria, in row order.
const (
	CriterionScore       = "IA score"
	CriterionMatch       = "Match percentage"
	CriterionExperience  = "Years of experience"
	CriterionCulturalFit = "Cultural fit %"
	CriterionKeySkills   = "Key skills"
)

// Summary is everything derived from a ranking besides the ranking itself.
type Summary struct {
	Executive       *types.ExecutiveSummary
	Matrix          []types.ComparisonRow
	Statistics      types.Statistics
	Recommendations []string
}

// Generate builds the summary for a non-empty ranking.
func Generate(jobTitle string, rank []types.CandidateRankEntry) (*Summary, error) {
	exec, err := ExecutiveSummary(jobTitle, rank)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Executive:       exec,
		Matrix:          ComparisonMatrix(ranking.Top(rank)),
		Statistics:      Statistics(rank),
		Recommendations: Recommendations(rank),
	}, nil
}

// ExecutiveSummary describes the best candidate. An empty ranking has no best
// candidate and is reported as an invalid state.
func ExecutiveSummary(jobTitle string, rank []types.CandidateRankEntry) (*types.ExecutiveSummary, error) {
	if len(rank) == 0 {
		return nil, &types.InvalidStateError{Reason: "no candidates to summarize"}
	}
	best := rank[0]

	return &types.ExecutiveSummary{
		BestCandidate: types.CandidateRef{
			CandidateID: best.CandidateID,
			Name:        best.Name,
			Score:       best.Score,
		},
		PrimaryReason: fmt.Sprintf("%s obtained the highest AI score (%s/100) among the applicants for %s.",
			best.Name, formatNumber(best.Score), jobTitle),
		SecondaryReasons: []string{
			fmt.Sprintf("%s%% match with the position requirements", formatNumber(best.MatchPercentage)),
			fmt.Sprintf("%d years of professional experience", best.YearsExperience),
			fmt.Sprintf("Key skills: %s", skillsPreview(best.KeySkills)),
			fmt.Sprintf("%s%% cultural fit with the company", formatNumber(best.CulturalFit)),
		},
		FinalRecommendation: finalRecommendation(rank),
	}, nil
}

func skillsPreview(skills []string) string {
	if len(skills) == 0 {
		return "solid profile aligned with the role"
	}
	return strings.Join(skills[:min(skillsPreviewSize, len(skills))], ", ")
}

func finalRecommendation(rank []types.CandidateRankEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Move forward with %s as the preferred candidate.", rank[0].Name)
	if len(rank) >= 2 {
		fmt.Fprintf(&sb, " Keep %s", rank[1].Name)
		if len(rank) >= 3 {
			fmt.Fprintf(&sb, " and %s", rank[2].Name)
		}
		sb.WriteString(" as secondary options.")
	}
	return sb.String()
}

// ComparisonMatrix compares the top entries on fixed criteria. Fewer than two
// entries leave nothing to compare and yield nil.
func ComparisonMatrix(top []types.CandidateRankEntry) []types.ComparisonRow {
	if len(top) < 2 {
		return nil
	}
	top = top[:min(ranking.TopSize, len(top))]

	criteria := []struct {
		name  string
		value func(e types.CandidateRankEntry) float64
	}{
		{CriterionScore, func(e types.CandidateRankEntry) float64 { return e.Score }},
		{CriterionMatch, func(e types.CandidateRankEntry) float64 { return e.MatchPercentage }},
		{CriterionExperience, func(e types.CandidateRankEntry) float64 { return float64(e.YearsExperience) }},
		{CriterionCulturalFit, func(e types.CandidateRankEntry) float64 { return e.CulturalFit }},
		{CriterionKeySkills, func(e types.CandidateRankEntry) float64 { return float64(len(e.KeySkills)) }},
	}

	rows := make([]types.ComparisonRow, 0, len(criteria))
	for _, c := range criteria {
		values := make([]float64, 0, len(top))
		for _, e := range top {
			values = append(values, c.value(e))
		}
		rows = append(rows, types.ComparisonRow{Criterion: c.name, Values: values})
	}
	return rows
}

// Statistics aggregates over every ranked application. The average only
// includes scores greater than zero.
func Statistics(rank []types.CandidateRankEntry) types.Statistics {
	stats := types.Statistics{CandidateCount: len(rank)}
	if len(rank) == 0 {
		return stats
	}

	var sum float64
	var scored, complete int
	for _, e := range rank {
		if e.Score > 0 {
			sum += e.Score
			scored++
		}
		if e.Score >= TopCandidateThreshold {
			stats.TopCandidates++
		}
		if e.Scored && e.HasFeedback {
			complete++
		}
	}

	if scored > 0 {
		stats.AverageScore = round2(sum / float64(scored))
	}
	stats.CompletionRate = round2(float64(complete) / float64(len(rank)) * 100)
	return stats
}

// Recommendations lists follow-up actions for the hiring team.
func Recommendations(rank []types.CandidateRankEntry) []string {
	recs := make([]string, 0, 6)
	if len(rank) > 0 {
		best := rank[0]
		recs = append(recs, fmt.Sprintf("Prioritize the interview with %s, the highest ranked candidate.", best.Name))

		if len(rank) > 1 && best.Score-rank[1].Score < closeScoreGap {
			recs = append(recs, fmt.Sprintf("Scores of %s and %s are close; interview both before deciding.",
				best.Name, rank[1].Name))
		}
		if best.CulturalFit > highCulturalFit {
			recs = append(recs, fmt.Sprintf("%s shows a high cultural fit (%s%%).", best.Name, formatNumber(best.CulturalFit)))
		}
		if best.YearsExperience > seniorYears {
			recs = append(recs, fmt.Sprintf("%s brings %d years of experience; consider a senior-level offer.",
				best.Name, best.YearsExperience))
		}
	}
	return append(recs,
		"Check professional references of the finalists.",
		"Run a practical technical assessment before the final decision.",
	)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatNumber prints whole numbers without decimals and others with one.
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
