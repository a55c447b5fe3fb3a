package rendering

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/types"
)

func rankEntry(pos int, name string, score float64) types.CandidateRankEntry {
	e := types.CandidateRankEntry{
		Position:           pos,
		ApplicationID:      uuid.New(),
		CandidateID:        uuid.New(),
		Name:               name,
		Email:              name + "@example.com",
		Score:              score,
		Scored:             true,
		HasFeedback:        true,
		YearsExperience:    pos + 2,
		FeedbackAttributes: types.EmptyFeedback(),
	}
	e.KeySkills = []string{"Go", "SQL"}
	return e
}

// sampleReport returns a populated GENERATING report with four ranked candidates.
func sampleReport() *types.Report {
	r := types.NewReport(uuid.New(), uuid.New(), "Backend Engineer")
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.StartedAt = &started

	r.Ranking = []types.CandidateRankEntry{
		rankEntry(1, "Ana", 90),
		rankEntry(2, "Luis", 85),
		rankEntry(3, "Marta", 40),
		rankEntry(4, "Pablo", 12.5),
	}
	r.TopEntries = r.Ranking[:3]
	r.ExecutiveSummary = &types.ExecutiveSummary{
		BestCandidate:       types.CandidateRef{CandidateID: r.Ranking[0].CandidateID, Name: "Ana", Score: 90},
		PrimaryReason:       "Ana obtained the highest AI score (90/100) among the applicants for Backend Engineer.",
		SecondaryReasons:    []string{"0% match with the position requirements", "3 years of professional experience"},
		FinalRecommendation: "Move forward with Ana as the preferred candidate. Keep Luis and Marta as secondary options.",
	}
	r.ComparisonMatrix = []types.ComparisonRow{
		{Criterion: "IA score", Values: []float64{90, 85, 40}},
		{Criterion: "Match percentage", Values: []float64{0, 0, 0}},
		{Criterion: "Years of experience", Values: []float64{3, 4, 5}},
		{Criterion: "Cultural fit %", Values: []float64{0, 0, 0}},
		{Criterion: "Key skills", Values: []float64{2, 2, 2}},
	}
	r.Statistics = types.Statistics{CandidateCount: 4, AverageScore: 56.88, TopCandidates: 2, CompletionRate: 100}
	r.Recommendations = []string{"Prioritize the interview with Ana, the highest ranked candidate."}
	return r
}
