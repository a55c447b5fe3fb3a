package ranking

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scorePtr(v float64) *float64 { return &v }

func app(name string, score *float64, feedback *string) types.Application {
	return types.Application{
		ID:        uuid.New(),
		Candidate: types.Candidate{ID: uuid.New(), Name: name, Email: name + "@example.com"},
		Score:     score,
		Feedback:  feedback,
	}
}

func TestBuild_SortsByScoreDescending(t *testing.T) {
	apps := []types.Application{
		app("low", scorePtr(40), nil),
		app("high", scorePtr(90), nil),
		app("mid", scorePtr(85), nil),
	}

	result := Build(apps)

	require.Len(t, result.Ranking, 3)
	assert.Equal(t, "high", result.Ranking[0].Name)
	assert.Equal(t, "mid", result.Ranking[1].Name)
	assert.Equal(t, "low", result.Ranking[2].Name)
	assert.Len(t, result.Top, 3)
	assert.Equal(t, result.Ranking, result.Top)
}

func TestBuild_StableForTiesAndMissingScores(t *testing.T) {
	apps := []types.Application{
		app("unscored-1", nil, nil),
		app("tie-a", scorePtr(70), nil),
		app("zero", scorePtr(0), nil),
		app("tie-b", scorePtr(70), nil),
		app("unscored-2", nil, nil),
	}

	result := Build(apps)

	names := make([]string, 0, len(result.Ranking))
	for _, e := range result.Ranking {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"tie-a", "tie-b", "unscored-1", "zero", "unscored-2"}, names)
	assert.False(t, result.Ranking[2].Scored)
	assert.Equal(t, 0.0, result.Ranking[2].Score)
	assert.True(t, result.Ranking[3].Scored)
}

func TestBuild_DoesNotReorderInput(t *testing.T) {
	apps := []types.Application{app("b", scorePtr(1), nil), app("a", scorePtr(2), nil)}
	Build(apps)
	assert.Equal(t, "b", apps[0].Candidate.Name)
}

func TestBuild_PositionsAreContiguous(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n <= 20; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			apps := make([]types.Application, 0, n)
			for i := 0; i < n; i++ {
				var s *float64
				if rng.Intn(4) > 0 {
					s = scorePtr(float64(rng.Intn(101)))
				}
				apps = append(apps, app(fmt.Sprintf("c%d", i), s, nil))
			}

			result := Build(apps)

			require.Len(t, result.Ranking, n)
			for i, e := range result.Ranking {
				assert.Equal(t, i+1, e.Position)
				if i > 0 {
					assert.GreaterOrEqual(t, result.Ranking[i-1].Score, e.Score)
				}
			}
			assert.Len(t, result.Top, min(3, n))
			assert.Equal(t, result.Ranking[:min(3, n)], result.Top)
		})
	}
}

func TestBuild_CopiesCandidateAndFeedback(t *testing.T) {
	feedback := `{"matching": 75, "habilidades_clave": ["Go"], "fit_cultural": 85}`
	a := app("Ana", scorePtr(91), &feedback)
	a.Candidate.YearsExperience = 6
	a.Candidate.Phone = "+34 600 000 000"

	result := Build([]types.Application{a})
	e := result.Ranking[0]

	assert.Equal(t, 1, e.Position)
	assert.Equal(t, a.ID, e.ApplicationID)
	assert.Equal(t, a.Candidate.ID, e.CandidateID)
	assert.Equal(t, "Ana@example.com", e.Email)
	assert.Equal(t, "+34 600 000 000", e.Phone)
	assert.Equal(t, 6, e.YearsExperience)
	assert.True(t, e.Scored)
	assert.True(t, e.HasFeedback)
	assert.Equal(t, 75.0, e.MatchPercentage)
	assert.Equal(t, []string{"Go"}, e.KeySkills)
	assert.Equal(t, 85.0, e.CulturalFit)
}

func TestBuild_Empty(t *testing.T) {
	result := Build(nil)
	assert.Empty(t, result.Ranking)
	assert.Empty(t, result.Top)
}
