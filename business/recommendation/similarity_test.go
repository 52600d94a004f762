//go:build !integration

package recommendation

import (
	"fmt"
	"math"
	"testing"
	"time"

	"myLearnCore/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSimilarity(t *testing.T) {
	base := domain.UserFeatures{
		Grade:                  9,
		Goal:                   "ege",
		AverageSessionDuration: 20,
		PreferredTopics:        []string{"algebra", "geometry"},
	}

	tests := []struct {
		name  string
		other domain.UserFeatures
		want  float64
	}{
		{"identical", base, 1.0},
		{
			"partial overlap",
			domain.UserFeatures{
				Grade:                  11,
				Goal:                   "school",
				AverageSessionDuration: 40,
				PreferredTopics:        []string{"algebra", "physics"},
			},
			// 0 + 0.5*0.2 + 0.5*0.3 + 0.5*0.2
			0.35,
		},
		{
			"no durations",
			domain.UserFeatures{Grade: 9, Goal: "ege"},
			// 0.3 + 0.2 + 0 + (1 - 20/20)*0.2
			0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, userSimilarity(base, tt.other), 1e-9)
		})
	}
}

func TestContentScoring(t *testing.T) {
	user := domain.UserFeatureVector{
		UserID: "u1",
		Features: domain.UserFeatures{
			Goal:            "ege",
			AverageScore:    60,
			PreferredTopics: []string{"algebra_basics"},
		},
	}
	topic := domain.TopicFeatureVector{
		TopicID: "quadratic_equations",
		Features: domain.TopicFeatures{
			Difficulty:    0.7,
			Tags:          []string{"algebra", "equations"},
			Prerequisites: []string{"algebra_basics", "fractions"},
		},
	}

	assert.InDelta(t, 0.5, userPreference(user, topic), 1e-9)
	assert.InDelta(t, 0.9, difficultyMatch(user, topic), 1e-9)
	assert.InDelta(t, 0.5, progressAlignment(user, topic), 1e-9)
	assert.InDelta(t, 0.62, contentSimilarity(user, topic), 1e-9)
	assert.InDelta(t, 0.5, contentRelevance(user, topic), 1e-9)

	preferred := topic
	preferred.TopicID = "algebra_basics"
	assert.InDelta(t, 1.0, userPreference(user, preferred), 1e-9)
	assert.InDelta(t, 0.0, progressAlignment(user, preferred), 1e-9)

	hard := topic
	hard.Features.Difficulty = 0.8
	assert.InDelta(t, 0.9, contentRelevance(user, hard), 1e-9)

	school := user
	school.Features.Goal = "school"
	easy := topic
	easy.Features.Difficulty = 0.3
	assert.InDelta(t, 0.8, contentRelevance(school, easy), 1e-9)
}

func TestRecency(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	u := domain.UserFeatureVector{LastUpdated: now.AddDate(0, 0, -15)}
	assert.InDelta(t, 0.5, recency(u, now), 1e-9)

	u.LastUpdated = now.AddDate(0, -3, 0)
	assert.InDelta(t, 1.0, recency(u, now), 1e-9)
}

func TestHybridBlend(t *testing.T) {
	collab := []domain.RecommendationScore{
		{TopicID: "a", Score: 1.0, Factors: domain.ScoreFactors{UserPreference: 1.0}},
		{TopicID: "b", Score: 1.0, Factors: domain.ScoreFactors{UserPreference: 1.0}},
	}
	content := []domain.RecommendationScore{
		{TopicID: "b", Score: 0.6, Factors: domain.ScoreFactors{UserPreference: 0}},
		{TopicID: "c", Score: 0.5},
	}

	got := hybrid(collab, content, 0.6, 0.4)
	if assert.Len(t, got, 3) {
		assert.Equal(t, "b", got[0].TopicID)
		assert.InDelta(t, 0.84, got[0].Score, 1e-9)
		assert.InDelta(t, 0.6, got[0].Factors.UserPreference, 1e-9)
		assert.Equal(t, "a", got[1].TopicID)
		assert.InDelta(t, 0.6, got[1].Score, 1e-9)
		assert.Equal(t, "c", got[2].TopicID)
		assert.InDelta(t, 0.2, got[2].Score, 1e-9)
	}
}

// peers differ from the target only by grade, so similarity is 1 - 0.05*gap.
func gradePeers(target domain.UserFeatureVector, n int) []domain.UserFeatureVector {
	users := []domain.UserFeatureVector{target}
	for i := n - 1; i >= 0; i-- {
		f := target.Features
		f.Grade = target.Features.Grade + i
		f.PreferredTopics = []string{"x", fmt.Sprintf("t%d", i)}
		users = append(users, domain.UserFeatureVector{UserID: fmt.Sprintf("u%d", i), Features: f})
	}
	return users
}

func TestSimilarUsers(t *testing.T) {
	target := domain.UserFeatureVector{
		UserID: "me",
		Features: domain.UserFeatures{
			Grade:                  5,
			Goal:                   "ege",
			AverageSessionDuration: 20,
			PreferredTopics:        []string{"x"},
		},
	}
	users := gradePeers(target, 7)

	tests := []struct {
		name  string
		limit int
		want  []float64
	}{
		{"top five", maxNeighbors, []float64{1, 0.95, 0.9, 0.85, 0.8}},
		{"limit above population", 10, []float64{1, 0.95, 0.9, 0.85, 0.8, 0.75, 0.7}},
		{"single", 1, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarUsers(target, users, tt.limit)
			require.Len(t, got, len(tt.want))
			for i, n := range got {
				assert.InDelta(t, tt.want[i], n.similarity, 1e-9)
				assert.Equal(t, target.Features.Grade+i, n.features.Grade)
			}
		})
	}
}

func TestCollaborative(t *testing.T) {
	target := domain.UserFeatureVector{
		UserID: "me",
		Features: domain.UserFeatures{
			Grade:                  5,
			Goal:                   "ege",
			AverageSessionDuration: 20,
			PreferredTopics:        []string{"x"},
		},
	}

	t.Run("five nearest of seven, divided by five", func(t *testing.T) {
		recs := collaborative(target, gradePeers(target, 7))

		scores := make(map[string]float64, len(recs))
		for _, r := range recs {
			scores[r.TopicID] = r.Score
			assert.Equal(t, explainCollaborative, r.Explanation)
			assert.Equal(t, r.Score, r.Factors.UserPreference)
			assert.Equal(t, neutralFactor, r.Factors.Popularity)
		}
		want := map[string]float64{"x": 0.9, "t0": 0.2, "t1": 0.19, "t2": 0.18, "t3": 0.17, "t4": 0.16}
		require.Len(t, scores, len(want))
		for id, score := range want {
			assert.InDelta(t, score, scores[id], 1e-9, id)
		}
		assert.Equal(t, "x", recs[0].TopicID)
	})

	t.Run("alone", func(t *testing.T) {
		recs := collaborative(target, []domain.UserFeatureVector{target})
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	})
}

func TestHybridWeightsFallback(t *testing.T) {
	collab := []domain.RecommendationScore{{TopicID: "a", Score: 1, Factors: domain.ScoreFactors{UserPreference: 1}}}
	content := []domain.RecommendationScore{{TopicID: "a", Score: 0.5, Factors: domain.ScoreFactors{UserPreference: 0.5}}}

	tests := []struct {
		name   string
		cw, tw float64
	}{
		{"cancelling", 0.5, -0.5},
		{"both negative", -1, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hybrid(collab, content, tt.cw, tt.tw)
			require.Len(t, got, 1)
			// 1*0.6 + 0.5*0.4
			assert.InDelta(t, 0.8, got[0].Score, 1e-9)
			assert.InDelta(t, 0.8, got[0].Factors.UserPreference, 1e-9)
			assert.False(t, math.IsNaN(got[0].Factors.Recency))
		})
	}
}

func TestApplyContextFilters(t *testing.T) {
	topics := map[string]domain.TopicFeatureVector{
		"long":  {TopicID: "long", Features: domain.TopicFeatures{EstimatedTime: 60, Difficulty: 0.5, Section: "algebra"}},
		"short": {TopicID: "short", Features: domain.TopicFeatures{EstimatedTime: 20, Difficulty: 0.9, Section: "geometry"}},
	}
	recs := []domain.RecommendationScore{{TopicID: "long"}, {TopicID: "short"}, {TopicID: "unknown"}}

	ids := func(rs []domain.RecommendationScore) []string {
		out := []string{}
		for _, r := range rs {
			out = append(out, r.TopicID)
		}
		return out
	}

	assert.Equal(t, []string{"short"}, ids(applyContextFilters(recs, domain.RecommendationContext{AvailableTime: 30}, topics)))
	assert.Equal(t, []string{"long", "short"}, ids(applyContextFilters(recs, domain.RecommendationContext{AvailableTime: 90}, topics)))
	assert.Equal(t, []string{"long"}, ids(applyContextFilters(recs, domain.RecommendationContext{DifficultyPreference: 0.4}, topics)))
	assert.Equal(t, []string{"short"}, ids(applyContextFilters(recs, domain.RecommendationContext{Section: "geometry"}, topics)))
	assert.Equal(t, []string{"long", "short", "unknown"}, ids(applyContextFilters(recs, domain.RecommendationContext{}, topics)))
}
