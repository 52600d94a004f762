package recommendation

import (
	"math"

	"myLearnCore/domain"
)

const difficultyTolerance = 0.3

// applyContextFilters runs the time, difficulty and section filters in that
// order. A set filter drops topics without known features.
func applyContextFilters(recs []domain.RecommendationScore, rc domain.RecommendationContext, topics map[string]domain.TopicFeatureVector) []domain.RecommendationScore {
	keep := func(pred func(domain.TopicFeatures) bool) {
		out := recs[:0:0]
		for _, rec := range recs {
			if t, ok := topics[rec.TopicID]; ok && pred(t.Features) {
				out = append(out, rec)
			}
		}
		recs = out
	}

	if rc.AvailableTime != 0 {
		keep(func(f domain.TopicFeatures) bool { return f.EstimatedTime <= rc.AvailableTime })
	}
	if rc.DifficultyPreference != 0 {
		keep(func(f domain.TopicFeatures) bool {
			return math.Abs(f.Difficulty-rc.DifficultyPreference) < difficultyTolerance
		})
	}
	if rc.Section != "" {
		keep(func(f domain.TopicFeatures) bool { return f.Section == rc.Section })
	}
	return recs
}
