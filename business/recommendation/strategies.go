package recommendation

import (
	"sort"
	"time"

	"myLearnCore/domain"
)

const (
	maxNeighbors               = 5
	defaultCollaborativeWeight = 0.6
	defaultContentWeight       = 0.4
	neutralFactor              = 0.5

	explainCollaborative = "Recommended by learners with similar interests"
	explainContent       = "Matches your interests and difficulty level"
	explainPopular       = "Popular topic to study"
)

type neighbor struct {
	features   domain.UserFeatures
	similarity float64
}

func similarUsers(target domain.UserFeatureVector, users []domain.UserFeatureVector, limit int) []neighbor {
	out := make([]neighbor, 0, len(users))
	for _, other := range users {
		if other.UserID == target.UserID {
			continue
		}
		out = append(out, neighbor{
			features:   other.Features,
			similarity: userSimilarity(target.Features, other.Features),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].similarity > out[j].similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// collaborative scores every topic preferred by the nearest neighbours by the
// summed neighbour similarity, normalised by neighbour count.
func collaborative(target domain.UserFeatureVector, users []domain.UserFeatureVector) []domain.RecommendationScore {
	neighbors := similarUsers(target, users, maxNeighbors)

	order := make([]string, 0)
	sums := make(map[string]float64)
	for _, n := range neighbors {
		for _, topicID := range n.features.PreferredTopics {
			if _, ok := sums[topicID]; !ok {
				order = append(order, topicID)
			}
			sums[topicID] += n.similarity
		}
	}

	recs := make([]domain.RecommendationScore, 0, len(order))
	for _, topicID := range order {
		score := sums[topicID] / float64(len(neighbors))
		recs = append(recs, domain.RecommendationScore{
			TopicID: topicID,
			Score:   score,
			Factors: domain.ScoreFactors{
				UserPreference:    score,
				ContentRelevance:  neutralFactor,
				DifficultyMatch:   neutralFactor,
				ProgressAlignment: neutralFactor,
				Recency:           neutralFactor,
				Popularity:        neutralFactor,
			},
			Explanation: explainCollaborative,
		})
	}
	sortByScore(recs)
	return recs
}

func contentBased(target domain.UserFeatureVector, topics []domain.TopicFeatureVector, now time.Time) []domain.RecommendationScore {
	recs := make([]domain.RecommendationScore, 0, len(topics))
	for _, t := range topics {
		recs = append(recs, domain.RecommendationScore{
			TopicID: t.TopicID,
			Score:   contentSimilarity(target, t),
			Factors: domain.ScoreFactors{
				UserPreference:    userPreference(target, t),
				ContentRelevance:  contentRelevance(target, t),
				DifficultyMatch:   difficultyMatch(target, t),
				ProgressAlignment: progressAlignment(target, t),
				Recency:           recency(target, now),
				Popularity:        t.Features.Popularity,
			},
			Explanation: explainContent,
		})
	}
	sortByScore(recs)
	return recs
}

// hybrid blends both strategies linearly. A topic found by both gets its
// factors averaged with the same weights. Weights that do not sum to a
// positive value fall back to the defaults.
func hybrid(collab, content []domain.RecommendationScore, cw, tw float64) []domain.RecommendationScore {
	if cw+tw <= 0 {
		cw, tw = defaultCollaborativeWeight, defaultContentWeight
	}
	order := make([]string, 0, len(collab)+len(content))
	blended := make(map[string]domain.RecommendationScore, len(collab)+len(content))

	for _, rec := range collab {
		rec.Score *= cw
		if _, ok := blended[rec.TopicID]; !ok {
			order = append(order, rec.TopicID)
		}
		blended[rec.TopicID] = rec
	}
	for _, rec := range content {
		if existing, ok := blended[rec.TopicID]; ok {
			existing.Score += rec.Score * tw
			existing.Factors = mergeFactors(existing.Factors, rec.Factors, cw, tw)
			blended[rec.TopicID] = existing
			continue
		}
		rec.Score *= tw
		order = append(order, rec.TopicID)
		blended[rec.TopicID] = rec
	}

	recs := make([]domain.RecommendationScore, 0, len(order))
	for _, id := range order {
		recs = append(recs, blended[id])
	}
	sortByScore(recs)
	return recs
}

func mergeFactors(a, b domain.ScoreFactors, wa, wb float64) domain.ScoreFactors {
	avg := func(x, y float64) float64 { return (x*wa + y*wb) / (wa + wb) }
	return domain.ScoreFactors{
		UserPreference:    avg(a.UserPreference, b.UserPreference),
		ContentRelevance:  avg(a.ContentRelevance, b.ContentRelevance),
		DifficultyMatch:   avg(a.DifficultyMatch, b.DifficultyMatch),
		ProgressAlignment: avg(a.ProgressAlignment, b.ProgressAlignment),
		Recency:           avg(a.Recency, b.Recency),
		Popularity:        avg(a.Popularity, b.Popularity),
	}
}

// popular ranks topics by popularity alone; used when no model or user
// features are available.
func popular(topics []domain.TopicFeatureVector, limit int) []domain.RecommendationScore {
	sorted := append([]domain.TopicFeatureVector(nil), topics...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Features.Popularity > sorted[j].Features.Popularity
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	recs := make([]domain.RecommendationScore, 0, len(sorted))
	for _, t := range sorted {
		recs = append(recs, domain.RecommendationScore{
			TopicID: t.TopicID,
			Score:   t.Features.Popularity,
			Factors: domain.ScoreFactors{
				UserPreference:    neutralFactor,
				ContentRelevance:  neutralFactor,
				DifficultyMatch:   neutralFactor,
				ProgressAlignment: neutralFactor,
				Recency:           neutralFactor,
				Popularity:        t.Features.Popularity,
			},
			Explanation: explainPopular,
		})
	}
	return recs
}

func sortByScore(recs []domain.RecommendationScore) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
}
