package recommendation

import (
	"math"
	"slices"
	"strings"
	"time"

	"myLearnCore/domain"
)

const (
	goalWeight       = 0.3
	gradeWeight      = 0.2
	topicWeight      = 0.3
	behaviorWeight   = 0.2
	maxGradeDistance = 4.0

	preferenceWeight = 0.4
	difficultyWeight = 0.3
	progressWeight   = 0.3

	recencyHorizonDays = 30.0
)

// userSimilarity blends goal, grade, shared preferred topics and session
// length closeness into [0, 1] (negative only for grade gaps above 4).
func userSimilarity(a, b domain.UserFeatures) float64 {
	similarity, total := 0.0, 0.0

	if a.Goal == b.Goal {
		similarity += goalWeight
	}
	total += goalWeight

	gradeDiff := math.Abs(float64(a.Grade - b.Grade))
	similarity += (1 - gradeDiff/maxGradeDistance) * gradeWeight
	total += gradeWeight

	common := 0
	for _, t := range a.PreferredTopics {
		if slices.Contains(b.PreferredTopics, t) {
			common++
		}
	}
	similarity += float64(common) / math.Max(float64(len(a.PreferredTopics)), 1) * topicWeight
	total += topicWeight

	d1, d2 := a.AverageSessionDuration, b.AverageSessionDuration
	behavior := 1 - math.Abs(d1-d2)/math.Max(math.Max(d1, d2), 1)
	similarity += behavior * behaviorWeight
	total += behaviorWeight

	return similarity / total
}

// userPreference is 1 for an already preferred topic, otherwise the share of
// topic tags that occur inside any preferred topic id.
func userPreference(u domain.UserFeatureVector, t domain.TopicFeatureVector) float64 {
	if slices.Contains(u.Features.PreferredTopics, t.TopicID) {
		return 1
	}

	matched := 0
	for _, tag := range t.Features.Tags {
		for _, pref := range u.Features.PreferredTopics {
			if strings.Contains(pref, tag) {
				matched++
				break
			}
		}
	}
	return math.Min(float64(matched)/math.Max(float64(len(t.Features.Tags)), 1), 1)
}

func difficultyMatch(u domain.UserFeatureVector, t domain.TopicFeatureVector) float64 {
	level := u.Features.AverageScore / 100
	return math.Max(0, 1-math.Abs(level-t.Features.Difficulty))
}

// progressAlignment is 0 for topics the user already prefers, otherwise the
// share of prerequisites found among preferred topics.
func progressAlignment(u domain.UserFeatureVector, t domain.TopicFeatureVector) float64 {
	if slices.Contains(u.Features.PreferredTopics, t.TopicID) {
		return 0
	}
	done := 0
	for _, p := range t.Features.Prerequisites {
		if slices.Contains(u.Features.PreferredTopics, p) {
			done++
		}
	}
	return float64(done) / math.Max(float64(len(t.Features.Prerequisites)), 1)
}

func contentRelevance(u domain.UserFeatureVector, t domain.TopicFeatureVector) float64 {
	switch {
	case u.Features.Goal == "ege" && t.Features.Difficulty > 0.7:
		return 0.9
	case u.Features.Goal == "school" && t.Features.Difficulty < 0.5:
		return 0.8
	default:
		return 0.5
	}
}

// recency grows with days since the user's features last changed, capped at 1.
func recency(u domain.UserFeatureVector, now time.Time) float64 {
	days := now.Sub(u.LastUpdated).Hours() / 24
	return math.Min(days/recencyHorizonDays, 1)
}

func contentSimilarity(u domain.UserFeatureVector, t domain.TopicFeatureVector) float64 {
	score := userPreference(u, t)*preferenceWeight +
		difficultyMatch(u, t)*difficultyWeight +
		progressAlignment(u, t)*progressWeight
	return score / (preferenceWeight + difficultyWeight + progressWeight)
}
