package behavior

import (
	"slices"
	"sort"
	"strconv"
	"time"

	"myLearnCore/domain"

	"gonum.org/v1/gonum/floats"
)

const (
	placeholderCohortScore = 75.0
	highEngagementCohort   = 70.0
)

func defaultCohorts() []domain.CohortAnalysis {
	cohorts := []domain.CohortAnalysis{
		{CohortID: "ege_students", CohortType: domain.CohortGoal, CohortValue: "ege"},
		{CohortID: "school_students", CohortType: domain.CohortGoal, CohortValue: "school"},
		{CohortID: "high_engagement", CohortType: domain.CohortBehavior, CohortValue: "high_engagement"},
	}
	for i := range cohorts {
		cohorts[i].Users = []string{}
		cohorts[i].Trends = []domain.CohortTrend{}
	}
	return cohorts
}

// member matches goal cohorts against favorite topics, the only goal-like
// signal a profile carries. Grade and registration cohorts match nobody.
func member(c domain.CohortAnalysis, p domain.UserBehaviorProfile) bool {
	switch c.CohortType {
	case domain.CohortGoal:
		return slices.Contains(p.ContentPreferences.FavoriteTopics, c.CohortValue)
	case domain.CohortBehavior:
		return p.EngagementMetrics.EngagementScore > highEngagementCohort
	default:
		return false
	}
}

// recomputeCohort rebuilds membership, metrics and weekly trends of c from
// profiles. The result depends only on its inputs.
func recomputeCohort(c domain.CohortAnalysis, profiles []domain.UserBehaviorProfile, now time.Time) domain.CohortAnalysis {
	members := []domain.UserBehaviorProfile{}
	for _, p := range profiles {
		if member(c, p) {
			members = append(members, p)
		}
	}

	c.Users = make([]string, 0, len(members))
	for _, p := range members {
		c.Users = append(c.Users, p.UserID)
	}
	c.Metrics = cohortMetrics(members)
	c.Trends = cohortTrends(members, now)
	return c
}

func engagementAndCompletion(profiles []domain.UserBehaviorProfile) (engagement, completion float64) {
	scores := make([]float64, 0, len(profiles))
	rates := make([]float64, 0, len(profiles))
	for _, p := range profiles {
		scores = append(scores, p.EngagementMetrics.EngagementScore)
		rates = append(rates, p.EngagementMetrics.CompletionRate)
	}
	n := float64(len(profiles))
	return floats.Sum(scores) / n, floats.Sum(rates) / n
}

// cohortMetrics averages engagement and completion; retention and score are
// fixed placeholders.
func cohortMetrics(members []domain.UserBehaviorProfile) domain.CohortMetrics {
	if len(members) == 0 {
		return domain.CohortMetrics{}
	}
	engagement, completion := engagementAndCompletion(members)
	return domain.CohortMetrics{
		Size:              len(members),
		RetentionRate:     placeholderRetention,
		AverageEngagement: engagement,
		CompletionRate:    completion,
		AverageScore:      placeholderCohortScore,
		ChurnRate:         1 - placeholderRetention,
	}
}

// cohortTrends buckets members by whole weeks since their profile was last
// updated, nearest week first.
func cohortTrends(members []domain.UserBehaviorProfile, now time.Time) []domain.CohortTrend {
	buckets := make(map[int][]domain.UserBehaviorProfile)
	for _, p := range members {
		w := int(now.Sub(p.LastUpdated) / week)
		buckets[w] = append(buckets[w], p)
	}

	weeks := make([]int, 0, len(buckets))
	for w := range buckets {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	trends := make([]domain.CohortTrend, 0, len(weeks))
	for _, w := range weeks {
		engagement, completion := engagementAndCompletion(buckets[w])
		trends = append(trends, domain.CohortTrend{
			Period:          "Week " + strconv.Itoa(w),
			RetentionRate:   placeholderRetention,
			EngagementScore: engagement,
			CompletionRate:  completion,
		})
	}
	return trends
}
