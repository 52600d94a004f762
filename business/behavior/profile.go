package behavior

import (
	"fmt"
	"math"
	"sort"
	"time"

	"myLearnCore/domain"

	"gonum.org/v1/gonum/stat"
)

const (
	stableVarianceThreshold = 10000.0
	varianceScale           = 100000.0
	maxPatternConfidence    = 0.9
	completionGoodRate      = 0.7
	persistentRetries       = 2

	trendSlopeThreshold = 0.5
	maxTrendConfidence  = 0.95

	highEngagement   = 70.0
	mediumEngagement = 40.0

	placeholderRetention      = 0.85
	placeholderOptimalMinutes = 30.0
	favoriteTopicCount        = 3

	week = 7 * 24 * time.Hour
)

// ComputeProfile derives a behavior profile from the user's raw sessions and
// attempts. It is pure: the same inputs and now always give the same profile.
func ComputeProfile(userID string, sessions []domain.StudySession, attempts []domain.TestAttempt, now time.Time) domain.UserBehaviorProfile {
	return domain.UserBehaviorProfile{
		UserID:             userID,
		LearningPatterns:   learningPatterns(sessions, attempts, now),
		EngagementMetrics:  engagementMetrics(sessions, attempts, now),
		PerformanceTrends:  performanceTrends(attempts),
		ContentPreferences: contentPreferences(sessions, attempts),
		TimePatterns:       timePatterns(sessions, now.Location()),
		SocialPatterns:     socialPatterns(),
		LastUpdated:        now,
	}
}

func positiveDurations(sessions []domain.StudySession) []float64 {
	out := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.Duration > 0 {
			out = append(out, float64(s.Duration))
		}
	}
	return out
}

func attemptScores(attempts []domain.TestAttempt) []float64 {
	out := make([]float64, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, a.Score)
	}
	return out
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

func learningPatterns(sessions []domain.StudySession, attempts []domain.TestAttempt, now time.Time) []domain.LearningPattern {
	patterns := []domain.LearningPattern{}

	// variance is over raw millisecond durations, so confidence is not floored
	if durations := positiveDurations(sessions); len(durations) > 0 {
		avg := stat.Mean(durations, nil)
		variance := stat.PopVariance(durations, nil)
		consistent := variance < stableVarianceThreshold
		label := "unstable"
		if consistent {
			label = "stable"
		}
		patterns = append(patterns, domain.LearningPattern{
			PatternID:   "session_duration_consistency",
			Type:        "session_duration",
			Description: fmt.Sprintf("Session length is %s", label),
			Confidence:  math.Min(maxPatternConfidence, 1-variance/varianceScale),
			Data: map[string]any{
				"averageDuration": avg,
				"variance":        variance,
				"consistency":     consistent,
			},
			LastObserved: now,
		})
	}

	rates := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		rates = append(rates, float64(s.BlocksCompleted)/math.Max(float64(s.TotalBlocks), 1))
	}
	avgRate := mean(rates)
	trend := "needs_attention"
	if avgRate > completionGoodRate {
		trend = "improving"
	}
	patterns = append(patterns, domain.LearningPattern{
		PatternID:   "completion_behavior",
		Type:        "completion_rate",
		Description: fmt.Sprintf("Average completion: %d%%", int(math.Round(avgRate*100))),
		Confidence:  0.85,
		Data: map[string]any{
			"averageCompletionRate": avgRate,
			"trend":                 trend,
		},
		LastObserved: now,
	})

	retries := 0
	for _, a := range attempts {
		for _, q := range a.Questions {
			if !q.IsCorrect {
				retries++
				break
			}
		}
	}
	persistence := "low"
	if retries > persistentRetries {
		persistence = "high"
	}
	patterns = append(patterns, domain.LearningPattern{
		PatternID:   "retry_behavior",
		Type:        "retry_behavior",
		Description: fmt.Sprintf("%d attempts with at least one wrong answer", retries),
		Confidence:  0.8,
		Data: map[string]any{
			"retryCount":  retries,
			"persistence": persistence,
		},
		LastObserved: now,
	})

	return patterns
}

func engagementMetrics(sessions []domain.StudySession, attempts []domain.TestAttempt, now time.Time) domain.EngagementMetrics {
	weekAgo := now.Add(-week)
	recent, complete := 0, 0
	for _, s := range sessions {
		if !s.StartTime.Before(weekAgo) {
			recent++
		}
		if s.BlocksCompleted == s.TotalBlocks {
			complete++
		}
	}

	m := domain.EngagementMetrics{
		SessionFrequency:       float64(recent) / 7,
		AverageSessionDuration: mean(positiveDurations(sessions)) / float64(time.Minute/time.Millisecond),
		RetentionRate:          placeholderRetention,
		AverageScore:           mean(attemptScores(attempts)),
		DropoffPoints:          placeholderDropoffPoints(),
	}
	if len(sessions) > 0 {
		m.CompletionRate = float64(complete) / float64(len(sessions))
	}
	m.EngagementScore = math.Min(100, m.SessionFrequency*20+m.AverageSessionDuration*2+m.CompletionRate*40)

	switch {
	case m.EngagementScore > highEngagement:
		m.MotivationLevel = domain.MotivationHigh
	case m.EngagementScore > mediumEngagement:
		m.MotivationLevel = domain.MotivationMedium
	default:
		m.MotivationLevel = domain.MotivationLow
	}
	return m
}

// placeholderDropoffPoints is fixed data; dropoff is not derived from sessions.
func placeholderDropoffPoints() []domain.DropoffPoint {
	return []domain.DropoffPoint{
		{
			Screen:                   "TheoryBlock",
			Frequency:                0.3,
			AverageTimeBeforeDropoff: 120000,
			CommonReasons:            []string{"complex content", "long texts"},
		},
		{
			Screen:                   "MiniTest",
			Frequency:                0.2,
			AverageTimeBeforeDropoff: 30000,
			CommonReasons:            []string{"hard questions", "unsure about answers"},
		},
	}
}

func performanceTrends(attempts []domain.TestAttempt) []domain.PerformanceTrend {
	trends := []domain.PerformanceTrend{}
	if len(attempts) < 2 {
		return trends
	}

	points := make([]domain.TrendPoint, 0, len(attempts))
	for _, a := range attempts {
		points = append(points, domain.TrendPoint{
			Date:  a.StartTime.UTC().Format(time.DateOnly),
			Value: a.Score,
		})
	}

	slope, confidence := trendSlope(attemptScores(attempts))
	direction := domain.TrendStable
	switch {
	case slope > trendSlopeThreshold:
		direction = domain.TrendImproving
	case slope < -trendSlopeThreshold:
		direction = domain.TrendDeclining
	}

	return append(trends, domain.PerformanceTrend{
		Metric:     "average_score",
		Values:     points,
		Trend:      direction,
		Slope:      slope,
		Confidence: confidence,
	})
}

// trendSlope fits values against their index by least squares.
func trendSlope(values []float64) (slope, confidence float64) {
	if len(values) < 2 {
		return 0, 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope = stat.LinearRegression(xs, values, nil, false)
	return slope, math.Min(maxTrendConfidence, 0.5+math.Abs(slope)*0.3)
}

func contentPreferences(sessions []domain.StudySession, attempts []domain.TestAttempt) domain.ContentPreferences {
	type topicCount struct {
		id    string
		count int
	}
	counts := []topicCount{}
	index := make(map[string]int)
	for _, s := range sessions {
		i, ok := index[s.TopicID]
		if !ok {
			i = len(counts)
			index[s.TopicID] = i
			counts = append(counts, topicCount{id: s.TopicID})
		}
		counts[i].count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })

	favorites := []string{}
	for i := 0; i < len(counts) && i < favoriteTopicCount; i++ {
		favorites = append(favorites, counts[i].id)
	}

	return domain.ContentPreferences{
		FavoriteTopics:       favorites,
		AvoidedTopics:        []string{},
		PreferredDifficulty:  mean(attemptScores(attempts)) / 100,
		PreferredContentType: "interactive",
		LearningStyle:        "visual",
		PacePreference:       "normal",
	}
}

func timePatterns(sessions []domain.StudySession, loc *time.Location) domain.TimePatterns {
	var hours [24]int
	var days [7]int
	for _, s := range sessions {
		t := s.StartTime.In(loc)
		hours[t.Hour()]++
		days[t.Weekday()]++
	}

	p := domain.TimePatterns{
		PreferredStudyTimes:    make([]domain.HourFrequency, 0, len(hours)),
		WeeklyPattern:          make([]domain.DaySessions, 0, len(days)),
		SessionGaps:            []domain.SessionGap{},
		OptimalSessionDuration: placeholderOptimalMinutes,
		BreakPatterns:          []domain.BreakPattern{},
	}
	for h, n := range hours {
		p.PreferredStudyTimes = append(p.PreferredStudyTimes, domain.HourFrequency{Hour: h, Frequency: n})
	}
	for d, n := range days {
		p.WeeklyPattern = append(p.WeeklyPattern, domain.DaySessions{Day: d, Sessions: n})
	}
	return p
}

// socialPatterns has no peer data to work from and returns fixed values.
func socialPatterns() domain.SocialPatterns {
	return domain.SocialPatterns{
		ComparisonGroup:   "grade_9_ege",
		PercentileRank:    75,
		CompetitiveSpirit: "medium",
		SocialMotivation:  0.6,
		PeerInfluence:     0.4,
	}
}
