package behavior

import (
	"math"
	"time"

	"myLearnCore/domain"
)

const (
	dropoutInterventionRisk = 0.7
	lowEngagementScore      = 50.0
	lowSessionFrequency     = 0.5
	advancedContentScore    = 80.0
)

// ComputeInsights derives predictions and the threshold-triggered
// recommendations, risk factors and opportunities from a profile.
func ComputeInsights(profile domain.UserBehaviorProfile, now time.Time) domain.PredictiveInsights {
	em := profile.EngagementMetrics
	completion := completionProbability(profile)
	dropout := dropoutRisk(profile)

	insights := domain.PredictiveInsights{
		UserID: profile.UserID,
		Predictions: []domain.Prediction{
			{
				Type:       "completion_probability",
				Value:      completion,
				Confidence: 0.8,
				Timeframe:  30,
				Factors:    []string{"engagement_score", "completion_rate", "motivation_level"},
			},
			{
				Type:       "dropout_risk",
				Value:      dropout,
				Confidence: 0.75,
				Timeframe:  7,
				Factors:    []string{"session_frequency", "engagement_trend", "performance_decline"},
			},
		},
		Recommendations: []domain.InsightRecommendation{},
		RiskFactors:     []domain.RiskFactor{},
		Opportunities:   []domain.Opportunity{},
		LastUpdated:     now,
	}

	if dropout > dropoutInterventionRisk {
		insights.Recommendations = append(insights.Recommendations, domain.InsightRecommendation{
			Type:           "intervention",
			Priority:       "high",
			Title:          "High dropout risk",
			Description:    "Offer personal support and motivation",
			ExpectedImpact: 0.3,
			Implementation: "Send a personalized support message",
		})
	}
	if em.EngagementScore < lowEngagementScore {
		insights.Recommendations = append(insights.Recommendations, domain.InsightRecommendation{
			Type:           "optimization",
			Priority:       "medium",
			Title:          "Low engagement",
			Description:    "Tune content and interface to raise engagement",
			ExpectedImpact: 0.25,
			Implementation: "A/B test alternative content approaches",
		})
	}
	if em.SessionFrequency < lowSessionFrequency {
		insights.RiskFactors = append(insights.RiskFactors, domain.RiskFactor{
			Factor:      "Low session frequency",
			Severity:    "medium",
			Probability: 0.6,
			Mitigation:  "Increase reminder and motivational notifications",
		})
	}
	if em.AverageScore > advancedContentScore {
		insights.Opportunities = append(insights.Opportunities, domain.Opportunity{
			Area:        "Advanced content",
			Potential:   0.4,
			Effort:      0.3,
			ROI:         1.3,
			Description: "Ready for harder material",
		})
	}
	return insights
}

func hasTrend(profile domain.UserBehaviorProfile, direction domain.TrendDirection) bool {
	for _, t := range profile.PerformanceTrends {
		if t.Trend == direction {
			return true
		}
	}
	return false
}

func completionProbability(profile domain.UserBehaviorProfile) float64 {
	em := profile.EngagementMetrics
	p := 0.5
	p += em.EngagementScore / 100 * 0.3
	p += math.Min(em.SessionFrequency/2, 1) * 0.2
	if hasTrend(profile, domain.TrendImproving) {
		p += 0.1
	}
	return math.Min(p, 1)
}

func dropoutRisk(profile domain.UserBehaviorProfile) float64 {
	em := profile.EngagementMetrics
	risk := 0.1
	switch {
	case em.EngagementScore < 30:
		risk += 0.4
	case em.EngagementScore < 50:
		risk += 0.2
	}
	if em.SessionFrequency < 0.3 {
		risk += 0.3
	}
	if hasTrend(profile, domain.TrendDeclining) {
		risk += 0.2
	}
	return math.Min(risk, 1)
}
