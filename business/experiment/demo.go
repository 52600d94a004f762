package experiment

import (
	"context"
	"fmt"

	"myLearnCore/domain"
)

// DemoExperiments are the experiments a fresh install starts with: the
// recommendation algorithm split and the UI personalization split.
func DemoExperiments() []domain.Experiment {
	allUsers := domain.TargetAudience{UserSegments: []string{"all"}, Conditions: []domain.AudienceCondition{}}

	return []domain.Experiment{
		{
			Name:        "Recommendation algorithm",
			Description: "Compare recommendation algorithms",
			Status:      domain.ExperimentActive,
			Variants: []domain.Variant{
				{
					ID:          "control",
					Name:        "Control group",
					Description: "Current recommendation algorithm",
					Config: map[string]any{
						"algorithm":               "collaborative_filtering",
						"weight_user_preferences": 0.3,
						"weight_progress":         0.4,
						"weight_recency":          0.3,
					},
					TrafficPercentage: 50,
				},
				{
					ID:          "ml_enhanced",
					Name:        "ML enhanced",
					Description: "Model driven recommendations",
					Config: map[string]any{
						"algorithm":                  "ml_enhanced",
						"weight_user_preferences":    0.25,
						"weight_progress":            0.35,
						"weight_recency":             0.25,
						"weight_behavioral_patterns": 0.15,
					},
					TrafficPercentage: 50,
				},
			},
			Metrics: []domain.ExperimentMetric{
				{Name: "conversion_rate", Type: "conversion", Goal: "maximize", Weight: 0.6},
				{Name: "engagement_time", Type: "engagement", Goal: "maximize", Weight: 0.4},
			},
			TargetAudience:    allUsers,
			TrafficAllocation: 100,
		},
		{
			Name:        "UI personalization",
			Description: "Compare the standard and the adaptive interface",
			Status:      domain.ExperimentActive,
			Variants: []domain.Variant{
				{
					ID:          "standard",
					Name:        "Standard UI",
					Description: "Regular interface",
					Config: map[string]any{
						"show_progress_bar":    true,
						"show_recommendations": true,
						"show_achievements":    true,
						"theme":                "default",
					},
					TrafficPercentage: 50,
				},
				{
					ID:          "personalized",
					Name:        "Personalized UI",
					Description: "Adaptive interface",
					Config: map[string]any{
						"show_progress_bar":    true,
						"show_recommendations": true,
						"show_achievements":    true,
						"theme":                "adaptive",
						"adaptive_layout":      true,
						"smart_notifications":  true,
					},
					TrafficPercentage: 50,
				},
			},
			Metrics: []domain.ExperimentMetric{
				{Name: "session_duration", Type: "engagement", Goal: "maximize", Weight: 0.5},
				{Name: "retention_rate", Type: "retention", Goal: "maximize", Weight: 0.5},
			},
			TargetAudience:    allUsers,
			TrafficAllocation: 100,
		},
	}
}

// SeedDemoTests creates the demo experiments when none exist yet and returns
// the ids it created.
func (s *Service) SeedDemoTests(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	empty := len(s.experiments) == 0
	s.mu.Unlock()
	if !empty {
		return nil, nil
	}

	ids := make([]string, 0, 2)
	for _, def := range DemoExperiments() {
		def.StartDate = s.now()
		id, err := s.CreateTest(ctx, def)
		if err != nil {
			return ids, fmt.Errorf("failed to seed demo experiment %q: %w", def.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
