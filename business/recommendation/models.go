package recommendation

import (
	"math/rand"
	"time"

	"myLearnCore/domain"
)

func defaultModels(now time.Time) []domain.MLModel {
	return []domain.MLModel{
		{
			ID:      "collaborative_filtering_v1",
			Name:    "Collaborative Filtering",
			Version: "1.0",
			Type:    domain.ModelCollaborative,
			Parameters: map[string]any{
				"similarityThreshold": 0.3,
				"minCommonItems":      2.0,
				"maxNeighbors":        10.0,
			},
			Performance: domain.ModelPerformance{Accuracy: 0.75, Precision: 0.72, Recall: 0.68, F1Score: 0.7},
			LastTrained: now,
			IsActive:    true,
		},
		{
			ID:      "content_based_v1",
			Name:    "Content-Based Filtering",
			Version: "1.0",
			Type:    domain.ModelContentBased,
			Parameters: map[string]any{
				"featureWeight":    0.5,
				"similarityMetric": "cosine",
				"minSimilarity":    0.2,
			},
			Performance: domain.ModelPerformance{Accuracy: 0.68, Precision: 0.65, Recall: 0.62, F1Score: 0.63},
			LastTrained: now,
			IsActive:    true,
		},
		{
			ID:      "hybrid_v1",
			Name:    "Hybrid Model",
			Version: "1.0",
			Type:    domain.ModelHybrid,
			Parameters: map[string]any{
				"collaborativeWeight": 0.6,
				"contentWeight":       0.4,
				"ensembleMethod":      "weighted_average",
			},
			Performance: domain.ModelPerformance{Accuracy: 0.82, Precision: 0.79, Recall: 0.76, F1Score: 0.77},
			LastTrained: now,
			IsActive:    true,
		},
	}
}

// syntheticPerformance stands in for training: each metric is its baseline
// plus up to 0.1 of uniform jitter. No model is actually fitted.
func syntheticPerformance(rnd *rand.Rand) domain.ModelPerformance {
	return domain.ModelPerformance{
		Accuracy:  0.8 + rnd.Float64()*0.1,
		Precision: 0.75 + rnd.Float64()*0.1,
		Recall:    0.7 + rnd.Float64()*0.1,
		F1Score:   0.72 + rnd.Float64()*0.1,
	}
}

// floatParam reads a numeric model parameter; missing or zero values use def.
func floatParam(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		if v != 0 {
			return v
		}
	case int:
		if v != 0 {
			return float64(v)
		}
	}
	return def
}
