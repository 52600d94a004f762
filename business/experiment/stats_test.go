//go:build !integration

package experiment

import (
	"testing"

	"myLearnCore/domain"

	"github.com/stretchr/testify/assert"
)

func TestApplyResult_ConversionRate(t *testing.T) {
	st := domain.VariantStats{}
	st = applyResult(st, map[string]float64{"conversion": 1})
	st = applyResult(st, map[string]float64{"conversion": 0})

	assert.Equal(t, 2, st.Impressions)
	assert.Equal(t, 1, st.Conversions)
	assert.InDelta(t, 50.0, st.ConversionRate, 1e-9)
}

func TestApplyResult_RunningMeanEngagement(t *testing.T) {
	st := domain.VariantStats{}
	st = applyResult(st, map[string]float64{"engagement": 120})
	st = applyResult(st, map[string]float64{"engagement": 60})

	assert.InDelta(t, 90.0, st.AverageEngagement, 1e-9)
}

func TestConfidenceLevel(t *testing.T) {
	tests := []struct {
		name        string
		impressions int
		conversions int
		want        float64
	}{
		{"below minimum sample", 29, 10, 0},
		{"tight error", 30, 0, 0.95},
		{"wide error", 30, 15, 0.85},
		{"large sample", 10000, 5000, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := domain.VariantStats{
				Impressions:    tt.impressions,
				Conversions:    tt.conversions,
				ConversionRate: float64(tt.conversions) / float64(tt.impressions) * 100,
			}
			assert.InDelta(t, tt.want, confidenceLevel(st), 1e-9)
		})
	}
}

func TestApplyResult_NeverSignificantWithHeuristic(t *testing.T) {
	st := domain.VariantStats{}
	for i := 0; i < 200; i++ {
		st = applyResult(st, map[string]float64{"conversion": float64(i % 2)})
	}
	assert.Greater(t, st.ConfidenceLevel, 0.0)
	assert.False(t, st.IsSignificant)
}

func TestMarkWinner(t *testing.T) {
	t.Run("highest significant variant wins", func(t *testing.T) {
		stats := []domain.VariantStats{
			{VariantID: "A", ConversionRate: 30, IsSignificant: true},
			{VariantID: "B", ConversionRate: 25, IsSignificant: true},
		}
		markWinner(stats)
		assert.True(t, stats[0].Winner)
		assert.False(t, stats[1].Winner)
	})

	t.Run("best but not significant means no winner", func(t *testing.T) {
		stats := []domain.VariantStats{
			{VariantID: "A", ConversionRate: 30, IsSignificant: false},
			{VariantID: "B", ConversionRate: 25, IsSignificant: true},
		}
		markWinner(stats)
		assert.False(t, stats[0].Winner)
		assert.False(t, stats[1].Winner)
	})

	t.Run("ties keep the first encountered", func(t *testing.T) {
		stats := []domain.VariantStats{
			{VariantID: "A", ConversionRate: 30, IsSignificant: true},
			{VariantID: "B", ConversionRate: 30, IsSignificant: true},
		}
		markWinner(stats)
		assert.True(t, stats[0].Winner)
		assert.False(t, stats[1].Winner)
	})

	t.Run("single variant untouched", func(t *testing.T) {
		stats := []domain.VariantStats{{VariantID: "A", ConversionRate: 90, IsSignificant: true}}
		markWinner(stats)
		assert.False(t, stats[0].Winner)
	})
}

func TestOrderedStats(t *testing.T) {
	exp := &domain.Experiment{Variants: []domain.Variant{{ID: "b"}, {ID: "a"}}}
	byVariant := map[string]domain.VariantStats{
		"a":    {VariantID: "a"},
		"b":    {VariantID: "b"},
		"gone": {VariantID: "gone"},
	}
	got := orderedStats(exp, byVariant)
	ids := make([]string, 0, len(got))
	for _, st := range got {
		ids = append(ids, st.VariantID)
	}
	assert.Equal(t, []string{"b", "a", "gone"}, ids)
}
