package experiment

import (
	"math"
	"sort"

	"myLearnCore/domain"
)

const (
	minImpressionsForConfidence = 30
	significanceThreshold       = 0.95
)

// applyResult folds one observation into the running variant stats.
func applyResult(st domain.VariantStats, metrics map[string]float64) domain.VariantStats {
	st.Impressions++
	if metrics["conversion"] != 0 {
		st.Conversions++
	}
	st.ConversionRate = float64(st.Conversions) / float64(st.Impressions) * 100

	if e := metrics["engagement"]; e != 0 {
		n := float64(st.Impressions)
		st.AverageEngagement = (st.AverageEngagement*(n-1) + e) / n
	}

	st.ConfidenceLevel = confidenceLevel(st)
	st.IsSignificant = st.ConfidenceLevel > significanceThreshold
	return st
}

// confidenceLevel is a placeholder heuristic on the binomial standard error of
// the conversion rate, not a significance test. With the current constants it
// never exceeds the significance threshold.
func confidenceLevel(st domain.VariantStats) float64 {
	if st.Impressions < minImpressionsForConfidence {
		return 0
	}
	se := math.Sqrt(st.ConversionRate * (100 - st.ConversionRate) / float64(st.Impressions))
	level := 0.85
	if se < 5 {
		level = 0.95
	}
	return math.Min(level, 0.99)
}

// orderedStats returns variant stats in the experiment's declaration order,
// followed by any stats for variants no longer declared, sorted by id.
func orderedStats(exp *domain.Experiment, byVariant map[string]domain.VariantStats) []domain.VariantStats {
	out := make([]domain.VariantStats, 0, len(byVariant))
	seen := make(map[string]bool, len(byVariant))

	if exp != nil {
		for _, v := range exp.Variants {
			if st, ok := byVariant[v.ID]; ok {
				out = append(out, st)
				seen[v.ID] = true
			}
		}
	}

	rest := make([]string, 0)
	for id := range byVariant {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		out = append(out, byVariant[id])
	}
	return out
}

// markWinner flags the variant with the strictly highest conversion rate, and
// only if it is significant. Ties keep the first variant encountered.
func markWinner(stats []domain.VariantStats) {
	if len(stats) <= 1 {
		return
	}
	best := 0
	for i := 1; i < len(stats); i++ {
		if stats[i].ConversionRate > stats[best].ConversionRate {
			best = i
		}
	}
	for i := range stats {
		stats[i].Winner = i == best && stats[i].IsSignificant
	}
}
