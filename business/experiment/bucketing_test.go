//go:build !integration

package experiment

import (
	"fmt"
	"testing"

	"myLearnCore/domain"

	"github.com/stretchr/testify/assert"
)

func TestBucketHash(t *testing.T) {
	tests := []struct {
		in     string
		hash   int32
		bucket int
	}{
		{"ab", 3105, 5},
		{"user_1exp", 337527872, 72},
		{"user_42ab_test_1", -149551504, 4},
		{"learner@example.com", -1133738194, 94},
		{"привет", 2093147784, 84},
		{"😀", 1772899, 99},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.hash, bucketHash(tt.in))
			assert.Equal(t, tt.bucket, bucketOf(tt.in, ""))
		})
	}
}

func TestAssignVariant_Deterministic(t *testing.T) {
	exp := domain.Experiment{
		ID: "exp",
		Variants: []domain.Variant{
			{ID: "control", TrafficPercentage: 50},
			{ID: "variant", TrafficPercentage: 50},
		},
	}

	for i := 0; i < 100; i++ {
		user := fmt.Sprintf("user_%d", i)
		first := assignVariant(user, exp)
		assert.Equal(t, first, assignVariant(user, exp))
	}
	// user_1exp hashes to bucket 72, past the first 50
	assert.Equal(t, "variant", assignVariant("user_1", exp))
}

func TestAssignVariant_TrafficConservation(t *testing.T) {
	tests := []struct {
		name   string
		shares []float64
	}{
		{"even split", []float64{50, 50}},
		{"skewed split", []float64{20, 80}},
		{"three arms", []float64{34, 33, 33}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := domain.Experiment{ID: "exp_traffic"}
			for i, share := range tt.shares {
				exp.Variants = append(exp.Variants, domain.Variant{ID: fmt.Sprintf("v%d", i), TrafficPercentage: share})
			}

			const users = 10000
			counts := map[string]int{}
			for i := 0; i < users; i++ {
				counts[assignVariant(fmt.Sprintf("user_%d", i), exp)]++
			}
			for i, share := range tt.shares {
				got := float64(counts[fmt.Sprintf("v%d", i)]) / users * 100
				assert.InDelta(t, share, got, 5, "variant v%d", i)
			}
		})
	}
}

func TestAssignVariant_FallsBackToFirst(t *testing.T) {
	exp := domain.Experiment{
		ID: "exp",
		Variants: []domain.Variant{
			{ID: "first", TrafficPercentage: 0},
			{ID: "second", TrafficPercentage: 0},
		},
	}
	assert.Equal(t, "first", assignVariant("anyone", exp))
	assert.Equal(t, "", assignVariant("anyone", domain.Experiment{ID: "empty"}))
}
