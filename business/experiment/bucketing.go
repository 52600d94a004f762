package experiment

import (
	"unicode/utf16"

	"myLearnCore/domain"
)

// bucketHash is a 32-bit polynomial rolling hash (h = h*31 + c) over UTF-16
// code units. Signed overflow wraps, which matches the 32-bit truncation the
// mobile clients apply, so server and client agree on buckets.
func bucketHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

// bucketOf maps a (user, experiment) pair into [0, 100).
func bucketOf(userID, experimentID string) int {
	h := int64(bucketHash(userID + experimentID))
	if h < 0 {
		h = -h
	}
	return int(h % 100)
}

// assignVariant walks variants in declaration order and returns the first
// whose cumulative traffic share exceeds the bucket. Buckets landing past the
// configured total fall back to the first variant. Returns "" when the
// experiment has no variants.
func assignVariant(userID string, exp domain.Experiment) string {
	if len(exp.Variants) == 0 {
		return ""
	}

	bucket := float64(bucketOf(userID, exp.ID))
	cumulative := 0.0
	for _, v := range exp.Variants {
		cumulative += v.TrafficPercentage
		if bucket < cumulative {
			return v.ID
		}
	}
	return exp.Variants[0].ID
}
