package util

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between two embedding
// vectors. Zero-magnitude vectors compare as 0 rather than erroring; an
// all-zero embedding carries no signal to match against.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("input vectors cannot be empty")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions do not match: %d vs %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
