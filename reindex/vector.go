package reindex

import "math"

// NormalizeVector returns a copy of v scaled to unit length. A zero or
// empty vector comes back unchanged in magnitude: there is no direction
// to preserve.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	result := make([]float32, len(v))
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return result
	}

	inv := float32(1 / magnitude)
	for i, val := range v {
		result[i] = val * inv
	}
	return result
}
