package memory

import "math"

// Cosine computes the cosine similarity between two vectors. Vectors of
// different lengths or zero magnitude yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// maxPairwiseCosine returns the highest similarity between any pair of
// vectors drawn from the two sets.
func maxPairwiseCosine(a, b [][]float32) float64 {
	best := 0.0
	for _, va := range a {
		for _, vb := range b {
			if s := Cosine(va, vb); s > best {
				best = s
			}
		}
	}
	return best
}
