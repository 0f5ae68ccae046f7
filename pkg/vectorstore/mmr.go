package vectorstore

import "math"

// cosineSimilarity returns 0 when either vector has zero length or norm.
func cosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// maximalMarginalRelevance picks up to k candidate indices. Each step takes
// the candidate maximising
//
//	(1-diversity)*sim(query, c) - diversity*max(sim(c, s) for s in selected)
//
// Ties go to the lower index, so candidates should arrive most relevant first.
func maximalMarginalRelevance(query []float32, candidates [][]float32, diversity float64, k int) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	k = min(k, len(candidates))

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosineSimilarity(query, c)
	}

	selected := make([]int, 0, k)
	chosen := make([]bool, len(candidates))
	// redundancy[i] is the highest similarity of candidate i to anything selected so far
	redundancy := make([]float64, len(candidates))
	for i := range redundancy {
		redundancy[i] = math.Inf(-1)
	}

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if chosen[i] {
				continue
			}
			score := (1-diversity)*relevance[i] - diversity*redundancy[i]
			if len(selected) == 0 {
				score = relevance[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		selected = append(selected, best)
		chosen[best] = true
		for i, c := range candidates {
			if chosen[i] {
				continue
			}
			if sim := cosineSimilarity(candidates[best], c); sim > redundancy[i] {
				redundancy[i] = sim
			}
		}
	}

	return selected
}
