package retrieval

import (
	"math"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// MMR selects up to k neighbours by maximal marginal relevance:
//
//	argmax  λ·sim(d, q) − (1−λ)·max_{s ∈ selected} sim(d, s)
//
// The first pick is always the candidate most similar to the query, so a
// single-candidate pool returns that candidate for any λ. Ties go to the
// earlier candidate.
func MMR(query []float32, candidates []domain.Neighbor, k int, lambda float64) []domain.Neighbor {
	if k <= 0 || len(candidates) == 0 {
		return []domain.Neighbor{}
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	toQuery := make([]float64, len(candidates))
	for i, c := range candidates {
		toQuery[i] = cosine(query, c.Vector)
	}

	first := 0
	for i := range candidates {
		if toQuery[i] > toQuery[first] {
			first = i
		}
	}

	selected := []int{first}
	used := make([]bool, len(candidates))
	used[first] = true

	// redundancy[i] is the max similarity of candidate i to anything selected so far.
	redundancy := make([]float64, len(candidates))
	for i := range candidates {
		redundancy[i] = cosine(candidates[i].Vector, candidates[first].Vector)
	}

	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			score := lambda*toQuery[i] - (1-lambda)*redundancy[i]
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		selected = append(selected, best)
		used[best] = true
		for i := range candidates {
			if !used[i] {
				redundancy[i] = math.Max(redundancy[i], cosine(candidates[i].Vector, candidates[best].Vector))
			}
		}
	}

	out := make([]domain.Neighbor, len(selected))
	for j, i := range selected {
		out[j] = candidates[i]
		out[j].Similarity = toQuery[i]
	}
	return out
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
