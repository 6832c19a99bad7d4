package retrieval

import (
	"slices"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// DefaultRRFConstant is the rank offset used by weighted reciprocal rank fusion.
const DefaultRRFConstant = 60

// WeightedList is one retriever's ranked output and its fusion weight.
type WeightedList struct {
	Source  domain.Source
	Weight  float64
	Results []domain.ScoredDocument
}

// Fused is a merged entry. Sources lists the retrievers that returned it,
// in list order.
type Fused struct {
	Document domain.Document
	Score    float64
	Sources  []domain.Source
}

// Fuse merges ranked lists by weighted reciprocal rank:
//
//	score(d) = Σ weight_i / (rank_i(d) + c),  rank 1-based
//
// Raw retriever scores are ignored. A document is identified by ID and
// appears once; the first list that returned it supplies its content. Equal
// scores keep first-seen order, so earlier lists win ties.
func Fuse(lists []WeightedList, c float64) []Fused {
	index := make(map[string]int)
	var out []Fused

	for _, list := range lists {
		seen := make(map[string]bool, len(list.Results))
		for rank, r := range list.Results {
			id := r.Document.ID
			// A retriever repeating a document only counts its best rank.
			if seen[id] {
				continue
			}
			seen[id] = true

			contribution := list.Weight / (float64(rank+1) + c)
			if i, ok := index[id]; ok {
				out[i].Score += contribution
				out[i].Sources = append(out[i].Sources, list.Source)
				continue
			}
			index[id] = len(out)
			out = append(out, Fused{
				Document: r.Document,
				Score:    contribution,
				Sources:  []domain.Source{list.Source},
			})
		}
	}

	slices.SortStableFunc(out, func(a, b Fused) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if out == nil {
		out = []Fused{}
	}
	return out
}

// Documents strips scores and provenance.
func Documents(fused []Fused) []domain.Document {
	docs := make([]domain.Document, len(fused))
	for i, f := range fused {
		docs[i] = f.Document
	}
	return docs
}
