package retrieval

import (
	"context"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// LexicalIndex is the keyword index consumed by LexicalRetriever.
type LexicalIndex interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error)
}

// VectorIndex is the nearest-neighbour index consumed by VectorRetriever.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, k int) ([]domain.Neighbor, error)
}

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Ranker produces one ranked list for a query, best first.
type Ranker interface {
	Rank(ctx context.Context, query string) ([]domain.ScoredDocument, error)
}
