package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// LexicalRetriever ranks passages by BM25 over the Korean-analyzed index.
type LexicalRetriever struct {
	index LexicalIndex
	k     int
}

// NewLexicalRetriever returns the top k keyword matches per query.
func NewLexicalRetriever(index LexicalIndex, k int) *LexicalRetriever {
	return &LexicalRetriever{index: index, k: k}
}

// Rank implements Ranker.
func (r *LexicalRetriever) Rank(ctx context.Context, query string) ([]domain.ScoredDocument, error) {
	hits, err := r.index.Search(ctx, query, r.k)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return hits, nil
}

// MMROptions tunes the diversity re-ranking of vector hits.
type MMROptions struct {
	K      int     // results returned
	FetchK int     // candidate pool pulled from the index
	Lambda float64 // 1 = pure relevance, 0 = pure diversity
}

// VectorRetriever embeds the query, pulls FetchK neighbours and re-ranks
// them with MMR down to K.
type VectorRetriever struct {
	embed Embedder
	index VectorIndex
	opts  MMROptions
}

// NewVectorRetriever creates a VectorRetriever. FetchK below K is raised to K.
func NewVectorRetriever(embed Embedder, index VectorIndex, opts MMROptions) *VectorRetriever {
	if opts.FetchK < opts.K {
		opts.FetchK = opts.K
	}
	return &VectorRetriever{embed: embed, index: index, opts: opts}
}

// Rank implements Ranker. Scores are cosine similarity to the query.
func (r *VectorRetriever) Rank(ctx context.Context, query string) ([]domain.ScoredDocument, error) {
	emb, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	pool, err := r.index.Search(ctx, emb.Embedding, r.opts.FetchK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	picked := MMR(emb.Embedding, pool, r.opts.K, r.opts.Lambda)
	out := make([]domain.ScoredDocument, len(picked))
	for i, n := range picked {
		out[i] = domain.ScoredDocument{Document: n.Document, Score: n.Similarity, Source: domain.SourceVector}
	}
	return out, nil
}
