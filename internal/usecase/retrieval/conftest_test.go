package retrieval

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

func doc(id string) domain.Document {
	return domain.Document{ID: id, Content: "content-" + id}
}

func scored(source domain.Source, ids ...string) []domain.ScoredDocument {
	out := make([]domain.ScoredDocument, len(ids))
	for i, id := range ids {
		out[i] = domain.ScoredDocument{Document: doc(id), Score: float64(len(ids) - i), Source: source}
	}
	return out
}

func ids(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

type mockRanker struct {
	hits  []domain.ScoredDocument
	err   error
	calls atomic.Int32
	block chan struct{}
}

func (m *mockRanker) Rank(ctx context.Context, _ string) ([]domain.ScoredDocument, error) {
	m.calls.Add(1)
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.hits, m.err
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

type mockVectorIndex struct {
	neighbors []domain.Neighbor
	err       error
	gotK      int
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]domain.Neighbor, error) {
	m.gotK = k
	return m.neighbors, m.err
}

type mockLexicalIndex struct {
	hits []domain.ScoredDocument
	gotK int
}

func (m *mockLexicalIndex) Search(_ context.Context, _ string, k int) ([]domain.ScoredDocument, error) {
	m.gotK = k
	return m.hits, nil
}
