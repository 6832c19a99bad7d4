package domain

import (
	"context"
	"fmt"
)

// Embedder turns a question or passage into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes many passages in one provider call (index builds).
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is a vector plus the token usage reported by the provider.
// Cache hits carry zero usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds vectors in input order and the summed usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Dimensions returns the common vector size. Empty, zero-length or ragged
// results are an error: neither index can hold them.
func (r BatchEmbeddingResult) Dimensions() (int, error) {
	if len(r.Embeddings) == 0 {
		return 0, fmt.Errorf("empty batch: %w", ErrDimensionMismatch)
	}
	dims := len(r.Embeddings[0])
	if dims == 0 {
		return 0, fmt.Errorf("vector 0 is empty: %w", ErrDimensionMismatch)
	}
	for i, v := range r.Embeddings[1:] {
		if len(v) != dims {
			return 0, fmt.Errorf("vector %d has %d dims, vector 0 has %d: %w", i+1, len(v), dims, ErrDimensionMismatch)
		}
	}
	return dims, nil
}

// BatchFallback embeds texts one by one for embedders without a batch endpoint.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// BatchEmbed uses e's batch endpoint when it has one and falls back otherwise.
func BatchEmbed(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if be, ok := e.(BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return BatchFallback(ctx, e, texts)
}
