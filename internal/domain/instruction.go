package domain

import (
	"context"
	"fmt"
)

// Instructions are the prefixes asymmetric retrieval models expect in front
// of questions and passages ("query: " / "passage: " for e5, for example).
type Instructions struct {
	Query   string
	Passage string
}

// IsZero reports whether no prefix is configured.
func (in Instructions) IsZero() bool {
	return in.Query == "" && in.Passage == ""
}

// InstructionEmbedder prefixes single texts with the query instruction and
// batch texts with the passage instruction. Questions go through Embed and
// corpus chunks through BatchEmbed, so each side gets its own prefix.
type InstructionEmbedder struct {
	inner Embedder
	in    Instructions
}

// NewInstructionEmbedder wraps inner.
func NewInstructionEmbedder(inner Embedder, in Instructions) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, in: in}
}

// Embed prepends the query instruction and delegates.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.in.Query+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// BatchEmbed prepends the passage instruction to each text and delegates.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	if e.in.Passage != "" {
		prefixed := make([]string, len(texts))
		for i, t := range texts {
			prefixed[i] = e.in.Passage + t
		}
		texts = prefixed
	}

	res, err := BatchEmbed(ctx, e.inner, texts)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
	}
	return res, nil
}
