package lawbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// Embedder converts a question to a vector. It must be the model the
// vector index was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Message is one chat turn passed to a Generator.
type Message struct {
	Role    string // "system" or "user"
	Content string
}

// Generation is a Generator's answer and token usage.
type Generation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generator produces an answer from the rendered prompt.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (Generation, error)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps public Generator to satisfy the answer use case.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, msgs []domain.ChatMessage) (domain.GenerationResult, error) {
	in := make([]Message, len(msgs))
	for i, m := range msgs {
		in[i] = Message{Role: m.Role, Content: m.Content}
	}
	g, err := a.inner.Generate(ctx, in)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return domain.GenerationResult{
		Text:             g.Text,
		PromptTokens:     g.PromptTokens,
		CompletionTokens: g.CompletionTokens,
	}, nil
}

// noopGenerator fails every call (used when only Retrieve is needed).
type noopGenerator struct{}

func (noopGenerator) Generate(_ context.Context, _ []domain.ChatMessage) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, errors.New(
		"lawbot: generator not configured (use WithGenerator or WithOpenAI)",
	)
}
