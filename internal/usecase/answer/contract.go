package answer

import (
	"context"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// Retriever returns the merged context documents for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Document, error)
}

// Generator completes the rendered chat.
type Generator interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (domain.GenerationResult, error)
}
