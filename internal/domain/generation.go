package domain

import "context"

// Chat roles understood by the generator.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// GenerationResult is the synthesized answer and its token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generator produces an answer from a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, messages []ChatMessage) (GenerationResult, error)
}
