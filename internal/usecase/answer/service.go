// Package answer drives one question through hybrid retrieval, prompt
// rendering and LLM generation.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/logger"
)

// Result is the synthesized answer plus the documents it was grounded on.
type Result struct {
	Answer  string
	Sources []domain.Document
}

// Service is the request façade.
type Service struct {
	retriever Retriever
	generator Generator
	prompt    *Prompt
	maxRunes  int
}

// Option configures a Service.
type Option func(*Service)

// WithPrompt overrides the default prompt.
func WithPrompt(p *Prompt) Option {
	return func(s *Service) { s.prompt = p }
}

// WithMaxQuestionRunes rejects questions longer than n runes. Off by default.
func WithMaxQuestionRunes(n int) Option {
	return func(s *Service) { s.maxRunes = n }
}

// New creates a Service.
func New(retriever Retriever, generator Generator, opts ...Option) *Service {
	s := &Service{
		retriever: retriever,
		generator: generator,
		prompt:    DefaultPrompt(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Answer retrieves context for question and generates an answer. The
// question reaches retrieval and the prompt exactly as given; only a blank
// one is rejected. Generation runs even when retrieval finds nothing; the
// prompt handles that case.
func (s *Service) Answer(ctx context.Context, question string) (Result, error) {
	q := question
	if strings.TrimSpace(q) == "" {
		return Result{}, fmt.Errorf("%w: question is required", domain.ErrInvalidQuestion)
	}
	if s.maxRunes > 0 && utf8.RuneCountInString(q) > s.maxRunes {
		return Result{}, fmt.Errorf("%w: question exceeds %d characters", domain.ErrInvalidQuestion, s.maxRunes)
	}

	ctx, log := logger.With(ctx, zap.Int("question_runes", utf8.RuneCountInString(q)))

	docs, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnhandled {
			err = domain.NewFailure(domain.KindRetrieval, "retrieve", err)
		}
		return Result{}, fmt.Errorf("answer: %w", err)
	}

	msgs, err := s.prompt.Messages(docs, q)
	if err != nil {
		return Result{}, fmt.Errorf("answer: %w", domain.NewFailure(domain.KindUnhandled, "build prompt", err))
	}

	start := time.Now()
	gen, err := s.generator.Generate(ctx, msgs)
	if err != nil {
		return Result{}, fmt.Errorf("answer: %w", domain.NewFailure(domain.KindGeneration, "generate", err))
	}

	log.Debug("Answer generated",
		zap.Int("documents", len(docs)),
		zap.Int("answer_runes", utf8.RuneCountInString(gen.Text)),
		zap.Int("prompt_tokens", gen.PromptTokens),
		zap.Int("completion_tokens", gen.CompletionTokens),
		zap.Duration("generation", time.Since(start)),
	)

	return Result{Answer: gen.Text, Sources: docs}, nil
}
