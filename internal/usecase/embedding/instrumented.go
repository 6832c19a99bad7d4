// Package embedding decorates the embedding provider with logging and
// request chunking for index builds.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// DefaultMaxAPIBatchSize: максимальный размер батча для одного API-запроса.
const DefaultMaxAPIBatchSize = 256

// ProgressFunc is called after every chunk with the number of texts embedded so far.
type ProgressFunc func(done, total int)

// Option configures an InstrumentedEmbedder.
type Option func(*InstrumentedEmbedder)

// WithBatchSize overrides DefaultMaxAPIBatchSize.
func WithBatchSize(n int) Option {
	return func(p *InstrumentedEmbedder) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithProgress registers a chunk progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *InstrumentedEmbedder) { p.progress = fn }
}

// InstrumentedEmbedder wraps Embedder with logging and chunked batching.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	batchSize int
	progress  ProgressFunc
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	logger *zap.Logger, opts ...Option,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		batchSize: DefaultMaxAPIBatchSize,
		logger:    logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Embed delegates to the inner embedder and logs the outcome.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbed разбивает на sub-batches и делегирует inner.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	p.logger.Info("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += p.batchSize {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		end := min(offset+p.batchSize, len(texts))
		chunk := texts[offset:end]

		chunkResult, err := domain.BatchEmbed(ctx, p.inner, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed (chunk %d): %w", offset, err)
		}
		if len(chunkResult.Embeddings) != len(chunk) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf(
				"batch embed (chunk %d): got %d vectors for %d texts: %w",
				offset, len(chunkResult.Embeddings), len(chunk), domain.ErrEmbeddingProviderError)
		}

		out.Embeddings = append(out.Embeddings, chunkResult.Embeddings...)
		out.PromptTokens += chunkResult.PromptTokens
		out.TotalTokens += chunkResult.TotalTokens

		if p.progress != nil {
			p.progress(end, len(texts))
		}
	}

	return out, nil
}
