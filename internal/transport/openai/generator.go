package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/metrics"
)

// GeneratorConfig holds the chat completion settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	// Stream requests token streaming; tokens are echoed to Echo as they arrive.
	Stream bool
	Echo   io.Writer
	// Timeout bounds a single completion; 0 leaves it to the caller's context.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Generator calls the chat completions endpoint.
type Generator struct {
	client *openai.Client
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	return &Generator{
		client: newClient(cfg.APIKey, cfg.BaseURL),
		cfg:    *cfg,
		logger: loggerOrNop(cfg.Logger),
	}
}

// Generate implements domain.Generator. The full answer is returned only
// after the model finishes; there is no partial result on error.
func (g *Generator) Generate(ctx context.Context, messages []domain.ChatMessage) (domain.GenerationResult, error) {
	req := g.request(messages)

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		res domain.GenerationResult
		err error
	)
	if g.cfg.Stream {
		res, err = g.stream(ctx, req)
	} else {
		res, err = g.complete(ctx, req)
	}
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.cfg.Model, "error").Inc()
		g.logger.Warn("Chat completion failed",
			zap.String("model", g.cfg.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.cfg.Model, "success").Inc()
	metrics.GenerationDuration.WithLabelValues(g.cfg.Model).Observe(duration.Seconds())
	if res.PromptTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.cfg.Model, "prompt").Add(float64(res.PromptTokens))
	}
	if res.CompletionTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.cfg.Model, "completion").Add(float64(res.CompletionTokens))
	}
	return res, nil
}

func (g *Generator) request(messages []domain.ChatMessage) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	// go-openai drops a zero temperature (omitempty) and the server then
	// applies its default of 1.
	temp := g.cfg.Temperature
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   g.cfg.MaxTokens,
	}
}

func (g *Generator) complete(ctx context.Context, req openai.ChatCompletionRequest) (domain.GenerationResult, error) {
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.GenerationResult{}, parseAPIError("chat", err, domain.ErrGeneration)
	}
	if len(resp.Choices) == 0 {
		return domain.GenerationResult{}, fmt.Errorf("chat response has no choices: %w", domain.ErrGeneration)
	}
	return domain.GenerationResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (g *Generator) stream(ctx context.Context, req openai.ChatCompletionRequest) (domain.GenerationResult, error) {
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return domain.GenerationResult{}, parseAPIError("chat", err, domain.ErrGeneration)
	}
	defer stream.Close()

	var (
		sb  strings.Builder
		res domain.GenerationResult
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.GenerationResult{}, parseAPIError("chat stream", err, domain.ErrGeneration)
		}

		if chunk.Usage != nil {
			res.PromptTokens = chunk.Usage.PromptTokens
			res.CompletionTokens = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		sb.WriteString(token)
		if g.cfg.Echo != nil && token != "" {
			// The echo sink is diagnostic only.
			_, _ = io.WriteString(g.cfg.Echo, token)
		}
	}
	if g.cfg.Echo != nil {
		_, _ = io.WriteString(g.cfg.Echo, "\n")
	}

	res.Text = sb.String()
	return res, nil
}
