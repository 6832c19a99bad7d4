package lawbot

import (
	"time"

	openaiTransport "github.com/kailas-cloud/lawbot/internal/transport/openai"
)

// OpenAIConfig configures OpenAI-compatible embedding and chat endpoints.
// Embedding* fields fall back to the chat values when empty, so a single
// provider needs only APIKey and the two models.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	ChatModel string

	EmbeddingAPIKey     string
	EmbeddingURL        string
	EmbeddingModel      string
	EmbeddingDimensions int

	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// WithOpenAI wires both the embedder and the generator to OpenAI-compatible
// endpoints. Explicit WithEmbedder or WithGenerator options take precedence.
func WithOpenAI(cfg OpenAIConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.openai = &cfg
	})
}

const openAIProvider = "openai"

func (c *clientConfig) applyOpenAI() {
	o := c.openai
	if o == nil {
		return
	}

	if c.embedder == nil {
		key, url := o.EmbeddingAPIKey, o.EmbeddingURL
		if key == "" {
			key = o.APIKey
		}
		if url == "" {
			url = o.BaseURL
		}
		e := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     key,
			BaseURL:    url,
			Model:      o.EmbeddingModel,
			Dimensions: o.EmbeddingDimensions,
			Provider:   openAIProvider,
		})
		c.embedder = e
		c.healthy = e
	}

	if c.generator == nil && o.ChatModel != "" {
		c.generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      o.APIKey,
			BaseURL:     o.BaseURL,
			Model:       o.ChatModel,
			Temperature: o.Temperature,
			MaxTokens:   o.MaxTokens,
			Timeout:     o.Timeout,
		})
	}
}
