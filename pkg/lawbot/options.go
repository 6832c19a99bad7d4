package lawbot

import (
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	lexicalPath string
	vectorPath  string

	embedder  domain.Embedder
	generator domain.Generator
	healthy   domain.HealthChecker
	openai    *OpenAIConfig

	lexicalK      int
	vectorK       int
	fetchK        int
	mmrLambda     float64
	lexicalWeight float64
	vectorWeight  float64
	sequential    bool
	cacheSize     int
	prompt        string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		lexicalK:      3,
		vectorK:       3,
		fetchK:        20,
		mmrLambda:     0.5,
		lexicalWeight: 0.7,
		vectorWeight:  0.3,
	}
}

// WithIndexDir points at a directory written by lawbot-index build,
// holding index_bm25/ and index_vector/.
func WithIndexDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.lexicalPath = filepath.Join(dir, "index_bm25")
		c.vectorPath = filepath.Join(dir, "index_vector")
	})
}

// WithIndexes sets the two index locations explicitly.
func WithIndexes(lexicalPath, vectorPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.lexicalPath = lexicalPath
		c.vectorPath = vectorPath
	})
}

// WithEmbedder sets the question embedding provider. Required unless
// WithOpenAI is used.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = &embedderAdapter{inner: e}
	})
}

// WithGenerator sets the answer generator. Without one, Ask fails and
// Retrieve still works.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = &generatorAdapter{inner: g}
	})
}

// WithRetrieval overrides the per-retriever result counts and the MMR
// parameters. Defaults: lexicalK=3, vectorK=3, fetchK=20, lambda=0.5.
func WithRetrieval(lexicalK, vectorK, fetchK int, lambda float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.lexicalK = lexicalK
		c.vectorK = vectorK
		c.fetchK = fetchK
		c.mmrLambda = lambda
	})
}

// WithWeights sets the fusion weights. Defaults: 0.7 lexical, 0.3 vector.
func WithWeights(lexical, vector float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.lexicalWeight = lexical
		c.vectorWeight = vector
	})
}

// WithSequentialRetrieval runs the two retrievers one after another.
func WithSequentialRetrieval() Option {
	return optionFunc(func(c *clientConfig) {
		c.sequential = true
	})
}

// WithQueryCache keeps the last size question embeddings in memory.
// Default: disabled.
func WithQueryCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
	})
}

// WithPrompt replaces the built-in prompt template. The template receives
// .Context and .Question.
func WithPrompt(template string) Option {
	return optionFunc(func(c *clientConfig) {
		c.prompt = template
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
