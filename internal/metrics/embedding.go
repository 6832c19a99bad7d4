package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding provider metrics.
var (
	EmbeddingRequestsTotal = counter("embedding_requests_total",
		"Embedding API calls by outcome", "provider", "model", "status")

	EmbeddingRequestDuration = histogram("embedding_request_duration_seconds",
		"Embedding API latency in seconds",
		[]float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		"provider", "model")

	// type: "prompt" / "total"
	EmbeddingTokensTotal = counter("embedding_tokens_total",
		"Tokens reported by the embedding API", "provider", "model", "type")

	EmbeddingErrorsTotal = counter("embedding_errors_total",
		"Embedding API failures by error class", "provider", "model", "error_type")

	// tier: "memory" / "redis"; result: "hit" / "miss"
	EmbeddingCacheTotal = counter("embedding_cache_total",
		"Query embedding cache lookups", "tier", "result")
)

var embeddingGroup = &group{collectors: []prometheus.Collector{
	EmbeddingRequestsTotal,
	EmbeddingRequestDuration,
	EmbeddingTokensTotal,
	EmbeddingErrorsTotal,
	EmbeddingCacheTotal,
}}

// RegisterEmbeddingMetrics registers the embedding collectors. Repeated calls are no-ops.
func RegisterEmbeddingMetrics() { embeddingGroup.register() }
