package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and generation metrics.
var (
	// source: "lexical" / "vector" / "hybrid"
	RetrievalDuration = histogram("retrieval_duration_seconds",
		"Retriever latency in seconds",
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		"source")

	RetrievalErrorsTotal = counter("retrieval_errors_total",
		"Retriever failures", "source")

	RetrievalDocuments = histogram("retrieval_documents",
		"Documents returned per retrieval",
		[]float64{0, 1, 2, 3, 4, 5, 6, 10},
		"source")

	GenerationRequestsTotal = counter("generation_requests_total",
		"LLM completion requests by outcome", "model", "status")

	GenerationDuration = histogram("generation_duration_seconds",
		"LLM completion latency in seconds",
		[]float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		"model")

	// type: "prompt" / "completion"
	GenerationTokensTotal = counter("generation_tokens_total",
		"LLM tokens consumed", "model", "type")
)

var pipelineGroup = &group{collectors: []prometheus.Collector{
	RetrievalDuration,
	RetrievalErrorsTotal,
	RetrievalDocuments,
	GenerationRequestsTotal,
	GenerationDuration,
	GenerationTokensTotal,
}}

// RegisterPipelineMetrics registers retrieval and generation collectors. Repeated calls are no-ops.
func RegisterPipelineMetrics() { pipelineGroup.register() }
