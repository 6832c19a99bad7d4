package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterPipelineMetrics()
	RegisterPipelineMetrics()
	Middleware()
	Middleware()

	EmbeddingCacheTotal.WithLabelValues("memory", "hit").Inc()
	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "lawbot_embedding_cache_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n == 0 {
		t.Error("expected embedding_cache_total on the default registry")
	}
}

func TestGroup_RegistersOnce(t *testing.T) {
	c := counter("test_group_total", "test")
	g := &group{collectors: []prometheus.Collector{c}}
	g.register()
	g.register()
	prometheus.Unregister(c)
}
