// Package metrics holds the Prometheus collectors of the API server and the
// HTTP middleware that feeds them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lawbot"

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

// group registers its collectors on the default registry at most once.
type group struct {
	once       sync.Once
	collectors []prometheus.Collector
}

func (g *group) register() {
	g.once.Do(func() { prometheus.MustRegister(g.collectors...) })
}
