package lawbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// clientMetrics are the client-side operation counters.
type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lawbot",
		Subsystem: "client",
		Name:      "operations_total",
		Help:      "Client operations by operation and outcome (ok or failure kind).",
	}, []string{"operation", "outcome"})
	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lawbot",
		Subsystem: "client",
		Name:      "operation_duration_seconds",
		Help:      "Client operation latency. Ask includes the LLM call.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})

	var err error
	if ops, err = registerOrReuse(reg, ops); err != nil {
		return nil, err
	}
	if dur, err = registerOrReuse(reg, dur); err != nil {
		return nil, err
	}
	return &clientMetrics{operations: ops, duration: dur}, nil
}

// registerOrReuse returns c, or the collector already registered under the
// same descriptor. Several clients may share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("lawbot: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("lawbot: metric registered with another type: %T", are.ExistingCollector)
	}
	return existing, nil
}

// outcome labels err for metrics and logs.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidQuestion):
		return "invalid_question"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return domain.KindOf(err).String()
	}
}

// observer records client operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// begin starts timing op; call the returned func with the final error.
func (o *observer) begin(op string) func(error) {
	if o == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		elapsed := time.Since(start)
		label := outcome(err)

		if o.metrics != nil {
			o.metrics.operations.WithLabelValues(op, label).Inc()
			o.metrics.duration.WithLabelValues(op).Observe(elapsed.Seconds())
		}
		if o.logger == nil {
			return
		}
		if err != nil {
			o.logger.Warn("lawbot operation failed", "op", op, "outcome", label, "elapsed", elapsed, "error", err)
			return
		}
		o.logger.Debug("lawbot operation done", "op", op, "elapsed", elapsed)
	}
}
