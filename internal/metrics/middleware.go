package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// /query waits on the LLM, so the tail reaches well past a second.
	httpRequestDuration = histogram("http_request_duration_seconds",
		"HTTP request duration in seconds",
		[]float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		"method", "path", "status")

	httpRequestsTotal = counter("http_requests_total",
		"HTTP requests served", "method", "path", "status")

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served",
	})
)

var httpGroup = &group{collectors: []prometheus.Collector{
	httpRequestDuration,
	httpRequestsTotal,
	httpRequestsInFlight,
}}

// Middleware records HTTP request duration, count and concurrency.
// Paths are labelled by chi route pattern to keep cardinality bounded;
// unmatched requests share the "unknown" label.
func Middleware() func(next http.Handler) http.Handler {
	httpGroup.register()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				path = routeLabel(rctx.RoutePattern())
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)

			httpRequestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, path, code).Inc()
		})
	}
}

func routeLabel(pattern string) string {
	if pattern == "" {
		return "unknown"
	}
	return pattern
}
