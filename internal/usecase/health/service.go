package health

import (
	"context"
	"sort"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an auxiliary dependency (provider, cache) is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates an index is unusable; no query can succeed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names reported in Report.Checks.
const (
	CheckLexicalIndex = "lexical_index"
	CheckVectorIndex  = "vector_index"
	CheckEmbedding    = "embedding"
	CheckCache        = "embedding_cache"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents map[string]uint64
}

// Service coordinates health checks.
type Service struct {
	indexes   map[string]DocCounter
	embedding domain.HealthChecker
	cache     Pinger
}

// Option configures optional checks.
type Option func(*Service)

// WithEmbedding adds the embedding provider check.
func WithEmbedding(c domain.HealthChecker) Option {
	return func(s *Service) { s.embedding = c }
}

// WithCache adds the shared embedding cache check.
func WithCache(p Pinger) Option {
	return func(s *Service) { s.cache = p }
}

// New creates a Service over the two retrieval indexes.
func New(lexical, vector DocCounter, opts ...Option) *Service {
	s := &Service{indexes: map[string]DocCounter{
		CheckLexicalIndex: lexical,
		CheckVectorIndex:  vector,
	}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs health checks against all components. An empty or failing
// index makes the service Unhealthy; auxiliary failures only degrade it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	docs := make(map[string]uint64)
	status := Healthy

	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n, err := s.indexes[name].DocCount()
		if err != nil || n == 0 {
			checks[name] = CheckError
			status = Unhealthy
			continue
		}
		checks[name] = CheckOK
		docs[name] = n
	}

	if s.embedding != nil {
		checks[CheckEmbedding] = result(s.embedding.HealthCheck(ctx))
	}
	if s.cache != nil {
		checks[CheckCache] = result(s.cache.Ping(ctx))
	}

	if status == Healthy {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks, Documents: docs}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
