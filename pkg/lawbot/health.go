package lawbot

import (
	"context"

	healthuc "github.com/kailas-cloud/lawbot/internal/usecase/health"
)

// HealthStatus is a snapshot of the client's dependencies.
type HealthStatus struct {
	// Status is "ok", "degraded" (provider or cache failing) or "error"
	// (an index is empty or unreadable).
	Status string
	// Checks maps component name to "ok" or "error".
	Checks map[string]string
	// Documents maps index name to the number of chunks it serves.
	Documents map[string]uint64
}

// Ready mirrors the server's /health: only a fully healthy client is ready.
func (h HealthStatus) Ready() bool {
	return h.Status == string(healthuc.Healthy)
}

// Health checks the indexes and, when configured, the embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	h := HealthStatus{
		Status:    string(report.Status),
		Checks:    make(map[string]string, len(report.Checks)),
		Documents: report.Documents,
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	return h
}
