package health

import "context"

// DocCounter reports how many documents a loaded index serves.
// Both the bleve and the HNSW index implement it.
type DocCounter interface {
	DocCount() (uint64, error)
}

// Pinger checks the optional Redis embedding cache.
type Pinger interface {
	Ping(ctx context.Context) error
}
