package lawbot

import "github.com/kailas-cloud/lawbot/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuestion        = domain.ErrInvalidQuestion
	ErrIndexLoad              = domain.ErrIndexLoad
	ErrRetrieval              = domain.ErrRetrieval
	ErrGeneration             = domain.ErrGeneration
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
)
