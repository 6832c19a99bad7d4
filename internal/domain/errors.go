package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexLoad signals that a persisted index could not be opened or is malformed.
	ErrIndexLoad = errors.New("index load failed")
	// ErrRetrieval signals a failure inside one of the retrievers or the fusion step.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals an LLM completion failure.
	ErrGeneration = errors.New("generation failed")
	// ErrInvalidQuestion signals a missing or empty question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDimensionMismatch signals a query vector that does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Kind classifies a Failure for the transport layer.
type Kind int

const (
	// KindUnhandled is any failure without a more specific classification.
	KindUnhandled Kind = iota
	// KindIndexLoad is raised at startup when an index is missing or corrupt.
	KindIndexLoad
	// KindRetrieval is raised when lexical or vector retrieval fails.
	KindRetrieval
	// KindGeneration is raised when the LLM call fails.
	KindGeneration
)

func (k Kind) String() string {
	switch k {
	case KindIndexLoad:
		return "index_load"
	case KindRetrieval:
		return "retrieval"
	case KindGeneration:
		return "generation"
	default:
		return "unhandled"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindIndexLoad:
		return ErrIndexLoad
	case KindRetrieval:
		return ErrRetrieval
	case KindGeneration:
		return ErrGeneration
	default:
		return nil
	}
}

// Failure is a classified pipeline error. errors.Is matches both the kind
// sentinel (ErrRetrieval, ...) and the wrapped cause.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

// NewFailure wraps err with a kind and the operation that produced it.
func NewFailure(kind Kind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := f.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// KindOf reports the Kind of the first Failure in err's chain, or KindUnhandled.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnhandled
}
