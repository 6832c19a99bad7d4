package chi

// QueryRequest is the POST /query body.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the POST /query success body.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// Source cites one retrieved precedent.
type Source struct {
	PrecSeq    string `json:"prec_seq,omitempty"`
	CaseName   string `json:"case_name,omitempty"`
	CaseNumber string `json:"case_number,omitempty"`
	URL        string `json:"url,omitempty"`
}

// ErrorCode is a machine-readable failure class.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeInvalidRequest   ErrorCode = "invalid_request"
	ErrorCodeRetrievalFailed  ErrorCode = "retrieval_failed"
	ErrorCodeGenerationFailed ErrorCode = "generation_failed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code   ErrorCode `json:"code"`
	Detail string    `json:"detail"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents map[string]uint64 `json:"documents,omitempty"`
}
