// Package chi exposes the question-answering API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/metrics"
	answeruc "github.com/kailas-cloud/lawbot/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/lawbot/internal/usecase/health"
)

// maxBodyBytes bounds the /query request body.
const maxBodyBytes = 64 << 10

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (answeruc.Result, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	answers       Answerer
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(answers Answerer, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		answers: answers,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusBadRequest, ErrorCodeInvalidRequest),
		sentinelHandler(domain.ErrRetrieval, http.StatusInternalServerError, ErrorCodeRetrievalFailed),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, ErrorCodeGenerationFailed),
	}
	return s
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(allowOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{allowOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Post("/query", s.Query)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "Invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "Invalid request body: empty"
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, msg)
		return
	}

	res, err := s.answers.Answer(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Answer:  res.Answer,
		Sources: sourcesFromDocuments(res.Sources),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		Documents: report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func sourcesFromDocuments(docs []domain.Document) []Source {
	if len(docs) == 0 {
		return nil
	}
	out := make([]Source, len(docs))
	for i, d := range docs {
		out[i] = Source{
			PrecSeq:    d.Meta(domain.MetaPrecSeq),
			CaseName:   d.Meta(domain.MetaCaseName),
			CaseNumber: d.Meta(domain.MetaCaseNumber),
			URL:        d.SourceURL(),
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, detail string) {
	writeJSON(w, status, ErrorResponse{Code: code, Detail: detail})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The detail carries the full error chain message.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := requestLogger(r, s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Stringer("kind", domain.KindOf(err)), zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, err.Error())
}
