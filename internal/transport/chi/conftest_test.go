package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	answeruc "github.com/kailas-cloud/lawbot/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/lawbot/internal/usecase/health"
)

type mockAnswerer struct {
	result   answeruc.Result
	err      error
	panicMsg string
	question string
	calls    int
}

func (m *mockAnswerer) Answer(_ context.Context, question string) (answeruc.Result, error) {
	m.calls++
	m.question = question
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	return m.result, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(t *testing.T, a *mockAnswerer, h *mockHealth) http.Handler {
	t.Helper()
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	return NewServer(a, h, zap.NewNop()).Router("*")
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func doRequestWith(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
