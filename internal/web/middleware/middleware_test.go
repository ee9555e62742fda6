package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matt-dz/recipebox/internal/env"
	"github.com/matt-dz/recipebox/internal/log"
	"github.com/matt-dz/recipebox/internal/web/requestid"
)

func TestAddRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithWriter(&buf, nil)

	var seen string
	handler := AddRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.ExtractRequestID(r.Context())
		logger.InfoContext(r.Context(), "inside handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(seen) != 26 {
		t.Fatalf("expected a ULID request id, got %q", seen)
	}
	if !strings.Contains(buf.String(), `"log_id":"`+seen+`"`) {
		t.Errorf("expected log line to carry the request id, got %s", buf.String())
	}
}

func TestAddRequestID_Unique(t *testing.T) {
	ids := make(map[string]struct{})
	handler := AddRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[requestid.ExtractRequestID(r.Context())] = struct{}{}
	}))
	for range 10 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if len(ids) != 10 {
		t.Errorf("expected 10 distinct ids, got %d", len(ids))
	}
}

func TestInjectEnv(t *testing.T) {
	want := env.Null()
	var got *env.Env
	handler := InjectEnv(want)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = env.EnvFromCtx(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != want {
		t.Error("expected handler to see the injected env")
	}
}

func TestLogRequest_RecoversPanics(t *testing.T) {
	handler := AddRequestID(LogRequest(slog.New(slog.DiscardHandler))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestLimitBody(t *testing.T) {
	var readErr error
	handler := LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/", strings.NewReader("more than eight bytes")))

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Errorf("expected *http.MaxBytesError, got %v", readErr)
	}
}
