package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
	"licensegate/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantType  string
		wantLevel slog.Level
	}{
		{
			name:      "device mismatch",
			err:       &license.Error{Kind: license.KindDeviceMismatch, Bound: "A", Local: "B"},
			wantCode:  http.StatusForbidden,
			wantType:  "/errors/license/device-mismatch",
			wantLevel: slog.LevelWarn,
		},
		{
			name:      "hardware identity unavailable",
			err:       fmt.Errorf("verify: %w", license.ErrHardwareIdentityUnavailable),
			wantCode:  http.StatusServiceUnavailable,
			wantType:  "/errors/license/hardware-identity-unavailable",
			wantLevel: slog.LevelError,
		},
		{
			name:      "deadline exceeded",
			err:       context.DeadlineExceeded,
			wantCode:  http.StatusGatewayTimeout,
			wantType:  TypeTimeout,
			wantLevel: slog.LevelError,
		},
		{
			name:      "body too large",
			err:       &http.MaxBytesError{Limit: 1024},
			wantCode:  http.StatusRequestEntityTooLarge,
			wantType:  TypePayloadTooLarge,
			wantLevel: slog.LevelWarn,
		},
		{
			name:      "validation api error",
			err:       NewValidationErrors([]ValidationError{{Field: "license", Message: "license is required"}}),
			wantCode:  http.StatusBadRequest,
			wantType:  TypeValidation,
			wantLevel: slog.LevelWarn,
		},
		{
			name:      "rate limit api error",
			err:       ErrRateLimitExceeded,
			wantCode:  http.StatusTooManyRequests,
			wantType:  TypeRateLimit,
			wantLevel: slog.LevelWarn,
		},
		{
			name:      "unknown error",
			err:       errors.New("disk on fire"),
			wantCode:  http.StatusInternalServerError,
			wantType:  TypeInternal,
			wantLevel: slog.LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/license/verify", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-123"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, ProblemContentType, rec.Header().Get("Content-Type"))

			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "trace-123", body["trace_id"])
			assert.Equal(t, "/api/license/verify", body["instance"])
			assert.NotContains(t, body, "stack")

			testutil.AssertLogContains(t, logs, tt.wantLevel, "request failed")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, logs.Count())
}

func TestErrorHandler_StackOnlyForServerErrors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))
	assert.Contains(t, decodeProblem(t, rec), "stack")

	rec = httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), license.ErrExpired)
	assert.NotContains(t, decodeProblem(t, rec), "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{name: "production", includeStack: false},
		{name: "development", includeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)
			rec := httptest.NewRecorder()

			h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/api/license/hwid", nil), "nil map")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeProblem(t, rec)
			if tt.includeStack {
				assert.Equal(t, "nil map", body["panic"])
			} else {
				assert.NotContains(t, body, "panic")
			}
			testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/license/verify", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeMethodNotAllowed, body["type"])
	assert.Contains(t, body["detail"], "DELETE")
}
