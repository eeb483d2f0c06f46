package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "licensegate/internal/errors"
	"licensegate/internal/shared/testutil"
)

type sampleRequest struct {
	License string `json:"license" validate:"required,max=16"`
}

func TestValidator_ValidateStruct(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewValidator(logger)

	tests := []struct {
		name      string
		input     sampleRequest
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{name: "valid", input: sampleRequest{License: "a.b"}},
		{name: "missing", input: sampleRequest{}, wantErr: true, wantField: "license", wantMsg: "license is required"},
		{name: "too long", input: sampleRequest{License: strings.Repeat("x", 17)}, wantErr: true, wantField: "license", wantMsg: "license must be at most 16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.Len(t, details.Errors, 1)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
			assert.Equal(t, tt.wantMsg, details.Errors[0].Message)
		})
	}
}

func TestValidator_NonStruct(t *testing.T) {
	v := NewValidator(nil)
	err := v.ValidateStruct("not a struct")

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_REQUEST", apiErr.ErrorCode)
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	mw := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "application/json")
	h := mw(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantCode    int
	}{
		{name: "json accepted", method: http.MethodPost, contentType: "application/json; charset=utf-8", wantCode: http.StatusOK},
		{name: "missing rejected", method: http.MethodPost, contentType: "", wantCode: http.StatusBadRequest},
		{name: "form rejected", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", wantCode: http.StatusUnsupportedMediaType},
		{name: "get skipped", method: http.MethodGet, contentType: "", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/license/verify", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
