package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"read", NewReadError("bad file", errors.New("eof")), http.StatusUnprocessableEntity, "READ"},
		{"validation", NewAppValidationError("ragged"), http.StatusUnprocessableEntity, "VALIDATION"},
		{"timestamp", NewTimestampError("period", nil), http.StatusUnprocessableEntity, "TIMESTAMP"},
		{"config", NewConfigError("quote", nil), http.StatusBadRequest, "CONFIG"},
		{"cancelled", NewCancelledError(context.Canceled), http.StatusServiceUnavailable, "CANCELLED"},
		{"storage", NewStorageError("rename", nil), http.StatusInternalServerError, "STORAGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromAppError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
			assert.Equal(t, tt.err.Message, apiErr.Message)
			if tt.err.Cause == nil {
				assert.Nil(t, apiErr.Details)
			} else {
				assert.Equal(t, tt.err.Cause.Error(), apiErr.Details)
			}
		})
	}
}

func TestNewValidationErrors(t *testing.T) {
	apiErr := NewValidationErrors([]ValidationError{{Field: "paths", Message: "is required"}})
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
	assert.Len(t, apiErr.Details, 1)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "paths is required", "/api/v1/conversions").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeValidation, got["type"])
	assert.Equal(t, float64(http.StatusBadRequest), got["status"])
	assert.Equal(t, "paths is required", got["detail"])
	assert.Equal(t, "abc", got["trace_id"])
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "api error",
			err:        InvalidRequestWithError(errors.New("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "wrapped app error",
			err:        fmt.Errorf("convert: %w", NewTimestampError("period must be at least one second", nil)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeConversion,
		},
		{
			name:       "path outside root",
			err:        NewPathNotAllowed([]ValidationError{{Field: "paths[0]", Message: "must be inside the server root directory"}}),
			wantStatus: http.StatusForbidden,
			wantType:   TypeForbidden,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	h := NewErrorHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/conversions", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/v1/conversions", body["instance"])
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(nil)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}
