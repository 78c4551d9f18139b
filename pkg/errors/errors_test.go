package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", ValidationError("bad"), http.StatusBadRequest},
		{"transition denied", TransitionDeniedError("denied", "not_approved", nil), http.StatusBadRequest},
		{"invalid uuid", InvalidUUIDError("xyz", nil), http.StatusBadRequest},
		{"not found", NotFoundError("asset"), http.StatusNotFound},
		{"payload too large", PayloadTooLargeError(10), http.StatusRequestEntityTooLarge},
		{"unsupported format", UnsupportedFormatError("not xlsx", nil), http.StatusUnsupportedMediaType},
		{"database", DatabaseError("down", nil), http.StatusInternalServerError},
		{"internal", InternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.GetHTTPStatus())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := DatabaseError("failed to create asset", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "DATABASE_ERROR: failed to create asset (caused by: connection refused)", err.Error())
}

func TestDetails(t *testing.T) {
	err := TransitionDeniedError("already completed", "already_completed", nil)
	assert.Equal(t, "already_completed", err.Details["reason"])

	verr := ValidationErrorWithDetails("invalid asset", map[string]string{"macAddress": "invalid MAC address"})
	assert.Equal(t, "invalid MAC address", verr.Details["macAddress"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(verr.WithRequestID("req-1").ToJSON(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "req-1", body["request_id"])
}

func TestWrapError(t *testing.T) {
	original := NotFoundError("asset")
	assert.Same(t, original, WrapError(original, "ignored"))

	wrapped := WrapError(fmt.Errorf("boom"), "unexpected")
	assert.Equal(t, ErrorCodeInternal, wrapped.Code)
	assert.Equal(t, "unexpected", wrapped.Message)

	_, ok := AsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
	assert.True(t, IsAppError(original))
}
