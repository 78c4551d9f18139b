package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "asset-buyback-api/pkg/errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler provides centralized error handling functionality for handlers
type ErrorHandler struct {
	Logger *zap.Logger
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		Logger: logger,
	}
}

// SendErrorResponse sends a structured error response
func (e *ErrorHandler) SendErrorResponse(w http.ResponseWriter, statusCode int, message, code string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		e.Logger.Error("failed to encode error response", zap.Error(err))
	}
}

// SendJSONResponse sends a generic JSON response
func (e *ErrorHandler) SendJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		e.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// HandleError maps a service error to its HTTP response. Errors that are not
// an *AppError are reported as internal errors without leaking their text.
func (e *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.WrapError(err, "failed to "+operation+" asset")
	}
	if requestID := GetRequestIDFromContext(r.Context()); requestID != "" {
		appErr.WithRequestID(requestID)
	}

	status := appErr.GetHTTPStatus()
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("code", string(appErr.Code)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		e.Logger.Error("request failed", fields...)
	} else {
		e.Logger.Debug("request rejected", fields...)
	}

	var details map[string]interface{}
	if len(appErr.Details) > 0 {
		details = appErr.Details
	}
	e.SendErrorResponse(w, status, appErr.Message, string(appErr.Code), details)
}

// HandleJSONDecodeError handles JSON decoding errors
func (e *ErrorHandler) HandleJSONDecodeError(w http.ResponseWriter, err error) {
	e.Logger.Debug("JSON decode error", zap.Error(err))
	e.SendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", string(apperrors.ErrorCodeInvalidJSON), nil)
}

// ParseAndValidateUUID parses and validates UUID from string
func (e *ErrorHandler) ParseAndValidateUUID(w http.ResponseWriter, idStr string) (uuid.UUID, bool) {
	if idStr == "" {
		e.SendErrorResponse(w, http.StatusBadRequest, "ID is required", string(apperrors.ErrorCodeInvalidUUID), nil)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		e.Logger.Debug("UUID parse error", zap.String("id", idStr), zap.Error(err))
		e.SendErrorResponse(w, http.StatusBadRequest, "Invalid asset ID format", string(apperrors.ErrorCodeInvalidUUID),
			map[string]interface{}{"id": idStr})
		return uuid.Nil, false
	}

	return id, true
}
