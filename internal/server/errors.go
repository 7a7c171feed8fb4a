package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/localrivet/readaloud/internal/blobstore"
	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/errortypes"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/tools"
	"github.com/localrivet/readaloud/internal/translator"
)

// ErrorResponse represents the structure of error responses sent by the API.
// Error is the message shown to the user.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Error codes
const (
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"
	ErrorCodeResourceNotFound = "RESOURCE_NOT_FOUND"
	ErrorCodeInternalError    = "INTERNAL_ERROR"
	ErrorCodeBadGateway       = "BAD_GATEWAY"
	ErrorCodeTooLarge         = "PAYLOAD_TOO_LARGE"
)

// writeErrorResponse writes a structured error response to the HTTP response writer
func writeErrorResponse(w http.ResponseWriter, status int, code, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  code,
	}

	if err != nil {
		errResp.Details = err.Error()

		// Only server side failures are worth an error log
		if status >= http.StatusInternalServerError {
			logErr := errortypes.InternalError(err, fmt.Sprintf("API Error (%s)", code)).
				WithField("status_code", status).
				WithField("client_message", message)
			errortypes.LogError(nil, logErr)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// HandleBadRequest handles 400 Bad Request errors
func HandleBadRequest(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusBadRequest, ErrorCodeInvalidRequest, message, err)
}

// HandleNotFound handles 404 Not Found errors
func HandleNotFound(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusNotFound, ErrorCodeResourceNotFound, message, err)
}

// HandleInternalError handles 500 Internal Server Error errors
func HandleInternalError(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusInternalServerError, ErrorCodeInternalError, message, err)
}

// HandleBadGateway handles 502 Bad Gateway errors
func HandleBadGateway(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusBadGateway, ErrorCodeBadGateway, message, err)
}

// ErrorWithStatus creates an error with an HTTP status code
type ErrorWithStatus struct {
	err        error
	statusCode int
	errorCode  string
	message    string
}

// NewErrorWithStatus creates a new error with HTTP status code
func NewErrorWithStatus(err error, status int, code, message string) *ErrorWithStatus {
	return &ErrorWithStatus{
		err:        err,
		statusCode: status,
		errorCode:  code,
		message:    message,
	}
}

// Error returns the error message
func (e *ErrorWithStatus) Error() string {
	if e.message != "" {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.err.Error()
}

// Unwrap returns the underlying error
func (e *ErrorWithStatus) Unwrap() error {
	return e.err
}

// StatusCode returns the HTTP status code
func (e *ErrorWithStatus) StatusCode() int {
	return e.statusCode
}

// ErrorCode returns the application error code
func (e *ErrorWithStatus) ErrorCode() string {
	return e.errorCode
}

// Message returns the client-friendly message
func (e *ErrorWithStatus) Message() string {
	return e.message
}

// validationErrors are answered with 400 and their own message.
var validationErrors = []error{
	tools.ErrTextRequired,
	tools.ErrTargetLangRequired,
	tools.ErrTranscriptRequired,
	tools.ErrNameRequired,
	tools.ErrPagesRequired,
	tools.ErrNoDocumentText,
	translator.ErrEmptyText,
	translator.ErrTextTooLong,
	translator.ErrUnknownLanguage,
	translator.ErrUnsupportedProvider,
}

// HandleError handles any error, inspecting its type to determine the appropriate HTTP response
func HandleError(w http.ResponseWriter, err error) {
	var statusErr *ErrorWithStatus
	if errors.As(err, &statusErr) {
		writeErrorResponse(w, statusErr.StatusCode(), statusErr.ErrorCode(),
			statusErr.Message(), statusErr.Unwrap())
		return
	}

	var rejection *command.Rejection
	if errors.As(err, &rejection) {
		HandleBadRequest(w, rejection.Message, nil)
		return
	}

	switch {
	case errors.Is(err, summarizer.ErrInvalidInput):
		HandleBadRequest(w, tools.MsgTextRequired, err)
		return
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, blobstore.ErrNotFound):
		HandleNotFound(w, tools.MsgDocumentNotFound, err)
		return
	case errors.Is(err, translator.ErrTranslationFailed):
		HandleInternalError(w, tools.MsgTranslateFailed, err)
		return
	}

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			HandleBadRequest(w, target.Error(), err)
			return
		}
	}

	var appErr *errortypes.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case errortypes.ErrorTypeValidation:
			HandleBadRequest(w, appErr.Message, err)
			return
		case errortypes.ErrorTypeNotFound:
			HandleNotFound(w, appErr.Message, err)
			return
		case errortypes.ErrorTypeExternal:
			HandleBadGateway(w, "Downstream service error", err)
			return
		default:
			if appErr.Message != "" {
				HandleInternalError(w, appErr.Message, err)
				return
			}
		}
	}

	// Default to internal server error for unknown error types
	HandleInternalError(w, "An unexpected error occurred", err)
}
