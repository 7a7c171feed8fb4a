package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/localrivet/readaloud/internal/blobstore"
	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/errortypes"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/tools"
	"github.com/localrivet/readaloud/internal/translator"
)

func TestWriteErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		code        string
		message     string
		err         error
		wantDetails string
	}{
		{
			name:        "basic error",
			status:      http.StatusBadRequest,
			code:        ErrorCodeInvalidRequest,
			message:     "Invalid input",
			err:         errors.New("test error"),
			wantDetails: "test error",
		},
		{
			name:    "nil error",
			status:  http.StatusInternalServerError,
			code:    ErrorCodeInternalError,
			message: "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeErrorResponse(w, tt.status, tt.code, tt.message, tt.err)

			if w.Code != tt.status {
				t.Errorf("writeErrorResponse() status = %v, want %v", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %v, want %v", resp.Code, tt.code)
			}
			if resp.Error != tt.message {
				t.Errorf("error = %q, want %q", resp.Error, tt.message)
			}
			if resp.Details != tt.wantDetails {
				t.Errorf("details = %q, want %q", resp.Details, tt.wantDetails)
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "status error",
			err:         NewErrorWithStatus(errors.New("boom"), http.StatusTeapot, "TEAPOT", "short and stout"),
			wantStatus:  http.StatusTeapot,
			wantMessage: "short and stout",
		},
		{
			name:        "rejected command",
			err:         &command.Rejection{Message: "Please select a PDF first"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Please select a PDF first",
		},
		{
			name:        "summarizer input",
			err:         fmt.Errorf("summarize: %w", summarizer.ErrInvalidInput),
			wantStatus:  http.StatusBadRequest,
			wantMessage: tools.MsgTextRequired,
		},
		{
			name:        "missing document",
			err:         fmt.Errorf("get: %w", docstore.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: tools.MsgDocumentNotFound,
		},
		{
			name:        "missing blob",
			err:         blobstore.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: tools.MsgDocumentNotFound,
		},
		{
			name:        "translation failure",
			err:         fmt.Errorf("all providers: %w", translator.ErrTranslationFailed),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: tools.MsgTranslateFailed,
		},
		{
			name:        "missing target language",
			err:         tools.ErrTargetLangRequired,
			wantStatus:  http.StatusBadRequest,
			wantMessage: tools.ErrTargetLangRequired.Error(),
		},
		{
			name:        "validation app error",
			err:         errortypes.ValidationError(errors.New("invalid input"), "validation failed"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "validation failed",
		},
		{
			name:        "not found app error",
			err:         errortypes.NotFoundError(errors.New("missing"), "resource not found"),
			wantStatus:  http.StatusNotFound,
			wantMessage: "resource not found",
		},
		{
			name:        "external app error",
			err:         errortypes.ExternalError(errors.New("timeout"), "provider failed"),
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Downstream service error",
		},
		{
			name:        "database app error",
			err:         errortypes.DatabaseError(errors.New("locked"), "Error fetching PDFs"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Error fetching PDFs",
		},
		{
			name:        "unknown error",
			err:         errors.New("unexpected"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleError() status = %v, want %v", w.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if resp.Error != tt.wantMessage {
				t.Errorf("HandleError() message = %q, want %q", resp.Error, tt.wantMessage)
			}
		})
	}
}

func TestErrorWithStatus(t *testing.T) {
	base := errors.New("base")
	err := NewErrorWithStatus(base, http.StatusConflict, "CONFLICT", "already exists")

	if !errors.Is(err, base) {
		t.Error("ErrorWithStatus should unwrap to the base error")
	}
	if err.Error() != "already exists: base" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.StatusCode() != http.StatusConflict || err.ErrorCode() != "CONFLICT" {
		t.Errorf("unexpected status %d / code %s", err.StatusCode(), err.ErrorCode())
	}
}
