// Package tools defines the request and response schemas shared by the
// readaloud HTTP API and its MCP tools.
package tools

import (
	"errors"
	"strings"

	"github.com/localrivet/readaloud/internal/docstore"
)

const (
	// ToolSummarizeText is the name of the summarize_text MCP tool
	ToolSummarizeText = "summarize_text"

	// ToolTranslateText is the name of the translate_text MCP tool
	ToolTranslateText = "translate_text"

	// ToolParseVoiceCommand is the name of the parse_voice_command MCP tool
	ToolParseVoiceCommand = "parse_voice_command"

	// ToolSearchDocuments is the name of the search_documents MCP tool
	ToolSearchDocuments = "search_documents"

	// StatusSuccess and StatusError are the values of a response Status.
	StatusSuccess = "success"
	StatusError   = "error"
)

// Messages returned by the HTTP API.
const (
	MsgTextRequired      = "Text is required for summarization"
	MsgTextSummarized    = "Text summarized successfully"
	MsgTextTranslated    = "Text translated successfully"
	MsgTranslateFailed   = "Error translating text"
	MsgTextExtracted     = "Text extracted successfully"
	MsgDocumentDeleted   = "PDF deleted successfully"
	MsgDocumentUploaded  = "PDF uploaded successfully"
	MsgDocumentUpdated   = "PDF updated successfully"
	MsgNoFileUploaded    = "No file uploaded."
	MsgOnlyPDF           = "Only PDF files are allowed"
	MsgDocumentNotFound  = "PDF not found"
	MsgNoSearchResults   = "No PDFs found with that name"
	MsgTargetLangMissing = "Target language is required"
)

var (
	// ErrTextRequired is returned when a request carries no text.
	ErrTextRequired = errors.New(MsgTextRequired)

	// ErrTargetLangRequired is returned when a translation has no target.
	ErrTargetLangRequired = errors.New(MsgTargetLangMissing)

	// ErrTranscriptRequired is returned when a command request is empty.
	ErrTranscriptRequired = errors.New("Transcript is required")

	// ErrNameRequired is returned when a search has no name.
	ErrNameRequired = errors.New("Name is required")

	// ErrPagesRequired is returned when an extract request has no text.
	ErrPagesRequired = errors.New("Pages or text are required")

	// ErrNoDocumentText is returned when a stored document has no extracted text.
	ErrNoDocumentText = errors.New("No text available to translate. Extract the PDF text first")
)

// SummarizeRequest defines the input schema for /summarize and summarize_text
type SummarizeRequest struct {
	// Text is the text to summarize
	Text string `json:"text"`
}

// Validate checks the request.
func (r SummarizeRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrTextRequired
	}
	return nil
}

// SummarizeResponse defines the output schema for summarization
type SummarizeResponse struct {
	Message             string  `json:"message,omitempty"`
	Summary             string  `json:"summary"`
	OriginalLength      int     `json:"originalLength"`
	SummaryLength       int     `json:"summaryLength"`
	ReductionPercentage float64 `json:"reductionPercentage"`
}

// TranslateRequest defines the input schema for the translate endpoints.
// Text is optional when a stored document is translated.
type TranslateRequest struct {
	TargetLang string `json:"targetLang"`
	Text       string `json:"text,omitempty"`
}

// Validate checks the request. requireText is false when the document's
// extracted text can stand in for Text.
func (r TranslateRequest) Validate(requireText bool) error {
	if strings.TrimSpace(r.TargetLang) == "" {
		return ErrTargetLangRequired
	}
	if requireText && strings.TrimSpace(r.Text) == "" {
		return ErrTextRequired
	}
	return nil
}

// TranslateResponse defines the output schema for the translate endpoints
type TranslateResponse struct {
	Message                string `json:"message"`
	TranslatedText         string `json:"translatedText"`
	DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
	TargetLanguage         string `json:"targetLanguage"`
}

// TranslateTextRequest defines the input schema for the translate_text tool
type TranslateTextRequest struct {
	// FromText is the text to translate
	FromText string `json:"from_text"`

	// ToLanguage is a spoken language name, ISO code or BCP-47 tag
	ToLanguage string `json:"to_language"`
}

// TranslateTextResponse defines the output schema for the translate_text tool
type TranslateTextResponse struct {
	Status                 string `json:"status"`
	TranslatedText         string `json:"translated_text,omitempty"`
	DetectedSourceLanguage string `json:"detected_source_language,omitempty"`
	Error                  string `json:"error,omitempty"`
}

// ExtractRequest carries page text extracted in the browser.
// Pages takes precedence over Text.
type ExtractRequest struct {
	Pages []string `json:"pages,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// Validate checks the request.
func (r ExtractRequest) Validate() error {
	if len(r.Pages) == 0 && strings.TrimSpace(r.Text) == "" {
		return ErrPagesRequired
	}
	return nil
}

// CommandView is the reader state a transcript is dispatched against.
type CommandView struct {
	DocumentID  string `json:"documentId,omitempty"`
	CurrentPage int    `json:"currentPage"`
	NumPages    int    `json:"numPages"`
}

// CommandRequest defines the input schema for /api/v1/command and
// parse_voice_command
type CommandRequest struct {
	Transcript string      `json:"transcript"`
	View       CommandView `json:"view"`
}

// Validate checks the request.
func (r CommandRequest) Validate() error {
	if strings.TrimSpace(r.Transcript) == "" {
		return ErrTranscriptRequired
	}
	return nil
}

// CommandResponse reports the parsed command and the resulting action.
type CommandResponse struct {
	Status   string `json:"status"`
	Command  string `json:"command"`
	Op       string `json:"op,omitempty"`
	Page     int    `json:"page,omitempty"`
	Query    string `json:"query,omitempty"`
	Language string `json:"language,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SearchDocumentsRequest defines the input schema for search_documents
type SearchDocumentsRequest struct {
	Name string `json:"name"`
}

// Validate checks the request.
func (r SearchDocumentsRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// DocumentSummary is a compact document listing.
type DocumentSummary struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	Pages        int    `json:"pages"`
}

// SearchDocumentsResponse defines the output schema for search_documents
type SearchDocumentsResponse struct {
	Status    string            `json:"status"`
	Documents []DocumentSummary `json:"documents"`
	Error     string            `json:"error,omitempty"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	Message string             `json:"message"`
	PDFID   string             `json:"pdfId"`
	PDF     *docstore.Document `json:"pdf"`
	ViewURL string             `json:"viewUrl"`
}

// ExtractResponse is returned by the extract endpoint.
type ExtractResponse struct {
	Message       string `json:"message"`
	PDFID         string `json:"pdfId"`
	ExtractedText string `json:"extractedText"`
	Pages         int    `json:"pages"`
}

// UpdateResponse is returned by the update endpoint.
type UpdateResponse struct {
	Message string             `json:"message"`
	PDF     *docstore.Document `json:"pdf"`
}

// MessageResponse is the body of an HTTP request that only reports success.
type MessageResponse struct {
	Message string `json:"message"`
}
