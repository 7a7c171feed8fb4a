// Package summarizer provides interfaces and implementations for
// summarizing page text within the readaloud service.
package summarizer

import "errors"

const (
	// SummaryRatio is the fraction of input sentences kept in a summary.
	SummaryRatio = 0.3

	// MinScoringWordLength is the shortest word (in characters) that is
	// counted in the frequency table. Shorter words always score 0.
	MinScoringWordLength = 4
)

// ErrInvalidInput is returned when no sentence can be extracted from the input.
var ErrInvalidInput = errors.New("no sentences could be extracted from text")

// Result is the outcome of one summarization call.
type Result struct {
	Summary             string  `json:"summary"`
	OriginalLength      int     `json:"originalLength"`
	SummaryLength       int     `json:"summaryLength"`
	ReductionPercentage float64 `json:"reductionPercentage"`
}

// Summarizer defines the interface for summarizing text content.
type Summarizer interface {
	// Summarize takes a text input and returns an extractive summary.
	Summarize(text string) (*Result, error)

	// Initialize sets up the summarizer with any required configuration.
	Initialize() error
}
