package summarizer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// sentenceDelimiter matches a run of terminal punctuation, treated as one boundary.
var sentenceDelimiter = regexp.MustCompile(`[.!?]+`)

// scoredSentence pairs a sentence with its frequency score.
type scoredSentence struct {
	text  string
	score int
}

// ExtractiveSummarizer implements Summarizer with frequency-weighted
// sentence scoring. It holds no state between calls.
type ExtractiveSummarizer struct{}

// NewExtractiveSummarizer creates a new ExtractiveSummarizer instance.
func NewExtractiveSummarizer() *ExtractiveSummarizer {
	return &ExtractiveSummarizer{}
}

// Initialize sets up the summarizer with any required configuration.
func (s *ExtractiveSummarizer) Initialize() error {
	return nil // Nothing to configure
}

// Summarize implements Summarizer.
func (s *ExtractiveSummarizer) Summarize(text string) (*Result, error) {
	return Summarize(text)
}

// Summarize reduces text to its highest scoring sentences.
//
// Sentences are ranked by the sum of the document-wide frequencies of their
// words, ties keep input order, and the selected sentences are returned in
// score order rather than reading order.
func Summarize(text string) (*Result, error) {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: input has %d characters", ErrInvalidInput, utf8.RuneCountInString(text))
	}

	tokenized := make([][]string, len(sentences))
	for i, sentence := range sentences {
		tokenized[i] = tokenize(sentence)
	}

	frequency := make(map[string]int)
	for _, words := range tokenized {
		for _, word := range words {
			if utf8.RuneCountInString(word) >= MinScoringWordLength {
				frequency[word]++
			}
		}
	}

	scored := make([]scoredSentence, len(sentences))
	for i, sentence := range sentences {
		score := 0
		for _, word := range tokenized[i] {
			score += frequency[word]
		}
		scored[i] = scoredSentence{text: sentence, score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	count := TargetSentenceCount(len(sentences))
	selected := make([]string, count)
	for i := 0; i < count; i++ {
		selected[i] = scored[i].text
	}

	summary := strings.Join(selected, ". ") + "."

	originalLength := utf8.RuneCountInString(text)
	summaryLength := utf8.RuneCountInString(summary)

	return &Result{
		Summary:             summary,
		OriginalLength:      originalLength,
		SummaryLength:       summaryLength,
		ReductionPercentage: reduction(originalLength, summaryLength),
	}, nil
}

// SplitSentences splits text on runs of '.', '!' and '?' and returns the
// trimmed, non-empty pieces in input order.
func SplitSentences(text string) []string {
	pieces := sentenceDelimiter.Split(text, -1)
	sentences := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		sentences = append(sentences, piece)
	}
	return sentences
}

// TargetSentenceCount returns how many sentences a summary of n sentences keeps.
func TargetSentenceCount(n int) int {
	return max(1, int(math.Floor(float64(n)*SummaryRatio)))
}

// tokenize lower-cases a sentence and splits it on whitespace runs.
func tokenize(sentence string) []string {
	return strings.Fields(strings.ToLower(sentence))
}

// reduction returns the percentage saved, rounded to two decimals.
func reduction(originalLength, summaryLength int) float64 {
	if originalLength == 0 {
		return 0
	}
	pct := float64(originalLength-summaryLength) / float64(originalLength) * 100
	return math.Round(pct*100) / 100
}
