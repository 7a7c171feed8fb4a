package reader

import (
	"context"
	"log/slog"
)

// Utterance is one piece of text to be spoken.
type Utterance struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
	Page   int     `json:"page,omitempty"`
}

// Speaker turns utterances into speech.
type Speaker interface {
	// Speak blocks until u has been spoken or ctx is done.
	Speak(ctx context.Context, u Utterance) error

	// Cancel stops any utterance in progress.
	Cancel() error
}

// LogSpeaker logs utterances instead of speaking them. It backs headless
// sessions.
type LogSpeaker struct {
	logger *slog.Logger
}

// NewLogSpeaker creates a LogSpeaker writing to logger.
func NewLogSpeaker(logger *slog.Logger) *LogSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpeaker{logger: logger}
}

// Speak implements Speaker.
func (s *LogSpeaker) Speak(ctx context.Context, u Utterance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("speak", "page", u.Page, "voice", u.Voice, "chars", len(u.Text))
	return nil
}

// Cancel implements Speaker.
func (s *LogSpeaker) Cancel() error {
	return nil
}
