package server

import (
	"net/http"
	"time"

	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/localrivet/readaloud/internal/tools"
)

// handleSummarize summarizes the posted text.
func (s *HTTPServer) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req tools.SummarizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		HandleError(w, err)
		return
	}

	result, err := s.deps.Summarizer.SummarizeContext(r.Context(), req.Text)
	if err != nil {
		HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tools.SummarizeResponse{
		Message:             tools.MsgTextSummarized,
		Summary:             result.Summary,
		OriginalLength:      result.OriginalLength,
		SummaryLength:       result.SummaryLength,
		ReductionPercentage: result.ReductionPercentage,
	})
}

// handleTranslateText translates the posted text.
func (s *HTTPServer) handleTranslateText(w http.ResponseWriter, r *http.Request) {
	var req tools.TranslateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if err := req.Validate(true); err != nil {
		HandleError(w, err)
		return
	}

	s.translate(w, r, req.Text, req.TargetLang)
}

func (s *HTTPServer) translate(w http.ResponseWriter, r *http.Request, text, target string) {
	lang, err := s.deps.Catalog.Resolve(target)
	if err != nil {
		HandleError(w, err)
		return
	}

	translation, err := s.deps.Translator.Translate(r.Context(), text, lang.Code)
	if err != nil {
		HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tools.TranslateResponse{
		Message:                tools.MsgTextTranslated,
		TranslatedText:         translation.Text,
		DetectedSourceLanguage: translation.DetectedSourceLanguage,
		TargetLanguage:         lang.Code,
	})
}

// handleCommand parses a transcript and validates it against the posted view.
func (s *HTTPServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req tools.CommandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		HandleError(w, err)
		return
	}

	cmd := command.Parse(req.Transcript)
	s.countCommand(cmd)

	action, err := command.Dispatch(commandView(req.View), cmd)
	if err != nil {
		s.deps.Metrics.IncrementCounter(telemetry.MetricCommandsRejected, 1)
		HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tools.CommandResponse{
		Status:   tools.StatusSuccess,
		Command:  string(cmd.Kind()),
		Op:       string(action.Op),
		Page:     action.Page,
		Query:    action.Query,
		Language: action.Language,
	})
}

func (s *HTTPServer) countCommand(cmd command.Command) {
	s.deps.Metrics.IncrementCounter(telemetry.MetricCommandsParsed, 1)
	if cmd.Kind() == command.KindUnrecognized {
		s.deps.Metrics.IncrementCounter(telemetry.MetricCommandsUnknown, 1)
	}
}

// handleLanguages returns the language catalog.
func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog)
}

// handleHealth reports that the process is serving.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   summarizer.Version,
	})
}

// handleSummarizerHealth reports the summarizer health and cache statistics.
func (s *HTTPServer) handleSummarizerHealth(w http.ResponseWriter, r *http.Request) {
	report, err := summarizer.CreateHealthReport(s.deps.Summarizer)
	if err != nil {
		HandleError(w, err)
		return
	}

	status := http.StatusOK
	if report.Status == summarizer.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
