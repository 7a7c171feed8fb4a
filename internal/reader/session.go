package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/localrivet/readaloud/internal/translator"
)

// DefaultPageGap is the pause between pages during continuous reading.
const DefaultPageGap = 500 * time.Millisecond

var (
	// ErrNoDocument is returned when an action needs a loaded document.
	ErrNoDocument = errors.New("no document loaded")

	// ErrPageOutOfRange is returned for pages outside the loaded document.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrNoText is returned when there is nothing to translate or summarize.
	ErrNoText = errors.New("no text available")
)

// Document is the text of an opened document, one entry per page.
type Document struct {
	ID    string
	Name  string
	Pages []string
}

// Opener finds and loads a document for an "open" command.
type Opener func(ctx context.Context, query string) (*Document, error)

// Change describes one state transition.
type Change struct {
	From  State `json:"from"`
	To    State `json:"to"`
	Event Event `json:"event"`
}

// Config holds the collaborators of a Session.
type Config struct {
	Speaker    Speaker
	Translator translator.Translator
	Summarizer summarizer.Summarizer
	Catalog    *translator.Catalog
	Opener     Opener
	Metrics    *telemetry.MetricsCollector
	Logger     *slog.Logger

	// PageGap defaults to DefaultPageGap. A negative value disables the gap.
	PageGap time.Duration

	// OnChange is called after every accepted transition, outside the
	// session lock.
	OnChange func(Change)
}

// Snapshot is a copy of the observable session state.
type Snapshot struct {
	State        State  `json:"state"`
	Page         int    `json:"page"`
	NumPages     int    `json:"numPages"`
	DocumentID   string `json:"documentId,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
	Language     string `json:"language,omitempty"`
	LastSummary  string `json:"lastSummary,omitempty"`
	LastError    string `json:"lastError,omitempty"`
}

// Session reads one document aloud. At most one background task (continuous
// reading, translation or summary read-back) runs at a time.
type Session struct {
	speaker    Speaker
	translator translator.Translator
	summarizer summarizer.Summarizer
	catalog    *translator.Catalog
	opener     Opener
	pageGap    time.Duration
	metrics    *telemetry.MetricsCollector
	logger     *slog.Logger
	onChange   func(Change)

	base       context.Context
	baseCancel context.CancelFunc

	// applyMu serialises Apply, Load and Close.
	applyMu sync.Mutex

	mu             sync.Mutex
	state          State
	page           int
	doc            *Document
	language       string
	translated     string
	translatedPage int
	lastSummary    string
	lastError      string
	jobCancel      context.CancelFunc
	jobDone        chan struct{}
}

// NewSession creates an idle session with no document.
func NewSession(cfg Config) *Session {
	if cfg.Speaker == nil {
		cfg.Speaker = NewLogSpeaker(cfg.Logger)
	}
	if cfg.Translator == nil {
		cfg.Translator = translator.NewIdentityProvider()
	}
	if cfg.Summarizer == nil {
		cfg.Summarizer = summarizer.NewExtractiveSummarizer()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = translator.DefaultCatalog()
	}
	if cfg.PageGap < 0 {
		cfg.PageGap = 0
	} else if cfg.PageGap == 0 {
		cfg.PageGap = DefaultPageGap
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetricsCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	base, cancel := context.WithCancel(context.Background())
	cfg.Metrics.AddGauge(telemetry.MetricSessionsActive, 1)

	return &Session{
		speaker:    cfg.Speaker,
		translator: cfg.Translator,
		summarizer: cfg.Summarizer,
		catalog:    cfg.Catalog,
		opener:     cfg.Opener,
		pageGap:    cfg.PageGap,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		onChange:   cfg.OnChange,
		base:       base,
		baseCancel: cancel,
		state:      Idle,
		page:       1,
	}
}

// Close stops any running task and releases the session.
func (s *Session) Close() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.stopJob()
	s.baseCancel()
	s.metrics.AddGauge(telemetry.MetricSessionsActive, -1)
}

// Load replaces the session's document and returns to page 1.
func (s *Session) Load(doc *Document) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.load(doc)
}

func (s *Session) load(doc *Document) {
	s.stopJob()

	s.mu.Lock()
	change, moved := s.resetLocked()
	s.doc = doc
	s.translated, s.translatedPage = "", 0
	s.lastSummary, s.lastError = "", ""
	s.mu.Unlock()

	if moved {
		s.emit(change)
	}
}

// View returns what voice commands are validated against.
func (s *Session) View() command.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return command.View{
		HasDocument: s.doc != nil,
		CurrentPage: s.page,
		NumPages:    s.numPagesLocked(),
	}
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:       s.state,
		Page:        s.page,
		NumPages:    s.numPagesLocked(),
		Language:    s.language,
		LastSummary: s.lastSummary,
		LastError:   s.lastError,
	}
	if s.doc != nil {
		snap.DocumentID = s.doc.ID
		snap.DocumentName = s.doc.Name
	}
	return snap
}

// Wait blocks until the current background task, if any, has finished.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.jobDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Apply performs a dispatched voice command action.
func (s *Session) Apply(ctx context.Context, action command.Action) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	switch action.Op {
	case command.OpOpenDocument:
		if s.opener == nil {
			return fmt.Errorf("opening documents by name is not available")
		}
		doc, err := s.opener(ctx, action.Query)
		if err != nil {
			return err
		}
		s.load(doc)
		return nil

	case command.OpStartReading, command.OpReadPage:
		return s.startReading(action.Page)

	case command.OpPause:
		return s.pause()

	case command.OpResume:
		return s.resume()

	case command.OpStop:
		s.stop()
		return nil

	case command.OpGoToPage:
		return s.goTo(action.Page)

	case command.OpReadInLanguage:
		return s.readInLanguage(action.Language, action.Page)

	case command.OpSummarize:
		return s.summarize(action.Page)
	}

	return fmt.Errorf("unsupported action %q", action.Op)
}

func (s *Session) startReading(page int) error {
	s.stopJob()

	s.mu.Lock()
	if err := s.checkPageLocked(page); err != nil {
		s.mu.Unlock()
		return err
	}
	change, err := s.transitionLocked(Event{Type: EventStart, Page: page})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.launchLocked(func(ctx context.Context) { s.readFrom(ctx, page) })
	s.mu.Unlock()

	s.emit(change)
	return nil
}

func (s *Session) pause() error {
	s.mu.Lock()
	change, err := s.transitionLocked(Event{Type: EventPause})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	cancel, done := s.takeJobLocked()
	s.mu.Unlock()

	s.finishJob(cancel, done)
	s.emit(change)
	return nil
}

func (s *Session) resume() error {
	s.mu.Lock()
	change, err := s.transitionLocked(Event{Type: EventResume})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	page := s.state.Page
	s.launchLocked(func(ctx context.Context) { s.readFrom(ctx, page) })
	s.mu.Unlock()

	s.emit(change)
	return nil
}

func (s *Session) stop() {
	s.mu.Lock()
	change, moved := s.resetLocked()
	cancel, done := s.takeJobLocked()
	s.mu.Unlock()

	s.finishJob(cancel, done)
	if moved {
		s.emit(change)
	}
}

func (s *Session) goTo(page int) error {
	s.mu.Lock()
	if err := s.checkPageLocked(page); err != nil {
		s.mu.Unlock()
		return err
	}
	reading := s.state.Status == StatusReading
	s.mu.Unlock()

	if reading {
		return s.startReading(page)
	}

	s.stopJob()

	s.mu.Lock()
	change, moved := s.resetLocked()
	s.page = page
	s.mu.Unlock()

	if moved {
		s.emit(change)
	}
	return nil
}

func (s *Session) readInLanguage(code string, page int) error {
	if code == "" {
		return fmt.Errorf("%w: empty language", translator.ErrUnknownLanguage)
	}
	if page == 0 {
		page = s.View().CurrentPage
	}

	s.stopJob()

	s.mu.Lock()
	if err := s.checkPageLocked(page); err != nil {
		s.mu.Unlock()
		return err
	}
	change, err := s.transitionLocked(Event{Type: EventTranslate, Page: page})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.language = code
	s.launchLocked(func(ctx context.Context) { s.translatePage(ctx, page, code) })
	s.mu.Unlock()

	s.emit(change)
	return nil
}

// summarize speaks a summary of page, or of the current page when page is 0.
func (s *Session) summarize(page int) error {
	s.stopJob()

	s.mu.Lock()
	if page == 0 {
		page = s.page
	}
	if err := s.checkPageLocked(page); err != nil {
		s.mu.Unlock()
		return err
	}
	change, err := s.transitionLocked(Event{Type: EventSummarize})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.launchLocked(func(ctx context.Context) { s.summarizePage(ctx, page) })
	s.mu.Unlock()

	s.emit(change)
	return nil
}

// readFrom speaks pages from start to the end of the document.
func (s *Session) readFrom(ctx context.Context, start int) {
	for page := start; ; {
		text, language := s.pageText(page)

		if text != "" {
			if language != "" {
				translation, err := s.translator.Translate(ctx, text, language)
				if err != nil {
					s.fail(ctx, fmt.Errorf("failed to translate page %d: %w", page, err))
					return
				}
				text = translation.Text
			}

			if err := s.speaker.Speak(ctx, s.utterance(text, language, page)); err != nil {
				s.fail(ctx, fmt.Errorf("failed to speak page %d: %w", page, err))
				return
			}
		}

		next := page + 1
		if next > s.View().NumPages {
			next = 0
		}
		if !s.fire(ctx, Event{Type: EventPageDone, Page: next}) {
			return
		}
		s.metrics.IncrementCounter(telemetry.MetricReaderPagesSpoken, 1)

		if next == 0 || !sleep(ctx, s.pageGap) {
			return
		}
		page = next
	}
}

// translatePage translates one page into code and speaks it with that
// language's voice.
func (s *Session) translatePage(ctx context.Context, page int, code string) {
	text, _ := s.pageText(page)
	if text == "" {
		s.fail(ctx, fmt.Errorf("%w on page %d", ErrNoText, page))
		return
	}

	translation, err := s.translator.Translate(ctx, text, code)
	if err != nil {
		s.fail(ctx, fmt.Errorf("failed to translate page %d: %w", page, err))
		return
	}

	s.mu.Lock()
	s.translated, s.translatedPage = translation.Text, page
	s.mu.Unlock()

	if err := s.speaker.Speak(ctx, s.utterance(translation.Text, code, page)); err != nil {
		s.fail(ctx, fmt.Errorf("failed to speak translation: %w", err))
		return
	}

	s.fire(ctx, Event{Type: EventDone})
}

// summarizePage summarizes the page (or its translation), translates the
// summary when a language is selected and speaks it.
func (s *Session) summarizePage(ctx context.Context, page int) {
	s.mu.Lock()
	language := s.language
	text := s.translated
	if s.translatedPage != page {
		text = ""
	}
	s.mu.Unlock()

	if text == "" {
		text, _ = s.pageText(page)
	}

	result, err := s.summarizer.Summarize(text)
	if err != nil {
		if errors.Is(err, summarizer.ErrInvalidInput) {
			err = fmt.Errorf("%w to summarize", ErrNoText)
		}
		s.fail(ctx, err)
		return
	}

	summary := result.Summary
	if language != "" {
		translation, err := s.translator.Translate(ctx, summary, language)
		if err != nil {
			s.fail(ctx, fmt.Errorf("failed to translate summary: %w", err))
			return
		}
		summary = translation.Text
	}

	s.mu.Lock()
	s.lastSummary = summary
	s.mu.Unlock()

	if err := s.speaker.Speak(ctx, s.utterance(summary, language, page)); err != nil {
		s.fail(ctx, fmt.Errorf("failed to speak summary: %w", err))
		return
	}

	s.fire(ctx, Event{Type: EventDone})
}

// pageText returns the text of page and the selected language.
func (s *Session) pageText(page int) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil || page < 1 || page > len(s.doc.Pages) {
		return "", s.language
	}
	return s.doc.Pages[page-1], s.language
}

func (s *Session) utterance(text, language string, page int) Utterance {
	voice := s.catalog.DefaultVoice
	if language != "" {
		voice = s.catalog.VoiceFor(language)
	}
	return Utterance{
		Text:   text,
		Voice:  voice,
		Rate:   s.catalog.Speech.Rate,
		Pitch:  s.catalog.Speech.Pitch,
		Volume: s.catalog.Speech.Volume,
		Page:   page,
	}
}

// fire applies e unless the task that raised it has been cancelled.
func (s *Session) fire(ctx context.Context, e Event) bool {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	change, err := s.transitionLocked(e)
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("dropping event", "event", e.Type, "error", err)
		return false
	}
	s.emit(change)
	return true
}

// fail records err and returns the session to idle, unless the task was cancelled.
func (s *Session) fail(ctx context.Context, err error) {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.lastError = err.Error()
	change, _ := s.transitionLocked(Event{Type: EventError})
	s.mu.Unlock()

	s.logger.Warn("reading task failed", "error", err)
	s.emit(change)
}

func (s *Session) transitionLocked(e Event) (Change, error) {
	from := s.state
	to, err := Transition(from, e)
	if err != nil {
		s.metrics.IncrementCounter(telemetry.MetricReaderRejected, 1)
		return Change{}, err
	}

	s.state = to
	if to.Page > 0 {
		s.page = to.Page
	}
	if e.Type != EventError {
		s.lastError = ""
	}
	s.metrics.IncrementCounter(telemetry.MetricReaderTransitions, 1)
	return Change{From: from, To: to, Event: e}, nil
}

// resetLocked stops the state machine and returns to page 1. It reports
// whether the state changed.
func (s *Session) resetLocked() (Change, bool) {
	s.page = 1
	if s.state == Idle {
		return Change{}, false
	}
	change, _ := s.transitionLocked(Event{Type: EventStop})
	s.page = 1
	return change, true
}

func (s *Session) checkPageLocked(page int) error {
	if s.doc == nil {
		return ErrNoDocument
	}
	if page < 1 || page > len(s.doc.Pages) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, len(s.doc.Pages))
	}
	return nil
}

func (s *Session) numPagesLocked() int {
	if s.doc == nil {
		return 0
	}
	return len(s.doc.Pages)
}

func (s *Session) launchLocked(job func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(s.base)
	done := make(chan struct{})
	s.jobCancel, s.jobDone = cancel, done

	go func() {
		defer close(done)
		job(ctx)
	}()
}

// takeJobLocked cancels the running task and hands back what finishJob needs.
func (s *Session) takeJobLocked() (context.CancelFunc, chan struct{}) {
	cancel, done := s.jobCancel, s.jobDone
	s.jobCancel, s.jobDone = nil, nil
	if cancel != nil {
		cancel()
	}
	return cancel, done
}

func (s *Session) stopJob() {
	s.mu.Lock()
	cancel, done := s.takeJobLocked()
	s.mu.Unlock()

	s.finishJob(cancel, done)
}

func (s *Session) finishJob(cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	if err := s.speaker.Cancel(); err != nil {
		s.logger.Warn("failed to cancel speech", "error", err)
	}
	<-done
}

func (s *Session) emit(change Change) {
	if s.onChange != nil {
		s.onChange(change)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
