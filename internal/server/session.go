package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/reader"
	"github.com/localrivet/readaloud/internal/telemetry"
)

// maxFrameSize bounds a single client frame.
const maxFrameSize = 64 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same-origin is not enforced, matching the API's CORS policy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSession runs one reading session over a websocket. The browser sends
// "command" frames with voice transcripts and "spoken" acknowledgements; the
// server sends "speak", "cancel", "state", "action" and "error" frames.
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.With("request_id", RequestID(ctx))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	speaker := reader.NewWebsocketSpeaker(conn)

	var session *reader.Session
	session = reader.NewSession(reader.Config{
		Speaker:    speaker,
		Translator: s.deps.Translator,
		Summarizer: s.deps.Summarizer,
		Catalog:    s.deps.Catalog,
		Opener:     s.openDocument,
		Metrics:    s.deps.Metrics,
		Logger:     logger,
		PageGap:    s.deps.PageGap,
		OnChange: func(change reader.Change) {
			snap := session.Snapshot()
			if err := speaker.Send(reader.Frame{Type: reader.FrameState, Change: &change, Snapshot: &snap}); err != nil {
				logger.Debug("Failed to send state frame", "error", err)
			}
		},
	})
	defer func() {
		session.Close()
		speaker.Close()
	}()

	if id := r.URL.Query().Get("documentId"); id != "" {
		doc, err := s.loadDocument(ctx, id)
		if err != nil {
			s.sendError(speaker, err)
		} else {
			session.Load(doc)
		}
	}

	snap := session.Snapshot()
	if err := speaker.Send(reader.Frame{Type: reader.FrameState, Snapshot: &snap}); err != nil {
		return
	}

	for {
		var frame reader.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Session connection closed", "error", err)
			}
			return
		}

		switch frame.Type {
		case reader.FrameSpoken:
			speaker.Ack(frame.ID, frame.Error)
		case reader.FrameCommand:
			s.runCommand(ctx, session, speaker, logger, frame.Text)
		default:
			s.sendError(speaker, fmt.Errorf("unknown frame type %q", frame.Type))
		}
	}
}

// runCommand parses and applies one voice transcript.
func (s *HTTPServer) runCommand(ctx context.Context, session *reader.Session, speaker *reader.WebsocketSpeaker, logger *slog.Logger, transcript string) {
	cmd := command.Parse(transcript)
	s.countCommand(cmd)

	action, err := command.Dispatch(session.View(), cmd)
	if err != nil {
		s.deps.Metrics.IncrementCounter(telemetry.MetricCommandsRejected, 1)
		s.sendError(speaker, err)
		return
	}

	logger.Debug("Applying voice command", "command", cmd.Kind(), "op", action.Op)
	if err := session.Apply(ctx, action); err != nil {
		s.sendError(speaker, err)
		return
	}

	if err := speaker.Send(reader.Frame{Type: reader.FrameAction, Action: &action}); err != nil {
		logger.Debug("Failed to send action frame", "error", err)
	}
}

// sendError reports err to the browser as a user facing message.
func (s *HTTPServer) sendError(speaker *reader.WebsocketSpeaker, err error) {
	if sendErr := speaker.Send(reader.Frame{Type: reader.FrameError, Error: userMessage(err)}); sendErr != nil {
		s.logger.Debug("Failed to send error frame", "error", sendErr)
	}
}

func userMessage(err error) string {
	var rejection *command.Rejection
	switch {
	case errors.As(err, &rejection):
		return rejection.Message
	case errors.Is(err, docstore.ErrNotFound):
		return "PDF not found"
	case errors.Is(err, reader.ErrNoDocument):
		return "Please select a PDF first"
	case errors.Is(err, reader.ErrNoText):
		return "No text available to summarize"
	case errors.Is(err, reader.ErrInvalidTransition):
		return "That command is not available right now"
	}
	return err.Error()
}

// openDocument finds a document for an "open <name>" command.
func (s *HTTPServer) openDocument(ctx context.Context, query string) (*reader.Document, error) {
	docs, err := s.deps.Store.SearchByName(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &command.Rejection{Message: fmt.Sprintf("No PDF found with name: %s", query)}
	}
	return toReaderDocument(docs[0])
}

// loadDocument loads a document by id.
func (s *HTTPServer) loadDocument(ctx context.Context, id string) (*reader.Document, error) {
	doc, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReaderDocument(doc)
}

func toReaderDocument(doc *docstore.Document) (*reader.Document, error) {
	pages := doc.Pages
	if len(pages) == 0 && doc.ExtractedText != "" {
		pages = []string{doc.ExtractedText}
	}
	if len(pages) == 0 {
		return nil, &command.Rejection{Message: fmt.Sprintf("No text available for PDF: %s", doc.OriginalName)}
	}
	return &reader.Document{ID: doc.ID, Name: doc.OriginalName, Pages: pages}, nil
}
