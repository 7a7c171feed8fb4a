package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/errortypes"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/tools"
	"github.com/localrivet/readaloud/internal/translator"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// toolTimeout bounds the work done for one tool call.
const toolTimeout = 30 * time.Second

// MCPToolServer implements ToolServer for the summarize, translate, command
// and document search tools.
type MCPToolServer struct {
	store      docstore.Store
	summarizer summarizer.Summarizer
	translator translator.Translator
	catalog    *translator.Catalog
	logger     *slog.Logger
	mcpServer  server.Server
}

// NewMCPToolServer creates a new MCPToolServer instance.
func NewMCPToolServer(store docstore.Store, s summarizer.Summarizer, t translator.Translator, catalog *translator.Catalog, logger *slog.Logger) *MCPToolServer {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = translator.DefaultCatalog()
	}
	return &MCPToolServer{
		store:      store,
		summarizer: s,
		translator: t,
		catalog:    catalog,
		logger:     logger.With("component", "mcp"),
	}
}

// Initialize initializes the server with dependencies and configurations.
func (s *MCPToolServer) Initialize() error {
	s.logger.Info("Initializing MCP Tool Server")

	if s.store == nil || s.summarizer == nil || s.translator == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	srv := server.NewServer("readaloud")

	srv = srv.Tool(tools.ToolSummarizeText, "Summarize text into its most relevant sentences",
		s.handleSummarizeText)

	srv = srv.Tool(tools.ToolTranslateText, "Translate text into a language given by name or code",
		s.handleTranslateText)

	srv = srv.Tool(tools.ToolParseVoiceCommand, "Parse a voice transcript into a reader action",
		s.handleParseVoiceCommand)

	srv = srv.Tool(tools.ToolSearchDocuments, "Search uploaded PDFs by name",
		s.handleSearchDocuments)

	s.mcpServer = srv
	s.logger.Info("MCP Tool Server initialized successfully", "tool_count", 4)
	return nil
}

// Start starts the MCP server on the stdio transport.
func (s *MCPToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	s.logger.Info("Starting MCP Tool Server")
	return s.mcpServer.AsStdio().Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPToolServer) Stop() error {
	s.logger.Info("Stopping MCP Tool Server")
	// The server will exit when stdin is closed
	return nil
}

// handleSummarizeText handles the summarize_text MCP tool call.
func (s *MCPToolServer) handleSummarizeText(ctx *server.Context, req tools.SummarizeRequest) (tools.SummarizeResponse, error) {
	s.logger.Info("Processing summarize_text request", "text_length", len(req.Text))

	if err := req.Validate(); err != nil {
		return tools.SummarizeResponse{}, err
	}

	result, err := s.summarizer.Summarize(req.Text)
	if err != nil {
		err = errortypes.InternalError(err, "failed to summarize text").
			WithField("text_length", len(req.Text))
		errortypes.LogError(s.logger, err)
		return tools.SummarizeResponse{}, err
	}

	return tools.SummarizeResponse{
		Message:             tools.MsgTextSummarized,
		Summary:             result.Summary,
		OriginalLength:      result.OriginalLength,
		SummaryLength:       result.SummaryLength,
		ReductionPercentage: result.ReductionPercentage,
	}, nil
}

// handleTranslateText handles the translate_text MCP tool call.
func (s *MCPToolServer) handleTranslateText(ctx *server.Context, req tools.TranslateTextRequest) (tools.TranslateTextResponse, error) {
	s.logger.Info("Processing translate_text request", "text_length", len(req.FromText), "to_language", req.ToLanguage)

	response := tools.TranslateTextResponse{Status: tools.StatusSuccess}

	lang, err := s.catalog.Resolve(req.ToLanguage)
	if err != nil {
		err = errortypes.ValidationError(err, "unsupported target language").
			WithField("to_language", req.ToLanguage)
		errortypes.LogError(s.logger, err)

		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	callCtx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	translation, err := s.translator.Translate(callCtx, req.FromText, lang.Code)
	if err != nil {
		err = errortypes.ExternalError(err, "failed to translate text").
			WithField("target_language", lang.Code)
		errortypes.LogError(s.logger, err)

		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	response.TranslatedText = translation.Text
	response.DetectedSourceLanguage = translation.DetectedSourceLanguage
	return response, nil
}

// handleParseVoiceCommand handles the parse_voice_command MCP tool call.
func (s *MCPToolServer) handleParseVoiceCommand(ctx *server.Context, req tools.CommandRequest) (tools.CommandResponse, error) {
	s.logger.Info("Processing parse_voice_command request", "transcript", req.Transcript)

	if err := req.Validate(); err != nil {
		return tools.CommandResponse{Status: tools.StatusError, Error: err.Error()}, nil
	}

	cmd := command.Parse(req.Transcript)
	response := tools.CommandResponse{
		Status:  tools.StatusSuccess,
		Command: string(cmd.Kind()),
	}

	action, err := command.Dispatch(commandView(req.View), cmd)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	response.Op = string(action.Op)
	response.Page = action.Page
	response.Query = action.Query
	response.Language = action.Language
	return response, nil
}

// handleSearchDocuments handles the search_documents MCP tool call.
func (s *MCPToolServer) handleSearchDocuments(ctx *server.Context, req tools.SearchDocumentsRequest) (tools.SearchDocumentsResponse, error) {
	s.logger.Info("Processing search_documents request", "name", req.Name)

	response := tools.SearchDocumentsResponse{
		Status:    tools.StatusSuccess,
		Documents: []tools.DocumentSummary{},
	}

	if err := req.Validate(); err != nil {
		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	callCtx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	docs, err := s.store.SearchByName(callCtx, req.Name)
	if err != nil {
		err = errortypes.DatabaseError(err, "failed to search documents").
			WithField("name", req.Name)
		errortypes.LogError(s.logger, err)

		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	for _, doc := range docs {
		response.Documents = append(response.Documents, documentSummary(doc))
	}
	s.logger.Info("Successfully searched documents", "count", len(docs))
	return response, nil
}

// commandView converts the wire view into the dispatcher's view.
func commandView(v tools.CommandView) command.View {
	return command.View{
		HasDocument: v.DocumentID != "" || v.NumPages > 0,
		CurrentPage: v.CurrentPage,
		NumPages:    v.NumPages,
	}
}

func documentSummary(doc *docstore.Document) tools.DocumentSummary {
	return tools.DocumentSummary{
		ID:           doc.ID,
		OriginalName: doc.OriginalName,
		Pages:        len(doc.Pages),
	}
}
