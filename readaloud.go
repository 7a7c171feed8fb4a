// Package readaloud wires the voice driven PDF reader: document storage,
// summarization, translation and the HTTP, websocket and MCP surfaces.
package readaloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/localrivet/readaloud/internal/blobstore"
	"github.com/localrivet/readaloud/internal/cache"
	"github.com/localrivet/readaloud/internal/config"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/errortypes"
	"github.com/localrivet/readaloud/internal/reader"
	"github.com/localrivet/readaloud/internal/server"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/localrivet/readaloud/internal/translator"
)

// Config represents the configuration for the readaloud service.
type Config = config.Config

// Server represents the readaloud service.
type Server struct {
	config     *Config
	components *Components
	httpServer *server.HTTPServer
	toolServer server.ToolServer
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// Components are the long lived collaborators shared by every surface.
type Components struct {
	Metrics    *telemetry.MetricsCollector
	Cache      cache.Cache
	Store      docstore.Store
	Blobs      *blobstore.Store
	Summarizer *summarizer.CachingSummarizer
	Translator translator.Translator
	Catalog    *translator.Catalog
}

// Close releases the store and the cache.
func (c *Components) Close() error {
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	return errors.Join(errs...)
}

// NewServer creates a new readaloud Server with the given options.
func NewServer(ctx context.Context, opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	} else {
		logger.Warn("No Config object or ConfigPath provided, using default configuration")
		cfg = DefaultConfig()
	}

	components, err := CreateComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	httpServer, err := server.NewHTTPServer(server.Dependencies{
		Store:           components.Store,
		Blobs:           components.Blobs,
		Summarizer:      components.Summarizer,
		Translator:      components.Translator,
		Catalog:         components.Catalog,
		Metrics:         components.Metrics,
		Logger:          logger,
		PageGap:         cfg.PageGap(),
		PublicDir:       cfg.Server.PublicDir,
		CORSOrigin:      cfg.Server.CORSOrigin,
		ReadTimeout:     seconds(cfg.Server.ReadTimeoutSeconds),
		WriteTimeout:    seconds(cfg.Server.WriteTimeoutSeconds),
		ShutdownTimeout: seconds(cfg.Server.ShutdownTimeoutSeconds),
	})
	if err != nil {
		components.Close()
		return nil, err
	}

	s := &Server{
		config:     cfg,
		components: components,
		httpServer: httpServer,
		logger:     logger,
	}

	if cfg.MCP.Enabled {
		toolServer := server.NewMCPToolServer(components.Store, components.Summarizer,
			components.Translator, components.Catalog, logger)
		if err := toolServer.Initialize(); err != nil {
			components.Close()
			return nil, errortypes.ConfigError(err, "Failed to initialize MCP tool server")
		}
		s.toolServer = toolServer
	}

	logger.Info("readaloud server successfully initialized",
		"store", cfg.Store.Driver, "cache", cfg.Cache.Driver, "mcp", cfg.MCP.Enabled)
	return s, nil
}

// DefaultConfig returns the default configuration for the readaloud service.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// SaveConfig writes cfg to path as JSON.
func SaveConfig(cfg *Config, path string) error {
	if err := cfg.SaveToFile(path); err != nil {
		return errortypes.ConfigError(err, "failed to save configuration")
	}
	return nil
}

// CreateComponents builds and initializes the store, cache, summarizer and
// translator described by cfg.
func CreateComponents(ctx context.Context, cfg *Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Components{
		Metrics: telemetry.NewMetricsCollector(),
		Catalog: translator.DefaultCatalog(),
	}

	switch cfg.Cache.Driver {
	case "redis":
		logger.Info("Connecting to redis cache", "addr", cfg.Cache.RedisAddr)
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.RedisPrefix)
		if err != nil {
			return nil, errortypes.ConfigError(err, "Failed to connect to redis cache")
		}
		c.Cache = rc
	default:
		c.Cache = cache.NewMemoryCache(cfg.Cache.Capacity)
	}

	logger.Info("Initializing document store", "driver", cfg.Store.Driver)
	store, err := docstore.Open(docstore.Options{
		Driver:     cfg.Store.Driver,
		Path:       cfg.Store.SQLitePath,
		MongoURI:   cfg.Store.MongoURI,
		Database:   cfg.Store.MongoDatabase,
		Collection: cfg.Store.MongoCollection,
	})
	if err != nil {
		c.Close()
		return nil, errortypes.ConfigError(err, "Failed to open document store")
	}
	if err := store.Initialize(ctx); err != nil {
		c.Close()
		return nil, errortypes.DatabaseError(err, "Failed to initialize document store")
	}
	c.Store = store

	blobs, err := blobstore.New(cfg.Blob.Dir, int64(cfg.Blob.MaxSizeMB)<<20)
	if err != nil {
		c.Close()
		return nil, errortypes.ConfigError(err, "Failed to initialize blob store")
	}
	c.Blobs = blobs

	c.Summarizer = summarizer.NewCachingSummarizer(summarizer.NewExtractiveSummarizer(), summarizer.CachingConfig{
		Cache:   c.Cache,
		TTL:     hours(cfg.Cache.SummaryTTLHours),
		Metrics: c.Metrics,
		Logger:  logger.With("component", "summarizer"),
	})
	if err := c.Summarizer.Initialize(); err != nil {
		c.Close()
		return nil, errortypes.ConfigError(err, "Failed to initialize summarizer")
	}

	tr, err := newTranslator(cfg, c, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Translator = tr

	logger.Info("Components successfully initialized")
	return c, nil
}

func newTranslator(cfg *Config, c *Components, logger *slog.Logger) (translator.Translator, error) {
	t := cfg.Translator
	common := translator.Config{
		RequestsPerSecond: float64(t.RequestsPerSecond),
		Timeout:           seconds(t.TimeoutSeconds),
	}

	libre := common
	libre.APIKey, libre.BaseURL = t.LibreTranslateAPIKey, t.LibreTranslateURL
	google := common
	google.APIKey, google.BaseURL = t.GoogleAPIKey, t.GoogleURL

	factory := translator.NewProviderFactory(map[string]translator.Config{
		translator.ProviderLibreTranslate: libre,
		translator.ProviderGoogle:         google,
	})

	fallback, err := translator.NewFromFactory(factory, t.Provider, cfg.FallbackProviders(), translator.FallbackConfig{
		MaxRetries: t.MaxRetries,
		RetryDelay: time.Duration(t.RetryDelayMs) * time.Millisecond,
		Timeout:    seconds(t.TimeoutSeconds),
		Metrics:    c.Metrics,
		Logger:     logger.With("component", "translator"),
	})
	if err != nil {
		return nil, errortypes.ConfigError(err, "Failed to initialize translator")
	}
	logger.Info("Translator initialized", "providers", fallback.Providers())

	return translator.NewCachingTranslator(fallback, c.Cache, hours(cfg.Cache.TranslationTTLHours),
		c.Metrics, logger.With("component", "translator")), nil
}

// Run serves HTTP, and MCP when enabled, until ctx is cancelled or a
// surface fails.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", "addr", s.config.Server.Addr)
		return s.httpServer.ListenAndServe(gctx, s.config.Server.Addr)
	})

	if s.toolServer != nil {
		g.Go(func() error {
			errCh := make(chan error, 1)
			go func() { errCh <- s.toolServer.Start() }()

			select {
			case <-gctx.Done():
				return s.toolServer.Stop()
			case err := <-errCh:
				if err != nil {
					return errortypes.ExternalError(err, "MCP server failed")
				}
				s.logger.Info("MCP client disconnected")
				return nil
			}
		})
	}

	return g.Wait()
}

// Stop releases the server's components.
func (s *Server) Stop() error {
	s.logger.Info("Stopping readaloud service")
	if err := s.components.Close(); err != nil {
		s.logger.Error("Failed to close components", "error", err)
		return err
	}
	s.logger.Info("readaloud service stopped")
	return nil
}

// Handler returns the HTTP API handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// Summarize returns an extractive summary of text.
func (s *Server) Summarize(ctx context.Context, text string) (*summarizer.Result, error) {
	return s.components.Summarizer.SummarizeContext(ctx, text)
}

// Translate translates text into a language given by name, ISO code or tag.
func (s *Server) Translate(ctx context.Context, text, language string) (*translator.Translation, error) {
	lang, err := s.components.Catalog.Resolve(language)
	if err != nil {
		return nil, err
	}
	return s.components.Translator.Translate(ctx, text, lang.Code)
}

// NewSession starts a reading session outside the websocket endpoint. A nil
// speaker logs utterances instead of speaking them.
func (s *Server) NewSession(speaker reader.Speaker) *reader.Session {
	if speaker == nil {
		speaker = reader.NewLogSpeaker(s.logger.With("component", "speaker"))
	}
	return reader.NewSession(reader.Config{
		Speaker:    speaker,
		Translator: s.components.Translator,
		Summarizer: s.components.Summarizer,
		Catalog:    s.components.Catalog,
		Opener:     s.openDocument,
		Metrics:    s.components.Metrics,
		Logger:     s.logger,
		PageGap:    s.config.PageGap(),
	})
}

// openDocument loads the first document whose name contains query.
func (s *Server) openDocument(ctx context.Context, query string) (*reader.Document, error) {
	docs, err := s.components.Store.SearchByName(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no document named %q: %w", query, docstore.ErrNotFound)
	}
	doc := docs[0]
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document %q has no extracted text", doc.OriginalName)
	}
	return &reader.Document{ID: doc.ID, Name: doc.OriginalName, Pages: doc.Pages}, nil
}

// Components returns the server's collaborators.
func (s *Server) Components() *Components {
	return s.components
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func hours(n int) time.Duration { return time.Duration(n) * time.Hour }
