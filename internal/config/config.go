package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/localrivet/configurator"
)

// Config represents the readaloud configuration
type Config struct {
	// Server contains HTTP server configuration.
	Server struct {
		// Addr is the listen address of the HTTP server.
		Addr string `json:"addr" env:"SERVER_ADDR" validate:"required"`

		// PublicDir is served at / when set.
		PublicDir string `json:"public_dir" env:"PUBLIC_DIR"`

		// CORSOrigin is sent as Access-Control-Allow-Origin.
		CORSOrigin string `json:"cors_origin" env:"CORS_ORIGIN"`

		ReadTimeoutSeconds     int `json:"read_timeout_seconds" env:"READ_TIMEOUT_SECONDS" validate:"min:1"`
		WriteTimeoutSeconds    int `json:"write_timeout_seconds" env:"WRITE_TIMEOUT_SECONDS" validate:"min:1"`
		ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT_SECONDS" validate:"min:1"`
	} `json:"server"`

	// Store contains document storage configuration.
	Store struct {
		// Driver is "sqlite" or "mongo".
		Driver string `json:"driver" env:"STORE_DRIVER" validate:"required"`

		// SQLitePath is the path to the SQLite database file.
		SQLitePath string `json:"sqlite_path" env:"SQLITE_PATH"`

		MongoURI        string `json:"mongo_uri" env:"MONGO_URI"`
		MongoDatabase   string `json:"mongo_database" env:"MONGO_DATABASE"`
		MongoCollection string `json:"mongo_collection" env:"MONGO_COLLECTION"`
	} `json:"store"`

	// Blob contains uploaded file storage configuration.
	Blob struct {
		// Dir is the directory uploaded PDFs are written to.
		Dir string `json:"dir" env:"BLOB_DIR" validate:"required"`

		// MaxSizeMB bounds a single upload.
		MaxSizeMB int `json:"max_size_mb" env:"BLOB_MAX_SIZE_MB" validate:"min:1"`
	} `json:"blob"`

	// Translator contains translation provider configuration.
	Translator struct {
		// Provider is the primary provider ("libretranslate", "google", "none").
		Provider string `json:"provider" env:"TRANSLATOR_PROVIDER" validate:"required"`

		// Fallbacks is a comma separated list of providers tried after Provider.
		Fallbacks string `json:"fallbacks" env:"TRANSLATOR_FALLBACKS"`

		LibreTranslateURL    string `json:"libretranslate_url" env:"LIBRETRANSLATE_URL"`
		LibreTranslateAPIKey string `json:"libretranslate_api_key" env:"LIBRETRANSLATE_API_KEY"`
		GoogleAPIKey         string `json:"google_api_key" env:"GOOGLE_API_KEY"`
		GoogleURL            string `json:"google_url" env:"GOOGLE_URL"`

		MaxRetries        int `json:"max_retries" env:"TRANSLATOR_MAX_RETRIES"`
		RetryDelayMs      int `json:"retry_delay_ms" env:"TRANSLATOR_RETRY_DELAY_MS"`
		TimeoutSeconds    int `json:"timeout_seconds" env:"TRANSLATOR_TIMEOUT_SECONDS" validate:"min:1"`
		RequestsPerSecond int `json:"requests_per_second" env:"TRANSLATOR_REQUESTS_PER_SECOND" validate:"min:1"`
	} `json:"translator"`

	// Cache contains result cache configuration.
	Cache struct {
		// Driver is "memory" or "redis".
		Driver string `json:"driver" env:"CACHE_DRIVER" validate:"required"`

		Capacity      int    `json:"capacity" env:"CACHE_CAPACITY" validate:"min:1"`
		RedisAddr     string `json:"redis_addr" env:"REDIS_ADDR"`
		RedisPassword string `json:"redis_password" env:"REDIS_PASSWORD"`
		RedisDB       int    `json:"redis_db" env:"REDIS_DB"`
		RedisPrefix   string `json:"redis_prefix" env:"REDIS_PREFIX"`

		SummaryTTLHours     int `json:"summary_ttl_hours" env:"CACHE_SUMMARY_TTL_HOURS" validate:"min:1"`
		TranslationTTLHours int `json:"translation_ttl_hours" env:"CACHE_TRANSLATION_TTL_HOURS" validate:"min:1"`
	} `json:"cache"`

	// Reader contains reading session configuration.
	Reader struct {
		// PageGapMs is the pause between pages during continuous reading.
		PageGapMs int `json:"page_gap_ms" env:"READER_PAGE_GAP_MS"`
	} `json:"reader"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// MCP contains the stdio tool server configuration.
	MCP struct {
		// Enabled starts the MCP stdio server next to the HTTP server.
		Enabled bool `json:"enabled" env:"MCP_ENABLED"`
	} `json:"mcp"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".readaloudconfig"
	DefaultEnvPrefix      = "READALOUD"
	DefaultAddr           = ":5000"
	DefaultSQLitePath     = ".readaloud.db"
	DefaultBlobDir        = "uploads"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Server.Addr = DefaultAddr
	config.Server.CORSOrigin = "*"
	config.Server.ReadTimeoutSeconds = 30
	config.Server.WriteTimeoutSeconds = 60
	config.Server.ShutdownTimeoutSeconds = 10
	config.Store.Driver = "sqlite"
	config.Store.SQLitePath = DefaultSQLitePath
	config.Store.MongoDatabase = "readaloud"
	config.Store.MongoCollection = "pdfs"
	config.Blob.Dir = DefaultBlobDir
	config.Blob.MaxSizeMB = 50
	config.Translator.Provider = "libretranslate"
	config.Translator.LibreTranslateURL = "https://libretranslate.com"
	config.Translator.MaxRetries = 2
	config.Translator.RetryDelayMs = 500
	config.Translator.TimeoutSeconds = 30
	config.Translator.RequestsPerSecond = 5
	config.Cache.Driver = "memory"
	config.Cache.Capacity = 1000
	config.Cache.RedisAddr = "localhost:6379"
	config.Cache.RedisPrefix = "readaloud:"
	config.Cache.SummaryTTLHours = 24
	config.Cache.TranslationTTLHours = 24 * 7
	config.Reader.PageGapMs = 500
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path. Defaults
// are overridden by the file, when it exists, and then by READALOUD_*
// environment variables.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Configuration is loaded before the process logger exists
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		stdLogger.Info("Config file not found, using defaults and environment", "path", configPath)
	} else {
		stdLogger.Info("Loading configuration", "path", configPath)
		config = config.WithProvider(configurator.NewFileProvider(configPath))
	}

	config = config.
		WithProvider(configurator.NewEnvProvider(DefaultEnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// Validate checks the cross-field rules the struct tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case "mongo":
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Cache.Driver)
	}

	if c.Translator.MaxRetries < 0 || c.Translator.RetryDelayMs < 0 {
		return fmt.Errorf("translator retries and retry delay must not be negative")
	}
	return nil
}

// FallbackProviders returns the configured fallback provider names.
func (c *Config) FallbackProviders() []string {
	var names []string
	for _, name := range strings.Split(c.Translator.Fallbacks, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// PageGap returns the pause between pages.
func (c *Config) PageGap() time.Duration {
	if c.Reader.PageGapMs < 0 {
		return -1
	}
	return time.Duration(c.Reader.PageGapMs) * time.Millisecond
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
