package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/localrivet/readaloud"
	"github.com/localrivet/readaloud/internal/config"
	"github.com/localrivet/readaloud/internal/errortypes"
	"github.com/localrivet/readaloud/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "readaloud: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultConfigFilename, "path to the configuration file")
	mcp := flag.Bool("mcp", false, "also serve MCP tools on stdio")
	writeConfig := flag.String("write-config", "", "write the effective configuration to this path and exit")
	flag.Parse()

	// A missing .env file is not an error
	_ = godotenv.Load()

	cfg, err := config.LoadConfigWithPath(*configPath)
	if err != nil {
		return err
	}
	if *mcp {
		cfg.MCP.Enabled = true
	}

	// Logs go to stderr so stdout stays free for the MCP transport
	appLogger := logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	appLogger.Info("readaloud - Starting...")

	if *writeConfig != "" {
		if err := readaloud.SaveConfig(cfg, *writeConfig); err != nil {
			return err
		}
		appLogger.Info("Configuration written", "path", *writeConfig)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := readaloud.NewServer(ctx, readaloud.ServerOptions{Config: cfg, Logger: logger.WithContext(appLogger, "server")})
	if err != nil {
		errortypes.LogError(appLogger, err)
		return err
	}
	defer srv.Stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		errortypes.LogError(appLogger, err)
		return err
	}

	appLogger.Info("Shutdown complete")
	return nil
}
