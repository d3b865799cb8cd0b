package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbioportal-query-assistant/internal/app"
	"github.com/cbioportal-query-assistant/internal/config"
	"github.com/cbioportal-query-assistant/internal/logging"
	"github.com/cbioportal-query-assistant/internal/mcp"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer closer.Close()
	// stdout belongs to the protocol
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		logger.SetOutput(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, configManager, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialise")
	}
	defer a.Close()

	mcpServer, err := mcp.NewServer(configManager, a)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	if err := mcpServer.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server stopped with error")
		return
	}
	logger.Info("cBioPortal MCP server stopped")
}
