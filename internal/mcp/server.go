// Package mcp exposes the query pipeline as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/cbioportal-query-assistant/internal/app"
	"github.com/cbioportal-query-assistant/internal/domain"
)

// Server is the cBioPortal query MCP server
type Server struct {
	app       *app.App
	mcpServer *mcp.Server
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance and registers its tools.
func NewServer(configManager domain.ConfigManager, a *app.App) (*Server, error) {
	cfg := configManager.GetConfig().MCP

	name := cfg.ServerName
	if name == "" {
		name = "cbioportal-query-assistant"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = app.Version
	}

	logger := a.Logger
	if logger == nil {
		logger = logrus.New()
	}

	server := &Server{
		app:       a,
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		logger:    logger,
	}

	if err := server.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return server, nil
}

// Start runs the server on stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func (s *Server) registerTools() error {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolResolveQuery,
		Description: "Answer a natural-language cancer genomics question, e.g. \"TP53 mutations in breast cancer\". Returns mutation records from cBioPortal, or sample data when the API is unavailable.",
	}, s.handleResolveQuery)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolInterpretQuery,
		Description: "Interpret a natural-language question into genes, cancer types and query type without fetching data.",
	}, s.handleInterpretQuery)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolValidateGenes,
		Description: "Check gene symbols against the gene catalog and suggest corrections for unknown symbols.",
	}, s.handleValidateGenes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolSearchStudies,
		Description: "Search cBioPortal studies by cancer type, or list studies when no cancer type is given.",
	}, s.handleSearchStudies)

	s.logger.WithField("tool_count", len(ToolNames)).Info("Registered MCP tools")
	return nil
}
