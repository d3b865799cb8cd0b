package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// Tool names
const (
	ToolResolveQuery   = "resolve_query"
	ToolInterpretQuery = "interpret_query"
	ToolValidateGenes  = "validate_genes"
	ToolSearchStudies  = "search_studies"
)

// ToolNames lists the registered tools in registration order.
var ToolNames = []string{ToolResolveQuery, ToolInterpretQuery, ToolValidateGenes, ToolSearchStudies}

const maxToolGenes = 100

// QueryParams defines parameters for resolve_query and interpret_query
type QueryParams struct {
	Query string `json:"query" jsonschema:"natural-language question naming a gene and optionally a cancer type"`
}

// ValidateGenesParams defines parameters for validate_genes
type ValidateGenesParams struct {
	Genes []string `json:"genes" jsonschema:"gene symbols to check, e.g. TP53"`
}

// SearchStudiesParams defines parameters for search_studies
type SearchStudiesParams struct {
	CancerType string `json:"cancer_type,omitempty" jsonschema:"cancer type term matched against study name, description and cancer type id"`
}

func (s *Server) handleResolveQuery(ctx context.Context, req *mcp.CallToolRequest, params QueryParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolResolveQuery).Info("Tool invoked")

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("query is required")), nil, nil
	}

	result := s.app.Queries.Resolve(ctx, query)
	s.logger.WithFields(logrus.Fields{
		"tool":  ToolResolveQuery,
		"state": result.State,
		"count": result.Count,
	}).Debug("Tool completed")
	return s.jsonResult(result), nil, nil
}

func (s *Server) handleInterpretQuery(ctx context.Context, req *mcp.CallToolRequest, params QueryParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolInterpretQuery).Info("Tool invoked")

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("query is required")), nil, nil
	}

	interpretation := s.app.Queries.Interpret(ctx, query)
	return s.jsonResult(interpretation), nil, nil
}

func (s *Server) handleValidateGenes(ctx context.Context, req *mcp.CallToolRequest, params ValidateGenesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolValidateGenes).Info("Tool invoked")

	if len(params.Genes) == 0 {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("genes must list at least one symbol")), nil, nil
	}
	if len(params.Genes) > maxToolGenes {
		return s.createErrorResult("Too many genes", fmt.Errorf("at most %d symbols per call", maxToolGenes)), nil, nil
	}

	report := s.app.Validator.Validate(params.Genes)
	return s.jsonResult(struct {
		domain.ValidationReport
		Summary string `json:"summary"`
	}{report, report.Summary()}), nil, nil
}

func (s *Server) handleSearchStudies(ctx context.Context, req *mcp.CallToolRequest, params SearchStudiesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolSearchStudies).Info("Tool invoked")

	studies, err := s.app.Studies.Studies(ctx, params.CancerType)
	if err != nil {
		return s.createErrorResult("Studies are unavailable", err), nil, nil
	}
	return s.jsonResult(map[string]interface{}{"studies": studies, "count": len(studies)}), nil, nil
}

func (s *Server) jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.createErrorResult("Failed to encode result", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
