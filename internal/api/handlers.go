package api

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/cbioportal-query-assistant/internal/app"
	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/health"
	"github.com/cbioportal-query-assistant/internal/lexicon"
	"github.com/cbioportal-query-assistant/internal/middleware"
	"github.com/cbioportal-query-assistant/internal/sampledata"
)

const (
	maxQueryLength   = 1000
	maxValidateGenes = 100
	apiStatusOnline  = "online"
	apiStatusOffline = "offline"
)

// QueryRequest is the body of POST /query. Text is the field name used by
// earlier clients and is read when Query is empty.
type QueryRequest struct {
	Query string `json:"query,omitempty"`
	Text  string `json:"text,omitempty"`
}

// ValidateGenesRequest is the body of POST /genes/validate
type ValidateGenesRequest struct {
	Genes []string `json:"genes" binding:"required"`
}

// ValidateGenesResponse is the catalog report plus its summary line
type ValidateGenesResponse struct {
	domain.ValidationReport
	Summary string `json:"summary"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "cBioPortal Query Assistant",
		"version":     app.Version,
		"description": "Natural-language queries over cancer genomics data",
		"provider":    s.app.Provider.Name(),
		"endpoints": []string{
			"GET /health", "GET /query?q=", "POST /query", "GET /genes",
			"POST /genes/validate", "GET /studies", "GET /api-status",
			"POST /catalog/refresh", "GET /metrics",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := s.app.Health.Run(c.Request.Context())
	code := http.StatusOK
	if status.Overall == health.StateUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (s *Server) handleQueryGet(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		query = c.Query("text")
	}
	s.resolve(c, query)
}

func (s *Server) handleQueryPost(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Request body must be {\"query\": \"...\"}", err.Error())
		return
	}
	query := req.Query
	if strings.TrimSpace(query) == "" {
		query = req.Text
	}
	s.resolve(c, query)
}

func (s *Server) resolve(c *gin.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Query text is required", "")
		return
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		middleware.AbortWithError(c, http.StatusBadRequest, domain.ErrValidation, "Query text is too long", "")
		return
	}

	result := s.app.Queries.Resolve(c.Request.Context(), query)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGenes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sample_genes":    sampledata.Genes(),
		"supported_genes": lexicon.Genes(),
		"cancer_types":    lexicon.CancerTypes(),
		"catalog_size":    s.app.Catalog.Size(),
		"catalog_source":  s.app.Catalog.Source(),
	})
}

func (s *Server) handleValidateGenes(c *gin.Context) {
	var req ValidateGenesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Request body must be {\"genes\": [...]}", err.Error())
		return
	}
	if len(req.Genes) > maxValidateGenes {
		middleware.AbortWithError(c, http.StatusBadRequest, domain.ErrValidation, "Too many genes in one request", "")
		return
	}

	report := s.app.Validator.Validate(req.Genes)
	c.JSON(http.StatusOK, ValidateGenesResponse{ValidationReport: report, Summary: report.Summary()})
}

func (s *Server) handleStudies(c *gin.Context) {
	studies, err := s.app.Studies.Studies(c.Request.Context(), c.Query("cancer_type"))
	if err != nil {
		s.logger.WithError(err).Warn("Study listing failed")
		middleware.AbortWithError(c, http.StatusBadGateway, domain.ErrExternalAPI, "Studies are unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"studies": studies, "count": len(studies)})
}

func (s *Server) handleAPIStatus(c *gin.Context) {
	cfg := s.configManager.GetConfig().CBioPortal
	resp := gin.H{
		"base_url":   cfg.BaseURL,
		"breakers":   s.app.Portal.BreakerStates(),
		"checked_at": time.Now().UTC(),
	}

	info, err := s.app.Portal.Status(c.Request.Context())
	if err != nil {
		resp["status"] = apiStatusOffline
		resp["message"] = "cBioPortal API is unreachable; sample data will be used"
		resp["error"] = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp["status"] = apiStatusOnline
	resp["message"] = "cBioPortal API is reachable"
	resp["portal_version"] = info.PortalVersion
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCatalogRefresh(c *gin.Context) {
	if err := s.app.Catalog.Refresh(c.Request.Context()); err != nil {
		middleware.AbortWithError(c, http.StatusBadGateway, domain.ErrCatalogRefresh, "Catalog refresh failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"genes":     s.app.Catalog.Size(),
		"source":    s.app.Catalog.Source(),
		"loaded_at": s.app.Catalog.LoadedAt(),
	})
}
