package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// CBioPortalClient handles interactions with the cBioPortal public REST API
type CBioPortalClient struct {
	baseURL       string
	userAgent     string
	httpClient    *http.Client
	statusTimeout time.Duration
	rateLimit     *rate.Limiter
}

// PortalInfo is the reply of the /info endpoint
type PortalInfo struct {
	PortalVersion string `json:"portalVersion"`
	DBVersion     string `json:"dbVersion"`
	GitBranch     string `json:"gitBranch,omitempty"`
}

type portalGene struct {
	EntrezGeneID   int    `json:"entrezGeneId"`
	HugoGeneSymbol string `json:"hugoGeneSymbol"`
	Type           string `json:"type"`
	Cytoband       string `json:"cytoband"`
}

func (g portalGene) entry() domain.CatalogEntry {
	return domain.CatalogEntry{
		Symbol:       strings.ToUpper(g.HugoGeneSymbol),
		EntrezGeneID: g.EntrezGeneID,
		Type:         g.Type,
		Cytoband:     g.Cytoband,
	}
}

type mutationFilter struct {
	SampleListID  string `json:"sampleListId"`
	EntrezGeneIDs []int  `json:"entrezGeneIds"`
}

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cBioPortal API returned status %d: %s", e.Code, e.Body)
}

// NewCBioPortalClient creates a new cBioPortal API client
func NewCBioPortalClient(config domain.CBioPortalConfig) *CBioPortalClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://www.cbioportal.org/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.StatusTimeout == 0 {
		config.StatusTimeout = 5 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}
	if config.UserAgent == "" {
		config.UserAgent = "cbioportal-query-assistant/1.0"
	}

	return &CBioPortalClient{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		userAgent: config.UserAgent,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		statusTimeout: config.StatusTimeout,
		rateLimit:     rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// BaseURL returns the API root the client talks to.
func (c *CBioPortalClient) BaseURL() string { return c.baseURL }

// ListGenes returns up to limit genes from /genes. Entries without a symbol
// are skipped.
func (c *CBioPortalClient) ListGenes(ctx context.Context, limit int) ([]domain.CatalogEntry, error) {
	params := url.Values{"projection": {"SUMMARY"}}
	if limit > 0 {
		params.Set("pageSize", strconv.Itoa(limit))
		params.Set("pageNumber", "0")
	}

	var genes []portalGene
	if err := c.getJSON(ctx, "/genes?"+params.Encode(), &genes); err != nil {
		return nil, fmt.Errorf("failed to list genes: %w", err)
	}

	entries := make([]domain.CatalogEntry, 0, len(genes))
	for _, g := range genes {
		if g.HugoGeneSymbol == "" {
			continue
		}
		entries = append(entries, g.entry())
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// GetGene resolves one symbol. A 404 maps to domain.ErrGeneNotFound.
func (c *CBioPortalClient) GetGene(ctx context.Context, symbol string) (*domain.CatalogEntry, error) {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("gene symbol cannot be empty")
	}

	var g portalGene
	err := c.getJSON(ctx, "/genes/"+url.PathEscape(symbol), &g)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrGeneNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gene %s: %w", symbol, err)
	}
	if g.EntrezGeneID == 0 {
		return nil, fmt.Errorf("%w: %s has no Entrez id", domain.ErrGeneNotFound, symbol)
	}
	entry := g.entry()
	return &entry, nil
}

// FetchMutations posts the plan's filter to the mutation profile. A plan
// without an Entrez id is resolved through GetGene first.
func (c *CBioPortalClient) FetchMutations(ctx context.Context, plan domain.FetchPlan) ([]domain.RawMutation, error) {
	entrezID := plan.EntrezGeneID
	if entrezID == 0 {
		gene, err := c.GetGene(ctx, plan.GeneSymbol)
		if err != nil {
			return nil, err
		}
		entrezID = gene.EntrezGeneID
	}

	path := fmt.Sprintf("/molecular-profiles/%s/mutations/fetch?projection=SUMMARY", url.PathEscape(plan.MolecularProfileID))
	filter := mutationFilter{SampleListID: plan.SampleListID, EntrezGeneIDs: []int{entrezID}}

	var mutations []domain.RawMutation
	if err := c.postJSON(ctx, path, filter, &mutations); err != nil {
		return nil, fmt.Errorf("failed to fetch mutations for %s in %s: %w", plan.GeneSymbol, plan.StudyID, err)
	}
	return mutations, nil
}

// ListStudies returns every public study.
func (c *CBioPortalClient) ListStudies(ctx context.Context) ([]domain.Study, error) {
	var studies []domain.Study
	if err := c.getJSON(ctx, "/studies?projection=SUMMARY", &studies); err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	return studies, nil
}

// Status probes /info with the short status timeout.
func (c *CBioPortalClient) Status(ctx context.Context) (*PortalInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	var info PortalInfo
	if err := c.getJSON(ctx, "/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *CBioPortalClient) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *CBioPortalClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *CBioPortalClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(data) > 200 {
			data = data[:200]
		}
		return &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
